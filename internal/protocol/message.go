package protocol

import "fmt"

// Direction is the way a message travels relative to the client.
type Direction int

const (
	ToClient Direction = iota
	ToServer
)

func (d Direction) String() string {
	switch d {
	case ToClient:
		return "toclient"
	case ToServer:
		return "toserver"
	default:
		return fmt.Sprintf("direction(%d)", int(d))
	}
}

func (d *Direction) UnmarshalText(text []byte) error {
	switch string(text) {
	case "toclient":
		*d = ToClient
	case "toserver":
		*d = ToServer
	default:
		return fmt.Errorf("unknown direction: %s", text)
	}
	return nil
}

func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Message is a single intercepted packet.
type Message struct {
	ID        uint16
	Direction Direction
	Payload   []byte
}

// Handler is invoked on the dispatcher's delivery path for each matching message.
type Handler func(*Message)

// Dispatcher delivers messages by direction and identifier.
type Dispatcher interface {
	Intercept(dir Direction, id uint16, h Handler) error
}
