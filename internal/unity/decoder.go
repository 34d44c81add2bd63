package unity

import (
	"fmt"
	"strconv"

	"github.com/pixil98/go-roomwatch/internal/protocol"
)

// DecodeError reports a payload that could not be parsed.
type DecodeError struct {
	Op  string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decoding %s: %s", e.Op, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// maxRecords caps the declared record count so a corrupt header can't
// trigger a huge allocation.
const maxRecords = 1 << 12

// Decoder parses Unity client room packets.
type Decoder struct{}

func NewDecoder() *Decoder {
	return &Decoder{}
}

// ParseEntities decodes a users-in-room payload.
func (d *Decoder) ParseEntities(payload []byte) ([]Entity, error) {
	p := protocol.NewPacket(payload)

	count, err := readCount(p)
	if err != nil {
		return nil, &DecodeError{Op: "entities", Err: err}
	}

	entities := make([]Entity, 0, count)
	for i := 0; i < count; i++ {
		e, err := readEntity(p)
		if err != nil {
			return nil, &DecodeError{Op: "entities", Err: fmt.Errorf("entity %d: %w", i, err)}
		}
		entities = append(entities, e)
	}

	return entities, nil
}

// ParseStatusUpdates decodes a status payload.
func (d *Decoder) ParseStatusUpdates(payload []byte) ([]StatusUpdate, error) {
	p := protocol.NewPacket(payload)

	count, err := readCount(p)
	if err != nil {
		return nil, &DecodeError{Op: "status", Err: err}
	}

	updates := make([]StatusUpdate, 0, count)
	for i := 0; i < count; i++ {
		u, err := readStatus(p)
		if err != nil {
			return nil, &DecodeError{Op: "status", Err: fmt.Errorf("update %d: %w", i, err)}
		}
		updates = append(updates, u)
	}

	return updates, nil
}

// ParseIndex decodes the single entity index carried by a user-logged-out payload.
func (d *Decoder) ParseIndex(payload []byte) (int32, error) {
	idx, err := protocol.NewPacket(payload).ReadInt32()
	if err != nil {
		return 0, &DecodeError{Op: "index", Err: err}
	}
	return idx, nil
}

func readCount(p *protocol.Packet) (int, error) {
	n, err := p.ReadInt32()
	if err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	if n < 0 || n > maxRecords {
		return 0, fmt.Errorf("count %d out of range", n)
	}
	return int(n), nil
}

func readEntity(p *protocol.Packet) (Entity, error) {
	var e Entity
	var err error

	if e.ID, err = p.ReadInt64(); err != nil {
		return e, err
	}
	if e.Name, err = p.ReadString(); err != nil {
		return e, err
	}
	if e.Motto, err = p.ReadString(); err != nil {
		return e, err
	}
	if e.Figure, err = p.ReadString(); err != nil {
		return e, err
	}
	if e.Index, err = p.ReadInt32(); err != nil {
		return e, err
	}
	if e.Tile, err = readTile(p); err != nil {
		return e, err
	}
	if e.BodyDirection, err = p.ReadInt32(); err != nil {
		return e, err
	}
	e.HeadDirection = e.BodyDirection

	t, err := p.ReadInt32()
	if err != nil {
		return e, err
	}
	e.Type = EntityType(t)
	if !e.Type.valid() {
		return e, fmt.Errorf("unknown entity type %d", t)
	}

	switch e.Type {
	case EntityTypeUser:
		if e.Gender, err = p.ReadString(); err != nil {
			return e, err
		}
	case EntityTypePet:
		// pet breed, unused
		if _, err = p.ReadInt32(); err != nil {
			return e, err
		}
	}

	return e, nil
}

func readStatus(p *protocol.Packet) (StatusUpdate, error) {
	var u StatusUpdate
	var err error

	if u.Index, err = p.ReadInt32(); err != nil {
		return u, err
	}
	if u.Tile, err = readTile(p); err != nil {
		return u, err
	}
	if u.HeadDirection, err = p.ReadInt32(); err != nil {
		return u, err
	}
	if u.BodyDirection, err = p.ReadInt32(); err != nil {
		return u, err
	}
	if u.Action, err = p.ReadString(); err != nil {
		return u, err
	}
	u.NextTile = parseNextTile(u.Action)

	return u, nil
}

// readTile reads x and y as ints and z as a decimal string.
func readTile(p *protocol.Packet) (Tile, error) {
	var t Tile
	var err error

	if t.X, err = p.ReadInt32(); err != nil {
		return t, err
	}
	if t.Y, err = p.ReadInt32(); err != nil {
		return t, err
	}
	z, err := p.ReadString()
	if err != nil {
		return t, err
	}
	if t.Z, err = strconv.ParseFloat(z, 64); err != nil {
		return t, fmt.Errorf("parsing z %q: %w", z, err)
	}
	return t, nil
}
