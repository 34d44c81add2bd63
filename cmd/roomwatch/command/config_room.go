package command

import (
	"fmt"

	"github.com/pixil98/go-errors"
	"github.com/pixil98/go-roomwatch/internal/protocol"
	"github.com/pixil98/go-roomwatch/internal/room"
	"github.com/pixil98/go-roomwatch/internal/unity"
)

// MessagesConfig overrides packet identifiers. Zero keeps the default.
type MessagesConfig struct {
	UsersInRoom   uint16 `json:"users_in_room"`
	GetGuestRoom  uint16 `json:"get_guest_room"`
	UserLoggedOut uint16 `json:"user_logged_out"`
	Status        uint16 `json:"status"`
}

func (c *MessagesConfig) ids() room.MessageIDs {
	ids := room.DefaultMessageIDs
	if c.UsersInRoom != 0 {
		ids.UsersInRoom = c.UsersInRoom
	}
	if c.GetGuestRoom != 0 {
		ids.GetGuestRoom = c.GetGuestRoom
	}
	if c.UserLoggedOut != 0 {
		ids.UserLoggedOut = c.UserLoggedOut
	}
	if c.Status != 0 {
		ids.Status = c.Status
	}
	return ids
}

func (c *MessagesConfig) validate() error {
	ids := c.ids()

	// get_guest_room travels the other way so it may share an id.
	toClient := map[uint16]string{}
	el := errors.NewErrorList()
	for _, m := range []struct {
		name string
		id   uint16
	}{
		{"users_in_room", ids.UsersInRoom},
		{"user_logged_out", ids.UserLoggedOut},
		{"status", ids.Status},
	} {
		if other, ok := toClient[m.id]; ok {
			el.Add(fmt.Errorf("messages: %s and %s share id %d", other, m.name, m.id))
			continue
		}
		toClient[m.id] = m.name
	}
	return el.Err()
}

type RegistryConfig struct {
	MaxConcurrentTasks int `json:"max_concurrent_tasks"`
}

func (c *RegistryConfig) validate() error {
	if c.MaxConcurrentTasks < 0 {
		return fmt.Errorf("registry: max_concurrent_tasks must not be negative")
	}
	return nil
}

func (c *Config) BuildRegistry(d protocol.Dispatcher) (*room.Registry, error) {
	return room.NewRegistry(d, unity.NewDecoder(),
		room.WithMessageIDs(c.Messages.ids()),
		room.WithMaxConcurrentTasks(c.Registry.MaxConcurrentTasks),
	)
}
