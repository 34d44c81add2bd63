package room

import "log/slog"

// MessageIDs are the packet identifiers the registry binds to.
type MessageIDs struct {
	UsersInRoom   uint16
	GetGuestRoom  uint16
	UserLoggedOut uint16
	Status        uint16
}

// DefaultMessageIDs are the identifiers used by the Unity client.
var DefaultMessageIDs = MessageIDs{
	UsersInRoom:   28,
	GetGuestRoom:  385,
	UserLoggedOut: 29,
	Status:        34,
}

const DefaultMaxConcurrentTasks = 16

type RegistryOpt func(*Registry)

// WithMessageIDs overrides the packet identifiers bound at construction.
func WithMessageIDs(ids MessageIDs) RegistryOpt {
	return func(r *Registry) {
		r.ids = ids
	}
}

// WithMaxConcurrentTasks bounds how many decode/apply tasks run at once.
// Values below 1 are ignored.
func WithMaxConcurrentTasks(n int) RegistryOpt {
	return func(r *Registry) {
		if n > 0 {
			r.maxTasks = n
		}
	}
}

// WithErrorHandler sets the function that receives failed task errors.
// It is called from task goroutines and must be safe for concurrent use.
func WithErrorHandler(fn func(error)) RegistryOpt {
	return func(r *Registry) {
		if fn != nil {
			r.onError = fn
		}
	}
}

func logTaskError(err error) {
	slog.Error("room task failed", "error", err)
}
