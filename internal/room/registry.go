package room

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/pixil98/go-roomwatch/internal/protocol"
	"github.com/pixil98/go-roomwatch/internal/unity"
)

// Decoder turns raw payloads into entity records.
type Decoder interface {
	ParseEntities(payload []byte) ([]unity.Entity, error)
	ParseStatusUpdates(payload []byte) ([]unity.StatusUpdate, error)
	ParseIndex(payload []byte) (int32, error)
}

// LoadCallback receives the entities decoded from a users-in-room message.
type LoadCallback func([]unity.Entity)

// Registry tracks the entities in the current room. Message handlers run on
// the dispatcher's path and hand all decoding and mutation off to background
// tasks, so the order messages arrive in is not the order they are applied.
type Registry struct {
	mu       sync.Mutex
	entities map[int32]*unity.Entity
	reported int

	onLoad atomic.Pointer[LoadCallback]

	decoder  Decoder
	tasks    *taskRunner
	ids      MessageIDs
	maxTasks int
	onError  func(error)
}

// NewRegistry creates an empty registry and binds its handlers on d.
func NewRegistry(d protocol.Dispatcher, dec Decoder, opts ...RegistryOpt) (*Registry, error) {
	r := &Registry{
		entities: map[int32]*unity.Entity{},
		decoder:  dec,
		ids:      DefaultMessageIDs,
		maxTasks: DefaultMaxConcurrentTasks,
		onError:  logTaskError,
	}

	for _, opt := range opts {
		opt(r)
	}

	r.tasks = newTaskRunner(r.maxTasks, r.onError)

	bindings := []struct {
		name string
		dir  protocol.Direction
		id   uint16
		h    protocol.Handler
	}{
		{"users in room", protocol.ToClient, r.ids.UsersInRoom, r.handleUsersInRoom},
		{"get guest room", protocol.ToServer, r.ids.GetGuestRoom, r.handleGetGuestRoom},
		{"user logged out", protocol.ToClient, r.ids.UserLoggedOut, r.handleUserLoggedOut},
		{"status", protocol.ToClient, r.ids.Status, r.handleStatus},
	}
	for _, b := range bindings {
		if err := d.Intercept(b.dir, b.id, b.h); err != nil {
			return nil, fmt.Errorf("intercepting %s (%s %d): %w", b.name, b.dir, b.id, err)
		}
	}

	return r, nil
}

// OnNewUsers replaces the load callback. Passing nil removes it. A load that
// is already in flight delivers to whichever callback is registered when its
// insertion step finishes.
func (r *Registry) OnNewUsers(fn LoadCallback) {
	if fn == nil {
		r.onLoad.Store(nil)
		return
	}
	r.onLoad.Store(&fn)
}

// ApplyUpdates reconciles updates against the registry in the background.
// Each update takes the lock on its own; updates for absent entities are dropped.
func (r *Registry) ApplyUpdates(updates []unity.StatusUpdate) {
	r.tasks.spawn("apply updates", func() error {
		r.applyUpdates(updates)
		return nil
	})
}

// Snapshot returns a copy of every entity in the room keyed by index.
func (r *Registry) Snapshot() map[int32]unity.Entity {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap := make(map[int32]unity.Entity, len(r.entities))
	for idx, e := range r.entities {
		snap[idx] = e.Clone()
	}
	return snap
}

// Get returns a copy of the entity at index.
func (r *Registry) Get(index int32) (unity.Entity, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entities[index]
	if !ok {
		return unity.Entity{}, false
	}
	return e.Clone(), true
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.entities)
}

// Wait blocks until every task spawned so far has finished.
func (r *Registry) Wait() {
	r.tasks.wait()
}

// Start blocks until ctx is done, then drains in-flight tasks.
func (r *Registry) Start(ctx context.Context) error {
	<-ctx.Done()
	r.Wait()
	return nil
}

// Tick logs room occupancy.
func (r *Registry) Tick(ctx context.Context) error {
	r.mu.Lock()
	count := len(r.entities)
	delta := count - r.reported
	r.reported = count
	r.mu.Unlock()

	slog.InfoContext(ctx, "room occupancy", "entities", count, "change", delta)
	return nil
}

func (r *Registry) handleUsersInRoom(msg *protocol.Message) {
	payload := msg.Payload
	r.tasks.spawn("users in room", func() error {
		entities, err := r.decoder.ParseEntities(payload)
		if err != nil {
			return err
		}

		r.load(entities)

		if cb := r.onLoad.Load(); cb != nil {
			(*cb)(entities)
		}
		return nil
	})
}

func (r *Registry) handleGetGuestRoom(_ *protocol.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()

	clear(r.entities)
}

func (r *Registry) handleUserLoggedOut(msg *protocol.Message) {
	index, err := r.decoder.ParseIndex(msg.Payload)
	if err != nil {
		r.onError(fmt.Errorf("user logged out: %w", err))
		return
	}

	r.tasks.spawn("user logged out", func() error {
		r.remove(index)
		return nil
	})
}

func (r *Registry) handleStatus(msg *protocol.Message) {
	payload := msg.Payload
	r.tasks.spawn("status", func() error {
		updates, err := r.decoder.ParseStatusUpdates(payload)
		if err != nil {
			return err
		}

		r.applyUpdates(updates)
		return nil
	})
}

func (r *Registry) load(entities []unity.Entity) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range entities {
		e := entities[i].Clone()
		r.entities[e.Index] = &e
	}
}

func (r *Registry) remove(index int32) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.entities, index)
}

func (r *Registry) applyUpdates(updates []unity.StatusUpdate) {
	for _, u := range updates {
		r.applyUpdate(u)
	}
}

func (r *Registry) applyUpdate(u unity.StatusUpdate) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.entities[u.Index]; ok {
		e.TryUpdate(u)
	}
}
