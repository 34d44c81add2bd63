package protocol

import "sync"

type binding struct {
	dir Direction
	id  uint16
}

// LocalDispatcher is an in-process Dispatcher. Dispatch runs handlers on the
// caller's goroutine in the order they were registered.
type LocalDispatcher struct {
	mu       sync.RWMutex
	handlers map[binding][]Handler
}

func NewLocalDispatcher() *LocalDispatcher {
	return &LocalDispatcher{
		handlers: map[binding][]Handler{},
	}
}

func (d *LocalDispatcher) Intercept(dir Direction, id uint16, h Handler) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	key := binding{dir: dir, id: id}
	d.handlers[key] = append(d.handlers[key], h)
	return nil
}

// Dispatch delivers msg to every handler bound to its direction and id.
// Returns the number of handlers invoked.
func (d *LocalDispatcher) Dispatch(msg *Message) int {
	d.mu.RLock()
	hs := d.handlers[binding{dir: msg.Direction, id: msg.ID}]
	d.mu.RUnlock()

	for _, h := range hs {
		h(msg)
	}
	return len(hs)
}
