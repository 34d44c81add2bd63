package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/pixil98/go-roomwatch/internal/protocol"
)

const DefaultSubjectPrefix = "packets"

// Broker is the subset of NatsServer the dispatcher needs.
type Broker interface {
	Ready() <-chan struct{}
	Subscribe(subject string, handler func(data []byte)) (unsubscribe func(), err error)
	Publish(subject string, data []byte) error
}

type interception struct {
	dir protocol.Direction
	id  uint16
	h   protocol.Handler
}

// NatsDispatcher delivers packets published on <prefix>.<direction>.<id>
// subjects to intercepting handlers. Handlers registered before the broker
// is ready are subscribed once Start observes it ready.
type NatsDispatcher struct {
	broker Broker
	prefix string

	mu      sync.Mutex
	pending []interception
	unsubs  []func()
	started bool
}

func NewNatsDispatcher(broker Broker, prefix string) *NatsDispatcher {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	return &NatsDispatcher{
		broker: broker,
		prefix: prefix,
	}
}

// Subject returns the subject a message with dir and id travels on.
func (d *NatsDispatcher) Subject(dir protocol.Direction, id uint16) string {
	return fmt.Sprintf("%s.%s.%d", d.prefix, dir, id)
}

func (d *NatsDispatcher) Intercept(dir protocol.Direction, id uint16, h protocol.Handler) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	ic := interception{dir: dir, id: id, h: h}
	if !d.started {
		d.pending = append(d.pending, ic)
		return nil
	}
	return d.subscribe(ic)
}

// Publish injects a message as if it had been intercepted on the wire.
func (d *NatsDispatcher) Publish(msg *protocol.Message) error {
	return d.broker.Publish(d.Subject(msg.Direction, msg.ID), msg.Payload)
}

// Start waits for the broker, subscribes every pending interception and
// holds the subscriptions until ctx is done.
func (d *NatsDispatcher) Start(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return nil
	case <-d.broker.Ready():
	}

	if err := d.bind(); err != nil {
		return err
	}
	slog.InfoContext(ctx, "dispatcher bound", "prefix", d.prefix)

	<-ctx.Done()

	d.mu.Lock()
	defer d.mu.Unlock()
	for _, unsub := range d.unsubs {
		unsub()
	}
	d.unsubs = nil
	d.started = false
	return nil
}

func (d *NatsDispatcher) bind() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, ic := range d.pending {
		if err := d.subscribe(ic); err != nil {
			return err
		}
	}
	d.pending = nil
	d.started = true
	return nil
}

// subscribe must be called with d.mu held.
func (d *NatsDispatcher) subscribe(ic interception) error {
	subject := d.Subject(ic.dir, ic.id)
	unsub, err := d.broker.Subscribe(subject, func(data []byte) {
		ic.h(&protocol.Message{ID: ic.id, Direction: ic.dir, Payload: data})
	})
	if err != nil {
		return fmt.Errorf("subscribing to %s: %w", subject, err)
	}
	d.unsubs = append(d.unsubs, unsub)
	return nil
}
