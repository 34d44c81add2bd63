package messaging

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/pixil98/go-roomwatch/internal/protocol"
	"github.com/pixil98/go-testutil"
)

type fakeBroker struct {
	mu     sync.Mutex
	ready  chan struct{}
	subs   map[string]func([]byte)
	failOn string
}

func newFakeBroker() *fakeBroker {
	return &fakeBroker{
		ready: make(chan struct{}),
		subs:  map[string]func([]byte){},
	}
}

func (b *fakeBroker) Ready() <-chan struct{} { return b.ready }

func (b *fakeBroker) Subscribe(subject string, handler func([]byte)) (func(), error) {
	if subject == b.failOn {
		return nil, errors.New("refused")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[subject] = handler
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs, subject)
	}, nil
}

func (b *fakeBroker) Publish(subject string, data []byte) error {
	b.mu.Lock()
	h, ok := b.subs[subject]
	b.mu.Unlock()
	if ok {
		h(data)
	}
	return nil
}

func (b *fakeBroker) subjects() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestNatsDispatcher_Subject(t *testing.T) {
	tests := map[string]struct {
		prefix string
		dir    protocol.Direction
		id     uint16
		exp    string
	}{
		"default prefix": {dir: protocol.ToClient, id: 28, exp: "packets.toclient.28"},
		"custom prefix":  {prefix: "capture", dir: protocol.ToServer, id: 385, exp: "capture.toserver.385"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			d := NewNatsDispatcher(newFakeBroker(), tt.prefix)
			testutil.AssertEqual(t, "subject", d.Subject(tt.dir, tt.id), tt.exp)
		})
	}
}

func TestNatsDispatcher_BindsPendingOnStart(t *testing.T) {
	b := newFakeBroker()
	d := NewNatsDispatcher(b, "")

	var mu sync.Mutex
	var got []*protocol.Message
	handler := func(m *protocol.Message) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, m)
	}

	testutil.AssertEqual(t, "intercept err", d.Intercept(protocol.ToClient, 28, handler), nil)
	testutil.AssertEqual(t, "subscriptions before start", b.subjects(), 0)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Start(ctx) }()

	close(b.ready)
	waitFor(t, "pending bindings", func() bool { return b.subjects() == 1 })

	// Late interceptions subscribe immediately.
	testutil.AssertEqual(t, "late intercept err", d.Intercept(protocol.ToServer, 385, handler), nil)
	testutil.AssertEqual(t, "subscriptions after late intercept", b.subjects(), 2)

	testutil.AssertEqual(t, "publish err", d.Publish(&protocol.Message{ID: 28, Direction: protocol.ToClient, Payload: []byte{1, 2}}), nil)
	testutil.AssertEqual(t, "publish err", d.Publish(&protocol.Message{ID: 385, Direction: protocol.ToServer}), nil)
	testutil.AssertEqual(t, "publish err", d.Publish(&protocol.Message{ID: 99, Direction: protocol.ToClient}), nil)

	mu.Lock()
	testutil.AssertEqual(t, "delivered", len(got), 2)
	testutil.AssertEqual(t, "first id", got[0].ID, uint16(28))
	testutil.AssertEqual(t, "first direction", got[0].Direction, protocol.ToClient)
	testutil.AssertEqual(t, "first payload", len(got[0].Payload), 2)
	testutil.AssertEqual(t, "second direction", got[1].Direction, protocol.ToServer)
	mu.Unlock()

	cancel()
	testutil.AssertEqual(t, "start err", <-done, nil)
	testutil.AssertEqual(t, "subscriptions after stop", b.subjects(), 0)
}

func TestNatsDispatcher_SubscribeError(t *testing.T) {
	b := newFakeBroker()
	b.failOn = "packets.toclient.34"
	d := NewNatsDispatcher(b, "")

	_ = d.Intercept(protocol.ToClient, 34, func(*protocol.Message) {})
	close(b.ready)

	err := d.Start(context.Background())
	testutil.AssertErrorContains(t, err, "subscribing to packets.toclient.34")
}

func TestNatsDispatcher_StartCanceledBeforeReady(t *testing.T) {
	d := NewNatsDispatcher(newFakeBroker(), "")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	testutil.AssertEqual(t, "err", d.Start(ctx), nil)
}
