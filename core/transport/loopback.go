package transport

import (
	"context"
	"sync"

	"github.com/koscakluka/duplex-core/core/realtime"
)

// Loopback is an in-process Channel used by tests and embedders that drive
// both endpoints themselves. The "server" side delivers events with Deliver
// and observes the client's traffic on Outgoing.
type Loopback struct {
	incoming chan realtime.ServerEvent
	outgoing chan realtime.ClientEvent

	closed    chan struct{}
	closeOnce sync.Once

	mu      sync.Mutex
	failure error
}

func NewLoopback(capacity int) *Loopback {
	if capacity < 1 {
		capacity = 1
	}
	return &Loopback{
		incoming: make(chan realtime.ServerEvent, capacity),
		outgoing: make(chan realtime.ClientEvent, capacity),
		closed:   make(chan struct{}),
	}
}

// Deliver queues a server event for the client side to receive. Delivery
// order is receive order.
func (l *Loopback) Deliver(event realtime.ServerEvent) {
	select {
	case <-l.closed:
	case l.incoming <- event:
	}
}

// Fail closes the channel with a transport error that Receive surfaces
// after draining already-delivered events.
func (l *Loopback) Fail(err error) {
	l.mu.Lock()
	l.failure = err
	l.mu.Unlock()
	l.Close()
}

// Outgoing exposes the client events written through Send.
func (l *Loopback) Outgoing() <-chan realtime.ClientEvent {
	return l.outgoing
}

func (l *Loopback) Receive(ctx context.Context) (realtime.ServerEvent, error) {
	// Delivered events win over closure so ordering survives shutdown.
	select {
	case event := <-l.incoming:
		return event, nil
	default:
	}

	select {
	case event := <-l.incoming:
		return event, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-l.closed:
		select {
		case event := <-l.incoming:
			return event, nil
		default:
		}
		if err := l.failureErr(); err != nil {
			return nil, err
		}
		return nil, ErrClosed
	}
}

func (l *Loopback) Send(ctx context.Context, event realtime.ClientEvent) error {
	select {
	case <-l.closed:
		return ErrClosed
	default:
	}

	select {
	case l.outgoing <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-l.closed:
		return ErrClosed
	}
}

func (l *Loopback) Close() error {
	l.closeOnce.Do(func() { close(l.closed) })
	return nil
}

func (l *Loopback) failureErr() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.failure
}
