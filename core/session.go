package hooks

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/otel/codes"

	"github.com/koscakluka/duplex-core/core/realtime"
	"github.com/koscakluka/duplex-core/core/transport"
)

// Session binds two middleware chains to a duplex channel. Obtain one with
// HookHandlers; drive KeepReceiving from a dedicated goroutine and call
// Send from anywhere.
type Session struct {
	channel transport.Channel

	serverHandlers []ServerEventHandler
	clientHandlers []ClientEventHandler

	receiving atomic.Bool

	closeOnce    sync.Once
	closeErr     error
	teardowns    []Teardown
	closeChannel bool
}

// SessionOption configures HookHandlers.
type SessionOption func(*Session)

// WithoutChannelClose leaves the channel open on Session.Close, for
// callers that own the connection lifecycle themselves.
func WithoutChannelClose() SessionOption {
	return func(s *Session) { s.closeChannel = false }
}

// WithTeardown registers an extra teardown to run on Session.Close, after
// the middlewares' own teardowns.
func WithTeardown(teardown Teardown) SessionOption {
	return func(s *Session) { s.teardowns = append(s.teardowns, teardown) }
}

// HookHandlers wires the ordered handler chains onto channel and returns
// the session. For each handler (in registration order, server chain
// first) it hands the session's send to SendRegistrar implementations and
// collects Teardown implementations, deduplicated, so a middleware sitting
// in both chains is registered once.
func HookHandlers(
	channel transport.Channel,
	serverHandlers []ServerEventHandler,
	clientHandlers []ClientEventHandler,
	opts ...SessionOption,
) (*Session, error) {
	if channel == nil {
		return nil, errors.New("hook handlers require a channel")
	}

	session := &Session{
		channel:        channel,
		serverHandlers: serverHandlers,
		clientHandlers: clientHandlers,
		closeChannel:   true,
	}

	seen := map[any]bool{}
	register := func(handler any) {
		if handler == nil {
			return
		}
		// Func adapters are not comparable; they also cannot implement the
		// optional interfaces, so they skip deduplication entirely.
		if reflect.TypeOf(handler).Comparable() {
			if seen[handler] {
				return
			}
			seen[handler] = true
		}
		if registrar, ok := handler.(SendRegistrar); ok {
			registrar.RegisterSend(session.Send)
		}
		if teardown, ok := handler.(Teardown); ok {
			session.teardowns = append(session.teardowns, teardown)
		}
	}
	for _, handler := range serverHandlers {
		register(handler)
	}
	for _, handler := range clientHandlers {
		register(handler)
	}

	for _, opt := range opts {
		opt(session)
	}

	return session, nil
}

// Send passes event through each client handler in registration order and
// writes the surviving event to the channel. It returns once the write is
// queued; delivery is not acknowledged. A handler error aborts this event
// but leaves the chain intact for the next one.
func (s *Session) Send(ctx context.Context, event realtime.ClientEvent) error {
	for _, handler := range s.clientHandlers {
		next, err := handler.HandleClientEvent(ctx, event)
		if err != nil {
			return &HandlerError{
				Handler:   fmt.Sprintf("%T", handler),
				EventType: event.EventType(),
				Err:       err,
			}
		}
		if next == nil {
			return nil
		}
		event = next
	}

	if err := s.channel.Send(ctx, event); err != nil {
		return &TransportError{Err: err}
	}
	return nil
}

// KeepReceiving pumps server events from the channel through the server
// chain until the channel closes, ctx is cancelled, or an error occurs.
// Orderly closure returns nil; a broken channel returns *TransportError; a
// middleware failure returns *HandlerError. At most one loop runs at a
// time; a concurrent second call returns ErrAlreadyReceiving.
func (s *Session) KeepReceiving(ctx context.Context) error {
	if !s.receiving.CompareAndSwap(false, true) {
		return ErrAlreadyReceiving
	}
	defer s.receiving.Store(false)

	for {
		event, err := s.channel.Receive(ctx)
		if err != nil {
			if errors.Is(err, transport.ErrClosed) {
				return nil
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return &TransportError{Err: err}
		}

		for _, handler := range s.serverHandlers {
			next, err := handler.HandleServerEvent(ctx, event)
			if err != nil {
				return &HandlerError{
					Handler:   fmt.Sprintf("%T", handler),
					EventType: event.EventType(),
					Err:       err,
				}
			}
			if next == nil {
				break
			}
			event = next
		}
	}
}

// Close tears down every registered resource in reverse registration order
// and then closes the channel (unless WithoutChannelClose). Safe to call
// multiple times and from any exit path.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		_, span := tracer.Start(context.Background(), "close session")
		defer span.End()

		for i := len(s.teardowns) - 1; i >= 0; i-- {
			if err := s.teardowns[i].Teardown(); err != nil {
				recordedErr := fmt.Errorf("failed to tear down %T: %w", s.teardowns[i], err)
				span.RecordError(recordedErr)
				span.SetStatus(codes.Error, recordedErr.Error())
				if s.closeErr == nil {
					s.closeErr = recordedErr
				}
			}
		}

		if s.closeChannel {
			if err := s.channel.Close(); err != nil && s.closeErr == nil {
				s.closeErr = fmt.Errorf("failed to close channel: %w", err)
			}
		}
	})
	return s.closeErr
}
