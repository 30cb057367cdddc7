package hooks

import (
	"context"

	"github.com/koscakluka/duplex-core/core/realtime"
)

// ServerEventHandler observes and optionally transforms events arriving
// from the remote endpoint. Returning (nil, nil) drops the event for every
// handler registered after this one; returning a different event replaces
// it downstream. Errors abort the current event's chain and surface to the
// receive-loop caller.
type ServerEventHandler interface {
	HandleServerEvent(ctx context.Context, event realtime.ServerEvent) (realtime.ServerEvent, error)
}

// ServerEventHandlerFunc adapts a function to ServerEventHandler.
type ServerEventHandlerFunc func(ctx context.Context, event realtime.ServerEvent) (realtime.ServerEvent, error)

func (f ServerEventHandlerFunc) HandleServerEvent(ctx context.Context, event realtime.ServerEvent) (realtime.ServerEvent, error) {
	return f(ctx, event)
}

// ClientEventHandler is the outgoing-direction counterpart of
// ServerEventHandler. Errors surface to the Send caller.
type ClientEventHandler interface {
	HandleClientEvent(ctx context.Context, event realtime.ClientEvent) (realtime.ClientEvent, error)
}

// ClientEventHandlerFunc adapts a function to ClientEventHandler.
type ClientEventHandlerFunc func(ctx context.Context, event realtime.ClientEvent) (realtime.ClientEvent, error)

func (f ClientEventHandlerFunc) HandleClientEvent(ctx context.Context, event realtime.ClientEvent) (realtime.ClientEvent, error) {
	return f(ctx, event)
}

// SendFunc emits a client event through the session's client chain and
// onto the channel.
type SendFunc func(ctx context.Context, event realtime.ClientEvent) error

// SendRegistrar is implemented by middlewares that inject their own
// outgoing events (audio capture, interrupt coordination). HookHandlers
// hands them the session's send so the dispatcher never depends on them.
type SendRegistrar interface {
	RegisterSend(send SendFunc)
}

// Teardown is implemented by middlewares owning background work or device
// bindings. Session.Close invokes registered teardowns in reverse
// registration order on every exit path.
type Teardown interface {
	Teardown() error
}
