// Package transport exposes a realtime session as an abstract duplex
// channel of typed events. Connection management above the basics
// (reconnection, backoff, auth refresh) is the caller's concern.
package transport

import (
	"context"
	"errors"

	"github.com/koscakluka/duplex-core/core/realtime"
)

// ErrClosed reports orderly channel shutdown. Receive returns it once the
// remote endpoint has hung up cleanly and all delivered events are drained.
var ErrClosed = errors.New("channel closed")

// Channel is a duplex stream carrying two independent event directions.
//
// Receive blocks until the next server event is available, the channel
// closes (ErrClosed), or the transport fails. Send blocks under
// backpressure. Receive must be driven from a single goroutine; Send is
// safe for concurrent use.
type Channel interface {
	Receive(ctx context.Context) (realtime.ServerEvent, error)
	Send(ctx context.Context, event realtime.ClientEvent) error
	Close() error
}
