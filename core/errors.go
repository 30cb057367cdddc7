package hooks

import (
	"errors"
	"fmt"
)

// ErrAlreadyReceiving reports a second concurrent KeepReceiving call on the
// same session.
var ErrAlreadyReceiving = errors.New("receive loop already running")

// TransportError wraps a channel failure that ended the receive loop or
// rejected a send. Orderly closure is not a TransportError; KeepReceiving
// returns nil for it.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return fmt.Sprintf("transport failure: %v", e.Err) }
func (e *TransportError) Unwrap() error { return e.Err }

// HandlerError wraps an error raised by a middleware while processing one
// event. It aborts that event's chain but leaves the chains usable for
// subsequent events.
type HandlerError struct {
	Handler   string
	EventType string
	Err       error
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("handler %s failed on %q: %v", e.Handler, e.EventType, e.Err)
}

func (e *HandlerError) Unwrap() error { return e.Err }

// DeviceError wraps an audio device failure. It surfaces to the owning I/O
// middleware's caller; the interrupt coordinator is forced back to idle so
// its state machine cannot desynchronize from a dead device.
type DeviceError struct {
	Device string
	Op     string
	Err    error
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("%s device failed during %s: %v", e.Device, e.Op, e.Err)
}

func (e *DeviceError) Unwrap() error { return e.Err }

// ProtocolViolation records an event of unexpected shape reaching a
// stateful tracker. Trackers log and count these instead of aborting the
// session; partial state beats no session.
type ProtocolViolation struct {
	EventType string
	Reason    string
}

func (e *ProtocolViolation) Error() string {
	return fmt.Sprintf("protocol violation on %q: %s", e.EventType, e.Reason)
}
