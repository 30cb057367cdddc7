package hooks

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/koscakluka/duplex-core/core/audio"
	"github.com/koscakluka/duplex-core/core/realtime"
)

// ErrAlreadyCapturing reports a second Start on a running Capture.
var ErrAlreadyCapturing = errors.New("capture already started")

const defaultMaxCapturePayload = 32 * 1024

// Capture streams microphone audio to the remote endpoint as
// input_audio_buffer.append events. It sits on the client chain purely to
// receive the session's send via RegisterSend; it never transforms events.
//
// Two goroutines do the work: a reader pulls frames off the device, and a
// sender collates frames that have piled up (a slow network must not make
// the append cadence fall behind the capture cadence) and emits them. Start
// them explicitly once the session is receiving.
type Capture struct {
	source audio.Source

	mu     sync.Mutex
	send   SendFunc
	cancel context.CancelFunc
	done   chan struct{}

	started    atomic.Bool
	closed     atomic.Bool
	maxPayload int

	errorHandler func(error)
}

// CaptureOption configures NewCapture.
type CaptureOption func(*Capture)

// WithCaptureErrorHandler routes capture device and send errors to handler
// instead of the default log line.
func WithCaptureErrorHandler(handler func(error)) CaptureOption {
	return func(c *Capture) { c.errorHandler = handler }
}

// WithMaxCapturePayload caps how many audio bytes a single append event may
// carry when collating backlogged frames.
func WithMaxCapturePayload(maxBytes int) CaptureOption {
	return func(c *Capture) {
		if maxBytes > 0 {
			c.maxPayload = maxBytes
		}
	}
}

func NewCapture(source audio.Source, opts ...CaptureOption) *Capture {
	capture := &Capture{
		source:     source,
		maxPayload: defaultMaxCapturePayload,
	}
	for _, opt := range opts {
		opt(capture)
	}
	return capture
}

func (c *Capture) RegisterSend(send SendFunc) {
	c.mu.Lock()
	c.send = send
	c.mu.Unlock()
}

// HandleClientEvent passes every event through untouched; Capture only
// produces events.
func (c *Capture) HandleClientEvent(_ context.Context, event realtime.ClientEvent) (realtime.ClientEvent, error) {
	return event, nil
}

// Start begins streaming. It returns immediately; capture runs until Stop,
// Teardown, or a device failure. The device failure surfaces through the
// error handler, not through Start.
func (c *Capture) Start(ctx context.Context) error {
	c.mu.Lock()
	send := c.send
	c.mu.Unlock()
	if send == nil {
		return ErrNoSend
	}
	if !c.started.CompareAndSwap(false, true) {
		return ErrAlreadyCapturing
	}

	ctx, cancel := context.WithCancel(ctx)
	frames := make(chan []byte, 16)
	done := make(chan struct{})

	c.mu.Lock()
	c.cancel = cancel
	c.done = done
	c.mu.Unlock()

	go c.read(ctx, frames)
	go c.pump(ctx, send, frames, done)
	return nil
}

// Stop halts streaming and waits for in-flight frames to drain. The
// Capture can be started again afterwards.
func (c *Capture) Stop() {
	c.mu.Lock()
	cancel, done := c.cancel, c.done
	c.cancel, c.done = nil, nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
	c.started.Store(false)
}

func (c *Capture) Teardown() error {
	c.Stop()
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	return c.source.Close()
}

func (c *Capture) read(ctx context.Context, frames chan<- []byte) {
	defer close(frames)
	for {
		frame, err := c.source.NextFrame(ctx)
		if err != nil {
			if ctx.Err() == nil {
				c.reportError(ctx, &DeviceError{Device: "capture", Op: "read", Err: err})
			}
			return
		}
		if len(frame) == 0 {
			continue
		}
		select {
		case frames <- frame:
		case <-ctx.Done():
			return
		}
	}
}

func (c *Capture) pump(ctx context.Context, send SendFunc, frames <-chan []byte, done chan<- struct{}) {
	defer close(done)
	for frame := range frames {
		payload := frame
		// Fold in whatever is already waiting so a backlog becomes fewer,
		// larger appends instead of a widening queue.
	collate:
		for len(payload) < c.maxPayload {
			select {
			case extra, ok := <-frames:
				if !ok {
					break collate
				}
				payload = append(payload, extra...)
			default:
				break collate
			}
		}

		if err := send(ctx, realtime.NewInputAudioBufferAppend(payload)); err != nil {
			if ctx.Err() != nil {
				return
			}
			c.reportError(ctx, err)
		}
	}
}

func (c *Capture) reportError(ctx context.Context, err error) {
	if c.errorHandler != nil {
		c.errorHandler(err)
		return
	}
	logger.ErrorContext(ctx, "capture failure", "error", err)
}
