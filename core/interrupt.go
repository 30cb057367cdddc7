package hooks

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/koscakluka/duplex-core/core/realtime"
)

// ErrNoSend reports an interrupt attempt before the coordinator was handed
// a send function by HookHandlers.
var ErrNoSend = errors.New("interrupt coordinator has no send registered")

// InterruptState is the coordinator's view of who holds the floor.
type InterruptState int

const (
	// InterruptIdle: no assistant audio is playing.
	InterruptIdle InterruptState = iota
	// InterruptAssistantSpeaking: assistant audio is flowing to playback.
	InterruptAssistantSpeaking
	// InterruptInterrupted: a barge-in fired and the server has not yet
	// acknowledged the truncation or finished the response.
	InterruptInterrupted
)

func (s InterruptState) String() string {
	switch s {
	case InterruptIdle:
		return "idle"
	case InterruptAssistantSpeaking:
		return "assistant_speaking"
	case InterruptInterrupted:
		return "interrupted"
	}
	return "unknown"
}

const defaultAckTimeout = 2 * time.Second

// InterruptCoordinator implements barge-in: when the user starts speaking
// over assistant audio it atomically halts local playback and tells the
// server to cancel the in-flight response and truncate the item at the
// point actually heard. One mutex covers the whole cut, and the same mutex
// gates chunk delivery into playback, so a delta racing in on the receive
// loop lands strictly before or strictly after the cut — including a delta
// that cleared this handler before an out-of-band interrupt (TriggerInterrupt,
// SetUserTalking) fired from another goroutine but reached playback after
// the flush.
//
// After the cut, deltas for the interrupted item are dropped until the
// server acknowledges with conversation.item.truncated or the response
// finishes; a lazily checked timeout bounds the wait against servers that
// never answer. Deltas for an item that was ever interrupted stay dropped
// for the rest of the session.
//
// Register it on the server chain before Playback so dropped deltas never
// reach the device.
type InterruptCoordinator struct {
	playback *Playback

	mu                 sync.Mutex
	send               SendFunc
	state              InterruptState
	activeResponseID   string
	alreadyInterrupted map[string]bool
	cancelledResponses map[string]bool
	ackDeadline        time.Time
	ackTimeout         time.Duration
	userTalking        bool
}

// InterruptOption configures NewInterruptCoordinator.
type InterruptOption func(*InterruptCoordinator)

// WithAckTimeout bounds how long post-interrupt deltas are dropped while
// waiting for the server's acknowledgment.
func WithAckTimeout(timeout time.Duration) InterruptOption {
	return func(c *InterruptCoordinator) { c.ackTimeout = timeout }
}

// NewInterruptCoordinator builds a coordinator bound to playback, which may
// be nil when the application has no local audio output; interrupts then
// only cancel and truncate on the wire.
func NewInterruptCoordinator(playback *Playback, opts ...InterruptOption) *InterruptCoordinator {
	coordinator := &InterruptCoordinator{
		playback:           playback,
		alreadyInterrupted: map[string]bool{},
		cancelledResponses: map[string]bool{},
		ackTimeout:         defaultAckTimeout,
	}
	for _, opt := range opts {
		opt(coordinator)
	}
	if playback != nil {
		// A dead device means nothing is audibly playing; holding the
		// interrupted or speaking state would just wedge the machine.
		playback.onDeviceError = func(*DeviceError) { coordinator.forceIdle() }
		playback.gate = coordinator.gatePlayback
	}
	return coordinator
}

func (c *InterruptCoordinator) RegisterSend(send SendFunc) {
	c.mu.Lock()
	c.send = send
	c.mu.Unlock()
}

// State reports the current floor-holding state.
func (c *InterruptCoordinator) State() InterruptState {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.maybeExpireAckLocked(time.Now())
	return c.state
}

// TriggerInterrupt fires a barge-in on behalf of the application, for
// client-side voice activity detection or an explicit stop button. It is a
// no-op when no assistant audio is playing or an interrupt is already in
// flight.
func (c *InterruptCoordinator) TriggerInterrupt(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.interruptLocked(ctx)
}

// SetUserTalking feeds client-side voice activity into the coordinator.
// Turning it on while the assistant is speaking fires an interrupt.
func (c *InterruptCoordinator) SetUserTalking(ctx context.Context, talking bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.userTalking = talking
	if talking && c.state == InterruptAssistantSpeaking {
		return c.interruptLocked(ctx)
	}
	return nil
}

func (c *InterruptCoordinator) HandleServerEvent(ctx context.Context, event realtime.ServerEvent) (realtime.ServerEvent, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch typed := event.(type) {
	case *realtime.ResponseCreated:
		c.activeResponseID = typed.Response.ID

	case *realtime.ResponseAudioDelta:
		if c.alreadyInterrupted[typed.ItemID] || c.cancelledResponses[typed.ResponseID] {
			return nil, nil
		}
		if c.state == InterruptInterrupted {
			if !c.maybeExpireAckLocked(time.Now()) {
				return nil, nil
			}
		}
		if c.state == InterruptIdle {
			c.state = InterruptAssistantSpeaking
		}
		if c.userTalking {
			// The user already holds the floor; cut before this delta is
			// heard.
			if err := c.interruptLocked(ctx); err != nil {
				return nil, err
			}
			return nil, nil
		}

	case *realtime.InputAudioBufferSpeechStarted:
		c.userTalking = true
		if c.state == InterruptAssistantSpeaking {
			if err := c.interruptLocked(ctx); err != nil {
				return nil, err
			}
		}

	case *realtime.InputAudioBufferSpeechStopped:
		c.userTalking = false

	case *realtime.ConversationItemTruncated:
		if c.state == InterruptInterrupted && c.alreadyInterrupted[typed.ItemID] {
			c.state = InterruptIdle
		}

	case *realtime.ResponseDone:
		delete(c.cancelledResponses, typed.Response.ID)
		if typed.Response.ID == c.activeResponseID {
			c.activeResponseID = ""
			c.state = InterruptIdle
		}
	}

	return event, nil
}

// interruptLocked performs the atomic cut: halt playback, mark the item,
// and tell the server. Re-entrant calls and calls with nothing playing are
// no-ops.
func (c *InterruptCoordinator) interruptLocked(ctx context.Context) error {
	if c.state == InterruptInterrupted {
		return nil
	}
	if c.send == nil {
		return ErrNoSend
	}

	var progress SpeechProgress
	var playing bool
	if c.playback != nil {
		progress, playing = c.playback.CurrentSpeech()
	}

	if c.playback != nil {
		if err := c.playback.Interrupt(); err != nil {
			// The device is dead, so nothing is audibly playing and there
			// is nothing meaningful to truncate against.
			c.state = InterruptIdle
			return nil
		}
	}

	if !playing {
		c.state = InterruptIdle
		if c.activeResponseID != "" {
			c.cancelledResponses[c.activeResponseID] = true
			return c.send(ctx, realtime.NewResponseCancel(c.activeResponseID))
		}
		return nil
	}

	c.alreadyInterrupted[progress.ItemID] = true
	if c.activeResponseID != "" {
		c.cancelledResponses[c.activeResponseID] = true
	}
	c.state = InterruptInterrupted
	c.ackDeadline = time.Now().Add(c.ackTimeout)

	if err := c.send(ctx, realtime.NewResponseCancel(c.activeResponseID)); err != nil {
		return err
	}
	if err := c.send(ctx, realtime.NewConversationItemTruncate(
		progress.ItemID, progress.ContentIndex, progress.PlayedMs)); err != nil {
		return err
	}
	// Fetch the item's final server-side form so trackers can reconcile the
	// truncated content.
	return c.send(ctx, realtime.NewConversationItemRetrieve(progress.ItemID))
}

// maybeExpireAckLocked returns whether the interrupted state has been left
// (by ack or by timeout). It only advances the clock lazily, on the events
// that care.
func (c *InterruptCoordinator) maybeExpireAckLocked(now time.Time) bool {
	if c.state != InterruptInterrupted {
		return true
	}
	if now.After(c.ackDeadline) {
		logger.Warn("interrupt acknowledgment timed out", "timeout", c.ackTimeout)
		c.state = InterruptIdle
		return true
	}
	return false
}

// gatePlayback runs a playback chunk delivery under the coordinator's mutex.
// A delta that cleared HandleServerEvent before an interrupt fired from
// another goroutine reaches this gate after the cut, sees the item or
// response marked, and is refused instead of re-filling the flushed queue.
func (c *InterruptCoordinator) gatePlayback(itemID, responseID string, deliver func() error) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.alreadyInterrupted[itemID] || c.cancelledResponses[responseID] || c.state == InterruptInterrupted {
		return false, nil
	}
	return true, deliver()
}

func (c *InterruptCoordinator) forceIdle() {
	c.mu.Lock()
	c.state = InterruptIdle
	c.mu.Unlock()
}
