package hooks

import (
	"context"
	"sync"
	"time"

	"github.com/koscakluka/duplex-core/core/audio"
	"github.com/koscakluka/duplex-core/core/realtime"
	"github.com/koscakluka/duplex-core/internal/utils"
)

// SpeechProgress describes how far into the current assistant speech
// playback has gotten. PlayedMs is an estimate interpolated from wall-clock
// time; the device queue does not report sample-accurate positions.
type SpeechProgress struct {
	ItemID       string
	ContentIndex int
	PlayedMs     int
	EnqueuedMs   int
}

type speech struct {
	itemID       string
	contentIndex int
	bytes        int
	startedAt    time.Time
}

// Playback feeds assistant audio deltas into a Sink as they arrive, keeping
// a per-item speech queue so progress can be attributed to the item being
// heard right now. Deltas pass through unchanged for handlers further down
// the chain.
//
// Device failures do not abort the event stream: the broken delta is
// dropped, the error handler is notified, and the session keeps running
// without local audio.
type Playback struct {
	sink audio.Sink

	mu       sync.Mutex
	encoding audio.EncodingInfo
	speeches []*speech
	closed   bool

	errorHandler  func(error)
	onDeviceError func(*DeviceError)

	// gate, when set, runs each chunk delivery under the interrupt
	// coordinator's mutex. It closes the window where a delta that already
	// cleared the coordinator's handler would re-fill the device queue
	// right after an out-of-band interrupt flushed it.
	gate func(itemID, responseID string, deliver func() error) (bool, error)
}

// PlaybackOption configures NewPlayback.
type PlaybackOption func(*Playback)

// WithPlaybackErrorHandler routes playback device errors to handler instead
// of the default log line.
func WithPlaybackErrorHandler(handler func(error)) PlaybackOption {
	return func(p *Playback) { p.errorHandler = handler }
}

func NewPlayback(sink audio.Sink, opts ...PlaybackOption) *Playback {
	playback := &Playback{
		sink:     sink,
		encoding: sink.EncodingInfo(),
	}
	if playback.encoding.IsZero() {
		playback.encoding = audio.GetDefaultEncodingInfo()
	}
	for _, opt := range opts {
		opt(playback)
	}
	return playback
}

func (p *Playback) HandleServerEvent(ctx context.Context, event realtime.ServerEvent) (realtime.ServerEvent, error) {
	switch typed := event.(type) {
	case *realtime.SessionCreated:
		p.adoptOutputFormat(typed.Session)
	case *realtime.SessionUpdated:
		p.adoptOutputFormat(typed.Session)
	case *realtime.ResponseAudioDelta:
		p.play(ctx, typed)
	}
	return event, nil
}

// CurrentSpeech reports the speech being played right now, if any.
func (p *Playback) CurrentSpeech() (SpeechProgress, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := time.Now()
	p.advanceLocked(now)
	if len(p.speeches) == 0 {
		return SpeechProgress{}, false
	}

	current := p.speeches[0]
	enqueuedMs := p.encoding.DurationMs(current.bytes)
	playedMs := utils.Clamp(float64(now.Sub(current.startedAt))/float64(time.Millisecond), 0, enqueuedMs)
	return SpeechProgress{
		ItemID:       current.itemID,
		ContentIndex: current.contentIndex,
		PlayedMs:     int(playedMs),
		EnqueuedMs:   int(enqueuedMs),
	}, true
}

// Interrupt discards everything queued but not yet heard and halts the
// device. Playback resumes with the next audio delta that reaches the
// handler.
func (p *Playback) Interrupt() error {
	p.mu.Lock()
	p.speeches = nil
	p.mu.Unlock()

	p.sink.Flush()
	if err := p.sink.Stop(); err != nil {
		deviceErr := &DeviceError{Device: "playback", Op: "stop", Err: err}
		// No onDeviceError here: Interrupt's callers hold their own locks
		// and handle the returned error themselves.
		p.notifyError(context.Background(), deviceErr)
		return deviceErr
	}
	return nil
}

func (p *Playback) Teardown() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.speeches = nil
	p.mu.Unlock()

	return p.sink.Close()
}

func (p *Playback) play(ctx context.Context, delta *realtime.ResponseAudioDelta) {
	chunk, err := realtime.DecodeAudio(delta.Delta)
	if err != nil {
		logger.WarnContext(ctx, "dropping undecodable audio delta",
			"item_id", delta.ItemID, "error", err)
		return
	}
	if len(chunk) == 0 {
		return
	}

	deliver := func() error {
		if err := p.sink.Enqueue(chunk); err != nil {
			return err
		}
		p.trackSpeech(delta.ItemID, delta.ContentIndex, len(chunk))
		return nil
	}

	if p.gate != nil {
		allowed, err := p.gate(delta.ItemID, delta.ResponseID, deliver)
		if !allowed {
			return
		}
		if err != nil {
			p.reportError(ctx, &DeviceError{Device: "playback", Op: "enqueue", Err: err})
		}
		return
	}

	if err := deliver(); err != nil {
		p.reportError(ctx, &DeviceError{Device: "playback", Op: "enqueue", Err: err})
	}
}

func (p *Playback) trackSpeech(itemID string, contentIndex, size int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := time.Now()
	p.advanceLocked(now)

	if last := p.lastSpeechLocked(); last != nil && last.itemID == itemID {
		last.bytes += size
		return
	}
	next := &speech{itemID: itemID, contentIndex: contentIndex, bytes: size}
	if len(p.speeches) == 0 {
		next.startedAt = now
	}
	p.speeches = append(p.speeches, next)
}

// advanceLocked pops speeches whose estimated play time has fully elapsed,
// carrying the finish time over as the next speech's start.
func (p *Playback) advanceLocked(now time.Time) {
	for len(p.speeches) > 0 {
		current := p.speeches[0]
		finish := current.startedAt.Add(time.Duration(p.encoding.DurationMs(current.bytes) * float64(time.Millisecond)))
		if now.Before(finish) {
			return
		}
		p.speeches = p.speeches[1:]
		if len(p.speeches) > 0 {
			p.speeches[0].startedAt = finish
		}
	}
}

func (p *Playback) lastSpeechLocked() *speech {
	if len(p.speeches) == 0 {
		return nil
	}
	return p.speeches[len(p.speeches)-1]
}

func (p *Playback) adoptOutputFormat(config realtime.SessionConfig) {
	if config.OutputAudioFormat == nil {
		return
	}
	info := audio.FormatFromWire(config.OutputAudioFormat.Type, config.OutputAudioFormat.Rate)
	p.mu.Lock()
	p.encoding = info
	p.mu.Unlock()
}

func (p *Playback) reportError(ctx context.Context, deviceErr *DeviceError) {
	p.notifyError(ctx, deviceErr)
	if p.onDeviceError != nil {
		p.onDeviceError(deviceErr)
	}
}

func (p *Playback) notifyError(ctx context.Context, deviceErr *DeviceError) {
	if p.errorHandler != nil {
		p.errorHandler(deviceErr)
	} else {
		logger.ErrorContext(ctx, "playback device failure", "error", deviceErr)
	}
}
