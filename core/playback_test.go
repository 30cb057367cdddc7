package hooks

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/koscakluka/duplex-core/core/realtime"
	"github.com/koscakluka/duplex-core/internal/utils"
)

func TestPlaybackEnqueuesDeltasInArrivalOrder(t *testing.T) {
	sink := &recordingSink{}
	playback := NewPlayback(sink)
	ctx := context.Background()

	first := bytes.Repeat([]byte{0x01}, 48000)
	second := bytes.Repeat([]byte{0x02}, 48000)
	if _, err := playback.HandleServerEvent(ctx, audioDelta("ev-1", "resp-1", "item-b1", first)); err != nil {
		t.Fatalf("expected first delta to play, got %v", err)
	}
	if _, err := playback.HandleServerEvent(ctx, audioDelta("ev-2", "resp-1", "item-b2", second)); err != nil {
		t.Fatalf("expected second delta to play, got %v", err)
	}

	chunks := sink.enqueuedChunks()
	if len(chunks) != 2 {
		t.Fatalf("expected two chunks on the device, got %d", len(chunks))
	}
	if !bytes.Equal(chunks[0], first) || !bytes.Equal(chunks[1], second) {
		t.Fatalf("expected chunks to reach the device in arrival order")
	}

	progress, ok := playback.CurrentSpeech()
	if !ok {
		t.Fatalf("expected a current speech")
	}
	if progress.ItemID != "item-b1" {
		t.Fatalf("expected the first item to be heard first, got %q", progress.ItemID)
	}
}

func TestPlaybackAccumulatesDeltasOfTheSameItem(t *testing.T) {
	sink := &recordingSink{}
	playback := NewPlayback(sink)
	ctx := context.Background()

	// Two chunks of 500ms each at the default 24kHz 16-bit mono.
	chunk := make([]byte, 24000)
	if _, err := playback.HandleServerEvent(ctx, audioDelta("ev-1", "resp-1", "item-b1", chunk)); err != nil {
		t.Fatalf("expected first delta to play, got %v", err)
	}
	if _, err := playback.HandleServerEvent(ctx, audioDelta("ev-2", "resp-1", "item-b1", chunk)); err != nil {
		t.Fatalf("expected second delta to play, got %v", err)
	}

	progress, ok := playback.CurrentSpeech()
	if !ok {
		t.Fatalf("expected a current speech")
	}
	if progress.EnqueuedMs < 990 || progress.EnqueuedMs > 1010 {
		t.Fatalf("expected ~1000ms enqueued for the item, got %dms", progress.EnqueuedMs)
	}
	if progress.PlayedMs > progress.EnqueuedMs {
		t.Fatalf("expected played time clamped to enqueued time, got %d/%d",
			progress.PlayedMs, progress.EnqueuedMs)
	}
}

func TestPlaybackInterruptDiscardsQueuedSpeech(t *testing.T) {
	sink := &recordingSink{}
	playback := NewPlayback(sink)
	ctx := context.Background()

	chunk := make([]byte, 48000)
	if _, err := playback.HandleServerEvent(ctx, audioDelta("ev-1", "resp-1", "item-b1", chunk)); err != nil {
		t.Fatalf("expected delta to play, got %v", err)
	}

	if err := playback.Interrupt(); err != nil {
		t.Fatalf("expected interrupt to succeed, got %v", err)
	}
	if flush, stop := sink.counts(); flush != 1 || stop != 1 {
		t.Fatalf("expected one flush and one stop, got %d/%d", flush, stop)
	}
	if _, ok := playback.CurrentSpeech(); ok {
		t.Fatalf("expected no current speech after interrupt")
	}
}

func TestPlaybackAdvancesPastFinishedSpeech(t *testing.T) {
	sink := &recordingSink{}
	playback := NewPlayback(sink)
	ctx := context.Background()

	// 1ms of audio; it is over almost immediately.
	tiny := make([]byte, 48)
	if _, err := playback.HandleServerEvent(ctx, audioDelta("ev-1", "resp-1", "item-b1", tiny)); err != nil {
		t.Fatalf("expected delta to play, got %v", err)
	}

	time.Sleep(20 * time.Millisecond)
	if _, ok := playback.CurrentSpeech(); ok {
		t.Fatalf("expected the finished speech to be advanced past")
	}

	long := make([]byte, 48000)
	if _, err := playback.HandleServerEvent(ctx, audioDelta("ev-2", "resp-1", "item-b2", long)); err != nil {
		t.Fatalf("expected delta to play, got %v", err)
	}
	progress, ok := playback.CurrentSpeech()
	if !ok || progress.ItemID != "item-b2" {
		t.Fatalf("expected the next item to become current, got %#v", progress)
	}
}

func TestPlaybackAdoptsNegotiatedOutputFormat(t *testing.T) {
	sink := &recordingSink{}
	playback := NewPlayback(sink)
	ctx := context.Background()

	if _, err := playback.HandleServerEvent(ctx, &realtime.SessionCreated{
		ServerEventHeader: serverEvent(realtime.TypeSessionCreated, "ev-1"),
		Session: realtime.SessionConfig{
			OutputAudioFormat: utils.Ptr(realtime.AudioFormat{Type: "pcm16", Rate: 8000}),
		},
	}); err != nil {
		t.Fatalf("expected session.created to be observed, got %v", err)
	}

	// 16000 bytes at 8kHz 16-bit mono is one second.
	chunk := make([]byte, 16000)
	if _, err := playback.HandleServerEvent(ctx, audioDelta("ev-2", "resp-1", "item-b1", chunk)); err != nil {
		t.Fatalf("expected delta to play, got %v", err)
	}

	progress, ok := playback.CurrentSpeech()
	if !ok {
		t.Fatalf("expected a current speech")
	}
	if progress.EnqueuedMs < 990 || progress.EnqueuedMs > 1010 {
		t.Fatalf("expected ~1000ms at the negotiated rate, got %dms", progress.EnqueuedMs)
	}
}

func TestPlaybackDeviceFailureReachesHandlerNotTheChain(t *testing.T) {
	var handled error
	sink := &recordingSink{enqueueErr: errDeviceGone}
	playback := NewPlayback(sink, WithPlaybackErrorHandler(func(err error) { handled = err }))

	chunk := make([]byte, 48000)
	event, err := playback.HandleServerEvent(context.Background(), audioDelta("ev-1", "resp-1", "item-b1", chunk))
	if err != nil {
		t.Fatalf("expected device failure not to abort the chain, got %v", err)
	}
	if event == nil {
		t.Fatalf("expected the event to pass through for other handlers")
	}
	if handled == nil {
		t.Fatalf("expected the error handler to be notified")
	}
	var deviceErr *DeviceError
	if !errors.As(handled, &deviceErr) {
		t.Fatalf("expected a *DeviceError, got %v", handled)
	}
	if _, ok := playback.CurrentSpeech(); ok {
		t.Fatalf("expected no speech tracked for the failed chunk")
	}
}

func TestPlaybackTeardownClosesSink(t *testing.T) {
	sink := &recordingSink{}
	playback := NewPlayback(sink)

	if err := playback.Teardown(); err != nil {
		t.Fatalf("expected teardown to succeed, got %v", err)
	}
	if err := playback.Teardown(); err != nil {
		t.Fatalf("expected repeated teardown to succeed, got %v", err)
	}

	sink.mu.Lock()
	closeCalls := sink.closeCalls
	sink.mu.Unlock()
	if closeCalls != 1 {
		t.Fatalf("expected the sink to close once, got %d", closeCalls)
	}
}
