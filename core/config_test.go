package hooks

import (
	"context"
	"testing"

	"github.com/koscakluka/duplex-core/core/realtime"
)

func TestConfigTrackerDistinguishesRequestedFromConfirmed(t *testing.T) {
	tracker := NewConfigTracker()
	ctx := context.Background()

	if _, err := tracker.HandleServerEvent(ctx, &realtime.SessionCreated{
		ServerEventHeader: serverEvent(realtime.TypeSessionCreated, "ev-1"),
		Session:           realtime.SessionConfig{Voice: "alloy"},
	}); err != nil {
		t.Fatalf("expected session.created to be tracked, got %v", err)
	}

	if confirmed := tracker.Confirmed(); confirmed == nil || confirmed.Voice != "alloy" {
		t.Fatalf("expected confirmed voice %q, got %#v", "alloy", confirmed)
	}

	if _, err := tracker.HandleClientEvent(ctx, realtime.NewSessionUpdate(
		realtime.SessionConfig{Voice: "x"},
	)); err != nil {
		t.Fatalf("expected session.update to be tracked, got %v", err)
	}

	if requested := tracker.Requested(); requested == nil || requested.Voice != "x" {
		t.Fatalf("expected requested voice %q, got %#v", "x", requested)
	}
	if confirmed := tracker.Confirmed(); confirmed != nil {
		t.Fatalf("expected confirmation to be invalidated while the update is in flight, got %#v", confirmed)
	}

	if _, err := tracker.HandleServerEvent(ctx, &realtime.SessionUpdated{
		ServerEventHeader: serverEvent(realtime.TypeSessionUpdated, "ev-2"),
		Session:           realtime.SessionConfig{Voice: "x"},
	}); err != nil {
		t.Fatalf("expected session.updated to be tracked, got %v", err)
	}

	if confirmed := tracker.Confirmed(); confirmed == nil || confirmed.Voice != "x" {
		t.Fatalf("expected confirmation to return after session.updated, got %#v", confirmed)
	}
	if requested := tracker.Requested(); requested == nil || requested.Voice != "x" {
		t.Fatalf("expected requested config to remain observable, got %#v", requested)
	}
}

func TestConfigTrackerAccessorsReturnIndependentCopies(t *testing.T) {
	tracker := NewConfigTracker()

	if _, err := tracker.HandleServerEvent(context.Background(), &realtime.SessionCreated{
		ServerEventHeader: serverEvent(realtime.TypeSessionCreated, "ev-1"),
		Session: realtime.SessionConfig{
			Voice:         "alloy",
			TurnDetection: &realtime.TurnDetection{Type: "server_vad"},
		},
	}); err != nil {
		t.Fatalf("expected session.created to be tracked, got %v", err)
	}

	first := tracker.Confirmed()
	first.Voice = "mutated"
	first.TurnDetection.Type = "mutated"

	second := tracker.Confirmed()
	if second.Voice != "alloy" {
		t.Fatalf("expected tracker state to be isolated from caller mutation, got %q", second.Voice)
	}
	if second.TurnDetection.Type != "server_vad" {
		t.Fatalf("expected nested state to be deep-copied, got %q", second.TurnDetection.Type)
	}
}
