package hooks

import (
	"context"
	"strings"
	"testing"

	"github.com/koscakluka/duplex-core/core/realtime"
)

func foldEvents(t *testing.T, tracker *ConversationTracker, events ...realtime.ServerEvent) {
	t.Helper()
	for _, event := range events {
		if _, err := tracker.HandleServerEvent(context.Background(), event); err != nil {
			t.Fatalf("expected %q to fold cleanly, got %v", event.EventType(), err)
		}
	}
}

func TestConversationTrackerFoldsResponseLifecycle(t *testing.T) {
	tracker := NewConversationTracker()

	item := realtime.ConversationItem{
		ID:     "item-1",
		Type:   realtime.ItemTypeMessage,
		Role:   "assistant",
		Status: realtime.ItemStatusInProgress,
	}
	foldEvents(t, tracker,
		&realtime.ResponseCreated{
			ServerEventHeader: serverEvent(realtime.TypeResponseCreated, "ev-1"),
			Response:          realtime.Response{ID: "resp-1", Status: realtime.ResponseStatusInProgress},
		},
		&realtime.ResponseOutputItemAdded{
			ServerEventHeader: serverEvent(realtime.TypeResponseOutputItemAdded, "ev-2"),
			ResponseID:        "resp-1",
			Item:              item,
		},
		&realtime.ConversationItemAdded{
			ServerEventHeader: serverEvent(realtime.TypeConversationItemAdded, "ev-3"),
			Item:              item,
		},
		&realtime.ResponseContentPartAdded{
			ServerEventHeader: serverEvent(realtime.TypeResponseContentPartAdded, "ev-4"),
			ResponseID:        "resp-1",
			ItemID:            "item-1",
			Part:              realtime.ContentPart{Type: "audio"},
		},
		&realtime.ResponseAudioTranscriptDelta{
			ServerEventHeader: serverEvent(realtime.TypeResponseAudioTranscriptDelta, "ev-5"),
			ItemID:            "item-1",
			Delta:             "Hel",
		},
		&realtime.ResponseAudioTranscriptDelta{
			ServerEventHeader: serverEvent(realtime.TypeResponseAudioTranscriptDelta, "ev-6"),
			ItemID:            "item-1",
			Delta:             "lo",
		},
		&realtime.ResponseDone{
			ServerEventHeader: serverEvent(realtime.TypeResponseDone, "ev-7"),
			Response:          realtime.Response{ID: "resp-1", Status: realtime.ResponseStatusCompleted},
		},
	)

	snapshot := tracker.Snapshot()
	if len(snapshot.Items) != 1 {
		t.Fatalf("expected one tracked item, got %d", len(snapshot.Items))
	}
	tracked := snapshot.Items[0]
	if tracked.Item.ID != "item-1" || tracked.ResponseID != "resp-1" {
		t.Fatalf("expected item attributed to its response, got %#v", tracked)
	}
	if len(tracked.Item.Content) != 1 || tracked.Item.Content[0].Transcript != "Hello" {
		t.Fatalf("expected transcript assembled from deltas, got %#v", tracked.Item.Content)
	}
	if got := snapshot.Responses["resp-1"].Status; got != realtime.ResponseStatusCompleted {
		t.Fatalf("expected response to finish completed, got %q", got)
	}
	if got := tracker.Violations(); got != 0 {
		t.Fatalf("expected a clean fold, got %d violations", got)
	}
}

func TestConversationTrackerPlacesItemsByAnchor(t *testing.T) {
	tracker := NewConversationTracker()

	added := func(eventID, itemID, previousItemID string) *realtime.ConversationItemAdded {
		return &realtime.ConversationItemAdded{
			ServerEventHeader: serverEvent(realtime.TypeConversationItemAdded, eventID),
			PreviousItemID:    previousItemID,
			Item:              realtime.ConversationItem{ID: itemID, Type: realtime.ItemTypeMessage},
		}
	}
	foldEvents(t, tracker,
		added("ev-1", "item-1", ""),
		added("ev-2", "item-2", "item-1"),
		added("ev-3", "item-3", ""),
	)

	snapshot := tracker.Snapshot()
	var order []string
	for _, tracked := range snapshot.Items {
		order = append(order, tracked.Item.ID)
	}
	if len(order) != 3 || order[0] != "item-3" || order[1] != "item-1" || order[2] != "item-2" {
		t.Fatalf("expected anchor-driven order [item-3 item-1 item-2], got %v", order)
	}
	if tracker.LastItemID() != "item-2" {
		t.Fatalf("expected last item to be item-2, got %q", tracker.LastItemID())
	}
}

func TestConversationTrackerReflectsOutgoingCreateOptimistically(t *testing.T) {
	tracker := NewConversationTracker()
	ctx := context.Background()

	foldEvents(t, tracker, &realtime.ConversationItemAdded{
		ServerEventHeader: serverEvent(realtime.TypeConversationItemAdded, "ev-1"),
		Item:              realtime.ConversationItem{ID: "item-1", Type: realtime.ItemTypeMessage},
	})

	create := realtime.NewConversationItemCreate(realtime.ConversationItem{
		Type: realtime.ItemTypeMessage,
		Role: "user",
	})
	create.SetID("client-ev-1")
	event, err := tracker.HandleClientEvent(ctx, create)
	if err != nil {
		t.Fatalf("expected outgoing create to be reflected, got %v", err)
	}
	mutated := event.(*realtime.ConversationItemCreate)
	if mutated.Item.ID == "" || !strings.HasPrefix(mutated.Item.ID, "client-set-") {
		t.Fatalf("expected a local item id to be assigned, got %q", mutated.Item.ID)
	}
	if mutated.PreviousItemID != "item-1" {
		t.Fatalf("expected default placement after the last item, got %q", mutated.PreviousItemID)
	}

	tracked, ok := tracker.Item(mutated.Item.ID)
	if !ok {
		t.Fatalf("expected item to be visible before server confirmation")
	}
	if !tracked.PendingConfirmation {
		t.Fatalf("expected item to be marked pending confirmation")
	}

	foldEvents(t, tracker, &realtime.ConversationItemAdded{
		ServerEventHeader: serverEvent(realtime.TypeConversationItemAdded, "ev-2"),
		PreviousItemID:    "item-1",
		Item: realtime.ConversationItem{
			ID:     mutated.Item.ID,
			Type:   realtime.ItemTypeMessage,
			Status: realtime.ItemStatusCompleted,
		},
	})

	tracked, ok = tracker.Item(mutated.Item.ID)
	if !ok {
		t.Fatalf("expected item to survive confirmation")
	}
	if tracked.PendingConfirmation {
		t.Fatalf("expected confirmation to clear the pending flag")
	}
	if tracked.Item.Status != realtime.ItemStatusCompleted {
		t.Fatalf("expected confirmation to adopt the server's status, got %q", tracked.Item.Status)
	}
	if got := len(tracker.Snapshot().Items); got != 2 {
		t.Fatalf("expected confirmation not to duplicate the item, got %d items", got)
	}
	if got := tracker.Violations(); got != 0 {
		t.Fatalf("expected no violations, got %d", got)
	}
}

func TestConversationTrackerMovesDeletedItemsToTrash(t *testing.T) {
	tracker := NewConversationTracker()

	foldEvents(t, tracker,
		&realtime.ConversationItemAdded{
			ServerEventHeader: serverEvent(realtime.TypeConversationItemAdded, "ev-1"),
			Item:              realtime.ConversationItem{ID: "item-1", Type: realtime.ItemTypeMessage},
		},
		&realtime.ConversationItemDeleted{
			ServerEventHeader: serverEvent(realtime.TypeConversationItemDeleted, "ev-2"),
			ItemID:            "item-1",
		},
	)

	snapshot := tracker.Snapshot()
	if len(snapshot.Items) != 0 {
		t.Fatalf("expected no live items after delete, got %d", len(snapshot.Items))
	}
	if len(snapshot.Trash) != 1 || snapshot.Trash[0].Item.ID != "item-1" {
		t.Fatalf("expected deleted item in trash, got %#v", snapshot.Trash)
	}
	if _, ok := tracker.Item("item-1"); ok {
		t.Fatalf("expected deleted item to be gone from live lookup")
	}
}

func TestConversationTrackerCountsMalformedEventsWithoutFailing(t *testing.T) {
	tracker := NewConversationTracker()

	foldEvents(t, tracker,
		&realtime.ResponseTextDelta{
			ServerEventHeader: serverEvent(realtime.TypeResponseTextDelta, "ev-1"),
			ItemID:            "never-announced",
			Delta:             "lost",
		},
		&realtime.ConversationItemDeleted{
			ServerEventHeader: serverEvent(realtime.TypeConversationItemDeleted, "ev-2"),
			ItemID:            "never-announced",
		},
		&realtime.ConversationItemAdded{
			ServerEventHeader: serverEvent(realtime.TypeConversationItemAdded, "ev-3"),
			Item:              realtime.ConversationItem{ID: "item-1", Type: realtime.ItemTypeMessage},
		},
		&realtime.ResponseTextDelta{
			ServerEventHeader: serverEvent(realtime.TypeResponseTextDelta, "ev-4"),
			ItemID:            "item-1",
			ContentIndex:      3,
			Delta:             "lost",
		},
	)

	if got := tracker.Violations(); got != 3 {
		t.Fatalf("expected three counted violations, got %d", got)
	}
	if _, ok := tracker.Item("item-1"); !ok {
		t.Fatalf("expected well-formed state to survive malformed events")
	}
}

func TestConversationTrackerRecordsTouchingEvents(t *testing.T) {
	tracker := NewConversationTracker()

	foldEvents(t, tracker,
		&realtime.ConversationItemAdded{
			ServerEventHeader: serverEvent(realtime.TypeConversationItemAdded, "ev-1"),
			Item: realtime.ConversationItem{
				ID:      "item-1",
				Type:    realtime.ItemTypeMessage,
				Content: []realtime.ContentPart{{Type: "audio"}},
			},
		},
		&realtime.ConversationItemTruncated{
			ServerEventHeader: serverEvent(realtime.TypeConversationItemTruncated, "ev-2"),
			ItemID:            "item-1",
			AudioEndMs:        1200,
		},
	)

	tracked, ok := tracker.Item("item-1")
	if !ok {
		t.Fatalf("expected item to be tracked")
	}
	if len(tracked.TouchedBy) != 2 || tracked.TouchedBy[0] != "ev-1" || tracked.TouchedBy[1] != "ev-2" {
		t.Fatalf("expected touch log [ev-1 ev-2], got %v", tracked.TouchedBy)
	}
	if tracked.Truncated == nil || tracked.Truncated.AudioEndMs != 1200 {
		t.Fatalf("expected truncation mark at 1200ms, got %#v", tracked.Truncated)
	}
}

func TestConversationTrackerSnapshotIsolatedFromLaterEvents(t *testing.T) {
	tracker := NewConversationTracker()

	foldEvents(t, tracker, &realtime.ConversationItemAdded{
		ServerEventHeader: serverEvent(realtime.TypeConversationItemAdded, "ev-1"),
		Item: realtime.ConversationItem{
			ID:      "item-1",
			Type:    realtime.ItemTypeMessage,
			Content: []realtime.ContentPart{{Type: "text", Text: "before"}},
		},
	})

	snapshot := tracker.Snapshot()

	foldEvents(t, tracker, &realtime.ResponseTextDelta{
		ServerEventHeader: serverEvent(realtime.TypeResponseTextDelta, "ev-2"),
		ItemID:            "item-1",
		Delta:             " after",
	})

	if got := snapshot.Items[0].Item.Content[0].Text; got != "before" {
		t.Fatalf("expected snapshot to be immune to later events, got %q", got)
	}
}
