package hooks

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"

	"github.com/koscakluka/duplex-core/core/realtime"
)

// TruncationMark records where an item's audio was cut off.
type TruncationMark struct {
	ContentIndex int
	AudioEndMs   int
}

// ItemRecord is the tracked state of one conversation item: the item
// itself plus bookkeeping that only exists client-side.
type ItemRecord struct {
	Item realtime.ConversationItem

	// ResponseID is set for items produced by a response.
	ResponseID string
	// Truncated is set once the item's audio has been truncated.
	Truncated *TruncationMark
	// PendingConfirmation marks optimistic local inserts that the server
	// has not yet confirmed with conversation.item.added.
	PendingConfirmation bool
	// TouchedBy lists the ids of the events that shaped this record.
	TouchedBy []string
}

// ConversationSnapshot is a point-in-time deep copy of tracked state.
type ConversationSnapshot struct {
	// Items in conversation order.
	Items []ItemRecord
	// Trash holds deleted items, in deletion order.
	Trash []ItemRecord
	// Responses indexed by response id, in-flight and finished.
	Responses map[string]realtime.Response
}

// ConversationTracker mirrors the conversation as a pure projection of the
// event stream. The receive loop is the sole writer; reads may happen from
// any goroutine concurrently via Snapshot and the other accessors.
//
// The single speculative behavior is the optimistic insert: an outgoing
// conversation.item.create is reflected immediately (it mirrors an event
// this client already emitted) and confirmed or repositioned when the
// server's conversation.item.added arrives.
//
// Malformed or unknown references are counted and logged, never fatal.
type ConversationTracker struct {
	mu sync.RWMutex

	order     []string
	items     map[string]*ItemRecord
	trash     []*ItemRecord
	responses map[string]realtime.Response

	// awaitingInsertion maps item id -> response id for items announced by
	// response.output_item.added but not yet placed by the server.
	awaitingInsertion map[string]string

	violations int
}

func NewConversationTracker() *ConversationTracker {
	return &ConversationTracker{
		items:             map[string]*ItemRecord{},
		responses:         map[string]realtime.Response{},
		awaitingInsertion: map[string]string{},
	}
}

func (t *ConversationTracker) HandleServerEvent(ctx context.Context, event realtime.ServerEvent) (realtime.ServerEvent, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch typed := event.(type) {
	case *realtime.ConversationItemAdded:
		t.confirmOrInsertLocked(typed.Item, typed.PreviousItemID, typed.ID())
	case *realtime.ConversationItemCreated:
		t.confirmOrInsertLocked(typed.Item, typed.PreviousItemID, typed.ID())

	case *realtime.ConversationItemDone:
		t.replaceItemLocked(typed.Item, typed.EventType(), typed.ID())
	case *realtime.ResponseOutputItemDone:
		t.replaceItemLocked(typed.Item, typed.EventType(), typed.ID())
	case *realtime.ConversationItemRetrieved:
		t.replaceItemLocked(typed.Item, typed.EventType(), typed.ID())

	case *realtime.InputAudioTranscriptionDelta:
		if part := t.contentPartLocked(typed.ItemID, typed.ContentIndex, typed.EventType()); part != nil {
			part.Transcript += typed.Delta
			t.touchLocked(typed.ItemID, typed.ID())
		}
	case *realtime.InputAudioTranscriptionCompleted:
		if part := t.contentPartLocked(typed.ItemID, typed.ContentIndex, typed.EventType()); part != nil {
			part.Transcript = typed.Transcript
			t.touchLocked(typed.ItemID, typed.ID())
		}
	case *realtime.InputAudioTranscriptionFailed:
		if part := t.contentPartLocked(typed.ItemID, typed.ContentIndex, typed.EventType()); part != nil {
			part.Transcript = fmt.Sprintf("<transcription failed: %s>", typed.Error.Message)
			t.touchLocked(typed.ItemID, typed.ID())
		}

	case *realtime.ConversationItemTruncated:
		record, ok := t.items[typed.ItemID]
		if !ok {
			t.violationLocked(ctx, typed.EventType(), "unknown item "+typed.ItemID)
			break
		}
		record.Truncated = &TruncationMark{
			ContentIndex: typed.ContentIndex,
			AudioEndMs:   typed.AudioEndMs,
		}
		t.touchLocked(typed.ItemID, typed.ID())

	case *realtime.ConversationItemDeleted:
		record, ok := t.items[typed.ItemID]
		if !ok {
			t.violationLocked(ctx, typed.EventType(), "unknown item "+typed.ItemID)
			break
		}
		t.touchLocked(typed.ItemID, typed.ID())
		delete(t.items, typed.ItemID)
		delete(t.awaitingInsertion, typed.ItemID)
		t.removeFromOrderLocked(typed.ItemID)
		t.trash = append(t.trash, record)

	case *realtime.ResponseCreated:
		if typed.Response.ID == "" {
			t.violationLocked(ctx, typed.EventType(), "response without id")
			break
		}
		t.responses[typed.Response.ID] = deepCopyResponse(typed.Response)
	case *realtime.ResponseDone:
		if typed.Response.ID == "" {
			t.violationLocked(ctx, typed.EventType(), "response without id")
			break
		}
		if _, ok := t.responses[typed.Response.ID]; !ok {
			t.violationLocked(ctx, typed.EventType(), "unannounced response "+typed.Response.ID)
		}
		t.responses[typed.Response.ID] = deepCopyResponse(typed.Response)

	case *realtime.ResponseOutputItemAdded:
		if typed.Item.ID == "" {
			t.violationLocked(ctx, typed.EventType(), "item without id")
			break
		}
		if _, exists := t.items[typed.Item.ID]; exists {
			t.violationLocked(ctx, typed.EventType(), "duplicate item "+typed.Item.ID)
			break
		}
		// Known but not yet placed; conversation.item.added decides the
		// position.
		t.items[typed.Item.ID] = &ItemRecord{Item: typed.Item, ResponseID: typed.ResponseID}
		t.awaitingInsertion[typed.Item.ID] = typed.ResponseID
		t.touchLocked(typed.Item.ID, typed.ID())

	case *realtime.ResponseContentPartAdded:
		record, ok := t.items[typed.ItemID]
		if !ok {
			t.violationLocked(ctx, typed.EventType(), "unknown item "+typed.ItemID)
			break
		}
		if typed.ContentIndex != len(record.Item.Content) {
			t.violationLocked(ctx, typed.EventType(), fmt.Sprintf(
				"content index %d does not extend %d parts", typed.ContentIndex, len(record.Item.Content)))
			break
		}
		record.Item.Content = append(record.Item.Content, typed.Part)
		t.touchLocked(typed.ItemID, typed.ID())
	case *realtime.ResponseContentPartDone:
		if part := t.contentPartLocked(typed.ItemID, typed.ContentIndex, typed.EventType()); part != nil {
			if typed.Part.Text != "" {
				part.Text = typed.Part.Text
			}
			if typed.Part.Transcript != "" {
				part.Transcript = typed.Part.Transcript
			}
			t.touchLocked(typed.ItemID, typed.ID())
		}

	case *realtime.ResponseTextDelta:
		if part := t.contentPartLocked(typed.ItemID, typed.ContentIndex, typed.EventType()); part != nil {
			part.Text += typed.Delta
			t.touchLocked(typed.ItemID, typed.ID())
		}
	case *realtime.ResponseAudioTranscriptDelta:
		if part := t.contentPartLocked(typed.ItemID, typed.ContentIndex, typed.EventType()); part != nil {
			part.Transcript += typed.Delta
			t.touchLocked(typed.ItemID, typed.ID())
		}
	}

	return event, nil
}

// HandleClientEvent reflects outgoing conversation.item.create events
// immediately, assigning a local item id and a default position when they
// lack one, so application code can reference the item before the server
// confirms it.
func (t *ConversationTracker) HandleClientEvent(_ context.Context, event realtime.ClientEvent) (realtime.ClientEvent, error) {
	create, ok := event.(*realtime.ConversationItemCreate)
	if !ok {
		return event, nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if create.Item.ID == "" {
		// The wire caps item ids at 32 characters.
		create.Item.ID = ("client-set-" + uuid.NewString())[:31]
	}
	if create.PreviousItemID == "" {
		create.PreviousItemID = t.lastItemIDLocked()
	}

	if _, exists := t.items[create.Item.ID]; !exists {
		t.items[create.Item.ID] = &ItemRecord{Item: create.Item, PendingConfirmation: true}
		t.insertAfterLocked(create.Item.ID, create.PreviousItemID)
		t.touchLocked(create.Item.ID, create.ID())
	}

	return create, nil
}

// Snapshot returns a deep copy of the tracked conversation.
func (t *ConversationTracker) Snapshot() ConversationSnapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()

	snapshot := ConversationSnapshot{
		Items:     make([]ItemRecord, 0, len(t.order)),
		Trash:     make([]ItemRecord, 0, len(t.trash)),
		Responses: make(map[string]realtime.Response, len(t.responses)),
	}
	for _, id := range t.order {
		if record, ok := t.items[id]; ok {
			snapshot.Items = append(snapshot.Items, deepCopyRecord(*record))
		}
	}
	for _, record := range t.trash {
		snapshot.Trash = append(snapshot.Trash, deepCopyRecord(*record))
	}
	for id, response := range t.responses {
		snapshot.Responses[id] = deepCopyResponse(response)
	}
	return snapshot
}

// Item returns a copy of one tracked item.
func (t *ConversationTracker) Item(itemID string) (ItemRecord, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	record, ok := t.items[itemID]
	if !ok {
		return ItemRecord{}, false
	}
	return deepCopyRecord(*record), true
}

// Response returns a copy of one tracked response.
func (t *ConversationTracker) Response(responseID string) (realtime.Response, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	response, ok := t.responses[responseID]
	if !ok {
		return realtime.Response{}, false
	}
	return deepCopyResponse(response), true
}

// LastItemID returns the id of the last item in conversation order, or "".
func (t *ConversationTracker) LastItemID() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.lastItemIDLocked()
}

// Violations reports how many malformed events were ignored so far.
func (t *ConversationTracker) Violations() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.violations
}

func (t *ConversationTracker) confirmOrInsertLocked(item realtime.ConversationItem, previousItemID, eventID string) {
	if item.ID == "" {
		t.violationLocked(context.Background(), realtime.TypeConversationItemAdded, "item without id")
		return
	}

	if record, ok := t.items[item.ID]; ok && record.PendingConfirmation {
		// Our optimistic insert; the server decides status and position.
		record.Item.Status = item.Status
		record.PendingConfirmation = false
		t.removeFromOrderLocked(item.ID)
		t.insertAfterLocked(item.ID, previousItemID)
		t.touchLocked(item.ID, eventID)
		return
	}

	if responseID, ok := t.awaitingInsertion[item.ID]; ok {
		delete(t.awaitingInsertion, item.ID)
		record := t.items[item.ID]
		record.ResponseID = responseID
		t.insertAfterLocked(item.ID, previousItemID)
		t.touchLocked(item.ID, eventID)
		return
	}

	if _, ok := t.items[item.ID]; ok {
		t.violationLocked(context.Background(), realtime.TypeConversationItemAdded, "duplicate item "+item.ID)
		return
	}

	t.items[item.ID] = &ItemRecord{Item: item}
	t.insertAfterLocked(item.ID, previousItemID)
	t.touchLocked(item.ID, eventID)
}

func (t *ConversationTracker) replaceItemLocked(item realtime.ConversationItem, eventType, eventID string) {
	if item.ID == "" {
		t.violationLocked(context.Background(), eventType, "item without id")
		return
	}
	record, ok := t.items[item.ID]
	if !ok {
		t.violationLocked(context.Background(), eventType, "unknown item "+item.ID)
		return
	}
	record.Item = item
	t.touchLocked(item.ID, eventID)
}

func (t *ConversationTracker) contentPartLocked(itemID string, contentIndex int, eventType string) *realtime.ContentPart {
	record, ok := t.items[itemID]
	if !ok {
		t.violationLocked(context.Background(), eventType, "unknown item "+itemID)
		return nil
	}
	if contentIndex < 0 || contentIndex >= len(record.Item.Content) {
		t.violationLocked(context.Background(), eventType, fmt.Sprintf(
			"content index %d out of range (%d parts)", contentIndex, len(record.Item.Content)))
		return nil
	}
	return &record.Item.Content[contentIndex]
}

func (t *ConversationTracker) insertAfterLocked(itemID, previousItemID string) {
	if previousItemID == "" {
		t.order = append([]string{itemID}, t.order...)
		return
	}
	for i, id := range t.order {
		if id == previousItemID {
			t.order = append(t.order[:i+1], append([]string{itemID}, t.order[i+1:]...)...)
			return
		}
	}
	// Unknown anchor; appending keeps the item visible at least.
	t.order = append(t.order, itemID)
}

func (t *ConversationTracker) removeFromOrderLocked(itemID string) {
	for i, id := range t.order {
		if id == itemID {
			t.order = append(t.order[:i], t.order[i+1:]...)
			return
		}
	}
}

func (t *ConversationTracker) lastItemIDLocked() string {
	if len(t.order) == 0 {
		return ""
	}
	return t.order[len(t.order)-1]
}

func (t *ConversationTracker) touchLocked(itemID, eventID string) {
	if eventID == "" {
		return
	}
	if record, ok := t.items[itemID]; ok {
		record.TouchedBy = append(record.TouchedBy, eventID)
	}
}

func (t *ConversationTracker) violationLocked(ctx context.Context, eventType, reason string) {
	t.violations++
	violation := &ProtocolViolation{EventType: eventType, Reason: reason}
	logger.WarnContext(ctx, "ignoring malformed event", "error", violation)
}

func deepCopyRecord(record ItemRecord) ItemRecord {
	var copied ItemRecord
	if err := copier.CopyWithOption(&copied, &record, copier.Option{DeepCopy: true}); err != nil {
		copied = record
	}
	return copied
}

func deepCopyResponse(response realtime.Response) realtime.Response {
	var copied realtime.Response
	if err := copier.CopyWithOption(&copied, &response, copier.Option{DeepCopy: true}); err != nil {
		copied = response
	}
	return copied
}
