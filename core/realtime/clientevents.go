package realtime

// Client event type discriminators.
const (
	TypeSessionUpdate = "session.update"

	TypeInputAudioBufferAppend = "input_audio_buffer.append"
	TypeInputAudioBufferCommit = "input_audio_buffer.commit"
	TypeInputAudioBufferClear  = "input_audio_buffer.clear"

	TypeConversationItemCreate   = "conversation.item.create"
	TypeConversationItemRetrieve = "conversation.item.retrieve"
	TypeConversationItemTruncate = "conversation.item.truncate"
	TypeConversationItemDelete   = "conversation.item.delete"

	TypeResponseCreate = "response.create"
	TypeResponseCancel = "response.cancel"
)

// SessionUpdate requests a session configuration change. The server answers
// with session.updated carrying the negotiated result.
type SessionUpdate struct {
	ClientEventHeader
	Session SessionConfig `json:"session"`
}

func (e *SessionUpdate) EventType() string { return TypeSessionUpdate }

func NewSessionUpdate(session SessionConfig) *SessionUpdate {
	return &SessionUpdate{
		ClientEventHeader: ClientEventHeader{Type: TypeSessionUpdate},
		Session:           session,
	}
}

// InputAudioBufferAppend streams one chunk of user audio, encoded per
// EncodeAudio.
type InputAudioBufferAppend struct {
	ClientEventHeader
	Audio string `json:"audio"`
}

func (e *InputAudioBufferAppend) EventType() string { return TypeInputAudioBufferAppend }

func NewInputAudioBufferAppend(audio []byte) *InputAudioBufferAppend {
	return &InputAudioBufferAppend{
		ClientEventHeader: ClientEventHeader{Type: TypeInputAudioBufferAppend},
		Audio:             EncodeAudio(audio),
	}
}

type InputAudioBufferCommit struct {
	ClientEventHeader
}

func (e *InputAudioBufferCommit) EventType() string { return TypeInputAudioBufferCommit }

func NewInputAudioBufferCommit() *InputAudioBufferCommit {
	return &InputAudioBufferCommit{ClientEventHeader{Type: TypeInputAudioBufferCommit}}
}

type InputAudioBufferClear struct {
	ClientEventHeader
}

func (e *InputAudioBufferClear) EventType() string { return TypeInputAudioBufferClear }

func NewInputAudioBufferClear() *InputAudioBufferClear {
	return &InputAudioBufferClear{ClientEventHeader{Type: TypeInputAudioBufferClear}}
}

// ConversationItemCreate inserts an item into the conversation after
// PreviousItemID (or at the front when it is empty and explicitly set).
type ConversationItemCreate struct {
	ClientEventHeader
	PreviousItemID string           `json:"previous_item_id,omitempty"`
	Item           ConversationItem `json:"item"`
}

func (e *ConversationItemCreate) EventType() string { return TypeConversationItemCreate }

func NewConversationItemCreate(item ConversationItem) *ConversationItemCreate {
	return &ConversationItemCreate{
		ClientEventHeader: ClientEventHeader{Type: TypeConversationItemCreate},
		Item:              item,
	}
}

// ConversationItemRetrieve asks the server for the full item, including
// audio content the event stream elides.
type ConversationItemRetrieve struct {
	ClientEventHeader
	ItemID string `json:"item_id"`
}

func (e *ConversationItemRetrieve) EventType() string { return TypeConversationItemRetrieve }

func NewConversationItemRetrieve(itemID string) *ConversationItemRetrieve {
	return &ConversationItemRetrieve{
		ClientEventHeader: ClientEventHeader{Type: TypeConversationItemRetrieve},
		ItemID:            itemID,
	}
}

// ConversationItemTruncate trims an assistant item's audio to AudioEndMs,
// aligning the server's view with what was actually heard.
type ConversationItemTruncate struct {
	ClientEventHeader
	ItemID       string `json:"item_id"`
	ContentIndex int    `json:"content_index"`
	AudioEndMs   int    `json:"audio_end_ms"`
}

func (e *ConversationItemTruncate) EventType() string { return TypeConversationItemTruncate }

func NewConversationItemTruncate(itemID string, contentIndex, audioEndMs int) *ConversationItemTruncate {
	return &ConversationItemTruncate{
		ClientEventHeader: ClientEventHeader{Type: TypeConversationItemTruncate},
		ItemID:            itemID,
		ContentIndex:      contentIndex,
		AudioEndMs:        audioEndMs,
	}
}

type ConversationItemDelete struct {
	ClientEventHeader
	ItemID string `json:"item_id"`
}

func (e *ConversationItemDelete) EventType() string { return TypeConversationItemDelete }

func NewConversationItemDelete(itemID string) *ConversationItemDelete {
	return &ConversationItemDelete{
		ClientEventHeader: ClientEventHeader{Type: TypeConversationItemDelete},
		ItemID:            itemID,
	}
}

// ResponseCreate asks the model to generate a response.
type ResponseCreate struct {
	ClientEventHeader
	Response *ResponseOptions `json:"response,omitempty"`
}

func (e *ResponseCreate) EventType() string { return TypeResponseCreate }

func NewResponseCreate(opts *ResponseOptions) *ResponseCreate {
	return &ResponseCreate{
		ClientEventHeader: ClientEventHeader{Type: TypeResponseCreate},
		Response:          opts,
	}
}

// ResponseCancel aborts the in-flight response. ResponseID may be empty to
// cancel whichever response is currently active.
type ResponseCancel struct {
	ClientEventHeader
	ResponseID string `json:"response_id,omitempty"`
}

func (e *ResponseCancel) EventType() string { return TypeResponseCancel }

func NewResponseCancel(responseID string) *ResponseCancel {
	return &ResponseCancel{
		ClientEventHeader: ClientEventHeader{Type: TypeResponseCancel},
		ResponseID:        responseID,
	}
}
