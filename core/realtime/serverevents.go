package realtime

// Server event type discriminators.
const (
	TypeError = "error"

	TypeSessionCreated = "session.created"
	TypeSessionUpdated = "session.updated"

	TypeInputAudioBufferSpeechStarted = "input_audio_buffer.speech_started"
	TypeInputAudioBufferSpeechStopped = "input_audio_buffer.speech_stopped"
	TypeInputAudioBufferCommitted     = "input_audio_buffer.committed"
	TypeInputAudioBufferCleared       = "input_audio_buffer.cleared"

	TypeConversationItemAdded     = "conversation.item.added"
	TypeConversationItemCreated   = "conversation.item.created"
	TypeConversationItemDone      = "conversation.item.done"
	TypeConversationItemRetrieved = "conversation.item.retrieved"
	TypeConversationItemTruncated = "conversation.item.truncated"
	TypeConversationItemDeleted   = "conversation.item.deleted"

	TypeInputAudioTranscriptionDelta     = "conversation.item.input_audio_transcription.delta"
	TypeInputAudioTranscriptionCompleted = "conversation.item.input_audio_transcription.completed"
	TypeInputAudioTranscriptionFailed    = "conversation.item.input_audio_transcription.failed"

	TypeResponseCreated              = "response.created"
	TypeResponseDone                 = "response.done"
	TypeResponseOutputItemAdded      = "response.output_item.added"
	TypeResponseOutputItemDone       = "response.output_item.done"
	TypeResponseContentPartAdded     = "response.content_part.added"
	TypeResponseContentPartDone      = "response.content_part.done"
	TypeResponseTextDelta            = "response.text.delta"
	TypeResponseTextDone             = "response.text.done"
	TypeResponseAudioDelta           = "response.audio.delta"
	TypeResponseAudioDone            = "response.audio.done"
	TypeResponseAudioTranscriptDelta = "response.audio_transcript.delta"
	TypeResponseAudioTranscriptDone  = "response.audio_transcript.done"
)

// ErrorEvent reports an error raised by the remote endpoint. It is
// informational at this layer; the session keeps running.
type ErrorEvent struct {
	ServerEventHeader
	Error struct {
		Type    string `json:"type,omitempty"`
		Code    string `json:"code,omitempty"`
		Message string `json:"message,omitempty"`
		Param   string `json:"param,omitempty"`
	} `json:"error"`
}

func (e *ErrorEvent) EventType() string { return TypeError }

// SessionCreated is the first event of a session.
type SessionCreated struct {
	ServerEventHeader
	Session SessionConfig `json:"session"`
}

func (e *SessionCreated) EventType() string { return TypeSessionCreated }

// SessionUpdated acknowledges a session.update with the negotiated config.
type SessionUpdated struct {
	ServerEventHeader
	Session SessionConfig `json:"session"`
}

func (e *SessionUpdated) EventType() string { return TypeSessionUpdated }

// InputAudioBufferSpeechStarted signals server-side VAD detected the user
// starting to speak.
type InputAudioBufferSpeechStarted struct {
	ServerEventHeader
	AudioStartMs int    `json:"audio_start_ms,omitempty"`
	ItemID       string `json:"item_id,omitempty"`
}

func (e *InputAudioBufferSpeechStarted) EventType() string {
	return TypeInputAudioBufferSpeechStarted
}

// InputAudioBufferSpeechStopped signals server-side VAD detected the user
// going quiet.
type InputAudioBufferSpeechStopped struct {
	ServerEventHeader
	AudioEndMs int    `json:"audio_end_ms,omitempty"`
	ItemID     string `json:"item_id,omitempty"`
}

func (e *InputAudioBufferSpeechStopped) EventType() string {
	return TypeInputAudioBufferSpeechStopped
}

type InputAudioBufferCommitted struct {
	ServerEventHeader
	PreviousItemID string `json:"previous_item_id,omitempty"`
	ItemID         string `json:"item_id,omitempty"`
}

func (e *InputAudioBufferCommitted) EventType() string { return TypeInputAudioBufferCommitted }

type InputAudioBufferCleared struct {
	ServerEventHeader
}

func (e *InputAudioBufferCleared) EventType() string { return TypeInputAudioBufferCleared }

// ConversationItemAdded confirms an item's position in the conversation.
type ConversationItemAdded struct {
	ServerEventHeader
	PreviousItemID string           `json:"previous_item_id,omitempty"`
	Item           ConversationItem `json:"item"`
}

func (e *ConversationItemAdded) EventType() string { return TypeConversationItemAdded }

// ConversationItemCreated is the older spelling of ConversationItemAdded
// still emitted by some endpoint versions.
type ConversationItemCreated struct {
	ServerEventHeader
	PreviousItemID string           `json:"previous_item_id,omitempty"`
	Item           ConversationItem `json:"item"`
}

func (e *ConversationItemCreated) EventType() string { return TypeConversationItemCreated }

// ConversationItemDone carries the final state of an item.
type ConversationItemDone struct {
	ServerEventHeader
	PreviousItemID string           `json:"previous_item_id,omitempty"`
	Item           ConversationItem `json:"item"`
}

func (e *ConversationItemDone) EventType() string { return TypeConversationItemDone }

// ConversationItemRetrieved answers a conversation.item.retrieve request,
// including content the server otherwise elides (e.g. full audio).
type ConversationItemRetrieved struct {
	ServerEventHeader
	Item ConversationItem `json:"item"`
}

func (e *ConversationItemRetrieved) EventType() string { return TypeConversationItemRetrieved }

// ConversationItemTruncated acknowledges an audio truncation.
type ConversationItemTruncated struct {
	ServerEventHeader
	ItemID       string `json:"item_id"`
	ContentIndex int    `json:"content_index"`
	AudioEndMs   int    `json:"audio_end_ms"`
}

func (e *ConversationItemTruncated) EventType() string { return TypeConversationItemTruncated }

type ConversationItemDeleted struct {
	ServerEventHeader
	ItemID string `json:"item_id"`
}

func (e *ConversationItemDeleted) EventType() string { return TypeConversationItemDeleted }

type InputAudioTranscriptionDelta struct {
	ServerEventHeader
	ItemID       string `json:"item_id"`
	ContentIndex int    `json:"content_index"`
	Delta        string `json:"delta,omitempty"`
}

func (e *InputAudioTranscriptionDelta) EventType() string { return TypeInputAudioTranscriptionDelta }

type InputAudioTranscriptionCompleted struct {
	ServerEventHeader
	ItemID       string `json:"item_id"`
	ContentIndex int    `json:"content_index"`
	Transcript   string `json:"transcript"`
}

func (e *InputAudioTranscriptionCompleted) EventType() string {
	return TypeInputAudioTranscriptionCompleted
}

type InputAudioTranscriptionFailed struct {
	ServerEventHeader
	ItemID       string `json:"item_id"`
	ContentIndex int    `json:"content_index"`
	Error        struct {
		Type    string `json:"type,omitempty"`
		Code    string `json:"code,omitempty"`
		Message string `json:"message,omitempty"`
	} `json:"error"`
}

func (e *InputAudioTranscriptionFailed) EventType() string {
	return TypeInputAudioTranscriptionFailed
}

// ResponseCreated announces a new in-flight response.
type ResponseCreated struct {
	ServerEventHeader
	Response Response `json:"response"`
}

func (e *ResponseCreated) EventType() string { return TypeResponseCreated }

// ResponseDone carries the final state of a response, including cancelled
// ones.
type ResponseDone struct {
	ServerEventHeader
	Response Response `json:"response"`
}

func (e *ResponseDone) EventType() string { return TypeResponseDone }

type ResponseOutputItemAdded struct {
	ServerEventHeader
	ResponseID  string           `json:"response_id"`
	OutputIndex int              `json:"output_index"`
	Item        ConversationItem `json:"item"`
}

func (e *ResponseOutputItemAdded) EventType() string { return TypeResponseOutputItemAdded }

type ResponseOutputItemDone struct {
	ServerEventHeader
	ResponseID  string           `json:"response_id"`
	OutputIndex int              `json:"output_index"`
	Item        ConversationItem `json:"item"`
}

func (e *ResponseOutputItemDone) EventType() string { return TypeResponseOutputItemDone }

type ResponseContentPartAdded struct {
	ServerEventHeader
	ResponseID   string      `json:"response_id"`
	ItemID       string      `json:"item_id"`
	OutputIndex  int         `json:"output_index"`
	ContentIndex int         `json:"content_index"`
	Part         ContentPart `json:"part"`
}

func (e *ResponseContentPartAdded) EventType() string { return TypeResponseContentPartAdded }

type ResponseContentPartDone struct {
	ServerEventHeader
	ResponseID   string      `json:"response_id"`
	ItemID       string      `json:"item_id"`
	OutputIndex  int         `json:"output_index"`
	ContentIndex int         `json:"content_index"`
	Part         ContentPart `json:"part"`
}

func (e *ResponseContentPartDone) EventType() string { return TypeResponseContentPartDone }

type ResponseTextDelta struct {
	ServerEventHeader
	ResponseID   string `json:"response_id"`
	ItemID       string `json:"item_id"`
	OutputIndex  int    `json:"output_index"`
	ContentIndex int    `json:"content_index"`
	Delta        string `json:"delta"`
}

func (e *ResponseTextDelta) EventType() string { return TypeResponseTextDelta }

type ResponseTextDone struct {
	ServerEventHeader
	ResponseID   string `json:"response_id"`
	ItemID       string `json:"item_id"`
	OutputIndex  int    `json:"output_index"`
	ContentIndex int    `json:"content_index"`
	Text         string `json:"text"`
}

func (e *ResponseTextDone) EventType() string { return TypeResponseTextDone }

// ResponseAudioDelta carries one chunk of synthesized assistant audio,
// encoded per EncodeAudio.
type ResponseAudioDelta struct {
	ServerEventHeader
	ResponseID   string `json:"response_id"`
	ItemID       string `json:"item_id"`
	OutputIndex  int    `json:"output_index"`
	ContentIndex int    `json:"content_index"`
	Delta        string `json:"delta"`
}

func (e *ResponseAudioDelta) EventType() string { return TypeResponseAudioDelta }

type ResponseAudioDone struct {
	ServerEventHeader
	ResponseID   string `json:"response_id"`
	ItemID       string `json:"item_id"`
	OutputIndex  int    `json:"output_index"`
	ContentIndex int    `json:"content_index"`
}

func (e *ResponseAudioDone) EventType() string { return TypeResponseAudioDone }

type ResponseAudioTranscriptDelta struct {
	ServerEventHeader
	ResponseID   string `json:"response_id"`
	ItemID       string `json:"item_id"`
	OutputIndex  int    `json:"output_index"`
	ContentIndex int    `json:"content_index"`
	Delta        string `json:"delta"`
}

func (e *ResponseAudioTranscriptDelta) EventType() string { return TypeResponseAudioTranscriptDelta }

type ResponseAudioTranscriptDone struct {
	ServerEventHeader
	ResponseID   string `json:"response_id"`
	ItemID       string `json:"item_id"`
	OutputIndex  int    `json:"output_index"`
	ContentIndex int    `json:"content_index"`
	Transcript   string `json:"transcript"`
}

func (e *ResponseAudioTranscriptDone) EventType() string { return TypeResponseAudioTranscriptDone }

var serverEventFactories = map[string]func() ServerEvent{
	TypeError:                            func() ServerEvent { return &ErrorEvent{} },
	TypeSessionCreated:                   func() ServerEvent { return &SessionCreated{} },
	TypeSessionUpdated:                   func() ServerEvent { return &SessionUpdated{} },
	TypeInputAudioBufferSpeechStarted:    func() ServerEvent { return &InputAudioBufferSpeechStarted{} },
	TypeInputAudioBufferSpeechStopped:    func() ServerEvent { return &InputAudioBufferSpeechStopped{} },
	TypeInputAudioBufferCommitted:        func() ServerEvent { return &InputAudioBufferCommitted{} },
	TypeInputAudioBufferCleared:          func() ServerEvent { return &InputAudioBufferCleared{} },
	TypeConversationItemAdded:            func() ServerEvent { return &ConversationItemAdded{} },
	TypeConversationItemCreated:          func() ServerEvent { return &ConversationItemCreated{} },
	TypeConversationItemDone:             func() ServerEvent { return &ConversationItemDone{} },
	TypeConversationItemRetrieved:        func() ServerEvent { return &ConversationItemRetrieved{} },
	TypeConversationItemTruncated:        func() ServerEvent { return &ConversationItemTruncated{} },
	TypeConversationItemDeleted:          func() ServerEvent { return &ConversationItemDeleted{} },
	TypeInputAudioTranscriptionDelta:     func() ServerEvent { return &InputAudioTranscriptionDelta{} },
	TypeInputAudioTranscriptionCompleted: func() ServerEvent { return &InputAudioTranscriptionCompleted{} },
	TypeInputAudioTranscriptionFailed:    func() ServerEvent { return &InputAudioTranscriptionFailed{} },
	TypeResponseCreated:                  func() ServerEvent { return &ResponseCreated{} },
	TypeResponseDone:                     func() ServerEvent { return &ResponseDone{} },
	TypeResponseOutputItemAdded:          func() ServerEvent { return &ResponseOutputItemAdded{} },
	TypeResponseOutputItemDone:           func() ServerEvent { return &ResponseOutputItemDone{} },
	TypeResponseContentPartAdded:         func() ServerEvent { return &ResponseContentPartAdded{} },
	TypeResponseContentPartDone:          func() ServerEvent { return &ResponseContentPartDone{} },
	TypeResponseTextDelta:                func() ServerEvent { return &ResponseTextDelta{} },
	TypeResponseTextDone:                 func() ServerEvent { return &ResponseTextDone{} },
	TypeResponseAudioDelta:               func() ServerEvent { return &ResponseAudioDelta{} },
	TypeResponseAudioDone:                func() ServerEvent { return &ResponseAudioDone{} },
	TypeResponseAudioTranscriptDelta:     func() ServerEvent { return &ResponseAudioTranscriptDelta{} },
	TypeResponseAudioTranscriptDone:      func() ServerEvent { return &ResponseAudioTranscriptDone{} },
}
