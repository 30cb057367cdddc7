package realtime

// Item types.
const (
	ItemTypeMessage            = "message"
	ItemTypeFunctionCall       = "function_call"
	ItemTypeFunctionCallOutput = "function_call_output"
)

// Item statuses.
const (
	ItemStatusInProgress = "in_progress"
	ItemStatusCompleted  = "completed"
	ItemStatusIncomplete = "incomplete"
)

// Response statuses.
const (
	ResponseStatusInProgress = "in_progress"
	ResponseStatusCompleted  = "completed"
	ResponseStatusCancelled  = "cancelled"
	ResponseStatusIncomplete = "incomplete"
	ResponseStatusFailed     = "failed"
)

// ContentPart is one fragment of a conversation item: typed text, audio, or
// a transcript of either.
type ContentPart struct {
	Type       string `json:"type,omitempty"`
	Text       string `json:"text,omitempty"`
	Audio      string `json:"audio,omitempty"`
	Transcript string `json:"transcript,omitempty"`
}

// ConversationItem is a discrete unit of dialogue content: a user or
// assistant message, or a tool call and its output.
type ConversationItem struct {
	ID        string        `json:"id,omitempty"`
	Type      string        `json:"type,omitempty"`
	Role      string        `json:"role,omitempty"`
	Status    string        `json:"status,omitempty"`
	Content   []ContentPart `json:"content,omitempty"`
	CallID    string        `json:"call_id,omitempty"`
	Name      string        `json:"name,omitempty"`
	Arguments string        `json:"arguments,omitempty"`
	Output    string        `json:"output,omitempty"`
}

// Response is an in-flight (or finished) model response.
type Response struct {
	ID             string             `json:"id,omitempty"`
	Status         string             `json:"status,omitempty"`
	ConversationID string             `json:"conversation_id,omitempty"`
	Output         []ConversationItem `json:"output,omitempty"`
	Metadata       map[string]string  `json:"metadata,omitempty"`
}

// TurnDetection configures server-side voice activity detection. A nil
// TurnDetection on the session config means the client runs its own VAD.
type TurnDetection struct {
	Type              string  `json:"type,omitempty"`
	Threshold         float64 `json:"threshold,omitempty"`
	PrefixPaddingMs   int     `json:"prefix_padding_ms,omitempty"`
	SilenceDurationMs int     `json:"silence_duration_ms,omitempty"`
}

// AudioFormat describes one direction of session audio.
type AudioFormat struct {
	Type string `json:"type,omitempty"`
	Rate int    `json:"rate,omitempty"`
}

// SessionConfig is the negotiated session configuration, mirrored
// client-side purely by observing session.update / session.updated events.
type SessionConfig struct {
	ID                string           `json:"id,omitempty"`
	Model             string           `json:"model,omitempty"`
	Modalities        []string         `json:"output_modalities,omitempty"`
	Voice             string           `json:"voice,omitempty"`
	Instructions      string           `json:"instructions,omitempty"`
	InputAudioFormat  *AudioFormat     `json:"input_audio_format,omitempty"`
	OutputAudioFormat *AudioFormat     `json:"output_audio_format,omitempty"`
	TurnDetection     *TurnDetection   `json:"turn_detection,omitempty"`
	Tools             []ToolDefinition `json:"tools,omitempty"`
}

// ResponseOptions shapes a response.create request.
type ResponseOptions struct {
	Conversation string            `json:"conversation,omitempty"`
	Modalities   []string          `json:"output_modalities,omitempty"`
	Instructions string            `json:"instructions,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}
