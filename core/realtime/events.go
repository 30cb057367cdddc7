package realtime

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// ServerEvent is any event originated by the remote endpoint.
type ServerEvent interface {
	EventType() string
	// ID returns the server-assigned event id; may be empty.
	ID() string

	isServerEvent()
}

// ClientEvent is any event originated locally. Client events carry an
// optional identity that middleware may assign before the event reaches the
// wire.
type ClientEvent interface {
	EventType() string
	ID() string
	SetID(string)

	isClientEvent()
}

// ServerEventHeader carries the fields shared by every server event.
type ServerEventHeader struct {
	Type    string `json:"type"`
	EventID string `json:"event_id,omitempty"`
}

func (h *ServerEventHeader) ID() string     { return h.EventID }
func (h *ServerEventHeader) isServerEvent() {}

// ClientEventHeader carries the fields shared by every client event.
type ClientEventHeader struct {
	Type    string `json:"type"`
	EventID string `json:"event_id,omitempty"`
}

func (h *ClientEventHeader) ID() string      { return h.EventID }
func (h *ClientEventHeader) SetID(id string) { h.EventID = id }
func (h *ClientEventHeader) isClientEvent()  {}

type envelope struct {
	Type string `json:"type"`
}

// RawServerEvent holds a server event whose type has no concrete decoding.
// Stateful trackers ignore it; observers may still inspect the payload.
type RawServerEvent struct {
	ServerEventHeader
	Payload json.RawMessage `json:"-"`
}

func (e *RawServerEvent) EventType() string { return e.Type }

// ParseServerEvent decodes a wire payload into its concrete server event.
// Unknown discriminators yield a RawServerEvent rather than an error so a
// newer server cannot break an older client.
func ParseServerEvent(data []byte) (ServerEvent, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to parse event envelope: %w", err)
	}
	if env.Type == "" {
		return nil, fmt.Errorf("event payload has no type discriminator")
	}

	factory, ok := serverEventFactories[env.Type]
	if !ok {
		raw := &RawServerEvent{Payload: append([]byte(nil), data...)}
		if err := json.Unmarshal(data, &raw.ServerEventHeader); err != nil {
			return nil, fmt.Errorf("failed to parse %q event: %w", env.Type, err)
		}
		return raw, nil
	}

	event := factory()
	if err := json.Unmarshal(data, event); err != nil {
		return nil, fmt.Errorf("failed to parse %q event: %w", env.Type, err)
	}
	return event, nil
}

// MarshalClientEvent encodes a client event for the wire.
func MarshalClientEvent(event ClientEvent) ([]byte, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %q event: %w", event.EventType(), err)
	}
	return data, nil
}

// EncodeAudio converts raw audio bytes into the wire representation used by
// audio append events and audio deltas.
func EncodeAudio(audio []byte) string {
	return base64.StdEncoding.EncodeToString(audio)
}

// DecodeAudio converts the wire representation back into raw audio bytes.
func DecodeAudio(payload string) ([]byte, error) {
	audio, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decode audio payload: %w", err)
	}
	return audio, nil
}
