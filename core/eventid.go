package hooks

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/koscakluka/duplex-core/core/realtime"
)

// EventIdentity guarantees every outgoing client event carries a unique
// identity. Events that already have one pass through unchanged. Register
// it before any handler that correlates client and server events by id.
type EventIdentity struct{}

func NewEventIdentity() *EventIdentity {
	return &EventIdentity{}
}

func (m *EventIdentity) HandleClientEvent(_ context.Context, event realtime.ClientEvent) (realtime.ClientEvent, error) {
	if event.ID() == "" {
		event.SetID(fmt.Sprintf("client-%s-auto", uuid.NewString()))
	}
	return event, nil
}
