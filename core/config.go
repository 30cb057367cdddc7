package hooks

import (
	"context"
	"sync"

	"github.com/jinzhu/copier"

	"github.com/koscakluka/duplex-core/core/realtime"
)

// ConfigTracker keeps a best-effort client-side mirror of the negotiated
// session configuration. It observes both directions because the server's
// acknowledgment may lag a requested change: Requested is the last config
// this client asked for, Confirmed the last one the server acknowledged.
//
// The tracker only captures state; it never emits events or mutates the
// ones it observes.
type ConfigTracker struct {
	mu        sync.RWMutex
	requested *realtime.SessionConfig
	confirmed *realtime.SessionConfig
}

func NewConfigTracker() *ConfigTracker {
	return &ConfigTracker{}
}

func (t *ConfigTracker) HandleServerEvent(_ context.Context, event realtime.ServerEvent) (realtime.ServerEvent, error) {
	switch typed := event.(type) {
	case *realtime.SessionCreated:
		t.setConfirmed(typed.Session)
	case *realtime.SessionUpdated:
		t.setConfirmed(typed.Session)
	}
	return event, nil
}

func (t *ConfigTracker) HandleClientEvent(_ context.Context, event realtime.ClientEvent) (realtime.ClientEvent, error) {
	if update, ok := event.(*realtime.SessionUpdate); ok {
		t.mu.Lock()
		t.requested = deepCopyConfig(update.Session)
		// The old acknowledgment no longer describes what we asked for.
		t.confirmed = nil
		t.mu.Unlock()
	}
	return event, nil
}

// Requested returns the last configuration sent by this client, or nil.
func (t *ConfigTracker) Requested() *realtime.SessionConfig {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.requested == nil {
		return nil
	}
	return deepCopyConfig(*t.requested)
}

// Confirmed returns the last configuration acknowledged by the server, or
// nil when none has arrived or a request is still unacknowledged.
func (t *ConfigTracker) Confirmed() *realtime.SessionConfig {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.confirmed == nil {
		return nil
	}
	return deepCopyConfig(*t.confirmed)
}

func (t *ConfigTracker) setConfirmed(config realtime.SessionConfig) {
	t.mu.Lock()
	t.confirmed = deepCopyConfig(config)
	t.mu.Unlock()
}

func deepCopyConfig(config realtime.SessionConfig) *realtime.SessionConfig {
	var copied realtime.SessionConfig
	if err := copier.CopyWithOption(&copied, &config, copier.Option{DeepCopy: true}); err != nil {
		// Copy failures cannot really happen for plain structs; fall back to
		// the shallow value rather than dropping the observation.
		copied = config
	}
	return &copied
}
