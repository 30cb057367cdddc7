package hooks

import (
	"context"
	"errors"
	"sync"

	"github.com/koscakluka/duplex-core/core/audio"
	"github.com/koscakluka/duplex-core/core/realtime"
)

var errDeviceGone = errors.New("device gone")

type recordingSink struct {
	mu         sync.Mutex
	enqueued   [][]byte
	flushCalls int
	stopCalls  int
	closeCalls int
	enqueueErr error
	stopErr    error
}

func (s *recordingSink) Enqueue(chunk []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.enqueueErr != nil {
		return s.enqueueErr
	}
	s.enqueued = append(s.enqueued, append([]byte(nil), chunk...))
	return nil
}

func (s *recordingSink) Flush() {
	s.mu.Lock()
	s.flushCalls++
	s.mu.Unlock()
}

func (s *recordingSink) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopCalls++
	return s.stopErr
}

func (s *recordingSink) EncodingInfo() audio.EncodingInfo {
	return audio.GetDefaultEncodingInfo()
}

func (s *recordingSink) Close() error {
	s.mu.Lock()
	s.closeCalls++
	s.mu.Unlock()
	return nil
}

func (s *recordingSink) enqueuedChunks() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]byte(nil), s.enqueued...)
}

func (s *recordingSink) counts() (flush, stop int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flushCalls, s.stopCalls
}

type scriptedSource struct {
	frames chan []byte

	mu         sync.Mutex
	closeCalls int
}

func newScriptedSource(capacity int) *scriptedSource {
	return &scriptedSource{frames: make(chan []byte, capacity)}
}

func (s *scriptedSource) NextFrame(ctx context.Context) ([]byte, error) {
	select {
	case frame, ok := <-s.frames:
		if !ok {
			return nil, errDeviceGone
		}
		return frame, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *scriptedSource) EncodingInfo() audio.EncodingInfo {
	return audio.GetDefaultEncodingInfo()
}

func (s *scriptedSource) Close() error {
	s.mu.Lock()
	s.closeCalls++
	s.mu.Unlock()
	return nil
}

type sentRecorder struct {
	mu     sync.Mutex
	events []realtime.ClientEvent
}

func (r *sentRecorder) send(_ context.Context, event realtime.ClientEvent) error {
	r.mu.Lock()
	r.events = append(r.events, event)
	r.mu.Unlock()
	return nil
}

func (r *sentRecorder) sent() []realtime.ClientEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]realtime.ClientEvent(nil), r.events...)
}

func (r *sentRecorder) sentOfType(eventType string) []realtime.ClientEvent {
	var matched []realtime.ClientEvent
	for _, event := range r.sent() {
		if event.EventType() == eventType {
			matched = append(matched, event)
		}
	}
	return matched
}

func serverEvent(eventType, eventID string) realtime.ServerEventHeader {
	return realtime.ServerEventHeader{Type: eventType, EventID: eventID}
}

func audioDelta(eventID, responseID, itemID string, chunk []byte) *realtime.ResponseAudioDelta {
	return &realtime.ResponseAudioDelta{
		ServerEventHeader: serverEvent(realtime.TypeResponseAudioDelta, eventID),
		ResponseID:        responseID,
		ItemID:            itemID,
		Delta:             realtime.EncodeAudio(chunk),
	}
}
