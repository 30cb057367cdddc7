package audio

import "context"

// Source is an audio input device. NextFrame blocks until a capture frame
// is available or ctx is cancelled.
type Source interface {
	NextFrame(ctx context.Context) ([]byte, error)
	EncodingInfo() EncodingInfo
	Close() error
}

// Sink is an audio output device with a playback queue. Enqueue may block
// on queue capacity. Flush discards buffered-but-unplayed audio; Stop halts
// playback immediately. Both are safe to call from any goroutine.
type Sink interface {
	Enqueue(audio []byte) error
	Flush()
	Stop() error
	EncodingInfo() EncodingInfo
	Close() error
}
