package miniaudio

import (
	"context"
	"fmt"
	"sync"

	"github.com/gen2brain/malgo"

	"github.com/koscakluka/duplex-core/core/audio"
)

// Microphone is an audio.Source backed by a malgo capture device. The
// device callback runs on malgo's own thread; frames are handed over
// through a bounded queue, dropping the oldest frame when the reader falls
// behind so capture latency stays flat.
type Microphone struct {
	device *malgo.Device
	frames chan []byte

	mu     sync.Mutex
	closed chan struct{}
}

func newMicrophone(audioContext *malgo.AllocatedContext) (*Microphone, error) {
	sampleRate := uint32(audio.DefaultSampleRate)
	channels := 1
	format := malgo.FormatS16
	bytesPerFrame := malgo.SampleSizeInBytes(format) * channels

	config := malgo.DefaultDeviceConfig(malgo.Capture)
	config.SampleRate = sampleRate
	config.Capture.Format = format
	config.Capture.Channels = uint32(channels)
	config.Alsa.NoMMap = 1
	config.PerformanceProfile = malgo.LowLatency
	config.PeriodSizeInFrames = 480
	config.Periods = 3

	microphone := &Microphone{
		frames: make(chan []byte, 64),
		closed: make(chan struct{}),
	}

	device, err := malgo.InitDevice(audioContext.Context, config, malgo.DeviceCallbacks{
		Data: func(_, pInput []byte, frameCount uint32) {
			n := int(frameCount) * bytesPerFrame
			if len(pInput) < n || n == 0 {
				return
			}
			// pInput is reused by malgo after the callback returns.
			frame := make([]byte, n)
			copy(frame, pInput[:n])
			microphone.push(frame)
		},
	})
	if err != nil {
		return nil, err
	}
	microphone.device = device

	if err := device.Start(); err != nil {
		device.Uninit()
		return nil, fmt.Errorf("failed to start capture device: %w", err)
	}

	return microphone, nil
}

func (m *Microphone) NextFrame(ctx context.Context) ([]byte, error) {
	select {
	case frame := <-m.frames:
		return frame, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-m.closed:
		return nil, fmt.Errorf("capture device closed")
	}
}

func (m *Microphone) EncodingInfo() audio.EncodingInfo {
	return audio.GetDefaultEncodingInfo()
}

func (m *Microphone) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	select {
	case <-m.closed:
		return nil
	default:
	}
	close(m.closed)

	if m.device != nil {
		_ = m.device.Stop()
		m.device.Uninit()
		m.device = nil
	}
	return nil
}

func (m *Microphone) push(frame []byte) {
	select {
	case m.frames <- frame:
		return
	default:
	}
	// Queue full; shed the oldest frame.
	select {
	case <-m.frames:
	default:
	}
	select {
	case m.frames <- frame:
	default:
	}
}
