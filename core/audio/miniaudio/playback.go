package miniaudio

import (
	"fmt"
	"sync"

	"github.com/gen2brain/malgo"

	"github.com/koscakluka/duplex-core/core/audio"
)

// Speaker is an audio.Sink backed by a malgo playback device. Audio
// accumulates in a byte queue that the device callback drains; when the
// queue runs dry the device emits silence, so Stop only has to halt the
// device and Enqueue restarts it on demand.
type Speaker struct {
	device *malgo.Device

	mu     sync.Mutex
	closed bool

	audioMu sync.Mutex
	buffer  []byte
}

func newSpeaker(audioContext *malgo.AllocatedContext) (*Speaker, error) {
	sampleRate := uint32(audio.DefaultSampleRate)
	channels := 1
	format := malgo.FormatS16
	bytesPerFrame := malgo.SampleSizeInBytes(format) * channels

	config := malgo.DefaultDeviceConfig(malgo.Playback)
	config.SampleRate = sampleRate
	config.Playback.Format = format
	config.Playback.Channels = uint32(channels)
	config.Alsa.NoMMap = 1
	config.PeriodSizeInFrames = sampleRate / 10 // ~100ms of audio
	config.Periods = 4

	speaker := &Speaker{}

	device, err := malgo.InitDevice(
		audioContext.Context,
		config,
		malgo.DeviceCallbacks{Data: speaker.processAudio(bytesPerFrame)},
	)
	if err != nil {
		return nil, err
	}
	speaker.device = device

	return speaker, nil
}

func (s *Speaker) Enqueue(chunk []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.device == nil {
		return fmt.Errorf("playback device closed")
	}

	s.audioMu.Lock()
	s.buffer = append(s.buffer, chunk...)
	s.audioMu.Unlock()

	if !s.device.IsStarted() {
		if err := s.device.Start(); err != nil {
			return fmt.Errorf("failed to start playback device: %w", err)
		}
	}
	return nil
}

func (s *Speaker) Flush() {
	s.audioMu.Lock()
	s.buffer = nil
	s.audioMu.Unlock()
}

func (s *Speaker) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.device == nil {
		return nil
	}
	if !s.device.IsStarted() {
		return nil
	}
	if err := s.device.Stop(); err != nil {
		return fmt.Errorf("failed to stop playback device: %w", err)
	}
	return nil
}

func (s *Speaker) EncodingInfo() audio.EncodingInfo {
	return audio.GetDefaultEncodingInfo()
}

func (s *Speaker) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	if s.device != nil {
		_ = s.device.Stop()
		s.device.Uninit()
		s.device = nil
	}
	s.Flush()
	return nil
}

func (s *Speaker) processAudio(bytesPerFrame int) malgo.DataProc {
	return func(pOutput, _ []byte, frameCount uint32) {
		need := int(frameCount) * bytesPerFrame

		s.audioMu.Lock()
		defer s.audioMu.Unlock()

		if len(s.buffer) == 0 {
			return
		}
		if len(s.buffer) < need {
			copy(pOutput, s.buffer)
			s.buffer = nil
			return
		}
		copy(pOutput, s.buffer[:need])
		s.buffer = s.buffer[need:]
	}
}
