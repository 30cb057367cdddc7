// Package miniaudio binds the capture and playback device contracts to the
// operating system's audio stack through malgo.
package miniaudio

import (
	"fmt"

	"github.com/gen2brain/malgo"

	"github.com/koscakluka/duplex-core/core/audio"
)

// Client owns the malgo context shared by the capture and playback devices.
// Close the devices first (their owners do this on teardown), then the
// client.
type Client struct {
	// audioContext is only saved to be able to uninitialize it, it is an
	// ownership thing
	audioContext *malgo.AllocatedContext

	microphone *Microphone
	speaker    *Speaker
}

func NewClient() (*Client, error) {
	audioCtx, err := malgo.InitContext(
		nil,
		malgo.ContextConfig{},
		func(message string) {},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize audio context: %w", err)
	}

	client := Client{audioContext: audioCtx}

	client.microphone, err = newMicrophone(audioCtx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to initialize capture device: %w", err)
	}

	client.speaker, err = newSpeaker(audioCtx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to initialize playback device: %w", err)
	}

	return &client, nil
}

// Microphone returns the capture side of the client.
func (c *Client) Microphone() audio.Source { return c.microphone }

// Speaker returns the playback side of the client.
func (c *Client) Speaker() audio.Sink { return c.speaker }

func (c *Client) Close() error {
	if c.microphone != nil {
		_ = c.microphone.Close()
	}
	if c.speaker != nil {
		_ = c.speaker.Close()
	}
	err := c.audioContext.Uninit()
	c.audioContext.Free()
	return err
}
