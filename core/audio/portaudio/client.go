// Package portaudio is an alternative device backend built on PortAudio's
// blocking duplex stream. One Client serves as both the capture source and
// the playback sink; the stream carries both directions.
package portaudio

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"

	"github.com/koscakluka/duplex-core/core/audio"
)

// Client implements audio.Source and audio.Sink over one duplex PortAudio
// stream. Reads are blocking on the stream; writes are decoupled through a
// byte queue drained by a background goroutine, so enqueueing never stalls
// the caller on device pacing.
type Client struct {
	bufferSize int
	stream     *portaudio.Stream

	in  []int16
	out []int16

	mu     sync.Mutex
	cond   *sync.Cond
	buffer []byte
	closed bool

	closeOnce sync.Once
	closeErr  error
}

func NewClient(bufferSize int) (*Client, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize portaudio: %w", err)
	}

	in := make([]int16, bufferSize)
	out := make([]int16, bufferSize)
	stream, err := portaudio.OpenDefaultStream(1, 1, audio.DefaultSampleRate, bufferSize, in, out)
	if err != nil {
		_ = portaudio.Terminate()
		return nil, fmt.Errorf("failed to open portaudio stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		_ = stream.Close()
		_ = portaudio.Terminate()
		return nil, fmt.Errorf("failed to start portaudio stream: %w", err)
	}

	client := &Client{
		bufferSize: bufferSize,
		stream:     stream,
		in:         in,
		out:        out,
	}
	client.cond = sync.NewCond(&client.mu)

	go client.playLoop()

	return client, nil
}

// NextFrame blocks on the stream for one capture buffer and returns it as
// little-endian PCM bytes.
func (c *Client) NextFrame(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return nil, fmt.Errorf("portaudio stream closed")
	}

	if err := c.stream.Read(); err != nil {
		return nil, fmt.Errorf("failed to read from portaudio stream: %w", err)
	}

	frame := bytes.Buffer{}
	if err := binary.Write(&frame, binary.LittleEndian, c.in); err != nil {
		return nil, err
	}
	return frame.Bytes(), nil
}

func (c *Client) Enqueue(chunk []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return fmt.Errorf("portaudio stream closed")
	}
	c.buffer = append(c.buffer, chunk...)
	c.cond.Signal()
	return nil
}

// Flush drops queued-but-unwritten audio. Audio already handed to the
// device (at most one buffer) still plays out.
func (c *Client) Flush() {
	c.mu.Lock()
	c.buffer = nil
	c.mu.Unlock()
}

// Stop halts playback by starving the writer; the duplex stream itself
// keeps running so capture is unaffected.
func (c *Client) Stop() error {
	c.Flush()
	return nil
}

func (c *Client) EncodingInfo() audio.EncodingInfo {
	return audio.GetDefaultEncodingInfo()
}

// Close is safe to call from both the source and sink owner; the second
// call is a no-op.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		c.buffer = nil
		c.cond.Broadcast()
		c.mu.Unlock()

		c.closeErr = c.stream.Close()
		if err := portaudio.Terminate(); err != nil && c.closeErr == nil {
			c.closeErr = err
		}
	})
	return c.closeErr
}

// playLoop feeds full device buffers from the queue to the stream.
func (c *Client) playLoop() {
	chunkBytes := c.bufferSize * 2

	for {
		c.mu.Lock()
		for !c.closed && len(c.buffer) < chunkBytes {
			c.cond.Wait()
		}
		if c.closed {
			c.mu.Unlock()
			return
		}
		chunk := c.buffer[:chunkBytes]
		c.buffer = c.buffer[chunkBytes:]
		c.mu.Unlock()

		if err := binary.Read(bytes.NewBuffer(chunk), binary.LittleEndian, c.out); err != nil {
			continue
		}
		_ = c.stream.Write()
	}
}
