package transport

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/codes"

	"github.com/koscakluka/duplex-core/core/realtime"
)

// WebsocketChannel is a Channel over a websocket connection. Writes are
// serialized with a mutex; reads belong to whichever single goroutine
// drives Receive.
type WebsocketChannel struct {
	conn *websocket.Conn

	writeMu   sync.Mutex
	closeOnce sync.Once
	closeErr  error
}

// DialOptions configures Dial.
type DialOptions struct {
	// Header carries auth and any other handshake headers.
	Header http.Header
	// HandshakeTimeout bounds the dial; zero means the dialer default.
	HandshakeTimeout time.Duration
}

// Dial connects a websocket channel to url.
func Dial(ctx context.Context, url string, opts DialOptions) (*WebsocketChannel, error) {
	ctx, span := tracer.Start(ctx, "dial realtime channel")
	defer span.End()

	dialer := websocket.Dialer{HandshakeTimeout: opts.HandshakeTimeout}
	conn, resp, err := dialer.DialContext(ctx, url, opts.Header)
	if err != nil {
		if resp != nil {
			err = fmt.Errorf("failed to dial %s (status %d): %w", url, resp.StatusCode, err)
		} else {
			err = fmt.Errorf("failed to dial %s: %w", url, err)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	return &WebsocketChannel{conn: conn}, nil
}

// Receive reads the next server event. Payloads that fail to decode are
// logged and skipped rather than ending the session; a partially observed
// stream beats no stream.
func (c *WebsocketChannel) Receive(ctx context.Context) (realtime.ServerEvent, error) {
	for {
		data, err := c.readMessage(ctx)
		if err != nil {
			return nil, err
		}

		event, err := realtime.ParseServerEvent(data)
		if err != nil {
			logger.WarnContext(ctx, "skipping undecodable server event", "error", err)
			continue
		}
		return event, nil
	}
}

func (c *WebsocketChannel) readMessage(ctx context.Context) ([]byte, error) {
	done := make(chan struct{})
	if ctx.Done() != nil {
		go func() {
			select {
			case <-ctx.Done():
				// Unblocks the pending read; the deadline error is mapped
				// back to ctx.Err below.
				_ = c.conn.SetReadDeadline(time.Now())
			case <-done:
			}
		}()
	}

	_, data, err := c.conn.ReadMessage()
	close(done)
	if err == nil {
		return data, nil
	}

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		return nil, ErrClosed
	}
	return nil, fmt.Errorf("websocket receive failed: %w", err)
}

func (c *WebsocketChannel) Send(ctx context.Context, event realtime.ClientEvent) error {
	data, err := realtime.MarshalClientEvent(event)
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if deadline, ok := ctx.Deadline(); ok {
		_ = c.conn.SetWriteDeadline(deadline)
		defer c.conn.SetWriteDeadline(time.Time{})
	}
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("websocket send failed: %w", err)
	}
	return nil
}

func (c *WebsocketChannel) Close() error {
	c.closeOnce.Do(func() {
		c.writeMu.Lock()
		_ = c.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		c.writeMu.Unlock()
		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}
