package transport

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/koscakluka/duplex-core/core/realtime"
)

func TestWebsocketChannelRoundTrip(t *testing.T) {
	upgrader := websocket.Upgrader{}
	received := make(chan []byte, 1)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		defer conn.Close()

		if err := conn.WriteMessage(websocket.TextMessage, []byte(
			`{"type":"session.created","event_id":"event_1","session":{"id":"sess_1","voice":"alloy"}}`,
		)); err != nil {
			t.Errorf("server write failed: %v", err)
			return
		}

		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Errorf("server read failed: %v", err)
			return
		}
		received <- data

		deadline := time.Now().Add(time.Second)
		_ = conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			deadline,
		)
	}))
	defer server.Close()

	url := strings.Replace(server.URL, "http", "ws", 1)
	channel, err := Dial(context.Background(), url, DialOptions{HandshakeTimeout: time.Second})
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer channel.Close()

	event, err := channel.Receive(context.Background())
	if err != nil {
		t.Fatalf("unexpected receive error: %v", err)
	}
	created, ok := event.(*realtime.SessionCreated)
	if !ok {
		t.Fatalf("expected *realtime.SessionCreated, got %T", event)
	}
	if created.Session.Voice != "alloy" {
		t.Fatalf("expected voice alloy, got %q", created.Session.Voice)
	}

	if err := channel.Send(context.Background(), realtime.NewResponseCancel("resp_1")); err != nil {
		t.Fatalf("unexpected send error: %v", err)
	}
	select {
	case data := <-received:
		if !strings.Contains(string(data), `"response.cancel"`) {
			t.Fatalf("expected a response.cancel on the wire, got %s", data)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("server never received the client event")
	}

	if _, err := channel.Receive(context.Background()); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed after server close, got %v", err)
	}
}

func TestWebsocketChannelSkipsUndecodablePayloads(t *testing.T) {
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		_ = conn.WriteMessage(websocket.TextMessage, []byte(`not json`))
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"input_audio_buffer.cleared"}`))
		time.Sleep(100 * time.Millisecond)
	}))
	defer server.Close()

	url := strings.Replace(server.URL, "http", "ws", 1)
	channel, err := Dial(context.Background(), url, DialOptions{HandshakeTimeout: time.Second})
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer channel.Close()

	event, err := channel.Receive(context.Background())
	if err != nil {
		t.Fatalf("unexpected receive error: %v", err)
	}
	if _, ok := event.(*realtime.InputAudioBufferCleared); !ok {
		t.Fatalf("expected the decodable event after the bad payload, got %T", event)
	}
}

func TestWebsocketChannelReceiveHonorsContext(t *testing.T) {
	upgrader := websocket.Upgrader{}
	hold := make(chan struct{})
	defer close(hold)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		<-hold
	}))
	defer server.Close()

	url := strings.Replace(server.URL, "http", "ws", 1)
	channel, err := Dial(context.Background(), url, DialOptions{HandshakeTimeout: time.Second})
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer channel.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if _, err := channel.Receive(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}
