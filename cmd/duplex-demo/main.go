// Command duplex-demo is a terminal voice client: it connects to a realtime
// endpoint, streams the microphone up, plays assistant audio back, and
// renders the tracked conversation while letting the user interrupt the
// assistant mid-sentence.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	hooks "github.com/koscakluka/duplex-core/core"
	"github.com/koscakluka/duplex-core/core/audio/miniaudio"
	"github.com/koscakluka/duplex-core/core/realtime"
	"github.com/koscakluka/duplex-core/core/transport"
	"github.com/koscakluka/duplex-core/internal/utils"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "duplex-demo:", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		url     = flag.String("url", "wss://api.openai.com/v1/realtime?model=gpt-realtime", "realtime endpoint url")
		voice   = flag.String("voice", "alloy", "assistant voice")
		noAudio = flag.Bool("no-audio", false, "run without microphone and speaker")
	)
	flag.Parse()

	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is not set")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	header := http.Header{}
	header.Set("Authorization", "Bearer "+apiKey)
	channel, err := transport.Dial(ctx, *url, transport.DialOptions{
		Header:           header,
		HandshakeTimeout: 10 * time.Second,
	})
	if err != nil {
		return err
	}

	conversation := hooks.NewConversationTracker()
	config := hooks.NewConfigTracker()

	var playback *hooks.Playback
	var capture *hooks.Capture
	if !*noAudio {
		devices, err := miniaudio.NewClient()
		if err != nil {
			return fmt.Errorf("failed to open audio devices: %w", err)
		}
		defer devices.Close()
		playback = hooks.NewPlayback(devices.Speaker())
		capture = hooks.NewCapture(devices.Microphone())
	}
	coordinator := hooks.NewInterruptCoordinator(playback)

	serverHandlers := []hooks.ServerEventHandler{config, conversation, coordinator}
	if playback != nil {
		serverHandlers = append(serverHandlers, playback)
	}
	clientHandlers := []hooks.ClientEventHandler{
		hooks.NewEventIdentity(),
		config,
		conversation,
	}
	if capture != nil {
		clientHandlers = append(clientHandlers, capture)
	}
	session, err := hooks.HookHandlers(channel, serverHandlers, clientHandlers)
	if err != nil {
		return err
	}
	defer session.Close()

	if err := session.Send(ctx, realtime.NewSessionUpdate(realtime.SessionConfig{
		Voice:      *voice,
		Modalities: []string{"audio", "text"},
		OutputAudioFormat: utils.Ptr(realtime.AudioFormat{
			Type: "pcm16",
			Rate: 24000,
		}),
		TurnDetection: utils.Ptr(realtime.TurnDetection{Type: "server_vad"}),
	})); err != nil {
		return err
	}

	if capture != nil {
		if err := capture.Start(ctx); err != nil {
			return err
		}
	}

	program := tea.NewProgram(
		newModel(session, conversation, config, coordinator),
		tea.WithAltScreen(),
	)

	go func() {
		err := session.KeepReceiving(ctx)
		program.Send(sessionEndedMsg{err: err})
	}()

	finalModel, err := program.Run()
	if err != nil {
		return err
	}
	if m, ok := finalModel.(model); ok && m.sessionErr != nil {
		return m.sessionErr
	}
	return nil
}
