package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	hooks "github.com/koscakluka/duplex-core/core"
	"github.com/koscakluka/duplex-core/core/realtime"
)

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	userStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	assistantStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	pendingStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Italic(true)
	truncatedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	speakingBadge  = lipgloss.NewStyle().Background(lipgloss.Color("214")).Foreground(lipgloss.Color("16")).Padding(0, 1)
	interruptBadge = lipgloss.NewStyle().Background(lipgloss.Color("203")).Foreground(lipgloss.Color("16")).Padding(0, 1)
	idleBadge      = lipgloss.NewStyle().Background(lipgloss.Color("241")).Foreground(lipgloss.Color("16")).Padding(0, 1)
	helpStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

type refreshMsg time.Time

type sessionEndedMsg struct{ err error }

func refreshTick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return refreshMsg(t)
	})
}

type model struct {
	session      *hooks.Session
	conversation *hooks.ConversationTracker
	config       *hooks.ConfigTracker
	coordinator  *hooks.InterruptCoordinator

	viewport viewport.Model
	width    int
	height   int
	ready    bool

	sessionErr error
	quitting   bool
}

func newModel(
	session *hooks.Session,
	conversation *hooks.ConversationTracker,
	config *hooks.ConfigTracker,
	coordinator *hooks.InterruptCoordinator,
) model {
	return model{
		session:      session,
		conversation: conversation,
		config:       config,
		coordinator:  coordinator,
	}
}

func (m model) Init() tea.Cmd {
	return refreshTick()
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case " ":
			_ = m.coordinator.TriggerInterrupt(context.Background())
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		contentHeight := msg.Height - 4
		if contentHeight < 1 {
			contentHeight = 1
		}
		if !m.ready {
			m.viewport = viewport.New(msg.Width, contentHeight)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = contentHeight
		}
		m.viewport.SetContent(m.renderConversation())
		return m, nil

	case refreshMsg:
		if m.ready {
			atBottom := m.viewport.AtBottom()
			m.viewport.SetContent(m.renderConversation())
			if atBottom {
				m.viewport.GotoBottom()
			}
		}
		return m, refreshTick()

	case sessionEndedMsg:
		m.sessionErr = msg.err
		return m, tea.Quit
	}

	if m.ready {
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "connecting...\n"
	}

	var b strings.Builder
	b.WriteString(m.headerView())
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("space: interrupt • q: quit"))
	b.WriteString("\n")
	return b.String()
}

func (m model) headerView() string {
	var badge string
	switch m.coordinator.State() {
	case hooks.InterruptAssistantSpeaking:
		badge = speakingBadge.Render("speaking")
	case hooks.InterruptInterrupted:
		badge = interruptBadge.Render("interrupted")
	default:
		badge = idleBadge.Render("idle")
	}

	status := "negotiating"
	if confirmed := m.config.Confirmed(); confirmed != nil {
		status = fmt.Sprintf("voice=%s model=%s", confirmed.Voice, confirmed.Model)
	} else if requested := m.config.Requested(); requested != nil {
		status = fmt.Sprintf("awaiting ack (voice=%s)", requested.Voice)
	}

	return lipgloss.JoinHorizontal(lipgloss.Top,
		titleStyle.Render("duplex"), "  ", badge, "  ", statusStyle.Render(status))
}

func (m model) renderConversation() string {
	snapshot := m.conversation.Snapshot()
	if len(snapshot.Items) == 0 {
		return statusStyle.Render("say something...")
	}

	width := m.viewport.Width
	if width <= 0 {
		width = 80
	}

	var b strings.Builder
	for _, record := range snapshot.Items {
		line := renderItem(record)
		if line == "" {
			continue
		}
		b.WriteString(wordwrap.String(line, width))
		b.WriteString("\n\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderItem(record hooks.ItemRecord) string {
	item := record.Item
	if item.Type != realtime.ItemTypeMessage {
		return ""
	}

	text := itemText(item)
	label := assistantStyle.Render("assistant")
	if item.Role == "user" {
		label = userStyle.Render("you")
	}

	switch {
	case record.PendingConfirmation:
		return fmt.Sprintf("%s %s", label, pendingStyle.Render(text+" (sending...)"))
	case record.Truncated != nil:
		return fmt.Sprintf("%s %s", label, truncatedStyle.Render(text+" ⏹"))
	case text == "":
		return fmt.Sprintf("%s %s", label, pendingStyle.Render("..."))
	default:
		return fmt.Sprintf("%s %s", label, text)
	}
}

func itemText(item realtime.ConversationItem) string {
	var parts []string
	for _, part := range item.Content {
		switch {
		case part.Text != "":
			parts = append(parts, part.Text)
		case part.Transcript != "":
			parts = append(parts, part.Transcript)
		}
	}
	return strings.Join(parts, " ")
}
