package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/voxshell/voxshell-core/core/shell"
)

type connectionMsg struct {
	connected bool
	reason    string
}

type errorMsg struct{ message string }

type stateMsg struct{ state string }

type messageMsg struct {
	role  string
	text  string
	final bool
}

type transcriptMsg struct {
	text    string
	partial bool
}

type speakingMsg struct{ speaking bool }

type levelMsg struct{ level float64 }

type moodMsg struct{ mood string }

type soundMsg struct{ sound string }

type musicMsg struct {
	action string
	track  string
}

type canvasMsg struct {
	action string
	url    string
}

type visibilityMsg struct{ visibility shell.Visibility }

type chatLine struct {
	role string
	text string
}

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	userStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	assistantStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("85"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	partialStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Italic(true)
)

type model struct {
	orchestrator *shell.Orchestrator

	chat      viewport.Model
	input     textinput.Model
	thinking  spinner.Model
	width     int
	height    int
	ready     bool
	connected bool
	state     string
	mood      string
	speaking  bool
	level     float64
	partial   string
	streaming string
	lines     []chatLine
	notice    string

	visibility shell.Visibility
}

func newModel() *model {
	input := textinput.New()
	input.Placeholder = "Say something (enter to send, tab to switch mode)"
	input.Focus()

	thinking := spinner.New()
	thinking.Spinner = spinner.Dot

	return &model{
		input:    input,
		thinking: thinking,
		state:    "idle",
	}
}

func (m *model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.thinking.Tick)
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		chatHeight := max(3, msg.Height-6)
		if !m.ready {
			m.chat = viewport.New(msg.Width, chatHeight)
			m.ready = true
		} else {
			m.chat.Width = msg.Width
			m.chat.Height = chatHeight
		}
		m.refreshChat()

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyTab:
			m.cycleMode()
		case tea.KeyEnter:
			text := strings.TrimSpace(m.input.Value())
			if text != "" && m.orchestrator != nil {
				m.orchestrator.SendMessage(text)
				m.input.Reset()
			}
		}

	case connectionMsg:
		m.connected = msg.connected
		if !msg.connected && msg.reason != "" {
			m.notice = "disconnected: " + msg.reason
		} else {
			m.notice = ""
		}

	case errorMsg:
		m.lines = append(m.lines, chatLine{role: "error", text: msg.message})
		m.refreshChat()

	case stateMsg:
		m.state = msg.state

	case messageMsg:
		if msg.role == "assistant" && !msg.final {
			m.streaming = msg.text
		} else {
			m.streaming = ""
			if msg.text != "" {
				m.lines = append(m.lines, chatLine{role: msg.role, text: msg.text})
			}
		}
		m.refreshChat()

	case transcriptMsg:
		if msg.partial {
			m.partial = msg.text
		} else {
			m.partial = ""
		}
		m.refreshChat()

	case speakingMsg:
		m.speaking = msg.speaking
		if !msg.speaking {
			m.level = 0
		}

	case levelMsg:
		m.level = msg.level

	case moodMsg:
		m.mood = msg.mood

	case soundMsg:
		m.notice = "♪ " + msg.sound

	case musicMsg:
		if msg.action == "stop" {
			m.notice = "music stopped"
		} else {
			m.notice = "music: " + msg.track
		}

	case canvasMsg:
		m.notice = "canvas " + msg.action + " " + msg.url

	case visibilityMsg:
		m.visibility = msg.visibility

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.thinking, cmd = m.thinking.Update(msg)
		return m, cmd
	}

	var inputCmd, chatCmd tea.Cmd
	m.input, inputCmd = m.input.Update(msg)
	if m.ready {
		m.chat, chatCmd = m.chat.Update(msg)
	}
	return m, tea.Batch(inputCmd, chatCmd)
}

func (m *model) View() string {
	if !m.ready {
		return "starting..."
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("voxshell"))
	b.WriteString("  ")
	b.WriteString(statusStyle.Render(m.statusLine()))
	b.WriteString("\n\n")
	b.WriteString(m.chat.View())
	b.WriteString("\n")
	if m.notice != "" {
		b.WriteString(statusStyle.Render(m.notice))
	}
	b.WriteString("\n")
	b.WriteString(m.input.View())
	return b.String()
}

func (m *model) statusLine() string {
	parts := []string{}
	if m.connected {
		parts = append(parts, "connected")
	} else {
		parts = append(parts, "offline")
	}
	if m.orchestrator != nil {
		if profile := m.orchestrator.ActiveProfile(); profile.Name != "" {
			parts = append(parts, profile.Name)
		}
	}
	switch m.state {
	case "thinking":
		parts = append(parts, m.thinking.View()+"thinking")
	default:
		parts = append(parts, m.state)
	}
	if m.visibility.MoodIndicator && m.mood != "" {
		parts = append(parts, "mood: "+m.mood)
	}
	if m.speaking {
		parts = append(parts, fmt.Sprintf("speaking %s", levelBar(m.level)))
	}
	return strings.Join(parts, " · ")
}

func (m *model) refreshChat() {
	if !m.ready {
		return
	}

	width := max(20, m.chat.Width-2)
	var b strings.Builder
	for _, line := range m.lines {
		b.WriteString(renderLine(line, width))
		b.WriteString("\n")
	}
	if m.streaming != "" {
		b.WriteString(renderLine(chatLine{role: "assistant", text: m.streaming}, width))
		b.WriteString("\n")
	}
	if m.partial != "" {
		b.WriteString(partialStyle.Render(wordwrap.String("… "+m.partial, width)))
		b.WriteString("\n")
	}
	m.chat.SetContent(b.String())
	m.chat.GotoBottom()
}

func renderLine(line chatLine, width int) string {
	wrapped := wordwrap.String(line.text, width)
	switch line.role {
	case "user":
		return userStyle.Render("you ") + wrapped
	case "error":
		return errorStyle.Render("err ") + wrapped
	default:
		return assistantStyle.Render("bot ") + wrapped
	}
}

func levelBar(level float64) string {
	steps := int(level * 8)
	if steps > 8 {
		steps = 8
	}
	return strings.Repeat("▮", steps) + strings.Repeat("▯", 8-steps)
}

// cycleMode switches to the next profile in discovery order.
func (m *model) cycleMode() {
	if m.orchestrator == nil {
		return
	}

	modes := m.orchestrator.Modes()
	if len(modes) < 2 {
		return
	}
	current := m.orchestrator.ActiveProfile().ID
	next := modes[0]
	for i, profile := range modes {
		if profile.ID == current {
			next = modes[(i+1)%len(modes)]
			break
		}
	}

	m.orchestrator.SwitchModeAsync(next.ID)
	m.notice = "switching to " + next.Name
}
