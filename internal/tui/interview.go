// Package tui renders an interview as an interactive terminal session.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spigell/interview-conductor/internal/client"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#2196F3"))
	questionStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FAFAFA"))
	feedbackStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#A3BE8C"))
	improvedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#EBCB8B"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	errStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#BF616A"))
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#2196F3"))
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

type modeChoice struct {
	mode  client.Mode
	label string
}

var modeChoices = []modeChoice{
	{client.ModeText, "Text only"},
	{client.ModeVoice, "Voice only (empty answers allowed)"},
	{client.ModeBoth, "Text + voice"},
}

type turnDoneMsg struct {
	err error
}

type spinMsg struct{}

// Model is the bubbletea model driving one interview orchestrator.
type Model struct {
	orch *client.Orchestrator
	api  *client.Client

	input      textarea.Model
	viewport   viewport.Model
	width      int
	height     int
	ready      bool
	modeIndex  int
	spinnerPos int
	errText    string
}

func NewModel(orch *client.Orchestrator, api *client.Client) *Model {
	ta := textarea.New()
	ta.Placeholder = "Type your answer... (Enter to submit, Ctrl+E to end the interview)"
	ta.Focus()
	ta.CharLimit = 8000
	ta.SetWidth(72)
	ta.SetHeight(4)
	ta.Prompt = "▍ "

	return &Model{
		orch:   orch,
		api:    api,
		input:  ta,
		width:  100,
		height: 30,
	}
}

func (m *Model) Init() tea.Cmd {
	return textarea.Blink
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport = viewport.New(msg.Width-4, msg.Height-12)
		m.input.SetWidth(msg.Width - 4)
		m.ready = true
		m.refreshTranscript()
		return m, nil

	case spinMsg:
		if m.orch.Submitting() {
			m.spinnerPos = (m.spinnerPos + 1) % len(spinnerFrames)
			return m, tick()
		}
		return m, nil

	case turnDoneMsg:
		if msg.err != nil {
			m.errText = msg.err.Error()
		} else {
			m.errText = ""
			m.input.Reset()
		}
		m.refreshTranscript()
		m.viewport.GotoBottom()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m.updateChildren(msg)
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}

	switch m.orch.Phase() {
	case client.PhaseModeSelection:
		switch msg.String() {
		case "up", "k":
			m.modeIndex = (m.modeIndex + len(modeChoices) - 1) % len(modeChoices)
		case "down", "j":
			m.modeIndex = (m.modeIndex + 1) % len(modeChoices)
		case "enter":
			return m, tea.Batch(m.startCmd(modeChoices[m.modeIndex].mode), tick())
		case "q", "esc":
			return m, tea.Quit
		}
		return m, nil

	case client.PhaseInProgress:
		switch msg.Type {
		case tea.KeyEnter:
			if m.orch.Submitting() {
				return m, nil
			}
			return m, tea.Batch(m.submitCmd(m.input.Value()), tick())
		case tea.KeyCtrlE:
			m.orch.Complete()
			return m, nil
		}
		return m.updateChildren(msg)

	case client.PhaseCompleted:
		switch msg.String() {
		case "r":
			previous := m.orch.Restart()
			m.errText = ""
			m.input.Reset()
			return m, m.deleteSessionCmd(previous)
		case "q", "esc", "enter":
			return m, tea.Quit
		}
	}

	return m, nil
}

func (m *Model) updateChildren(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Mock interview: "+m.orch.JobTitle()) + "\n\n")

	switch m.orch.Phase() {
	case client.PhaseModeSelection:
		b.WriteString("Choose your interview mode:\n\n")
		for i, choice := range modeChoices {
			cursor := "  "
			label := choice.label
			if i == m.modeIndex {
				cursor = "> "
				label = selectedStyle.Render(label)
			}
			b.WriteString(cursor + label + "\n")
		}
		b.WriteString("\n" + dimStyle.Render("enter: start · q: quit"))

	case client.PhaseLoading:
		b.WriteString(spinnerFrames[m.spinnerPos] + " Preparing your interview...\n")

	case client.PhaseInProgress:
		if m.ready {
			b.WriteString(m.viewport.View() + "\n\n")
		}
		if m.orch.Submitting() {
			b.WriteString(spinnerFrames[m.spinnerPos] + " Waiting for feedback...\n")
		} else {
			b.WriteString(m.input.View() + "\n")
			b.WriteString(dimStyle.Render("enter: submit · ctrl+e: end interview · ctrl+c: quit"))
		}

	case client.PhaseCompleted:
		b.WriteString(m.resultsView())
		b.WriteString("\n" + dimStyle.Render("r: new interview · q: quit"))
	}

	if m.errText != "" {
		b.WriteString("\n\n" + errStyle.Render("error: "+m.errText))
	}

	return b.String()
}

func (m *Model) resultsView() string {
	history := m.orch.History()
	answered := 0
	for _, entry := range history {
		if entry.Answer != "" {
			answered++
		}
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("Interview complete: %d questions asked, %d answered.\n\n", len(history), answered))

	for i, entry := range history {
		b.WriteString(questionStyle.Render(fmt.Sprintf("Q%d: %s", i+1, entry.Question)) + "\n")
		if entry.Feedback != "" {
			b.WriteString(feedbackStyle.Render("Feedback: "+entry.Feedback) + "\n")
		}
		b.WriteString("\n")
	}

	return b.String()
}

func (m *Model) refreshTranscript() {
	if !m.ready {
		return
	}

	var b strings.Builder
	for i, entry := range m.orch.History() {
		b.WriteString(questionStyle.Render(fmt.Sprintf("Q%d: %s", i+1, entry.Question)) + "\n\n")
		if entry.Answer != "" {
			b.WriteString("You: " + entry.Answer + "\n\n")
		}
		if entry.Feedback != "" {
			b.WriteString(feedbackStyle.Render("Feedback: "+entry.Feedback) + "\n\n")
		}
		if entry.ImprovedAnswer != "" {
			b.WriteString(improvedStyle.Render("Suggested answer: "+entry.ImprovedAnswer) + "\n\n")
		}
	}

	m.viewport.SetContent(b.String())
}

func (m *Model) startCmd(mode client.Mode) tea.Cmd {
	return func() tea.Msg {
		return turnDoneMsg{err: m.orch.Start(context.Background(), mode)}
	}
}

func (m *Model) submitCmd(answer string) tea.Cmd {
	return func() tea.Msg {
		return turnDoneMsg{err: m.orch.Submit(context.Background(), answer)}
	}
}

// deleteSessionCmd clears the abandoned server-side session after a restart.
// A failure is not worth surfacing: the registry forgets it on shutdown anyway.
func (m *Model) deleteSessionCmd(sessionID string) tea.Cmd {
	return func() tea.Msg {
		if m.api != nil {
			_ = m.api.DeleteSession(context.Background(), sessionID)
		}
		return nil
	}
}

func tick() tea.Cmd {
	return tea.Tick(120*time.Millisecond, func(time.Time) tea.Msg {
		return spinMsg{}
	})
}
