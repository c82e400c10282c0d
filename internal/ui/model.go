// Package ui is the terminal front end of the tracker. It only renders what
// the loop reports and forwards key presses as commands.
package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"worktimer/internal/models"
)

// Commands is the subset of the tracker the UI drives.
type Commands interface {
	RequestBind(slot models.SlotKey) error
	CancelBind(slot models.SlotKey) error
	ResetTimer() error
	ResumePreviousTime() error
}

type stateMsg models.SessionState

type tickMsg string

type bindingMsg struct {
	slot models.SlotKey
	name string
}

type errMsg struct{ err error }

var (
	activeColor   = lipgloss.Color("#B0FFFF")
	inactiveColor = lipgloss.Color("#F07070")

	clockStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#1a1a1a")).
			Padding(0, 2)

	labelStyle = lipgloss.NewStyle().Bold(true)
	slotStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#2c3e50"))
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#7f8c8d"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#e74c3c"))
)

// Model is the bubbletea model of the terminal UI. It mirrors what the tracker
// reports through Listener and sends key presses back as commands.
type Model struct {
	commands Commands
	state    models.SessionState
	elapsed  string
	names    [models.SlotCount]string
	pending  [models.SlotCount]bool
	err      error
	width    int
}

// NewModel returns a model showing an inactive, zeroed timer
func NewModel(commands Commands) Model {
	m := Model{
		commands: commands,
		state:    models.Inactive,
		elapsed:  "00:00:00",
	}
	for i := range m.names {
		m.names[i] = "None"
	}
	return m
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "1", "2", "3":
			slot := models.SlotKey(msg.Runes[0] - '0')
			m.pending[slot-1] = true
			m.err = nil
			return m, m.run(func() error { return m.commands.RequestBind(slot) })
		case "x":
			var cmds []tea.Cmd
			for i, waiting := range m.pending {
				if !waiting {
					continue
				}
				slot := models.SlotKey(i + 1)
				m.pending[i] = false
				cmds = append(cmds, m.run(func() error { return m.commands.CancelBind(slot) }))
			}
			return m, tea.Batch(cmds...)
		case "r":
			return m, m.run(m.commands.ResetTimer)
		case "p":
			return m, m.run(m.commands.ResumePreviousTime)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width

	case stateMsg:
		m.state = models.SessionState(msg)

	case tickMsg:
		m.elapsed = string(msg)

	case bindingMsg:
		if msg.slot.Valid() {
			m.names[msg.slot-1] = msg.name
			m.pending[msg.slot-1] = false
		}

	case errMsg:
		m.err = msg.err
	}
	return m, nil
}

// run executes a command off the update loop and reports failures.
func (m Model) run(fn func() error) tea.Cmd {
	return func() tea.Msg {
		if err := fn(); err != nil {
			return errMsg{err}
		}
		return nil
	}
}

func (m Model) View() string {
	bg, banner := inactiveColor, "BACK TO WORK"
	if m.state == models.Active {
		bg, banner = activeColor, "KEEP WORKING"
	}

	var b strings.Builder
	b.WriteString(clockStyle.Background(bg).Render(m.elapsed))
	b.WriteString("  ")
	b.WriteString(labelStyle.Render(banner))
	b.WriteString("\n\n")

	for i, name := range m.names {
		if m.pending[i] {
			name = "waiting for next window..."
		}
		b.WriteString(slotStyle.Render(fmt.Sprintf("%s: %s", models.SlotKeys[i], name)))
		b.WriteString("\n")
	}

	if m.err != nil {
		b.WriteString("\n")
		b.WriteString(errStyle.Render("error: " + m.err.Error()))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("1/2/3 bind  x cancel  r reset  p resume previous time  q quit"))
	b.WriteString("\n")
	return b.String()
}
