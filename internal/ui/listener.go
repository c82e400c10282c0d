package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"worktimer/internal/models"
)

// Sender delivers messages to a running program; *tea.Program satisfies it.
type Sender interface {
	Send(msg tea.Msg)
}

// Listener forwards tracker notifications into the program
type Listener struct {
	sender Sender
}

func NewListener(sender Sender) *Listener {
	return &Listener{sender: sender}
}

func (l *Listener) OnStateChange(state models.SessionState) {
	l.sender.Send(stateMsg(state))
}

func (l *Listener) OnTick(elapsed string) {
	l.sender.Send(tickMsg(elapsed))
}

func (l *Listener) OnBindingUpdated(slot models.SlotKey, displayName string) {
	l.sender.Send(bindingMsg{slot: slot, name: displayName})
}
