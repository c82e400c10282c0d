package tracker

import "worktimer/internal/models"

// Listener receives the loop's outputs. Calls are made from the loop
// goroutine and must not block.
type Listener interface {
	OnStateChange(state models.SessionState)
	OnTick(elapsed string)
	OnBindingUpdated(slot models.SlotKey, displayName string)
}

// NopListener ignores every notification
type NopListener struct{}

func (NopListener) OnStateChange(models.SessionState)       {}
func (NopListener) OnTick(string)                           {}
func (NopListener) OnBindingUpdated(models.SlotKey, string) {}

// Recorder stores finished session spans and internal errors.
type Recorder interface {
	RecordSpan(span *models.SessionSpan) error
	CreateErrorLog(errorLog *models.ErrorLog) error
}

type nopRecorder struct{}

func (nopRecorder) RecordSpan(*models.SessionSpan) error  { return nil }
func (nopRecorder) CreateErrorLog(*models.ErrorLog) error { return nil }

// ProcessNamer resolves a pid to a process name.
type ProcessNamer interface {
	Name(pid int) (string, error)
}
