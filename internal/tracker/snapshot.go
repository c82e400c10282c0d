package tracker

import (
	"time"

	"worktimer/internal/models"
)

// SlotStatus is the published view of one slot.
type SlotStatus struct {
	Key         models.SlotKey `json:"key"`
	Name        string         `json:"name"`
	PID         int            `json:"pid"`
	DisplayName string         `json:"display_name"`
	Listening   bool           `json:"listening"`
}

// Snapshot is an immutable copy of the loop state for readers on other
// goroutines.
type Snapshot struct {
	State           models.SessionState `json:"state"`
	Elapsed         string              `json:"elapsed"`
	Seconds         int64               `json:"seconds"`
	PreviousSeconds int64               `json:"previous_seconds"`
	Timeout         float64             `json:"timeout"`
	Slots           []SlotStatus        `json:"slots"`
	Running         bool                `json:"running"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

// Slot returns the status of key
func (s *Snapshot) Slot(key models.SlotKey) (SlotStatus, bool) {
	for _, st := range s.Slots {
		if st.Key == key {
			return st, true
		}
	}
	return SlotStatus{}, false
}
