package models

import "fmt"

// SlotCount is the number of tracked slots.
const SlotCount = 3

// SlotKey identifies one of the tracked slots, 1 through SlotCount.
type SlotKey int

// SlotKeys lists every slot key in persistence order.
var SlotKeys = [SlotCount]SlotKey{1, 2, 3}

// Valid reports whether k names an existing slot
func (k SlotKey) Valid() bool {
	return k >= 1 && k <= SlotCount
}

// String returns the persisted name, e.g. "Program 1"
func (k SlotKey) String() string {
	return fmt.Sprintf("Program %d", int(k))
}

// ParseSlotKey accepts either a bare number ("2") or a persisted name
// ("Program 2").
func ParseSlotKey(s string) (SlotKey, error) {
	var n int
	if _, err := fmt.Sscanf(s, "Program %d", &n); err != nil {
		if _, err := fmt.Sscanf(s, "%d", &n); err != nil {
			return 0, fmt.Errorf("invalid slot %q", s)
		}
	}
	k := SlotKey(n)
	if !k.Valid() {
		return 0, fmt.Errorf("slot %d out of range 1-%d", n, SlotCount)
	}
	return k, nil
}

// Slot binds a slot key to a target process. PID 0 means unbound.
type Slot struct {
	Key         SlotKey `json:"key"`
	PID         int     `json:"pid"`
	DisplayName string  `json:"display_name"`
}

// Bound reports whether the slot has a process
func (s Slot) Bound() bool {
	return s.PID > 0
}

// SlotTable holds the fixed set of slots, indexed by key.
type SlotTable struct {
	slots [SlotCount]Slot
}

// NewSlotTable builds a table from persisted pids in slot order.
func NewSlotTable(pids [SlotCount]int) *SlotTable {
	t := &SlotTable{}
	for i, key := range SlotKeys {
		pid := pids[i]
		if pid < 0 {
			pid = 0
		}
		t.slots[i] = Slot{Key: key, PID: pid}
	}
	return t
}

// Get returns the slot for key
func (t *SlotTable) Get(key SlotKey) (Slot, bool) {
	if !key.Valid() {
		return Slot{}, false
	}
	return t.slots[key-1], true
}

// Bind points key at pid and records its display name
func (t *SlotTable) Bind(key SlotKey, pid int, name string) bool {
	if !key.Valid() {
		return false
	}
	t.slots[key-1] = Slot{Key: key, PID: pid, DisplayName: name}
	return true
}

// SetDisplayName updates the cached name without touching the binding
func (t *SlotTable) SetDisplayName(key SlotKey, name string) {
	if key.Valid() {
		t.slots[key-1].DisplayName = name
	}
}

// ByPID returns the first bound slot whose process is pid.
func (t *SlotTable) ByPID(pid int) (Slot, bool) {
	if pid <= 0 {
		return Slot{}, false
	}
	for _, s := range t.slots {
		if s.PID == pid {
			return s, true
		}
	}
	return Slot{}, false
}

// PIDs returns the bound pids in slot order, 0 for unbound slots
func (t *SlotTable) PIDs() [SlotCount]int {
	var pids [SlotCount]int
	for i, s := range t.slots {
		pids[i] = s.PID
	}
	return pids
}

// All returns a copy of every slot in key order
func (t *SlotTable) All() []Slot {
	out := make([]Slot, SlotCount)
	copy(out, t.slots[:])
	return out
}
