package tracker

import "worktimer/pkg/utils"

// Accumulator counts whole seconds of activity. It starts at zero and keeps
// the value loaded at startup so it can be restored on request.
type Accumulator struct {
	elapsed  int64
	previous int64
}

// NewAccumulator returns a zeroed accumulator remembering previous
func NewAccumulator(previous int64) *Accumulator {
	if previous < 0 {
		previous = 0
	}
	return &Accumulator{previous: previous}
}

// Tick adds one second when active and reports whether it did.
func (a *Accumulator) Tick(active bool) bool {
	if !active {
		return false
	}
	a.elapsed++
	return true
}

// Reset sets the elapsed time to zero
func (a *Accumulator) Reset() {
	a.elapsed = 0
}

// Resume replaces the elapsed time with the value loaded at startup. It does
// not add to the current value.
func (a *Accumulator) Resume() {
	a.elapsed = a.previous
}

// Elapsed returns the counted seconds
func (a *Accumulator) Elapsed() int64 {
	return a.elapsed
}

// Previous returns the seconds loaded at startup, the value Resume restores
func (a *Accumulator) Previous() int64 {
	return a.previous
}

// String formats the elapsed time as HH:MM:SS
func (a *Accumulator) String() string {
	return utils.FormatClock(a.elapsed)
}
