// Package windowtest provides a scripted window.Querier for tests.
package windowtest

import (
	"sync"

	"worktimer/pkg/window"
)

// Fake is a window.Querier whose answers are set by the test. It is safe for
// concurrent use, so capture goroutines and the poll loop can share one.
type Fake struct {
	mu sync.Mutex

	foreground    *window.Foreground
	foregroundErr error
	pids          map[window.Handle]int
	titles        map[int][]string
	cursor        window.Point
	cursorErr     error
	under         map[window.Point]window.Handle
	parents       map[window.Handle]window.Handle
	pressed       map[uint8]bool
	keysErr       error
	foregroundN   int
}

// NewFake returns a Fake with no foreground window.
func NewFake() *Fake {
	return &Fake{
		foregroundErr: window.ErrNoWindow,
		pids:          make(map[window.Handle]int),
		titles:        make(map[int][]string),
		under:         make(map[window.Point]window.Handle),
		parents:       make(map[window.Handle]window.Handle),
		pressed:       make(map[uint8]bool),
	}
}

// SetForeground focuses window h with the given title, owned by pid.
func (f *Fake) SetForeground(title string, h window.Handle, pid int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.foreground = &window.Foreground{Title: title, Handle: h}
	f.foregroundErr = nil
	if pid != 0 {
		f.pids[h] = pid
	}
}

// ClearForeground makes ForegroundWindow fail with err.
func (f *Fake) ClearForeground(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.foreground = nil
	f.foregroundErr = err
}

// SetTitles sets the visible window titles of pid.
func (f *Fake) SetTitles(pid int, titles ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.titles[pid] = titles
}

// SetCursor moves the pointer.
func (f *Fake) SetCursor(p window.Point) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cursor = p
	f.cursorErr = nil
}

// FailCursor makes CursorPosition fail.
func (f *Fake) FailCursor(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cursorErr = err
}

// SetWindowAt places window h under point p.
func (f *Fake) SetWindowAt(p window.Point, h window.Handle) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.under[p] = h
}

// SetParent records parent as the direct parent of child.
func (f *Fake) SetParent(child, parent window.Handle) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.parents[child] = parent
}

// PressKey holds a key down until ReleaseKeys.
func (f *Fake) PressKey(code uint8) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pressed[code] = true
}

// ReleaseKeys releases every held key.
func (f *Fake) ReleaseKeys() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pressed = make(map[uint8]bool)
}

// FailKeys makes AnyKeyPressed fail.
func (f *Fake) FailKeys(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keysErr = err
}

// ForegroundCalls returns how many times ForegroundWindow was called.
func (f *Fake) ForegroundCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.foregroundN
}

func (f *Fake) ForegroundWindow() (*window.Foreground, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.foregroundN++
	if f.foregroundErr != nil {
		return nil, f.foregroundErr
	}
	fg := *f.foreground
	return &fg, nil
}

func (f *Fake) OwnerPID(h window.Handle) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	pid, ok := f.pids[h]
	if !ok {
		return 0, window.ErrNoWindow
	}
	return pid, nil
}

func (f *Fake) VisibleWindowTitles(pid int) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.titles[pid]...), nil
}

func (f *Fake) CursorPosition() (window.Point, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cursorErr != nil {
		return window.Point{}, f.cursorErr
	}
	return f.cursor, nil
}

func (f *Fake) WindowAt(p window.Point) (window.Handle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	h, ok := f.under[p]
	if !ok {
		return 0, window.ErrNoWindow
	}
	return h, nil
}

func (f *Fake) IsDescendant(ancestor, h window.Handle) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for {
		parent, ok := f.parents[h]
		if !ok {
			return false
		}
		if parent == ancestor {
			return true
		}
		h = parent
	}
}

func (f *Fake) AnyKeyPressed(r window.KeyRange) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.keysErr != nil {
		return false, f.keysErr
	}
	for code, down := range f.pressed {
		if down && r.Contains(code) {
			return true, nil
		}
	}
	return false, nil
}

func (f *Fake) DisplayServer() string {
	return "fake"
}

func (f *Fake) Close() error {
	return nil
}

var _ window.Querier = (*Fake)(nil)
