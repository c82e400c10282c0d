package window

import (
	"errors"
	"fmt"
	"runtime"
)

// Handle identifies a native window. Zero is never a valid window.
type Handle uint32

// Point is a screen position in root-window coordinates.
type Point struct {
	X, Y int
}

// Foreground describes the window currently holding input focus
type Foreground struct {
	Title  string
	Handle Handle
}

// KeyRange is an inclusive range of key codes checked by AnyKeyPressed.
type KeyRange struct {
	First, Last uint8
}

// FullKeyRange covers every key code from 0x08 through 0xFF.
var FullKeyRange = KeyRange{First: 0x08, Last: 0xFF}

// Contains reports whether code falls inside the range.
func (r KeyRange) Contains(code uint8) bool {
	return code >= r.First && code <= r.Last
}

var (
	// ErrNoWindow is returned when no foreground window can be determined.
	ErrNoWindow = errors.New("no foreground window")

	// ErrUnsupported is returned when no Querier exists for the current session.
	ErrUnsupported = fmt.Errorf("window queries are not supported on %s without an X11 display", runtime.GOOS)
)

// Querier is the set of OS primitives the tracker depends on. Every method may
// fail when a window or process disappears between calls; callers treat a
// failure as absence of evidence.
type Querier interface {
	// ForegroundWindow returns the focused window and its title
	ForegroundWindow() (*Foreground, error)

	// OwnerPID returns the id of the process owning the window
	OwnerPID(h Handle) (int, error)

	// VisibleWindowTitles lists titles of the mapped top-level windows of pid
	VisibleWindowTitles(pid int) ([]string, error)

	// CursorPosition returns the pointer position
	CursorPosition() (Point, error)

	// WindowAt returns the deepest window containing p
	WindowAt(p Point) (Handle, error)

	// IsDescendant reports whether h is a strict descendant of ancestor
	IsDescendant(ancestor, h Handle) bool

	// AnyKeyPressed reports whether any key in r is currently held down
	AnyKeyPressed(r KeyRange) (bool, error)

	// DisplayServer names the backend, e.g. "x11"
	DisplayServer() string

	// Close releases the connection to the display server
	Close() error
}
