package x11

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"

	"worktimer/pkg/window"
)

// maxTreeDepth bounds parent walks so a broken tree cannot loop forever.
const maxTreeDepth = 64

var atomNames = []string{
	"_NET_ACTIVE_WINDOW",
	"_NET_CLIENT_LIST",
	"_NET_WM_NAME",
	"_NET_WM_PID",
	"WM_NAME",
	"UTF8_STRING",
}

// Detector implements window.Querier over a single X11 connection.
// xgb connections are safe for concurrent use, so the poll loop and
// binding captures can share one Detector.
type Detector struct {
	conn  *xgb.Conn
	root  xproto.Window
	atoms map[string]xproto.Atom
}

// NewDetector connects to the display named by $DISPLAY and interns the atoms
// it needs.
func NewDetector() (*Detector, error) {
	conn, err := xgb.NewConn()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X server: %w", err)
	}

	setup := xproto.Setup(conn)
	d := &Detector{
		conn:  conn,
		root:  setup.DefaultScreen(conn).Root,
		atoms: make(map[string]xproto.Atom, len(atomNames)),
	}

	for _, name := range atomNames {
		reply, err := xproto.InternAtom(conn, false, uint16(len(name)), name).Reply()
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to intern atom %s: %w", name, err)
		}
		d.atoms[name] = reply.Atom
	}

	return d, nil
}

// DisplayServer returns "x11"
func (d *Detector) DisplayServer() string {
	return "x11"
}

// Close closes the X connection
func (d *Detector) Close() error {
	d.conn.Close()
	return nil
}

func (d *Detector) getProperty(w xproto.Window, atom, atomType xproto.Atom, length uint32) ([]byte, error) {
	reply, err := xproto.GetProperty(d.conn, false, w, atom, atomType, 0, length).Reply()
	if err != nil {
		return nil, err
	}
	return reply.Value, nil
}

func (d *Detector) activeFromProperty() xproto.Window {
	data, err := d.getProperty(d.root, d.atoms["_NET_ACTIVE_WINDOW"], xproto.AtomWindow, 1)
	if err != nil || len(data) < 4 {
		return 0
	}
	return xproto.Window(binary.LittleEndian.Uint32(data))
}

func (d *Detector) activeFromInputFocus() xproto.Window {
	reply, err := xproto.GetInputFocus(d.conn).Reply()
	if err != nil || reply.Focus == d.root {
		return 0
	}
	// PointerRoot and None are both below 2.
	if reply.Focus < 2 {
		return 0
	}
	return d.topLevel(reply.Focus)
}

func (d *Detector) topLevel(w xproto.Window) xproto.Window {
	for i := 0; i < maxTreeDepth; i++ {
		reply, err := xproto.QueryTree(d.conn, w).Reply()
		if err != nil || reply.Parent == d.root || reply.Parent == 0 {
			return w
		}
		w = reply.Parent
	}
	return w
}

func (d *Detector) windowName(w xproto.Window) string {
	data, err := d.getProperty(w, d.atoms["_NET_WM_NAME"], d.atoms["UTF8_STRING"], 256)
	if err == nil && len(data) > 0 {
		return strings.TrimRight(string(data), "\x00")
	}

	data, err = d.getProperty(w, d.atoms["WM_NAME"], xproto.GetPropertyTypeAny, 256)
	if err == nil && len(data) > 0 {
		return strings.TrimRight(string(data), "\x00")
	}

	return ""
}

// ForegroundWindow prefers the EWMH active window and falls back to the
// top-level ancestor of the input focus.
func (d *Detector) ForegroundWindow() (*window.Foreground, error) {
	w := d.activeFromProperty()
	if w == 0 {
		w = d.activeFromInputFocus()
	}
	if w == 0 {
		return nil, window.ErrNoWindow
	}

	return &window.Foreground{
		Title:  d.windowName(w),
		Handle: window.Handle(w),
	}, nil
}

// OwnerPID reads _NET_WM_PID from the window
func (d *Detector) OwnerPID(h window.Handle) (int, error) {
	data, err := d.getProperty(xproto.Window(h), d.atoms["_NET_WM_PID"], xproto.AtomCardinal, 1)
	if err != nil {
		return 0, fmt.Errorf("failed to read _NET_WM_PID of 0x%x: %w", uint32(h), err)
	}
	if len(data) < 4 {
		return 0, fmt.Errorf("window 0x%x has no _NET_WM_PID", uint32(h))
	}
	return int(binary.LittleEndian.Uint32(data)), nil
}

// VisibleWindowTitles walks _NET_CLIENT_LIST and returns the titles of viewable
// windows owned by pid, in stacking-list order.
func (d *Detector) VisibleWindowTitles(pid int) ([]string, error) {
	data, err := d.getProperty(d.root, d.atoms["_NET_CLIENT_LIST"], xproto.AtomWindow, 4096)
	if err != nil {
		return nil, fmt.Errorf("failed to read _NET_CLIENT_LIST: %w", err)
	}

	var titles []string
	for _, w := range decodeWindows(data) {
		owner, err := d.OwnerPID(window.Handle(w))
		if err != nil || owner != pid {
			continue
		}

		attrs, err := xproto.GetWindowAttributes(d.conn, w).Reply()
		if err != nil || attrs.MapState != xproto.MapStateViewable {
			continue
		}

		titles = append(titles, d.windowName(w))
	}

	return titles, nil
}

// CursorPosition queries the pointer relative to the root window
func (d *Detector) CursorPosition() (window.Point, error) {
	reply, err := xproto.QueryPointer(d.conn, d.root).Reply()
	if err != nil {
		return window.Point{}, fmt.Errorf("failed to query pointer: %w", err)
	}
	return window.Point{X: int(reply.RootX), Y: int(reply.RootY)}, nil
}

// WindowAt descends from the root through the child containing p until no
// further child does.
func (d *Detector) WindowAt(p window.Point) (window.Handle, error) {
	x, y, err := rootCoords(p)
	if err != nil {
		return 0, err
	}

	w := d.root
	for i := 0; i < maxTreeDepth; i++ {
		reply, err := xproto.TranslateCoordinates(d.conn, d.root, w, x, y).Reply()
		if err != nil {
			return 0, fmt.Errorf("failed to translate coordinates: %w", err)
		}
		if reply.Child == 0 {
			break
		}
		w = reply.Child
	}
	return window.Handle(w), nil
}

// rootCoords converts p to the protocol's 16-bit coordinates. Points outside
// that range cannot be on any screen.
func rootCoords(p window.Point) (int16, int16, error) {
	if p.X < math.MinInt16 || p.X > math.MaxInt16 || p.Y < math.MinInt16 || p.Y > math.MaxInt16 {
		return 0, 0, fmt.Errorf("point (%d,%d) outside X11 coordinate range", p.X, p.Y)
	}
	return int16(p.X), int16(p.Y), nil
}

// IsDescendant walks the parents of h looking for ancestor
func (d *Detector) IsDescendant(ancestor, h window.Handle) bool {
	if ancestor == 0 || h == 0 || ancestor == h {
		return false
	}

	w := xproto.Window(h)
	for i := 0; i < maxTreeDepth; i++ {
		reply, err := xproto.QueryTree(d.conn, w).Reply()
		if err != nil || reply.Parent == 0 {
			return false
		}
		if reply.Parent == xproto.Window(ancestor) {
			return true
		}
		if reply.Parent == reply.Root {
			return false
		}
		w = reply.Parent
	}
	return false
}

// AnyKeyPressed checks the server keymap bit vector for keycodes in r.
func (d *Detector) AnyKeyPressed(r window.KeyRange) (bool, error) {
	reply, err := xproto.QueryKeymap(d.conn).Reply()
	if err != nil {
		return false, fmt.Errorf("failed to query keymap: %w", err)
	}
	return keymapHas(reply.Keys, r), nil
}

func keymapHas(keys []byte, r window.KeyRange) bool {
	for code := int(r.First); code <= int(r.Last); code++ {
		idx := code / 8
		if idx >= len(keys) {
			break
		}
		if keys[idx]&(1<<uint(code%8)) != 0 {
			return true
		}
	}
	return false
}

func decodeWindows(data []byte) []xproto.Window {
	windows := make([]xproto.Window, 0, len(data)/4)
	for i := 0; i+4 <= len(data); i += 4 {
		windows = append(windows, xproto.Window(binary.LittleEndian.Uint32(data[i:])))
	}
	return windows
}
