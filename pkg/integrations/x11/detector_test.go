package x11

import (
	"os"
	"testing"

	"github.com/jezek/xgb/xproto"

	"worktimer/pkg/window"
)

func TestKeymapHas(t *testing.T) {
	keys := make([]byte, 32)

	if keymapHas(keys, window.FullKeyRange) {
		t.Fatal("keymapHas() = true for empty keymap")
	}

	// keycode 38 is byte 4, bit 6
	keys[4] = 1 << 6
	if !keymapHas(keys, window.FullKeyRange) {
		t.Error("keymapHas() = false with keycode 38 down")
	}
	if keymapHas(keys, window.KeyRange{First: 40, Last: 0xFF}) {
		t.Error("keymapHas() = true for range excluding keycode 38")
	}

	keys[4] = 0
	keys[31] = 1 << 7
	if !keymapHas(keys, window.FullKeyRange) {
		t.Error("keymapHas() = false with keycode 255 down")
	}

	keys[31] = 0
	keys[0] = 0x7F // keycodes 0-6 are below the range
	if keymapHas(keys, window.FullKeyRange) {
		t.Error("keymapHas() = true for keycodes below 8")
	}
}

func TestDecodeWindows(t *testing.T) {
	data := []byte{
		0x01, 0x00, 0x00, 0x00,
		0x02, 0x01, 0x00, 0x00,
		0xFF, // trailing partial word is ignored
	}

	got := decodeWindows(data)
	want := []xproto.Window{1, 0x0102}
	if len(got) != len(want) {
		t.Fatalf("decodeWindows() returned %d windows, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("decodeWindows()[%d] = 0x%x, want 0x%x", i, got[i], want[i])
		}
	}
}

func TestRootCoords(t *testing.T) {
	tests := []struct {
		p       window.Point
		x, y    int16
		wantErr bool
	}{
		{window.Point{X: 10, Y: 20}, 10, 20, false},
		{window.Point{X: -5, Y: 32767}, -5, 32767, false},
		{window.Point{X: 32768, Y: 0}, 0, 0, true},
		{window.Point{X: 0, Y: 40000}, 0, 0, true},
		{window.Point{X: -32769, Y: 0}, 0, 0, true},
	}

	for _, tt := range tests {
		x, y, err := rootCoords(tt.p)
		if (err != nil) != tt.wantErr {
			t.Errorf("rootCoords(%v) error = %v, wantErr %v", tt.p, err, tt.wantErr)
			continue
		}
		if x != tt.x || y != tt.y {
			t.Errorf("rootCoords(%v) = (%d,%d), want (%d,%d)", tt.p, x, y, tt.x, tt.y)
		}
	}
}

func TestNewDetector(t *testing.T) {
	if os.Getenv("DISPLAY") == "" {
		t.Skip("no X11 display available")
	}

	d, err := NewDetector()
	if err != nil {
		t.Logf("NewDetector() error (may be expected): %v", err)
		return
	}
	defer d.Close()

	if d.DisplayServer() != "x11" {
		t.Errorf("DisplayServer() = %s, want x11", d.DisplayServer())
	}

	if fg, err := d.ForegroundWindow(); err == nil {
		t.Logf("Foreground: %q (0x%x)", fg.Title, uint32(fg.Handle))
	}

	p, err := d.CursorPosition()
	if err != nil {
		t.Errorf("CursorPosition() error: %v", err)
	}
	t.Logf("Cursor: %+v", p)
}

func TestDetectorInterface(t *testing.T) {
	var _ window.Querier = (*Detector)(nil)
}
