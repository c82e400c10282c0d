package detector

import (
	"os"

	"worktimer/pkg/integrations/x11"
	"worktimer/pkg/window"
)

// New returns the Querier for the current session. Wayland sessions are served
// through XWayland when $DISPLAY is set; native Wayland exposes neither global
// pointer nor keymap state, so it is unsupported.
func New() (window.Querier, error) {
	if os.Getenv("DISPLAY") == "" {
		return nil, window.ErrUnsupported
	}
	d, err := x11.NewDetector()
	if err != nil {
		return nil, err
	}
	return d, nil
}

func DetectDisplayServer() string {
	sessionType := os.Getenv("XDG_SESSION_TYPE")
	waylandDisplay := os.Getenv("WAYLAND_DISPLAY")
	x11Display := os.Getenv("DISPLAY")

	if sessionType == "wayland" || waylandDisplay != "" {
		return "wayland"
	}

	if sessionType == "x11" || x11Display != "" {
		return "x11"
	}

	return "unknown"
}
