package utils

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatClock renders a number of seconds as HH:MM:SS. Hours are not wrapped,
// so 100 hours renders as "100:00:00".
func FormatClock(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// ParseClock is the inverse of FormatClock. It accepts exactly three
// colon-separated non-negative integers.
func ParseClock(text string) (int64, error) {
	parts := strings.Split(strings.TrimSpace(text), ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("invalid clock %q: expected HH:MM:SS", text)
	}

	var vals [3]int64
	for i, p := range parts {
		v, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid clock %q: %w", text, err)
		}
		if v < 0 {
			return 0, fmt.Errorf("invalid clock %q: negative field", text)
		}
		vals[i] = v
	}

	return vals[0]*3600 + vals[1]*60 + vals[2], nil
}

func FormatRoundedUnit(seconds int64) string {
	if seconds < 0 {
		seconds = -seconds
	}
	if seconds < 60 {
		return fmt.Sprintf("%ds", seconds)
	}
	if seconds > 3600 {
		return fmt.Sprintf("%dh", int64(seconds/3600))
	}
	return fmt.Sprintf("%dm", int64(seconds/60))
}
