package process

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Detector reads process metadata from a procfs mount.
type Detector struct {
	root string
}

// NewDetector returns a Detector reading /proc
func NewDetector() *Detector {
	return &Detector{root: "/proc"}
}

// NewDetectorAt returns a Detector reading an alternative procfs root.
func NewDetectorAt(root string) *Detector {
	return &Detector{root: root}
}

// IsAvailable reports whether the procfs root exists
func (d *Detector) IsAvailable() bool {
	_, err := os.Stat(d.root)
	return err == nil
}

// Alive reports whether a process with this pid currently exists
func (d *Detector) Alive(pid int) bool {
	if pid <= 0 {
		return false
	}
	_, err := os.Stat(filepath.Join(d.root, strconv.Itoa(pid)))
	return err == nil
}

// Name returns the command name of pid as recorded in its stat file.
func (d *Detector) Name(pid int) (string, error) {
	if pid <= 0 {
		return "", fmt.Errorf("invalid pid %d", pid)
	}

	statPath := filepath.Join(d.root, strconv.Itoa(pid), "stat")
	data, err := os.ReadFile(statPath)
	if err != nil {
		return "", fmt.Errorf("failed to read process %d: %w", pid, err)
	}

	name := parseStatName(string(data))
	if name == "" {
		return "", fmt.Errorf("malformed stat for process %d", pid)
	}
	return name, nil
}

// parseStatName extracts the comm field, which sits between the first "(" and
// the last ")" and may itself contain spaces or parentheses.
func parseStatName(stat string) string {
	startIdx := strings.Index(stat, "(")
	endIdx := strings.LastIndex(stat, ")")
	if startIdx == -1 || endIdx == -1 || endIdx <= startIdx {
		return ""
	}
	return stat[startIdx+1 : endIdx]
}
