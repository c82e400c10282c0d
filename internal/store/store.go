// Package store reads and writes the state file holding slot bindings, the
// elapsed time at last shutdown and the inactivity timeout.
//
// The format is line oriented and fixed:
//
//	Program 1=<pid or empty>
//	Program 2=<pid or empty>
//	Program 3=<pid or empty>
//	Last time: HH:MM:SS
//	Timeout: <float>
//
// Parsing is tolerant: a field that cannot be parsed falls back to its default
// and never fails the load.
package store

import (
	"bufio"
	"bytes"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"worktimer/internal/models"
	"worktimer/pkg/utils"
)

// DefaultTimeout is the inactivity timeout, in seconds, of a fresh state file.
const DefaultTimeout = 10.0

// maxTimeout is the largest timeout, in seconds, a time.Duration can hold.
const maxTimeout = float64(math.MaxInt64) / 1e9

const (
	programPrefix  = "Program"
	lastTimePrefix = "Last time:"
	timeoutPrefix  = "Timeout:"
)

// State is the persisted snapshot.
type State struct {
	Bindings [models.SlotCount]int // pid per slot, 0 when unbound
	LastTime int64                 // seconds
	Timeout  float64               // seconds
}

// Default returns the state written when no file exists
func Default() *State {
	return &State{Timeout: DefaultTimeout}
}

// Store is a state file at a fixed path
type Store struct {
	path           string
	defaultTimeout float64
	logger         zerolog.Logger
}

// New returns a Store for path. A non-positive defaultTimeout selects
// DefaultTimeout.
func New(path string, defaultTimeout float64, logger zerolog.Logger) *Store {
	if defaultTimeout <= 0 {
		defaultTimeout = DefaultTimeout
	}
	return &Store{
		path:           path,
		defaultTimeout: defaultTimeout,
		logger:         logger.With().Str("component", "store").Logger(),
	}
}

// Path returns the state file location
func (s *Store) Path() string {
	return s.path
}

// Load reads the state file, creating it with defaults when it is missing.
// Only I/O failures are returned; malformed content degrades per field.
func (s *Store) Load() (*State, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		st := Default()
		st.Timeout = s.defaultTimeout
		if err := s.Save(st); err != nil {
			return st, errors.Wrap(err, "failed to create default state file")
		}
		s.logger.Info().Str("path", s.path).Msg("Created default state file")
		return st, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read state file %s", s.path)
	}

	return s.Parse(data), nil
}

// Parse decodes state file content
func (s *Store) Parse(data []byte) *State {
	st := Default()
	st.Timeout = s.defaultTimeout

	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")

		switch {
		case strings.HasPrefix(line, programPrefix):
			key, value, ok := strings.Cut(line, "=")
			if !ok {
				s.logger.Warn().Str("line", line).Msg("Ignoring program line without '='")
				continue
			}
			slot, err := models.ParseSlotKey(strings.TrimSpace(key))
			if err != nil {
				s.logger.Warn().Str("line", line).Msg("Ignoring unknown program slot")
				continue
			}
			st.Bindings[slot-1] = parsePID(value)

		case strings.HasPrefix(line, lastTimePrefix):
			secs, err := utils.ParseClock(strings.TrimPrefix(line, lastTimePrefix))
			if err != nil {
				s.logger.Warn().Err(err).Msg("Malformed last time, using 00:00:00")
				secs = 0
			}
			st.LastTime = secs

		case strings.HasPrefix(line, timeoutPrefix):
			v, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimPrefix(line, timeoutPrefix)), 64)
			if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 || v > maxTimeout {
				s.logger.Warn().Str("line", line).Float64("default", s.defaultTimeout).Msg("Malformed timeout, using default")
				v = s.defaultTimeout
			}
			st.Timeout = v
		}
	}

	return st
}

// parsePID accepts only a plain decimal number; anything else is unbound.
func parsePID(value string) int {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	for _, r := range value {
		if r < '0' || r > '9' {
			return 0
		}
	}
	pid, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return pid
}

// Format encodes st in the state file format
func Format(st *State) []byte {
	var buf bytes.Buffer
	for i, key := range models.SlotKeys {
		buf.WriteString(key.String())
		buf.WriteByte('=')
		if pid := st.Bindings[i]; pid > 0 {
			buf.WriteString(strconv.Itoa(pid))
		}
		buf.WriteByte('\n')
	}
	buf.WriteString(lastTimePrefix + " " + utils.FormatClock(st.LastTime) + "\n")
	buf.WriteString(timeoutPrefix + " " + formatTimeout(st.Timeout) + "\n")
	return buf.Bytes()
}

// formatTimeout always keeps a fractional part: 10 -> "10.0", 2.5 -> "2.5".
func formatTimeout(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s
}

// Save writes st through a temporary file and a rename, so a failed write
// leaves the previous file intact.
func (s *Store) Save(st *State) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrapf(err, "failed to create state directory %s", dir)
	}

	tmp, err := os.CreateTemp(dir, ".state-*")
	if err != nil {
		return errors.Wrap(err, "failed to create temporary state file")
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(Format(st)); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.Wrap(err, "failed to write state file")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(err, "failed to close state file")
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(err, "failed to set state file permissions")
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return errors.Wrapf(err, "failed to replace state file %s", s.path)
	}

	return nil
}
