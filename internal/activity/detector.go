// Package activity decides whether user input counts as happening now for a
// tracked window.
//
// Evidence comes from two sources. Keyboard evidence is global: any held key
// counts no matter which window is under the pointer. Mouse evidence is scoped:
// the pointer must have moved and must now be over the tracked window or one of
// its descendants. Confirmed evidence keeps counting for a grace window of
// timeout after it was last seen.
package activity

import (
	"math"
	"time"

	"github.com/rs/zerolog"

	"worktimer/internal/clock"
	"worktimer/internal/metrics"
	"worktimer/pkg/window"
)

// Evidence is the detector's memory between samples.
type Evidence struct {
	LastInput time.Time
	Cursor    window.Point
}

// Detector is not safe for concurrent use; it belongs to the poll loop.
type Detector struct {
	querier  window.Querier
	clock    clock.Clock
	keys     window.KeyRange
	evidence Evidence
	logger   zerolog.Logger
}

// NewDetector seeds the evidence with the current time and pointer position,
// so the grace window is open for the first timeout after start.
func NewDetector(q window.Querier, clk clock.Clock, logger zerolog.Logger) *Detector {
	d := &Detector{
		querier: q,
		clock:   clk,
		keys:    window.FullKeyRange,
		logger:  logger.With().Str("component", "activity").Logger(),
	}
	d.evidence.LastInput = clk.Now()
	if p, err := q.CursorPosition(); err == nil {
		d.evidence.Cursor = p
	}
	return d
}

// Evidence returns a copy of the current evidence
func (d *Detector) Evidence() Evidence {
	return d.evidence
}

// IsActive reports whether activity counts for the window bound. The first
// matching rule wins: a held key, then pointer movement over bound or its
// descendants, then the grace window.
func (d *Detector) IsActive(bound window.Handle, timeout time.Duration) bool {
	now := d.clock.Now()

	pressed, err := d.querier.AnyKeyPressed(d.keys)
	if err != nil {
		metrics.OSQueryFailures.WithLabelValues("keys").Inc()
		d.logger.Debug().Err(err).Msg("Key state unavailable")
	} else if pressed {
		d.evidence.LastInput = now
		return true
	}

	if d.pointerEvidence(bound) {
		d.evidence.LastInput = now
		return true
	}

	return now.Sub(d.evidence.LastInput) < timeout
}

// pointerEvidence updates the cached cursor only when the movement is
// confirmed over the bound window.
func (d *Detector) pointerEvidence(bound window.Handle) bool {
	p, err := d.querier.CursorPosition()
	if err != nil {
		metrics.OSQueryFailures.WithLabelValues("cursor").Inc()
		d.logger.Debug().Err(err).Msg("Cursor position unavailable")
		return false
	}
	if p == d.evidence.Cursor {
		return false
	}

	under, err := d.querier.WindowAt(p)
	if err != nil {
		metrics.OSQueryFailures.WithLabelValues("window_at").Inc()
		d.logger.Debug().Err(err).Msg("Window under cursor unavailable")
		return false
	}
	if under != bound && !d.querier.IsDescendant(bound, under) {
		return false
	}

	d.evidence.Cursor = p
	return true
}

// maxTimeoutSeconds is the largest timeout a time.Duration can hold.
var maxTimeoutSeconds = float64(math.MaxInt64) / float64(time.Second)

// TimeoutDuration converts a timeout in fractional seconds. Values too large
// for a time.Duration saturate; NaN and non-positive values are zero.
func TimeoutDuration(seconds float64) time.Duration {
	if math.IsNaN(seconds) || seconds <= 0 {
		return 0
	}
	if seconds >= maxTimeoutSeconds {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(seconds * float64(time.Second))
}
