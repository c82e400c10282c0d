// Package capture binds a slot to whichever process owns the next window the
// user focuses.
//
// A capture waits a short debounce (so the focus change caused by closing the
// menu that started it is skipped), records the foreground title as a
// baseline, then samples the foreground window until a non-empty title that
// differs from the baseline appears. The owner of that window is the result.
//
// Captures run in their own goroutines and never touch the slot table. They
// only send a Result, and the owner of the table calls Accept to check the
// result still belongs to the latest capture for its slot.
package capture

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"worktimer/internal/models"
	"worktimer/pkg/window"
)

var (
	// ErrUnknownSlot is returned for slot keys outside the fixed set.
	ErrUnknownSlot = errors.New("unknown slot")

	// ErrClosed is returned by Start after Close.
	ErrClosed = errors.New("capturer closed")
)

const (
	DefaultDebounce       = 300 * time.Millisecond
	DefaultSampleInterval = 100 * time.Millisecond
)

// Result is a completed capture.
type Result struct {
	Slot        models.SlotKey
	PID         int
	DisplayName string
	Generation  uint64
}

// Config holds capture timing
type Config struct {
	Debounce       time.Duration
	SampleInterval time.Duration
}

type attempt struct {
	gen    uint64
	cancel context.CancelFunc
}

// Capturer runs at most one capture per slot. Starting a capture on a slot
// cancels the previous one for that slot.
type Capturer struct {
	querier  window.Querier
	debounce time.Duration
	interval time.Duration
	results  chan Result
	logger   zerolog.Logger

	mu       sync.Mutex
	nextGen  uint64
	inflight map[models.SlotKey]*attempt
	closed   bool
	wg       sync.WaitGroup
}

// New creates a Capturer. Zero durations fall back to the defaults.
func New(q window.Querier, cfg Config, logger zerolog.Logger) *Capturer {
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if cfg.SampleInterval <= 0 {
		cfg.SampleInterval = DefaultSampleInterval
	}

	return &Capturer{
		querier:  q,
		debounce: cfg.Debounce,
		interval: cfg.SampleInterval,
		results:  make(chan Result, models.SlotCount),
		inflight: make(map[models.SlotKey]*attempt),
		logger:   logger.With().Str("component", "capture").Logger(),
	}
}

// Results delivers completed captures
func (c *Capturer) Results() <-chan Result {
	return c.results
}

// Start begins a capture for slot and returns its generation.
func (c *Capturer) Start(parent context.Context, slot models.SlotKey) (uint64, error) {
	if !slot.Valid() {
		return 0, ErrUnknownSlot
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return 0, ErrClosed
	}

	if prev, ok := c.inflight[slot]; ok {
		prev.cancel()
		c.logger.Info().Stringer("slot", slot).Uint64("generation", prev.gen).Msg("Superseded pending capture")
	}

	c.nextGen++
	gen := c.nextGen
	ctx, cancel := context.WithCancel(parent)
	c.inflight[slot] = &attempt{gen: gen, cancel: cancel}

	c.wg.Add(1)
	go c.run(ctx, slot, gen)

	c.logger.Info().Stringer("slot", slot).Uint64("generation", gen).Msg("Listening for next focused window")
	return gen, nil
}

// Cancel abandons the pending capture for slot, if any
func (c *Capturer) Cancel(slot models.SlotKey) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	a, ok := c.inflight[slot]
	if !ok {
		return false
	}
	a.cancel()
	delete(c.inflight, slot)
	c.logger.Info().Stringer("slot", slot).Msg("Capture cancelled")
	return true
}

// Listening reports whether slot has a pending capture
func (c *Capturer) Listening(slot models.SlotKey) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.inflight[slot]
	return ok
}

// Accept reports whether r comes from the current capture of its slot and,
// if so, retires that capture. Stale results return false.
func (c *Capturer) Accept(r Result) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	a, ok := c.inflight[r.Slot]
	if !ok || a.gen != r.Generation {
		return false
	}
	a.cancel()
	delete(c.inflight, r.Slot)
	return true
}

// Close cancels every pending capture and waits for them to exit.
func (c *Capturer) Close() {
	c.mu.Lock()
	c.closed = true
	for slot, a := range c.inflight {
		a.cancel()
		delete(c.inflight, slot)
	}
	c.mu.Unlock()

	c.wg.Wait()
}

func (c *Capturer) run(ctx context.Context, slot models.SlotKey, gen uint64) {
	defer c.wg.Done()

	debounce := time.NewTimer(c.debounce)
	defer debounce.Stop()
	select {
	case <-ctx.Done():
		return
	case <-debounce.C:
	}

	baseline := ""
	if fg, err := c.querier.ForegroundWindow(); err == nil {
		baseline = fg.Title
	}

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		if ctx.Err() != nil {
			return
		}

		fg, err := c.querier.ForegroundWindow()
		if err != nil || fg.Title == "" || fg.Title == baseline {
			continue
		}

		pid, err := c.querier.OwnerPID(fg.Handle)
		if err != nil || pid <= 0 {
			c.logger.Debug().Err(err).Str("title", fg.Title).Msg("Focused window has no owner, still listening")
			continue
		}

		if ctx.Err() != nil {
			return
		}

		result := Result{Slot: slot, PID: pid, DisplayName: fg.Title, Generation: gen}
		select {
		case c.results <- result:
		case <-ctx.Done():
		}
		return
	}
}
