// Package tracker runs the session state machine.
//
// A single goroutine owns the session state, the activity evidence, the slot
// table, the elapsed-time accumulator and the open history span. It polls the
// foreground window on one ticker, advances the timer on another, applies
// completed binding captures and serves commands. Other goroutines only see
// the immutable Snapshot it publishes.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"worktimer/internal/activity"
	"worktimer/internal/capture"
	"worktimer/internal/clock"
	"worktimer/internal/config"
	"worktimer/internal/metrics"
	"worktimer/internal/models"
	"worktimer/internal/store"
	"worktimer/pkg/window"
)

// ErrStopped is returned by commands sent when the loop is not running.
var ErrStopped = errors.New("tracker is not running")

const (
	unboundName = "None"
	unknownName = "Unknown"
)

type commandKind int

const (
	cmdBind commandKind = iota
	cmdCancel
	cmdReset
	cmdResume
	cmdShutdown
)

type command struct {
	kind  commandKind
	slot  models.SlotKey
	reply chan error
}

// openSpan is the history span of the current active period.
type openSpan struct {
	slot    models.Slot
	started time.Time
	seconds int64
}

// Option customises a Service
type Option func(*Service)

// WithClock replaces the wall clock
func WithClock(c clock.Clock) Option {
	return func(s *Service) { s.clock = c }
}

// WithListener sets the receiver of state, tick and binding notifications
func WithListener(l Listener) Option {
	return func(s *Service) { s.listener = l }
}

// WithRecorder sets where finished spans and errors are stored
func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

// WithProcessNamer sets the fallback used when a bound process has no
// visible window.
func WithProcessNamer(n ProcessNamer) Option {
	return func(s *Service) { s.namer = n }
}

// Service runs the poll and tick loop. Session state, activity evidence, the
// slot table and the accumulator belong to the goroutine running Start; other
// goroutines talk to it through commands and read published snapshots.
type Service struct {
	cfg      *config.Config
	store    *store.Store
	querier  window.Querier
	clock    clock.Clock
	listener Listener
	recorder Recorder
	namer    ProcessNamer
	logger   zerolog.Logger

	detector *activity.Detector
	capturer *capture.Capturer
	slots    *models.SlotTable
	acc      *Accumulator
	timeout  float64
	session  models.SessionState
	span     *openSpan

	loopCtx  context.Context
	commands chan command
	done     chan struct{}
	running  atomic.Bool
	snapshot atomic.Pointer[Snapshot]
}

// NewService loads the state file and prepares the loop. A state file that
// cannot be read never blocks startup; defaults are used instead.
func NewService(cfg *config.Config, st *store.Store, querier window.Querier, logger zerolog.Logger, opts ...Option) *Service {
	s := &Service{
		cfg:      cfg,
		store:    st,
		querier:  querier,
		clock:    clock.Real{},
		listener: NopListener{},
		recorder: nopRecorder{},
		logger:   logger.With().Str("component", "tracker").Logger(),
		loopCtx:  context.Background(),
		commands: make(chan command),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	state, err := st.Load()
	if err != nil {
		s.logger.Error().Err(err).Str("path", st.Path()).Msg("Failed to load state, using defaults")
	}
	if state == nil {
		state = store.Default()
		state.Timeout = cfg.Tracker.DefaultTimeout
	}

	s.slots = models.NewSlotTable(state.Bindings)
	s.acc = NewAccumulator(state.LastTime)
	s.timeout = state.Timeout
	s.session = models.Inactive
	s.detector = activity.NewDetector(querier, s.clock, logger)
	s.capturer = capture.New(querier, capture.Config{
		Debounce:       cfg.Capture.Debounce,
		SampleInterval: cfg.Capture.SampleInterval,
	}, logger)

	s.logger.Info().
		Ints("bindings", state.Bindings[:]).
		Int64("last_time", state.LastTime).
		Float64("timeout", state.Timeout).
		Msg("Loaded state")

	s.publish()
	return s
}

// Start runs the loop until ctx is cancelled or Shutdown is called. The state
// file is written once on the way out.
func (s *Service) Start(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return fmt.Errorf("tracker is already running")
	}
	defer close(s.done)

	s.loopCtx = ctx
	s.logger.Info().
		Dur("poll_interval", s.cfg.Tracker.PollInterval).
		Dur("tick_interval", s.cfg.Tracker.TickInterval).
		Msg("Starting tracker")

	s.resolveNames()
	s.notifyState()
	s.listener.OnTick(s.acc.String())

	poll := time.NewTicker(s.cfg.Tracker.PollInterval)
	defer poll.Stop()
	tick := time.NewTicker(s.cfg.Tracker.TickInterval)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("Tracker stopped by context")
			s.shutdown()
			return ctx.Err()

		case <-poll.C:
			s.pollOnce()

		case <-tick.C:
			s.tickOnce()

		case r := <-s.capturer.Results():
			s.applyCapture(r)

		case c := <-s.commands:
			if c.kind == cmdShutdown {
				s.logger.Info().Msg("Tracker stopped")
				s.shutdown()
				c.reply <- nil
				return nil
			}
			c.reply <- s.handle(c)
		}
	}
}

// SetListener replaces the listener. It must be called before Start.
func (s *Service) SetListener(l Listener) {
	s.listener = l
}

// Done is closed when the loop has exited
func (s *Service) Done() <-chan struct{} {
	return s.done
}

// Snapshot returns the most recently published state
func (s *Service) Snapshot() *Snapshot {
	return s.snapshot.Load()
}

// RequestBind starts listening for the next focused window and binds slot to
// its owner. A pending capture on the same slot is replaced.
func (s *Service) RequestBind(slot models.SlotKey) error {
	if !slot.Valid() {
		return capture.ErrUnknownSlot
	}
	return s.send(command{kind: cmdBind, slot: slot})
}

// CancelBind abandons a pending capture on slot
func (s *Service) CancelBind(slot models.SlotKey) error {
	if !slot.Valid() {
		return capture.ErrUnknownSlot
	}
	return s.send(command{kind: cmdCancel, slot: slot})
}

// ResetTimer sets the elapsed time to zero in any state
func (s *Service) ResetTimer() error {
	return s.send(command{kind: cmdReset})
}

// ResumePreviousTime restores the elapsed time loaded at startup
func (s *Service) ResumePreviousTime() error {
	return s.send(command{kind: cmdResume})
}

// Shutdown stops the loop, writes the state file and waits for the loop to
// exit.
func (s *Service) Shutdown() error {
	return s.send(command{kind: cmdShutdown})
}

func (s *Service) send(c command) error {
	if !s.running.Load() {
		return ErrStopped
	}
	c.reply = make(chan error, 1)

	select {
	case s.commands <- c:
	case <-s.done:
		return ErrStopped
	}

	select {
	case err := <-c.reply:
		return err
	case <-s.done:
		// shutdown replies before done closes
		select {
		case err := <-c.reply:
			return err
		default:
			return ErrStopped
		}
	}
}

func (s *Service) handle(c command) error {
	defer s.publish()

	switch c.kind {
	case cmdBind:
		if _, err := s.capturer.Start(s.loopCtx, c.slot); err != nil {
			return err
		}

	case cmdCancel:
		s.capturer.Cancel(c.slot)

	case cmdReset:
		s.acc.Reset()
		s.splitSpan()
		s.logger.Info().Msg("Timer reset")
		s.listener.OnTick(s.acc.String())

	case cmdResume:
		s.acc.Resume()
		s.splitSpan()
		s.logger.Info().Str("elapsed", s.acc.String()).Msg("Resumed previous time")
		s.listener.OnTick(s.acc.String())
	}

	return nil
}

// pollOnce runs one poll cycle: only a foreground window owned by a bound
// process can make the session active.
func (s *Service) pollOnce() {
	fg, err := s.querier.ForegroundWindow()
	if err != nil {
		if !errors.Is(err, window.ErrNoWindow) {
			metrics.OSQueryFailures.WithLabelValues("foreground").Inc()
			s.logger.Debug().Err(err).Msg("Foreground window unavailable")
		}
		s.transition(models.Inactive, models.Slot{})
		return
	}

	pid, err := s.querier.OwnerPID(fg.Handle)
	if err != nil {
		metrics.OSQueryFailures.WithLabelValues("owner_pid").Inc()
		s.logger.Debug().Err(err).Uint32("window", uint32(fg.Handle)).Msg("Window owner unavailable")
		s.transition(models.Inactive, models.Slot{})
		return
	}

	slot, ok := s.slots.ByPID(pid)
	if !ok {
		s.transition(models.Inactive, models.Slot{})
		return
	}

	if s.detector.IsActive(fg.Handle, activity.TimeoutDuration(s.timeout)) {
		s.transition(models.Active, slot)
	} else {
		s.transition(models.Inactive, models.Slot{})
	}
}

// tickOnce advances the timer by one second when the session is active.
func (s *Service) tickOnce() {
	if s.acc.Tick(s.session == models.Active) {
		metrics.ActiveSecondsTotal.Inc()
		if s.span != nil {
			s.span.seconds++
		}
	}
	s.listener.OnTick(s.acc.String())
	s.publish()
}

// transition applies state. Re-entering the current state has no side
// effects except moving the open span when focus moved to another slot.
func (s *Service) transition(state models.SessionState, slot models.Slot) {
	if state == s.session {
		if state == models.Active && s.span != nil && s.span.slot.PID != slot.PID {
			s.closeSpan()
			s.openSpan(slot)
		}
		return
	}

	s.session = state
	if state == models.Active {
		s.openSpan(slot)
	} else {
		s.closeSpan()
	}

	metrics.StateTransitionsTotal.WithLabelValues(state.String()).Inc()
	s.logger.Info().Stringer("state", state).Str("elapsed", s.acc.String()).Msg("Session state changed")
	s.notifyState()
	s.publish()
}

func (s *Service) notifyState() {
	if s.session == models.Active {
		metrics.SessionActive.Set(1)
	} else {
		metrics.SessionActive.Set(0)
	}
	s.listener.OnStateChange(s.session)
}

func (s *Service) applyCapture(r capture.Result) {
	if !s.capturer.Accept(r) {
		s.logger.Debug().Stringer("slot", r.Slot).Uint64("generation", r.Generation).Msg("Dropped stale capture")
		return
	}

	s.slots.Bind(r.Slot, r.PID, r.DisplayName)
	metrics.BindingsTotal.WithLabelValues(fmt.Sprint(int(r.Slot))).Inc()
	s.logger.Info().
		Stringer("slot", r.Slot).
		Int("pid", r.PID).
		Str("title", r.DisplayName).
		Msg("Slot bound")

	s.listener.OnBindingUpdated(r.Slot, r.DisplayName)
	s.publish()
}

// resolveNames fills in display names of persisted bindings: the first
// visible window title, then the process name, then "Unknown".
func (s *Service) resolveNames() {
	for _, slot := range s.slots.All() {
		if !slot.Bound() {
			s.listener.OnBindingUpdated(slot.Key, unboundName)
			continue
		}
		if slot.DisplayName == "" {
			slot.DisplayName = s.resolveName(slot.PID)
			s.slots.SetDisplayName(slot.Key, slot.DisplayName)
		}
		s.listener.OnBindingUpdated(slot.Key, slot.DisplayName)
	}
	s.publish()
}

func (s *Service) resolveName(pid int) string {
	titles, err := s.querier.VisibleWindowTitles(pid)
	if err != nil {
		metrics.OSQueryFailures.WithLabelValues("window_titles").Inc()
		s.logger.Debug().Err(err).Int("pid", pid).Msg("Window titles unavailable")
	}
	for _, title := range titles {
		if title != "" {
			return title
		}
	}

	if s.namer != nil {
		if name, err := s.namer.Name(pid); err == nil && name != "" {
			return name
		}
	}
	return unknownName
}

func (s *Service) openSpan(slot models.Slot) {
	s.span = &openSpan{slot: slot, started: s.clock.Now()}
}

// closeSpan records the open span if it counted any time.
func (s *Service) closeSpan() {
	span := s.span
	s.span = nil
	if span == nil || span.seconds == 0 {
		return
	}

	record := &models.SessionSpan{
		SlotKey:     int(span.slot.Key),
		PID:         span.slot.PID,
		DisplayName: span.slot.DisplayName,
		StartedAt:   span.started,
		EndedAt:     s.clock.Now(),
		Seconds:     span.seconds,
	}
	if err := s.recorder.RecordSpan(record); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to record session span")
	}
}

// splitSpan ends the open span and starts a new one on the same slot, so a
// span never straddles a reset or resume.
func (s *Service) splitSpan() {
	if s.span == nil {
		return
	}
	slot := s.span.slot
	s.closeSpan()
	s.openSpan(slot)
}

// shutdown closes the span, stops captures and writes the state file. Write
// failures are logged and swallowed.
func (s *Service) shutdown() {
	s.closeSpan()
	s.capturer.Close()

	state := &store.State{
		Bindings: s.slots.PIDs(),
		LastTime: s.acc.Elapsed(),
		Timeout:  s.timeout,
	}
	if err := s.store.Save(state); err != nil {
		metrics.PersistFailures.Inc()
		s.logger.Error().Err(err).Str("path", s.store.Path()).Msg("Failed to save state")
		errorLog := &models.ErrorLog{
			Timestamp: s.clock.Now(),
			Component: "store",
			ErrorMsg:  err.Error(),
		}
		if dbErr := s.recorder.CreateErrorLog(errorLog); dbErr != nil {
			s.logger.Error().Err(dbErr).Msg("Failed to store error in database")
		}
	} else {
		s.logger.Info().Str("path", s.store.Path()).Str("elapsed", s.acc.String()).Msg("State saved")
	}

	s.running.Store(false)
	s.publish()
}

func (s *Service) publish() {
	slots := s.slots.All()
	statuses := make([]SlotStatus, 0, len(slots))
	for _, slot := range slots {
		name := slot.DisplayName
		if !slot.Bound() {
			name = unboundName
		} else if name == "" {
			name = unknownName
		}
		statuses = append(statuses, SlotStatus{
			Key:         slot.Key,
			Name:        slot.Key.String(),
			PID:         slot.PID,
			DisplayName: name,
			Listening:   s.capturer.Listening(slot.Key),
		})
	}

	s.snapshot.Store(&Snapshot{
		State:           s.session,
		Elapsed:         s.acc.String(),
		Seconds:         s.acc.Elapsed(),
		PreviousSeconds: s.acc.Previous(),
		Timeout:         s.timeout,
		Slots:           statuses,
		Running:         s.running.Load(),
		UpdatedAt:       s.clock.Now(),
	})
}
