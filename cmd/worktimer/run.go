package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"worktimer/internal/config"
	"worktimer/internal/daemon"
	"worktimer/internal/database"
	"worktimer/internal/reporter"
	"worktimer/internal/store"
	"worktimer/internal/tracker"
	"worktimer/internal/ui"
	"worktimer/internal/web"
	"worktimer/pkg/detector"
	"worktimer/pkg/integrations/process"
)

var (
	runHeadless bool
	runServe    bool
	runPort     int
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the timer in this terminal",
	Long: `Run the timer in the foreground. By default a terminal UI shows the clock
and the three slots; press 1, 2 or 3 and then focus a window to bind a slot.`,
	Example: `  worktimer run
  worktimer run --headless --serve --port 18080`,
	RunE: runForeground,
}

func init() {
	for _, c := range []*cobra.Command{runCmd, rootCmd} {
		c.Flags().BoolVar(&runHeadless, "headless", false, "Run without the terminal UI")
		c.Flags().BoolVar(&runServe, "serve", false, "Expose the local web API")
		c.Flags().IntVar(&runPort, "port", 0, "Web API port (default from configuration)")
	}
	rootCmd.AddCommand(runCmd)
}

func runForeground(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if runServe {
		cfg.Web.Enabled = true
	}

	// logs go to logging.file; with the UI the terminal is not an option
	out, closeLog := openLogFile(cfg.Logging)
	defer closeLog()
	logger := setupLogger(cfg.Logging, out)

	if runHeadless {
		return runTracker(cmd.Context(), cfg, logger, nil)
	}

	return runTracker(cmd.Context(), cfg, logger, func(ctx context.Context, svc *tracker.Service) error {
		p := tea.NewProgram(ui.NewModel(svc), tea.WithContext(ctx))
		svc.SetListener(ui.NewListener(p))
		return startLoop(ctx, svc, logger, func() error {
			_, err := p.Run()
			if errors.Is(err, tea.ErrProgramKilled) {
				return nil
			}
			return err
		})
	})
}

// frontEnd runs in the foreground while the loop runs; the loop is shut down
// when it returns.
type frontEnd func(ctx context.Context, svc *tracker.Service) error

// runTracker assembles the tracker and its collaborators and runs until a
// signal arrives, the loop stops, or front returns. A nil front runs headless.
func runTracker(parent context.Context, cfg *config.Config, logger zerolog.Logger, front frontEnd) error {
	if parent == nil {
		parent = context.Background()
	}

	dm := daemon.New(cfg.Daemon.PIDFile)
	if err := dm.Acquire(); err != nil {
		return err
	}
	defer dm.Release()

	querier, err := detector.New()
	if err != nil {
		return pkgerrors.Wrap(err, "failed to initialize window detector")
	}
	defer querier.Close()
	logger.Info().Str("display_server", querier.DisplayServer()).Msg("Window detector initialized")

	var opts []tracker.Option
	if names := process.NewDetector(); names.IsAvailable() {
		opts = append(opts, tracker.WithProcessNamer(names))
	} else {
		logger.Warn().Msg("procfs unavailable, process names fall back to Unknown")
	}

	var history web.HistoryReporter
	if cfg.Database.Enabled {
		repo, closeDB, err := openRepository(cfg)
		if err != nil {
			// history is optional; the timer still works without it
			logger.Warn().Err(err).Msg("History disabled")
		} else {
			defer closeDB()
			opts = append(opts, tracker.WithRecorder(repo))
			history = reporter.New(repo, nil)
		}
	}

	st := store.New(cfg.State.Path, cfg.Tracker.DefaultTimeout, logger)
	svc := tracker.NewService(cfg, st, querier, logger, opts...)

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Web.Enabled {
		server := web.NewServer(cfg, svc, history, runPort, logger)
		go func() {
			if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error().Err(err).Msg("Web server failed")
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				logger.Error().Err(err).Msg("Error shutting down web server")
			}
		}()
	}

	logger.Debug().Msg(cfg.String())

	if front == nil {
		err = svc.Start(ctx)
	} else {
		err = front(ctx, svc)
	}
	if errors.Is(err, context.Canceled) {
		err = nil
	}

	logger.Info().Msg("worktimer stopped")
	return err
}

// startLoop runs the tracker loop next to fn and shuts the loop down once fn
// returns.
func startLoop(ctx context.Context, svc *tracker.Service, logger zerolog.Logger, fn func() error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	loopErr := make(chan error, 1)
	go func() { loopErr <- svc.Start(ctx) }()

	err := fn()

	if shutdownErr := svc.Shutdown(); shutdownErr != nil && !errors.Is(shutdownErr, tracker.ErrStopped) {
		logger.Error().Err(shutdownErr).Msg("Shutdown failed")
	}
	// the loop may not have started yet; cancelling still ends it
	cancel()
	if lerr := <-loopErr; lerr != nil && !errors.Is(lerr, context.Canceled) && err == nil {
		err = lerr
	}
	return err
}

func openRepository(cfg *config.Config) (*database.Repository, func(), error) {
	db, err := database.Connect(cfg.Database.Path)
	if err != nil {
		return nil, nil, err
	}
	if err := db.Initialize(); err != nil {
		db.Close()
		return nil, nil, err
	}
	return database.NewRepository(db), func() { db.Close() }, nil
}
