package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"worktimer/internal/config"
	"worktimer/internal/daemon"
	"worktimer/internal/models"
	"worktimer/internal/store"
	"worktimer/internal/tracker"
	"worktimer/pkg/detector"
	"worktimer/pkg/integrations/process"
	"worktimer/pkg/utils"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon status, the clock and the bound slots",
	Long: `Show whether the daemon runs. When it does, the live clock and slot
bindings are fetched from its web API; otherwise the saved state file is shown.`,
	Args: cobra.NoArgs,
	RunE: showStatus,
}

func init() {
	statusCmd.Flags().IntVar(&controlPort, "port", 0, "Daemon web API port (default from configuration)")
	rootCmd.AddCommand(statusCmd)
}

func showStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if controlPort > 0 {
		if err := cfg.SetWebPort(controlPort); err != nil {
			return err
		}
	}

	cyan := color.New(color.FgCyan, color.Bold)
	green := color.New(color.FgGreen, color.Bold)
	red := color.New(color.FgRed, color.Bold)
	yellow := color.New(color.FgYellow)

	dm := daemon.New(cfg.Daemon.PIDFile)
	running, pid, err := dm.IsRunning()
	if err != nil {
		return errors.Wrap(err, "failed to check daemon status")
	}

	cyan.Print("Daemon:  ")
	if running {
		green.Printf("running (PID: %d)\n", pid)
	} else {
		yellow.Println("not running")
	}

	var snap *tracker.Snapshot
	if running {
		snap, err = newAPIClient(cfg.WebAddr()).status()
		if err != nil {
			// a daemon started with the web API disabled cannot be queried
			yellow.Printf("Live status unavailable: %v\n", err)
		}
	}

	if snap != nil {
		cyan.Print("Clock:   ")
		if snap.State == models.Active {
			green.Printf("%s  active\n", snap.Elapsed)
		} else {
			red.Printf("%s  inactive\n", snap.Elapsed)
		}
		fmt.Printf("Timeout: %.1fs\n", snap.Timeout)
		fmt.Println()
		for _, slot := range snap.Slots {
			name := slot.DisplayName
			if slot.Listening {
				name = "waiting for next window..."
			}
			fmt.Printf("%s: %s\n", slot.Name, name)
		}
	} else if err := printSavedState(cfg, yellow); err != nil {
		return err
	}

	if cfg.Database.Enabled {
		fmt.Println()
		repo, closeDB, err := openRepository(cfg)
		if err != nil {
			yellow.Printf("History unavailable: %v\n", err)
		} else {
			defer closeDB()
			if err := printHistorySummary(os.Stdout, repo, time.Now(), cyan, yellow); err != nil {
				yellow.Printf("History unavailable: %v\n", err)
			}
		}
	}

	printForeground(cyan)
	return nil
}

// recentErrorLimit is how many stored failures status lists.
const recentErrorLimit = 3

// historySummary is the part of the history repository status reads.
type historySummary interface {
	TotalSecondsSince(since time.Time) (int64, error)
	GetLatest() (*models.SessionSpan, error)
	GetErrorLogs(limit int) ([]*models.ErrorLog, error)
}

// printHistorySummary shows today's recorded total, the latest span and the
// most recent stored failures.
func printHistorySummary(w io.Writer, src historySummary, now time.Time, heading, warn *color.Color) error {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	today, err := src.TotalSecondsSince(midnight)
	if err != nil {
		return err
	}
	latest, err := src.GetLatest()
	if err != nil {
		return err
	}
	logs, err := src.GetErrorLogs(recentErrorLimit)
	if err != nil {
		return err
	}

	heading.Fprintln(w, "History:")
	fmt.Fprintf(w, "  Today:     %s\n", utils.FormatClock(today))
	if latest != nil {
		fmt.Fprintf(w, "  Last span: %s %s (%s)\n",
			latest.StartedAt.In(now.Location()).Format("2006-01-02 15:04"),
			latest.DisplayName, utils.FormatClock(latest.Seconds))
	}
	for _, l := range logs {
		warn.Fprintf(w, "  Failure:   %s [%s] %s\n",
			l.Timestamp.In(now.Location()).Format("2006-01-02 15:04"), l.Component, l.ErrorMsg)
	}
	return nil
}

// printSavedState shows the state file without creating it.
func printSavedState(cfg *config.Config, warn *color.Color) error {
	data, err := os.ReadFile(cfg.State.Path)
	if os.IsNotExist(err) {
		warn.Printf("No saved state at %s\n", cfg.State.Path)
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "failed to read state file")
	}

	st := store.New(cfg.State.Path, cfg.Tracker.DefaultTimeout, zerolog.Nop()).Parse(data)
	names := process.NewDetector()

	fmt.Printf("Saved:   %s\n", utils.FormatClock(st.LastTime))
	fmt.Printf("Timeout: %.1fs\n", st.Timeout)
	fmt.Println()
	for i, key := range models.SlotKeys {
		fmt.Printf("%s: %s\n", key, describeBinding(st.Bindings[i], names))
	}
	return nil
}

// describeBinding names a saved pid. Bindings outlive their processes, so an
// exited pid is marked.
func describeBinding(pid int, names *process.Detector) string {
	if pid <= 0 {
		return "None"
	}
	if !names.Alive(pid) {
		return fmt.Sprintf("pid %d (not running)", pid)
	}
	if comm, err := names.Name(pid); err == nil {
		return fmt.Sprintf("%s (pid %d)", comm, pid)
	}
	return fmt.Sprintf("pid %d", pid)
}

func printForeground(heading *color.Color) {
	fmt.Println()
	q, err := detector.New()
	if err != nil {
		fmt.Printf("Could not detect current window: %v\n", err)
		return
	}
	defer q.Close()

	fg, err := q.ForegroundWindow()
	if err != nil {
		fmt.Printf("Could not detect current window: %v\n", err)
		return
	}

	heading.Println("Current Window:")
	fmt.Printf("  Title:   %s\n", fg.Title)
	if pid, err := q.OwnerPID(fg.Handle); err == nil {
		fmt.Printf("  PID:     %d\n", pid)
	}
	fmt.Printf("  Display: %s\n", q.DisplayServer())
}
