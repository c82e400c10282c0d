package main

import (
	"fmt"
	"os"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"worktimer/internal/config"
	"worktimer/internal/daemon"
)

const daemonChildEnv = "WORKTIMER_DAEMON_CHILD"

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the timer in the background",
	Long: `Start the timer as a background daemon with the local web API enabled.
Use "worktimer bind", "worktimer status" and "worktimer stop" to control it.`,
	RunE: startDaemon,
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the background timer",
	RunE:  stopDaemon,
}

func init() {
	startCmd.Flags().IntVar(&runPort, "port", 0, "Web API port (default from configuration)")
	rootCmd.AddCommand(startCmd, stopCmd)
}

func startDaemon(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cfg.Web.Enabled = true

	if os.Getenv(daemonChildEnv) == "1" {
		out, closeLog := openLogFile(cfg.Logging)
		defer closeLog()
		return runTracker(cmd.Context(), cfg, setupLogger(cfg.Logging, out), nil)
	}

	dm := daemon.New(cfg.Daemon.PIDFile)
	running, pid, err := dm.IsRunning()
	if err != nil {
		return errors.Wrap(err, "failed to check daemon status")
	}
	if running {
		return errors.Errorf("daemon is already running (PID: %d)", pid)
	}

	child, err := daemonize()
	if err != nil {
		return err
	}

	if runPort > 0 {
		if err := cfg.SetWebPort(runPort); err != nil {
			return err
		}
	}
	fmt.Printf("Daemon started successfully (PID: %d)\n", child)
	fmt.Printf("Web API available at: http://%s\n", cfg.WebAddr())
	printLogPath(cfg)
	return nil
}

// daemonize re-executes the binary in a new session with the standard streams
// detached and returns the child's pid.
func daemonize() (int, error) {
	exe, err := os.Executable()
	if err != nil {
		exe = os.Args[0]
	}

	procAttr := &os.ProcAttr{
		Env:   append(os.Environ(), daemonChildEnv+"=1"),
		Files: []*os.File{nil, nil, nil},
		Sys: &syscall.SysProcAttr{
			Setsid: true,
		},
	}

	process, err := os.StartProcess(exe, os.Args, procAttr)
	if err != nil {
		return 0, errors.Wrap(err, "failed to start daemon process")
	}
	pid := process.Pid
	if err := process.Release(); err != nil {
		return pid, errors.Wrap(err, "failed to release daemon process")
	}
	return pid, nil
}

func stopDaemon(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	dm := daemon.New(cfg.Daemon.PIDFile)
	running, pid, err := dm.IsRunning()
	if err != nil {
		return errors.Wrap(err, "failed to check daemon status")
	}
	if !running {
		fmt.Println("Daemon is not running")
		return nil
	}

	fmt.Printf("Stopping daemon (PID: %d)...\n", pid)
	if err := dm.Stop(); err != nil {
		return errors.Wrap(err, "failed to stop daemon")
	}

	fmt.Println("Daemon stopped successfully")
	return nil
}

func printLogPath(cfg *config.Config) {
	if cfg.Logging.File != "" {
		fmt.Printf("Logs: %s\n", cfg.Logging.File)
	}
}
