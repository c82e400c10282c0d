package daemon

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/pkg/errors"
)

// ErrAlreadyRunning is returned by Acquire when a live process holds the PID
// file.
var ErrAlreadyRunning = errors.New("worktimer is already running")

type Daemon struct {
	pidFile string
}

func New(pidFile string) *Daemon {
	return &Daemon{pidFile: pidFile}
}

// PIDFile returns the managed path
func (d *Daemon) PIDFile() string {
	return d.pidFile
}

func (d *Daemon) WritePID() error {
	if err := os.MkdirAll(filepath.Dir(d.pidFile), 0755); err != nil {
		return errors.Wrap(err, "failed to create PID file directory")
	}
	pid := os.Getpid()
	if err := os.WriteFile(d.pidFile, fmt.Appendf([]byte{}, "%d", pid), 0644); err != nil {
		return errors.Wrap(err, "failed to write PID file")
	}
	return nil
}

func (d *Daemon) ReadPID() (int, error) {
	data, err := os.ReadFile(d.pidFile)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, errors.Wrap(err, "failed to read PID file")
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, errors.Wrap(err, "invalid PID in file")
	}

	return pid, nil
}

func (d *Daemon) RemovePID() error {
	if err := os.Remove(d.pidFile); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "failed to remove PID file")
	}
	return nil
}

// IsRunning reports whether the PID file names a live process. A stale file
// is removed.
func (d *Daemon) IsRunning() (bool, int, error) {
	pid, err := d.ReadPID()
	if err != nil {
		return false, 0, err
	}

	if pid <= 0 {
		return false, 0, nil
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return false, 0, nil
	}

	err = process.Signal(syscall.Signal(0))
	if err != nil {
		d.RemovePID()
		return false, 0, nil
	}

	return true, pid, nil
}

// Acquire claims the PID file for this process. Only one worktimer may own
// the state file at a time.
func (d *Daemon) Acquire() error {
	running, pid, err := d.IsRunning()
	if err != nil {
		// unreadable or garbage PID file: take it over
		_ = d.RemovePID()
	}
	if running && pid != os.Getpid() {
		return errors.Wrapf(ErrAlreadyRunning, "pid %d", pid)
	}
	return d.WritePID()
}

// Release removes the PID file if this process owns it
func (d *Daemon) Release() error {
	pid, err := d.ReadPID()
	if err != nil || pid != os.Getpid() {
		return err
	}
	return d.RemovePID()
}

func (d *Daemon) Stop() error {
	running, pid, err := d.IsRunning()
	if err != nil {
		return errors.Wrap(err, "error checking daemon status")
	}

	if !running {
		return errors.New("daemon is not running or PID file is stale")
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return errors.Wrap(err, "failed to find process")
	}

	if err := process.Signal(syscall.SIGTERM); err != nil {
		if errors.Is(err, os.ErrProcessDone) {
			_ = d.RemovePID()
			return errors.New("daemon process already terminated")
		}
		return errors.Wrap(err, "failed to send SIGTERM")
	}

	return nil
}
