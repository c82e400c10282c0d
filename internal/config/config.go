package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	// State file configuration
	State StateConfig `mapstructure:"state"`

	// Database configuration
	Database DatabaseConfig `mapstructure:"database"`

	// Tracker configuration
	Tracker TrackerConfig `mapstructure:"tracker"`

	// Binding capture configuration
	Capture CaptureConfig `mapstructure:"capture"`

	// Daemon configuration
	Daemon DaemonConfig `mapstructure:"daemon"`

	// Web server configuration
	Web WebConfig `mapstructure:"web"`

	// Logging configuration
	Logging LoggingConfig `mapstructure:"logging"`
}

// StateConfig locates the bindings/elapsed-time file
type StateConfig struct {
	Path string `mapstructure:"path"`
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"` // Path to SQLite database file
}

// TrackerConfig holds tracking behavior configuration
type TrackerConfig struct {
	PollInterval    time.Duration `mapstructure:"poll_interval"`     // How often to sample the foreground window
	MinPollInterval time.Duration `mapstructure:"min_poll_interval"` // Minimum allowed poll interval
	MaxPollInterval time.Duration `mapstructure:"max_poll_interval"` // Maximum allowed poll interval
	TickInterval    time.Duration `mapstructure:"tick_interval"`     // Timer accumulator cadence
	DefaultTimeout  float64       `mapstructure:"default_timeout"`   // Seconds, used when the state file has none
}

// CaptureConfig holds binding capture timing
type CaptureConfig struct {
	Debounce       time.Duration `mapstructure:"debounce"`
	SampleInterval time.Duration `mapstructure:"sample_interval"`
}

// DaemonConfig holds daemon process configuration
type DaemonConfig struct {
	PIDFile string `mapstructure:"pid_file"` // Path to PID file for daemon management
}

// WebConfig holds web server configuration
type WebConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Host    string `mapstructure:"host"` // Host to bind web server to
	Port    int    `mapstructure:"port"` // Port for web server
}

// LoggingConfig selects log level, encoding and destination
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "json" or "text"
	File   string `mapstructure:"file"`
}

func configDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "worktimer")
	}
	return filepath.Join(home, ".config", "worktimer")
}

// Default returns a Config with sensible default values
func Default() *Config {
	dir := configDir()
	uid := os.Getuid()

	return &Config{
		State: StateConfig{
			Path: filepath.Join(dir, "app_data.txt"),
		},
		Database: DatabaseConfig{
			Enabled: true,
			Path:    filepath.Join(dir, "worktimer.db"),
		},
		Tracker: TrackerConfig{
			PollInterval:    200 * time.Millisecond,
			MinPollInterval: 50 * time.Millisecond,
			MaxPollInterval: 2 * time.Second,
			TickInterval:    time.Second,
			DefaultTimeout:  10.0,
		},
		Capture: CaptureConfig{
			Debounce:       300 * time.Millisecond,
			SampleInterval: 100 * time.Millisecond,
		},
		Daemon: DaemonConfig{
			PIDFile: fmt.Sprintf("/tmp/worktimer-%d.pid", uid),
		},
		Web: WebConfig{
			Enabled: false,
			Host:    "localhost",
			Port:    10000 + uid, // Default port based on user ID
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			File:   fmt.Sprintf("/tmp/worktimer-%d.log", uid),
		},
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Validate tracker intervals
	if c.Tracker.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %v", c.Tracker.PollInterval)
	}

	if c.Tracker.PollInterval < c.Tracker.MinPollInterval {
		return fmt.Errorf("poll interval (%v) cannot be less than minimum (%v)",
			c.Tracker.PollInterval, c.Tracker.MinPollInterval)
	}

	if c.Tracker.PollInterval > c.Tracker.MaxPollInterval {
		return fmt.Errorf("poll interval (%v) cannot be greater than maximum (%v)",
			c.Tracker.PollInterval, c.Tracker.MaxPollInterval)
	}

	if c.Tracker.TickInterval <= 0 {
		return fmt.Errorf("tick interval must be positive, got %v", c.Tracker.TickInterval)
	}

	if math.IsNaN(c.Tracker.DefaultTimeout) || c.Tracker.DefaultTimeout <= 0 ||
		c.Tracker.DefaultTimeout >= float64(math.MaxInt64)/float64(time.Second) {
		return fmt.Errorf("default timeout must be a positive number of seconds, got %v", c.Tracker.DefaultTimeout)
	}

	if c.Capture.Debounce < 0 || c.Capture.SampleInterval <= 0 {
		return fmt.Errorf("capture timings invalid: debounce %v, sample interval %v",
			c.Capture.Debounce, c.Capture.SampleInterval)
	}

	if c.State.Path == "" {
		return fmt.Errorf("state file path cannot be empty")
	}

	if c.Database.Enabled && c.Database.Path == "" {
		return fmt.Errorf("database path cannot be empty when the database is enabled")
	}

	// Validate web config
	if c.Web.Port < 1 || c.Web.Port > 65535 {
		return fmt.Errorf("web port must be between 1 and 65535, got %d", c.Web.Port)
	}

	if c.Web.Host == "" {
		return fmt.Errorf("web host cannot be empty")
	}

	// Validate daemon config
	if c.Daemon.PIDFile == "" {
		return fmt.Errorf("PID file path cannot be empty")
	}

	switch strings.ToLower(c.Logging.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("log format must be json or text, got %q", c.Logging.Format)
	}

	return nil
}

// SetPollInterval sets the poll interval with validation
func (c *Config) SetPollInterval(interval time.Duration) error {
	if interval < c.Tracker.MinPollInterval {
		return fmt.Errorf("poll interval cannot be less than %v", c.Tracker.MinPollInterval)
	}
	if interval > c.Tracker.MaxPollInterval {
		return fmt.Errorf("poll interval cannot be greater than %v", c.Tracker.MaxPollInterval)
	}
	c.Tracker.PollInterval = interval
	return nil
}

// SetWebPort sets the web server port with validation
func (c *Config) SetWebPort(port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", port)
	}
	c.Web.Port = port
	return nil
}

// WebAddr returns host:port of the local API
func (c *Config) WebAddr() string {
	return fmt.Sprintf("%s:%d", c.Web.Host, c.Web.Port)
}

// String returns a string representation of the config
func (c *Config) String() string {
	return fmt.Sprintf(`Configuration:
  State:
    Path: %s
  Database:
    Enabled: %v
    Path: %s
  Tracker:
    Poll Interval: %v
    Min Interval: %v
    Max Interval: %v
    Tick Interval: %v
    Default Timeout: %.1fs
  Capture:
    Debounce: %v
    Sample Interval: %v
  Daemon:
    PID File: %s
  Web:
    Enabled: %v
    Host: %s
    Port: %d
  Logging:
    Level: %s
    Format: %s
    File: %s`,
		c.State.Path,
		c.Database.Enabled,
		c.Database.Path,
		c.Tracker.PollInterval,
		c.Tracker.MinPollInterval,
		c.Tracker.MaxPollInterval,
		c.Tracker.TickInterval,
		c.Tracker.DefaultTimeout,
		c.Capture.Debounce,
		c.Capture.SampleInterval,
		c.Daemon.PIDFile,
		c.Web.Enabled,
		c.Web.Host,
		c.Web.Port,
		c.Logging.Level,
		c.Logging.Format,
		c.Logging.File,
	)
}
