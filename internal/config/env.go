package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g.
// WORKTIMER_TRACKER_POLL_INTERVAL=250ms.
const EnvPrefix = "WORKTIMER"

// setDefaults mirrors Default into v so every key can be overridden from the
// environment.
func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("state.path", d.State.Path)

	v.SetDefault("database.enabled", d.Database.Enabled)
	v.SetDefault("database.path", d.Database.Path)

	v.SetDefault("tracker.poll_interval", d.Tracker.PollInterval)
	v.SetDefault("tracker.min_poll_interval", d.Tracker.MinPollInterval)
	v.SetDefault("tracker.max_poll_interval", d.Tracker.MaxPollInterval)
	v.SetDefault("tracker.tick_interval", d.Tracker.TickInterval)
	v.SetDefault("tracker.default_timeout", d.Tracker.DefaultTimeout)

	v.SetDefault("capture.debounce", d.Capture.Debounce)
	v.SetDefault("capture.sample_interval", d.Capture.SampleInterval)

	v.SetDefault("daemon.pid_file", d.Daemon.PIDFile)

	v.SetDefault("web.enabled", d.Web.Enabled)
	v.SetDefault("web.host", d.Web.Host)
	v.SetDefault("web.port", d.Web.Port)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.file", d.Logging.File)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// New creates a new Config with default values and loads from environment.
// Malformed environment values leave the defaults in place.
func New() *Config {
	cfg := Default()
	if err := newViper().Unmarshal(cfg); err != nil {
		return Default()
	}
	return cfg
}

// Load reads defaults, then the YAML file at path if it exists, then the
// environment. An empty path skips the file.
func Load(path string) (*Config, error) {
	v := newViper()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}
