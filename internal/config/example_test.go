package config_test

import (
	"fmt"
	"time"

	"worktimer/internal/config"
)

// Example of creating a default configuration
func ExampleDefault() {
	cfg := config.Default()
	fmt.Println("Poll Interval:", cfg.Tracker.PollInterval)
	fmt.Println("Tick Interval:", cfg.Tracker.TickInterval)
	fmt.Println("Timeout:", cfg.Tracker.DefaultTimeout)
	// Output:
	// Poll Interval: 200ms
	// Tick Interval: 1s
	// Timeout: 10
}

// Example of setting poll interval with validation
func ExampleConfig_SetPollInterval() {
	cfg := config.Default()

	// Valid interval
	if err := cfg.SetPollInterval(500 * time.Millisecond); err != nil {
		fmt.Println("Error:", err)
	} else {
		fmt.Println("Poll interval set to:", cfg.Tracker.PollInterval)
	}

	// Invalid interval (too low)
	if err := cfg.SetPollInterval(10 * time.Millisecond); err != nil {
		fmt.Println("Error:", err)
	}

	// Output:
	// Poll interval set to: 500ms
	// Error: poll interval cannot be less than 50ms
}

// Example of validating configuration
func ExampleConfig_Validate() {
	cfg := config.Default()

	if err := cfg.Validate(); err != nil {
		fmt.Println("Invalid config:", err)
	} else {
		fmt.Println("Configuration is valid")
	}

	// Output:
	// Configuration is valid
}
