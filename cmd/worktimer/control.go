package main

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"

	"worktimer/internal/models"
)

var controlPort int

var bindCmd = &cobra.Command{
	Use:   "bind <slot>",
	Short: "Bind a slot to the next focused window",
	Long: `Ask the running daemon to listen on a slot. The next window you focus
that is not the one focused now becomes the slot's application.`,
	Example: `  worktimer bind 1`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return slotCommand("/api/bind", args[0], "%s is listening; focus the window to bind")
	},
}

var cancelCmd = &cobra.Command{
	Use:   "cancel <slot>",
	Short: "Stop listening on a slot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return slotCommand("/api/cancel", args[0], "%s is no longer listening")
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Set the clock back to zero",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return simpleCommand("/api/reset", "Timer reset")
	},
}

var resumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "Restore the clock to the time saved by the last session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return simpleCommand("/api/resume", "Previous time restored")
	},
}

func init() {
	for _, c := range []*cobra.Command{bindCmd, cancelCmd, resetCmd, resumeCmd} {
		c.Flags().IntVar(&controlPort, "port", 0, "Daemon web API port (default from configuration)")
		rootCmd.AddCommand(c)
	}
}

func daemonClient() (*apiClient, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if controlPort > 0 {
		if err := cfg.SetWebPort(controlPort); err != nil {
			return nil, err
		}
	}
	return newAPIClient(cfg.WebAddr()), nil
}

func slotCommand(path, arg, done string) error {
	slot, err := models.ParseSlotKey(arg)
	if err != nil {
		return err
	}
	client, err := daemonClient()
	if err != nil {
		return err
	}
	if err := client.post(path, url.Values{"slot": {strconv.Itoa(int(slot))}}); err != nil {
		return err
	}
	fmt.Printf(done+"\n", slot)
	return nil
}

func simpleCommand(path, done string) error {
	client, err := daemonClient()
	if err != nil {
		return err
	}
	if err := client.post(path, nil); err != nil {
		return err
	}
	fmt.Println(done)
	return nil
}
