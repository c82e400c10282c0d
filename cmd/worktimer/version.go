package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"worktimer/pkg/detector"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("worktimer %s\n", version)
		fmt.Printf("display server: %s\n", detector.DetectDisplayServer())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
