package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"worktimer/internal/reporter"
)

var (
	historyJSON bool
	clearYes    bool
	clearBefore string
)

var historyCmd = &cobra.Command{
	Use:       "history [day|week|month]",
	Short:     "Show recorded working time per day",
	Example:   "  worktimer history week\n  worktimer history month --json",
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"day", "week", "month"},
	RunE:      showHistory,
}

var clearCmd = &cobra.Command{
	Use:     "clear",
	Short:   "Delete recorded history",
	Example: "  worktimer clear\n  worktimer clear --before 2026-01-01 --yes",
	Args:    cobra.NoArgs,
	RunE:    clearHistory,
}

func init() {
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "Print the report as JSON")
	clearCmd.Flags().BoolVarP(&clearYes, "yes", "y", false, "Do not ask for confirmation")
	clearCmd.Flags().StringVar(&clearBefore, "before", "", "Only delete spans started before this date (YYYY-MM-DD)")
	rootCmd.AddCommand(historyCmd, clearCmd)
}

func showHistory(cmd *cobra.Command, args []string) error {
	periodType := "day"
	if len(args) > 0 {
		periodType = args[0]
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	repo, closeDB, err := openRepository(cfg)
	if err != nil {
		return errors.Wrap(err, "failed to open history")
	}
	defer closeDB()

	rep := reporter.New(repo, nil)
	report, err := rep.GenerateReport(periodType)
	if err != nil {
		return err
	}

	if historyJSON {
		out, err := rep.FormatReportJSON(report)
		if err != nil {
			return errors.Wrap(err, "failed to format JSON")
		}
		fmt.Println(out)
		return nil
	}
	fmt.Print(rep.FormatReportText(report))
	return nil
}

func clearHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	var before time.Time
	if clearBefore != "" {
		before, err = parseDay(clearBefore, time.Local)
		if err != nil {
			return err
		}
	}

	if !clearYes {
		prompt := "This will delete all recorded history."
		if !before.IsZero() {
			prompt = fmt.Sprintf("This will delete history recorded before %s.", before.Format(dayLayout))
		}
		fmt.Print(prompt + " Are you sure? (yes/no): ")
		response, _ := bufio.NewReader(os.Stdin).ReadString('\n')
		response = strings.ToLower(strings.TrimSpace(response))
		if response != "yes" && response != "y" {
			fmt.Println("Operation cancelled")
			return nil
		}
	}

	repo, closeDB, err := openRepository(cfg)
	if err != nil {
		return errors.Wrap(err, "failed to open history")
	}
	defer closeDB()

	msg, err := clearSpans(repo, before)
	if err != nil {
		return err
	}
	fmt.Println(msg)
	return nil
}

const dayLayout = "2006-01-02"

// parseDay reads a YYYY-MM-DD date as local midnight.
func parseDay(s string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(dayLayout, s, loc)
	if err != nil {
		return time.Time{}, errors.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return t, nil
}

// spanCleaner is the part of the history repository clear uses.
type spanCleaner interface {
	Clear() error
	DeleteSpansBefore(before time.Time) (int64, error)
}

// clearSpans deletes every span, or only those started before a non-zero
// before.
func clearSpans(repo spanCleaner, before time.Time) (string, error) {
	if before.IsZero() {
		if err := repo.Clear(); err != nil {
			return "", errors.Wrap(err, "failed to clear history")
		}
		return "History cleared", nil
	}

	n, err := repo.DeleteSpansBefore(before)
	if err != nil {
		return "", errors.Wrap(err, "failed to clear history")
	}
	return fmt.Sprintf("Deleted %d spans recorded before %s", n, before.Format(dayLayout)), nil
}
