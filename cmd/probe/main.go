package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"worktimer/pkg/detector"
	"worktimer/pkg/integrations/process"
	"worktimer/pkg/window"
)

func main() {
	interval := flag.Duration("interval", 2*time.Second, "delay between samples")
	duration := flag.Duration("duration", 30*time.Second, "how long to sample")
	flag.Parse()

	fmt.Println("worktimer OS query probe")
	fmt.Println("========================")

	q, err := detector.New()
	if err != nil {
		log.Fatalf("Failed to create querier: %v", err)
	}
	defer q.Close()

	fmt.Printf("\nDisplay Server: %s\n", q.DisplayServer())
	fmt.Println("Switch windows, type and move the pointer to watch the evidence change.")
	fmt.Println()

	names := process.NewDetector()

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	timeout := time.After(*duration)
	count := 0

	for {
		select {
		case <-timeout:
			fmt.Println("\nProbe completed!")
			return

		case <-ticker.C:
			count++
			sample(os.Stdout, count, q, names)
		}
	}
}

func sample(w io.Writer, count int, q window.Querier, names *process.Detector) {
	fg, err := q.ForegroundWindow()
	if err != nil {
		fmt.Fprintf(w, "[%d] Foreground: %v\n", count, err)
		return
	}

	pid, err := q.OwnerPID(fg.Handle)
	name := "?"
	if err == nil {
		if n, err := names.Name(pid); err == nil {
			name = n
		}
	}

	fmt.Fprintf(w, "[%d] Window: %-10d | PID: %-7d | Process: %-16s | Title: %s\n",
		count, fg.Handle, pid, truncate(name, 16), truncate(fg.Title, 50))

	if pid > 0 {
		titles, err := q.VisibleWindowTitles(pid)
		if err == nil && len(titles) > 0 {
			fmt.Fprintf(w, "     Visible titles: %d (first: %s)\n", len(titles), truncate(titles[0], 50))
		}
	}

	pos, err := q.CursorPosition()
	if err != nil {
		fmt.Fprintf(w, "     Cursor: %v\n", err)
	} else {
		under, err := q.WindowAt(pos)
		over := err == nil && (under == fg.Handle || q.IsDescendant(fg.Handle, under))
		fmt.Fprintf(w, "     Cursor: (%d,%d) | Under: %d | Over foreground: %v\n", pos.X, pos.Y, under, over)
	}

	pressed, err := q.AnyKeyPressed(window.FullKeyRange)
	if err == nil && pressed {
		fmt.Fprintf(w, "     Key held\n")
	}
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
