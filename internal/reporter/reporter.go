package reporter

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"worktimer/internal/clock"
	"worktimer/internal/models"
	"worktimer/pkg/utils"
)

// SpanSource supplies raw history spans
type SpanSource interface {
	GetSpansSince(since time.Time) ([]*models.SessionSpan, error)
}

// Reporter handles report generation
type Reporter struct {
	spans SpanSource
	clock clock.Clock
}

// New creates a new reporter
func New(spans SpanSource, clk clock.Clock) *Reporter {
	if clk == nil {
		clk = clock.Real{}
	}
	return &Reporter{
		spans: spans,
		clock: clk,
	}
}

// GenerateReport totals recorded spans per day for the specified period
func (r *Reporter) GenerateReport(periodType string) (*models.Report, error) {
	period, err := r.getPeriod(periodType)
	if err != nil {
		return nil, err
	}

	spans, err := r.spans.GetSpansSince(period.Start)
	if err != nil {
		return nil, fmt.Errorf("failed to get session spans: %w", err)
	}

	// Runtime groups raw spans by the local day they started on
	byDay := make(map[string]*models.DaySummary)
	var days []*models.DaySummary
	for _, span := range spans {
		if !span.StartedAt.Before(period.End) {
			continue
		}
		date := span.StartedAt.In(period.Start.Location()).Format("2006-01-02")
		day, ok := byDay[date]
		if !ok {
			day = &models.DaySummary{Date: date}
			byDay[date] = day
			days = append(days, day)
		}
		day.TotalSeconds += span.Seconds
		day.SpanCount++
	}

	report := &models.Report{
		Period:      *period,
		Days:        make([]models.DaySummary, 0, len(days)),
		GeneratedAt: r.clock.Now(),
	}
	for _, day := range days {
		day.TotalMinutes = float64(day.TotalSeconds) / 60.0
		day.TotalHours = float64(day.TotalSeconds) / 3600.0
		report.Days = append(report.Days, *day)
		report.TotalSeconds += day.TotalSeconds
		report.SpanCount += day.SpanCount
	}
	report.TotalMinutes = float64(report.TotalSeconds) / 60.0
	report.TotalHours = float64(report.TotalSeconds) / 3600.0

	return report, nil
}

// getPeriod calculates the time range for the report
func (r *Reporter) getPeriod(periodType string) (*models.ReportPeriod, error) {
	now := r.clock.Now()
	var start, end time.Time

	switch periodType {
	case "day", "today":
		start = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		end = start.AddDate(0, 0, 1)

	case "week":
		// Start of week (Monday)
		weekday := int(now.Weekday())
		if weekday == 0 {
			weekday = 7 // Sunday = 7
		}
		start = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, -(weekday - 1))
		end = start.AddDate(0, 0, 7)

	case "month":
		start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		end = start.AddDate(0, 1, 0)

	default:
		return nil, fmt.Errorf("invalid period type: %s (valid: day, week, month)", periodType)
	}

	return &models.ReportPeriod{
		Start: start,
		End:   end,
		Type:  periodType,
	}, nil
}

// FormatReportText formats the report as human-readable text
func (r *Reporter) FormatReportText(report *models.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Work Report - %s\n", report.Period.Type)
	fmt.Fprintf(&b, "Period: %s to %s\n",
		report.Period.Start.Format("2006-01-02 15:04"),
		report.Period.End.Format("2006-01-02 15:04"))
	fmt.Fprintf(&b, "Total Time: %s (%d sessions)\n\n", utils.FormatClock(report.TotalSeconds), report.SpanCount)

	if len(report.Days) == 0 {
		b.WriteString("No work recorded for this period.\n")
		return b.String()
	}

	fmt.Fprintf(&b, "%-12s %10s %10s %10s\n", "Date", "Time", "Hours", "Sessions")
	b.WriteString(strings.Repeat("-", 45) + "\n")

	for _, day := range report.Days {
		fmt.Fprintf(&b, "%-12s %10s %10.2f %10d\n",
			day.Date,
			utils.FormatClock(day.TotalSeconds),
			day.TotalHours,
			day.SpanCount)
	}

	return b.String()
}

// FormatReportJSON formats the report as JSON
func (r *Reporter) FormatReportJSON(report *models.Report) (string, error) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return string(data), nil
}
