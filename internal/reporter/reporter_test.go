package reporter

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"worktimer/internal/clock"
	"worktimer/internal/models"
)

type fakeSource struct {
	spans []*models.SessionSpan
	since time.Time
	err   error
}

func (f *fakeSource) GetSpansSince(since time.Time) ([]*models.SessionSpan, error) {
	f.since = since
	if f.err != nil {
		return nil, f.err
	}
	var out []*models.SessionSpan
	for _, s := range f.spans {
		if !s.StartedAt.Before(since) {
			out = append(out, s)
		}
	}
	return out, nil
}

// Wednesday
var now = time.Date(2026, 3, 4, 15, 30, 0, 0, time.UTC)

func at(day, hour int, seconds int64) *models.SessionSpan {
	start := time.Date(2026, 3, day, hour, 0, 0, 0, time.UTC)
	return &models.SessionSpan{SlotKey: 1, StartedAt: start, EndedAt: start.Add(time.Hour), Seconds: seconds}
}

func TestGenerateReportPeriods(t *testing.T) {
	src := &fakeSource{spans: []*models.SessionSpan{
		at(1, 9, 100), // Sunday before the week
		at(2, 9, 3600),
		at(2, 14, 1800),
		at(4, 8, 60),
	}}
	r := New(src, clock.NewManual(now))

	tests := []struct {
		period    string
		start     time.Time
		days      int
		total     int64
		spanCount int
	}{
		{"day", time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC), 1, 60, 1},
		{"week", time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), 2, 5460, 3},
		{"month", time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), 3, 5560, 4},
	}

	for _, tt := range tests {
		t.Run(tt.period, func(t *testing.T) {
			report, err := r.GenerateReport(tt.period)
			require.NoError(t, err)
			assert.Equal(t, tt.start, src.since)
			assert.Len(t, report.Days, tt.days)
			assert.Equal(t, tt.total, report.TotalSeconds)
			assert.Equal(t, tt.spanCount, report.SpanCount)
		})
	}
}

func TestGenerateReportDayTotals(t *testing.T) {
	src := &fakeSource{spans: []*models.SessionSpan{at(2, 9, 3600), at(2, 14, 1800)}}
	r := New(src, clock.NewManual(now))

	report, err := r.GenerateReport("week")
	require.NoError(t, err)
	require.Len(t, report.Days, 1)

	day := report.Days[0]
	assert.Equal(t, "2026-03-02", day.Date)
	assert.Equal(t, int64(5400), day.TotalSeconds)
	assert.Equal(t, 1.5, day.TotalHours)
	assert.Equal(t, 90.0, day.TotalMinutes)
	assert.Equal(t, 2, day.SpanCount)
}

func TestGenerateReportErrors(t *testing.T) {
	r := New(&fakeSource{err: errors.New("boom")}, clock.NewManual(now))

	_, err := r.GenerateReport("week")
	assert.Error(t, err)

	_, err = r.GenerateReport("year")
	assert.Error(t, err)
}

func TestFormatReport(t *testing.T) {
	r := New(&fakeSource{spans: []*models.SessionSpan{at(4, 9, 3723)}}, clock.NewManual(now))
	report, err := r.GenerateReport("day")
	require.NoError(t, err)

	text := r.FormatReportText(report)
	assert.Contains(t, text, "Total Time: 01:02:03 (1 sessions)")
	assert.Contains(t, text, "2026-03-04")

	out, err := r.FormatReportJSON(report)
	require.NoError(t, err)
	var decoded models.Report
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, int64(3723), decoded.TotalSeconds)

	empty, err := New(&fakeSource{}, clock.NewManual(now)).GenerateReport("day")
	require.NoError(t, err)
	assert.Contains(t, r.FormatReportText(empty), "No work recorded")
}
