package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"worktimer/internal/models"
)

func TestParseDay(t *testing.T) {
	got, err := parseDay("2026-03-02", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), got)

	_, err = parseDay("03/02/2026", time.UTC)
	assert.Error(t, err)
}

func TestClearSpansBefore(t *testing.T) {
	repo := newTestRepository(t)
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	for _, start := range []time.Time{base.Add(-48 * time.Hour), base.Add(-24 * time.Hour), base} {
		require.NoError(t, repo.RecordSpan(&models.SessionSpan{
			SlotKey: 1, PID: 1, DisplayName: "app",
			StartedAt: start, EndedAt: start.Add(time.Minute), Seconds: 60,
		}))
	}

	msg, err := clearSpans(repo, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "Deleted 2 spans recorded before 2026-03-02", msg)

	left, err := repo.GetSpansSince(time.Time{})
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.True(t, left[0].StartedAt.Equal(base))
}

func TestClearSpansAll(t *testing.T) {
	repo := newTestRepository(t)
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	require.NoError(t, repo.RecordSpan(&models.SessionSpan{
		SlotKey: 2, PID: 2, DisplayName: "app",
		StartedAt: start, EndedAt: start.Add(time.Minute), Seconds: 60,
	}))

	msg, err := clearSpans(repo, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, "History cleared", msg)

	left, err := repo.GetSpansSince(time.Time{})
	require.NoError(t, err)
	assert.Empty(t, left)
}
