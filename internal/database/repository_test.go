package database

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"worktimer/internal/models"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	db, err := Connect(filepath.Join(t.TempDir(), "nested", "worktimer.db"))
	require.NoError(t, err)
	require.NoError(t, db.Initialize())
	t.Cleanup(func() { db.Close() })
	return NewRepository(db)
}

func span(slot int, start time.Time, seconds int64) *models.SessionSpan {
	return &models.SessionSpan{
		SlotKey:     slot,
		PID:         100 + slot,
		DisplayName: "app",
		StartedAt:   start,
		EndedAt:     start.Add(time.Duration(seconds) * time.Second),
		Seconds:     seconds,
	}
}

func TestRecordAndQuerySpans(t *testing.T) {
	repo := newTestRepository(t)
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	require.NoError(t, repo.RecordSpan(span(1, base.Add(-48*time.Hour), 30)))
	require.NoError(t, repo.RecordSpan(span(2, base.Add(time.Hour), 20)))
	require.NoError(t, repo.RecordSpan(span(1, base, 10)))

	spans, err := repo.GetSpansSince(base)
	require.NoError(t, err)
	require.Len(t, spans, 2)
	assert.Equal(t, int64(10), spans[0].Seconds)
	assert.Equal(t, int64(20), spans[1].Seconds)

	total, err := repo.TotalSecondsSince(base)
	require.NoError(t, err)
	assert.Equal(t, int64(30), total)

	latest, err := repo.GetLatest()
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, 2, latest.SlotKey)
}

func TestRecordSpanRejectsInvertedTimes(t *testing.T) {
	repo := newTestRepository(t)
	now := time.Now()
	bad := &models.SessionSpan{SlotKey: 1, StartedAt: now, EndedAt: now.Add(-time.Second), Seconds: 1}
	assert.Error(t, repo.RecordSpan(bad))
}

func TestGetLatestEmpty(t *testing.T) {
	repo := newTestRepository(t)
	latest, err := repo.GetLatest()
	require.NoError(t, err)
	assert.Nil(t, latest)
}

func TestDeleteAndClear(t *testing.T) {
	repo := newTestRepository(t)
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	require.NoError(t, repo.RecordSpan(span(1, base.Add(-time.Hour), 5)))
	require.NoError(t, repo.RecordSpan(span(1, base, 5)))

	n, err := repo.DeleteSpansBefore(base)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	spans, err := repo.GetSpansSince(time.Time{})
	require.NoError(t, err)
	assert.Len(t, spans, 1)

	require.NoError(t, repo.Clear())
	spans, err = repo.GetSpansSince(time.Time{})
	require.NoError(t, err)
	assert.Empty(t, spans)
}

func TestErrorLogs(t *testing.T) {
	repo := newTestRepository(t)
	require.NoError(t, repo.CreateErrorLog(&models.ErrorLog{Timestamp: time.Now(), Component: "store", ErrorMsg: "disk full"}))

	logs, err := repo.GetErrorLogs(10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "store", logs[0].Component)
}
