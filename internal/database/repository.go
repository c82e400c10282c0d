package database

import (
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"worktimer/internal/models"
)

// Repository handles all database operations for session history
type Repository struct {
	db *DB
}

// NewRepository creates a new repository instance
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// RecordSpan inserts a finished session span
func (r *Repository) RecordSpan(span *models.SessionSpan) error {
	if span.EndedAt.Before(span.StartedAt) {
		return errors.Errorf("span ends before it starts: %v < %v", span.EndedAt, span.StartedAt)
	}
	result := r.db.Create(span)
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to insert session span")
	}
	return nil
}

// GetSpansSince retrieves all spans that started at or after since.
// Simple query that returns raw spans - runtime does the processing
func (r *Repository) GetSpansSince(since time.Time) ([]*models.SessionSpan, error) {
	var spans []*models.SessionSpan
	result := r.db.Where("started_at >= ?", since).Order("started_at ASC").Find(&spans)

	if result.Error != nil {
		return nil, errors.Wrap(result.Error, "failed to query session spans")
	}

	return spans, nil
}

// GetLatest retrieves the most recent span, or nil when there is none
func (r *Repository) GetLatest() (*models.SessionSpan, error) {
	var span models.SessionSpan
	result := r.db.Order("started_at DESC").First(&span)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(result.Error, "failed to get latest span")
	}
	return &span, nil
}

// TotalSecondsSince sums counted seconds of spans started since a given time
func (r *Repository) TotalSecondsSince(since time.Time) (int64, error) {
	var total int64
	result := r.db.Model(&models.SessionSpan{}).
		Select("COALESCE(SUM(seconds), 0)").
		Where("started_at >= ?", since).
		Scan(&total)
	if result.Error != nil {
		return 0, errors.Wrap(result.Error, "failed to sum session spans")
	}
	return total, nil
}

// DeleteSpansBefore soft-deletes spans that started before a given time
func (r *Repository) DeleteSpansBefore(before time.Time) (int64, error) {
	result := r.db.Where("started_at < ?", before).Delete(&models.SessionSpan{})
	if result.Error != nil {
		return 0, errors.Wrap(result.Error, "failed to delete old spans")
	}
	return result.RowsAffected, nil
}

// CreateErrorLog inserts a new error log into the database
func (r *Repository) CreateErrorLog(errorLog *models.ErrorLog) error {
	result := r.db.Create(errorLog)
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to insert error log")
	}
	return nil
}

// GetErrorLogs returns the most recent error logs, newest first
func (r *Repository) GetErrorLogs(limit int) ([]*models.ErrorLog, error) {
	var logs []*models.ErrorLog
	result := r.db.Order("timestamp DESC").Limit(limit).Find(&logs)
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, "failed to query error logs")
	}
	return logs, nil
}

// Clear removes all session history
func (r *Repository) Clear() error {
	result := r.db.Exec("DELETE FROM session_spans")
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to clear session spans")
	}
	return nil
}
