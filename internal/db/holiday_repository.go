package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tOgg1/autostamp/internal/models"
)

// ErrHolidayNotFound is returned when no decision is cached for a date.
var ErrHolidayNotFound = errors.New("holiday not found")

// HolidayRepository persists holiday decisions in holiday_cache.
type HolidayRepository struct {
	db *DB
}

// NewHolidayRepository creates a new HolidayRepository.
func NewHolidayRepository(db *DB) *HolidayRepository {
	return &HolidayRepository{db: db}
}

// Get returns the cached decision for date (YYYY-MM-DD).
func (r *HolidayRepository) Get(ctx context.Context, date string) (*models.HolidayRecord, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT date, holiday, reason, source, checked_at
		FROM holiday_cache
		WHERE date = ?
	`, date)

	var (
		record    models.HolidayRecord
		holiday   int
		checkedAt string
	)
	if err := row.Scan(&record.Date, &holiday, &record.Reason, &record.Source, &checkedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrHolidayNotFound
		}
		return nil, fmt.Errorf("failed to scan holiday: %w", err)
	}

	record.Holiday = holiday != 0
	if checkedAt != "" {
		parsed, err := time.Parse(time.RFC3339, checkedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse checked_at: %w", err)
		}
		record.CheckedAt = parsed
	}

	return &record, nil
}

// Put inserts or replaces the decision for record.Date.
func (r *HolidayRepository) Put(ctx context.Context, record *models.HolidayRecord) error {
	if err := record.Validate(); err != nil {
		return fmt.Errorf("invalid holiday record: %w", err)
	}
	if record.CheckedAt.IsZero() {
		record.CheckedAt = time.Now().UTC()
	}

	holiday := 0
	if record.Holiday {
		holiday = 1
	}

	err := r.db.ExecWithRetry(ctx, `
		INSERT INTO holiday_cache (date, holiday, reason, source, checked_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(date) DO UPDATE SET
			holiday = excluded.holiday,
			reason = excluded.reason,
			source = excluded.source,
			checked_at = excluded.checked_at
	`,
		record.Date,
		holiday,
		record.Reason,
		record.Source,
		record.CheckedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert holiday: %w", err)
	}
	return nil
}

// DeleteBefore removes decisions for dates before date and returns how many
// were removed.
func (r *HolidayRepository) DeleteBefore(ctx context.Context, date string) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM holiday_cache WHERE date < ?`, date)
	if err != nil {
		return 0, fmt.Errorf("failed to delete holidays: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted holidays: %w", err)
	}
	return n, nil
}
