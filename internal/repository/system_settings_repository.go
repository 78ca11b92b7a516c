package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const lastCheckKey = "monitor_last_check"

// SystemSettingsRepository stores process-wide key/value settings, in
// particular the stop-trigger monitor's watermark.
type SystemSettingsRepository struct {
	db *pgxpool.Pool
}

// NewSystemSettingsRepository creates a new repository instance
func NewSystemSettingsRepository(db *pgxpool.Pool) *SystemSettingsRepository {
	return &SystemSettingsRepository{db: db}
}

// Get retrieves a setting value by key
func (r *SystemSettingsRepository) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRow(ctx, `
		SELECT value FROM system_settings WHERE key = $1
	`, key).Scan(&value)
	if err != nil {
		return "", fmt.Errorf("setting not found: %s", key)
	}
	return value, nil
}

// Set updates or creates a setting
func (r *SystemSettingsRepository) Set(ctx context.Context, key, value string) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO system_settings (key, value, updated_at)
		VALUES ($1, $2, CURRENT_TIMESTAMP)
		ON CONFLICT (key) DO UPDATE SET
			value = EXCLUDED.value,
			updated_at = CURRENT_TIMESTAMP
	`, key, value)

	if err != nil {
		return fmt.Errorf("failed to set setting %s: %w", key, err)
	}

	return nil
}

// LastCheck returns the monitor watermark, ok=false when no sweep has ever run
func (r *SystemSettingsRepository) LastCheck(ctx context.Context) (time.Time, bool, error) {
	value, err := r.Get(ctx, lastCheckKey)
	if err != nil {
		// Absent key means first run ever, not a failure.
		return time.Time{}, false, nil
	}

	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("malformed watermark %q: %w", value, err)
	}
	return t, true, nil
}

// SetLastCheck records the monitor watermark
func (r *SystemSettingsRepository) SetLastCheck(ctx context.Context, t time.Time) error {
	return r.Set(ctx, lastCheckKey, t.Format(time.RFC3339Nano))
}
