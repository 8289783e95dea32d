package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// SettingsRepository persists string-valued settings keyed by name.
type SettingsRepository struct {
	db *PostgresDB
}

// NewSettingsRepository creates a new settings repository
func NewSettingsRepository(db *PostgresDB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// Get returns the stored value for key. found is false when the key is
// absent; that is not an error.
func (r *SettingsRepository) Get(ctx context.Context, key string) (value string, found bool, err error) {
	query := `SELECT value FROM settings WHERE key = $1`

	err = r.db.Pool().QueryRow(ctx, query, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to get setting: %w", err)
	}
	return value, true, nil
}

// Set upserts the value for key and refreshes its timestamp.
func (r *SettingsRepository) Set(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO settings (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key)
		DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
	`

	_, err := r.db.Pool().Exec(ctx, query, key, value)
	if err != nil {
		return fmt.Errorf("failed to set setting: %w", err)
	}
	return nil
}

// SeedDefault writes value for key only if the key does not exist yet.
func (r *SettingsRepository) SeedDefault(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO settings (key, value)
		VALUES ($1, $2)
		ON CONFLICT (key) DO NOTHING
	`

	_, err := r.db.Pool().Exec(ctx, query, key, value)
	if err != nil {
		return fmt.Errorf("failed to seed setting default: %w", err)
	}
	return nil
}
