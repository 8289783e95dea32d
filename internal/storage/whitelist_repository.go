package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/lookoupai/Low-price-tron-energy/internal/models"
	"github.com/lookoupai/Low-price-tron-energy/internal/types"
)

// WhitelistRepository handles the two whitelist keyspaces: single addresses
// keyed by (address, role) and pairs keyed by (payment, provider).
type WhitelistRepository struct {
	db *PostgresDB
}

// NewWhitelistRepository creates a new whitelist repository
func NewWhitelistRepository(db *PostgresDB) *WhitelistRepository {
	return &WhitelistRepository{db: db}
}

// UpsertAddress inserts or refreshes a single-role entry. Every conflict
// upsert increments success_count, the crude popularity signal.
func (r *WhitelistRepository) UpsertAddress(ctx context.Context, entry *models.WhitelistEntry) error {
	query := `
		INSERT INTO whitelist (address, address_type, reason, added_by, is_provisional)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), $5)
		ON CONFLICT (address, address_type)
		DO UPDATE SET
			reason = COALESCE(EXCLUDED.reason, whitelist.reason),
			is_active = true,
			is_provisional = EXCLUDED.is_provisional,
			success_count = whitelist.success_count + 1,
			added_at = NOW()
	`

	_, err := r.db.Pool().Exec(ctx, query,
		entry.Address,
		entry.Role,
		entry.Reason,
		entry.AddedBy,
		entry.Provisional,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert whitelist entry: %w", err)
	}
	return nil
}

// GetActiveAddress retrieves the active entry for (address, role), or nil.
func (r *WhitelistRepository) GetActiveAddress(ctx context.Context, address string, role types.Role) (*models.WhitelistEntry, error) {
	query := `
		SELECT address, address_type, COALESCE(reason, ''), COALESCE(added_by, ''),
		       added_at, is_active, is_provisional, success_count
		FROM whitelist
		WHERE address = $1 AND address_type = $2 AND is_active = true
	`

	var entry models.WhitelistEntry
	err := r.db.Pool().QueryRow(ctx, query, address, role).Scan(
		&entry.Address,
		&entry.Role,
		&entry.Reason,
		&entry.AddedBy,
		&entry.AddedAt,
		&entry.Active,
		&entry.Provisional,
		&entry.SuccessCount,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get whitelist entry: %w", err)
	}
	return &entry, nil
}

// DeactivateAddress soft-deletes the (address, role) row.
func (r *WhitelistRepository) DeactivateAddress(ctx context.Context, address string, role types.Role) error {
	query := `UPDATE whitelist SET is_active = false WHERE address = $1 AND address_type = $2`

	_, err := r.db.Pool().Exec(ctx, query, address, role)
	if err != nil {
		return fmt.Errorf("failed to deactivate whitelist entry: %w", err)
	}
	return nil
}

// UpsertPair inserts or refreshes a (payment, provider) pair, incrementing
// success_count and refreshing last_success_time on conflict.
func (r *WhitelistRepository) UpsertPair(ctx context.Context, pair *models.WhitelistPair) error {
	query := `
		INSERT INTO whitelist_pairs (payment_address, provider_address, is_provisional, added_by)
		VALUES ($1, $2, $3, NULLIF($4, ''))
		ON CONFLICT (payment_address, provider_address)
		DO UPDATE SET
			is_active = true,
			is_provisional = EXCLUDED.is_provisional,
			success_count = whitelist_pairs.success_count + 1,
			last_success_time = NOW()
	`

	_, err := r.db.Pool().Exec(ctx, query,
		pair.PaymentAddress,
		pair.ProviderAddress,
		pair.Provisional,
		pair.AddedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert whitelist pair: %w", err)
	}
	return nil
}

// GetActivePair retrieves the active pair row, or nil.
func (r *WhitelistRepository) GetActivePair(ctx context.Context, payment, provider string) (*models.WhitelistPair, error) {
	query := `
		SELECT payment_address, provider_address, success_count, last_success_time,
		       is_active, is_provisional, COALESCE(added_by, ''), created_at
		FROM whitelist_pairs
		WHERE payment_address = $1 AND provider_address = $2 AND is_active = true
	`

	var pair models.WhitelistPair
	err := r.db.Pool().QueryRow(ctx, query, payment, provider).Scan(
		&pair.PaymentAddress,
		&pair.ProviderAddress,
		&pair.SuccessCount,
		&pair.LastSuccessTime,
		&pair.Active,
		&pair.Provisional,
		&pair.AddedBy,
		&pair.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get whitelist pair: %w", err)
	}
	return &pair, nil
}

// Stats counts active rows in both keyspaces.
func (r *WhitelistRepository) Stats(ctx context.Context) (*types.WhitelistStats, error) {
	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE address_type = 'payment'),
			COUNT(*) FILTER (WHERE address_type = 'provider')
		FROM whitelist
		WHERE is_active = true
	`

	var stats types.WhitelistStats
	err := r.db.Pool().QueryRow(ctx, query).Scan(&stats.Addresses, &stats.Payment, &stats.Provider)
	if err != nil {
		return nil, fmt.Errorf("failed to get whitelist stats: %w", err)
	}

	err = r.db.Pool().QueryRow(ctx, `SELECT COUNT(*) FROM whitelist_pairs WHERE is_active = true`).Scan(&stats.Pairs)
	if err != nil {
		return nil, fmt.Errorf("failed to count whitelist pairs: %w", err)
	}
	return &stats, nil
}

// ListActiveAddresses returns every active single-role entry, newest first.
func (r *WhitelistRepository) ListActiveAddresses(ctx context.Context) ([]*models.WhitelistEntry, error) {
	query := `
		SELECT address, address_type, COALESCE(reason, ''), COALESCE(added_by, ''),
		       added_at, is_active, is_provisional, success_count
		FROM whitelist
		WHERE is_active = true
		ORDER BY added_at DESC
	`

	rows, err := r.db.Pool().Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list whitelist entries: %w", err)
	}
	defer rows.Close()

	var entries []*models.WhitelistEntry
	for rows.Next() {
		var entry models.WhitelistEntry
		err := rows.Scan(
			&entry.Address,
			&entry.Role,
			&entry.Reason,
			&entry.AddedBy,
			&entry.AddedAt,
			&entry.Active,
			&entry.Provisional,
			&entry.SuccessCount,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan whitelist entry: %w", err)
		}
		entries = append(entries, &entry)
	}
	return entries, rows.Err()
}

// ListActivePairs returns every active pair, most recently successful first.
func (r *WhitelistRepository) ListActivePairs(ctx context.Context) ([]*models.WhitelistPair, error) {
	query := `
		SELECT payment_address, provider_address, success_count, last_success_time,
		       is_active, is_provisional, COALESCE(added_by, ''), created_at
		FROM whitelist_pairs
		WHERE is_active = true
		ORDER BY last_success_time DESC
	`

	rows, err := r.db.Pool().Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list whitelist pairs: %w", err)
	}
	defer rows.Close()

	var pairs []*models.WhitelistPair
	for rows.Next() {
		var pair models.WhitelistPair
		err := rows.Scan(
			&pair.PaymentAddress,
			&pair.ProviderAddress,
			&pair.SuccessCount,
			&pair.LastSuccessTime,
			&pair.Active,
			&pair.Provisional,
			&pair.AddedBy,
			&pair.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan whitelist pair: %w", err)
		}
		pairs = append(pairs, &pair)
	}
	return pairs, rows.Err()
}
