package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/lookoupai/Low-price-tron-energy/internal/models"
	"github.com/lookoupai/Low-price-tron-energy/internal/types"
)

// BlacklistRepository handles blacklist and association-edge persistence.
// Address validation and caching live above it in the reputation package.
type BlacklistRepository struct {
	db *PostgresDB
}

// NewBlacklistRepository creates a new blacklist repository
func NewBlacklistRepository(db *PostgresDB) *BlacklistRepository {
	return &BlacklistRepository{db: db}
}

// Upsert inserts or reactivates a blacklist entry. On conflict the stored
// reason survives unless the new one is non-empty, is_active is forced
// true, is_provisional is overwritten, and the timestamp is refreshed.
func (r *BlacklistRepository) Upsert(ctx context.Context, entry *models.BlacklistEntry) error {
	if entry.Type == "" {
		entry.Type = types.EntryManual
	}

	query := `
		INSERT INTO blacklist (address, reason, type, added_by, is_provisional)
		VALUES ($1, NULLIF($2, ''), $3, NULLIF($4, ''), $5)
		ON CONFLICT (address)
		DO UPDATE SET
			reason = COALESCE(EXCLUDED.reason, blacklist.reason),
			type = EXCLUDED.type,
			is_active = true,
			is_provisional = EXCLUDED.is_provisional,
			added_at = NOW()
	`

	_, err := r.db.Pool().Exec(ctx, query,
		entry.Address,
		entry.Reason,
		entry.Type,
		entry.AddedBy,
		entry.Provisional,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert blacklist entry: %w", err)
	}
	return nil
}

// GetActive retrieves the active entry for an address, or nil without error
// when no active row exists.
func (r *BlacklistRepository) GetActive(ctx context.Context, address string) (*models.BlacklistEntry, error) {
	query := `
		SELECT address, COALESCE(reason, ''), type, COALESCE(added_by, ''),
		       added_at, is_active, is_provisional
		FROM blacklist
		WHERE address = $1 AND is_active = true
	`

	var entry models.BlacklistEntry
	err := r.db.Pool().QueryRow(ctx, query, address).Scan(
		&entry.Address,
		&entry.Reason,
		&entry.Type,
		&entry.AddedBy,
		&entry.AddedAt,
		&entry.Active,
		&entry.Provisional,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get blacklist entry: %w", err)
	}
	return &entry, nil
}

// Deactivate soft-deletes the row for an address. Deactivating an unknown
// address is not an error.
func (r *BlacklistRepository) Deactivate(ctx context.Context, address string) error {
	query := `UPDATE blacklist SET is_active = false WHERE address = $1`

	_, err := r.db.Pool().Exec(ctx, query, address)
	if err != nil {
		return fmt.Errorf("failed to deactivate blacklist entry: %w", err)
	}
	return nil
}

// InsertEdge records one propagation edge. A duplicate (source, target)
// pair is silently ignored.
func (r *BlacklistRepository) InsertEdge(ctx context.Context, source, target string) error {
	query := `
		INSERT INTO association_edges (source_address, target_address)
		VALUES ($1, $2)
		ON CONFLICT (source_address, target_address) DO NOTHING
	`

	_, err := r.db.Pool().Exec(ctx, query, source, target)
	if err != nil {
		return fmt.Errorf("failed to insert association edge: %w", err)
	}
	return nil
}

// Stats counts active rows by entry type.
func (r *BlacklistRepository) Stats(ctx context.Context) (*types.BlacklistStats, error) {
	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE type = 'manual'),
			COUNT(*) FILTER (WHERE type = 'auto_associated'),
			COUNT(*) FILTER (WHERE is_provisional)
		FROM blacklist
		WHERE is_active = true
	`

	var stats types.BlacklistStats
	err := r.db.Pool().QueryRow(ctx, query).Scan(
		&stats.Total,
		&stats.Manual,
		&stats.AutoAssociated,
		&stats.Provisional,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get blacklist stats: %w", err)
	}
	return &stats, nil
}

// EdgeCount returns the total number of recorded propagation edges.
func (r *BlacklistRepository) EdgeCount(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.Pool().QueryRow(ctx, `SELECT COUNT(*) FROM association_edges`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count association edges: %w", err)
	}
	return count, nil
}

// RecentEdges returns the newest propagation edges, for reporting.
func (r *BlacklistRepository) RecentEdges(ctx context.Context, limit int) ([]*models.AssociationEdge, error) {
	query := `
		SELECT source_address, target_address, created_at
		FROM association_edges
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := r.db.Pool().Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list association edges: %w", err)
	}
	defer rows.Close()

	var edges []*models.AssociationEdge
	for rows.Next() {
		var edge models.AssociationEdge
		if err := rows.Scan(&edge.SourceAddress, &edge.TargetAddress, &edge.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan association edge: %w", err)
		}
		edges = append(edges, &edge)
	}
	return edges, rows.Err()
}

// ListEdges returns every recorded edge, oldest first, for export and
// archival tooling.
func (r *BlacklistRepository) ListEdges(ctx context.Context) ([]*models.AssociationEdge, error) {
	query := `
		SELECT source_address, target_address, created_at
		FROM association_edges
		ORDER BY created_at
	`

	rows, err := r.db.Pool().Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list association edges: %w", err)
	}
	defer rows.Close()

	var edges []*models.AssociationEdge
	for rows.Next() {
		var edge models.AssociationEdge
		if err := rows.Scan(&edge.SourceAddress, &edge.TargetAddress, &edge.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan association edge: %w", err)
		}
		edges = append(edges, &edge)
	}
	return edges, rows.Err()
}

// RecentAutoAssociated returns the newest active auto-associated entries.
func (r *BlacklistRepository) RecentAutoAssociated(ctx context.Context, limit int) ([]*models.BlacklistEntry, error) {
	query := `
		SELECT address, COALESCE(reason, ''), type, COALESCE(added_by, ''),
		       added_at, is_active, is_provisional
		FROM blacklist
		WHERE type = 'auto_associated' AND is_active = true
		ORDER BY added_at DESC
		LIMIT $1
	`

	rows, err := r.db.Pool().Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list auto-associated entries: %w", err)
	}
	defer rows.Close()

	return scanBlacklistEntries(rows)
}

// ListActive returns every active blacklist entry, newest first.
func (r *BlacklistRepository) ListActive(ctx context.Context) ([]*models.BlacklistEntry, error) {
	query := `
		SELECT address, COALESCE(reason, ''), type, COALESCE(added_by, ''),
		       added_at, is_active, is_provisional
		FROM blacklist
		WHERE is_active = true
		ORDER BY added_at DESC
	`

	rows, err := r.db.Pool().Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list blacklist entries: %w", err)
	}
	defer rows.Close()

	return scanBlacklistEntries(rows)
}

func scanBlacklistEntries(rows pgx.Rows) ([]*models.BlacklistEntry, error) {
	var entries []*models.BlacklistEntry
	for rows.Next() {
		var entry models.BlacklistEntry
		err := rows.Scan(
			&entry.Address,
			&entry.Reason,
			&entry.Type,
			&entry.AddedBy,
			&entry.AddedAt,
			&entry.Active,
			&entry.Provisional,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan blacklist entry: %w", err)
		}
		entries = append(entries, &entry)
	}
	return entries, rows.Err()
}
