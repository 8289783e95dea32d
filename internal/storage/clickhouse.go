package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/lookoupai/Low-price-tron-energy/internal/config"
	"github.com/lookoupai/Low-price-tron-energy/internal/models"
)

// ClickHouseDB wraps the ClickHouse connection used for long-term retention
// of the append-only association edge log.
type ClickHouseDB struct {
	conn driver.Conn
}

// NewClickHouseDB creates a new ClickHouse database connection
func NewClickHouseDB(cfg *config.ClickHouseConfig) (*ClickHouseDB, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{fmt.Sprintf("%s:%s", cfg.Host, cfg.Port)},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.User,
			Password: cfg.Password,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		DialTimeout:      10 * time.Second,
		MaxOpenConns:     5,
		MaxIdleConns:     2,
		ConnMaxLifetime:  time.Hour,
		ConnOpenStrategy: clickhouse.ConnOpenInOrder,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := conn.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	return &ClickHouseDB{conn: conn}, nil
}

// Close closes the ClickHouse connection
func (db *ClickHouseDB) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}

// Ping checks if the database is reachable
func (db *ClickHouseDB) Ping(ctx context.Context) error {
	return db.conn.Ping(ctx)
}

// EnsureEdgeArchive creates the archive table if it does not exist.
func (db *ClickHouseDB) EnsureEdgeArchive(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS association_edges_archive (
			source_address String,
			target_address String,
			created_at     DateTime64(3)
		) ENGINE = ReplacingMergeTree
		ORDER BY (source_address, target_address, created_at)
	`
	if err := db.conn.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create edge archive table: %w", err)
	}
	return nil
}

// ArchiveEdges batch-inserts edges into the archive table. Re-archiving the
// same edges is harmless: the ReplacingMergeTree collapses duplicates.
func (db *ClickHouseDB) ArchiveEdges(ctx context.Context, edges []*models.AssociationEdge) error {
	if len(edges) == 0 {
		return nil
	}

	batch, err := db.conn.PrepareBatch(ctx, `
		INSERT INTO association_edges_archive (source_address, target_address, created_at)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare edge archive batch: %w", err)
	}

	for _, edge := range edges {
		if err := batch.Append(edge.SourceAddress, edge.TargetAddress, edge.CreatedAt); err != nil {
			return fmt.Errorf("failed to append edge to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("failed to send edge archive batch: %w", err)
	}
	return nil
}

// ArchivedEdgeCount returns the number of archived edges.
func (db *ClickHouseDB) ArchivedEdgeCount(ctx context.Context) (uint64, error) {
	var count uint64
	err := db.conn.QueryRow(ctx, `SELECT COUNT() FROM association_edges_archive`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count archived edges: %w", err)
	}
	return count, nil
}
