package reputation

import (
	"context"
	"fmt"

	"github.com/lookoupai/Low-price-tron-energy/internal/types"
)

// StatsReporter merges the operational counters of both stores into one
// snapshot for the stats endpoint and the report tool.
type StatsReporter struct {
	blacklist *BlacklistStore
	whitelist *WhitelistStore
	settings  *SettingsStore
}

// NewStatsReporter creates a stats reporter over the three stores.
func NewStatsReporter(blacklist *BlacklistStore, whitelist *WhitelistStore, settings *SettingsStore) *StatsReporter {
	return &StatsReporter{
		blacklist: blacklist,
		whitelist: whitelist,
		settings:  settings,
	}
}

// Snapshot gathers all counters. Unlike the store read paths, a storage
// failure here is returned: a stats report built on partial data would
// mislead the operator reading it.
func (r *StatsReporter) Snapshot(ctx context.Context) (*types.ReputationStats, error) {
	blacklistStats, err := r.blacklist.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to gather blacklist stats: %w", err)
	}
	whitelistStats, err := r.whitelist.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to gather whitelist stats: %w", err)
	}
	edges, err := r.blacklist.EdgeCount(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count association edges: %w", err)
	}

	return &types.ReputationStats{
		Blacklist:          *blacklistStats,
		Whitelist:          *whitelistStats,
		AssociationEdges:   edges,
		AssociationEnabled: r.settings.IsAssociationEnabled(ctx),
	}, nil
}
