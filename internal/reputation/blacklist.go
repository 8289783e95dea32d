// Package reputation implements the address reputation engine: the
// blacklist and whitelist stores, the settings toggle, and the
// provider-to-payment distrust propagation algorithm.
package reputation

import (
	"context"
	"time"

	"github.com/lookoupai/Low-price-tron-energy/internal/logging"
	"github.com/lookoupai/Low-price-tron-energy/internal/models"
	"github.com/lookoupai/Low-price-tron-energy/internal/tron"
	"github.com/lookoupai/Low-price-tron-energy/internal/types"
)

// blacklistRepository is the persistence surface the store needs. The pgx
// implementation lives in internal/storage; tests supply fakes.
type blacklistRepository interface {
	Upsert(ctx context.Context, entry *models.BlacklistEntry) error
	GetActive(ctx context.Context, address string) (*models.BlacklistEntry, error)
	Deactivate(ctx context.Context, address string) error
	InsertEdge(ctx context.Context, source, target string) error
	Stats(ctx context.Context) (*types.BlacklistStats, error)
	EdgeCount(ctx context.Context) (int64, error)
}

// BlacklistStore manages untrustworthy addresses behind a read-through
// TTL cache. Storage failures degrade to false/nil results and are logged,
// never raised.
type BlacklistStore struct {
	repo   blacklistRepository
	cache  *entryCache
	logger *logging.Logger
}

// NewBlacklistStore creates a blacklist store with the given cache tuning.
func NewBlacklistStore(repo blacklistRepository, cacheSize int, cacheTTL time.Duration, logger *logging.Logger) *BlacklistStore {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	return &BlacklistStore{
		repo:   repo,
		cache:  newEntryCache(cacheSize, cacheTTL),
		logger: logger,
	}
}

// Add inserts or reactivates a blacklist entry. A structurally invalid
// address returns false without touching storage. The upsert always forces
// the entry active, overwrites the provisional flag, refreshes the
// timestamp, and keeps the stored reason when the new one is empty.
func (s *BlacklistStore) Add(ctx context.Context, address, reason, addedBy string, entryType types.EntryType, provisional bool) bool {
	if !tron.IsValidAddress(address) {
		return false
	}

	entry := &models.BlacklistEntry{
		Address:     address,
		Reason:      reason,
		Type:        entryType,
		AddedBy:     addedBy,
		Provisional: provisional,
	}
	if err := s.repo.Upsert(ctx, entry); err != nil {
		s.logger.WithError(err).WithField("address", address).Error("failed to add blacklist entry")
		return false
	}

	s.cache.invalidate(address)
	s.logger.WithField("address", address).Info("address added to blacklist")
	return true
}

// Check returns the active entry for address, or nil. Results, including
// negatives, are cached for the configured TTL. Invalid addresses resolve
// to nil without a storage read or a cache write.
func (s *BlacklistStore) Check(ctx context.Context, address string) *models.BlacklistEntry {
	if cached, ok := s.cache.get(address); ok {
		if cached == nil {
			return nil
		}
		return cached.(*models.BlacklistEntry)
	}

	if !tron.IsValidAddress(address) {
		return nil
	}

	entry, err := s.repo.GetActive(ctx, address)
	if err != nil {
		s.logger.WithError(err).WithField("address", address).Error("failed to check blacklist")
		return nil
	}

	if entry == nil {
		s.cache.put(address, nil)
		return nil
	}
	s.cache.put(address, entry)
	return entry
}

// Remove soft-deletes the entry for address. Removing an address that was
// never listed still returns true.
func (s *BlacklistStore) Remove(ctx context.Context, address string) bool {
	if !tron.IsValidAddress(address) {
		return false
	}

	if err := s.repo.Deactivate(ctx, address); err != nil {
		s.logger.WithError(err).WithField("address", address).Error("failed to remove blacklist entry")
		return false
	}

	s.cache.invalidate(address)
	s.logger.WithField("address", address).Info("address removed from blacklist")
	return true
}

// AddAssociation records a propagation edge from source to target. A
// repeated (source, target) pair is a silent no-op.
func (s *BlacklistStore) AddAssociation(ctx context.Context, source, target string) bool {
	if !tron.IsValidAddress(source) || !tron.IsValidAddress(target) {
		return false
	}

	if err := s.repo.InsertEdge(ctx, source, target); err != nil {
		s.logger.WithError(err).WithFields(map[string]interface{}{
			"source": source,
			"target": target,
		}).Error("failed to record association edge")
		return false
	}
	return true
}

// Stats counts active entries by type.
func (s *BlacklistStore) Stats(ctx context.Context) (*types.BlacklistStats, error) {
	return s.repo.Stats(ctx)
}

// EdgeCount returns the total number of recorded propagation edges.
func (s *BlacklistStore) EdgeCount(ctx context.Context) (int64, error) {
	return s.repo.EdgeCount(ctx)
}
