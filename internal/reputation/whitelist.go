package reputation

import (
	"context"
	"time"

	"github.com/lookoupai/Low-price-tron-energy/internal/logging"
	"github.com/lookoupai/Low-price-tron-energy/internal/models"
	"github.com/lookoupai/Low-price-tron-energy/internal/tron"
	"github.com/lookoupai/Low-price-tron-energy/internal/types"
)

type whitelistRepository interface {
	UpsertAddress(ctx context.Context, entry *models.WhitelistEntry) error
	GetActiveAddress(ctx context.Context, address string, role types.Role) (*models.WhitelistEntry, error)
	DeactivateAddress(ctx context.Context, address string, role types.Role) error
	UpsertPair(ctx context.Context, pair *models.WhitelistPair) error
	GetActivePair(ctx context.Context, payment, provider string) (*models.WhitelistPair, error)
	Stats(ctx context.Context) (*types.WhitelistStats, error)
}

// WhitelistStore manages the two trusted keyspaces: single addresses keyed
// by (address, role) and pairs keyed by (payment, provider). Single-address
// lookups go through the TTL cache; pair lookups always hit storage because
// the pair keyspace is written far more often than it is read.
type WhitelistStore struct {
	repo   whitelistRepository
	cache  *entryCache
	logger *logging.Logger
}

// NewWhitelistStore creates a whitelist store with the given cache tuning.
func NewWhitelistStore(repo whitelistRepository, cacheSize int, cacheTTL time.Duration, logger *logging.Logger) *WhitelistStore {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	return &WhitelistStore{
		repo:   repo,
		cache:  newEntryCache(cacheSize, cacheTTL),
		logger: logger,
	}
}

// addressKey builds the cache key for a single-role entry. The same address
// can be cached independently under both roles.
func addressKey(address string, role types.Role) string {
	return address + ":" + string(role)
}

// AddAddress inserts or refreshes a single-role entry. A repeated add for
// the same (address, role) increments its success count.
func (s *WhitelistStore) AddAddress(ctx context.Context, address string, role types.Role, reason, addedBy string, provisional bool) bool {
	if !tron.IsValidAddress(address) || !role.Valid() {
		return false
	}

	entry := &models.WhitelistEntry{
		Address:     address,
		Role:        role,
		Reason:      reason,
		AddedBy:     addedBy,
		Provisional: provisional,
	}
	if err := s.repo.UpsertAddress(ctx, entry); err != nil {
		s.logger.WithError(err).WithFields(map[string]interface{}{
			"address": address,
			"role":    role,
		}).Error("failed to add whitelist entry")
		return false
	}

	s.cache.invalidate(addressKey(address, role))
	s.logger.WithFields(map[string]interface{}{
		"address": address,
		"role":    role,
	}).Info("address added to whitelist")
	return true
}

// CheckAddress returns the active entry for (address, role), or nil.
// Results, including negatives, are cached for the configured TTL.
func (s *WhitelistStore) CheckAddress(ctx context.Context, address string, role types.Role) *models.WhitelistEntry {
	if !role.Valid() {
		return nil
	}

	key := addressKey(address, role)
	if cached, ok := s.cache.get(key); ok {
		if cached == nil {
			return nil
		}
		return cached.(*models.WhitelistEntry)
	}

	if !tron.IsValidAddress(address) {
		return nil
	}

	entry, err := s.repo.GetActiveAddress(ctx, address, role)
	if err != nil {
		s.logger.WithError(err).WithField("address", address).Error("failed to check whitelist")
		return nil
	}

	if entry == nil {
		s.cache.put(key, nil)
		return nil
	}
	s.cache.put(key, entry)
	return entry
}

// RemoveAddress soft-deletes the (address, role) entry. Removing an entry
// that was never listed still returns true.
func (s *WhitelistStore) RemoveAddress(ctx context.Context, address string, role types.Role) bool {
	if !tron.IsValidAddress(address) || !role.Valid() {
		return false
	}

	if err := s.repo.DeactivateAddress(ctx, address, role); err != nil {
		s.logger.WithError(err).WithFields(map[string]interface{}{
			"address": address,
			"role":    role,
		}).Error("failed to remove whitelist entry")
		return false
	}

	s.cache.invalidate(addressKey(address, role))
	s.logger.WithFields(map[string]interface{}{
		"address": address,
		"role":    role,
	}).Info("address removed from whitelist")
	return true
}

// AddPair inserts or refreshes a (payment, provider) pair. A repeated add
// increments its success count and refreshes the last success time.
func (s *WhitelistStore) AddPair(ctx context.Context, payment, provider, addedBy string, provisional bool) bool {
	if !tron.IsValidAddress(payment) || !tron.IsValidAddress(provider) {
		return false
	}

	pair := &models.WhitelistPair{
		PaymentAddress:  payment,
		ProviderAddress: provider,
		AddedBy:         addedBy,
		Provisional:     provisional,
	}
	if err := s.repo.UpsertPair(ctx, pair); err != nil {
		s.logger.WithError(err).WithFields(map[string]interface{}{
			"payment":  payment,
			"provider": provider,
		}).Error("failed to add whitelist pair")
		return false
	}

	s.logger.WithFields(map[string]interface{}{
		"payment":  payment,
		"provider": provider,
	}).Info("pair added to whitelist")
	return true
}

// CheckPair returns the active pair row, or nil. Pair lookups are never
// cached so a fresh success is visible immediately.
func (s *WhitelistStore) CheckPair(ctx context.Context, payment, provider string) *models.WhitelistPair {
	if !tron.IsValidAddress(payment) || !tron.IsValidAddress(provider) {
		return nil
	}

	pair, err := s.repo.GetActivePair(ctx, payment, provider)
	if err != nil {
		s.logger.WithError(err).WithFields(map[string]interface{}{
			"payment":  payment,
			"provider": provider,
		}).Error("failed to check whitelist pair")
		return nil
	}
	return pair
}

// Stats counts active rows in both keyspaces.
func (s *WhitelistStore) Stats(ctx context.Context) (*types.WhitelistStats, error) {
	return s.repo.Stats(ctx)
}
