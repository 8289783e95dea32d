package reputation

import (
	"context"
	"strings"
	"sync"

	"github.com/lookoupai/Low-price-tron-energy/internal/logging"
)

// SettingAssociationEnabled is the key gating association propagation.
const SettingAssociationEnabled = "association_enabled"

type settingsRepository interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
	SeedDefault(ctx context.Context, key, value string) error
}

// truthy is the set of string literals read as true, compared
// case-insensitively. Anything else, including unknown literals, is false.
var truthy = map[string]bool{
	"1":    true,
	"true": true,
	"yes":  true,
	"on":   true,
}

// SettingsStore reads and writes string-valued runtime settings. Propagation
// defaults to enabled: the default row is seeded on first access so a fresh
// database behaves the same as one where the toggle was never touched.
type SettingsStore struct {
	repo     settingsRepository
	logger   *logging.Logger
	seedOnce sync.Once
}

// NewSettingsStore creates a settings store over the given repository.
func NewSettingsStore(repo settingsRepository, logger *logging.Logger) *SettingsStore {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	return &SettingsStore{repo: repo, logger: logger}
}

func (s *SettingsStore) ensureSeeded(ctx context.Context) {
	s.seedOnce.Do(func() {
		if err := s.repo.SeedDefault(ctx, SettingAssociationEnabled, "true"); err != nil {
			s.logger.WithError(err).Error("failed to seed default settings")
		}
	})
}

// Get returns the stored value for key, or defaultValue when the key is
// absent or storage fails.
func (s *SettingsStore) Get(ctx context.Context, key, defaultValue string) string {
	s.ensureSeeded(ctx)

	value, found, err := s.repo.Get(ctx, key)
	if err != nil {
		s.logger.WithError(err).WithField("key", key).Error("failed to read setting")
		return defaultValue
	}
	if !found {
		return defaultValue
	}
	return value
}

// Set stores value under key.
func (s *SettingsStore) Set(ctx context.Context, key, value string) bool {
	s.ensureSeeded(ctx)

	if err := s.repo.Set(ctx, key, value); err != nil {
		s.logger.WithError(err).WithField("key", key).Error("failed to write setting")
		return false
	}
	s.logger.WithFields(map[string]interface{}{
		"key":   key,
		"value": value,
	}).Info("setting updated")
	return true
}

// IsAssociationEnabled reports whether distrust propagation is switched on.
// Storage failures read as false so a degraded service never auto-blacklists.
func (s *SettingsStore) IsAssociationEnabled(ctx context.Context) bool {
	s.ensureSeeded(ctx)

	value, found, err := s.repo.Get(ctx, SettingAssociationEnabled)
	if err != nil {
		s.logger.WithError(err).Error("failed to read association toggle, treating as disabled")
		return false
	}
	if !found {
		return true
	}
	return truthy[strings.ToLower(strings.TrimSpace(value))]
}

// SetAssociationEnabled flips the propagation toggle.
func (s *SettingsStore) SetAssociationEnabled(ctx context.Context, enabled bool) bool {
	value := "false"
	if enabled {
		value = "true"
	}
	return s.Set(ctx, SettingAssociationEnabled, value)
}
