package reputation

import (
	"context"
	"time"

	"github.com/lookoupai/Low-price-tron-energy/internal/logging"
	"github.com/lookoupai/Low-price-tron-energy/internal/models"
	"github.com/lookoupai/Low-price-tron-energy/internal/types"
)

func testLogger() *logging.Logger {
	return logging.NewLogger(logging.LevelFatal, logging.FormatText)
}

// fakeBlacklistRepo is an in-memory blacklistRepository with call counters
// and per-method error injection.
type fakeBlacklistRepo struct {
	entries map[string]*models.BlacklistEntry
	edges   map[string]bool

	getCalls    int
	upsertCalls int

	upsertErr     error
	getErr        error
	deactivateErr error
	insertEdgeErr error
}

func newFakeBlacklistRepo() *fakeBlacklistRepo {
	return &fakeBlacklistRepo{
		entries: make(map[string]*models.BlacklistEntry),
		edges:   make(map[string]bool),
	}
}

func (f *fakeBlacklistRepo) Upsert(ctx context.Context, entry *models.BlacklistEntry) error {
	f.upsertCalls++
	if f.upsertErr != nil {
		return f.upsertErr
	}
	stored, exists := f.entries[entry.Address]
	reason := entry.Reason
	if exists && reason == "" {
		reason = stored.Reason
	}
	f.entries[entry.Address] = &models.BlacklistEntry{
		Address:     entry.Address,
		Reason:      reason,
		Type:        entry.Type,
		AddedBy:     entry.AddedBy,
		AddedAt:     time.Now(),
		Active:      true,
		Provisional: entry.Provisional,
	}
	return nil
}

func (f *fakeBlacklistRepo) GetActive(ctx context.Context, address string) (*models.BlacklistEntry, error) {
	f.getCalls++
	if f.getErr != nil {
		return nil, f.getErr
	}
	entry, ok := f.entries[address]
	if !ok || !entry.Active {
		return nil, nil
	}
	copied := *entry
	return &copied, nil
}

func (f *fakeBlacklistRepo) Deactivate(ctx context.Context, address string) error {
	if f.deactivateErr != nil {
		return f.deactivateErr
	}
	if entry, ok := f.entries[address]; ok {
		entry.Active = false
	}
	return nil
}

func (f *fakeBlacklistRepo) InsertEdge(ctx context.Context, source, target string) error {
	if f.insertEdgeErr != nil {
		return f.insertEdgeErr
	}
	f.edges[source+"->"+target] = true
	return nil
}

func (f *fakeBlacklistRepo) Stats(ctx context.Context) (*types.BlacklistStats, error) {
	stats := &types.BlacklistStats{}
	for _, entry := range f.entries {
		if !entry.Active {
			continue
		}
		stats.Total++
		switch entry.Type {
		case types.EntryManual:
			stats.Manual++
		case types.EntryAutoAssociated:
			stats.AutoAssociated++
		}
		if entry.Provisional {
			stats.Provisional++
		}
	}
	return stats, nil
}

func (f *fakeBlacklistRepo) EdgeCount(ctx context.Context) (int64, error) {
	return int64(len(f.edges)), nil
}

type pairKey struct {
	payment  string
	provider string
}

// fakeWhitelistRepo is an in-memory whitelistRepository.
type fakeWhitelistRepo struct {
	addresses map[string]*models.WhitelistEntry
	pairs     map[pairKey]*models.WhitelistPair

	getAddressCalls int
	getPairCalls    int

	upsertAddressErr error
	getAddressErr    error
	upsertPairErr    error
	getPairErr       error
}

func newFakeWhitelistRepo() *fakeWhitelistRepo {
	return &fakeWhitelistRepo{
		addresses: make(map[string]*models.WhitelistEntry),
		pairs:     make(map[pairKey]*models.WhitelistPair),
	}
}

func (f *fakeWhitelistRepo) UpsertAddress(ctx context.Context, entry *models.WhitelistEntry) error {
	if f.upsertAddressErr != nil {
		return f.upsertAddressErr
	}
	key := addressKey(entry.Address, entry.Role)
	if stored, ok := f.addresses[key]; ok {
		stored.SuccessCount++
		stored.Active = true
		return nil
	}
	f.addresses[key] = &models.WhitelistEntry{
		Address:      entry.Address,
		Role:         entry.Role,
		Reason:       entry.Reason,
		AddedBy:      entry.AddedBy,
		AddedAt:      time.Now(),
		Active:       true,
		Provisional:  entry.Provisional,
		SuccessCount: 1,
	}
	return nil
}

func (f *fakeWhitelistRepo) GetActiveAddress(ctx context.Context, address string, role types.Role) (*models.WhitelistEntry, error) {
	f.getAddressCalls++
	if f.getAddressErr != nil {
		return nil, f.getAddressErr
	}
	entry, ok := f.addresses[addressKey(address, role)]
	if !ok || !entry.Active {
		return nil, nil
	}
	copied := *entry
	return &copied, nil
}

func (f *fakeWhitelistRepo) DeactivateAddress(ctx context.Context, address string, role types.Role) error {
	if entry, ok := f.addresses[addressKey(address, role)]; ok {
		entry.Active = false
	}
	return nil
}

func (f *fakeWhitelistRepo) UpsertPair(ctx context.Context, pair *models.WhitelistPair) error {
	if f.upsertPairErr != nil {
		return f.upsertPairErr
	}
	key := pairKey{payment: pair.PaymentAddress, provider: pair.ProviderAddress}
	if stored, ok := f.pairs[key]; ok {
		stored.SuccessCount++
		stored.LastSuccessTime = time.Now()
		stored.Active = true
		return nil
	}
	f.pairs[key] = &models.WhitelistPair{
		PaymentAddress:  pair.PaymentAddress,
		ProviderAddress: pair.ProviderAddress,
		SuccessCount:    1,
		LastSuccessTime: time.Now(),
		Active:          true,
		Provisional:     pair.Provisional,
		AddedBy:         pair.AddedBy,
		CreatedAt:       time.Now(),
	}
	return nil
}

func (f *fakeWhitelistRepo) GetActivePair(ctx context.Context, payment, provider string) (*models.WhitelistPair, error) {
	f.getPairCalls++
	if f.getPairErr != nil {
		return nil, f.getPairErr
	}
	pair, ok := f.pairs[pairKey{payment: payment, provider: provider}]
	if !ok || !pair.Active {
		return nil, nil
	}
	copied := *pair
	return &copied, nil
}

func (f *fakeWhitelistRepo) Stats(ctx context.Context) (*types.WhitelistStats, error) {
	stats := &types.WhitelistStats{}
	for _, entry := range f.addresses {
		if !entry.Active {
			continue
		}
		stats.Addresses++
		switch entry.Role {
		case types.RolePayment:
			stats.Payment++
		case types.RoleProvider:
			stats.Provider++
		}
	}
	for _, pair := range f.pairs {
		if pair.Active {
			stats.Pairs++
		}
	}
	return stats, nil
}

// fakeSettingsRepo is an in-memory settingsRepository.
type fakeSettingsRepo struct {
	values map[string]string

	seedCalls int
	getCalls  int
	getErr    error
	setErr    error
	seedErr   error
}

func newFakeSettingsRepo() *fakeSettingsRepo {
	return &fakeSettingsRepo{values: make(map[string]string)}
}

func (f *fakeSettingsRepo) Get(ctx context.Context, key string) (string, bool, error) {
	f.getCalls++
	if f.getErr != nil {
		return "", false, f.getErr
	}
	value, ok := f.values[key]
	return value, ok, nil
}

func (f *fakeSettingsRepo) Set(ctx context.Context, key, value string) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.values[key] = value
	return nil
}

func (f *fakeSettingsRepo) SeedDefault(ctx context.Context, key, value string) error {
	f.seedCalls++
	if f.seedErr != nil {
		return f.seedErr
	}
	if _, ok := f.values[key]; !ok {
		f.values[key] = value
	}
	return nil
}
