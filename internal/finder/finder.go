package finder

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/lookoupai/Low-price-tron-energy/internal/config"
	"github.com/lookoupai/Low-price-tron-energy/internal/logging"
	"github.com/lookoupai/Low-price-tron-energy/internal/reputation"
	"github.com/lookoupai/Low-price-tron-energy/internal/storage"
	"github.com/lookoupai/Low-price-tron-energy/internal/types"
)

// Qualification thresholds for a payment address, all observed over the
// last 24 hours of its history.
const (
	minPaymentTRX      = 0.1
	maxPaymentTRX      = 1.0
	minRepeatCount     = 5
	minRecentTransfers = 20

	// estimated energy yield per staked TRX when the API omits resourceValue
	energyPerTRX = 11.3661

	accountTxPageSize = 50
)

// Redis cache TTLs for the three crawler caches.
const (
	blockCacheTTL   = 30 * time.Second
	txInfoCacheTTL  = 5 * time.Minute
	resultsCacheTTL = 60 * time.Second
)

// tronAPI is the TronScan surface the crawler needs; tests supply fakes.
type tronAPI interface {
	LatestBlock(ctx context.Context) (int64, error)
	BlockTransactions(ctx context.Context, blockNumber int64) ([]*Transaction, error)
	AccountTransactions(ctx context.Context, address string, limit int) ([]*Transaction, error)
	TransactionInfo(ctx context.Context, hash string) (*TransactionInfo, error)
}

// ReputationSummary is the reputation decoration attached to a candidate:
// whitelist standing, blacklist flags, and whether discovering the pair
// triggered a propagation.
type ReputationSummary struct {
	PairTrusted     bool   `json:"pairTrusted"`
	PaymentTrusted  bool   `json:"paymentTrusted"`
	ProviderTrusted bool   `json:"providerTrusted"`
	PaymentFlagged  bool   `json:"paymentFlagged"`
	ProviderFlagged bool   `json:"providerFlagged"`
	Propagated      bool   `json:"propagated"`
	Warning         string `json:"warning,omitempty"`
}

// Candidate is one qualified low-cost energy deal: a payment address that
// repeatedly collects small identical TRX amounts and the provider that
// delegated energy to its customers.
type Candidate struct {
	PaymentAddress  string             `json:"paymentAddress"`
	ProviderAddress string             `json:"providerAddress"`
	PurchaseAmount  float64            `json:"purchaseAmount"`
	EnergyQuantity  float64            `json:"energyQuantity"`
	EnergyEstimated bool               `json:"energyEstimated"`
	PaymentTxHash   string             `json:"paymentTxHash"`
	DelegateTxHash  string             `json:"delegateTxHash"`
	RecentTxCount   int                `json:"recentTxCount"`
	FoundAt         time.Time          `json:"foundAt"`
	Reputation      *ReputationSummary `json:"reputation,omitempty"`
}

// Finder walks recent blocks for energy delegations and qualifies the
// payment addresses behind them. A Finder is not safe for concurrent Scan
// calls; run one scan loop per process.
type Finder struct {
	api        tronAPI
	cache      *storage.RedisCache
	whitelist  *reputation.WhitelistStore
	propagator *reputation.Propagator
	logger     *logging.Logger

	maxBlocks  int
	resultsDir string

	// addresses already analyzed in the current scan
	analyzed map[string]bool

	now func() time.Time
}

// NewFinder creates a crawler. cache may be nil to disable the Redis
// caches; whitelist and propagator may be nil to skip reputation
// decoration.
func NewFinder(api tronAPI, cache *storage.RedisCache, whitelist *reputation.WhitelistStore, propagator *reputation.Propagator, cfg *config.FinderConfig, logger *logging.Logger) *Finder {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	return &Finder{
		api:        api,
		cache:      cache,
		whitelist:  whitelist,
		propagator: propagator,
		logger:     logger,
		maxBlocks:  cfg.MaxBlocksToScan,
		resultsDir: cfg.ResultsDir,
		now:        time.Now,
	}
}

// Scan checks the newest blocks for energy delegations and returns the
// first qualified candidate, decorated with reputation data. The result is
// cached so chat-style callers polling every few seconds reuse one scan.
func (f *Finder) Scan(ctx context.Context) ([]*Candidate, error) {
	resultsKey := storage.Key("finder", "results")
	var cached []*Candidate
	if f.cacheGet(ctx, resultsKey, &cached) {
		f.logger.Debug("serving cached scan results")
		return cached, nil
	}

	latest, err := f.api.LatestBlock(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch latest block: %w", err)
	}
	f.logger.WithField("block", latest).Info("starting scan")

	f.analyzed = make(map[string]bool)

	var found []*Candidate
	for i := 0; i < f.maxBlocks; i++ {
		blockNumber := latest - int64(i)

		delegations, err := f.blockDelegations(ctx, blockNumber)
		if err != nil {
			f.logger.WithError(err).WithField("block", blockNumber).Warn("failed to fetch block transactions")
			continue
		}
		f.logger.WithFields(map[string]interface{}{
			"block":       blockNumber,
			"delegations": len(delegations),
		}).Debug("block checked")

		for _, tx := range delegations {
			receiver := tx.ContractData.ReceiverAddress
			if receiver == "" {
				continue
			}
			candidate, err := f.analyzeReceiver(ctx, receiver)
			if err != nil {
				f.logger.WithError(err).WithField("address", receiver).Warn("failed to analyze receiver")
				continue
			}
			if candidate == nil {
				continue
			}

			f.decorate(ctx, candidate)
			found = append(found, candidate)
			f.cachePut(ctx, resultsKey, found, resultsCacheTTL)
			if err := f.saveResults(found); err != nil {
				f.logger.WithError(err).Warn("failed to save scan results")
			}
			f.logger.WithField("address", candidate.PaymentAddress).Info("qualified candidate found, stopping scan")
			return found, nil
		}
	}

	// cache the empty outcome too, so a dry patch of blocks is not rescanned
	f.cachePut(ctx, resultsKey, found, resultsCacheTTL)
	return found, nil
}

// blockDelegations returns the ENERGY delegation transactions of a block,
// cached briefly so overlapping scans skip the pagination.
func (f *Finder) blockDelegations(ctx context.Context, blockNumber int64) ([]*Transaction, error) {
	key := storage.Key("finder", "block", strconv.FormatInt(blockNumber, 10))
	var cached []*Transaction
	if f.cacheGet(ctx, key, &cached) {
		return cached, nil
	}

	all, err := f.api.BlockTransactions(ctx, blockNumber)
	if err != nil {
		return nil, err
	}

	var delegations []*Transaction
	for _, tx := range all {
		if tx.ContractType != ContractDelegateResource {
			continue
		}
		data := tx.ContractData
		if data.Resource == "ENERGY" && data.OwnerAddress != "" && data.ReceiverAddress != "" {
			delegations = append(delegations, tx)
		}
	}

	f.cachePut(ctx, key, delegations, blockCacheTTL)
	return delegations, nil
}

// analyzeReceiver inspects the delegated address's recent history: find the
// energy delegation, then the small TRX payment preceding it, then qualify
// the address that collected the payment. Each address is analyzed at most
// once per scan.
func (f *Finder) analyzeReceiver(ctx context.Context, address string) (*Candidate, error) {
	if f.analyzed[address] {
		return nil, nil
	}
	f.analyzed[address] = true

	txs, err := f.api.AccountTransactions(ctx, address, accountTxPageSize)
	if err != nil {
		return nil, err
	}

	for i, tx := range txs {
		if tx.ContractType != ContractDelegateResource || tx.ContractData.Resource != "ENERGY" {
			continue
		}
		provider := tx.ContractData.OwnerAddress

		// transactions are newest first, so the payment precedes the
		// delegation further down the list
		for _, prev := range txs[i+1:] {
			if prev.ContractType != ContractTransfer || prev.Timestamp >= tx.Timestamp {
				continue
			}
			amount := roundTRX(prev.AmountTRX())
			if amount < minPaymentTRX || amount > maxPaymentTRX {
				continue
			}

			payment := prev.ToAddress
			total, repeated, qualified, err := f.qualifyPayment(ctx, payment)
			if err != nil {
				f.logger.WithError(err).WithField("address", payment).Warn("failed to qualify payment address")
				continue
			}
			if !qualified {
				continue
			}

			energy, estimated := f.energyAmount(ctx, tx)
			return &Candidate{
				PaymentAddress:  payment,
				ProviderAddress: provider,
				PurchaseAmount:  repeated,
				EnergyQuantity:  energy,
				EnergyEstimated: estimated,
				PaymentTxHash:   prev.Hash,
				DelegateTxHash:  tx.Hash,
				RecentTxCount:   total,
				FoundAt:         f.now(),
			}, nil
		}
	}
	return nil, nil
}

// qualifyPayment counts the small TRX transfers the address collected in
// the last 24 hours. It qualifies when at least minRepeatCount share one
// amount and at least minRecentTransfers arrived in total. The dominant
// amount is returned as the going price.
func (f *Finder) qualifyPayment(ctx context.Context, address string) (total int, repeated float64, qualified bool, err error) {
	txs, err := f.api.AccountTransactions(ctx, address, accountTxPageSize)
	if err != nil {
		return 0, 0, false, err
	}

	cutoff := f.now().Add(-24 * time.Hour).UnixMilli()
	amountCount := make(map[float64]int)
	for _, tx := range txs {
		if tx.Timestamp < cutoff || tx.ContractType != ContractTransfer {
			continue
		}
		amount := roundTRX(tx.AmountTRX())
		if amount < minPaymentTRX || amount > maxPaymentTRX {
			continue
		}
		amountCount[amount]++
		total++
	}

	maxCount := 0
	for amount, count := range amountCount {
		if count > maxCount {
			maxCount = count
			repeated = amount
		}
	}
	return total, repeated, maxCount >= minRepeatCount && total >= minRecentTransfers, nil
}

// energyAmount resolves the delegated energy: the explicit resourceValue
// from the transaction detail when available, otherwise an estimate from
// the staked balance.
func (f *Finder) energyAmount(ctx context.Context, tx *Transaction) (float64, bool) {
	key := storage.Key("finder", "txinfo", tx.Hash)
	var info TransactionInfo
	if !f.cacheGet(ctx, key, &info) {
		fetched, err := f.api.TransactionInfo(ctx, tx.Hash)
		if err != nil {
			f.logger.WithError(err).WithField("hash", tx.Hash).Warn("failed to fetch transaction info")
			return tx.ContractData.BalanceTRX() * energyPerTRX, true
		}
		info = *fetched
		f.cachePut(ctx, key, info, txInfoCacheTTL)
	}

	if value, ok := info.ContractData.EnergyValue(); ok {
		return value, false
	}
	if trx := info.ContractData.BalanceTRX(); trx > 0 {
		return trx * energyPerTRX, true
	}
	return tx.ContractData.BalanceTRX() * energyPerTRX, true
}

// decorate attaches the reputation view of the candidate pair, running the
// propagation evaluation as a side effect.
func (f *Finder) decorate(ctx context.Context, c *Candidate) {
	if f.whitelist == nil || f.propagator == nil {
		return
	}

	summary := &ReputationSummary{
		PairTrusted:     f.whitelist.CheckPair(ctx, c.PaymentAddress, c.ProviderAddress) != nil,
		PaymentTrusted:  f.whitelist.CheckAddress(ctx, c.PaymentAddress, types.RolePayment) != nil,
		ProviderTrusted: f.whitelist.CheckAddress(ctx, c.ProviderAddress, types.RoleProvider) != nil,
	}

	result := f.propagator.Evaluate(ctx, c.PaymentAddress, c.ProviderAddress)
	summary.PaymentFlagged = result.PaymentFlagged
	summary.ProviderFlagged = result.ProviderFlagged
	summary.Propagated = result.Propagated
	summary.Warning = result.Warning
	c.Reputation = summary
}

func (f *Finder) cacheGet(ctx context.Context, key string, out interface{}) bool {
	if f.cache == nil {
		return false
	}
	value, found, err := f.cache.Get(ctx, key)
	if err != nil {
		f.logger.WithError(err).WithField("key", key).Warn("cache read failed")
		return false
	}
	if !found {
		return false
	}
	if err := json.Unmarshal([]byte(value), out); err != nil {
		f.logger.WithError(err).WithField("key", key).Warn("cache entry is malformed")
		return false
	}
	return true
}

func (f *Finder) cachePut(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if f.cache == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		f.logger.WithError(err).WithField("key", key).Warn("failed to marshal cache entry")
		return
	}
	if err := f.cache.Set(ctx, key, string(data), ttl); err != nil {
		f.logger.WithError(err).WithField("key", key).Warn("cache write failed")
	}
}

type resultsFile struct {
	Date    string       `json:"date"`
	Records []*Candidate `json:"records"`
}

// saveResults appends new candidates to the daily results file, deduplicated
// by delegation hash, newest first.
func (f *Finder) saveResults(found []*Candidate) error {
	if len(found) == 0 || f.resultsDir == "" {
		return nil
	}
	if err := os.MkdirAll(f.resultsDir, 0o755); err != nil {
		return fmt.Errorf("failed to create results directory: %w", err)
	}

	day := f.now().Format("2006-01-02")
	path := filepath.Join(f.resultsDir, fmt.Sprintf("energy_addresses_%s.json", day))

	existing := &resultsFile{Date: day}
	if data, err := os.ReadFile(path); err == nil {
		if err := json.Unmarshal(data, existing); err != nil {
			f.logger.WithField("file", path).Warn("results file is malformed, starting fresh")
			existing = &resultsFile{Date: day}
		}
	}

	seen := make(map[string]bool, len(existing.Records))
	for _, record := range existing.Records {
		seen[record.DelegateTxHash] = true
	}
	var fresh []*Candidate
	for _, candidate := range found {
		if !seen[candidate.DelegateTxHash] {
			seen[candidate.DelegateTxHash] = true
			fresh = append(fresh, candidate)
		}
	}
	if len(fresh) == 0 {
		return nil
	}

	existing.Records = append(fresh, existing.Records...)
	data, err := json.MarshalIndent(existing, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write results file: %w", err)
	}
	f.logger.WithFields(map[string]interface{}{
		"file":  path,
		"count": len(fresh),
	}).Info("scan results saved")
	return nil
}

func roundTRX(v float64) float64 {
	return math.Round(v*10000) / 10000
}
