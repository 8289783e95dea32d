// Package finder implements the low-cost energy discovery crawler: a
// TronScan API client and the scan algorithm that walks recent blocks for
// energy delegations and qualifies the payment addresses behind them.
package finder

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/lookoupai/Low-price-tron-energy/internal/logging"
)

// TronScan contract types used by the crawler.
const (
	// ContractTransfer is a plain TRX transfer.
	ContractTransfer = 1
	// ContractDelegateResource is a bandwidth/energy delegation.
	ContractDelegateResource = 57
)

const (
	defaultRetryCount = 3
	defaultRetryDelay = 2 * time.Second
	// minimum spacing between API calls
	minRequestInterval = 100 * time.Millisecond
)

// ContractData is the contract payload of a TronScan transaction. Only the
// fields the crawler reads are mapped.
type ContractData struct {
	Resource        string      `json:"resource"`
	OwnerAddress    string      `json:"owner_address"`
	ReceiverAddress string      `json:"receiver_address"`
	Balance         json.Number `json:"balance"`
	ResourceValue   json.Number `json:"resourceValue"`
}

// BalanceTRX returns the staked balance converted from sun to TRX.
func (d *ContractData) BalanceTRX() float64 {
	sun, err := d.Balance.Float64()
	if err != nil {
		return 0
	}
	return sun / 1_000_000
}

// EnergyValue returns the explicit delegated energy amount, if present.
func (d *ContractData) EnergyValue() (float64, bool) {
	if d.ResourceValue == "" {
		return 0, false
	}
	value, err := d.ResourceValue.Float64()
	if err != nil {
		return 0, false
	}
	return value, true
}

// Transaction is one TronScan transaction record.
type Transaction struct {
	Hash         string       `json:"hash"`
	Timestamp    int64        `json:"timestamp"`
	ContractType int          `json:"contractType"`
	ToAddress    string       `json:"toAddress"`
	Amount       json.Number  `json:"amount"`
	ContractData ContractData `json:"contractData"`
}

// AmountTRX returns the transfer amount converted from sun to TRX.
func (t *Transaction) AmountTRX() float64 {
	sun, err := t.Amount.Float64()
	if err != nil {
		return 0
	}
	return sun / 1_000_000
}

// TransactionInfo is the detail record behind one transaction hash.
type TransactionInfo struct {
	ContractData ContractData `json:"contractData"`
}

type transactionPage struct {
	Total int64          `json:"total"`
	Data  []*Transaction `json:"data"`
}

type blockPage struct {
	Data []struct {
		Number int64 `json:"number"`
	} `json:"data"`
}

// TronScanClient is a rate-limited, retrying client for the TronScan REST
// API. All calls share one limiter so concurrent scans cannot exceed the
// public tier quota.
type TronScanClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
	limiter *rate.Limiter
	logger  *logging.Logger

	retryCount int
	retryDelay time.Duration
}

// NewTronScanClient creates a TronScan client. apiKey may be empty; access
// without the TRON-PRO-API-KEY header is heavily throttled server-side.
func NewTronScanClient(baseURL, apiKey string, logger *logging.Logger) *TronScanClient {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	return &TronScanClient{
		baseURL:    baseURL,
		apiKey:     apiKey,
		client:     &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(rate.Every(minRequestInterval), 1),
		logger:     logger,
		retryCount: defaultRetryCount,
		retryDelay: defaultRetryDelay,
	}
}

func (c *TronScanClient) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	endpoint := fmt.Sprintf("%s/%s?%s", c.baseURL, path, params.Encode())

	var lastErr error
	for attempt := 0; attempt < c.retryCount; attempt++ {
		if attempt > 0 {
			c.logger.WithError(lastErr).WithField("path", path).Warn("TronScan request failed, retrying")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.retryDelay):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return fmt.Errorf("failed to build TronScan request: %w", err)
		}
		req.Header.Set("User-Agent", "tron-energy-finder/1.0")
		if c.apiKey != "" {
			req.Header.Set("TRON-PRO-API-KEY", c.apiKey)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}
		if resp.StatusCode != http.StatusOK {
			lastErr = fmt.Errorf("TronScan returned status %d", resp.StatusCode)
			continue
		}
		if err := json.Unmarshal(body, out); err != nil {
			lastErr = fmt.Errorf("failed to decode TronScan response: %w", err)
			continue
		}
		return nil
	}
	return fmt.Errorf("request to %s failed after %d attempts: %w", path, c.retryCount, lastErr)
}

// LatestBlock returns the newest block number.
func (c *TronScanClient) LatestBlock(ctx context.Context) (int64, error) {
	params := url.Values{}
	params.Set("sort", "-number")
	params.Set("limit", "1")
	params.Set("count", "true")

	var page blockPage
	if err := c.get(ctx, "block", params, &page); err != nil {
		return 0, err
	}
	if len(page.Data) == 0 {
		return 0, fmt.Errorf("TronScan returned no blocks")
	}
	return page.Data[0].Number, nil
}

// BlockTransactions returns every transaction in a block, paging through
// the API 200 records at a time.
func (c *TronScanClient) BlockTransactions(ctx context.Context, blockNumber int64) ([]*Transaction, error) {
	const pageSize = 200

	params := url.Values{}
	params.Set("block", strconv.FormatInt(blockNumber, 10))
	params.Set("limit", "1")
	params.Set("start", "0")
	params.Set("count", "true")

	var head transactionPage
	if err := c.get(ctx, "transaction", params, &head); err != nil {
		return nil, err
	}

	var all []*Transaction
	for start := int64(0); start < head.Total; {
		params.Set("limit", strconv.Itoa(pageSize))
		params.Set("start", strconv.FormatInt(start, 10))

		var page transactionPage
		if err := c.get(ctx, "transaction", params, &page); err != nil {
			return nil, err
		}
		if len(page.Data) == 0 {
			break
		}
		all = append(all, page.Data...)
		start += int64(len(page.Data))
	}
	return all, nil
}

// AccountTransactions returns the newest transactions of an address.
func (c *TronScanClient) AccountTransactions(ctx context.Context, address string, limit int) ([]*Transaction, error) {
	params := url.Values{}
	params.Set("address", address)
	params.Set("limit", strconv.Itoa(limit))
	params.Set("sort", "-timestamp")

	var page transactionPage
	if err := c.get(ctx, "transaction", params, &page); err != nil {
		return nil, err
	}
	return page.Data, nil
}

// TransactionInfo returns the detail record for a transaction hash.
func (c *TronScanClient) TransactionInfo(ctx context.Context, hash string) (*TransactionInfo, error) {
	params := url.Values{}
	params.Set("hash", hash)

	var info TransactionInfo
	if err := c.get(ctx, "transaction-info", params, &info); err != nil {
		return nil, err
	}
	return &info, nil
}
