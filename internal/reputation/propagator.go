package reputation

import (
	"context"
	"fmt"

	"github.com/lookoupai/Low-price-tron-energy/internal/logging"
	"github.com/lookoupai/Low-price-tron-energy/internal/types"
)

// Propagator spreads distrust from a blacklisted provider to the payment
// address it served. Propagation is strictly directional: a blacklisted
// payment address never taints its provider, since many victims pay the
// same scam provider.
type Propagator struct {
	blacklist *BlacklistStore
	settings  *SettingsStore
	logger    *logging.Logger
}

// NewPropagator creates a propagator over the given stores.
func NewPropagator(blacklist *BlacklistStore, settings *SettingsStore, logger *logging.Logger) *Propagator {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	return &Propagator{
		blacklist: blacklist,
		settings:  settings,
		logger:    logger,
	}
}

// Evaluate checks a (payment, provider) deal against the blacklist and, when
// the provider is flagged and the toggle is on, auto-blacklists the payment
// address. The new entry inherits the provider entry's provisional flag.
// Propagated is true only when the write actually succeeded.
func (p *Propagator) Evaluate(ctx context.Context, payment, provider string) *types.EvaluateResult {
	result := &types.EvaluateResult{}
	enabled := p.settings.IsAssociationEnabled(ctx)

	paymentEntry := p.blacklist.Check(ctx, payment)
	providerEntry := p.blacklist.Check(ctx, provider)
	result.PaymentFlagged = paymentEntry != nil
	result.ProviderFlagged = providerEntry != nil

	switch {
	case result.PaymentFlagged && result.ProviderFlagged:
		result.Warning = "both payment and provider addresses are blacklisted"
	case result.PaymentFlagged:
		result.Warning = "payment address is blacklisted"
	case result.ProviderFlagged:
		result.Warning = "provider address is blacklisted"
	}

	if providerEntry == nil || paymentEntry != nil {
		return result
	}
	if !enabled {
		p.logger.WithFields(map[string]interface{}{
			"payment":  payment,
			"provider": provider,
		}).Debug("association propagation disabled, skipping")
		return result
	}

	reason := fmt.Sprintf("associated with blacklisted provider %s", provider)
	if !p.blacklist.Add(ctx, payment, reason, "", types.EntryAutoAssociated, providerEntry.Provisional) {
		return result
	}
	result.Propagated = true
	result.PaymentFlagged = true
	result.Warning = "provider address is blacklisted; payment address was auto-blacklisted by association"

	p.blacklist.AddAssociation(ctx, provider, payment)
	p.logger.WithFields(map[string]interface{}{
		"payment":  payment,
		"provider": provider,
	}).Info("distrust propagated from provider to payment address")
	return result
}

// AutoAssociate is the write-only form of Evaluate for callers that only
// care whether a propagation happened.
func (p *Propagator) AutoAssociate(ctx context.Context, payment, provider string) bool {
	return p.Evaluate(ctx, payment, provider).Propagated
}
