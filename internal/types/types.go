// Package types provides common type definitions for the reputation service.
package types

// Role distinguishes the two sides of an energy deal.
type Role string

const (
	// RolePayment is the address that received the small TRX deposit.
	RolePayment Role = "payment"
	// RoleProvider is the address that delegated energy to the payment address.
	RoleProvider Role = "provider"
)

// Valid reports whether r is one of the two known roles.
func (r Role) Valid() bool {
	return r == RolePayment || r == RoleProvider
}

// EntryType classifies how a blacklist entry came to exist.
type EntryType string

const (
	// EntryManual is a human-submitted blacklist entry.
	EntryManual EntryType = "manual"
	// EntryAutoAssociated is an entry created by propagation from a
	// blacklisted provider.
	EntryAutoAssociated EntryType = "auto_associated"
)

// ServiceError represents a structured error response
type ServiceError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func (e *ServiceError) Error() string {
	return e.Message
}

// BlacklistStats counts active blacklist rows by entry type.
type BlacklistStats struct {
	Total          int64 `json:"total"`
	Manual         int64 `json:"manual"`
	AutoAssociated int64 `json:"autoAssociated"`
	Provisional    int64 `json:"provisional"`
}

// WhitelistStats counts active whitelist rows in each keyspace.
type WhitelistStats struct {
	Addresses int64 `json:"addresses"`
	Payment   int64 `json:"payment"`
	Provider  int64 `json:"provider"`
	Pairs     int64 `json:"pairs"`
}

// ReputationStats is the merged operational view over both stores.
type ReputationStats struct {
	Blacklist          BlacklistStats `json:"blacklist"`
	Whitelist          WhitelistStats `json:"whitelist"`
	AssociationEdges   int64          `json:"associationEdges"`
	AssociationEnabled bool           `json:"associationEnabled"`
}

// EvaluateResult reports the outcome of evaluating a (payment, provider)
// pair against the blacklist. A false flag and an absent entry are
// distinguishable from a skipped propagation.
type EvaluateResult struct {
	PaymentFlagged  bool   `json:"paymentFlagged"`
	ProviderFlagged bool   `json:"providerFlagged"`
	Propagated      bool   `json:"propagated"`
	Warning         string `json:"warning,omitempty"`
}
