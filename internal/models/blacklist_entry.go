package models

import (
	"time"

	"github.com/lookoupai/Low-price-tron-energy/internal/types"
)

// BlacklistEntry represents one row of the blacklist table, keyed by address.
// Rows are never hard-deleted; Active=false is a soft delete.
type BlacklistEntry struct {
	Address     string          `json:"address"`
	Reason      string          `json:"reason,omitempty"`
	Type        types.EntryType `json:"type"`
	AddedBy     string          `json:"addedBy,omitempty"`
	AddedAt     time.Time       `json:"addedAt"`
	Active      bool            `json:"active"`
	Provisional bool            `json:"provisional"`
}
