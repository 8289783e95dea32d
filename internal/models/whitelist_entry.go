package models

import (
	"time"

	"github.com/lookoupai/Low-price-tron-energy/internal/types"
)

// WhitelistEntry is a vouched-for single address, keyed by (address, role).
// SuccessCount increments on every repeated positive signal for the same key.
type WhitelistEntry struct {
	Address      string     `json:"address"`
	Role         types.Role `json:"role"`
	Reason       string     `json:"reason,omitempty"`
	AddedBy      string     `json:"addedBy,omitempty"`
	AddedAt      time.Time  `json:"addedAt"`
	Active       bool       `json:"active"`
	Provisional  bool       `json:"provisional"`
	SuccessCount int        `json:"successCount"`
}
