package models

import "time"

// WhitelistPair is a vouched-for (payment, provider) combination. It is
// checked independently of the two single-role whitelist entries.
type WhitelistPair struct {
	PaymentAddress  string    `json:"paymentAddress"`
	ProviderAddress string    `json:"providerAddress"`
	SuccessCount    int       `json:"successCount"`
	LastSuccessTime time.Time `json:"lastSuccessTime"`
	Active          bool      `json:"active"`
	Provisional     bool      `json:"provisional"`
	AddedBy         string    `json:"addedBy,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}
