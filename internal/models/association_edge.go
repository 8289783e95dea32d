package models

import "time"

// AssociationEdge is one append-only propagation record: a blacklisted
// source (provider) tainted the target (payment) address. Duplicate
// (source, target) inserts are ignored at the storage level.
type AssociationEdge struct {
	SourceAddress string    `json:"sourceAddress"`
	TargetAddress string    `json:"targetAddress"`
	CreatedAt     time.Time `json:"createdAt"`
}
