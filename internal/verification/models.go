// Package verification tracks a parcel's jurisdictional sign-off: the
// unverified → pending → verified state machine, jurisdiction→agency routing,
// fee-paying ledger requests, and the off-chain request record that indexes
// them. The ledger is the source of truth; the off-chain store is a derived
// index that can be rebuilt from it.
package verification

import (
	"math/big"
	"time"
)

// Status is the off-chain view of a request's progress. There is no
// regression transition: a reappraisal is a distinct sub-flow that never
// moves a parcel back to pending.
type Status string

const (
	StatusPending  Status = "pending"
	StatusVerified Status = "verified"
)

// Request is one parcel's application for jurisdictional sign-off.
// Created only after the ledger accepted the paid request; transitioned to
// verified when the agency appraises; never deleted.
type Request struct {
	TokenID     uint64     `json:"tokenId"`
	Requester   string     `json:"requester"`
	Region      string     `json:"region"`
	Agency      string     `json:"agency"`
	Fee         *big.Int   `json:"fee"`
	MetadataURI string     `json:"metadataUri"`
	Status      Status     `json:"status"`
	RequestedAt time.Time  `json:"requestedAt"`
	VerifiedAt  *time.Time `json:"verifiedAt,omitempty"`
}

// ParcelView is the read-model projection of a parcel's verification state,
// recomputed from the ledger and cached; never mutated out-of-band.
type ParcelView struct {
	TokenID        uint64 `json:"tokenId"`
	Status         string `json:"status"` // unverified | pending | verified
	Owner          string `json:"owner,omitempty"`
	AppraisedPrice string `json:"appraisedPrice,omitempty"`
}
