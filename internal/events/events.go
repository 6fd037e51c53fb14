// Package events emits structured workflow events for downstream consumers
// (ops dashboards, reconciliation jobs). Emission is fire-and-forget from the
// request path; delivery runs on a background worker.
package events

import "time"

// Type names a workflow transition.
type Type string

const (
	TypeParcelCreated         Type = "parcel_created"
	TypeVerificationRequested Type = "verification_requested"
	TypeParcelAppraised       Type = "parcel_appraised"
	TypeReappraisalRequested  Type = "reappraisal_requested"
	TypeAgencyRegistered      Type = "agency_registered"
	TypeLoanIssued            Type = "loan_issued"
	TypeLoanRepaid            Type = "loan_repaid"
)

// Event is one workflow transition. Amounts are decimal subunit strings so
// the payload stays integer-exact.
type Event struct {
	Type      Type      `json:"type"`
	TokenID   uint64    `json:"tokenId,omitempty"`
	TxHash    string    `json:"txHash,omitempty"`
	Amount    string    `json:"amount,omitempty"`
	Region    string    `json:"region,omitempty"`
	RequestID string    `json:"requestId,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Emitter accepts workflow events without blocking the caller.
type Emitter interface {
	Emit(event Event)
}

// Discard is an Emitter that drops everything; used when no broker is
// configured and in tests that don't care about events.
type Discard struct{}

func (Discard) Emit(Event) {}
