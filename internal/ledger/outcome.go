package ledger

import "github.com/ethereum/go-ethereum/common"

// OutcomeState classifies the result of a ledger write.
type OutcomeState string

const (
	// StatePending means the transaction was broadcast but the confirmation
	// wait was abandoned (context cancelled). The side effect is irrevocable;
	// callers may resume by watching the hash.
	StatePending OutcomeState = "pending"
	// StateSucceeded means the transaction was mined with a success status.
	StateSucceeded OutcomeState = "succeeded"
	// StateFailed means the transaction was mined but reverted.
	StateFailed OutcomeState = "failed"
)

// Outcome is the explicit result of a single ledger write: one broadcast, one
// cancellation-aware confirmation wait, no implicit retries.
type Outcome struct {
	State  OutcomeState
	TxHash common.Hash
	Reason string // populated when State is StateFailed
}

// Succeeded reports whether the write is confirmed successful.
func (o Outcome) Succeeded() bool { return o.State == StateSucceeded }
