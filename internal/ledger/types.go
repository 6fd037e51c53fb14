// Package ledger is the blockchain boundary: typed reads and writes against
// the land verifier, lending, NFT and settlement-token contracts. Amounts are
// *big.Int subunits end-to-end; no floating point crosses this package.
package ledger

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Currency selects a settlement token for repayment.
type Currency string

const (
	// CurrencyUSDT is the unit of account, 6 decimal subunits.
	CurrencyUSDT Currency = "USDT"
	// CurrencyBTC is the alternate settlement currency, 8 decimal subunits.
	CurrencyBTC Currency = "BTC"
)

// Agency is a jurisdiction-scoped verification authority as registered on
// chain. A zero Address means no agency is registered for the region; callers
// must treat that as not serviceable, never as a free agency.
type Agency struct {
	Address common.Address
	Fee     *big.Int // native currency subunits
}

// Registered reports whether the lookup resolved a real agency.
func (a Agency) Registered() bool {
	return a.Address != (common.Address{})
}

// LoanStatus mirrors the lending contract's status enum.
type LoanStatus uint8

const (
	LoanStatusNone LoanStatus = iota
	LoanStatusActive
	LoanStatusRepaid
)

func (s LoanStatus) String() string {
	switch s {
	case LoanStatusActive:
		return "active"
	case LoanStatusRepaid:
		return "repaid"
	default:
		return "none"
	}
}

// Loan is the on-chain loan record for a collateral token.
type Loan struct {
	Borrower     common.Address
	PrincipalUSD *big.Int // USDT subunits
	AmountOwed   *big.Int // USDT subunits
	DueTimestamp uint64
	TokenID      uint64
	Status       LoanStatus
}

// Active reports whether the loan is outstanding.
func (l Loan) Active() bool { return l.Status == LoanStatusActive }
