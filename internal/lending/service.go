package lending

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"landq/internal/events"
	"landq/internal/ledger"
	"landq/internal/platform/metrics"
	dErrors "landq/pkg/domain-errors"
	"landq/pkg/requestcontext"
)

// Ledger is the slice of the blockchain client the loan lifecycle consumes.
type Ledger interface {
	IsVerified(ctx context.Context, tokenID uint64) (bool, error)
	AppraisedPrice(ctx context.Context, tokenID uint64) (*big.Int, error)
	LoanByToken(ctx context.Context, tokenID uint64) (ledger.Loan, error)
	BTCPriceUSDT(ctx context.Context) (*big.Int, error)
	Balance(ctx context.Context, currency ledger.Currency) (*big.Int, error)
	Allowance(ctx context.Context, currency ledger.Currency) (*big.Int, error)
	Approve(ctx context.Context, currency ledger.Currency, amount *big.Int) (ledger.Outcome, error)
	IssueLoan(ctx context.Context, tokenID uint64, amountUSDT *big.Int, periodSeconds uint64) (ledger.Outcome, error)
	RepayLoan(ctx context.Context, tokenID uint64, amount *big.Int, inBTC bool) (ledger.Outcome, error)
}

// Service runs loan issuance and repayment against the lending contract.
// The contract is the source of truth for loan state; the service adds the
// off-chain preconditions and the settlement-token allowance dance.
type Service struct {
	ledger  Ledger
	emitter events.Emitter
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewService wires the loan lifecycle.
func NewService(l Ledger, emitter events.Emitter, logger *slog.Logger, m *metrics.Metrics) *Service {
	return &Service{ledger: l, emitter: emitter, logger: logger, metrics: m}
}

// LoanView is the read model of a loan, with the owed amount expressed in
// both settlement currencies at the current spot rate.
type LoanView struct {
	TokenID        uint64 `json:"tokenId"`
	Borrower       string `json:"borrower"`
	PrincipalUSDT  string `json:"principalUsdt"`
	AmountOwedUSDT string `json:"amountOwedUsdt"`
	AmountOwedBTC  string `json:"amountOwedBtc"`
	DueAt          string `json:"dueAt"`
	Status         string `json:"status"`
}

// IssueResult reports an issued loan.
type IssueResult struct {
	TokenID       uint64         `json:"tokenId"`
	PrincipalUSDT *big.Int       `json:"principalUsdt"`
	MaxPrincipal  *big.Int       `json:"maxPrincipal"`
	Outcome       ledger.Outcome `json:"outcome"`
}

// RepayResult reports a repayment.
type RepayResult struct {
	TokenID        uint64         `json:"tokenId"`
	Currency       string         `json:"currency"`
	Amount         *big.Int       `json:"amount"`
	USDTEquivalent *big.Int       `json:"usdtEquivalent"`
	RemainingOwed  *big.Int       `json:"remainingOwed,omitempty"`
	FullyRepaid    bool           `json:"fullyRepaid"`
	Outcome        ledger.Outcome `json:"outcome"`
}

// Quote prices a USDT amount in BTC subunits at the current spot rate.
type Quote struct {
	AmountUSDT *big.Int `json:"amountUsdt"`
	AmountBTC  *big.Int `json:"amountBtc"`
	Rate       *big.Int `json:"rate"` // USDT subunits per whole BTC
}

// Issue lends against a verified parcel. Principal is capped at half the
// appraised valuation; both the cap and the rejection happen before any
// ledger write.
func (s *Service) Issue(ctx context.Context, tokenID uint64, amountUSDT *big.Int, period time.Duration) (*IssueResult, error) {
	if amountUSDT == nil || amountUSDT.Sign() <= 0 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "principal must be positive")
	}
	if period <= 0 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "loan period must be positive")
	}

	verified, err := s.ledger.IsVerified(ctx, tokenID)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeUpstream, "ledger read failed", err)
	}
	if !verified {
		return nil, dErrors.New(dErrors.CodeUnprocessable, "collateral parcel is not verified")
	}

	loan, err := s.ledger.LoanByToken(ctx, tokenID)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeUpstream, "loan lookup failed", err)
	}
	if loan.Active() {
		return nil, dErrors.New(dErrors.CodeConflict, "token already collateralizes an active loan")
	}

	appraised, err := s.ledger.AppraisedPrice(ctx, tokenID)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeUpstream, "appraisal lookup failed", err)
	}
	limit := maxPrincipal(appraised)
	if amountUSDT.Cmp(limit) > 0 {
		return nil, dErrors.New(dErrors.CodeUnprocessable, "principal exceeds half the appraised value")
	}

	outcome, err := s.ledger.IssueLoan(ctx, tokenID, amountUSDT, uint64(period.Seconds()))
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeUpstream, "loan issuance rejected", err)
	}
	if outcome.State == ledger.StateFailed {
		return nil, dErrors.New(dErrors.CodeConflict, "loan issuance reverted: "+outcome.Reason)
	}
	if outcome.Succeeded() {
		s.metrics.LoansIssued.Inc()
		s.emitter.Emit(events.Event{
			Type:      events.TypeLoanIssued,
			TokenID:   tokenID,
			TxHash:    outcome.TxHash.Hex(),
			Amount:    amountUSDT.String(),
			RequestID: requestcontext.RequestID(ctx),
		})
	}
	return &IssueResult{
		TokenID:       tokenID,
		PrincipalUSDT: amountUSDT,
		MaxPrincipal:  limit,
		Outcome:       outcome,
	}, nil
}

// Repay settles against an active loan in the chosen currency. The amount is
// in that currency's subunits. The allowance is topped up to exactly the
// repayment amount when short, never more.
func (s *Service) Repay(ctx context.Context, tokenID uint64, amount *big.Int, currency ledger.Currency) (*RepayResult, error) {
	if amount == nil || amount.Sign() <= 0 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "repayment must be positive")
	}
	if currency != ledger.CurrencyUSDT && currency != ledger.CurrencyBTC {
		return nil, dErrors.New(dErrors.CodeBadRequest, "currency must be USDT or BTC")
	}

	loan, err := s.ledger.LoanByToken(ctx, tokenID)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeUpstream, "loan lookup failed", err)
	}
	if !loan.Active() {
		return nil, dErrors.New(dErrors.CodeConflict, "no active loan for token")
	}

	// The USDT value of a BTC repayment is fixed at the spot rate read here,
	// immediately before settlement. The rate is never cached.
	usdtEquivalent := amount
	if currency == ledger.CurrencyBTC {
		rate, err := s.ledger.BTCPriceUSDT(ctx)
		if err != nil {
			return nil, dErrors.Wrap(dErrors.CodeUpstream, "rate read failed", err)
		}
		if rate.Sign() <= 0 {
			return nil, dErrors.New(dErrors.CodeUpstream, "ledger reports a non-positive BTC rate")
		}
		usdtEquivalent = usdtFromBTC(amount, rate)
	}

	// Reject before touching the allowance when the wallet cannot cover the
	// transfer; an approve for funds we don't hold just wastes gas.
	balance, err := s.ledger.Balance(ctx, currency)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeUpstream, "balance read failed", err)
	}
	if balance.Cmp(amount) < 0 {
		return nil, dErrors.New(dErrors.CodeUnprocessable, fmt.Sprintf("insufficient %s balance", currency))
	}

	allowance, err := s.ledger.Allowance(ctx, currency)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeUpstream, "allowance read failed", err)
	}
	if allowance.Cmp(amount) < 0 {
		approval, err := s.ledger.Approve(ctx, currency, amount)
		if err != nil {
			return nil, dErrors.Wrap(dErrors.CodeUpstream, "token approval rejected", err)
		}
		if !approval.Succeeded() {
			if approval.State == ledger.StateFailed {
				return nil, dErrors.New(dErrors.CodeConflict, "token approval reverted: "+approval.Reason)
			}
			return nil, dErrors.New(dErrors.CodeUpstream, "token approval unconfirmed: "+approval.TxHash.Hex())
		}
	}

	outcome, err := s.ledger.RepayLoan(ctx, tokenID, amount, currency == ledger.CurrencyBTC)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeUpstream, "repayment rejected", err)
	}
	if outcome.State == ledger.StateFailed {
		return nil, dErrors.New(dErrors.CodeConflict, "repayment reverted: "+outcome.Reason)
	}
	if outcome.Succeeded() {
		s.metrics.LoanRepayments.WithLabelValues(string(currency)).Inc()
		s.emitter.Emit(events.Event{
			Type:      events.TypeLoanRepaid,
			TokenID:   tokenID,
			TxHash:    outcome.TxHash.Hex(),
			Amount:    usdtEquivalent.String(),
			RequestID: requestcontext.RequestID(ctx),
		})
	}
	s.logger.InfoContext(ctx, "loan repayment settled",
		"request_id", requestcontext.RequestID(ctx),
		"token_id", tokenID,
		"currency", currency,
		"state", outcome.State,
	)
	result := &RepayResult{
		TokenID:        tokenID,
		Currency:       string(currency),
		Amount:         amount,
		USDTEquivalent: usdtEquivalent,
		Outcome:        outcome,
	}
	if outcome.Succeeded() {
		// Settled state comes from the contract: owed is floored at zero
		// there and a cleared balance flips the loan to repaid.
		settled, err := s.ledger.LoanByToken(ctx, tokenID)
		if err != nil {
			s.logger.WarnContext(ctx, "settled loan re-read failed", "token_id", tokenID, "error", err)
			return result, nil
		}
		result.RemainingOwed = settled.AmountOwed
		result.FullyRepaid = settled.Status == ledger.LoanStatusRepaid
	}
	return result, nil
}

// QuoteBTC prices a USDT subunit amount in BTC subunits at the spot rate,
// re-read from the ledger per call.
func (s *Service) QuoteBTC(ctx context.Context, amountUSDT *big.Int) (*Quote, error) {
	if amountUSDT == nil || amountUSDT.Sign() <= 0 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "amount must be positive")
	}
	rate, err := s.ledger.BTCPriceUSDT(ctx)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeUpstream, "rate read failed", err)
	}
	if rate.Sign() <= 0 {
		return nil, dErrors.New(dErrors.CodeUpstream, "ledger reports a non-positive BTC rate")
	}
	return &Quote{
		AmountUSDT: amountUSDT,
		AmountBTC:  btcFromUSDT(amountUSDT, rate),
		Rate:       rate,
	}, nil
}

// Get returns the loan view for a token, pricing the owed amount in BTC at
// the current spot rate.
func (s *Service) Get(ctx context.Context, tokenID uint64) (*LoanView, error) {
	loan, err := s.ledger.LoanByToken(ctx, tokenID)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeUpstream, "loan lookup failed", err)
	}
	if loan.Status == ledger.LoanStatusNone {
		return nil, dErrors.New(dErrors.CodeNotFound, "no loan for token")
	}

	view := &LoanView{
		TokenID:        tokenID,
		Borrower:       loan.Borrower.Hex(),
		PrincipalUSDT:  loan.PrincipalUSD.String(),
		AmountOwedUSDT: loan.AmountOwed.String(),
		DueAt:          time.Unix(int64(loan.DueTimestamp), 0).UTC().Format(time.RFC3339),
		Status:         loan.Status.String(),
	}
	if loan.Active() && loan.AmountOwed.Sign() > 0 {
		rate, err := s.ledger.BTCPriceUSDT(ctx)
		if err != nil {
			return nil, dErrors.Wrap(dErrors.CodeUpstream, "rate read failed", err)
		}
		if rate.Sign() > 0 {
			view.AmountOwedBTC = btcFromUSDT(loan.AmountOwed, rate).String()
		}
	}
	return view, nil
}
