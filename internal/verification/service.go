package verification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"landq/internal/events"
	"landq/internal/ledger"
	"landq/internal/platform/metrics"
	dErrors "landq/pkg/domain-errors"
	"landq/pkg/platform/sentinel"
	"landq/pkg/requestcontext"
)

// Ledger is the slice of the blockchain client this workflow consumes.
type Ledger interface {
	AgencyForRegion(ctx context.Context, region string) (ledger.Agency, error)
	HasPendingRequest(ctx context.Context, tokenID uint64) (bool, error)
	HasPendingReappraisal(ctx context.Context, tokenID uint64) (bool, error)
	IsVerified(ctx context.Context, tokenID uint64) (bool, error)
	AppraisedPrice(ctx context.Context, tokenID uint64) (*big.Int, error)
	TokenURI(ctx context.Context, tokenID uint64) (string, error)
	OwnerOf(ctx context.Context, tokenID uint64) (common.Address, error)
	RequestVerification(ctx context.Context, tokenID uint64, fee *big.Int) (ledger.Outcome, error)
	RequestReappraisal(ctx context.Context, tokenID uint64, fee *big.Int) (ledger.Outcome, error)
	SubmitAppraisal(ctx context.Context, tokenID uint64, priceUSD *big.Int) (ledger.Outcome, error)
	UpdateAppraisal(ctx context.Context, tokenID uint64, priceUSD *big.Int) (ledger.Outcome, error)
	SetAgency(ctx context.Context, region string, agency common.Address, fee *big.Int) (ledger.Outcome, error)
	ChangeAgencyFee(ctx context.Context, region string, fee *big.Int) (ledger.Outcome, error)
	Address() common.Address
}

// MetadataFetcher resolves a token's metadata document from its URI.
type MetadataFetcher interface {
	FetchJSON(ctx context.Context, ref string, v any) error
}

// tokenMetadata is the slice of the parcel metadata document this workflow
// reads; jurisdiction routing keys off the state field.
type tokenMetadata struct {
	State string `json:"state"`
}

// Service coordinates the verification state machine. It performs no retries
// and no mutual exclusion of its own: concurrent requests for the same token
// are resolved by the ledger's accept/reject semantics, surfaced verbatim.
type Service struct {
	ledger     Ledger
	store      Store
	metadata   MetadataFetcher
	projection *Projection
	emitter    events.Emitter
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

// NewService wires the verification workflow.
func NewService(l Ledger, store Store, metadata MetadataFetcher, projection *Projection,
	emitter events.Emitter, logger *slog.Logger, m *metrics.Metrics) *Service {
	return &Service{
		ledger:     l,
		store:      store,
		metadata:   metadata,
		projection: projection,
		emitter:    emitter,
		logger:     logger,
		metrics:    m,
	}
}

// RequestResult reports a submitted verification request.
type RequestResult struct {
	TokenID uint64         `json:"tokenId"`
	Region  string         `json:"region"`
	Agency  string         `json:"agency"`
	Fee     *big.Int       `json:"fee"`
	Outcome ledger.Outcome `json:"outcome"`
}

// Request submits a fee-paying verification request for the token.
func (s *Service) Request(ctx context.Context, tokenID uint64) (*RequestResult, error) {
	// Existence check before creation: at most one outstanding pending
	// request per token. Both the derived index and the ledger are asked;
	// the ledger's answer is authoritative.
	if existing, err := s.store.Find(ctx, tokenID); err == nil && existing.Status == StatusPending {
		return nil, dErrors.New(dErrors.CodeConflict, "verification already requested for this land")
	} else if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "request record lookup failed", err)
	}
	pending, err := s.ledger.HasPendingRequest(ctx, tokenID)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeUpstream, "ledger read failed", err)
	}
	if pending {
		return nil, dErrors.New(dErrors.CodeConflict, "verification already pending on ledger")
	}

	uri, region, err := s.resolveRegion(ctx, tokenID)
	if err != nil {
		return nil, err
	}

	agency, err := s.ledger.AgencyForRegion(ctx, region)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeUpstream, "agency lookup failed", err)
	}
	// Fee resolution fails closed: a zero agency address is "not
	// serviceable", never a free-of-charge agency.
	if !agency.Registered() {
		return nil, dErrors.New(dErrors.CodeUnprocessable, fmt.Sprintf("no agency registered for %s", region))
	}

	outcome, err := s.ledger.RequestVerification(ctx, tokenID, agency.Fee)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeUpstream, "verification request rejected", err)
	}
	result := &RequestResult{
		TokenID: tokenID,
		Region:  region,
		Agency:  agency.Address.Hex(),
		Fee:     agency.Fee,
		Outcome: outcome,
	}
	switch outcome.State {
	case ledger.StateFailed:
		return nil, dErrors.New(dErrors.CodeConflict, "verification request reverted: "+outcome.Reason)
	case ledger.StatePending:
		// Broadcast but unconfirmed; the off-chain record is derived later
		// from ledger state (Get re-derives idempotently).
		return result, nil
	}

	record := &Request{
		TokenID:     tokenID,
		Requester:   s.ledger.Address().Hex(),
		Region:      region,
		Agency:      agency.Address.Hex(),
		Fee:         agency.Fee,
		MetadataURI: uri,
		Status:      StatusPending,
		RequestedAt: requestcontext.Now(ctx),
	}
	// The ledger already accepted; a failed record write is a recoverable
	// inconsistency, not a request failure. Get re-derives from the ledger.
	if err := s.store.Save(ctx, record); err != nil {
		s.logger.ErrorContext(ctx, "recoverable inconsistency: ledger accepted but record write failed",
			"request_id", requestcontext.RequestID(ctx),
			"token_id", tokenID,
			"tx_hash", outcome.TxHash.Hex(),
			"error", err,
		)
	}

	if err := s.projection.Invalidate(ctx, tokenID); err != nil {
		s.logger.WarnContext(ctx, "projection invalidation failed", "token_id", tokenID, "error", err)
	}
	s.metrics.VerificationRequests.Inc()
	s.emitter.Emit(events.Event{
		Type:      events.TypeVerificationRequested,
		TokenID:   tokenID,
		TxHash:    outcome.TxHash.Hex(),
		Amount:    agency.Fee.String(),
		Region:    region,
		RequestID: requestcontext.RequestID(ctx),
	})
	return result, nil
}

// Appraise is the privileged agency operation: transitions pending→verified
// and records the valuation that later bounds loan principal.
func (s *Service) Appraise(ctx context.Context, tokenID uint64, priceUSD *big.Int) (ledger.Outcome, error) {
	if priceUSD == nil || priceUSD.Sign() <= 0 {
		return ledger.Outcome{}, dErrors.New(dErrors.CodeBadRequest, "appraisal price must be positive")
	}

	// A first appraisal verifies the parcel; an appraisal of an already
	// verified parcel completes a pending reappraisal instead.
	verified, err := s.ledger.IsVerified(ctx, tokenID)
	if err != nil {
		return ledger.Outcome{}, dErrors.Wrap(dErrors.CodeUpstream, "ledger read failed", err)
	}
	submit := s.ledger.SubmitAppraisal
	if verified {
		submit = s.ledger.UpdateAppraisal
	}
	outcome, err := submit(ctx, tokenID, priceUSD)
	if err != nil {
		return ledger.Outcome{}, dErrors.Wrap(dErrors.CodeUpstream, "appraisal rejected", err)
	}
	if outcome.State == ledger.StateFailed {
		return outcome, dErrors.New(dErrors.CodeConflict, "appraisal reverted: "+outcome.Reason)
	}
	if !outcome.Succeeded() {
		return outcome, nil
	}

	now := requestcontext.Now(ctx)
	if err := s.store.MarkVerified(ctx, tokenID, now); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			// The pending record was never written (or was lost); re-derive.
			if _, derr := s.Get(ctx, tokenID); derr != nil {
				s.logger.ErrorContext(ctx, "recoverable inconsistency: verified on ledger, record re-derivation failed",
					"token_id", tokenID, "error", derr)
			}
		} else {
			s.logger.ErrorContext(ctx, "recoverable inconsistency: verified on ledger, record update failed",
				"token_id", tokenID, "error", err)
		}
	}

	if err := s.projection.Invalidate(ctx, tokenID); err != nil {
		s.logger.WarnContext(ctx, "projection invalidation failed", "token_id", tokenID, "error", err)
	}
	s.metrics.Appraisals.Inc()
	s.emitter.Emit(events.Event{
		Type:      events.TypeParcelAppraised,
		TokenID:   tokenID,
		TxHash:    outcome.TxHash.Hex(),
		Amount:    priceUSD.String(),
		RequestID: requestcontext.RequestID(ctx),
	})
	return outcome, nil
}

// RequestReappraisal enters the reappraisal sub-flow. Only a verified parcel
// may enter it, and doing so never reverts the parcel to pending.
func (s *Service) RequestReappraisal(ctx context.Context, tokenID uint64) (*RequestResult, error) {
	verified, err := s.ledger.IsVerified(ctx, tokenID)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeUpstream, "ledger read failed", err)
	}
	if !verified {
		return nil, dErrors.New(dErrors.CodeUnprocessable, "reappraisal requires a verified parcel")
	}
	pending, err := s.ledger.HasPendingReappraisal(ctx, tokenID)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeUpstream, "ledger read failed", err)
	}
	if pending {
		return nil, dErrors.New(dErrors.CodeConflict, "reappraisal already pending")
	}

	_, region, err := s.resolveRegion(ctx, tokenID)
	if err != nil {
		return nil, err
	}
	agency, err := s.ledger.AgencyForRegion(ctx, region)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeUpstream, "agency lookup failed", err)
	}
	if !agency.Registered() {
		return nil, dErrors.New(dErrors.CodeUnprocessable, fmt.Sprintf("no agency registered for %s", region))
	}

	outcome, err := s.ledger.RequestReappraisal(ctx, tokenID, agency.Fee)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeUpstream, "reappraisal request rejected", err)
	}
	if outcome.State == ledger.StateFailed {
		return nil, dErrors.New(dErrors.CodeConflict, "reappraisal request reverted: "+outcome.Reason)
	}

	s.emitter.Emit(events.Event{
		Type:      events.TypeReappraisalRequested,
		TokenID:   tokenID,
		TxHash:    outcome.TxHash.Hex(),
		Amount:    agency.Fee.String(),
		Region:    region,
		RequestID: requestcontext.RequestID(ctx),
	})
	return &RequestResult{
		TokenID: tokenID,
		Region:  region,
		Agency:  agency.Address.Hex(),
		Fee:     agency.Fee,
		Outcome: outcome,
	}, nil
}

// Get returns the off-chain record, re-deriving it from ledger state when the
// index is missing it (the ledger is the source of truth).
func (s *Service) Get(ctx context.Context, tokenID uint64) (*Request, error) {
	rec, err := s.store.Find(ctx, tokenID)
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "request record lookup failed", err)
	}

	pending, err := s.ledger.HasPendingRequest(ctx, tokenID)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeUpstream, "ledger read failed", err)
	}
	verified := false
	if !pending {
		verified, err = s.ledger.IsVerified(ctx, tokenID)
		if err != nil {
			return nil, dErrors.Wrap(dErrors.CodeUpstream, "ledger read failed", err)
		}
	}
	if !pending && !verified {
		return nil, dErrors.New(dErrors.CodeNotFound, "no verification request for token")
	}

	uri, region, err := s.resolveRegion(ctx, tokenID)
	if err != nil {
		return nil, err
	}
	agency, err := s.ledger.AgencyForRegion(ctx, region)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeUpstream, "agency lookup failed", err)
	}

	derived := &Request{
		TokenID:     tokenID,
		Requester:   s.ledger.Address().Hex(),
		Region:      region,
		Agency:      agency.Address.Hex(),
		Fee:         agency.Fee,
		MetadataURI: uri,
		Status:      StatusPending,
		RequestedAt: requestcontext.Now(ctx),
	}
	if verified {
		now := requestcontext.Now(ctx)
		derived.Status = StatusVerified
		derived.VerifiedAt = &now
	}
	// Save is an upsert; deriving twice is harmless.
	if err := s.store.Save(ctx, derived); err != nil {
		s.logger.WarnContext(ctx, "derived record write failed", "token_id", tokenID, "error", err)
	}
	return derived, nil
}

// Status returns the read-model view, serving from the projection cache and
// recomputing from the ledger on miss.
func (s *Service) Status(ctx context.Context, tokenID uint64) (*ParcelView, error) {
	if view, err := s.projection.Get(ctx, tokenID); err != nil {
		s.logger.WarnContext(ctx, "projection read failed", "token_id", tokenID, "error", err)
	} else if view != nil {
		return view, nil
	}

	view := &ParcelView{TokenID: tokenID, Status: "unverified"}
	// ownerOf reverts for unminted tokens; the view just omits the owner.
	if owner, err := s.ledger.OwnerOf(ctx, tokenID); err == nil {
		view.Owner = owner.Hex()
	}
	verified, err := s.ledger.IsVerified(ctx, tokenID)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeUpstream, "ledger read failed", err)
	}
	if verified {
		view.Status = string(StatusVerified)
		price, err := s.ledger.AppraisedPrice(ctx, tokenID)
		if err != nil {
			return nil, dErrors.Wrap(dErrors.CodeUpstream, "ledger read failed", err)
		}
		view.AppraisedPrice = price.String()
	} else {
		pending, err := s.ledger.HasPendingRequest(ctx, tokenID)
		if err != nil {
			return nil, dErrors.Wrap(dErrors.CodeUpstream, "ledger read failed", err)
		}
		if pending {
			view.Status = string(StatusPending)
		}
	}

	if err := s.projection.Set(ctx, view); err != nil {
		s.logger.WarnContext(ctx, "projection write failed", "token_id", tokenID, "error", err)
	}
	return view, nil
}

// RegisterAgency sets or replaces the agency for a region (operator only).
func (s *Service) RegisterAgency(ctx context.Context, region, agencyAddr string, fee *big.Int) (ledger.Outcome, error) {
	if !common.IsHexAddress(agencyAddr) {
		return ledger.Outcome{}, dErrors.New(dErrors.CodeBadRequest, "invalid agency address")
	}
	if fee == nil || fee.Sign() < 0 {
		return ledger.Outcome{}, dErrors.New(dErrors.CodeBadRequest, "fee must be a non-negative integer")
	}
	outcome, err := s.ledger.SetAgency(ctx, region, common.HexToAddress(agencyAddr), fee)
	if err != nil {
		return ledger.Outcome{}, dErrors.Wrap(dErrors.CodeUpstream, "agency registration rejected", err)
	}
	if outcome.State == ledger.StateFailed {
		return outcome, dErrors.New(dErrors.CodeConflict, "agency registration reverted: "+outcome.Reason)
	}
	s.emitter.Emit(events.Event{
		Type:      events.TypeAgencyRegistered,
		TxHash:    outcome.TxHash.Hex(),
		Region:    region,
		Amount:    fee.String(),
		RequestID: requestcontext.RequestID(ctx),
	})
	return outcome, nil
}

// ChangeAgencyFee updates the fee for an existing registration (operator only).
func (s *Service) ChangeAgencyFee(ctx context.Context, region string, fee *big.Int) (ledger.Outcome, error) {
	if fee == nil || fee.Sign() < 0 {
		return ledger.Outcome{}, dErrors.New(dErrors.CodeBadRequest, "fee must be a non-negative integer")
	}
	outcome, err := s.ledger.ChangeAgencyFee(ctx, region, fee)
	if err != nil {
		return ledger.Outcome{}, dErrors.Wrap(dErrors.CodeUpstream, "fee change rejected", err)
	}
	if outcome.State == ledger.StateFailed {
		return outcome, dErrors.New(dErrors.CodeConflict, "fee change reverted: "+outcome.Reason)
	}
	return outcome, nil
}

// resolveRegion reads the token's metadata and extracts the jurisdiction
// region from its state field.
func (s *Service) resolveRegion(ctx context.Context, tokenID uint64) (uri, region string, err error) {
	uri, err = s.ledger.TokenURI(ctx, tokenID)
	if err != nil {
		return "", "", dErrors.Wrap(dErrors.CodeUpstream, "token metadata unavailable", err)
	}
	var meta tokenMetadata
	if err := s.metadata.FetchJSON(ctx, uri, &meta); err != nil {
		return "", "", dErrors.Wrap(dErrors.CodeUpstream, "token metadata unavailable", err)
	}
	if meta.State == "" {
		return "", "", dErrors.New(dErrors.CodeUnprocessable, "state not found in token metadata")
	}
	return uri, meta.State, nil
}
