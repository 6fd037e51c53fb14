package verification

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"landq/internal/events"
	"landq/internal/ledger"
	"landq/internal/platform/metrics"
	dErrors "landq/pkg/domain-errors"
)

var testAgencyAddr = common.HexToAddress("0x00000000000000000000000000000000000000AA")

type fakeLedger struct {
	agency            ledger.Agency
	agencyErr         error
	pendingRequest    bool
	pendingReappraise bool
	verified          bool
	appraisedPrice    *big.Int
	tokenURI          string
	tokenURIErr       error
	owner             common.Address

	writeOutcome ledger.Outcome
	writeErr     error

	requestCalls   int
	reappraise     int
	submitCalls    int
	updateCalls    int
	setAgencyCalls int
	feeCalls       int
	lastFee        *big.Int
	lastPrice      *big.Int
}

func (f *fakeLedger) AgencyForRegion(context.Context, string) (ledger.Agency, error) {
	return f.agency, f.agencyErr
}

func (f *fakeLedger) HasPendingRequest(context.Context, uint64) (bool, error) {
	return f.pendingRequest, nil
}

func (f *fakeLedger) HasPendingReappraisal(context.Context, uint64) (bool, error) {
	return f.pendingReappraise, nil
}

func (f *fakeLedger) IsVerified(context.Context, uint64) (bool, error) {
	return f.verified, nil
}

func (f *fakeLedger) AppraisedPrice(context.Context, uint64) (*big.Int, error) {
	return f.appraisedPrice, nil
}

func (f *fakeLedger) TokenURI(context.Context, uint64) (string, error) {
	return f.tokenURI, f.tokenURIErr
}

func (f *fakeLedger) OwnerOf(context.Context, uint64) (common.Address, error) {
	if f.owner == (common.Address{}) {
		return common.Address{}, errors.New("execution reverted")
	}
	return f.owner, nil
}

func (f *fakeLedger) RequestVerification(_ context.Context, _ uint64, fee *big.Int) (ledger.Outcome, error) {
	f.requestCalls++
	f.lastFee = fee
	return f.writeOutcome, f.writeErr
}

func (f *fakeLedger) RequestReappraisal(_ context.Context, _ uint64, fee *big.Int) (ledger.Outcome, error) {
	f.reappraise++
	f.lastFee = fee
	return f.writeOutcome, f.writeErr
}

func (f *fakeLedger) SubmitAppraisal(_ context.Context, _ uint64, price *big.Int) (ledger.Outcome, error) {
	f.submitCalls++
	f.lastPrice = price
	return f.writeOutcome, f.writeErr
}

func (f *fakeLedger) UpdateAppraisal(_ context.Context, _ uint64, price *big.Int) (ledger.Outcome, error) {
	f.updateCalls++
	f.lastPrice = price
	return f.writeOutcome, f.writeErr
}

func (f *fakeLedger) SetAgency(context.Context, string, common.Address, *big.Int) (ledger.Outcome, error) {
	f.setAgencyCalls++
	return f.writeOutcome, f.writeErr
}

func (f *fakeLedger) ChangeAgencyFee(context.Context, string, *big.Int) (ledger.Outcome, error) {
	f.feeCalls++
	return f.writeOutcome, f.writeErr
}

func (f *fakeLedger) Address() common.Address {
	return common.HexToAddress("0x00000000000000000000000000000000000000FE")
}

type fakeFetcher struct {
	doc json.RawMessage
	err error
}

func (f *fakeFetcher) FetchJSON(_ context.Context, _ string, v any) error {
	if f.err != nil {
		return f.err
	}
	return json.Unmarshal(f.doc, v)
}

type captureEmitter struct {
	events []events.Event
}

func (c *captureEmitter) Emit(e events.Event) { c.events = append(c.events, e) }

type failingStore struct {
	Store
	saveErr error
}

func (s *failingStore) Save(ctx context.Context, req *Request) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	return s.Store.Save(ctx, req)
}

func newTestService(l *fakeLedger, store Store, fetch MetadataFetcher) (*Service, *captureEmitter) {
	emitter := &captureEmitter{}
	m := metrics.NewWith(prometheus.NewRegistry())
	logger := slog.New(slog.DiscardHandler)
	return NewService(l, store, fetch, nil, emitter, logger, m), emitter
}

func successOutcome() ledger.Outcome {
	return ledger.Outcome{State: ledger.StateSucceeded, TxHash: common.HexToHash("0xabc")}
}

func TestRequestHappyPath(t *testing.T) {
	l := &fakeLedger{
		agency:       ledger.Agency{Address: testAgencyAddr, Fee: big.NewInt(1000)},
		tokenURI:     "ipfs://QmToken",
		writeOutcome: successOutcome(),
	}
	store := NewInMemory()
	svc, emitter := newTestService(l, store, &fakeFetcher{doc: []byte(`{"state":"Lagos"}`)})

	result, err := svc.Request(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "Lagos", result.Region)
	assert.Equal(t, big.NewInt(1000), result.Fee)
	assert.Equal(t, ledger.StateSucceeded, result.Outcome.State)
	assert.Equal(t, 1, l.requestCalls)
	assert.Equal(t, big.NewInt(1000), l.lastFee, "the agency fee must be forwarded unchanged")

	rec, err := store.Find(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, rec.Status)
	assert.Equal(t, "Lagos", rec.Region)
	assert.Equal(t, "ipfs://QmToken", rec.MetadataURI)

	require.Len(t, emitter.events, 1)
	assert.Equal(t, events.TypeVerificationRequested, emitter.events[0].Type)
	assert.Equal(t, uint64(7), emitter.events[0].TokenID)
}

func TestRequestRejectsDuplicatePendingRecord(t *testing.T) {
	l := &fakeLedger{agency: ledger.Agency{Address: testAgencyAddr, Fee: big.NewInt(1)}}
	store := NewInMemory()
	require.NoError(t, store.Save(context.Background(), &Request{TokenID: 7, Status: StatusPending}))
	svc, _ := newTestService(l, store, &fakeFetcher{doc: []byte(`{"state":"Lagos"}`)})

	_, err := svc.Request(context.Background(), 7)
	assert.True(t, dErrors.Is(err, dErrors.CodeConflict))
	assert.Zero(t, l.requestCalls, "no ledger write on duplicate")
}

func TestRequestRejectsLedgerPending(t *testing.T) {
	l := &fakeLedger{pendingRequest: true}
	svc, _ := newTestService(l, NewInMemory(), &fakeFetcher{doc: []byte(`{"state":"Lagos"}`)})

	_, err := svc.Request(context.Background(), 7)
	assert.True(t, dErrors.Is(err, dErrors.CodeConflict))
	assert.Zero(t, l.requestCalls)
}

func TestRequestFailsClosedWithoutAgency(t *testing.T) {
	l := &fakeLedger{
		agency:   ledger.Agency{Fee: big.NewInt(0)}, // zero address
		tokenURI: "ipfs://QmToken",
	}
	svc, _ := newTestService(l, NewInMemory(), &fakeFetcher{doc: []byte(`{"state":"Atlantis"}`)})

	_, err := svc.Request(context.Background(), 7)
	assert.True(t, dErrors.Is(err, dErrors.CodeUnprocessable))
	assert.Zero(t, l.requestCalls, "unregistered region must never reach the ledger")
}

func TestRequestRejectsMetadataWithoutState(t *testing.T) {
	l := &fakeLedger{tokenURI: "ipfs://QmToken"}
	svc, _ := newTestService(l, NewInMemory(), &fakeFetcher{doc: []byte(`{"name":"x"}`)})

	_, err := svc.Request(context.Background(), 7)
	assert.True(t, dErrors.Is(err, dErrors.CodeUnprocessable))
}

func TestRequestRevertedSurfacesConflict(t *testing.T) {
	l := &fakeLedger{
		agency:       ledger.Agency{Address: testAgencyAddr, Fee: big.NewInt(1)},
		tokenURI:     "ipfs://QmToken",
		writeOutcome: ledger.Outcome{State: ledger.StateFailed, Reason: "method reverted"},
	}
	store := NewInMemory()
	svc, emitter := newTestService(l, store, &fakeFetcher{doc: []byte(`{"state":"Lagos"}`)})

	_, err := svc.Request(context.Background(), 7)
	assert.True(t, dErrors.Is(err, dErrors.CodeConflict))
	_, findErr := store.Find(context.Background(), 7)
	assert.Error(t, findErr, "no record for a reverted request")
	assert.Empty(t, emitter.events)
}

func TestRequestAbandonedWaitReturnsPending(t *testing.T) {
	l := &fakeLedger{
		agency:       ledger.Agency{Address: testAgencyAddr, Fee: big.NewInt(1)},
		tokenURI:     "ipfs://QmToken",
		writeOutcome: ledger.Outcome{State: ledger.StatePending, TxHash: common.HexToHash("0xdd")},
	}
	store := NewInMemory()
	svc, _ := newTestService(l, store, &fakeFetcher{doc: []byte(`{"state":"Lagos"}`)})

	result, err := svc.Request(context.Background(), 7)
	require.NoError(t, err, "an irrevocable broadcast is not a failure")
	assert.Equal(t, ledger.StatePending, result.Outcome.State)
	_, findErr := store.Find(context.Background(), 7)
	assert.Error(t, findErr, "record derivation waits for confirmation")
}

func TestRequestSurvivesRecordWriteFailure(t *testing.T) {
	l := &fakeLedger{
		agency:       ledger.Agency{Address: testAgencyAddr, Fee: big.NewInt(1)},
		tokenURI:     "ipfs://QmToken",
		writeOutcome: successOutcome(),
	}
	store := &failingStore{Store: NewInMemory(), saveErr: errors.New("db down")}
	svc, emitter := newTestService(l, store, &fakeFetcher{doc: []byte(`{"state":"Lagos"}`)})

	result, err := svc.Request(context.Background(), 7)
	require.NoError(t, err, "ledger acceptance wins; the record is recoverable")
	assert.Equal(t, ledger.StateSucceeded, result.Outcome.State)
	assert.Len(t, emitter.events, 1)
}

func TestAppraiseMarksRecordVerified(t *testing.T) {
	l := &fakeLedger{writeOutcome: successOutcome()}
	store := NewInMemory()
	require.NoError(t, store.Save(context.Background(), &Request{TokenID: 9, Status: StatusPending}))
	svc, emitter := newTestService(l, store, &fakeFetcher{doc: []byte(`{"state":"Lagos"}`)})

	outcome, err := svc.Appraise(context.Background(), 9, big.NewInt(500_000_000))
	require.NoError(t, err)
	assert.True(t, outcome.Succeeded())
	assert.Equal(t, 1, l.submitCalls)
	assert.Zero(t, l.updateCalls)

	rec, err := store.Find(context.Background(), 9)
	require.NoError(t, err)
	assert.Equal(t, StatusVerified, rec.Status)
	require.NotNil(t, rec.VerifiedAt)

	require.Len(t, emitter.events, 1)
	assert.Equal(t, events.TypeParcelAppraised, emitter.events[0].Type)
	assert.Equal(t, "500000000", emitter.events[0].Amount)
}

func TestAppraiseVerifiedParcelUpdates(t *testing.T) {
	l := &fakeLedger{verified: true, writeOutcome: successOutcome()}
	store := NewInMemory()
	require.NoError(t, store.Save(context.Background(), &Request{TokenID: 9, Status: StatusVerified}))
	svc, _ := newTestService(l, store, &fakeFetcher{doc: []byte(`{"state":"Lagos"}`)})

	_, err := svc.Appraise(context.Background(), 9, big.NewInt(1))
	require.NoError(t, err)
	assert.Zero(t, l.submitCalls)
	assert.Equal(t, 1, l.updateCalls, "a verified parcel gets an appraisal update, not a re-verification")
}

func TestAppraiseRejectsNonPositivePrice(t *testing.T) {
	svc, _ := newTestService(&fakeLedger{}, NewInMemory(), &fakeFetcher{})

	for _, price := range []*big.Int{nil, big.NewInt(0), big.NewInt(-5)} {
		_, err := svc.Appraise(context.Background(), 9, price)
		assert.True(t, dErrors.Is(err, dErrors.CodeBadRequest))
	}
}

func TestReappraisalRequiresVerified(t *testing.T) {
	l := &fakeLedger{verified: false}
	svc, _ := newTestService(l, NewInMemory(), &fakeFetcher{doc: []byte(`{"state":"Lagos"}`)})

	_, err := svc.RequestReappraisal(context.Background(), 3)
	assert.True(t, dErrors.Is(err, dErrors.CodeUnprocessable))
	assert.Zero(t, l.reappraise)
}

func TestReappraisalRejectsDuplicate(t *testing.T) {
	l := &fakeLedger{verified: true, pendingReappraise: true}
	svc, _ := newTestService(l, NewInMemory(), &fakeFetcher{doc: []byte(`{"state":"Lagos"}`)})

	_, err := svc.RequestReappraisal(context.Background(), 3)
	assert.True(t, dErrors.Is(err, dErrors.CodeConflict))
	assert.Zero(t, l.reappraise)
}

func TestReappraisalHappyPath(t *testing.T) {
	l := &fakeLedger{
		verified:     true,
		agency:       ledger.Agency{Address: testAgencyAddr, Fee: big.NewInt(777)},
		tokenURI:     "ipfs://QmToken",
		writeOutcome: successOutcome(),
	}
	svc, emitter := newTestService(l, NewInMemory(), &fakeFetcher{doc: []byte(`{"state":"Lagos"}`)})

	result, err := svc.RequestReappraisal(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, 1, l.reappraise)
	assert.Equal(t, big.NewInt(777), result.Fee)
	require.Len(t, emitter.events, 1)
	assert.Equal(t, events.TypeReappraisalRequested, emitter.events[0].Type)
}

func TestGetReDerivesVerifiedRecord(t *testing.T) {
	l := &fakeLedger{
		verified: true,
		agency:   ledger.Agency{Address: testAgencyAddr, Fee: big.NewInt(1)},
		tokenURI: "ipfs://QmToken",
	}
	store := NewInMemory()
	svc, _ := newTestService(l, store, &fakeFetcher{doc: []byte(`{"state":"Lagos"}`)})

	rec, err := svc.Get(context.Background(), 11)
	require.NoError(t, err)
	assert.Equal(t, StatusVerified, rec.Status)
	require.NotNil(t, rec.VerifiedAt)

	saved, err := store.Find(context.Background(), 11)
	require.NoError(t, err)
	assert.Equal(t, StatusVerified, saved.Status)
}

func TestGetUnknownTokenNotFound(t *testing.T) {
	svc, _ := newTestService(&fakeLedger{}, NewInMemory(), &fakeFetcher{doc: []byte(`{"state":"Lagos"}`)})

	_, err := svc.Get(context.Background(), 11)
	assert.True(t, dErrors.Is(err, dErrors.CodeNotFound))
}

func TestStatusRecompute(t *testing.T) {
	tests := []struct {
		name       string
		ledger     *fakeLedger
		wantStatus string
		wantPrice  string
	}{
		{"unverified", &fakeLedger{}, "unverified", ""},
		{"pending", &fakeLedger{pendingRequest: true}, "pending", ""},
		{"verified", &fakeLedger{verified: true, appraisedPrice: big.NewInt(42_000_000)}, "verified", "42000000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestService(tt.ledger, NewInMemory(), &fakeFetcher{})
			view, err := svc.Status(context.Background(), 5)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, view.Status)
			assert.Equal(t, tt.wantPrice, view.AppraisedPrice)
			assert.Empty(t, view.Owner, "unminted token has no owner in the view")
		})
	}
}

func TestStatusIncludesOwnerWhenMinted(t *testing.T) {
	l := &fakeLedger{verified: true, appraisedPrice: big.NewInt(1), owner: testAgencyAddr}
	svc, _ := newTestService(l, NewInMemory(), &fakeFetcher{})

	view, err := svc.Status(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, testAgencyAddr.Hex(), view.Owner)
}

func TestRegisterAgencyValidation(t *testing.T) {
	l := &fakeLedger{writeOutcome: successOutcome()}
	svc, _ := newTestService(l, NewInMemory(), &fakeFetcher{})

	_, err := svc.RegisterAgency(context.Background(), "Lagos", "not-an-address", big.NewInt(1))
	assert.True(t, dErrors.Is(err, dErrors.CodeBadRequest))

	_, err = svc.RegisterAgency(context.Background(), "Lagos", testAgencyAddr.Hex(), big.NewInt(-1))
	assert.True(t, dErrors.Is(err, dErrors.CodeBadRequest))
	assert.Zero(t, l.setAgencyCalls)

	_, err = svc.RegisterAgency(context.Background(), "Lagos", testAgencyAddr.Hex(), big.NewInt(0))
	require.NoError(t, err, "a zero fee is a valid registration")
	assert.Equal(t, 1, l.setAgencyCalls)
}
