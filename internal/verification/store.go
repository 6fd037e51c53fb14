package verification

import (
	"context"
	"sync"
	"time"

	"landq/pkg/platform/sentinel"
)

// Store persists verification request records keyed by token id. Save is an
// upsert so re-derivation from ledger state stays idempotent.
type Store interface {
	Save(ctx context.Context, req *Request) error
	Find(ctx context.Context, tokenID uint64) (*Request, error)
	MarkVerified(ctx context.Context, tokenID uint64, at time.Time) error
}

// InMemory is the development and test store.
type InMemory struct {
	mu      sync.RWMutex
	records map[uint64]*Request
}

// NewInMemory builds an empty in-memory store.
func NewInMemory() *InMemory {
	return &InMemory{records: make(map[uint64]*Request)}
}

func (s *InMemory) Save(_ context.Context, req *Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *req
	s.records[req.TokenID] = &cp
	return nil
}

func (s *InMemory) Find(_ context.Context, tokenID uint64) (*Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[tokenID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (s *InMemory) MarkVerified(_ context.Context, tokenID uint64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[tokenID]
	if !ok {
		return sentinel.ErrNotFound
	}
	rec.Status = StatusVerified
	rec.VerifiedAt = &at
	return nil
}
