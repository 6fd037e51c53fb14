package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"landq/internal/platform/logger"
)

type recordingSink struct {
	mu        sync.Mutex
	delivered []Event
	err       error
}

func (s *recordingSink) Deliver(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.delivered = append(s.delivered, event)
	return nil
}

func (s *recordingSink) Close() {}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.delivered)
}

func TestWorkerDrainsPublisher(t *testing.T) {
	pub := NewPublisher(logger.New())
	sink := &recordingSink{}
	worker := NewWorker(pub.Inbox(), sink, logger.New())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = worker.Run(ctx)
	}()

	pub.Emit(Event{Type: TypeVerificationRequested, TokenID: 7})
	pub.Emit(Event{Type: TypeParcelAppraised, TokenID: 7})

	require.Eventually(t, func() bool { return sink.count() == 2 }, time.Second, 10*time.Millisecond)
	cancel()
	<-done

	sink.mu.Lock()
	defer sink.mu.Unlock()
	assert.Equal(t, TypeVerificationRequested, sink.delivered[0].Type)
	assert.False(t, sink.delivered[0].Timestamp.IsZero(), "publisher stamps emit time")
}

func TestWorkerSurvivesDeliveryFailure(t *testing.T) {
	pub := NewPublisher(logger.New())
	sink := &recordingSink{err: errors.New("broker down")}
	worker := NewWorker(pub.Inbox(), sink, logger.New())

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	pub.Emit(Event{Type: TypeLoanIssued, TokenID: 1})
	err := worker.Run(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPublisherDropsWhenFull(t *testing.T) {
	pub := NewPublisher(logger.New())
	// No worker attached: fill the buffer past capacity.
	for i := 0; i < 300; i++ {
		pub.Emit(Event{Type: TypeLoanRepaid, TokenID: uint64(i)})
	}
	assert.Equal(t, 256, len(pub.inbox))
}
