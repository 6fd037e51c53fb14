package events

import (
	"context"
	"log/slog"
)

// Worker drains the publisher channel into a sink. Delivery failures are
// logged and dropped: workflow events are observability, not bookkeeping,
// and must never wedge the pipeline behind a broker outage.
type Worker struct {
	inbox  <-chan Event
	sink   Sink
	logger *slog.Logger
}

// NewWorker wires a worker to a publisher's inbox.
func NewWorker(inbox <-chan Event, sink Sink, logger *slog.Logger) *Worker {
	return &Worker{inbox: inbox, sink: sink, logger: logger}
}

// Run consumes until the context is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.sink.Deliver(ctx, event); err != nil {
				w.logger.Error("event delivery failed",
					"type", string(event.Type),
					"token_id", event.TokenID,
					"error", err,
				)
			}
		}
	}
}
