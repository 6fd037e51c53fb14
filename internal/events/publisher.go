package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"

	"landq/internal/platform/config"
)

// Publisher buffers events on a channel for the worker. A full buffer drops
// the event with a log line rather than stalling a request.
type Publisher struct {
	inbox  chan Event
	logger *slog.Logger
}

// NewPublisher builds the channel-backed publisher.
func NewPublisher(logger *slog.Logger) *Publisher {
	return &Publisher{
		inbox:  make(chan Event, 256),
		logger: logger,
	}
}

// Emit enqueues the event, stamping the time if unset.
func (p *Publisher) Emit(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	select {
	case p.inbox <- event:
	default:
		p.logger.Warn("event buffer full, dropping", "type", string(event.Type), "token_id", event.TokenID)
	}
}

// Inbox exposes the channel for the worker.
func (p *Publisher) Inbox() <-chan Event { return p.inbox }

// Sink delivers events somewhere durable.
type Sink interface {
	Deliver(ctx context.Context, event Event) error
	Close()
}

// DiscardSink drops events; selected when no broker is configured.
type DiscardSink struct{}

func (DiscardSink) Deliver(context.Context, Event) error { return nil }
func (DiscardSink) Close()                               {}

// KafkaSink writes events to a Kafka topic keyed by token id so per-parcel
// ordering is preserved within a partition.
type KafkaSink struct {
	client *kgo.Client
	topic  string
}

// NewKafkaSink connects to the brokers and ensures the topic exists.
func NewKafkaSink(ctx context.Context, cfg config.KafkaConfig) (*KafkaSink, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.DefaultProduceTopic(cfg.Topic),
	)
	if err != nil {
		return nil, fmt.Errorf("events: kafka client: %w", err)
	}

	// Already-exists is fine; any real broker problem surfaces at first
	// produce anyway.
	admin := kadm.NewClient(client)
	_, _ = admin.CreateTopic(ctx, 3, 1, nil, cfg.Topic)

	return &KafkaSink{client: client, topic: cfg.Topic}, nil
}

func (s *KafkaSink) Deliver(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("events: encode: %w", err)
	}
	record := &kgo.Record{
		Topic: s.topic,
		Key:   []byte(strconv.FormatUint(event.TokenID, 10)),
		Value: payload,
	}
	if err := s.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("events: produce: %w", err)
	}
	return nil
}

func (s *KafkaSink) Close() { s.client.Close() }
