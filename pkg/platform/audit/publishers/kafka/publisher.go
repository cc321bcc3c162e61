// Package kafka publishes domain events to a Kafka topic with franz-go.
// Records are keyed by applicant ID so every event for one applicant lands on
// the same partition and keeps its order.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	audit "dlms/pkg/platform/audit"
	"dlms/pkg/platform/sentinel"
)

// Producer is the subset of *kgo.Client the publisher needs.
type Producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

type Publisher struct {
	producer Producer
	topic    string
	logger   *slog.Logger
	breaker  *circuitBreaker
	clock    func() time.Time
}

type Option func(*Publisher)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// WithCircuitBreaker overrides the failure threshold and open duration.
func WithCircuitBreaker(threshold int, cooldown time.Duration) Option {
	return func(p *Publisher) {
		p.breaker = newCircuitBreaker(threshold, cooldown)
	}
}

func New(producer Producer, topic string, opts ...Option) *Publisher {
	p := &Publisher{
		producer: producer,
		topic:    topic,
		breaker:  newCircuitBreaker(0, 0),
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// payload is the JSON document written to the topic.
type payload struct {
	Category    string `json:"category"`
	Timestamp   string `json:"timestamp"`
	ApplicantID string `json:"applicant_id,omitempty"`
	Subject     string `json:"subject"`
	Action      string `json:"action"`
	Reason      string `json:"reason,omitempty"`
	Agent       string `json:"agent,omitempty"`
	RequestID   string `json:"request_id,omitempty"`
}

func encode(event audit.Event) ([]byte, error) {
	p := payload{
		Category:  string(event.Category),
		Timestamp: event.Timestamp.UTC().Format(time.RFC3339Nano),
		Subject:   event.Subject,
		Action:    event.Action,
		Reason:    event.Reason,
		Agent:     event.Agent,
		RequestID: event.RequestID,
	}
	if !event.ApplicantID.IsNil() {
		p.ApplicantID = event.ApplicantID.String()
	}
	return json.Marshal(p)
}

// Emit produces one record synchronously. While the breaker is open it fails
// fast with sentinel.ErrUnavailable.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	now := p.clock()
	if !p.breaker.allow(now) {
		return fmt.Errorf("kafka publisher: %w", sentinel.ErrUnavailable)
	}

	value, err := encode(event)
	if err != nil {
		return fmt.Errorf("marshal domain event: %w", err)
	}
	record := &kgo.Record{
		Topic: p.topic,
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: "event_type", Value: []byte(event.Action)},
			{Key: "category", Value: []byte(event.Category)},
		},
	}
	if !event.ApplicantID.IsNil() {
		record.Key = []byte(event.ApplicantID.String())
	}

	if err := p.producer.ProduceSync(ctx, record).FirstErr(); err != nil {
		p.breaker.recordFailure(now)
		if p.logger != nil {
			p.logger.ErrorContext(ctx, "kafka produce failed",
				"topic", p.topic,
				"action", event.Action,
				"error", err,
			)
		}
		return fmt.Errorf("produce domain event: %w", err)
	}
	p.breaker.recordSuccess()
	return nil
}

// EnsureTopic creates the topic when it does not exist yet.
func EnsureTopic(ctx context.Context, client *kgo.Client, topic string, partitions int32, replication int16) error {
	adm := kadm.NewClient(client)
	resp, err := adm.CreateTopics(ctx, partitions, replication, nil, topic)
	if err != nil {
		return fmt.Errorf("create topic %s: %w", topic, err)
	}
	if r, ok := resp[topic]; ok && r.Err != nil && !errors.Is(r.Err, kerr.TopicAlreadyExists) {
		return fmt.Errorf("create topic %s: %w", topic, r.Err)
	}
	return nil
}
