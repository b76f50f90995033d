package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/SscSPs/doc_signing_app/internal/core/domain"
	portssvc "github.com/SscSPs/doc_signing_app/internal/core/ports/services"
	"github.com/twmb/franz-go/pkg/kgo"
)

// Producer is the subset of *kgo.Client the publisher needs.
type Producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
	Close()
}

// CompletionPublisher writes completion events to a Kafka topic, keyed by
// document id so every event for a document lands on one partition.
type CompletionPublisher struct {
	producer Producer
	topic    string
}

var _ portssvc.CompletionPublisher = (*CompletionPublisher)(nil)

// NewCompletionPublisher connects a franz-go client to brokers.
func NewCompletionPublisher(brokers []string, topic string) (*CompletionPublisher, error) {
	if len(brokers) == 0 {
		return nil, errors.New("kafka: no seed brokers")
	}
	if topic == "" {
		return nil, errors.New("kafka: completion topic is empty")
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.AllowAutoTopicCreation(),
		kgo.RequiredAcks(kgo.AllISRAcks()),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka: create client: %w", err)
	}
	slog.Info("Kafka completion publisher configured", slog.Any("brokers", brokers), slog.String("topic", topic))
	return NewCompletionPublisherWithProducer(client, topic), nil
}

// NewCompletionPublisherWithProducer wraps an existing producer.
func NewCompletionPublisherWithProducer(producer Producer, topic string) *CompletionPublisher {
	return &CompletionPublisher{producer: producer, topic: topic}
}

// PublishCompleted produces one record and waits for the broker ack.
func (p *CompletionPublisher) PublishCompleted(ctx context.Context, event domain.CompletionEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("kafka: encode completion event: %w", err)
	}
	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(event.DocumentID),
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: "event-type", Value: []byte("document.completed")},
			{Key: "event-id", Value: []byte(event.EventID)},
		},
	}
	if err := p.producer.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("kafka: produce completion of %s: %w", event.DocumentID, err)
	}
	return nil
}

// Close releases the underlying client.
func (p *CompletionPublisher) Close() {
	p.producer.Close()
}
