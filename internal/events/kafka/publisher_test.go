package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/SscSPs/doc_signing_app/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"
)

type fakeProducer struct {
	records []*kgo.Record
	err     error
	closed  bool
}

func (f *fakeProducer) ProduceSync(_ context.Context, rs ...*kgo.Record) kgo.ProduceResults {
	results := make(kgo.ProduceResults, 0, len(rs))
	for _, r := range rs {
		f.records = append(f.records, r)
		results = append(results, kgo.ProduceResult{Record: r, Err: f.err})
	}
	return results
}

func (f *fakeProducer) Close() { f.closed = true }

func TestPublishCompletedKeysByDocument(t *testing.T) {
	producer := &fakeProducer{}
	pub := NewCompletionPublisherWithProducer(producer, "documents.completed")

	event := domain.CompletionEvent{
		EventID:    "evt-1",
		DocumentID: "doc-1",
		ClientID:   "client-1",
		Title:      "Engagement letter",
		SignedAt:   time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Path:       "sign",
	}
	require.NoError(t, pub.PublishCompleted(context.Background(), event))
	require.Len(t, producer.records, 1)

	rec := producer.records[0]
	assert.Equal(t, "documents.completed", rec.Topic)
	assert.Equal(t, "doc-1", string(rec.Key))

	var decoded domain.CompletionEvent
	require.NoError(t, json.Unmarshal(rec.Value, &decoded))
	assert.Equal(t, event, decoded)
	assert.Contains(t, rec.Headers, kgo.RecordHeader{Key: "event-type", Value: []byte("document.completed")})
}

func TestPublishCompletedReturnsProduceError(t *testing.T) {
	producer := &fakeProducer{err: errors.New("broker down")}
	pub := NewCompletionPublisherWithProducer(producer, "documents.completed")

	err := pub.PublishCompleted(context.Background(), domain.CompletionEvent{DocumentID: "doc-2"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "doc-2")
	assert.Contains(t, err.Error(), "broker down")

	pub.Close()
	assert.True(t, producer.closed)
}

func TestNewCompletionPublisherRejectsEmptyConfig(t *testing.T) {
	_, err := NewCompletionPublisher(nil, "t")
	assert.Error(t, err)
	_, err = NewCompletionPublisher([]string{"localhost:9092"}, "")
	assert.Error(t, err)
}
