package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	audit "seqguard/pkg/platform/audit"
)

type fakeProducer struct {
	records []*kgo.Record
	err     error
}

func (f *fakeProducer) ProduceSync(_ context.Context, rs ...*kgo.Record) kgo.ProduceResults {
	f.records = append(f.records, rs...)
	results := make(kgo.ProduceResults, 0, len(rs))
	for _, r := range rs {
		results = append(results, kgo.ProduceResult{Record: r, Err: f.err})
	}
	return results
}

func TestStore_Append(t *testing.T) {
	producer := &fakeProducer{}
	store := New(producer, "seqguard.audit")

	ts := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	err := store.Append(context.Background(), audit.Event{
		Timestamp:    ts,
		Subject:      "analysis-1",
		Action:       string(audit.EventAnalysisCompleted),
		Decision:     "RED",
		SequenceHash: "abc",
	})
	require.NoError(t, err)
	require.Len(t, producer.records, 1)

	rec := producer.records[0]
	assert.Equal(t, "seqguard.audit", rec.Topic)
	assert.Equal(t, []byte("analysis-1"), rec.Key)

	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Value, &got))
	assert.Equal(t, "compliance", got["category"])
	assert.Equal(t, "analysis_completed", got["action"])
	assert.Equal(t, "RED", got["decision"])
	assert.Equal(t, "2025-03-01T10:00:00Z", got["timestamp"])
	assert.NotEmpty(t, got["id"])
}

func TestStore_AppendProduceError(t *testing.T) {
	producer := &fakeProducer{err: errors.New("broker down")}
	store := New(producer, "seqguard.audit")

	err := store.Append(context.Background(), audit.Event{Subject: "x", Action: "registry_match"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker down")
}
