package kafka

import (
	"context"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
)

func TestToRawRecord(t *testing.T) {
	now := time.Now()
	msg := kafkago.Message{
		Key:       []byte("Marikina|2024-07-15"),
		Value:     []byte(`{"location":"Marikina"}`),
		Topic:     "raw-climate-daily",
		Partition: 2,
		Offset:    42,
		Time:      now,
		Headers: []kafkago.Header{
			{Key: "source", Value: []byte("nasa-power")},
		},
	}

	r := &Reader{}
	raw := r.toRawRecord(msg)

	assert.Equal(t, []byte("Marikina|2024-07-15"), raw.Key)
	assert.JSONEq(t, `{"location":"Marikina"}`, string(raw.Value))
	assert.Equal(t, "raw-climate-daily", raw.Topic)
	assert.Equal(t, 2, raw.Partition)
	assert.Equal(t, int64(42), raw.Offset)
	assert.Equal(t, now, raw.Timestamp)
	assert.Equal(t, "nasa-power", raw.Headers["source"])
	assert.NotNil(t, raw.Commit)
}

func TestWriterLoadBatchEmpty(t *testing.T) {
	w := &Writer{}
	// An empty batch must not touch the underlying writer at all.
	assert.NoError(t, w.LoadBatch(context.Background(), nil))
}
