package kafka

import (
	"context"
	"log/slog"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/bahalana/floodcast/internal/config"
	"github.com/bahalana/floodcast/internal/domain"
)

// Writer produces daily records to the sink topic.
// It implements pipeline.BatchLoader.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// LoadBatch serializes and publishes multiple daily records to the sink
// topic in a single WriteMessages call. Records are keyed by location and
// date, so replays overwrite in compacted downstream views instead of
// duplicating.
func (w *Writer) LoadBatch(ctx context.Context, records []domain.DailyRecord) error {
	if len(records) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(records))
	for i := range records {
		out, err := domain.SerializeDailyRecord(records[i])
		if err != nil {
			return err
		}
		headers := make([]kafkago.Header, 0, len(out.Headers))
		for k, v := range out.Headers {
			headers = append(headers, kafkago.Header{Key: k, Value: []byte(v)})
		}
		msgs[i] = kafkago.Message{Key: out.Key, Value: out.Value, Headers: headers}
	}
	return w.writer.WriteMessages(ctx, msgs...)
}

func (w *Writer) Close() error {
	return w.writer.Close()
}
