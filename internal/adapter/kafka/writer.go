// Package kafka publishes assembled table rows to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/opendata-etl/internal/config"
	"github.com/couchcryptid/opendata-etl/internal/domain"
)

// Writer produces one message per table row.
// It implements pipeline.Sink.
type Writer struct {
	writer *kafkago.Writer
	clock  clockwork.Clock
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, clock clockwork.Clock, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, clock: clock, logger: logger}
}

// Name identifies the sink in logs and metrics.
func (w *Writer) Name() string {
	return "kafka"
}

// WriteTable serializes every row as a JSON object keyed by column label
// and publishes all rows in a single WriteMessages call for efficiency.
func (w *Writer) WriteTable(ctx context.Context, table string, t domain.Table) error {
	if t.IsEmpty() {
		return nil
	}
	producedAt := w.clock.Now().UTC().Format(time.RFC3339)
	msgs := make([]kafkago.Message, len(t.Rows))
	for i, row := range t.Rows {
		msg, err := serializeRow(table, producedAt, t.Columns, row, i)
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	return w.writer.WriteMessages(ctx, msgs...)
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeRow marshals one table row into a Kafka message.
func serializeRow(table, producedAt string, columns, row []string, position int) (kafkago.Message, error) {
	rec := make(map[string]string, len(columns))
	for i, col := range columns {
		if i < len(row) {
			rec[col] = row[i]
		}
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize table row: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(fmt.Sprintf("%s-%d", table, position)),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "table", Value: []byte(table)},
			{Key: "produced_at", Value: []byte(producedAt)},
		},
	}, nil
}
