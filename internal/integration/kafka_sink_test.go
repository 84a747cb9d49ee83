//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"

	kafkaadapter "github.com/couchcryptid/opendata-etl/internal/adapter/kafka"
	"github.com/couchcryptid/opendata-etl/internal/config"
	"github.com/couchcryptid/opendata-etl/internal/domain"
)

const testSinkTopic = "test-normalized-opendata"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startKafka starts a single-node Kafka container and returns its broker
// address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()

	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0",
		tckafka.WithClusterID("test-cluster"),
	)
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err, "resolve broker addresses")
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()

	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err, "dial broker")
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err, "resolve controller")

	controllerConn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err, "dial controller")
	defer controllerConn.Close()

	require.NoError(t, controllerConn.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

// TestKafkaSink_PublishesTableRows verifies that the sink publishes one
// JSON message per table row with the table and produced_at headers.
func TestKafkaSink_PublishesTableRows(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSinkTopic)

	cfg := &config.Config{
		KafkaBrokers:   []string{broker},
		KafkaSinkTopic: testSinkTopic,
	}

	at := time.Date(2026, 2, 14, 0, 30, 15, 0, time.UTC)
	sink := kafkaadapter.NewWriter(cfg, clockwork.NewFakeClockAt(at), discardLogger())
	t.Cleanup(func() { _ = sink.Close() })

	table := domain.Table{
		Columns: []string{"area", "area_code", "time", "weather", "temp_low", "temp_high", "pop"},
		Rows: [][]string{
			{"東京都", "130000", "2026-02-14T11:00:00+09:00", "晴れ", "3", "12", "10%"},
			{"大阪府", "270000", "2026-02-14T11:00:00+09:00", "くもり", "5", "11", "40%"},
		},
	}
	require.NoError(t, sink.WriteTable(ctx, "weather_forecast", table))

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testSinkTopic,
		GroupID:     fmt.Sprintf("test-consumer-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	var rows []map[string]string
	for len(rows) < 2 {
		readCtx, readCancel := context.WithTimeout(ctx, 30*time.Second)
		msg, err := consumer.ReadMessage(readCtx)
		readCancel()
		require.NoError(t, err, "read from sink topic")

		headers := make(map[string]string, len(msg.Headers))
		for _, h := range msg.Headers {
			headers[h.Key] = string(h.Value)
		}
		assert.Equal(t, "weather_forecast", headers["table"])
		assert.Equal(t, at.Format(time.RFC3339), headers["produced_at"])
		assert.Equal(t, fmt.Sprintf("weather_forecast-%d", len(rows)), string(msg.Key))

		var row map[string]string
		require.NoError(t, json.Unmarshal(msg.Value, &row))
		rows = append(rows, row)
	}

	assert.Equal(t, "東京都", rows[0]["area"])
	assert.Equal(t, "10%", rows[0]["pop"])
	assert.Equal(t, "270000", rows[1]["area_code"])
	assert.Equal(t, "くもり", rows[1]["weather"])

	// No third message: empty tables publish nothing.
	require.NoError(t, sink.WriteTable(ctx, "weather_forecast", domain.Table{Columns: table.Columns}))
	readCtx, readCancel := context.WithTimeout(ctx, 5*time.Second)
	_, err := consumer.ReadMessage(readCtx)
	readCancel()
	assert.Error(t, err, "expected no further messages on sink topic")
}
