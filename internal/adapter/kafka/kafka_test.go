package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/couchcryptid/weather-verify-service/internal/config"
	"github.com/couchcryptid/weather-verify-service/internal/domain"
	"github.com/couchcryptid/weather-verify-service/internal/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockWriter struct {
	msgs   []kafkago.Message
	err    error
	closed bool
}

func (m *mockWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if m.err != nil {
		return m.err
	}
	m.msgs = append(m.msgs, msgs...)
	return nil
}

func (m *mockWriter) Close() error {
	m.closed = true
	return nil
}

var generatedAt = time.Date(2024, 6, 15, 9, 30, 0, 0, time.UTC)

func testReport() domain.Report {
	loc := domain.ResolvedLocation{Latitude: 51.50853, Longitude: -0.12574, Name: "London", DisplayName: "London, England, United Kingdom"}
	metrics := domain.WeatherMetrics{PrecipitationSumMm: 12.4, Timezone: "Europe/London"}
	return domain.Assemble(loc, domain.IncidentDate{Year: 2024, Month: time.May, Day: 1}, metrics,
		domain.Classify(metrics.PrecipitationSumMm), generatedAt)
}

func testPublisher(w messageWriter) (*Publisher, *observability.Metrics) {
	m := observability.NewMetricsForTesting()
	return &Publisher{writer: w, metrics: m, logger: slog.New(slog.NewTextHandler(io.Discard, nil))}, m
}

func TestSerializeToMessage(t *testing.T) {
	report := testReport()

	msg, err := serializeToMessage(report, "req-1")
	require.NoError(t, err)

	assert.Equal(t, []byte(report.ID), msg.Key)
	assert.Contains(t, string(msg.Value), `"class":"SIGNIFICANT_RAIN"`)
	assert.Len(t, msg.Headers, 3)
	assert.Equal(t, "verdict", msg.Headers[0].Key)
	assert.Equal(t, []byte("SIGNIFICANT_RAIN"), msg.Headers[0].Value)
	assert.Equal(t, "generated_at", msg.Headers[1].Key)
	assert.Equal(t, []byte(generatedAt.Format(time.RFC3339)), msg.Headers[1].Value)
	assert.Equal(t, "request_id", msg.Headers[2].Key)
	assert.Equal(t, []byte("req-1"), msg.Headers[2].Value)

	var decoded domain.Report
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, report.ID, decoded.ID)
	assert.Equal(t, report.Date, decoded.Date)
}

func TestPublisher_Publish(t *testing.T) {
	w := &mockWriter{}
	p, m := testPublisher(w)

	require.NoError(t, p.Publish(context.Background(), testReport(), "req-1"))

	require.Len(t, w.msgs, 1)
	assert.Equal(t, []byte(testReport().ID), w.msgs[0].Key)
	assert.InDelta(t, 1, testutil.ToFloat64(m.ReportsPublished.WithLabelValues("success")), 0)
}

func TestPublisher_Publish_WriteError(t *testing.T) {
	w := &mockWriter{err: errors.New("broker unavailable")}
	p, m := testPublisher(w)

	err := p.Publish(context.Background(), testReport(), "req-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker unavailable")
	assert.InDelta(t, 1, testutil.ToFloat64(m.ReportsPublished.WithLabelValues("error")), 0)
}

func TestPublisher_Close(t *testing.T) {
	w := &mockWriter{}
	p, _ := testPublisher(w)

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestNewPublisher_FlushesWithoutBatchDelay(t *testing.T) {
	cfg := &config.Config{KafkaBrokers: []string{"localhost:9092"}, KafkaReportTopic: "weather.reports"}
	p := NewPublisher(cfg, observability.NewMetricsForTesting(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	t.Cleanup(func() { _ = p.Close() })

	w, ok := p.writer.(*kafkago.Writer)
	require.True(t, ok)
	assert.Equal(t, "weather.reports", w.Topic)
	assert.LessOrEqual(t, w.BatchTimeout, 10*time.Millisecond)
	assert.Equal(t, kafkago.RequireAll, w.RequiredAcks)
}
