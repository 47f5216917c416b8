package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/weather-verify-service/internal/config"
	"github.com/couchcryptid/weather-verify-service/internal/domain"
	"github.com/couchcryptid/weather-verify-service/internal/observability"
	kafkago "github.com/segmentio/kafka-go"
)

const publishBatchTimeout = 10 * time.Millisecond

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Publisher hands finished reports to a Kafka topic for downstream consumers.
type Publisher struct {
	writer  messageWriter
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewPublisher creates a Kafka producer for the configured report topic.
func NewPublisher(cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaReportTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
		// Publish runs inside the request; flush each report without waiting for a batch.
		BatchTimeout: publishBatchTimeout,
	}
	return &Publisher{writer: w, metrics: metrics, logger: logger}
}

// Publish writes one report, keyed by report ID so repeats of the same
// verification land on the same partition.
func (p *Publisher) Publish(ctx context.Context, report domain.Report, requestID string) error {
	msg, err := serializeToMessage(report, requestID)
	if err != nil {
		p.metrics.ReportsPublished.WithLabelValues("error").Inc()
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.metrics.ReportsPublished.WithLabelValues("error").Inc()
		return fmt.Errorf("publish report %s: %w", report.ID, err)
	}
	p.metrics.ReportsPublished.WithLabelValues("success").Inc()
	p.logger.Debug("report published", "report_id", report.ID, "request_id", requestID)
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// serializeToMessage marshals a Report into a Kafka message.
func serializeToMessage(report domain.Report, requestID string) (kafkago.Message, error) {
	data, err := json.Marshal(report)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize report: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(report.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "verdict", Value: []byte(report.Verdict.Class)},
			{Key: "generated_at", Value: []byte(report.GeneratedAt.Format(time.RFC3339))},
			{Key: "request_id", Value: []byte(requestID)},
		},
	}, nil
}
