// Package kafka publishes notification audit records for downstream
// analysis of what was sent to whom.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/pes-safety/evac-notifier/internal/domain"
)

// AuditRecord is one delivery outcome on the audit topic.
type AuditRecord struct {
	ID       string    `json:"id"`
	AlertID  string    `json:"alert_id"`
	DeviceID string    `json:"device_id"`
	Method   string    `json:"method"`
	Success  bool      `json:"success"`
	SentAt   time.Time `json:"sent_at"`
}

// messageWriter is the kafka-go surface AuditWriter uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// AuditWriter publishes audit records keyed by alert so one alert's
// deliveries land in a single partition, in order.
type AuditWriter struct {
	writer messageWriter
	clock  clockwork.Clock
	logger *slog.Logger
}

// NewAuditWriter connects a writer to the audit topic. Writes require
// acknowledgement from all in-sync replicas.
func NewAuditWriter(brokers []string, topic string, clock clockwork.Clock, logger *slog.Logger) *AuditWriter {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &AuditWriter{writer: w, clock: clock, logger: logger}
}

// Record publishes one delivery outcome. Failures are logged and
// swallowed: an audit outage must never block notification delivery.
func (a *AuditWriter) Record(ctx context.Context, alert domain.Alert, deviceID string, method domain.GenerationMethod, success bool) {
	rec := AuditRecord{
		ID:       uuid.NewString(),
		AlertID:  alert.ID,
		DeviceID: deviceID,
		Method:   string(method),
		Success:  success,
		SentAt:   a.clock.Now().UTC(),
	}
	msg, err := serializeAudit(rec, alert.Category)
	if err != nil {
		if a.logger != nil {
			a.logger.Error("serialize audit record", "alert_id", alert.ID, "error", err)
		}
		return
	}
	if err := a.writer.WriteMessages(ctx, msg); err != nil {
		if a.logger != nil {
			a.logger.Error("write audit record", "alert_id", alert.ID, "error", err)
		}
	}
}

// Close flushes and closes the underlying writer.
func (a *AuditWriter) Close() error {
	return a.writer.Close()
}

func serializeAudit(rec AuditRecord, category domain.DisasterCategory) (kafkago.Message, error) {
	value, err := json.Marshal(rec)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("marshal audit record %s: %w", rec.ID, err)
	}
	return kafkago.Message{
		Key:   []byte(rec.AlertID),
		Value: value,
		Headers: []kafkago.Header{
			{Key: "category", Value: []byte(category)},
		},
	}, nil
}
