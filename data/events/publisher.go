package events

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"github.com/dawita19/earnmax-sub001/config"
)

// Publisher pushes audit events to kafka, fire-and-forget. A disabled or
// failing stream never affects request handling or settlement.
type Publisher struct {
	writer *kafka.Writer
}

// NewPublisher build the audit stream; disabled config returns a no-op publisher
func NewPublisher(cfg config.AuditConfig) *Publisher {
	if !cfg.Enabled || len(cfg.Brokers) == 0 {
		return &Publisher{}
	}
	return &Publisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        cfg.Topic,
			Balancer:     &kafka.LeastBytes{},
			Async:        true,
			RequiredAcks: kafka.RequireNone,
		},
	}
}

// Publish send one event keyed by its name
func (publisher *Publisher) Publish(event string, payload interface{}) {
	if publisher.writer == nil {
		return
	}
	body, err := json.Marshal(payload)
	if err != nil {
		log.Warn().Err(err).Str("section", "events").Str("event", event).Msg("Unable to encode audit event")
		return
	}
	err = publisher.writer.WriteMessages(context.Background(), kafka.Message{
		Key:   []byte(event),
		Value: body,
	})
	if err != nil {
		log.Warn().Err(err).Str("section", "events").Str("event", event).Msg("Unable to publish audit event")
	}
}

// Close flush and close the underlying writer
func (publisher *Publisher) Close() {
	if publisher.writer != nil {
		_ = publisher.writer.Close()
	}
}
