// Package events publishes shipment lifecycle events to Kafka.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/colib/colib-backend/internal/models"
	"github.com/colib/colib-backend/pkg/logger"
	"github.com/segmentio/kafka-go"
)

// Writer is the subset of kafka.Writer the producer uses.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher is the interface services use to publish events.
type Publisher interface {
	Publish(ctx context.Context, key string, value interface{}) error
	Close() error
}

// ShipmentMessage is the JSON value written for every shipment event.
type ShipmentMessage struct {
	EventID    string                   `json:"event_id"`
	ShipmentID string                   `json:"shipment_id"`
	ActorID    string                   `json:"actor_id"`
	Type       models.ShipmentEventType `json:"type"`
	Payload    map[string]interface{}   `json:"payload"`
	OccurredAt time.Time                `json:"occurred_at"`
}

// FromEvent builds the message for a stored shipment event.
func FromEvent(e *models.ShipmentEvent) ShipmentMessage {
	return ShipmentMessage{
		EventID:    e.ID,
		ShipmentID: e.ShipmentID,
		ActorID:    e.ActorID,
		Type:       e.Type,
		Payload:    e.Payload,
		OccurredAt: e.CreatedAt,
	}
}

// KafkaProducer writes JSON messages keyed by shipment ID, so one shipment's
// events stay ordered on a single partition.
type KafkaProducer struct {
	writer Writer
}

func NewKafkaProducer(brokerURL, topic string) *KafkaProducer {
	return &KafkaProducer{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokerURL),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			AllowAutoTopicCreation: true,
		},
	}
}

// NewKafkaProducerWithWriter allows injecting a test writer.
func NewKafkaProducerWithWriter(w Writer) *KafkaProducer {
	return &KafkaProducer{writer: w}
}

// Publish marshals value to JSON and writes it under key.
func (p *KafkaProducer) Publish(ctx context.Context, key string, value interface{}) error {
	b, err := json.Marshal(value)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to marshal kafka value")
		return err
	}
	if err := p.writer.WriteMessages(ctx, kafka.Message{Key: []byte(key), Value: b}); err != nil {
		logger.Log.WithError(err).WithField("key", key).Error("Kafka write error")
		return err
	}
	return nil
}

func (p *KafkaProducer) Close() error {
	return p.writer.Close()
}

// NopPublisher drops every event. It is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, interface{}) error { return nil }
func (NopPublisher) Close() error                                       { return nil }
