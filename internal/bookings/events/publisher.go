package events

import (
	"context"
	"fmt"

	"roombook/pkg/kafka"
	"roombook/pkg/middleware"
	"roombook/pkg/model"

	"github.com/google/uuid"
)

const (
	schemaVersion = "1"
	source        = "bookings-service"
)

// Publisher emits booking change events after they are committed.
type Publisher interface {
	Publish(ctx context.Context, event *model.BookingEvent) error
	Close() error
}

type kafkaPublisher struct {
	producer *kafka.Producer
}

// NewKafkaPublisher publishes events through producer, keyed by room id so
// that events of one room stay ordered.
func NewKafkaPublisher(producer *kafka.Producer) Publisher {
	return &kafkaPublisher{producer: producer}
}

func (p *kafkaPublisher) Publish(ctx context.Context, event *model.BookingEvent) error {
	msg, err := NewMessage(ctx, event)
	if err != nil {
		return err
	}
	if err := p.producer.Publish(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish %s event for booking %s: %w", event.Type, event.BookingID, err)
	}
	return nil
}

func (p *kafkaPublisher) Close() error {
	return p.producer.Close()
}

// NewMessage builds the Kafka message for event, assigning an event id when
// it has none.
func NewMessage(ctx context.Context, event *model.BookingEvent) (kafka.Message, error) {
	if event.EventID == "" {
		event.EventID = uuid.NewString()
	}
	msg, err := kafka.NewMessage().
		WithKey(event.RoomID).
		WithEventID(event.EventID).
		WithEventType(event.Type).
		WithCorrelationID(middleware.RequestIDFromContext(ctx)).
		WithSchemaVersion(schemaVersion).
		WithSource(source).
		WithTimestamp(event.OccurredAt).
		WithValue(event).
		Build()
	if err != nil {
		return kafka.Message{}, fmt.Errorf("failed to encode %s event: %w", event.Type, err)
	}
	return msg, nil
}

type nopPublisher struct{}

// NewNopPublisher drops every event. Used when Kafka is disabled.
func NewNopPublisher() Publisher {
	return nopPublisher{}
}

func (nopPublisher) Publish(context.Context, *model.BookingEvent) error { return nil }

func (nopPublisher) Close() error { return nil }
