package events

import (
	"context"

	"asiops/pkg/kafka"
	"asiops/pkg/middleware"
)

type messagePublisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
	Close() error
}

// KafkaPublisher writes booking events to one topic keyed by booking id, so a
// booking's events stay ordered within a partition.
type KafkaPublisher struct {
	producer messagePublisher
	source   string
}

func NewKafkaPublisher(producer *kafka.Producer, source string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, source: source}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event BookingEvent) error {
	if event.CorrelationID == "" {
		event.CorrelationID = middleware.RequestIDFrom(ctx)
	}

	msg, err := kafka.NewMessage().
		WithKey(event.BookingID).
		WithValue(event).
		WithEventID(event.ID).
		WithEventType(string(event.Type)).
		WithCorrelationID(event.CorrelationID).
		WithSource(p.source).
		WithTimestamp(event.OccurredAt).
		Build()
	if err != nil {
		return err
	}
	return p.producer.Publish(ctx, msg)
}

func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}

// Decode reads a BookingEvent back from a consumed message.
func Decode(msg kafka.Message) (BookingEvent, error) {
	var event BookingEvent
	if err := msg.DecodeValue(&event); err != nil {
		return BookingEvent{}, err
	}
	if event.BookingID == "" {
		event.BookingID = msg.Key
	}
	return event, nil
}
