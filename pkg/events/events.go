package events

import (
	"context"
	"errors"
	"time"

	"asiops/pkg/model"

	"github.com/google/uuid"
)

type Type string

const (
	BookingCreated           Type = "booking.created"
	BookingUpdated           Type = "booking.updated"
	BookingDeleted           Type = "booking.deleted"
	BookingAllocationUpdated Type = "booking.allocation_updated"
	BookingEOTPrompted       Type = "booking.eot_prompted"
	BookingEOTDecided        Type = "booking.eot_decided"
)

// BookingEvent is the envelope published after every booking write.
// Booking is nil for deletions.
type BookingEvent struct {
	ID            string         `json:"id"`
	Type          Type           `json:"type"`
	BookingID     string         `json:"bookingId"`
	OccurredAt    time.Time      `json:"occurredAt"`
	CorrelationID string         `json:"correlationId,omitempty"`
	Booking       *model.Booking `json:"booking,omitempty"`
}

func NewBookingEvent(eventType Type, bookingID string, booking *model.Booking) BookingEvent {
	return BookingEvent{
		ID:         uuid.NewString(),
		Type:       eventType,
		BookingID:  bookingID,
		OccurredAt: time.Now().UTC(),
		Booking:    booking,
	}
}

type Publisher interface {
	Publish(ctx context.Context, event BookingEvent) error
	Close() error
}

type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, BookingEvent) error { return nil }
func (NopPublisher) Close() error                                 { return nil }

// Fanout delivers each event to every publisher, even when one fails.
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, event BookingEvent) error {
	var errs []error
	for _, p := range f {
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f Fanout) Close() error {
	var errs []error
	for _, p := range f {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
