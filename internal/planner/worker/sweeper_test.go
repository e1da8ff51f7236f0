package worker

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"asiops/internal/planner"
	"asiops/pkg/events"
	"asiops/pkg/kafka"
	"asiops/pkg/logger"
)

type mockScanner struct {
	calls chan struct{}
	err   error
}

func (m *mockScanner) ScanEOT(context.Context) ([]planner.EOTCandidate, error) {
	m.calls <- struct{}{}
	return []planner.EOTCandidate{{BookingID: "b1"}}, m.err
}

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Level: "error", Output: io.Discard, Service: "test"})
}

func waitCall(t *testing.T, calls <-chan struct{}) {
	t.Helper()
	select {
	case <-calls:
	case <-time.After(2 * time.Second):
		t.Fatal("expected a scan")
	}
}

func eventMessage(t *testing.T, eventType events.Type) kafka.Message {
	t.Helper()
	msg, err := kafka.NewMessage().
		WithKey("b1").
		WithValue(events.NewBookingEvent(eventType, "b1", nil)).
		WithEventType(string(eventType)).
		Build()
	if err != nil {
		t.Fatalf("build message: %v", err)
	}
	return msg
}

func TestSweeper_ScansOnStartAndTrigger(t *testing.T) {
	scanner := &mockScanner{calls: make(chan struct{}, 4)}
	s := NewSweeper(scanner, time.Hour, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	waitCall(t, scanner.calls)
	s.Trigger()
	waitCall(t, scanner.calls)

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestSweeper_TriggersCollapse(t *testing.T) {
	s := NewSweeper(&mockScanner{calls: make(chan struct{}, 1)}, time.Hour, testLogger())

	s.Trigger()
	s.Trigger()
	s.Trigger()

	if len(s.trigger) != 1 {
		t.Errorf("expected one pending trigger, got %d", len(s.trigger))
	}
}

func TestSweeper_ScansOnTick(t *testing.T) {
	scanner := &mockScanner{calls: make(chan struct{}, 4), err: errors.New("mongo down")}
	s := NewSweeper(scanner, 10*time.Millisecond, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = s.Run(ctx) }()

	waitCall(t, scanner.calls)
	waitCall(t, scanner.calls)
}

func TestSweeper_HandleMessage(t *testing.T) {
	tests := []struct {
		eventType   events.Type
		wantTrigger bool
	}{
		{events.BookingCreated, true},
		{events.BookingUpdated, true},
		{events.BookingAllocationUpdated, true},
		{events.BookingDeleted, true},
		{events.BookingEOTPrompted, false},
		{events.BookingEOTDecided, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.eventType), func(t *testing.T) {
			s := NewSweeper(&mockScanner{calls: make(chan struct{}, 1)}, time.Hour, testLogger())

			if err := s.HandleMessage(context.Background(), eventMessage(t, tt.eventType)); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := len(s.trigger) == 1; got != tt.wantTrigger {
				t.Errorf("trigger = %v, want %v", got, tt.wantTrigger)
			}
		})
	}
}

func TestSweeper_HandleMessage_BadPayload(t *testing.T) {
	s := NewSweeper(&mockScanner{calls: make(chan struct{}, 1)}, time.Hour, testLogger())

	err := s.HandleMessage(context.Background(), kafka.Message{Key: "b1", Value: []byte("not json")})
	if kafka.ClassifyError(err) != kafka.ErrorTypePermanent {
		t.Errorf("expected permanent error, got %v", err)
	}
}
