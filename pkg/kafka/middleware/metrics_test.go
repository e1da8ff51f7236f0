package kafkamiddleware

import (
	"context"
	"errors"
	"testing"

	"asiops/pkg/kafka"
)

func TestMetrics_CountsOutcomes(t *testing.T) {
	m := NewMetrics()
	publish := m.ProducerMiddleware()
	consume := m.ConsumerMiddleware()
	ctx := context.Background()

	ok := func(context.Context, kafka.Message) error { return nil }
	fail := func(context.Context, kafka.Message) error { return errors.New("boom") }

	_ = publish(ctx, kafka.Message{}, ok)
	_ = publish(ctx, kafka.Message{}, ok)
	_ = publish(ctx, kafka.Message{}, fail)
	_ = consume(ctx, kafka.Message{}, fail)

	s := m.Snapshot()
	if s.Published != 2 || s.PublishFailed != 1 {
		t.Errorf("publish counts = %d/%d, want 2/1", s.Published, s.PublishFailed)
	}
	if s.Consumed != 0 || s.ConsumeFailed != 1 {
		t.Errorf("consume counts = %d/%d, want 0/1", s.Consumed, s.ConsumeFailed)
	}
}

func TestMetrics_PassesErrorThrough(t *testing.T) {
	want := errors.New("boom")
	err := NewMetrics().ConsumerMiddleware()(context.Background(), kafka.Message{}, func(context.Context, kafka.Message) error {
		return want
	})
	if !errors.Is(err, want) {
		t.Errorf("got %v, want %v", err, want)
	}
}
