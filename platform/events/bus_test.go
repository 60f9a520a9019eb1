package events

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"compliance_backend/platform/logger"
)

type pingEvent struct {
	BaseEvent
}

func (pingEvent) EventName() string { return "test.ping" }

func TestPublishDeliversToAllSubscribers(t *testing.T) {
	bus := NewInMemoryBus(logger.NewNop())
	var calls int32
	for i := 0; i < 3; i++ {
		bus.Subscribe("test.ping", HandlerFunc(func(ctx context.Context, event Event) error {
			atomic.AddInt32(&calls, 1)
			return nil
		}))
	}

	bus.Publish(context.Background(), pingEvent{BaseEvent: NewBaseEvent(time.Now())})
	bus.Wait()

	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Fatalf("expected 3 handler calls, got %d", got)
	}
}

func TestPublishSurvivesCancelledCallerContext(t *testing.T) {
	bus := NewInMemoryBus(logger.NewNop())
	var sawCancel int32
	bus.Subscribe("test.ping", HandlerFunc(func(ctx context.Context, event Event) error {
		if ctx.Err() != nil {
			atomic.StoreInt32(&sawCancel, 1)
		}
		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	bus.Publish(ctx, pingEvent{})
	bus.Wait()

	if atomic.LoadInt32(&sawCancel) != 0 {
		t.Fatal("async handler must not inherit the caller's cancellation")
	}
}

func TestPublishSyncReturnsHandlerErrorAndRecoversPanics(t *testing.T) {
	bus := NewInMemoryBus(logger.NewNop())
	bus.Subscribe("test.ping", HandlerFunc(func(ctx context.Context, event Event) error {
		panic("boom")
	}))

	err := bus.PublishSync(context.Background(), pingEvent{})
	if err == nil {
		t.Fatal("expected panic to surface as error")
	}

	other := NewInMemoryBus(logger.NewNop())
	sentinel := errors.New("sink down")
	other.Subscribe("test.ping", HandlerFunc(func(ctx context.Context, event Event) error { return sentinel }))
	if err := other.PublishSync(context.Background(), pingEvent{}); !errors.Is(err, sentinel) {
		t.Fatalf("expected sentinel error, got %v", err)
	}
}
