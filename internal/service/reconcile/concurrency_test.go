package reconcile

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/ignite/courier-webhooks/internal/domain"
	"github.com/ignite/courier-webhooks/internal/pkg/distlock"
)

func TestReconcile_ConcurrentEventsOnOneOrderAreSerialized(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	f := newFixture(t)
	engine := NewEngine(Deps{
		Orders: f.orders,
		Locker: distlock.NewLocker(client, nil, time.Minute, 10*time.Second),
	}, Options{})

	const n = 20
	t0 := time.Date(2025, 11, 9, 6, 0, 0, 0, time.UTC)
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ev := postNordEvent(domain.EventInTransit, "IN_TRANSIT", t0.Add(time.Duration(i)*time.Minute))
			if _, err := engine.Reconcile(context.Background(), ev); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("Reconcile: %v", err)
	}

	if got := courierState(t, f.orders.get(testTracking)).EventsCount; got != n {
		t.Errorf("expected events_count %d, got %d", n, got)
	}
	if len(f.orders.events) != n {
		t.Errorf("expected %d tracking events, got %d", n, len(f.orders.events))
	}
	if mr.Exists("lock:tracking:" + testTracking) {
		t.Error("lock left behind after all events were applied")
	}
}

func TestReconcile_CorruptCourierMetadataKeepsCount(t *testing.T) {
	f := newFixture(t)
	f.orders.orders[testTracking].Metadata["postnord"] = []byte(`{"events_count":4,"latest_event":"garbled"}`)

	if _, err := f.engine.Reconcile(context.Background(), postNordEvent(domain.EventInTransit, "IN_TRANSIT", time.Now())); err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	state := courierState(t, f.orders.get(testTracking))
	if state.EventsCount != 5 {
		t.Errorf("expected events_count 5, got %d", state.EventsCount)
	}
	if state.LatestEvent == nil || state.LatestEvent.Status != "IN_TRANSIT" {
		t.Errorf("latest event not rebuilt: %+v", state.LatestEvent)
	}
}
