package events

import (
	"testing"
	"time"
)

func TestPublishReachesAllSubscribers(t *testing.T) {
	bus := NewBus()
	a, unsubA := bus.Subscribe(EventBar, 4)
	defer unsubA()
	b, unsubB := bus.Subscribe(EventBar, 4)
	defer unsubB()

	bus.Publish(EventBar, "AAPL")

	for name, ch := range map[string]<-chan any{"a": a, "b": b} {
		select {
		case got := <-ch:
			if got != "AAPL" {
				t.Errorf("subscriber %s got %v", name, got)
			}
		case <-time.After(time.Second):
			t.Fatalf("subscriber %s timed out", name)
		}
	}
}

func TestPublishPreservesOrderPerSubscriber(t *testing.T) {
	bus := NewBus()
	ch, unsub := bus.Subscribe(EventDecision, 8)
	defer unsub()

	for i := 0; i < 5; i++ {
		bus.Publish(EventDecision, i)
	}
	for i := 0; i < 5; i++ {
		select {
		case got := <-ch:
			if got != i {
				t.Fatalf("got %v at position %d", got, i)
			}
		case <-time.After(time.Second):
			t.Fatal("timed out")
		}
	}
}

func TestSlowSubscriberDoesNotBlockPublish(t *testing.T) {
	bus := NewBus()
	ch, unsub := bus.Subscribe(EventBar, 1)
	defer unsub()

	// Second publish overflows the buffer and is dropped, not blocked on.
	done := make(chan struct{})
	go func() {
		bus.Publish(EventBar, 1)
		bus.Publish(EventBar, 2)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on full subscriber")
	}

	if got := <-ch; got != 1 {
		t.Errorf("got %v, want 1", got)
	}
	if got := bus.Dropped(); got != 1 {
		t.Errorf("Dropped = %d, want 1", got)
	}
}

func TestSubscriberCount(t *testing.T) {
	bus := NewBus()
	_, unsubA := bus.Subscribe(EventBar, 1)
	_, unsubB := bus.Subscribe(EventBar, 1)

	if got := bus.SubscriberCount(EventBar); got != 2 {
		t.Fatalf("SubscriberCount = %d, want 2", got)
	}
	unsubA()
	unsubB()
	if got := bus.SubscriberCount(EventBar); got != 0 {
		t.Fatalf("SubscriberCount after unsubscribe = %d, want 0", got)
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	bus := NewBus()
	ch, unsub := bus.Subscribe(EventRiskAlert, 1)
	unsub()

	if _, open := <-ch; open {
		t.Error("channel still open after unsubscribe")
	}
	// Publishing to an empty topic is a no-op.
	bus.Publish(EventRiskAlert, "drawdown")
}
