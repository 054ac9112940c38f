package subscribe

import (
	"testing"
	"time"
)

func TestPublishReachesSubscriber(t *testing.T) {
	b := NewBroker()
	sub := b.Subscribe("messages")
	defer sub.Cancel()

	b.Publish("messages", "m1", "created")

	select {
	case ev := <-sub.C:
		if ev.Collection != "messages" || ev.DocID != "m1" || ev.Kind != "created" {
			t.Errorf("unexpected event: %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("no event delivered")
	}
}

func TestSubscribeFiltersCollections(t *testing.T) {
	b := NewBroker()
	sub := b.Subscribe("deadlines")
	defer sub.Cancel()

	b.Publish("messages", "m1", "created")
	b.Publish("deadlines", "d1", "created")

	select {
	case ev := <-sub.C:
		if ev.Collection != "deadlines" {
			t.Errorf("got event for %s, want deadlines only", ev.Collection)
		}
	case <-time.After(time.Second):
		t.Fatal("no event delivered")
	}

	select {
	case ev := <-sub.C:
		t.Errorf("unexpected second event: %+v", ev)
	default:
	}
}

func TestEmptySubscriptionReceivesEverything(t *testing.T) {
	b := NewBroker()
	sub := b.Subscribe()
	defer sub.Cancel()

	b.Publish("messages", "m1", "created")
	b.Publish("posts", "p1", "created")

	for i := 0; i < 2; i++ {
		select {
		case <-sub.C:
		case <-time.After(time.Second):
			t.Fatalf("event %d never arrived", i)
		}
	}
}

func TestCancelClosesChannelAndStopsDelivery(t *testing.T) {
	b := NewBroker()
	sub := b.Subscribe("messages")

	sub.Cancel()

	if _, ok := <-sub.C; ok {
		t.Error("channel should be closed after Cancel")
	}
	if b.SubscriberCount() != 0 {
		t.Errorf("SubscriberCount = %d after Cancel, want 0", b.SubscriberCount())
	}

	// Publishing after cancel must not panic.
	b.Publish("messages", "m2", "created")
}

func TestCancelIsIdempotent(t *testing.T) {
	b := NewBroker()
	sub := b.Subscribe("messages")

	sub.Cancel()
	sub.Cancel()
}

func TestFreshSubscriptionSeesNoOldEvents(t *testing.T) {
	b := NewBroker()

	first := b.Subscribe("messages")
	b.Publish("messages", "m1", "created")
	<-first.C
	first.Cancel()

	second := b.Subscribe("messages")
	defer second.Cancel()

	select {
	case ev := <-second.C:
		t.Errorf("fresh subscription replayed event: %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSlowSubscriberDoesNotBlockPublish(t *testing.T) {
	b := NewBroker()
	sub := b.Subscribe("messages")
	defer sub.Cancel()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 200; i++ {
			b.Publish("messages", "m", "created")
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked on a slow subscriber")
	}
}
