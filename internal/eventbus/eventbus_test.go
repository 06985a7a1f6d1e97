package eventbus

import "testing"

func TestBusPublishSubscribe(t *testing.T) {
	bus := New()
	ch := bus.Subscribe()
	bus.Publish("dispatched")
	if v := <-ch; v != "dispatched" {
		t.Fatalf("expected dispatched got %v", v)
	}
	bus.Unsubscribe(ch)
}

func TestBusPublishDoesNotBlockOnSlowSubscriber(t *testing.T) {
	bus := New()
	_ = bus.Subscribe()
	// fill the buffer well past capacity; Publish must never block
	for i := 0; i < 100; i++ {
		bus.Publish(i)
	}
}

func TestBusClose(t *testing.T) {
	bus := New()
	ch1 := bus.Subscribe()
	ch2 := bus.Subscribe()
	bus.Close()
	if _, ok := <-ch1; ok {
		t.Fatal("expected ch1 closed")
	}
	if _, ok := <-ch2; ok {
		t.Fatal("expected ch2 closed")
	}
	// Close is idempotent
	bus.Close()
}

func TestBusSubscribeAfterClose(t *testing.T) {
	bus := New()
	bus.Close()
	ch := bus.Subscribe()
	if _, ok := <-ch; ok {
		t.Fatal("subscription after close should be closed")
	}
	bus.Unsubscribe(ch)
}
