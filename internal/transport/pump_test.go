package transport

import "testing"

func TestGraphTransactionCommitsEventsBeforeGraphChanged(t *testing.T) {
	events := NewEventChannel()
	tx := NewGraphTransaction(7)
	tx.Post(GraphChanged{Version: 0}) // placeholder event representing a NodeAdded-equivalent
	tx.Commit(events)

	first := <-events.Receive()
	if _, ok := first.(GraphChanged); !ok {
		t.Fatalf("got %#v as first event", first)
	}
	second := <-events.Receive()
	gc, ok := second.(GraphChanged)
	if !ok || gc.Version != 7 {
		t.Fatalf("expected trailing GraphChanged{7}, got %#v", second)
	}
}

func TestGraphTransactionStopsOnDroppedEvent(t *testing.T) {
	events := NewEventChannel()
	for i := 0; i < eventChannelCapacity; i++ {
		events.Send(Quit{})
	}

	tx := NewGraphTransaction(1)
	tx.Post(ShowWindow{})
	tx.Commit(events) // channel is full; both sends should be dropped silently

	// Draining the channel should find only the Quit{} filler, never a
	// trailing GraphChanged appended after a dropped event.
	for i := 0; i < eventChannelCapacity; i++ {
		if _, ok := (<-events.Receive()).(Quit); !ok {
			t.Fatal("unexpected event type drained")
		}
	}
}
