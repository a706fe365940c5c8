package engine

import "testing"

func TestHubSubscribePublishCancel(t *testing.T) {
	hub := NewHub()

	ch1, cancel1 := hub.Subscribe("conv-1")
	ch2, cancel2 := hub.Subscribe("conv-1")
	defer cancel2()

	hub.Publish(Event{Type: EventSummary, ConversationID: "conv-1", Summary: "s"})
	for i, ch := range []<-chan Event{ch1, ch2} {
		select {
		case ev := <-ch:
			if ev.Summary != "s" {
				t.Fatalf("subscriber %d got %+v", i, ev)
			}
		default:
			t.Fatalf("subscriber %d received nothing", i)
		}
	}

	cancel1()
	cancel1() // idempotent

	if _, ok := <-ch1; ok {
		t.Fatalf("cancelled subscriber channel still open")
	}

	// Publishing to another conversation does not leak across ids.
	hub.Publish(Event{Type: EventSummary, ConversationID: "conv-2", Summary: "other"})
	select {
	case ev := <-ch2:
		t.Fatalf("subscriber got foreign event %+v", ev)
	default:
	}
}

func TestHubPublishNeverBlocks(t *testing.T) {
	hub := NewHub()
	_, cancel := hub.Subscribe("conv-1")
	defer cancel()

	// Fill well past the channel buffer; Publish must drop, not stall.
	for i := 0; i < 100; i++ {
		hub.Publish(Event{Type: EventSummary, ConversationID: "conv-1", Summary: "s"})
	}
}
