package conversation

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

func sampleConversation(id string) Conversation {
	return Conversation{
		ID: id,
		Personas: Personas{
			Initiator: Persona{
				ID:                 "p-1",
				JobTitle:           "Product Manager",
				Traits:             []string{"pragmatic"},
				Values:             []string{"user impact"},
				CommunicationStyle: "direct",
			},
			Responder: Persona{ID: "p-2", JobTitle: "Staff Engineer"},
		},
		Messages: []Message{
			{From: TurnInitiator, Message: "Topic X"},
			{From: TurnResponder, Message: "Counterpoint"},
		},
		Summary: "short",
	}
}

func TestInMemoryStoreRoundTrip(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	want := sampleConversation("conv-1")
	if err := store.Put(ctx, want); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	got, err := store.Get(ctx, "conv-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Get() = %+v, want %+v", got, want)
	}
}

func TestInMemoryStoreGetReturnsIsolatedCopy(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	if err := store.Put(ctx, sampleConversation("conv-1")); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	got, err := store.Get(ctx, "conv-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	got.Messages[0].Message = "mutated"
	got.Personas.Initiator.Traits[0] = "mutated"

	fresh, err := store.Get(ctx, "conv-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if fresh.Messages[0].Message != "Topic X" {
		t.Fatalf("stored message mutated through returned copy: %q", fresh.Messages[0].Message)
	}
	if fresh.Personas.Initiator.Traits[0] != "pragmatic" {
		t.Fatalf("stored persona mutated through returned copy: %q", fresh.Personas.Initiator.Traits[0])
	}
}

func TestInMemoryStorePutReplacesWholeRecord(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	conv := sampleConversation("conv-1")
	if err := store.Put(ctx, conv); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	conv.Messages = conv.Messages[:1]
	conv.Summary = ""
	if err := store.Put(ctx, conv); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	got, err := store.Get(ctx, "conv-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if len(got.Messages) != 1 || got.Summary != "" {
		t.Fatalf("Put() did not replace record: %+v", got)
	}
}

func TestInMemoryStoreGetUnknownID(t *testing.T) {
	store := NewInMemoryStore()

	if _, err := store.Get(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestInMemoryStoreListIDs(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	for _, id := range []string{"conv-b", "conv-a", "conv-c"} {
		if err := store.Put(ctx, sampleConversation(id)); err != nil {
			t.Fatalf("Put(%s) error = %v", id, err)
		}
	}

	ids, err := store.ListIDs(ctx)
	if err != nil {
		t.Fatalf("ListIDs() error = %v", err)
	}
	want := []string{"conv-a", "conv-b", "conv-c"}
	if !reflect.DeepEqual(ids, want) {
		t.Fatalf("ListIDs() = %v, want %v", ids, want)
	}
}

func TestTurnValid(t *testing.T) {
	cases := []struct {
		turn Turn
		want bool
	}{
		{TurnInitiator, true},
		{TurnResponder, true},
		{"moderator", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := tc.turn.Valid(); got != tc.want {
			t.Fatalf("Turn(%q).Valid() = %v, want %v", tc.turn, got, tc.want)
		}
	}
}
