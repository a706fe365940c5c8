// Package engine coordinates the turn-taking core: load conversation,
// build a persona-aware prompt, call the completion client, append the
// generated message and persist the updated record.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/antoniostano/discourse/internal/completion"
	"github.com/antoniostano/discourse/internal/conversation"
	"github.com/antoniostano/discourse/internal/observability"
	"github.com/antoniostano/discourse/internal/prompt"
)

var (
	ErrInvalidTurn       = errors.New("turn must be either 'initiator' or 'responder'")
	ErrMissingPersonas   = errors.New("conversation is missing personas data")
	ErrEmptyConversation = errors.New("conversation has no messages")
	ErrEmptySeed         = errors.New("initial message cannot be empty")
)

type Engine struct {
	store     conversation.Store
	client    completion.Client
	metrics   *observability.Metrics
	charLimit int

	locks keyedMutex
	hub   *Hub
}

func New(store conversation.Store, client completion.Client, metrics *observability.Metrics, charLimit int) *Engine {
	if charLimit <= 0 {
		charLimit = prompt.DefaultResponseCharLimit
	}
	return &Engine{
		store:     store,
		client:    client,
		metrics:   metrics,
		charLimit: charLimit,
		hub:       NewHub(),
	}
}

// CreateConversation stores a new conversation whose first message is the
// seed spoken by the initiator.
func (e *Engine) CreateConversation(ctx context.Context, seedMessage string, personas conversation.Personas) (conversation.Conversation, error) {
	if strings.TrimSpace(seedMessage) == "" {
		return conversation.Conversation{}, ErrEmptySeed
	}
	if !personas.Initiator.Present() || !personas.Responder.Present() {
		return conversation.Conversation{}, ErrMissingPersonas
	}

	conv := conversation.Conversation{
		ID:       uuid.NewString(),
		Personas: personas,
		Messages: []conversation.Message{
			{From: conversation.TurnInitiator, Message: seedMessage},
		},
	}
	if err := e.store.Put(ctx, conv); err != nil {
		return conversation.Conversation{}, fmt.Errorf("save conversation: %w", err)
	}
	e.metrics.ConversationsCreated.Inc()
	return conv, nil
}

func (e *Engine) Get(ctx context.Context, id string) (conversation.Conversation, error) {
	conv, err := e.store.Get(ctx, id)
	if err != nil {
		return conversation.Conversation{}, fmt.Errorf("load conversation: %w", err)
	}
	return conv, nil
}

func (e *Engine) ListIDs(ctx context.Context) ([]string, error) {
	ids, err := e.store.ListIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	return ids, nil
}

// GenerateTurn produces the next message for the requested side and appends
// it to the stored conversation. The caller names the side explicitly; the
// engine never infers it from history. Turns for the same conversation are
// serialized by a per-id lock, so the read-modify-write below cannot lose a
// message within one process. Multi-replica deployments still need external
// coordination on top of the store's single-key atomicity.
func (e *Engine) GenerateTurn(ctx context.Context, id string, turn conversation.Turn) (conversation.Message, error) {
	if !turn.Valid() {
		return conversation.Message{}, fmt.Errorf("%w, got %q", ErrInvalidTurn, turn)
	}

	unlock := e.locks.lock(id)
	defer unlock()

	start := time.Now()
	conv, err := e.store.Get(ctx, id)
	if err != nil {
		return conversation.Message{}, fmt.Errorf("load conversation: %w", err)
	}
	if !conv.Personas.Initiator.Present() || !conv.Personas.Responder.Present() {
		return conversation.Message{}, ErrMissingPersonas
	}
	if len(conv.Messages) == 0 {
		return conversation.Message{}, ErrEmptyConversation
	}

	msgs, err := prompt.BuildTurnPrompt(conv, turn, e.charLimit)
	if err != nil {
		return conversation.Message{}, err
	}

	text, err := e.client.Complete(ctx, msgs, uuid.NewString())
	if err != nil {
		e.metrics.Turns.WithLabelValues(string(turn), "error").Inc()
		return conversation.Message{}, fmt.Errorf("generate response: %w", err)
	}

	msg := conversation.Message{From: turn, Message: text}
	conv.Messages = append(conv.Messages, msg)
	if err := e.store.Put(ctx, conv); err != nil {
		e.metrics.Turns.WithLabelValues(string(turn), "error").Inc()
		return conversation.Message{}, fmt.Errorf("save conversation: %w", err)
	}

	e.metrics.Turns.WithLabelValues(string(turn), "success").Inc()
	e.metrics.ObserveTurnDuration(time.Since(start))
	e.hub.Publish(Event{Type: EventMessage, ConversationID: id, Message: &msg})
	return msg, nil
}

// Summarize generates a summary of the whole exchange and merges it onto the
// stored record without touching the message list.
func (e *Engine) Summarize(ctx context.Context, id string) (string, error) {
	unlock := e.locks.lock(id)
	defer unlock()

	conv, err := e.store.Get(ctx, id)
	if err != nil {
		return "", fmt.Errorf("load conversation: %w", err)
	}
	if len(conv.Messages) == 0 {
		return "", ErrEmptyConversation
	}

	text, err := e.client.Complete(ctx, prompt.BuildSummaryPrompt(conv), uuid.NewString())
	if err != nil {
		e.metrics.Summaries.WithLabelValues("error").Inc()
		return "", fmt.Errorf("generate summary: %w", err)
	}

	conv.Summary = text
	if err := e.store.Put(ctx, conv); err != nil {
		e.metrics.Summaries.WithLabelValues("error").Inc()
		return "", fmt.Errorf("save conversation: %w", err)
	}

	e.metrics.Summaries.WithLabelValues("success").Inc()
	e.hub.Publish(Event{Type: EventSummary, ConversationID: id, Summary: text})
	return text, nil
}

// Watch subscribes to events for one conversation. The returned cancel
// function must be called to release the subscription.
func (e *Engine) Watch(id string) (<-chan Event, func()) {
	ch, cancel := e.hub.Subscribe(id)
	e.metrics.WatchSubscribers.Inc()
	var done atomic.Bool
	return ch, func() {
		if done.CompareAndSwap(false, true) {
			cancel()
			e.metrics.WatchSubscribers.Dec()
		}
	}
}
