package engine

import (
	"sync"

	"github.com/antoniostano/discourse/internal/conversation"
)

type EventType string

const (
	EventMessage EventType = "message"
	EventSummary EventType = "summary"
)

// Event is a whole-message notification pushed to watch subscribers after a
// successful turn or summary write.
type Event struct {
	Type           EventType             `json:"type"`
	ConversationID string                `json:"conversation_id"`
	Message        *conversation.Message `json:"message,omitempty"`
	Summary        string                `json:"summary,omitempty"`
}

// Hub fans out conversation events to subscribers. Publishing never blocks;
// a subscriber that cannot keep up misses events rather than stalling the
// engine.
type Hub struct {
	mu   sync.Mutex
	subs map[string]map[chan Event]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[chan Event]struct{})}
}

func (h *Hub) Subscribe(conversationID string) (<-chan Event, func()) {
	ch := make(chan Event, 16)

	h.mu.Lock()
	set, ok := h.subs[conversationID]
	if !ok {
		set = make(map[chan Event]struct{})
		h.subs[conversationID] = set
	}
	set[ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if set, ok := h.subs[conversationID]; ok {
			if _, ok := set[ch]; ok {
				delete(set, ch)
				close(ch)
				if len(set) == 0 {
					delete(h.subs, conversationID)
				}
			}
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

func (h *Hub) Publish(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs[ev.ConversationID] {
		select {
		case ch <- ev:
		default:
		}
	}
}
