package conversation

import (
	"context"
	"errors"
	"strings"
)

// Turn identifies which side of the debate speaks next.
type Turn string

const (
	TurnInitiator Turn = "initiator"
	TurnResponder Turn = "responder"
)

// Valid reports whether t is one of the two recognized sides.
func (t Turn) Valid() bool {
	return t == TurnInitiator || t == TurnResponder
}

var ErrNotFound = errors.New("conversation not found")

// Persona describes the role profile that shapes one side's generated text.
// Only ID and JobTitle are mandatory; list fields render as empty when unset.
type Persona struct {
	ID                 string   `json:"id"`
	JobTitle           string   `json:"job_title"`
	Traits             []string `json:"traits,omitempty"`
	CommunicationStyle string   `json:"communication_style,omitempty"`
	Motivations        []string `json:"motivations,omitempty"`
	Frustrations       []string `json:"frustrations,omitempty"`
	Values             []string `json:"values,omitempty"`
}

// Present reports whether the persona carries any identifying data.
func (p Persona) Present() bool {
	return strings.TrimSpace(p.JobTitle) != "" || strings.TrimSpace(p.ID) != ""
}

// Personas pairs the two fixed sides of a conversation.
type Personas struct {
	Initiator Persona `json:"initiator"`
	Responder Persona `json:"responder"`
}

// Message is a single conversational turn. Slice order is turn order.
type Message struct {
	From    Turn   `json:"from"`
	Message string `json:"message"`
}

// Conversation is the stored debate record. Messages is append-only and
// never empty once created; Summary is derived and may be recomputed.
type Conversation struct {
	ID       string    `json:"conversation_id"`
	Personas Personas  `json:"personas"`
	Messages []Message `json:"messages"`
	Summary  string    `json:"summary,omitempty"`
}

// Clone returns a deep copy so callers can mutate freely.
func (c Conversation) Clone() Conversation {
	out := c
	out.Messages = append([]Message(nil), c.Messages...)
	out.Personas.Initiator = c.Personas.Initiator.clone()
	out.Personas.Responder = c.Personas.Responder.clone()
	return out
}

func (p Persona) clone() Persona {
	out := p
	out.Traits = append([]string(nil), p.Traits...)
	out.Motivations = append([]string(nil), p.Motivations...)
	out.Frustrations = append([]string(nil), p.Frustrations...)
	out.Values = append([]string(nil), p.Values...)
	return out
}

// Store persists conversation records keyed by id. Put replaces the whole
// record; single-key atomicity is the only transactional guarantee required.
type Store interface {
	Get(ctx context.Context, id string) (Conversation, error)
	Put(ctx context.Context, conv Conversation) error
	ListIDs(ctx context.Context) ([]string, error)
	Close() error
}
