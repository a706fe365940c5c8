// Package prompt turns a stored conversation into the role-tagged prompt
// format understood by the completion endpoint. Construction is pure and
// deterministic; validation of the overall conversation state belongs to
// the engine.
package prompt

import (
	"errors"
	"fmt"
	"strings"

	"github.com/antoniostano/discourse/internal/completion"
	"github.com/antoniostano/discourse/internal/conversation"
)

// ErrMissingPersona reports that no persona is attached for the requested turn.
var ErrMissingPersona = errors.New("no persona for requested turn")

// DefaultResponseCharLimit bounds generated replies in the trailing directive.
const DefaultResponseCharLimit = 200

// BuildTurnPrompt produces the prompt for the side identified by turn:
// a system entry describing the speaking persona, the full history re-framed
// from that persona's point of view, and a closing directive. History entries
// are tagged assistant when spoken by the requested side and user otherwise,
// so the model sees its own prior turns as its own even though the
// conversation alternates sides.
func BuildTurnPrompt(conv conversation.Conversation, turn conversation.Turn, charLimit int) ([]completion.ChatMessage, error) {
	persona, err := personaFor(conv, turn)
	if err != nil {
		return nil, err
	}
	if charLimit <= 0 {
		charLimit = DefaultResponseCharLimit
	}

	msgs := make([]completion.ChatMessage, 0, len(conv.Messages)+2)
	msgs = append(msgs, completion.ChatMessage{
		Role:    completion.RoleSystem,
		Content: systemPrompt(persona),
	})

	for _, m := range conv.Messages {
		role := completion.RoleUser
		if m.From == turn {
			role = completion.RoleAssistant
		}
		msgs = append(msgs, completion.ChatMessage{Role: role, Content: m.Message})
	}

	msgs = append(msgs, completion.ChatMessage{
		Role:    completion.RoleUser,
		Content: fmt.Sprintf("Continue the debate as the %s. Keep response to max %d characters.", turn, charLimit),
	})
	return msgs, nil
}

// BuildSummaryPrompt produces a single-shot prompt asking for a summary of
// the whole exchange. When personas are missing the instruction degrades to
// a generic one instead of failing.
func BuildSummaryPrompt(conv conversation.Conversation) []completion.ChatMessage {
	system := "Summarize this conversation, highlighting the key points discussed."
	if conv.Personas.Initiator.Present() && conv.Personas.Responder.Present() {
		system = fmt.Sprintf(
			"Summarize this debate between a %s and a %s. Highlight the key arguments from both perspectives and any points of agreement or disagreement.",
			conv.Personas.Initiator.JobTitle,
			conv.Personas.Responder.JobTitle,
		)
	}

	lines := make([]string, 0, len(conv.Messages))
	for _, m := range conv.Messages {
		lines = append(lines, fmt.Sprintf("%s: %s", m.From, m.Message))
	}

	return []completion.ChatMessage{
		{Role: completion.RoleSystem, Content: system},
		{
			Role:    completion.RoleUser,
			Content: "Please summarize the following conversation:\n\n" + strings.Join(lines, "\n"),
		},
	}
}

func systemPrompt(p conversation.Persona) string {
	return fmt.Sprintf(`You are a %s.
Traits: %s.
Values: %s.
Communication style: %s.
Your goal is to argue your perspective in this debate clearly and rationally.`,
		p.JobTitle,
		strings.Join(p.Traits, ", "),
		strings.Join(p.Values, ", "),
		p.CommunicationStyle,
	)
}

func personaFor(conv conversation.Conversation, turn conversation.Turn) (conversation.Persona, error) {
	var p conversation.Persona
	switch turn {
	case conversation.TurnInitiator:
		p = conv.Personas.Initiator
	case conversation.TurnResponder:
		p = conv.Personas.Responder
	default:
		return conversation.Persona{}, fmt.Errorf("%w: %q", ErrMissingPersona, turn)
	}
	if !p.Present() {
		return conversation.Persona{}, fmt.Errorf("%w: %s", ErrMissingPersona, turn)
	}
	return p, nil
}
