package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/antoniostano/discourse/internal/completion"
	"github.com/antoniostano/discourse/internal/conversation"
	"github.com/antoniostano/discourse/internal/engine"
	"github.com/antoniostano/discourse/internal/prompt"
)

type createConversationRequest struct {
	InitialMessage string                `json:"initial_message"`
	Personas       conversation.Personas `json:"personas"`
}

type createConversationResponse struct {
	ConversationID string `json:"conversation_id"`
}

type generateTurnRequest struct {
	Turn string `json:"turn"`
}

type listConversationsResponse struct {
	ConversationIDs []string `json:"conversation_ids"`
}

type summarizeResponse struct {
	ConversationID string `json:"conversation_id"`
	Summary        string `json:"summary"`
}

func (s *Server) handleCreateConversation(w http.ResponseWriter, r *http.Request) {
	var req createConversationRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	conv, err := s.engine.CreateConversation(r.Context(), req.InitialMessage, req.Personas)
	if err != nil {
		s.respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, createConversationResponse{ConversationID: conv.ID})
}

func (s *Server) handleListConversations(w http.ResponseWriter, r *http.Request) {
	ids, err := s.engine.ListIDs(r.Context())
	if err != nil {
		s.respondEngineError(w, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	respondJSON(w, http.StatusOK, listConversationsResponse{ConversationIDs: ids})
}

func (s *Server) handleGetConversation(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		respondError(w, http.StatusBadRequest, "invalid_conversation_id", "missing conversation id")
		return
	}

	conv, err := s.engine.Get(r.Context(), id)
	if err != nil {
		s.respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, conv)
}

func (s *Server) handleGenerateTurn(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		respondError(w, http.StatusBadRequest, "invalid_conversation_id", "missing conversation id")
		return
	}

	var req generateTurnRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.Turn) == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "turn is required")
		return
	}

	msg, err := s.engine.GenerateTurn(r.Context(), id, conversation.Turn(req.Turn))
	if err != nil {
		s.respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, msg)
}

func (s *Server) handleSummarize(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		respondError(w, http.StatusBadRequest, "invalid_conversation_id", "missing conversation id")
		return
	}

	summary, err := s.engine.Summarize(r.Context(), id)
	if err != nil {
		s.respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, summarizeResponse{ConversationID: id, Summary: summary})
}

// respondEngineError maps engine failures onto HTTP statuses: caller errors
// to 4xx, upstream completion failures to 502, everything else to 500.
func (s *Server) respondEngineError(w http.ResponseWriter, err error) {
	var statusErr *completion.StatusError
	switch {
	case errors.Is(err, conversation.ErrNotFound):
		respondError(w, http.StatusNotFound, "conversation_not_found", "Conversation not found")
	case errors.Is(err, engine.ErrInvalidTurn),
		errors.Is(err, engine.ErrEmptySeed),
		errors.Is(err, engine.ErrMissingPersonas),
		errors.Is(err, engine.ErrEmptyConversation),
		errors.Is(err, prompt.ErrMissingPersona):
		respondError(w, http.StatusBadRequest, "invalid_conversation_state", err.Error())
	case errors.Is(err, completion.ErrRateLimitExceeded),
		errors.Is(err, completion.ErrEmptyCompletion),
		errors.As(err, &statusErr):
		respondError(w, http.StatusBadGateway, "completion_failed", err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
