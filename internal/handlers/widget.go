package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"portfolio-backend/internal/middleware"
	"portfolio-backend/internal/models"
	"portfolio-backend/internal/services"
	"portfolio-backend/internal/widget"
)

type sessionStore interface {
	Add(ctx context.Context, s *widget.Session)
	Get(ctx context.Context, id uuid.UUID) (*widget.Session, error)
}

type tokenIssuer interface {
	GenerateSessionToken(sessionID uuid.UUID) (string, error)
}

// SessionFactory builds a new widget session wired to its renderer and generator.
type SessionFactory func(id uuid.UUID) *widget.Session

type WidgetHandler struct {
	baseCtx    context.Context
	sessions   sessionStore
	tokens     tokenIssuer
	newSession SessionFactory
	tokenTTL   time.Duration
}

// NewWidgetHandler creates the handler. Sends run under baseCtx rather than the
// request context, so they finish when a client disconnects and are cancelled
// on server shutdown.
func NewWidgetHandler(baseCtx context.Context, sessions sessionStore, tokens tokenIssuer, newSession SessionFactory, tokenTTL time.Duration) *WidgetHandler {
	return &WidgetHandler{
		baseCtx:    baseCtx,
		sessions:   sessions,
		tokens:     tokens,
		newSession: newSession,
		tokenTTL:   tokenTTL,
	}
}

func sessionResponse(s *widget.Session) models.SessionResponse {
	return models.SessionResponse{
		ID:       s.ID,
		State:    s.State().String(),
		InFlight: s.InFlight(),
		Entries:  len(s.Transcript()),
	}
}

func (h *WidgetHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	session := h.newSession(uuid.New())

	token, err := h.tokens.GenerateSessionToken(session.ID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to issue session token", r))
		return
	}
	h.sessions.Add(r.Context(), session)

	resp := sessionResponse(session)
	resp.Token = token
	resp.ExpiresIn = int(h.tokenTTL.Seconds())
	writeJSON(w, http.StatusCreated, resp)
}

func (h *WidgetHandler) session(w http.ResponseWriter, r *http.Request) (*widget.Session, bool) {
	s, err := h.sessions.Get(r.Context(), middleware.GetSessionID(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return nil, false
	}
	return s, true
}

func (h *WidgetHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse(s))
}

func (h *WidgetHandler) apply(action func(*widget.Session)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := h.session(w, r)
		if !ok {
			return
		}
		action(s)
		writeJSON(w, http.StatusOK, sessionResponse(s))
	}
}

func (h *WidgetHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	h.apply((*widget.Session).Toggle)(w, r)
}

func (h *WidgetHandler) Open(w http.ResponseWriter, r *http.Request) {
	h.apply((*widget.Session).Open)(w, r)
}

func (h *WidgetHandler) Close(w http.ResponseWriter, r *http.Request) {
	h.apply((*widget.Session).Close)(w, r)
}

func (h *WidgetHandler) OutsideClick(w http.ResponseWriter, r *http.Request) {
	h.apply((*widget.Session).OutsideClick)(w, r)
}

// SendMessage submits one user turn and waits for it to settle. Upstream
// failures are part of a 200 response as an error bubble; only rejected
// submits produce an error status.
func (h *WidgetHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	outcome, err := s.Submit(h.baseCtx, req.Message)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	resp := models.ChatResponse{
		Reply: outcome.Reply,
		State: s.State().String(),
	}
	if outcome.Err != nil {
		resp.Error = outcome.Bubble()
		resp.ErrorKind = services.ErrorKind(outcome.Err)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *WidgetHandler) Transcript(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	entries := s.Transcript()
	writeJSON(w, http.StatusOK, models.TranscriptResponse{Entries: entries, Count: len(entries)})
}
