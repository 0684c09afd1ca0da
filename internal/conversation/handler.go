package conversation

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"

	"github.com/wellbot/wellbot-api/internal/apperr"
	"github.com/wellbot/wellbot-api/internal/http/middleware"
	"github.com/wellbot/wellbot-api/internal/http/respond"
	"github.com/wellbot/wellbot-api/pkg/logging"
)

// Sessions is the session persistence the handler needs.
type Sessions interface {
	ListSessions(ctx context.Context, userID int64) ([]Session, error)
	CreateSession(ctx context.Context, userID int64, title string) (*Session, error)
	Messages(ctx context.Context, userID, sessionID int64) ([]Message, error)
	AppendMessage(ctx context.Context, userID, sessionID int64, role, message string) (int64, error)
	DeleteSession(ctx context.Context, userID, sessionID int64) error
}

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	UserInput string `json:"userInput"`
	SessionID *int64 `json:"sessionId"`
}

type createSessionRequest struct {
	Title string `json:"title"`
}

type appendMessageRequest struct {
	Role    string `json:"role"`
	Message string `json:"message"`
}

// Handler serves chat and chat-session endpoints.
type Handler struct {
	sessions     Sessions
	assembler    *Assembler
	orchestrator *Orchestrator
	logger       *logging.Logger
}

// NewHandler creates a conversation handler.
func NewHandler(sessions Sessions, assembler *Assembler, orchestrator *Orchestrator, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		sessions:     sessions,
		assembler:    assembler,
		orchestrator: orchestrator,
		logger:       logger,
	}
}

// Chat handles POST /chat. The user token is optional; without it the reply
// carries no personal context.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	if strings.TrimSpace(req.UserInput) == "" {
		respond.Fail(w, http.StatusBadRequest, "Missing userInput")
		return
	}

	var userID *int64
	if user, ok := middleware.UserFromContext(r.Context()); ok {
		id := user.UserID
		userID = &id
	}

	cc := h.assembler.Build(r.Context(), userID, req.SessionID)
	respond.JSON(w, http.StatusOK, map[string]any{
		"response": h.orchestrator.Reply(r.Context(), req.UserInput, cc),
	})
}

// ListSessions handles GET /chat-sessions.
func (h *Handler) ListSessions(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		respond.Fail(w, http.StatusUnauthorized, "token required")
		return
	}

	sessions, err := h.sessions.ListSessions(r.Context(), user.UserID)
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	respond.OK(w, map[string]any{"sessions": sessions})
}

// CreateSession handles POST /chat-sessions.
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		respond.Fail(w, http.StatusUnauthorized, "token required")
		return
	}

	var req createSessionRequest
	if r.ContentLength != 0 {
		if err := respond.Decode(r, &req); err != nil {
			respond.Error(w, h.logger, err)
			return
		}
	}

	title := strings.TrimSpace(req.Title)
	if utf8.RuneCountInString(title) > maxTitleRunes {
		respond.Error(w, h.logger, apperr.Validation("title", "Title is too long"))
		return
	}

	session, err := h.sessions.CreateSession(r.Context(), user.UserID, title)
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	respond.OK(w, map[string]any{"session": session})
}

// ListMessages handles GET /chat-sessions/{id}/messages.
func (h *Handler) ListMessages(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		respond.Fail(w, http.StatusUnauthorized, "token required")
		return
	}
	sessionID, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	messages, err := h.sessions.Messages(r.Context(), user.UserID, sessionID)
	if err != nil {
		respond.Error(w, h.logger, mapSessionErr(err))
		return
	}
	respond.OK(w, map[string]any{"messages": messages})
}

// AppendMessage handles POST /chat-sessions/{id}/messages.
func (h *Handler) AppendMessage(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		respond.Fail(w, http.StatusUnauthorized, "token required")
		return
	}
	sessionID, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	var req appendMessageRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	if req.Message == "" {
		respond.Error(w, h.logger, apperr.Validation("message", "Message is required"))
		return
	}
	if len(req.Message) > maxMessageBytes {
		respond.Error(w, h.logger, apperr.Validation("message", "Message is too long"))
		return
	}

	id, err := h.sessions.AppendMessage(r.Context(), user.UserID, sessionID, req.Role, req.Message)
	if err != nil {
		respond.Error(w, h.logger, mapSessionErr(err))
		return
	}
	respond.OK(w, map[string]any{"messageId": id})
}

// DeleteSession handles DELETE /chat-sessions/{id}.
func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		respond.Fail(w, http.StatusUnauthorized, "token required")
		return
	}
	sessionID, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	if err := h.sessions.DeleteSession(r.Context(), user.UserID, sessionID); err != nil {
		respond.Error(w, h.logger, mapSessionErr(err))
		return
	}
	respond.OK(w, map[string]any{"message": "Session deleted"})
}

// Column capacities: chat_sessions.title in characters, chat_messages.message in bytes.
const (
	maxTitleRunes   = 255
	maxMessageBytes = 65535
)

func (h *Handler) sessionID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		respond.Error(w, h.logger, apperr.Validation("id", "Invalid session id"))
		return 0, false
	}
	return id, true
}

func mapSessionErr(err error) error {
	switch {
	case errors.Is(err, ErrSessionNotFound):
		return apperr.NotFound("Session not found")
	case errors.Is(err, ErrInvalidRole):
		return apperr.Validation("role", "Role must be user or bot")
	default:
		return err
	}
}
