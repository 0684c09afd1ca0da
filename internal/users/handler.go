package users

import (
	"net/http"

	"github.com/wellbot/wellbot-api/internal/http/respond"
	"github.com/wellbot/wellbot-api/pkg/logging"
)

// Handler handles account HTTP requests.
type Handler struct {
	service *Service
	logger  *logging.Logger
}

// NewHandler creates a new accounts handler.
func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, logger: logger}
}

// Signup handles POST /signup. Failures use the "errors" key the mobile
// client reads on this endpoint.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := respond.Decode(r, &req); err != nil {
		h.signupError(w, err)
		return
	}

	token, err := h.service.Signup(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		h.signupError(w, err)
		return
	}
	respond.OK(w, map[string]any{"token": token})
}

func (h *Handler) signupError(w http.ResponseWriter, err error) {
	status, message := respond.Status(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("signup failed", "error", err)
	}
	respond.JSON(w, status, map[string]any{"success": false, "errors": message})
}

// Login handles POST /login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, h.logger, err)
		return
	}

	token, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	respond.OK(w, map[string]any{"token": token})
}

// ClinicLogin handles POST /clinic/login.
func (h *Handler) ClinicLogin(w http.ResponseWriter, r *http.Request) {
	var req ClinicLoginRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, h.logger, err)
		return
	}

	token, profile, err := h.service.ClinicLogin(r.Context(), req.Username, req.Password)
	if err != nil {
		respond.Error(w, h.logger, err)
		return
	}
	respond.OK(w, map[string]any{"token": token, "clinic": profile})
}
