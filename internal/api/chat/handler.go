package chat

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"

	"github.com/hubb-app/bantadthong/internal/api"
	"github.com/hubb-app/bantadthong/internal/types"
)

type Handler struct {
	logger  *slog.Logger
	service Service
}

func NewHandler(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		logger:  logger,
		service: service,
	}
}

// CreateSession handles POST /chat/sessions.
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ChatHandler").Start(r.Context(), "CreateSession")
	defer span.End()

	l := h.logger.With(slog.String("handler", "CreateSession"))

	var req types.CreateSessionRequest
	if r.ContentLength > 0 {
		if err := api.DecodeJSONBody(w, r, &req); err != nil {
			api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
			return
		}
	}

	session, err := h.service.Create(ctx, req.Mode)
	if err != nil {
		l.ErrorContext(ctx, "Failed to create session", slog.Any("error", err))
		span.SetStatus(codes.Error, "create failed")
		api.ErrorResponse(w, r, http.StatusInternalServerError, "could not create session")
		return
	}

	span.SetStatus(codes.Ok, "session created")
	api.WriteJSONResponse(w, r, http.StatusCreated, session)
}

// SendMessage handles POST /chat/sessions/{sessionID}/messages.
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ChatHandler").Start(r.Context(), "SendMessage")
	defer span.End()

	l := h.logger.With(slog.String("handler", "SendMessage"))

	sessionID, ok := sessionIDParam(w, r)
	if !ok {
		return
	}

	var req types.SendMessageRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		api.ErrorResponse(w, r, http.StatusBadRequest, "content must not be empty")
		return
	}

	resp, err := h.service.Send(ctx, sessionID, req.Content)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			api.ErrorResponse(w, r, http.StatusNotFound, "session not found")
			return
		}
		l.ErrorContext(ctx, "Failed to handle message", slog.Any("error", err))
		span.SetStatus(codes.Error, "send failed")
		api.ErrorResponse(w, r, http.StatusInternalServerError, "could not handle message")
		return
	}

	span.SetStatus(codes.Ok, "message handled")
	api.WriteJSONResponse(w, r, http.StatusOK, resp)
}

// SwitchSession handles POST /chat/sessions/{sessionID}/activate.
func (h *Handler) SwitchSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID, ok := sessionIDParam(w, r)
	if !ok {
		return
	}

	session, err := h.service.Switch(ctx, sessionID)
	if err != nil {
		api.ErrorResponse(w, r, http.StatusNotFound, "session not found")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, session)
}

// DeleteSession handles DELETE /chat/sessions/{sessionID}.
func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID, ok := sessionIDParam(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(ctx, sessionID); err != nil {
		api.ErrorResponse(w, r, http.StatusNotFound, "session not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CurrentSession handles GET /chat/sessions/current.
func (h *Handler) CurrentSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.service.Current(r.Context())
	if err != nil {
		api.ErrorResponse(w, r, http.StatusNotFound, "no active session")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, session)
}

// ListSessions handles GET /chat/sessions.
func (h *Handler) ListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.service.List(r.Context())
	if err != nil {
		api.ErrorResponse(w, r, http.StatusInternalServerError, "could not list sessions")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, sessions)
}

func sessionIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := chi.URLParam(r, "sessionID")
	id, err := uuid.Parse(raw)
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "sessionID must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}
