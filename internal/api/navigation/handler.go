package navigation

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"

	"github.com/hubb-app/bantadthong/internal/api"
	"github.com/hubb-app/bantadthong/internal/api/route"
	"github.com/hubb-app/bantadthong/internal/types"
)

type Handler struct {
	logger  *slog.Logger
	manager *Manager
	routes  route.Service
}

func NewHandler(manager *Manager, routes route.Service, logger *slog.Logger) *Handler {
	return &Handler{
		logger:  logger,
		manager: manager,
		routes:  routes,
	}
}

type startRequest struct {
	ClientID string              `json:"client_id"`
	From     types.Coordinate    `json:"from"`
	To       types.Coordinate    `json:"to"`
	Mode     types.TransportMode `json:"mode"`
	Live     bool                `json:"live"`
}

// Start handles POST /navigation/start. The route is resolved first;
// navigation never begins without one.
func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("NavigationHandler").Start(r.Context(), "Start")
	defer span.End()

	l := h.logger.With(slog.String("handler", "Start"))

	var req startRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		l.WarnContext(ctx, "Invalid start request", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.ClientID == "" {
		api.ErrorResponse(w, r, http.StatusBadRequest, "client_id is required")
		return
	}
	switch req.Mode {
	case types.ModeWalking, types.ModeDriving, types.ModeTransit:
	default:
		api.ErrorResponse(w, r, http.StatusBadRequest, "mode must be walking, driving or transit")
		return
	}

	info, err := h.routes.Resolve(ctx, req.From, req.To, req.Mode)
	if err != nil {
		var routeErr *types.RouteError
		if errors.As(err, &routeErr) {
			span.SetStatus(codes.Error, "route resolution failed")
			api.ErrorResponse(w, r, http.StatusBadGateway, "no route found, please try again")
			return
		}
		l.ErrorContext(ctx, "Route resolution failed", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "could not start navigation")
		return
	}

	var sess *Session
	if req.Live {
		sess, err = h.manager.StartLive(ctx, req.ClientID, info, req.Mode)
	} else {
		sess, err = h.manager.Start(ctx, req.ClientID, info, req.Mode)
	}
	if err != nil {
		l.ErrorContext(ctx, "Failed to start navigation", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusConflict, err.Error())
		return
	}

	span.SetStatus(codes.Ok, "navigation started")
	api.WriteJSONResponse(w, r, http.StatusCreated, map[string]any{
		"route": info,
		"state": sess.Snapshot(),
	})
}

// Pause handles POST /navigation/pause.
func (h *Handler) Pause(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := sess.Pause(); err != nil {
		api.ErrorResponse(w, r, http.StatusConflict, err.Error())
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, sess.Snapshot())
}

// Resume handles POST /navigation/resume.
func (h *Handler) Resume(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	// The ticker must outlive this request; net/http cancels r.Context()
	// as soon as the handler returns.
	if err := sess.Start(context.WithoutCancel(r.Context())); err != nil {
		api.ErrorResponse(w, r, http.StatusConflict, err.Error())
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, sess.Snapshot())
}

// Reset handles POST /navigation/reset.
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	sess.Reset()
	api.WriteJSONResponse(w, r, http.StatusOK, sess.Snapshot())
}

type positionRequest struct {
	Position types.Coordinate `json:"position"`
}

// UpdatePosition handles POST /navigation/position with a live fix.
func (h *Handler) UpdatePosition(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	var req positionRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	sess.UpdatePosition(req.Position)
	api.WriteJSONResponse(w, r, http.StatusOK, sess.Snapshot())
}

// State handles GET /navigation/state.
func (h *Handler) State(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, sess.Snapshot())
}

// End handles DELETE /navigation.
func (h *Handler) End(w http.ResponseWriter, r *http.Request) {
	clientID := r.URL.Query().Get("client_id")
	if clientID == "" {
		api.ErrorResponse(w, r, http.StatusBadRequest, "client_id is required")
		return
	}
	h.manager.End(r.Context(), clientID)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*Session, bool) {
	clientID := r.URL.Query().Get("client_id")
	if clientID == "" {
		api.ErrorResponse(w, r, http.StatusBadRequest, "client_id is required")
		return nil, false
	}
	sess := h.manager.Get(clientID)
	if sess == nil {
		api.ErrorResponse(w, r, http.StatusNotFound, "no navigation session for client")
		return nil, false
	}
	return sess, true
}
