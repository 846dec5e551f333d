package geoposition

import (
	"log/slog"
	"net/http"

	"github.com/hubb-app/bantadthong/internal/api"
	"github.com/hubb-app/bantadthong/internal/types"
)

type Handler struct {
	logger   *slog.Logger
	provider Provider
}

func NewHandler(provider Provider, logger *slog.Logger) *Handler {
	return &Handler{
		logger:   logger,
		provider: provider,
	}
}

type reportRequest struct {
	ClientID string           `json:"client_id"`
	Position types.Coordinate `json:"position"`
}

type failureRequest struct {
	ClientID string    `json:"client_id"`
	Kind     ErrorKind `json:"kind"`
}

// Report handles POST /position with a raw client fix.
func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	var req reportRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.ClientID == "" {
		api.ErrorResponse(w, r, http.StatusBadRequest, "client_id is required")
		return
	}

	fix := h.provider.Report(r.Context(), req.ClientID, req.Position)
	api.WriteJSONResponse(w, r, http.StatusOK, fix)
}

// ReportFailure handles POST /position/failure.
func (h *Handler) ReportFailure(w http.ResponseWriter, r *http.Request) {
	var req failureRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.ClientID == "" {
		api.ErrorResponse(w, r, http.StatusBadRequest, "client_id is required")
		return
	}

	fix, err := h.provider.ReportFailure(r.Context(), req.ClientID, req.Kind)
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, fix)
}

// Get handles GET /position?client_id=.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	clientID := r.URL.Query().Get("client_id")
	if clientID == "" {
		api.ErrorResponse(w, r, http.StatusBadRequest, "client_id is required")
		return
	}

	fix, err := h.provider.GetPosition(r.Context(), clientID)
	if err != nil {
		api.ErrorResponse(w, r, http.StatusInternalServerError, "could not resolve position")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, fix)
}
