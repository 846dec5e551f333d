package venue

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"

	"github.com/hubb-app/bantadthong/internal/api"
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

// ListVenues handles GET /venues.
func (h *Handler) ListVenues(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("VenueHandler").Start(r.Context(), "ListVenues")
	defer span.End()

	l := h.logger.With(slog.String("handler", "ListVenues"))

	venues, err := h.service.Catalog(ctx)
	if err != nil {
		l.ErrorContext(ctx, "Failed to load catalog", slog.Any("error", err))
		span.SetStatus(codes.Error, "catalog load failed")
		api.ErrorResponse(w, r, http.StatusInternalServerError, "could not load venues")
		return
	}

	span.SetStatus(codes.Ok, "venues listed")
	api.WriteJSONResponse(w, r, http.StatusOK, venues)
}

// GetVenue handles GET /venues/{venueID}.
func (h *Handler) GetVenue(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("VenueHandler").Start(r.Context(), "GetVenue")
	defer span.End()

	l := h.logger.With(slog.String("handler", "GetVenue"))

	id, err := uuid.Parse(chi.URLParam(r, "venueID"))
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "venueID must be a valid UUID")
		return
	}

	v, err := h.service.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrVenueNotFound) {
			api.ErrorResponse(w, r, http.StatusNotFound, "venue not found")
			return
		}
		l.ErrorContext(ctx, "Failed to load venue", slog.Any("error", err))
		span.SetStatus(codes.Error, "venue load failed")
		api.ErrorResponse(w, r, http.StatusInternalServerError, "could not load venue")
		return
	}

	span.SetStatus(codes.Ok, "venue loaded")
	api.WriteJSONResponse(w, r, http.StatusOK, v)
}

// ListLandmarks handles GET /landmarks.
func (h *Handler) ListLandmarks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	landmarks, err := h.service.Landmarks(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to load landmarks", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "could not load landmarks")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, landmarks)
}
