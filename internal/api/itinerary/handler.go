package itinerary

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"

	"github.com/hubb-app/bantadthong/internal/api"
	"github.com/hubb-app/bantadthong/internal/types"
)

// CatalogProvider supplies the read-only venue catalog.
type CatalogProvider interface {
	Catalog(ctx context.Context) ([]types.Venue, error)
}

type Handler struct {
	logger  *slog.Logger
	service Service
	catalog CatalogProvider
}

func NewHandler(service Service, catalog CatalogProvider, logger *slog.Logger) *Handler {
	return &Handler{
		logger:  logger,
		service: service,
		catalog: catalog,
	}
}

// Plan handles POST /itinerary/plan.
func (h *Handler) Plan(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ItineraryHandler").Start(r.Context(), "Plan")
	defer span.End()

	l := h.logger.With(slog.String("handler", "Plan"))

	var req types.PlanRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	switch req.Budget {
	case types.PriceLow, types.PriceMid, types.PriceHigh:
	default:
		api.ErrorResponse(w, r, http.StatusBadRequest, "budget must be one of low, mid, high")
		return
	}

	catalog, err := h.catalog.Catalog(ctx)
	if err != nil {
		l.ErrorContext(ctx, "Failed to load venue catalog", slog.Any("error", err))
		span.RecordError(err)
		api.ErrorResponse(w, r, http.StatusInternalServerError, "failed to load catalog")
		return
	}

	plan, err := h.service.Plan(ctx, catalog, req)
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	span.SetStatus(codes.Ok, "Plan created")
	api.WriteJSONResponse(w, r, http.StatusOK, plan)
}

// GetPlan handles GET /itinerary/plan/{planID}.
func (h *Handler) GetPlan(w http.ResponseWriter, r *http.Request) {
	planID, err := uuid.Parse(chi.URLParam(r, "planID"))
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "invalid plan ID")
		return
	}

	plan, err := h.service.GetPlan(r.Context(), planID)
	if err != nil {
		api.ErrorResponse(w, r, http.StatusNotFound, "plan not found")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, plan)
}

// RemoveStop handles DELETE /itinerary/plan/{planID}/stops/{order}.
func (h *Handler) RemoveStop(w http.ResponseWriter, r *http.Request) {
	planID, err := uuid.Parse(chi.URLParam(r, "planID"))
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "invalid plan ID")
		return
	}
	order, err := strconv.Atoi(chi.URLParam(r, "order"))
	if err != nil || order < 1 {
		api.ErrorResponse(w, r, http.StatusBadRequest, "invalid stop order")
		return
	}

	plan, err := h.service.RemoveStop(r.Context(), planID, order)
	if err != nil {
		if errors.Is(err, ErrPlanNotFound) || errors.Is(err, ErrStopNotFound) {
			api.ErrorResponse(w, r, http.StatusNotFound, err.Error())
			return
		}
		api.ErrorResponse(w, r, http.StatusInternalServerError, "failed to remove stop")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, plan)
}

// Generate handles POST /itinerary/generate, proxying to the completion
// service.
func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ItineraryHandler").Start(r.Context(), "Generate")
	defer span.End()

	l := h.logger.With(slog.String("handler", "Generate"))

	var req types.GenerateRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Location) == "" {
		api.ErrorResponse(w, r, http.StatusBadRequest, "location must not be empty")
		return
	}
	if req.Days < 1 || req.Days > 14 {
		api.ErrorResponse(w, r, http.StatusBadRequest, "days must be between 1 and 14")
		return
	}

	generated, err := h.service.Generate(ctx, req)
	if err != nil {
		l.ErrorContext(ctx, "Itinerary generation failed", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Generation failed")
		if errors.Is(err, ErrMalformedResponse) {
			api.ErrorResponse(w, r, http.StatusBadGateway, "assistant returned an unreadable itinerary, please try again")
			return
		}
		api.ErrorResponse(w, r, http.StatusBadGateway, "itinerary generation is temporarily unavailable")
		return
	}

	span.SetStatus(codes.Ok, "Itinerary generated")
	api.WriteJSONResponse(w, r, http.StatusOK, generated)
}
