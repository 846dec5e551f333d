package route

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

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

// Resolve handles GET /route?from=lat,lng&to=lat,lng&mode=walking.
func (h *Handler) Resolve(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("RouteHandler").Start(r.Context(), "Resolve")
	defer span.End()

	l := h.logger.With(slog.String("handler", "Resolve"))

	origin, err := parseCoordinate(r.URL.Query().Get("from"))
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "from must be lat,lng")
		return
	}
	dest, err := parseCoordinate(r.URL.Query().Get("to"))
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "to must be lat,lng")
		return
	}
	mode := types.TransportMode(r.URL.Query().Get("mode"))
	if mode == "" {
		mode = types.ModeWalking
	}

	info, err := h.service.Resolve(ctx, origin, dest, mode)
	if err != nil {
		var routeErr *types.RouteError
		if errors.As(err, &routeErr) {
			// Non-fatal: the client clears the displayed route and offers
			// a retry.
			l.WarnContext(ctx, "Route unavailable", slog.Any("error", routeErr))
			span.SetStatus(codes.Error, "Route unavailable")
			api.WriteJSONResponse(w, r, http.StatusBadGateway, map[string]interface{}{
				"success":   false,
				"error":     "no route found, please try again",
				"mode":      routeErr.Mode,
				"retryable": true,
			})
			return
		}
		api.ErrorResponse(w, r, http.StatusInternalServerError, "route resolution failed")
		return
	}

	span.SetStatus(codes.Ok, "Route resolved")
	api.WriteJSONResponse(w, r, http.StatusOK, info)
}

// ResolveAll handles GET /route/all?from=&to=, returning every transport
// mode for the mode-selector UI.
func (h *Handler) ResolveAll(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("RouteHandler").Start(r.Context(), "ResolveAll")
	defer span.End()

	origin, err := parseCoordinate(r.URL.Query().Get("from"))
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "from must be lat,lng")
		return
	}
	dest, err := parseCoordinate(r.URL.Query().Get("to"))
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "to must be lat,lng")
		return
	}

	routes, err := h.service.ResolveAll(ctx, origin, dest)
	if err != nil {
		h.logger.WarnContext(ctx, "Multi-mode resolution failed", slog.Any("error", err))
		span.SetStatus(codes.Error, "Multi-mode resolution failed")
		api.WriteJSONResponse(w, r, http.StatusBadGateway, map[string]interface{}{
			"success":   false,
			"error":     "no route found, please try again",
			"retryable": true,
		})
		return
	}

	span.SetStatus(codes.Ok, "All modes resolved")
	api.WriteJSONResponse(w, r, http.StatusOK, routes)
}

func parseCoordinate(raw string) (types.Coordinate, error) {
	parts := strings.Split(raw, ",")
	if len(parts) != 2 {
		return types.Coordinate{}, errors.New("coordinate must be lat,lng")
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return types.Coordinate{}, err
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return types.Coordinate{}, err
	}
	return types.Coordinate{Lat: lat, Lng: lng}, nil
}
