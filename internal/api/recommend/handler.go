package recommend

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"

	"github.com/hubb-app/bantadthong/app/observability/metrics"
	"github.com/hubb-app/bantadthong/internal/api"
	"github.com/hubb-app/bantadthong/internal/api/intent"
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

type recommendRequest struct {
	Query string `json:"query"`
}

type recommendResponse struct {
	Intent   types.Intent         `json:"intent"`
	Results  []types.RankedResult `json:"results"`
	Fallback bool                 `json:"fallback"`
}

// Recommend handles POST /recommendations: extract intent from the query,
// rank the catalog, and fall back to the unfiltered top list when the
// filters eliminate everything.
func (h *Handler) Recommend(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("RecommendHandler").Start(r.Context(), "Recommend")
	defer span.End()

	l := h.logger.With(slog.String("handler", "Recommend"))

	var req recommendRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		api.ErrorResponse(w, r, http.StatusBadRequest, "query must not be empty")
		return
	}

	catalog, err := h.catalog.Catalog(ctx)
	if err != nil {
		l.ErrorContext(ctx, "Failed to load venue catalog", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Catalog load failed")
		api.ErrorResponse(w, r, http.StatusInternalServerError, "failed to load catalog")
		return
	}

	extracted := intent.Extract(req.Query)
	results := h.service.Recommend(ctx, catalog, extracted)

	// No-match is not an error: degrade to the unfiltered top list.
	fallback := false
	if len(results) == 0 {
		results = h.service.TopRated(ctx, catalog)
		fallback = true
	}

	metrics.Get().RecommendationsTotal.Add(ctx, 1)
	l.InfoContext(ctx, "Recommendations served",
		slog.Int("results", len(results)), slog.Bool("fallback", fallback))

	api.WriteJSONResponse(w, r, http.StatusOK, recommendResponse{
		Intent:   extracted,
		Results:  results,
		Fallback: fallback,
	})
}
