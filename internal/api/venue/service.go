package venue

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"

	"github.com/hubb-app/bantadthong/internal/types"
)

// catalogTTL bounds how stale the in-memory catalog may get; wait times
// and table availability change over the day.
const catalogTTL = 5 * time.Minute

var _ Service = (*ServiceImpl)(nil)

// Service serves the venue catalog, caching the full list in memory so
// the recommendation and chat paths never hit the database per message.
type Service interface {
	Catalog(ctx context.Context) ([]types.Venue, error)
	Get(ctx context.Context, id uuid.UUID) (*types.Venue, error)
	Landmarks(ctx context.Context) ([]types.Venue, error)
}

type ServiceImpl struct {
	logger *slog.Logger
	repo   Repository

	mu       sync.RWMutex
	catalog  []types.Venue
	loadedAt time.Time
}

func NewServiceImpl(repo Repository, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger: logger,
		repo:   repo,
	}
}

// Catalog returns the full venue list, refreshing from the repository
// when the cached copy has expired. Callers must not mutate the result.
func (s *ServiceImpl) Catalog(ctx context.Context) ([]types.Venue, error) {
	s.mu.RLock()
	if s.catalog != nil && time.Since(s.loadedAt) < catalogTTL {
		cached := s.catalog
		s.mu.RUnlock()
		return cached, nil
	}
	s.mu.RUnlock()

	ctx, span := otel.Tracer("VenueService").Start(ctx, "Catalog")
	defer span.End()

	venues, err := s.repo.GetVenues(ctx)
	if err != nil {
		span.SetStatus(codes.Error, "catalog load failed")

		// Serve the stale copy over failing the request outright.
		s.mu.RLock()
		stale := s.catalog
		s.mu.RUnlock()
		if stale != nil {
			s.logger.WarnContext(ctx, "Serving stale venue catalog", slog.Any("error", err))
			return stale, nil
		}
		return nil, err
	}

	s.mu.Lock()
	s.catalog = venues
	s.loadedAt = time.Now()
	s.mu.Unlock()

	span.SetStatus(codes.Ok, "catalog loaded")
	return venues, nil
}

func (s *ServiceImpl) Get(ctx context.Context, id uuid.UUID) (*types.Venue, error) {
	return s.repo.GetVenue(ctx, id)
}

// Landmarks returns only the landmark entries, from the cached catalog.
func (s *ServiceImpl) Landmarks(ctx context.Context) ([]types.Venue, error) {
	catalog, err := s.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	landmarks := make([]types.Venue, 0, len(catalog))
	for _, v := range catalog {
		if v.Kind == types.KindLandmark {
			landmarks = append(landmarks, v)
		}
	}
	return landmarks, nil
}
