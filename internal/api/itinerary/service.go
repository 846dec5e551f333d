package itinerary

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"

	generativeAI "github.com/hubb-app/bantadthong/internal/api/generative_ai"
	"github.com/hubb-app/bantadthong/internal/types"
)

const (
	MinStops = 2
	MaxStops = 5

	// Time-schedule constants: plans start at 11:00 and each stop adds a
	// meal, the stop's own wait and a walk to the next venue.
	anchorHour      = 11
	mealMinutes     = 45
	walkMinutes     = 10
	planTTL         = 2 * time.Hour
	planSweepPeriod = 10 * time.Minute
)

var ErrPlanNotFound = fmt.Errorf("itinerary plan not found")
var ErrStopNotFound = fmt.Errorf("itinerary stop not found")

var _ Service = (*ServiceImpl)(nil)

// Service builds, stores and edits multi-stop food-tour plans, and
// generates free-form multi-day itineraries through the completion
// service.
type Service interface {
	Plan(ctx context.Context, catalog []types.Venue, req types.PlanRequest) (*types.ItineraryPlan, error)
	GetPlan(ctx context.Context, planID uuid.UUID) (*types.ItineraryPlan, error)
	RemoveStop(ctx context.Context, planID uuid.UUID, order int) (*types.ItineraryPlan, error)
	Generate(ctx context.Context, req types.GenerateRequest) (*types.GeneratedItinerary, error)
}

type ServiceImpl struct {
	logger   *slog.Logger
	aiClient generativeAI.Client

	// mu serializes plan edits; readers always get copies, never the
	// cached pointer.
	mu    sync.Mutex
	plans *cache.Cache
}

func NewServiceImpl(aiClient generativeAI.Client, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger:   logger,
		aiClient: aiClient,
		plans:    cache.New(planTTL, planSweepPeriod),
	}
}

// Plan selects up to req.Stops venues matching the budget and cuisine
// constraints, orders them into a walking route and assigns arrival times.
//
// The budget filter is asymmetric on purpose, matching the product
// behavior: low keeps only the cheapest tier, high keeps the top two
// tiers, and mid applies no price filter at all.
func (s *ServiceImpl) Plan(ctx context.Context, catalog []types.Venue, req types.PlanRequest) (*types.ItineraryPlan, error) {
	_, span := otel.Tracer("ItineraryService").Start(ctx, "Plan")
	defer span.End()

	if req.Stops < MinStops || req.Stops > MaxStops {
		return nil, fmt.Errorf("stop count must be between %d and %d", MinStops, MaxStops)
	}

	filtered := make([]types.Venue, 0, len(catalog))
	for _, v := range catalog {
		if v.Kind != types.KindRestaurant {
			continue
		}
		switch req.Budget {
		case types.PriceLow:
			if v.PriceTier != types.PriceLow {
				continue
			}
		case types.PriceHigh:
			if v.PriceTier == types.PriceLow {
				continue
			}
		}
		if req.Cuisine != "" && !containsFold(v.Cuisine, req.Cuisine) {
			continue
		}
		filtered = append(filtered, v)
	}

	// Rank by quality with a light wait penalty, then take the top N.
	sort.SliceStable(filtered, func(i, j int) bool {
		return planScore(filtered[i]) > planScore(filtered[j])
	})
	if len(filtered) > req.Stops {
		filtered = filtered[:req.Stops]
	}

	// Walking order: nearest to the plan's start first.
	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].DistanceMeters < filtered[j].DistanceMeters
	})

	current := time.Date(0, 1, 1, anchorHour, 0, 0, 0, time.UTC)
	stops := make([]types.ItineraryStop, 0, len(filtered))
	for i, v := range filtered {
		stops = append(stops, types.ItineraryStop{
			Venue:            v,
			Order:            i + 1,
			EstimatedArrival: current.Format("15:04"),
			EstimatedWait:    v.WaitTime,
		})
		current = current.Add(time.Duration(mealMinutes+v.WaitTime+walkMinutes) * time.Minute)
	}

	plan := &types.ItineraryPlan{ID: uuid.New(), Stops: stops}
	summarize(plan)

	s.mu.Lock()
	s.plans.Set(plan.ID.String(), plan, cache.DefaultExpiration)
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "Itinerary plan generated",
		slog.String("plan_id", plan.ID.String()), slog.Int("stops", len(stops)))
	span.SetStatus(codes.Ok, "Plan generated")
	return clonePlan(plan), nil
}

func (s *ServiceImpl) GetPlan(ctx context.Context, planID uuid.UUID) (*types.ItineraryPlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cached, found := s.plans.Get(planID.String()); found {
		return clonePlan(cached.(*types.ItineraryPlan)), nil
	}
	return nil, ErrPlanNotFound
}

// RemoveStop deletes the stop with the given order and renumbers the
// remainder contiguously from 1. Arrival times of downstream stops are
// intentionally left as planned: the product keeps the original schedule
// visible rather than rebuilding it.
func (s *ServiceImpl) RemoveStop(ctx context.Context, planID uuid.UUID, order int) (*types.ItineraryPlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cached, found := s.plans.Get(planID.String())
	if !found {
		return nil, ErrPlanNotFound
	}
	plan := cached.(*types.ItineraryPlan)

	idx := -1
	for i, stop := range plan.Stops {
		if stop.Order == order {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, ErrStopNotFound
	}

	plan.Stops = append(plan.Stops[:idx], plan.Stops[idx+1:]...)
	for i := range plan.Stops {
		plan.Stops[i].Order = i + 1
	}
	summarize(plan)
	s.plans.Set(plan.ID.String(), plan, cache.DefaultExpiration)
	return clonePlan(plan), nil
}

func clonePlan(plan *types.ItineraryPlan) *types.ItineraryPlan {
	out := *plan
	out.Stops = make([]types.ItineraryStop, len(plan.Stops))
	copy(out.Stops, plan.Stops)
	return &out
}

func planScore(v types.Venue) float64 {
	return v.Rating*2 - float64(v.WaitTime)/20
}

func summarize(plan *types.ItineraryPlan) {
	total := 0.0
	wait := 0
	for _, stop := range plan.Stops {
		total += float64(stop.Venue.PriceMin+stop.Venue.PriceMax) / 2
		wait += stop.EstimatedWait
	}
	plan.TotalBudget = total
	plan.TotalWait = wait
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
