package recommend

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"go.opentelemetry.io/otel"

	"github.com/hubb-app/bantadthong/internal/types"
)

// Scoring weights. These are deliberate tuning choices favoring quality
// and seat availability over minor wait differences.
const (
	RatingWeight        = 10.0
	AvailabilityWeight  = 5.0
	WaitPenaltyDivisor  = 10.0
	MaxResults          = 3
	noWaitCeilingMin    = 15
	shortWaitCeilingMin = 25
	groupTableThreshold = 10
)

var _ Service = (*ServiceImpl)(nil)

// Service ranks catalog venues against an extracted intent.
type Service interface {
	Recommend(ctx context.Context, catalog []types.Venue, intent types.Intent) []types.RankedResult
	TopRated(ctx context.Context, catalog []types.Venue) []types.RankedResult
}

type ServiceImpl struct {
	logger *slog.Logger
}

func NewServiceImpl(logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{logger: logger}
}

// Recommend filters the catalog by every present intent axis, scores the
// survivors and returns at most MaxResults ordered by descending score.
// An empty result means the filters eliminated everything; the caller
// decides whether to fall back to TopRated. Venues are never mutated.
func (s *ServiceImpl) Recommend(ctx context.Context, catalog []types.Venue, intent types.Intent) []types.RankedResult {
	_, span := otel.Tracer("RecommendService").Start(ctx, "Recommend")
	defer span.End()

	filtered := make([]types.Venue, 0, len(catalog))
	for _, v := range catalog {
		if v.Kind != types.KindRestaurant {
			continue
		}
		if matches(v, intent) {
			filtered = append(filtered, v)
		}
	}

	s.logger.DebugContext(ctx, "Catalog filtered",
		slog.Int("survivors", len(filtered)), slog.Int("catalog", len(catalog)))

	return rank(filtered, Score)
}

// TopRated is the unfiltered fallback: the catalog's best-rated
// restaurants ranked by the same scoring formula.
func (s *ServiceImpl) TopRated(ctx context.Context, catalog []types.Venue) []types.RankedResult {
	restaurants := make([]types.Venue, 0, len(catalog))
	for _, v := range catalog {
		if v.Kind == types.KindRestaurant {
			restaurants = append(restaurants, v)
		}
	}
	return rank(restaurants, Score)
}

// Score computes the ranking score for one venue:
// rating*10 + seatAvailability*5 - waitMinutes/10.
func Score(v types.Venue) float64 {
	availability := 0.0
	if v.TotalTables > 0 {
		availability = float64(v.TablesAvailable) / float64(v.TotalTables)
	}
	return v.Rating*RatingWeight + availability*AvailabilityWeight - float64(v.WaitTime)/WaitPenaltyDivisor
}

func rank(venues []types.Venue, score func(types.Venue) float64) []types.RankedResult {
	results := make([]types.RankedResult, 0, len(venues))
	for _, v := range venues {
		results = append(results, types.RankedResult{Venue: v, Score: score(v)})
	}
	// Stable sort keeps catalog order for ties.
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > MaxResults {
		results = results[:MaxResults]
	}
	return results
}

// matches applies every present intent axis as an AND predicate.
func matches(v types.Venue, intent types.Intent) bool {
	if intent.Price != nil && v.PriceTier != *intent.Price {
		return false
	}
	if intent.Wait != nil {
		ceiling := shortWaitCeilingMin
		if *intent.Wait == types.WaitNone {
			ceiling = noWaitCeilingMin
		}
		if v.WaitTime > ceiling {
			return false
		}
	}
	if intent.Time != nil && *intent.Time == types.TimeLate && !openLate(v) {
		return false
	}
	if intent.Spicy && !hasTagOrDescription(v, "spicy") {
		return false
	}
	if intent.Seafood && !hasTagOrDescription(v, "seafood") {
		return false
	}
	if len(intent.Cuisines) > 0 && !matchesAnyCuisine(v, intent.Cuisines) {
		return false
	}
	if intent.Group && !groupFriendly(v) {
		return false
	}
	return true
}

func openLate(v types.Venue) bool {
	// Closing hours past 23:00 or past midnight count as late night.
	return strings.Contains(v.OpenHours, "23:") || strings.Contains(v.OpenHours, "00:") ||
		strings.Contains(v.OpenHours, "01:") || strings.Contains(strings.ToLower(v.OpenHours), "24 hours")
}

func hasTagOrDescription(v types.Venue, term string) bool {
	for _, tag := range v.KnownFor {
		if strings.Contains(strings.ToLower(tag), term) {
			return true
		}
	}
	return strings.Contains(strings.ToLower(v.Description), term) ||
		strings.Contains(strings.ToLower(v.Cuisine), term)
}

func matchesAnyCuisine(v types.Venue, cuisines []string) bool {
	for _, c := range cuisines {
		if hasTagOrDescription(v, strings.ToLower(c)) {
			return true
		}
	}
	return false
}

func groupFriendly(v types.Venue) bool {
	return v.TotalTables >= groupTableThreshold || hasTagOrDescription(v, "group friendly")
}
