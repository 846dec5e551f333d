package route

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/hubb-app/bantadthong/app/observability/metrics"
	"github.com/hubb-app/bantadthong/internal/types"
)

const (
	routeCacheTTL   = 2 * time.Minute
	routeCacheSweep = 5 * time.Minute
)

var _ Service = (*ServiceImpl)(nil)

// Service resolves turn-by-turn routes for all supported transport modes.
type Service interface {
	Resolve(ctx context.Context, origin, dest types.Coordinate, mode types.TransportMode) (*types.RouteInfo, error)
	ResolveAll(ctx context.Context, origin, dest types.Coordinate) (map[types.TransportMode]*types.RouteInfo, error)
}

type ServiceImpl struct {
	logger     *slog.Logger
	directions Directions
	cache      *cache.Cache
}

func NewServiceImpl(directions Directions, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger:     logger,
		directions: directions,
		cache:      cache.New(routeCacheTTL, routeCacheSweep),
	}
}

// Resolve returns the route for one transport mode. Walking durations are
// recalibrated to an urban pedestrian pace instead of the raw service
// estimate; driving durations use the service estimate as-is. Failures
// come back as *types.RouteError and are never fatal.
func (s *ServiceImpl) Resolve(ctx context.Context, origin, dest types.Coordinate, mode types.TransportMode) (*types.RouteInfo, error) {
	ctx, span := otel.Tracer("RouteService").Start(ctx, "Resolve")
	defer span.End()
	start := time.Now()

	key := cacheKey(origin, dest, mode)
	if cached, found := s.cache.Get(key); found {
		return cached.(*types.RouteInfo), nil
	}

	var info *types.RouteInfo
	switch mode {
	case types.ModeTransit:
		info = synthesizeTransit(origin, dest)
	case types.ModeWalking, types.ModeDriving:
		profile := "foot"
		if mode == types.ModeDriving {
			profile = "driving"
		}
		result, err := s.directions.Route(ctx, origin, dest, profile)
		if err != nil {
			metrics.Get().RouteResolveErrorsTotal.Add(ctx, 1)
			s.logger.WarnContext(ctx, "Route resolution failed",
				slog.String("mode", string(mode)), slog.Any("error", err))
			span.RecordError(err)
			span.SetStatus(codes.Error, "Routing service failed")
			return nil, &types.RouteError{Mode: mode, Reason: err.Error()}
		}
		info = fromDirections(result, mode)
	default:
		return nil, &types.RouteError{Mode: mode, Reason: fmt.Sprintf("unsupported transport mode %q", mode)}
	}

	if len(info.Geometry) == 0 {
		metrics.Get().RouteResolveErrorsTotal.Add(ctx, 1)
		return nil, &types.RouteError{Mode: mode, Reason: "route has no geometry"}
	}

	s.cache.Set(key, info, cache.DefaultExpiration)
	metrics.Get().RouteResolveDuration.Record(ctx, time.Since(start).Seconds())
	span.SetStatus(codes.Ok, "Route resolved")
	return info, nil
}

// ResolveAll fans out all three transport modes concurrently. A single
// failing mode fails the call; callers wanting partial results resolve
// modes individually.
func (s *ServiceImpl) ResolveAll(ctx context.Context, origin, dest types.Coordinate) (map[types.TransportMode]*types.RouteInfo, error) {
	g, ctx := errgroup.WithContext(ctx)
	modes := []types.TransportMode{types.ModeWalking, types.ModeDriving, types.ModeTransit}
	results := make([]*types.RouteInfo, len(modes))

	for i, mode := range modes {
		g.Go(func() error {
			info, err := s.Resolve(ctx, origin, dest, mode)
			if err != nil {
				return err
			}
			results[i] = info
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[types.TransportMode]*types.RouteInfo, len(modes))
	for i, mode := range modes {
		out[mode] = results[i]
	}
	return out, nil
}

// fromDirections converts a raw routing-service result into a RouteInfo,
// applying the walking-pace recalibration.
func fromDirections(result *DirectionsResult, mode types.TransportMode) *types.RouteInfo {
	info := &types.RouteInfo{
		Mode:     mode,
		Distance: result.Distance,
		Duration: result.Duration,
		Geometry: result.Geometry,
	}

	scale := 1.0
	if mode == types.ModeWalking && result.Distance > 0 {
		recalibrated := result.Distance / walkingSpeedMPS
		if result.Duration > 0 {
			scale = recalibrated / result.Duration
		}
		info.Duration = recalibrated
	}

	for _, m := range result.Maneuvers {
		info.Steps = append(info.Steps, types.RouteStep{
			Instruction: translateManeuver(m),
			Distance:    m.Distance,
			Duration:    m.Duration * scale,
		})
	}
	return info
}

func cacheKey(origin, dest types.Coordinate, mode types.TransportMode) string {
	return fmt.Sprintf("%.5f,%.5f;%.5f,%.5f;%s", origin.Lat, origin.Lng, dest.Lat, dest.Lng, mode)
}
