package venue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hubb-app/bantadthong/app/observability/metrics"
	"github.com/hubb-app/bantadthong/internal/types"
)

var ErrVenueNotFound = fmt.Errorf("venue not found")

// DB is the subset of pgxpool.Pool the repository needs; tests substitute
// a pgxmock pool.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var _ DB = (*pgxpool.Pool)(nil)

var _ Repository = (*PostgresVenueRepository)(nil)

// Repository reads the venue catalog.
type Repository interface {
	GetVenues(ctx context.Context) ([]types.Venue, error)
	GetVenue(ctx context.Context, id uuid.UUID) (*types.Venue, error)
	GetVenuesByKind(ctx context.Context, kind types.VenueKind) ([]types.Venue, error)
}

type PostgresVenueRepository struct {
	logger *slog.Logger
	pgpool DB
}

func NewPostgresVenueRepository(pool DB, logger *slog.Logger) *PostgresVenueRepository {
	return &PostgresVenueRepository{
		logger: logger,
		pgpool: pool,
	}
}

const venueColumns = `
        id, kind, name, cuisine, rating, review_count,
        latitude, longitude, price_tier, price_min, price_max,
        wait_time, total_tables, tables_available,
        known_for, signature_dishes, description, open_hours,
        address, distance_meters
`

func (r *PostgresVenueRepository) GetVenues(ctx context.Context) ([]types.Venue, error) {
	query := `SELECT ` + venueColumns + ` FROM venues ORDER BY distance_meters ASC`
	return r.queryVenues(ctx, "GetVenues", query)
}

func (r *PostgresVenueRepository) GetVenuesByKind(ctx context.Context, kind types.VenueKind) ([]types.Venue, error) {
	query := `SELECT ` + venueColumns + ` FROM venues WHERE kind = $1 ORDER BY distance_meters ASC`
	return r.queryVenues(ctx, "GetVenuesByKind", query, string(kind))
}

func (r *PostgresVenueRepository) GetVenue(ctx context.Context, id uuid.UUID) (*types.Venue, error) {
	start := time.Now()
	query := `SELECT ` + venueColumns + ` FROM venues WHERE id = $1`

	row := r.pgpool.QueryRow(ctx, query, id)
	v, err := scanVenue(row)
	metrics.Get().DbQueryDurationSeconds.Record(ctx, time.Since(start).Seconds())
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrVenueNotFound
		}
		return nil, fmt.Errorf("failed to query venue: %w", err)
	}
	return &v, nil
}

func (r *PostgresVenueRepository) queryVenues(ctx context.Context, op, query string, args ...any) ([]types.Venue, error) {
	start := time.Now()
	rows, err := r.pgpool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query venues: %w", err)
	}
	defer rows.Close()

	var venues []types.Venue
	for rows.Next() {
		v, err := scanVenue(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan venue: %w", err)
		}
		venues = append(venues, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read venues: %w", err)
	}

	metrics.Get().DbQueryDurationSeconds.Record(ctx, time.Since(start).Seconds())
	r.logger.DebugContext(ctx, "Loaded venues",
		slog.String("op", op), slog.Int("count", len(venues)))
	return venues, nil
}

func scanVenue(row pgx.Row) (types.Venue, error) {
	var v types.Venue
	err := row.Scan(
		&v.ID, &v.Kind, &v.Name, &v.Cuisine, &v.Rating, &v.ReviewCount,
		&v.Location.Lat, &v.Location.Lng, &v.PriceTier, &v.PriceMin, &v.PriceMax,
		&v.WaitTime, &v.TotalTables, &v.TablesAvailable,
		&v.KnownFor, &v.SignatureDishes, &v.Description, &v.OpenHours,
		&v.Address, &v.DistanceMeters,
	)
	if err != nil {
		return types.Venue{}, err
	}
	v.BahtTier = v.PriceTier.BahtTier()
	return v, nil
}
