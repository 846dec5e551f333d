package types

import "github.com/google/uuid"

// VenueKind distinguishes catalog entries.
type VenueKind string

const (
	KindRestaurant VenueKind = "restaurant"
	KindLandmark   VenueKind = "landmark"
)

// PriceTier is the ordinal price level of a venue.
type PriceTier string

const (
	PriceLow  PriceTier = "low"
	PriceMid  PriceTier = "mid"
	PriceHigh PriceTier = "high"
)

// BahtTier renders the tier the way the catalog displays it.
func (p PriceTier) BahtTier() string {
	switch p {
	case PriceLow:
		return "฿"
	case PriceMid:
		return "฿฿"
	case PriceHigh:
		return "฿฿฿"
	}
	return ""
}

// Venue is a restaurant or landmark in the Bantadthong catalog.
// Invariants: TablesAvailable <= TotalTables and 0 <= Rating <= 5.
type Venue struct {
	ID              uuid.UUID  `json:"id"`
	Kind            VenueKind  `json:"kind"`
	Name            string     `json:"name"`
	Cuisine         string     `json:"cuisine"`
	Rating          float64    `json:"rating"`
	ReviewCount     int        `json:"review_count"`
	Location        Coordinate `json:"location"`
	PriceTier       PriceTier  `json:"price_tier"`
	BahtTier        string     `json:"baht_tier"`
	PriceMin        int        `json:"price_min"`
	PriceMax        int        `json:"price_max"`
	WaitTime        int        `json:"wait_time"` // minutes
	TotalTables     int        `json:"total_tables"`
	TablesAvailable int        `json:"tables_available"`
	KnownFor        []string   `json:"known_for,omitempty"`
	SignatureDishes []string   `json:"signature_dishes,omitempty"`
	Description     string     `json:"description"`
	OpenHours       string     `json:"open_hours"`
	Address         string     `json:"address"`
	DistanceMeters  float64    `json:"distance_meters"` // from the Bantadthong anchor
}

// Valid reports whether the venue satisfies the catalog invariants.
func (v Venue) Valid() bool {
	return v.TablesAvailable <= v.TotalTables && v.Rating >= 0 && v.Rating <= 5
}

// RankedResult pairs a venue with its derived recommendation score.
// Results are ordered by descending score, catalog order breaking ties.
type RankedResult struct {
	Venue Venue   `json:"venue"`
	Score float64 `json:"score"`
}
