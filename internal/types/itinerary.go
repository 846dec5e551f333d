package types

import "github.com/google/uuid"

// ItineraryStop is one venue on a generated food-tour plan. Order is
// 1-based and contiguous; removing a stop renumbers the remainder.
type ItineraryStop struct {
	Venue            Venue  `json:"venue"`
	Order            int    `json:"order"`
	EstimatedArrival string `json:"estimated_arrival"` // clock time, e.g. "11:00"
	EstimatedWait    int    `json:"estimated_wait"`    // minutes, copied at plan time
}

// ItineraryPlan is a stored multi-stop plan with derived summaries.
type ItineraryPlan struct {
	ID          uuid.UUID       `json:"id"`
	Stops       []ItineraryStop `json:"stops"`
	TotalBudget float64         `json:"total_budget"` // THB, sum of per-stop price midpoints
	TotalWait   int             `json:"total_wait"`   // minutes
}

// PlanRequest are the itinerary planner constraints.
type PlanRequest struct {
	Budget  PriceTier `json:"budget"`
	Stops   int       `json:"stops"`
	Cuisine string    `json:"cuisine,omitempty"` // empty means any
}

// GenerateRequest asks the completion service for a multi-day itinerary.
type GenerateRequest struct {
	Location    string `json:"location"`
	Days        int    `json:"days"`
	Preferences string `json:"preferences"`
}

// GeneratedItinerary is the parsed completion-service answer.
type GeneratedItinerary struct {
	Name        string         `json:"itinerary_name"`
	Description string         `json:"overall_description"`
	Days        []GeneratedDay `json:"days"`
}

type GeneratedDay struct {
	Day        int      `json:"day"`
	Activities []string `json:"activities"`
}
