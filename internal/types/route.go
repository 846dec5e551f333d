package types

// TransportMode selects how a route is resolved.
type TransportMode string

const (
	ModeWalking TransportMode = "walking"
	ModeDriving TransportMode = "driving"
	ModeTransit TransportMode = "transit"
)

// RouteStep is one human-readable maneuver along a route. Transit legs
// carry the line they ride on.
type RouteStep struct {
	Instruction string  `json:"instruction"`
	Distance    float64 `json:"distance"` // meters
	Duration    float64 `json:"duration"` // seconds
	TransitLine string  `json:"transit_line,omitempty"`
	LineColor   string  `json:"line_color,omitempty"`
}

// RouteInfo is a resolved route between two points. Geometry is non-empty
// whenever a route exists, and summed step durations approximate Duration.
type RouteInfo struct {
	Mode     TransportMode `json:"mode"`
	Distance float64       `json:"distance"` // meters
	Duration float64       `json:"duration"` // seconds
	Geometry []Coordinate  `json:"geometry"`
	Steps    []RouteStep   `json:"steps"`
}

// RouteError reports a non-fatal route resolution failure. Callers clear
// any displayed route and offer a retry.
type RouteError struct {
	Mode   TransportMode `json:"mode"`
	Reason string        `json:"reason"`
}

func (e *RouteError) Error() string {
	return "route resolution failed (" + string(e.Mode) + "): " + e.Reason
}
