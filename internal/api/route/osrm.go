package route

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/hubb-app/bantadthong/internal/types"
)

// Directions is the routing-service capability: given two coordinates and
// a profile, return distance, duration, geometry and a maneuver list.
// OSRM implements it in production; tests substitute their own.
type Directions interface {
	Route(ctx context.Context, origin, dest types.Coordinate, profile string) (*DirectionsResult, error)
}

// Maneuver is one raw routing-service step before translation.
type Maneuver struct {
	Type     string
	Modifier string
	RoadName string
	Distance float64
	Duration float64
}

type DirectionsResult struct {
	Distance  float64
	Duration  float64
	Geometry  []types.Coordinate
	Maneuvers []Maneuver
}

// OSRMClient calls the OSRM HTTP API.
type OSRMClient struct {
	baseURL string
	client  *http.Client
}

func NewOSRMClient(baseURL string, timeout time.Duration) *OSRMClient {
	return &OSRMClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

var _ Directions = (*OSRMClient)(nil)

// osrmResponse mirrors the subset of the OSRM route response we consume.
// OSRM geometry is GeoJSON, so coordinates arrive in (lng, lat) order and
// are flipped here, at the boundary, and nowhere else.
type osrmResponse struct {
	Code   string `json:"code"`
	Routes []struct {
		Distance float64 `json:"distance"`
		Duration float64 `json:"duration"`
		Geometry struct {
			Coordinates [][]float64 `json:"coordinates"`
		} `json:"geometry"`
		Legs []struct {
			Steps []struct {
				Distance float64 `json:"distance"`
				Duration float64 `json:"duration"`
				Name     string  `json:"name"`
				Maneuver struct {
					Type     string `json:"type"`
					Modifier string `json:"modifier"`
				} `json:"maneuver"`
			} `json:"steps"`
		} `json:"legs"`
	} `json:"routes"`
}

func (c *OSRMClient) Route(ctx context.Context, origin, dest types.Coordinate, profile string) (*DirectionsResult, error) {
	endpoint := fmt.Sprintf("%s/route/v1/%s/%f,%f;%f,%f",
		c.baseURL, url.PathEscape(profile),
		origin.Lng, origin.Lat, dest.Lng, dest.Lat)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build OSRM request: %w", err)
	}
	q := req.URL.Query()
	q.Set("overview", "full")
	q.Set("geometries", "geojson")
	q.Set("steps", "true")
	req.URL.RawQuery = q.Encode()

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("OSRM request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("OSRM returned status %d", resp.StatusCode)
	}

	var body osrmResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode OSRM response: %w", err)
	}
	if body.Code != "Ok" || len(body.Routes) == 0 {
		return nil, fmt.Errorf("OSRM found no route (code %q)", body.Code)
	}

	r := body.Routes[0]
	result := &DirectionsResult{
		Distance: r.Distance,
		Duration: r.Duration,
		Geometry: make([]types.Coordinate, 0, len(r.Geometry.Coordinates)),
	}
	for _, pair := range r.Geometry.Coordinates {
		if len(pair) < 2 {
			continue
		}
		result.Geometry = append(result.Geometry, types.Coordinate{Lat: pair[1], Lng: pair[0]})
	}
	for _, leg := range r.Legs {
		for _, step := range leg.Steps {
			result.Maneuvers = append(result.Maneuvers, Maneuver{
				Type:     step.Maneuver.Type,
				Modifier: step.Maneuver.Modifier,
				RoadName: step.Name,
				Distance: step.Distance,
				Duration: step.Duration,
			})
		}
	}
	return result, nil
}
