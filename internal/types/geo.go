package types

import "math"

// Coordinate is the canonical lat/lng pair used throughout the service.
// External geometry arriving in (lng, lat) order must be converted to this
// type at the boundary that receives it, never downstream.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Bantadthong anchor point. Positions outside the service region are
// remapped here.
var BantadthongCenter = Coordinate{Lat: 13.7420, Lng: 100.5272}

// Service region bounds (greater Bangkok).
const (
	RegionMinLat = 13.5
	RegionMaxLat = 14.0
	RegionMinLng = 100.3
	RegionMaxLng = 100.8
)

// InServiceRegion reports whether c falls inside the Bangkok service area.
func (c Coordinate) InServiceRegion() bool {
	return c.Lat > RegionMinLat && c.Lat < RegionMaxLat &&
		c.Lng > RegionMinLng && c.Lng < RegionMaxLng
}

const earthRadiusMeters = 6371000

// DistanceTo returns the great-circle distance in meters between c and other.
func (c Coordinate) DistanceTo(other Coordinate) float64 {
	lat1 := c.Lat * math.Pi / 180
	lat2 := other.Lat * math.Pi / 180
	dLat := (other.Lat - c.Lat) * math.Pi / 180
	dLng := (other.Lng - c.Lng) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return earthRadiusMeters * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}
