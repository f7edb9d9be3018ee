// Package geo implements the great-circle distance filter used for nearby
// queries: exact haversine distance plus a cheap bounding-box pre-filter
// that narrows candidates before the exact formula runs.
package geo

import "math"

const (
	// EarthRadiusMiles is the mean Earth radius used by the haversine formula.
	EarthRadiusMiles = 3958.8
	// MetersPerMile converts the meter radii used by the HTTP surface into miles.
	MetersPerMile = 1609.34
	// milesPerDegreeLat is the approximate surface distance of one degree of
	// latitude; longitude degrees shrink by cos(latitude) away from the equator.
	milesPerDegreeLat = 69.0
)

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

// Point is a coordinate pair in degrees.
type Point struct {
	Lat float64
	Lon float64
}

// Haversine returns the great-circle distance between p and q in miles.
func Haversine(p, q Point) float64 {
	lat1 := radians(p.Lat)
	lat2 := radians(q.Lat)
	dLat := radians(q.Lat - p.Lat)
	dLon := radians(q.Lon - p.Lon)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * EarthRadiusMiles * math.Asin(math.Sqrt(a))
}

// BoundingBox is a latitude/longitude rectangle that is a superset of the
// radius disk around its center; it never excludes a true match, it only
// reduces how many candidates need the exact formula.
type BoundingBox struct {
	MinLat float64
	MaxLat float64
	MinLon float64
	MaxLon float64
}

// NewBoundingBox computes the pre-filter box for a radius in miles around
// center. Near the poles cos(lat) approaches zero; rather than divide by it
// the box widens to the full longitude span, which keeps the superset
// property without crashing.
func NewBoundingBox(center Point, radiusMiles float64) BoundingBox {
	dLat := radiusMiles / milesPerDegreeLat

	box := BoundingBox{
		MinLat: center.Lat - dLat,
		MaxLat: center.Lat + dLat,
	}

	cosLat := math.Cos(radians(center.Lat))
	if cosLat < 1e-6 {
		box.MinLon = -180
		box.MaxLon = 180
		return box
	}

	dLon := radiusMiles / (milesPerDegreeLat * cosLat)
	box.MinLon = center.Lon - dLon
	box.MaxLon = center.Lon + dLon
	return box
}

// Contains reports whether p falls inside the box.
func (b BoundingBox) Contains(p Point) bool {
	return p.Lat >= b.MinLat && p.Lat <= b.MaxLat &&
		p.Lon >= b.MinLon && p.Lon <= b.MaxLon
}

// MilesFromMeters converts a radius expressed in meters to miles.
func MilesFromMeters(meters float64) float64 {
	return meters / MetersPerMile
}

// Located is anything that may carry coordinates. Implementations return
// ok=false when either coordinate is missing; such entities are skipped by
// the filter, never treated as distance zero or infinity.
type Located interface {
	Coordinates() (lat, lon float64, ok bool)
}

// WithinRadius reports whether loc has coordinates and lies within
// radiusMiles of center.
func WithinRadius(center Point, radiusMiles float64, loc Located) bool {
	lat, lon, ok := loc.Coordinates()
	if !ok {
		return false
	}
	return Haversine(center, Point{Lat: lat, Lon: lon}) <= radiusMiles
}
