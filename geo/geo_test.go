package geo

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	losAngeles   = Point{Lat: 34.0522, Lon: -118.2437}
	sanFrancisco = Point{Lat: 37.7749, Lon: -122.4194}
)

func TestHaversineSymmetry(t *testing.T) {
	assert.Equal(t, Haversine(losAngeles, sanFrancisco), Haversine(sanFrancisco, losAngeles))
}

func TestHaversineIdentity(t *testing.T) {
	assert.Zero(t, Haversine(losAngeles, losAngeles))
	assert.Zero(t, Haversine(Point{}, Point{}))
}

func TestHaversineKnownDistance(t *testing.T) {
	// LA to SF is roughly 347 miles great-circle.
	d := Haversine(losAngeles, sanFrancisco)
	assert.InDelta(t, 347, d, 5)
}

func TestBoundingBoxSupersetOfRadius(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	center := Point{Lat: 34.05, Lon: -118.25}
	const radius = 25.0
	box := NewBoundingBox(center, radius)

	for i := 0; i < 1000; i++ {
		p := Point{
			Lat: center.Lat + (rng.Float64()-0.5)*2,
			Lon: center.Lon + (rng.Float64()-0.5)*2,
		}
		if Haversine(center, p) <= radius {
			require.True(t, box.Contains(p),
				"point %+v inside radius but excluded by bounding box", p)
		}
	}
}

func TestBoundingBoxNearPole(t *testing.T) {
	box := NewBoundingBox(Point{Lat: 90, Lon: 0}, 10)
	assert.Equal(t, -180.0, box.MinLon)
	assert.Equal(t, 180.0, box.MaxLon)
}

func TestMilesFromMeters(t *testing.T) {
	assert.InDelta(t, 1.0, MilesFromMeters(1609.34), 1e-9)
	assert.InDelta(t, 10.0, MilesFromMeters(16093.4), 1e-9)
}

type located struct {
	lat, lon *float64
}

func (l located) Coordinates() (float64, float64, bool) {
	if l.lat == nil || l.lon == nil {
		return 0, 0, false
	}
	return *l.lat, *l.lon, true
}

func f(v float64) *float64 { return &v }

func TestWithinRadius(t *testing.T) {
	center := Point{Lat: 34.05, Lon: -118.25}

	assert.True(t, WithinRadius(center, 1, located{lat: f(34.05), lon: f(-118.25)}))
	assert.False(t, WithinRadius(center, 1, located{lat: f(37.77), lon: f(-122.42)}))
}

func TestWithinRadiusSkipsMissingCoordinates(t *testing.T) {
	center := Point{Lat: 34.05, Lon: -118.25}

	assert.False(t, WithinRadius(center, 100, located{}))
	assert.False(t, WithinRadius(center, 100, located{lat: f(34.05)}))
}

func TestWithinRadiusZero(t *testing.T) {
	center := Point{Lat: 34.05, Lon: -118.25}

	// Radius zero keeps only coincident points.
	assert.True(t, WithinRadius(center, 0, located{lat: f(34.05), lon: f(-118.25)}))
	assert.False(t, WithinRadius(center, 0, located{lat: f(34.0501), lon: f(-118.25)}))
}
