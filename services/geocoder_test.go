package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func newTestGeocoder(apiKey, geocodeURL, nominatimURL string) *Geocoder {
	return &Geocoder{
		apiKey:        apiKey,
		geocodeURL:    geocodeURL,
		nominatimURL:  nominatimURL,
		userAgent:     "plater8te-test",
		client:        http.DefaultClient,
		freeLimiter:   rate.NewLimiter(rate.Inf, 1),
		cacheDisabled: true,
	}
}

func TestNormalizeLocation(t *testing.T) {
	assert.Equal(t, "90210, USA", NormalizeLocation("90210"))
	assert.Equal(t, "90210, USA", NormalizeLocation("  90210  "))
	assert.Equal(t, "9021", NormalizeLocation("9021"))
	assert.Equal(t, "902101", NormalizeLocation("902101"))
	assert.Equal(t, "9021a", NormalizeLocation("9021a"))
	assert.Equal(t, "Austin, TX", NormalizeLocation("Austin, TX"))
	assert.Equal(t, "", NormalizeLocation("   "))
}

func TestGeocodePrimaryProvider(t *testing.T) {
	google := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.URL.Query().Get("key"))
		assert.Equal(t, "Austin, TX", r.URL.Query().Get("address"))
		w.Write([]byte(`{"status":"OK","results":[{"geometry":{"location":{"lat":30.2672,"lng":-97.7431}}}]}`))
	}))
	defer google.Close()

	g := newTestGeocoder("test-key", google.URL, "http://unused.invalid")
	p, found := g.Geocode(context.Background(), "Austin, TX")
	require.True(t, found)
	assert.InDelta(t, 30.2672, p.Lat, 1e-9)
	assert.InDelta(t, -97.7431, p.Lon, 1e-9)
}

func TestGeocodeFallsBackToFreeProvider(t *testing.T) {
	google := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"REQUEST_DENIED","results":[]}`))
	}))
	defer google.Close()

	nominatim := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "plater8te-test", r.Header.Get("User-Agent"))
		w.Write([]byte(`[{"lat":"30.2672","lon":"-97.7431"}]`))
	}))
	defer nominatim.Close()

	g := newTestGeocoder("test-key", google.URL, nominatim.URL)
	p, found := g.Geocode(context.Background(), "Austin, TX")
	require.True(t, found)
	assert.InDelta(t, 30.2672, p.Lat, 1e-9)
	assert.InDelta(t, -97.7431, p.Lon, 1e-9)
}

func TestGeocodeSkipsPrimaryWithoutKey(t *testing.T) {
	googleHits := 0
	google := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		googleHits++
		w.Write([]byte(`{"status":"OK","results":[{"geometry":{"location":{"lat":1,"lng":1}}}]}`))
	}))
	defer google.Close()

	nominatim := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"lat":"40.0","lon":"-75.0"}]`))
	}))
	defer nominatim.Close()

	g := newTestGeocoder("", google.URL, nominatim.URL)
	_, found := g.Geocode(context.Background(), "Philadelphia")
	require.True(t, found)
	assert.Zero(t, googleHits)
}

func TestGeocodeBothProvidersFail(t *testing.T) {
	google := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer google.Close()

	nominatim := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer nominatim.Close()

	g := newTestGeocoder("test-key", google.URL, nominatim.URL)
	_, found := g.Geocode(context.Background(), "nowhere at all")
	assert.False(t, found)
}

func TestGeocodeEmptyLocation(t *testing.T) {
	g := newTestGeocoder("", "http://unused.invalid", "http://unused.invalid")
	_, found := g.Geocode(context.Background(), "")
	assert.False(t, found)
}

func TestReverseCityFallsBackToTown(t *testing.T) {
	nominatim := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/reverse", r.URL.Path)
		w.Write([]byte(`{"address":{"road":"Main St","town":"Smallville","state":"Kansas"}}`))
	}))
	defer nominatim.Close()

	g := newTestGeocoder("", "http://unused.invalid", nominatim.URL)
	place, found := g.Reverse(context.Background(), 38.0, -97.0)
	require.True(t, found)
	assert.Equal(t, "Main St", place.Road)
	assert.Equal(t, "Smallville", place.City)
	assert.Equal(t, "Kansas", place.State)
}
