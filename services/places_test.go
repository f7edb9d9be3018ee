package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ktwom22/plater8te/config"
	"github.com/ktwom22/plater8te/geo"
	"github.com/ktwom22/plater8te/models"
)

func newTestPlacesProvider(baseURL string, exclude []string, fetchDetails bool) *PlacesProvider {
	return &PlacesProvider{
		apiKey:       "test-key",
		baseURL:      baseURL,
		client:       http.DefaultClient,
		exclude:      exclude,
		fetchDetails: fetchDetails,
		pageDelay:    0,
	}
}

func TestPlacesNearbyPagination(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/nearbysearch/json", r.URL.Path)
		if r.URL.Query().Get("pagetoken") == "" {
			w.Write([]byte(`{"status":"OK","next_page_token":"page2","results":[
				{"name":"Taco Haven","vicinity":"1 Main St","geometry":{"location":{"lat":29.4,"lng":-98.5}}}
			]}`))
			return
		}
		assert.Equal(t, "page2", r.URL.Query().Get("pagetoken"))
		w.Write([]byte(`{"status":"OK","results":[
			{"name":"Pho Corner","vicinity":"2 Main St","geometry":{"location":{"lat":29.41,"lng":-98.51}}}
		]}`))
	}))
	defer srv.Close()

	p := newTestPlacesProvider(srv.URL, nil, false)
	out, err := p.Nearby(context.Background(), geo.Point{Lat: 29.4, Lon: -98.5}, 4000)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "Taco Haven", out[0].Name)
	assert.Equal(t, "Pho Corner", out[1].Name)
	assert.Equal(t, "2 Main St", out[1].Address)
}

func TestPlacesNearbyExcludesChains(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"OK","results":[
			{"name":"McDonald's #4821","vicinity":"1 Loop Rd","geometry":{"location":{"lat":1,"lng":1}}},
			{"name":"Casa Oaxaca","vicinity":"2 Loop Rd","geometry":{"location":{"lat":1,"lng":1}}}
		]}`))
	}))
	defer srv.Close()

	p := newTestPlacesProvider(srv.URL, []string{"mcdonald"}, false)
	out, err := p.Nearby(context.Background(), geo.Point{}, 4000)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "Casa Oaxaca", out[0].Name)
}

func TestPlacesNearbyFetchesWebsite(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/nearbysearch/json":
			w.Write([]byte(`{"status":"OK","results":[
				{"place_id":"abc123","name":"Casa Oaxaca","vicinity":"2 Loop Rd","geometry":{"location":{"lat":1,"lng":1}}}
			]}`))
		case "/details/json":
			assert.Equal(t, "abc123", r.URL.Query().Get("place_id"))
			w.Write([]byte(`{"status":"OK","result":{"website":"https://casaoaxaca.example"}}`))
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	p := newTestPlacesProvider(srv.URL, nil, true)
	out, err := p.Nearby(context.Background(), geo.Point{}, 4000)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "https://casaoaxaca.example", out[0].Website)
}

func TestPlacesNearbyProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"REQUEST_DENIED","results":[]}`))
	}))
	defer srv.Close()

	p := newTestPlacesProvider(srv.URL, nil, false)
	out, err := p.Nearby(context.Background(), geo.Point{}, 4000)
	require.Error(t, err)
	assert.Nil(t, out)
}

func TestPlacesNearbyZeroResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"ZERO_RESULTS","results":[]}`))
	}))
	defer srv.Close()

	p := newTestPlacesProvider(srv.URL, nil, false)
	out, err := p.Nearby(context.Background(), geo.Point{}, 4000)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func f(v float64) *float64 { return &v }

func TestFilterRestaurants(t *testing.T) {
	center := geo.Point{Lat: 30.0, Lon: -97.0}
	rows := []models.Restaurant{
		{Name: "Close By", Address: "1 Near St", Latitude: f(30.001), Longitude: f(-97.001), Website: "https://closeby.example"},
		{Name: "Ten Miles Out", Latitude: f(30.1449), Longitude: f(-97.0)}, // ~10 miles north
		{Name: "No Coordinates"},
		{Name: "Subway Downtown", Latitude: f(30.0), Longitude: f(-97.0)},
	}

	out := FilterRestaurants(rows, center, 2.0, []string{"subway"})
	require.Len(t, out, 1)
	assert.Equal(t, "Close By", out[0].Name)
	assert.Equal(t, "https://closeby.example", out[0].Website)

	// A tight radius around a point away from every row yields an empty,
	// non-nil slice.
	empty := FilterRestaurants(rows, geo.Point{Lat: 45.0, Lon: -120.0}, 1.0, nil)
	require.NotNil(t, empty)
	assert.Empty(t, empty)

	// A wider radius admits the ten-mile row.
	wide := FilterRestaurants(rows, center, 15.0, []string{"subway"})
	assert.Len(t, wide, 2)
}

func TestExcludedChain(t *testing.T) {
	exclude := []string{"mcdonald", "burger king"}
	assert.True(t, excludedChain("McDonald's", exclude))
	assert.True(t, excludedChain("BURGER KING #12", exclude))
	assert.False(t, excludedChain("King's Burgers", exclude))
	assert.False(t, excludedChain("Casa Oaxaca", nil))
	assert.False(t, excludedChain("Anything", []string{""}))
}

func TestNewNearbyProviderSelection(t *testing.T) {
	cfg := config.AppConfig{GoogleAPIKey: "k"}
	_, ok := NewNearbyProvider(nil, cfg).(*PlacesProvider)
	assert.True(t, ok)

	cfg.GoogleAPIKey = ""
	_, ok = NewNearbyProvider(nil, cfg).(*LocalProvider)
	assert.True(t, ok)
}
