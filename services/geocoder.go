// Package services holds the geocoding, nearby-search, and feed composition
// logic behind the HTTP controllers.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/ktwom22/plater8te/config"
	"github.com/ktwom22/plater8te/geo"
	"github.com/ktwom22/plater8te/utils"
)

// Geocoder resolves free-text locations to coordinates. A keyed commercial
// provider is tried first when configured; any failure falls through to the
// free provider. Callers observe only the coordinate pair or not-found --
// never which provider resolved.
type Geocoder struct {
	apiKey        string
	geocodeURL    string
	nominatimURL  string
	userAgent     string
	client        *http.Client
	freeLimiter   *rate.Limiter
	cacheDisabled bool
}

// geocodeCacheTTL bounds how long a resolved location is reused.
const geocodeCacheTTL = 24 * time.Hour

// NewGeocoder builds a geocoder from application configuration.
func NewGeocoder(cfg config.AppConfig) *Geocoder {
	return &Geocoder{
		apiKey:       cfg.GoogleAPIKey,
		geocodeURL:   cfg.GeocodeBaseURL,
		nominatimURL: cfg.NominatimBaseURL,
		userAgent:    cfg.NominatimUA,
		client:       &http.Client{Timeout: time.Duration(cfg.ProviderTimeout) * time.Second},
		// Nominatim usage policy asks for at most one request per second.
		freeLimiter: rate.NewLimiter(rate.Every(time.Second), 1),
	}
}

// NormalizeLocation appends the country suffix to bare 5-digit zip codes,
// which are ambiguous internationally.
func NormalizeLocation(location string) string {
	location = strings.TrimSpace(location)
	if len(location) == 5 && isDigits(location) {
		return location + ", USA"
	}
	return location
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Geocode resolves a location string to coordinates. Not-found is an ordinary
// result, not an error: provider failures are logged and collapse into the
// both-failed outcome.
func (g *Geocoder) Geocode(ctx context.Context, location string) (geo.Point, bool) {
	location = NormalizeLocation(location)
	if location == "" {
		return geo.Point{}, false
	}

	cacheKey := "geo:fwd:" + strings.ToLower(location)
	if !g.cacheDisabled {
		if b, ok := utils.CacheGetBytes(cacheKey); ok {
			var p geo.Point
			if err := json.Unmarshal(b, &p); err == nil {
				return p, true
			}
		}
	}

	if g.apiKey != "" {
		if p, err := g.geocodeGoogle(ctx, location); err == nil {
			g.cachePoint(cacheKey, p)
			return p, true
		} else if utils.Sugar != nil {
			utils.Sugar.Warnf("primary geocoder failed for %q: %v", location, err)
		}
	}

	if p, err := g.geocodeNominatim(ctx, location); err == nil {
		g.cachePoint(cacheKey, p)
		return p, true
	} else if utils.Sugar != nil {
		utils.Sugar.Warnf("fallback geocoder failed for %q: %v", location, err)
	}

	return geo.Point{}, false
}

func (g *Geocoder) cachePoint(key string, p geo.Point) {
	if g.cacheDisabled {
		return
	}
	utils.CacheSetJSON(key, p, geocodeCacheTTL)
}

func (g *Geocoder) geocodeGoogle(ctx context.Context, location string) (geo.Point, error) {
	q := url.Values{}
	q.Set("address", location)
	q.Set("key", g.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.geocodeURL+"?"+q.Encode(), nil)
	if err != nil {
		return geo.Point{}, err
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return geo.Point{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return geo.Point{}, fmt.Errorf("geocode: unexpected http status %d", resp.StatusCode)
	}

	var body struct {
		Status  string `json:"status"`
		Results []struct {
			Geometry struct {
				Location struct {
					Lat float64 `json:"lat"`
					Lng float64 `json:"lng"`
				} `json:"location"`
			} `json:"geometry"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return geo.Point{}, err
	}
	if body.Status != "OK" || len(body.Results) == 0 {
		return geo.Point{}, fmt.Errorf("geocode: status %q with %d results", body.Status, len(body.Results))
	}

	loc := body.Results[0].Geometry.Location
	return geo.Point{Lat: loc.Lat, Lon: loc.Lng}, nil
}

func (g *Geocoder) geocodeNominatim(ctx context.Context, location string) (geo.Point, error) {
	if err := g.freeLimiter.Wait(ctx); err != nil {
		return geo.Point{}, err
	}

	q := url.Values{}
	q.Set("q", location)
	q.Set("format", "json")
	q.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.nominatimURL+"/search?"+q.Encode(), nil)
	if err != nil {
		return geo.Point{}, err
	}
	req.Header.Set("User-Agent", g.userAgent)

	resp, err := g.client.Do(req)
	if err != nil {
		return geo.Point{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return geo.Point{}, fmt.Errorf("nominatim: unexpected http status %d", resp.StatusCode)
	}

	var body []struct {
		Lat string `json:"lat"`
		Lon string `json:"lon"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return geo.Point{}, err
	}
	if len(body) == 0 {
		return geo.Point{}, fmt.Errorf("nominatim: no results")
	}

	lat, err := strconv.ParseFloat(body[0].Lat, 64)
	if err != nil {
		return geo.Point{}, fmt.Errorf("nominatim: bad latitude %q", body[0].Lat)
	}
	lon, err := strconv.ParseFloat(body[0].Lon, 64)
	if err != nil {
		return geo.Point{}, fmt.Errorf("nominatim: bad longitude %q", body[0].Lon)
	}
	return geo.Point{Lat: lat, Lon: lon}, nil
}

// Place is the reverse-geocoding result.
type Place struct {
	Road  string `json:"road"`
	City  string `json:"city"`
	State string `json:"state"`
}

// Reverse resolves coordinates to a road/city/state via the free provider.
func (g *Geocoder) Reverse(ctx context.Context, lat, lon float64) (Place, bool) {
	if err := g.freeLimiter.Wait(ctx); err != nil {
		return Place{}, false
	}

	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.nominatimURL+"/reverse?"+q.Encode(), nil)
	if err != nil {
		return Place{}, false
	}
	req.Header.Set("User-Agent", g.userAgent)

	resp, err := g.client.Do(req)
	if err != nil {
		if utils.Sugar != nil {
			utils.Sugar.Warnf("reverse geocode failed for %f,%f: %v", lat, lon, err)
		}
		return Place{}, false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Place{}, false
	}

	var body struct {
		Address struct {
			Road    string `json:"road"`
			City    string `json:"city"`
			Town    string `json:"town"`
			Village string `json:"village"`
			State   string `json:"state"`
		} `json:"address"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Place{}, false
	}

	city := body.Address.City
	if city == "" {
		city = body.Address.Town
	}
	if city == "" {
		city = body.Address.Village
	}
	return Place{Road: body.Address.Road, City: city, State: body.Address.State}, true
}
