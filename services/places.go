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

	"gorm.io/gorm"

	"github.com/ktwom22/plater8te/config"
	"github.com/ktwom22/plater8te/geo"
	"github.com/ktwom22/plater8te/models"
)

// NearbyRestaurant is the strategy-independent result shape for nearby
// searches; callers cannot tell which provider produced it.
type NearbyRestaurant struct {
	Name      string  `json:"name"`
	Address   string  `json:"address"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Website   string  `json:"website,omitempty"`
}

// NearbyProvider finds restaurants around a center point. Implementations
// must fail loudly: an upstream error yields zero restaurants plus the error,
// never a silent substitute from another source.
type NearbyProvider interface {
	Nearby(ctx context.Context, center geo.Point, radiusMeters float64) ([]NearbyRestaurant, error)
}

// excludedChain reports whether name matches the configured low-value chain
// list via case-insensitive substring match.
func excludedChain(name string, exclude []string) bool {
	lower := strings.ToLower(name)
	for _, chain := range exclude {
		if chain == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(chain)) {
			return true
		}
	}
	return false
}

// PlacesProvider queries the Google Places nearby-search API, following all
// result pages and optionally fetching per-place details for websites.
type PlacesProvider struct {
	apiKey       string
	baseURL      string
	client       *http.Client
	exclude      []string
	fetchDetails bool
	// pageDelay is the wait before fetching a next_page_token page; tokens
	// take a moment to propagate server-side.
	pageDelay time.Duration
}

// NewPlacesProvider builds the external strategy from configuration.
func NewPlacesProvider(cfg config.AppConfig) *PlacesProvider {
	return &PlacesProvider{
		apiKey:       cfg.GoogleAPIKey,
		baseURL:      cfg.PlacesBaseURL,
		client:       &http.Client{Timeout: time.Duration(cfg.ProviderTimeout) * time.Second},
		exclude:      cfg.ChainExcludeList,
		fetchDetails: true,
		pageDelay:    2 * time.Second,
	}
}

type placesPage struct {
	Status        string `json:"status"`
	NextPageToken string `json:"next_page_token"`
	Results       []struct {
		PlaceID  string `json:"place_id"`
		Name     string `json:"name"`
		Vicinity string `json:"vicinity"`
		Geometry struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

// Nearby pages through the nearby-search endpoint until the provider stops
// returning a pagination token.
func (p *PlacesProvider) Nearby(ctx context.Context, center geo.Point, radiusMeters float64) ([]NearbyRestaurant, error) {
	var out []NearbyRestaurant
	pageToken := ""

	for {
		page, err := p.fetchPage(ctx, center, radiusMeters, pageToken)
		if err != nil {
			return nil, err
		}

		for _, r := range page.Results {
			if excludedChain(r.Name, p.exclude) {
				continue
			}
			item := NearbyRestaurant{
				Name:      r.Name,
				Address:   r.Vicinity,
				Latitude:  r.Geometry.Location.Lat,
				Longitude: r.Geometry.Location.Lng,
			}
			if p.fetchDetails && r.PlaceID != "" {
				// Best effort; a failed details lookup does not fail the search.
				if website, err := p.placeWebsite(ctx, r.PlaceID); err == nil {
					item.Website = website
				}
			}
			out = append(out, item)
		}

		if page.NextPageToken == "" {
			break
		}
		pageToken = page.NextPageToken

		// The token is not valid immediately after being issued.
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(p.pageDelay):
		}
	}

	return out, nil
}

func (p *PlacesProvider) fetchPage(ctx context.Context, center geo.Point, radiusMeters float64, pageToken string) (*placesPage, error) {
	q := url.Values{}
	q.Set("location", fmt.Sprintf("%f,%f", center.Lat, center.Lon))
	q.Set("radius", strconv.Itoa(int(radiusMeters)))
	q.Set("type", "restaurant")
	q.Set("key", p.apiKey)
	if pageToken != "" {
		q.Set("pagetoken", pageToken)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/nearbysearch/json?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("places: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("places: unexpected http status %d", resp.StatusCode)
	}

	var page placesPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("places: decode response: %w", err)
	}
	if page.Status != "OK" && page.Status != "ZERO_RESULTS" {
		return nil, fmt.Errorf("places: provider status %q", page.Status)
	}
	return &page, nil
}

func (p *PlacesProvider) placeWebsite(ctx context.Context, placeID string) (string, error) {
	q := url.Values{}
	q.Set("place_id", placeID)
	q.Set("fields", "website")
	q.Set("key", p.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/details/json?"+q.Encode(), nil)
	if err != nil {
		return "", err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("places details: unexpected http status %d", resp.StatusCode)
	}

	var body struct {
		Status string `json:"status"`
		Result struct {
			Website string `json:"website"`
		} `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", err
	}
	if body.Status != "OK" {
		return "", fmt.Errorf("places details: provider status %q", body.Status)
	}
	return body.Result.Website, nil
}

// LocalProvider scans user-submitted restaurant rows: a bounding-box SQL
// pre-filter narrows the candidate set, then the exact haversine formula and
// the same chain exclusion apply.
type LocalProvider struct {
	db      *gorm.DB
	exclude []string
}

// NewLocalProvider builds the local-store strategy.
func NewLocalProvider(db *gorm.DB, cfg config.AppConfig) *LocalProvider {
	return &LocalProvider{db: db, exclude: cfg.ChainExcludeList}
}

// Nearby returns in-range rows with coordinates. Rows missing either
// coordinate never reach candidacy.
func (l *LocalProvider) Nearby(ctx context.Context, center geo.Point, radiusMeters float64) ([]NearbyRestaurant, error) {
	radiusMiles := geo.MilesFromMeters(radiusMeters)
	box := geo.NewBoundingBox(center, radiusMiles)

	var rows []models.Restaurant
	err := l.db.WithContext(ctx).
		Where("latitude IS NOT NULL AND longitude IS NOT NULL").
		Where("latitude BETWEEN ? AND ?", box.MinLat, box.MaxLat).
		Where("longitude BETWEEN ? AND ?", box.MinLon, box.MaxLon).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("local nearby query: %w", err)
	}

	return FilterRestaurants(rows, center, radiusMiles, l.exclude), nil
}

// FilterRestaurants applies the exact distance filter and chain exclusion to
// candidate rows. Split out so the arithmetic is testable without a store.
func FilterRestaurants(rows []models.Restaurant, center geo.Point, radiusMiles float64, exclude []string) []NearbyRestaurant {
	out := []NearbyRestaurant{}
	for i := range rows {
		r := &rows[i]
		if !geo.WithinRadius(center, radiusMiles, r) {
			continue
		}
		if excludedChain(r.Name, exclude) {
			continue
		}
		out = append(out, NearbyRestaurant{
			Name:      r.Name,
			Address:   r.Address,
			Latitude:  *r.Latitude,
			Longitude: *r.Longitude,
			Website:   r.Website,
		})
	}
	return out
}

// NewNearbyProvider selects the strategy: the external provider when a key is
// configured, otherwise the local store.
func NewNearbyProvider(db *gorm.DB, cfg config.AppConfig) NearbyProvider {
	if cfg.GoogleAPIKey != "" {
		return NewPlacesProvider(cfg)
	}
	return NewLocalProvider(db, cfg)
}
