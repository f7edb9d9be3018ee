package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/ktwom22/plater8te/config"
	"github.com/ktwom22/plater8te/geo"
	"github.com/ktwom22/plater8te/models"
	"github.com/ktwom22/plater8te/services"
	"github.com/ktwom22/plater8te/utils"
)

// RestaurantController serves restaurant discovery and creation.
type RestaurantController struct {
	db       *gorm.DB
	geocoder *services.Geocoder
	nearby   services.NearbyProvider
}

// NewRestaurantController creates a new RestaurantController instance.
func NewRestaurantController(db *gorm.DB, geocoder *services.Geocoder, nearby services.NearbyProvider) *RestaurantController {
	return &RestaurantController{db: db, geocoder: geocoder, nearby: nearby}
}

// Nearby returns restaurants around a point. The center comes from explicit
// lat/lon parameters or from geocoding the location text. This endpoint keeps
// its historical flat response shape rather than the standard envelope, so
// existing clients keep working.
func (r *RestaurantController) Nearby(ctx *gin.Context) {
	center, ok := r.resolveCenter(ctx)
	if !ok {
		ctx.JSON(http.StatusBadRequest, gin.H{
			"restaurants": []services.NearbyRestaurant{},
			"error":       "could not resolve a search location",
		})
		return
	}

	// radius is in meters here, unlike the feed's miles.
	radiusMeters := config.Get().NearbyRadiusMeters
	if raw := strings.TrimSpace(ctx.Query("radius")); raw != "" {
		m, err := strconv.ParseFloat(raw, 64)
		if err != nil || m <= 0 {
			ctx.JSON(http.StatusBadRequest, gin.H{
				"restaurants": []services.NearbyRestaurant{},
				"error":       "invalid radius parameter",
			})
			return
		}
		radiusMeters = m
	}

	restaurants, err := r.nearby.Nearby(ctx.Request.Context(), center, radiusMeters)
	if err != nil {
		utils.Sugar.Warnw("nearby lookup failed", "err", err, "lat", center.Lat, "lon", center.Lon)
		ctx.JSON(http.StatusInternalServerError, gin.H{
			"restaurants": []services.NearbyRestaurant{},
			"error":       "nearby search failed",
		})
		return
	}
	if restaurants == nil {
		restaurants = []services.NearbyRestaurant{}
	}

	ctx.JSON(http.StatusOK, gin.H{
		"restaurants": restaurants,
		"lat":         center.Lat,
		"lon":         center.Lon,
		"count":       len(restaurants),
	})
}

// resolveCenter picks explicit coordinates when both are present and valid,
// otherwise geocodes the location parameter.
func (r *RestaurantController) resolveCenter(ctx *gin.Context) (geo.Point, bool) {
	latRaw := strings.TrimSpace(ctx.Query("lat"))
	lonRaw := strings.TrimSpace(ctx.Query("lon"))
	if latRaw != "" && lonRaw != "" {
		lat, errLat := strconv.ParseFloat(latRaw, 64)
		lon, errLon := strconv.ParseFloat(lonRaw, 64)
		if errLat == nil && errLon == nil {
			return geo.Point{Lat: lat, Lon: lon}, true
		}
		return geo.Point{}, false
	}

	location := strings.TrimSpace(ctx.Query("location"))
	if location == "" {
		return geo.Point{}, false
	}
	return r.geocoder.Geocode(ctx.Request.Context(), location)
}

// AddRestaurant geocodes the submitted address and stores the restaurant.
// A restaurant whose address cannot be geocoded is stored without
// coordinates and simply never appears in location-filtered results.
func (r *RestaurantController) AddRestaurant(ctx *gin.Context) {
	if _, ok := getUserID(ctx); !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	var req struct {
		Name    string `json:"name" binding:"required"`
		Address string `json:"address"`
		City    string `json:"city"`
		State   string `json:"state"`
		Website string `json:"website"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40041, "restaurant name is required")
		return
	}

	address := joinAddress(req.Address, req.City, req.State)
	restaurant := models.Restaurant{
		Name:    strings.TrimSpace(req.Name),
		Address: address,
		Website: strings.TrimSpace(req.Website),
	}
	if address != "" {
		if point, found := r.geocoder.Geocode(ctx.Request.Context(), address); found {
			restaurant.Latitude = &point.Lat
			restaurant.Longitude = &point.Lon
		}
	}

	if err := r.db.Create(&restaurant).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50045, "failed to create restaurant")
		return
	}
	utils.Success(ctx, gin.H{"restaurant": restaurant})
}

// joinAddress concatenates the non-empty address parts with commas, the same
// string handed to the geocoder.
func joinAddress(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, ", ")
}

// ReverseGeocode maps coordinates back to a street/city/state triple for
// form prefill.
func (r *RestaurantController) ReverseGeocode(ctx *gin.Context) {
	lat, errLat := strconv.ParseFloat(strings.TrimSpace(ctx.Query("lat")), 64)
	lon, errLon := strconv.ParseFloat(strings.TrimSpace(ctx.Query("lon")), 64)
	if errLat != nil || errLon != nil {
		utils.Error(ctx, http.StatusBadRequest, 40032, "invalid coordinates")
		return
	}

	place, found := r.geocoder.Reverse(ctx.Request.Context(), lat, lon)
	if !found {
		utils.Error(ctx, http.StatusNotFound, 40402, "no address at these coordinates")
		return
	}
	utils.Success(ctx, gin.H{"road": place.Road, "city": place.City, "state": place.State})
}
