package controllers

import (
	"errors"
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

// PlateController manages the feed and all plate interactions.
type PlateController struct {
	db       *gorm.DB
	feed     *services.FeedService
	geocoder *services.Geocoder
}

// NewPlateController creates a new PlateController instance.
func NewPlateController(db *gorm.DB, feed *services.FeedService, geocoder *services.Geocoder) *PlateController {
	return &PlateController{db: db, feed: feed, geocoder: geocoder}
}

// parseFeedQuery builds a feed query from request parameters. The location
// text is geocoded only when explicit coordinates are absent.
func (p *PlateController) parseFeedQuery(ctx *gin.Context) (services.FeedQuery, bool) {
	q := services.FeedQuery{ViewerID: getViewerID(ctx)}

	if raw := strings.TrimSpace(ctx.Query("category")); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			utils.Error(ctx, http.StatusBadRequest, 40030, "invalid category id")
			return q, false
		}
		cid := uint(id)
		q.CategoryID = &cid
	}

	radius := config.Get().FeedRadiusMiles
	if raw := strings.TrimSpace(ctx.Query("radius")); raw != "" {
		r, err := strconv.ParseFloat(raw, 64)
		if err != nil || r < 0 {
			utils.Error(ctx, http.StatusBadRequest, 40031, "invalid radius")
			return q, false
		}
		radius = r
	}

	latRaw := strings.TrimSpace(ctx.Query("lat"))
	lonRaw := strings.TrimSpace(ctx.Query("lon"))
	if latRaw != "" && lonRaw != "" {
		lat, errLat := strconv.ParseFloat(latRaw, 64)
		lon, errLon := strconv.ParseFloat(lonRaw, 64)
		if errLat != nil || errLon != nil {
			utils.Error(ctx, http.StatusBadRequest, 40032, "invalid coordinates")
			return q, false
		}
		q.Center = &geo.Point{Lat: lat, Lon: lon}
		q.RadiusMiles = radius
		return q, true
	}

	if location := strings.TrimSpace(ctx.Query("location")); location != "" {
		point, found := p.geocoder.Geocode(ctx.Request.Context(), location)
		if !found {
			utils.Error(ctx, http.StatusBadRequest, 40033, "location not found")
			return q, false
		}
		q.Center = &point
		q.RadiusMiles = radius
	}
	return q, true
}

// Feed returns plates newest-first with rating/like annotations; anonymous
// viewers get no per-viewer flags.
func (p *PlateController) Feed(ctx *gin.Context) {
	q, ok := p.parseFeedQuery(ctx)
	if !ok {
		return
	}

	items, err := p.feed.List(ctx.Request.Context(), q)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50030, "failed to load feed")
		return
	}
	utils.Success(ctx, gin.H{"plates": items, "count": len(items)})
}

// MyPlates is the feed restricted to the signed-in viewer, optionally
// narrowed to plates they have not rated yet via unrated=1.
func (p *PlateController) MyPlates(ctx *gin.Context) {
	if _, ok := getUserID(ctx); !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	q, ok := p.parseFeedQuery(ctx)
	if !ok {
		return
	}
	q.UnratedOnly = ctx.Query("unrated") == "1"

	items, err := p.feed.List(ctx.Request.Context(), q)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50031, "failed to load plates")
		return
	}
	utils.Success(ctx, gin.H{"plates": items, "count": len(items)})
}

// Favorites lists the viewer's favorited plates.
func (p *PlateController) Favorites(ctx *gin.Context) {
	if _, ok := getUserID(ctx); !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	q := services.FeedQuery{ViewerID: getViewerID(ctx), FavoritesOnly: true}
	items, err := p.feed.List(ctx.Request.Context(), q)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50032, "failed to load favorites")
		return
	}
	utils.Success(ctx, gin.H{"plates": items, "count": len(items)})
}

// CreatePlateForm returns the data needed to render the create-plate form.
func (p *PlateController) CreatePlateForm(ctx *gin.Context) {
	var categories []models.Category
	if err := p.db.Order("name").Find(&categories).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50033, "failed to load categories")
		return
	}
	utils.Success(ctx, gin.H{"categories": categories})
}

// CreatePlate accepts a multipart form with plate fields, restaurant fields
// and an optional image. The restaurant is reused when an exact
// (name, lat, lon) match exists.
func (p *PlateController) CreatePlate(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	name := utils.Sanitize(strings.TrimSpace(ctx.PostForm("name")))
	description := utils.Sanitize(ctx.PostForm("description"))
	restaurantName := strings.TrimSpace(ctx.PostForm("restaurant_name"))
	restaurantAddress := strings.TrimSpace(ctx.PostForm("restaurant_address"))
	latRaw := strings.TrimSpace(ctx.PostForm("restaurant_latitude"))
	lonRaw := strings.TrimSpace(ctx.PostForm("restaurant_longitude"))

	if name == "" || restaurantName == "" || latRaw == "" || lonRaw == "" {
		utils.Error(ctx, http.StatusBadRequest, 40034, "name, restaurant name and coordinates are required")
		return
	}

	lat, errLat := strconv.ParseFloat(latRaw, 64)
	lon, errLon := strconv.ParseFloat(lonRaw, 64)
	if errLat != nil || errLon != nil {
		utils.Error(ctx, http.StatusBadRequest, 40032, "invalid coordinates")
		return
	}

	var categoryID *uint
	if raw := strings.TrimSpace(ctx.PostForm("category_id")); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			utils.Error(ctx, http.StatusBadRequest, 40030, "invalid category id")
			return
		}
		var category models.Category
		if err := p.db.First(&category, uint(id)).Error; err != nil {
			utils.Error(ctx, http.StatusBadRequest, 40035, "unknown category")
			return
		}
		cid := uint(id)
		categoryID = &cid
	}

	imageURL := ""
	if file, err := ctx.FormFile("image"); err == nil {
		imageURL, err = utils.SaveUploadedImage(ctx, file)
		if err != nil {
			if errors.Is(err, utils.ErrUnsupportedImageType) {
				utils.Error(ctx, http.StatusBadRequest, 40036, "image must be png, jpg, jpeg or gif")
				return
			}
			if errors.Is(err, utils.ErrImageTooLarge) {
				utils.Error(ctx, http.StatusBadRequest, 40040, "image too large")
				return
			}
			utils.Error(ctx, http.StatusInternalServerError, 50034, "failed to store image")
			return
		}
	}

	var plate models.Plate
	err := p.db.Transaction(func(tx *gorm.DB) error {
		restaurant, err := findOrCreateRestaurant(tx, restaurantName, restaurantAddress, lat, lon)
		if err != nil {
			return err
		}
		plate = models.Plate{
			UserID:       userID,
			RestaurantID: restaurant.ID,
			CategoryID:   categoryID,
			Name:         name,
			Description:  description,
			ImageURL:     imageURL,
		}
		return tx.Create(&plate).Error
	})
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50035, "failed to create plate")
		return
	}

	if err := p.db.Preload("User").Preload("Restaurant").Preload("Category").First(&plate, plate.ID).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50036, "failed to load plate")
		return
	}

	utils.InvalidateByPrefix(services.FeedCachePrefix)
	utils.Success(ctx, gin.H{"plate": plate})
}

// findOrCreateRestaurant reuses a row matching (name, lat, lon) exactly.
// Coordinates that differ by even a fractional degree create a new row; see
// DESIGN.md for the dedup open question.
func findOrCreateRestaurant(tx *gorm.DB, name, address string, lat, lon float64) (*models.Restaurant, error) {
	var restaurant models.Restaurant
	err := tx.Where("name = ? AND latitude = ? AND longitude = ?", name, lat, lon).First(&restaurant).Error
	if err == nil {
		return &restaurant, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	restaurant = models.Restaurant{
		Name:      name,
		Address:   address,
		Latitude:  &lat,
		Longitude: &lon,
	}
	if err := tx.Create(&restaurant).Error; err != nil {
		return nil, err
	}
	return &restaurant, nil
}

// loadPlate fetches the referenced plate or writes the 404.
func (p *PlateController) loadPlate(ctx *gin.Context) (*models.Plate, bool) {
	var plate models.Plate
	if err := p.db.First(&plate, ctx.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40401, "plate not found")
			return nil, false
		}
		utils.Error(ctx, http.StatusInternalServerError, 50037, "failed to load plate")
		return nil, false
	}
	return &plate, true
}

// toggleInteraction flips one flag on the (user, plate) interaction row
// inside a transaction. The unique index turns a create race into a
// conflict, which is retried as an update; either final state is legitimate.
func (p *PlateController) toggleInteraction(userID, plateID uint, flip func(*models.UserPlate) bool) (bool, error) {
	var state bool
	err := p.db.Transaction(func(tx *gorm.DB) error {
		var up models.UserPlate
		err := tx.Where("user_id = ? AND plate_id = ?", userID, plateID).First(&up).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			up = models.UserPlate{UserID: userID, PlateID: plateID}
			state = flip(&up)
			if createErr := tx.Create(&up).Error; createErr != nil {
				// Lost the create race; reload and apply as an update.
				if err := tx.Where("user_id = ? AND plate_id = ?", userID, plateID).First(&up).Error; err != nil {
					return createErr
				}
				state = flip(&up)
				return tx.Save(&up).Error
			}
			return nil
		}
		if err != nil {
			return err
		}
		state = flip(&up)
		return tx.Save(&up).Error
	})
	return state, err
}

// Like toggles the viewer's like and reports the new like count.
func (p *PlateController) Like(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	plate, ok := p.loadPlate(ctx)
	if !ok {
		return
	}

	liked, err := p.toggleInteraction(userID, plate.ID, (*models.UserPlate).ToggleLike)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50038, "failed to toggle like")
		return
	}

	var likeCount int64
	if err := p.db.Model(&models.UserPlate{}).
		Where("plate_id = ? AND liked = ?", plate.ID, true).
		Count(&likeCount).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50039, "failed to count likes")
		return
	}

	utils.InvalidateByPrefix(services.FeedCachePrefix)
	utils.Success(ctx, gin.H{"liked": liked, "like_count": likeCount})
}

// Favorite toggles the viewer's favorite flag.
func (p *PlateController) Favorite(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	plate, ok := p.loadPlate(ctx)
	if !ok {
		return
	}

	favorited, err := p.toggleInteraction(userID, plate.ID, (*models.UserPlate).ToggleFavorite)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50040, "failed to toggle favorite")
		return
	}

	utils.Success(ctx, gin.H{"favorited": favorited})
}

// Comment attaches free text to a plate and echoes the created comment.
func (p *PlateController) Comment(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	var req struct {
		Text string `json:"text" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40037, "invalid request payload")
		return
	}
	text := utils.Sanitize(strings.TrimSpace(req.Text))
	if text == "" {
		utils.Error(ctx, http.StatusBadRequest, 40038, "comment cannot be empty")
		return
	}

	plate, ok := p.loadPlate(ctx)
	if !ok {
		return
	}

	comment := models.Comment{PlateID: plate.ID, UserID: userID, Text: text}
	if err := p.db.Create(&comment).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50041, "failed to create comment")
		return
	}
	if err := p.db.Preload("User").First(&comment, comment.ID).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50042, "failed to load comment")
		return
	}

	utils.Success(ctx, gin.H{"comment": comment})
}

// GetRating returns the viewer's interaction row for a plate, so the rating
// form can show current state.
func (p *PlateController) GetRating(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	plate, ok := p.loadPlate(ctx)
	if !ok {
		return
	}

	var up models.UserPlate
	err := p.db.Where("user_id = ? AND plate_id = ?", userID, plate.ID).First(&up).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		up = models.UserPlate{UserID: userID, PlateID: plate.ID}
	} else if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50043, "failed to load rating")
		return
	}

	utils.Success(ctx, gin.H{"plate_id": plate.ID, "rated": up.Rated, "review": up.Review})
}

// RatePlate records the viewer's 1-5 rating and optional review.
func (p *PlateController) RatePlate(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	var req struct {
		Rating int    `json:"rating" binding:"required"`
		Review string `json:"review"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40039, "invalid request payload")
		return
	}

	plate, ok := p.loadPlate(ctx)
	if !ok {
		return
	}

	review := utils.Sanitize(strings.TrimSpace(req.Review))
	err := p.db.Transaction(func(tx *gorm.DB) error {
		var up models.UserPlate
		err := tx.Where("user_id = ? AND plate_id = ?", userID, plate.ID).First(&up).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			up = models.UserPlate{UserID: userID, PlateID: plate.ID}
			if err := up.SetRating(req.Rating, review); err != nil {
				return err
			}
			return tx.Create(&up).Error
		}
		if err != nil {
			return err
		}
		if err := up.SetRating(req.Rating, review); err != nil {
			return err
		}
		return tx.Save(&up).Error
	})
	if err != nil {
		if errors.Is(err, models.ErrRatingOutOfRange) {
			utils.Error(ctx, http.StatusBadRequest, 40043, "rating must be between 1 and 5")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50044, "failed to save rating")
		return
	}

	utils.InvalidateByPrefix(services.FeedCachePrefix)
	utils.Success(ctx, gin.H{"plate_id": plate.ID, "rated": req.Rating, "review": review})
}
