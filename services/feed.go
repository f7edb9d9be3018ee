package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/ktwom22/plater8te/geo"
	"github.com/ktwom22/plater8te/models"
	"github.com/ktwom22/plater8te/utils"
)

// FeedCachePrefix keys cached feed pages. Mutations that change aggregates
// (likes, ratings, new plates) invalidate everything under it.
const FeedCachePrefix = "cache:feed:"

// feedCacheTTL is short; invalidation on mutation does the real work, the
// TTL only bounds staleness when an invalidation is lost.
const feedCacheTTL = time.Minute

// FeedItem is a plate annotated with aggregate and per-viewer state.
// AvgRating is nil when no user rated the plate; an unrated plate is never
// reported as zero stars.
type FeedItem struct {
	models.Plate
	AvgRating       *float64 `json:"avg_rating"`
	LikeCount       int64    `json:"like_count"`
	ViewerLiked     *bool    `json:"viewer_liked,omitempty"`
	ViewerFavorited *bool    `json:"viewer_favorited,omitempty"`
}

// FeedQuery narrows the feed. All filters are optional; UnratedOnly requires
// a viewer.
type FeedQuery struct {
	ViewerID      *uint
	CategoryID    *uint
	Center        *geo.Point
	RadiusMiles   float64
	UnratedOnly   bool
	FavoritesOnly bool
}

// FeedService composes plates with interaction state.
type FeedService struct {
	db *gorm.DB
}

// NewFeedService returns a feed service over the given store.
func NewFeedService(db *gorm.DB) *FeedService {
	return &FeedService{db: db}
}

// feedCacheKey returns the cache key for queries whose result is shared by
// every anonymous viewer. Per-viewer state and the float-valued location
// filter make other queries poor cache entries, so they go to the store.
func feedCacheKey(q FeedQuery) (string, bool) {
	if q.ViewerID != nil || q.Center != nil || q.UnratedOnly || q.FavoritesOnly {
		return "", false
	}
	if q.CategoryID != nil {
		return fmt.Sprintf("%scat:%d", FeedCachePrefix, *q.CategoryID), true
	}
	return FeedCachePrefix + "all", true
}

// List returns plates newest-first with annotations. Category filtering
// happens in SQL before annotation; the location filter is a pure subset
// pass afterwards. Anonymous unlocated queries are served from the cache
// when possible.
func (s *FeedService) List(ctx context.Context, q FeedQuery) ([]FeedItem, error) {
	cacheKey, cacheable := feedCacheKey(q)
	if cacheable {
		if b, ok := utils.CacheGetBytes(cacheKey); ok {
			var items []FeedItem
			if err := json.Unmarshal(b, &items); err == nil {
				return items, nil
			}
		}
	}

	plateQuery := s.db.WithContext(ctx).
		Preload("User").
		Preload("Restaurant").
		Preload("Category").
		Order("created_at DESC")
	if q.CategoryID != nil {
		plateQuery = plateQuery.Where("category_id = ?", *q.CategoryID)
	}

	var plates []models.Plate
	if err := plateQuery.Find(&plates).Error; err != nil {
		return nil, err
	}
	if len(plates) == 0 {
		if cacheable {
			utils.CacheSetJSON(cacheKey, []FeedItem{}, feedCacheTTL)
		}
		return []FeedItem{}, nil
	}

	ids := make([]uint, 0, len(plates))
	for i := range plates {
		ids = append(ids, plates[i].ID)
	}

	var interactions []models.UserPlate
	if err := s.db.WithContext(ctx).Where("plate_id IN ?", ids).Find(&interactions).Error; err != nil {
		return nil, err
	}

	items := Annotate(plates, interactions, q.ViewerID)

	if q.ViewerID != nil && q.UnratedOnly {
		items = filterUnrated(items, interactions, *q.ViewerID)
	}
	if q.ViewerID != nil && q.FavoritesOnly {
		items = filterFavorites(items)
	}
	if q.Center != nil {
		items = filterByDistance(items, *q.Center, q.RadiusMiles)
	}

	if cacheable {
		utils.CacheSetJSON(cacheKey, items, feedCacheTTL)
	}
	return items, nil
}

// Annotate computes per-plate aggregates and viewer flags from loaded rows.
// Only ratings above zero count toward the average.
func Annotate(plates []models.Plate, interactions []models.UserPlate, viewerID *uint) []FeedItem {
	type agg struct {
		likes       int64
		ratingSum   int
		ratingCount int
		viewer      *models.UserPlate
	}
	aggs := make(map[uint]*agg, len(plates))
	for i := range plates {
		aggs[plates[i].ID] = &agg{}
	}

	for i := range interactions {
		up := &interactions[i]
		a, ok := aggs[up.PlateID]
		if !ok {
			continue
		}
		if up.Liked {
			a.likes++
		}
		if up.HasRating() {
			a.ratingSum += up.Rated
			a.ratingCount++
		}
		if viewerID != nil && up.UserID == *viewerID {
			a.viewer = up
		}
	}

	items := make([]FeedItem, 0, len(plates))
	for i := range plates {
		a := aggs[plates[i].ID]
		item := FeedItem{Plate: plates[i], LikeCount: a.likes}
		if a.ratingCount > 0 {
			avg := float64(a.ratingSum) / float64(a.ratingCount)
			item.AvgRating = &avg
		}
		if viewerID != nil {
			liked, favorited := false, false
			if a.viewer != nil {
				liked = a.viewer.Liked
				favorited = a.viewer.Favorite
			}
			item.ViewerLiked = &liked
			item.ViewerFavorited = &favorited
		}
		items = append(items, item)
	}
	return items
}

// filterByDistance keeps items whose restaurant lies within radiusMiles of
// center. Plates at restaurants without coordinates are excluded, not
// treated as distance zero.
func filterByDistance(items []FeedItem, center geo.Point, radiusMiles float64) []FeedItem {
	out := make([]FeedItem, 0, len(items))
	for i := range items {
		if geo.WithinRadius(center, radiusMiles, &items[i].Restaurant) {
			out = append(out, items[i])
		}
	}
	return out
}

// filterUnrated keeps plates the viewer has not rated yet, including plates
// with no interaction row at all.
func filterUnrated(items []FeedItem, interactions []models.UserPlate, viewerID uint) []FeedItem {
	rated := make(map[uint]bool)
	for i := range interactions {
		up := &interactions[i]
		if up.UserID == viewerID && up.HasRating() {
			rated[up.PlateID] = true
		}
	}
	out := make([]FeedItem, 0, len(items))
	for i := range items {
		if !rated[items[i].ID] {
			out = append(out, items[i])
		}
	}
	return out
}

func filterFavorites(items []FeedItem) []FeedItem {
	out := make([]FeedItem, 0, len(items))
	for i := range items {
		if items[i].ViewerFavorited != nil && *items[i].ViewerFavorited {
			out = append(out, items[i])
		}
	}
	return out
}
