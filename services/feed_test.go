package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ktwom22/plater8te/geo"
	"github.com/ktwom22/plater8te/models"
)

func TestAnnotateAggregates(t *testing.T) {
	plates := []models.Plate{
		{ID: 1, Name: "Birria Tacos"},
		{ID: 2, Name: "Cacio e Pepe"},
	}
	interactions := []models.UserPlate{
		{UserID: 10, PlateID: 1, Liked: true, Rated: 3},
		{UserID: 11, PlateID: 1, Liked: true, Rated: 5},
		{UserID: 12, PlateID: 1, Liked: false, Rated: models.RatingUnrated},
	}

	items := Annotate(plates, interactions, nil)
	require.Len(t, items, 2)

	// Ratings of 3 and 5 average to 4; the unrated row does not count.
	require.NotNil(t, items[0].AvgRating)
	assert.InDelta(t, 4.0, *items[0].AvgRating, 1e-9)
	assert.Equal(t, int64(2), items[0].LikeCount)

	// A plate nobody rated reports nil, never zero stars.
	assert.Nil(t, items[1].AvgRating)
	assert.Equal(t, int64(0), items[1].LikeCount)

	// Anonymous viewers get no per-viewer flags.
	assert.Nil(t, items[0].ViewerLiked)
	assert.Nil(t, items[0].ViewerFavorited)
}

func TestAnnotateViewerFlags(t *testing.T) {
	plates := []models.Plate{{ID: 1}, {ID: 2}}
	interactions := []models.UserPlate{
		{UserID: 10, PlateID: 1, Liked: true, Favorite: false},
		{UserID: 11, PlateID: 1, Liked: true, Favorite: true},
	}

	viewer := uint(11)
	items := Annotate(plates, interactions, &viewer)
	require.Len(t, items, 2)

	require.NotNil(t, items[0].ViewerLiked)
	assert.True(t, *items[0].ViewerLiked)
	require.NotNil(t, items[0].ViewerFavorited)
	assert.True(t, *items[0].ViewerFavorited)

	// No interaction row for the viewer still yields explicit false flags.
	require.NotNil(t, items[1].ViewerLiked)
	assert.False(t, *items[1].ViewerLiked)
	require.NotNil(t, items[1].ViewerFavorited)
	assert.False(t, *items[1].ViewerFavorited)
}

func TestFilterUnrated(t *testing.T) {
	viewer := uint(10)
	plates := []models.Plate{{ID: 1}, {ID: 2}, {ID: 3}}
	interactions := []models.UserPlate{
		{UserID: 10, PlateID: 1, Rated: 4},
		{UserID: 10, PlateID: 2, Rated: models.RatingUnrated, Liked: true},
		{UserID: 99, PlateID: 3, Rated: 5},
	}

	items := Annotate(plates, interactions, &viewer)
	out := filterUnrated(items, interactions, viewer)

	// Plate 1 is rated by the viewer; 2 has an unrated interaction row and 3
	// was rated by someone else. Both stay.
	require.Len(t, out, 2)
	assert.Equal(t, uint(2), out[0].ID)
	assert.Equal(t, uint(3), out[1].ID)
}

func TestFilterFavorites(t *testing.T) {
	viewer := uint(10)
	plates := []models.Plate{{ID: 1}, {ID: 2}}
	interactions := []models.UserPlate{
		{UserID: 10, PlateID: 1, Favorite: true},
		{UserID: 10, PlateID: 2, Favorite: false},
	}

	items := Annotate(plates, interactions, &viewer)
	out := filterFavorites(items)
	require.Len(t, out, 1)
	assert.Equal(t, uint(1), out[0].ID)
}

// The invalidation calls on the mutation paths target FeedCachePrefix; the
// key builder must stay under that prefix and exclude anything per-viewer.
func TestFeedCacheKey(t *testing.T) {
	key, ok := feedCacheKey(FeedQuery{})
	require.True(t, ok)
	assert.Equal(t, FeedCachePrefix+"all", key)

	cat := uint(3)
	key, ok = feedCacheKey(FeedQuery{CategoryID: &cat})
	require.True(t, ok)
	assert.Equal(t, FeedCachePrefix+"cat:3", key)

	viewer := uint(10)
	_, ok = feedCacheKey(FeedQuery{ViewerID: &viewer})
	assert.False(t, ok)

	_, ok = feedCacheKey(FeedQuery{Center: &geo.Point{Lat: 30, Lon: -97}})
	assert.False(t, ok)

	_, ok = feedCacheKey(FeedQuery{FavoritesOnly: true})
	assert.False(t, ok)

	_, ok = feedCacheKey(FeedQuery{UnratedOnly: true})
	assert.False(t, ok)
}

func TestFilterByDistance(t *testing.T) {
	center := geo.Point{Lat: 30.0, Lon: -97.0}
	items := []FeedItem{
		{Plate: models.Plate{ID: 1, Restaurant: models.Restaurant{Latitude: f(30.001), Longitude: f(-97.001)}}},
		{Plate: models.Plate{ID: 2, Restaurant: models.Restaurant{Latitude: f(31.0), Longitude: f(-97.0)}}},
		{Plate: models.Plate{ID: 3, Restaurant: models.Restaurant{}}},
	}

	out := filterByDistance(items, center, 5.0)
	require.Len(t, out, 1)
	assert.Equal(t, uint(1), out[0].ID)
}
