package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToggleLikeRoundTrip(t *testing.T) {
	up := UserPlate{}
	assert.True(t, up.ToggleLike())
	assert.False(t, up.ToggleLike())
	assert.False(t, up.Liked)
}

func TestToggleFavoriteIndependentOfLike(t *testing.T) {
	up := UserPlate{Liked: true}
	assert.True(t, up.ToggleFavorite())
	assert.True(t, up.Liked)
	assert.True(t, up.Favorite)
}

func TestSetRatingValidation(t *testing.T) {
	up := UserPlate{}
	assert.ErrorIs(t, up.SetRating(0, ""), ErrRatingOutOfRange)
	assert.ErrorIs(t, up.SetRating(6, ""), ErrRatingOutOfRange)
	assert.Equal(t, RatingUnrated, up.Rated)
	assert.False(t, up.HasRating())

	assert.NoError(t, up.SetRating(5, "worth the drive"))
	assert.Equal(t, 5, up.Rated)
	assert.Equal(t, "worth the drive", up.Review)
	assert.True(t, up.HasRating())
}
