package models

import (
	"errors"
	"time"
)

// RatingUnrated marks an interaction whose owner has not rated the plate yet.
// The historical NULL representation is treated as a migration concern; zero
// is canonical.
const RatingUnrated = 0

// ErrRatingOutOfRange is returned when a rating outside 1..5 reaches SetRating.
var ErrRatingOutOfRange = errors.New("rating must be between 1 and 5")

// UserPlate consolidates like, favorite and rating state for one (user, plate)
// pair. The unique index turns a concurrent double-insert into a well-defined
// conflict instead of duplicate rows; rows are updated after creation, never
// deleted.
type UserPlate struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"uniqueIndex:idx_user_plate;not null" json:"user_id"`
	PlateID   uint      `gorm:"uniqueIndex:idx_user_plate;not null" json:"plate_id"`
	Liked     bool      `gorm:"not null;default:false" json:"liked"`
	Favorite  bool      `gorm:"not null;default:false" json:"favorite"`
	Rated     int       `gorm:"not null;default:0" json:"rated"`
	Review    string    `gorm:"type:text" json:"review"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ToggleLike flips the liked flag and returns the new state.
func (up *UserPlate) ToggleLike() bool {
	up.Liked = !up.Liked
	return up.Liked
}

// ToggleFavorite flips the favorite flag and returns the new state.
func (up *UserPlate) ToggleFavorite() bool {
	up.Favorite = !up.Favorite
	return up.Favorite
}

// SetRating records a rating on the 1..5 scale with an optional review.
func (up *UserPlate) SetRating(rating int, review string) error {
	if rating < 1 || rating > 5 {
		return ErrRatingOutOfRange
	}
	up.Rated = rating
	up.Review = review
	return nil
}

// HasRating reports whether the owner rated the plate.
func (up *UserPlate) HasRating() bool {
	return up.Rated > RatingUnrated
}
