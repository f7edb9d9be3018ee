package models

import "time"

// Plate is a dish posted by a user at a restaurant.
type Plate struct {
	ID           uint        `gorm:"primaryKey" json:"id"`
	UserID       uint        `gorm:"index;not null" json:"user_id"`
	RestaurantID uint        `gorm:"index;not null" json:"restaurant_id"`
	CategoryID   *uint       `gorm:"index" json:"category_id"`
	Name         string      `gorm:"size:120;not null" json:"name"`
	Description  string      `gorm:"type:text" json:"description"`
	ImageURL     string      `gorm:"size:255" json:"image_url,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
	User         User        `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"author"`
	Restaurant   Restaurant  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"restaurant"`
	Category     *Category   `json:"category,omitempty"`
	Comments     []Comment   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"comments,omitempty"`
	Interactions []UserPlate `json:"-"`
}
