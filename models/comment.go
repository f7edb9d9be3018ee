package models

import "time"

// Comment is free text attached to a plate by a user.
type Comment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PlateID   uint      `gorm:"index;not null" json:"plate_id"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	User      User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"author"`
}
