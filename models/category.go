package models

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Category is a named cuisine tag referenced by plates.
type Category struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:50;uniqueIndex;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	Plates    []Plate   `json:"-"`
}

// DefaultCategories are seeded at startup when the table is empty.
var DefaultCategories = []string{"Mexican", "Italian", "Japanese", "American", "Indian", "Thai", "Other"}

// SeedCategories inserts the default categories, skipping names that already
// exist so restarts are idempotent.
func SeedCategories(db *gorm.DB) error {
	rows := make([]Category, 0, len(DefaultCategories))
	for _, name := range DefaultCategories {
		rows = append(rows, Category{Name: name})
	}
	return db.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
}
