package models

import "time"

// Restaurant is a user-submitted venue. Coordinates are either both set or
// both nil; rows that were never geocoded keep nil and are skipped by the
// distance filter.
type Restaurant struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:120;not null;index" json:"name"`
	Address   string    `gorm:"size:200" json:"address"`
	Website   string    `gorm:"size:200" json:"website,omitempty"`
	Latitude  *float64  `gorm:"index" json:"latitude"`
	Longitude *float64  `gorm:"index" json:"longitude"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Plates    []Plate   `json:"-"`
}

// HasCoordinates reports whether the row can participate in distance queries.
func (r *Restaurant) HasCoordinates() bool {
	return r.Latitude != nil && r.Longitude != nil
}

// Coordinates satisfies the distance filter's Located interface.
func (r *Restaurant) Coordinates() (float64, float64, bool) {
	if !r.HasCoordinates() {
		return 0, 0, false
	}
	return *r.Latitude, *r.Longitude, true
}
