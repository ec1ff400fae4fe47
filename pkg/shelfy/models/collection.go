package models

import "time"

// Collection is a named bucket of products shown at a distinct site path.
// The ID is a string (usually the slug) so collections keep stable,
// human-readable identifiers like "home" or "promo".
type Collection struct {
	ID          string    `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"not null" json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	Theme       string    `gorm:"default:blue" json:"theme"`
	IsDefault   bool      `gorm:"default:false" json:"is_default"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Relationships
	Products []Product `gorm:"foreignKey:CollectionID" json:"products"`
}
