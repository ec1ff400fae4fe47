package models

import "time"

// Product is one affiliate listing belonging to exactly one collection.
//
// SequenceNumber is the per-collection display-order integer shown to
// visitors as "#N". It is distinct from the database ID, which is never
// reassigned once a row exists; only the sequence number is resequenced
// after deletes and imports.
type Product struct {
	ID             uint      `gorm:"primarykey" json:"id"`
	CollectionID   string    `gorm:"not null;index" json:"collection_id"`
	Name           string    `gorm:"not null" json:"name"`
	Description    string    `json:"description"`
	Price          float64   `gorm:"default:0" json:"price"`
	AffiliateLink  string    `gorm:"not null" json:"affiliate_link"`
	ImageURL       string    `json:"image_url"`
	Category       string    `gorm:"default:Uncategorized" json:"category"`
	Badge          string    `json:"badge"`
	Clicks         uint      `gorm:"default:0" json:"clicks"`
	SequenceNumber int       `gorm:"not null;index" json:"sequence_number"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
