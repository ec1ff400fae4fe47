package models

import "time"

// ClickEvent is an immutable fact: which product was clicked, in which
// collection, and when. Date is the calendar day ("2006-01-02") and Hour
// the local hour of day, both captured server-side at insert time.
type ClickEvent struct {
	ID           uint      `gorm:"primarykey" json:"id"`
	ProductID    uint      `gorm:"not null;index" json:"product_id"`
	CollectionID string    `gorm:"not null;index" json:"collection_id"`
	Date         string    `gorm:"not null" json:"date"`
	Hour         int       `json:"hour"`
	CreatedAt    time.Time `json:"created_at"`
}

// CollectionView is an immutable fact: which collection was viewed and when.
type CollectionView struct {
	ID           uint      `gorm:"primarykey" json:"id"`
	CollectionID string    `gorm:"not null;index" json:"collection_id"`
	Date         string    `gorm:"not null" json:"date"`
	Hour         int       `json:"hour"`
	CreatedAt    time.Time `json:"created_at"`
}

// PageView is a single monotonically increasing counter with no dimensions.
// Exactly one row (ID 1) exists; it is seeded at startup.
type PageView struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	Count     uint64    `gorm:"default:0" json:"count"`
	UpdatedAt time.Time `json:"updated_at"`
}
