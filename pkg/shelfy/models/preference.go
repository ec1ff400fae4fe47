package models

import "time"

// Preference is a key/value pair with upsert semantics.
type Preference struct {
	Key       string    `gorm:"primaryKey" json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}
