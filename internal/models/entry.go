package models

import "time"

// Entry is one key-value row. The whole record collection lives in a single
// Entry as a JSON array.
type Entry struct {
	Key       string `gorm:"primaryKey;size:128"`
	Value     string `gorm:"type:longtext"`
	UpdatedAt time.Time
}
