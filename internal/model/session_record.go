package model

import "time"

// SessionRecord is the persisted form of the signed-in session.
// There is at most one row, keyed by Name.
type SessionRecord struct {
	Name      string `gorm:"primaryKey"`
	Token     string `gorm:"not null"`
	UserJSON  string `gorm:"column:user_json;type:text"`
	UpdatedAt time.Time
}
