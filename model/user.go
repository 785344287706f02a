package model

import "time"

// User is a read-only mirror of the identity service's account record, kept
// so leaderboard rows can carry display names. The engine never writes it.
type User struct {
	ID        string `gorm:"primaryKey"`
	Username  string `gorm:"unique;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
