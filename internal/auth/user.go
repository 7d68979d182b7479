package auth

import "time"

// User is a planner account. Goals, domains, logs and reports all hang off
// the uint64 ID, which is also the JWT sub claim.
type User struct {
	ID           uint64    `gorm:"primaryKey"`
	Email        string    `gorm:"uniqueIndex;not null"`
	PasswordHash string    `gorm:"not null"`
	CreatedAt    time.Time `gorm:"not null"`
}
