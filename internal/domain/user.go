package domain

import "time"

// User represents an authenticated account within the platform.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}
