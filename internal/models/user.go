package models

import (
	"time"

	"github.com/google/uuid"
)

// Max username length in characters
const UsernameMaxLength = 150

// Registered account. Never changed after registration
type User struct {
	ID        uuid.UUID
	CreatedAt time.Time
	Username  string
	Email     string

	// bcrypt hash, never the raw password
	HashedPassword string
}
