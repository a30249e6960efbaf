package models

import (
	"time"

	"github.com/google/uuid"
)

// Max tweet text length in characters (runes)
const TweetMaxLength = 280

type Tweet struct {
	ID     uuid.UUID
	UserID uuid.UUID

	// Owner username, joined on read
	Username string

	Text string

	// Photo path relative to media root, empty if tweet has no photo
	Photo string

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (t Tweet) HasPhoto() bool {
	return t.Photo != ""
}

func (t Tweet) Edited() bool {
	return t.UpdatedAt.After(t.CreatedAt)
}

// IsOwnedBy reports whether the user may change or delete the tweet
func (t Tweet) IsOwnedBy(u *User) bool {
	return u != nil && u.ID == t.UserID
}
