package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/nkiryanov/minitwitter/internal/models"
)

// Storage gives access to every repository backed by one connection (pool or transaction)
type Storage interface {
	User() UserRepo
	Tweet() TweetRepo
	Session() SessionRepo
}

type CreateUserParams struct {
	Username       string
	Email          string
	HashedPassword string
}

// User repository interface
type UserRepo interface {
	// Create user
	// If user with username exists already has to return error apperrors.ErrUserAlreadyExists
	CreateUser(ctx context.Context, params CreateUserParams) (models.User, error)

	// Get user by it's id or username
	// If user not found must return apperrors.ErrUserNotFound
	GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error)
	GetUserByUsername(ctx context.Context, username string) (models.User, error)
}

// TweetFilter is a predicate over tweets. Zero value matches every tweet
type TweetFilter struct {
	// Match tweet with the id only
	ID uuid.UUID

	// Match tweets owned by the user only
	OwnerID uuid.UUID

	// Match tweets whose text or owner username contains the value, case-insensitive
	Contains string
}

// Tweet repository interface
// Every returned tweet has owner username set
type TweetRepo interface {
	// Create tweet as is: caller sets id, owner, text, photo and timestamps
	CreateTweet(ctx context.Context, tweet models.Tweet) (models.Tweet, error)

	// Get exactly one tweet matching filter
	// If nothing matches must return apperrors.ErrTweetNotFound
	GetTweet(ctx context.Context, filter TweetFilter) (models.Tweet, error)

	// List tweets matching filter, newest created first
	ListTweets(ctx context.Context, filter TweetFilter) ([]models.Tweet, error)

	// Update text, photo and updated_at of the tweet with same id and owner
	// updated_at must always advance even if the clock did not
	// If nothing matches must return apperrors.ErrTweetNotFound
	UpdateTweet(ctx context.Context, tweet models.Tweet) (models.Tweet, error)

	// Delete tweet with the id owned by the user
	// If nothing matches must return apperrors.ErrTweetNotFound
	DeleteTweet(ctx context.Context, tweetID uuid.UUID, ownerID uuid.UUID) error
}

// Session repository interface
type SessionRepo interface {
	Save(ctx context.Context, session models.Session) (models.Session, error)

	// Return the session even if it expired or revoked
	// If session not found must return apperrors.ErrSessionNotFound
	Get(ctx context.Context, sessionID uuid.UUID) (models.Session, error)

	// Revoke session. Revoking unknown or revoked session is not an error
	Revoke(ctx context.Context, sessionID uuid.UUID) error
}
