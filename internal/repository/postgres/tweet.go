package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/nkiryanov/minitwitter/internal/apperrors"
	"github.com/nkiryanov/minitwitter/internal/models"
	"github.com/nkiryanov/minitwitter/internal/repository"
)

type TweetRepo struct {
	DB DBTX
}

const createTweet = `-- name: CreateTweet
WITH inserted AS (
	INSERT INTO tweets (id, user_id, text, photo, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6)
	RETURNING *
)
SELECT t.id, t.user_id, u.username, t.text, t.photo, t.created_at, t.updated_at
FROM inserted t
JOIN users u ON u.id = t.user_id
`

func (r *TweetRepo) CreateTweet(ctx context.Context, t models.Tweet) (models.Tweet, error) {
	rows, _ := r.DB.Query(ctx, createTweet, t.ID, t.UserID, t.Text, t.Photo, t.CreatedAt, t.UpdatedAt)
	tweet, err := pgx.CollectOneRow(rows, rowToTweet)
	if err != nil {
		return tweet, fmt.Errorf("db error: %w", err)
	}

	return tweet, nil
}

// Every filter field is optional: NULL or empty parameter disables the predicate
const listTweets = `-- name: ListTweets
SELECT t.id, t.user_id, u.username, t.text, t.photo, t.created_at, t.updated_at
FROM tweets t
JOIN users u ON u.id = t.user_id
WHERE ($1::uuid IS NULL OR t.id = $1)
	AND ($2::uuid IS NULL OR t.user_id = $2)
	AND (
		$3::text = ''
		OR strpos(lower(t.text), lower($3)) > 0
		OR strpos(lower(u.username), lower($3)) > 0
	)
ORDER BY t.created_at DESC
`

func (r *TweetRepo) GetTweet(ctx context.Context, filter repository.TweetFilter) (models.Tweet, error) {
	rows, _ := r.DB.Query(ctx, listTweets, filterArgs(filter)...)
	tweet, err := pgx.CollectOneRow(rows, rowToTweet)

	switch {
	case err == nil:
		return tweet, nil
	case errors.Is(err, pgx.ErrNoRows):
		return tweet, apperrors.ErrTweetNotFound
	default:
		return tweet, fmt.Errorf("db error: %w", err)
	}
}

func (r *TweetRepo) ListTweets(ctx context.Context, filter repository.TweetFilter) ([]models.Tweet, error) {
	rows, _ := r.DB.Query(ctx, listTweets, filterArgs(filter)...)
	tweets, err := pgx.CollectRows(rows, rowToTweet)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return tweets, nil
}

const updateTweet = `-- name: UpdateTweet
WITH updated AS (
	UPDATE tweets
	SET text = $3,
		photo = $4,
		updated_at = GREATEST($5, updated_at + interval '1 microsecond')
	WHERE id = $1 AND user_id = $2
	RETURNING *
)
SELECT t.id, t.user_id, u.username, t.text, t.photo, t.created_at, t.updated_at
FROM updated t
JOIN users u ON u.id = t.user_id
`

func (r *TweetRepo) UpdateTweet(ctx context.Context, t models.Tweet) (models.Tweet, error) {
	rows, _ := r.DB.Query(ctx, updateTweet, t.ID, t.UserID, t.Text, t.Photo, t.UpdatedAt)
	tweet, err := pgx.CollectOneRow(rows, rowToTweet)

	switch {
	case err == nil:
		return tweet, nil
	case errors.Is(err, pgx.ErrNoRows):
		return tweet, apperrors.ErrTweetNotFound
	default:
		return tweet, fmt.Errorf("db error: %w", err)
	}
}

const deleteTweet = `-- name: DeleteTweet
DELETE FROM tweets
WHERE id = $1 AND user_id = $2
`

func (r *TweetRepo) DeleteTweet(ctx context.Context, tweetID uuid.UUID, ownerID uuid.UUID) error {
	tag, err := r.DB.Exec(ctx, deleteTweet, tweetID, ownerID)
	switch {
	case err != nil:
		return fmt.Errorf("db error: %w", err)
	case tag.RowsAffected() == 0:
		return apperrors.ErrTweetNotFound
	default:
		return nil
	}
}

func filterArgs(f repository.TweetFilter) []any {
	return []any{nullableUUID(f.ID), nullableUUID(f.OwnerID), f.Contains}
}

// uuid.Nil means 'not set' for filters and is sent as NULL
func nullableUUID(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}

func rowToTweet(row pgx.CollectableRow) (models.Tweet, error) {
	var t models.Tweet
	err := row.Scan(&t.ID, &t.UserID, &t.Username, &t.Text, &t.Photo, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}
