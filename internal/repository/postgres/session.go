package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/nkiryanov/minitwitter/internal/apperrors"
	"github.com/nkiryanov/minitwitter/internal/models"
)

type SessionRepo struct {
	DB DBTX
}

const saveSession = `-- name: SaveSession
INSERT INTO sessions (id, user_id, created_at, expires_at, revoked_at)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, user_id, created_at, expires_at, revoked_at
`

func (r *SessionRepo) Save(ctx context.Context, s models.Session) (models.Session, error) {
	rows, _ := r.DB.Query(ctx, saveSession, s.ID, s.UserID, s.CreatedAt, s.ExpiresAt, s.RevokedAt)
	session, err := pgx.CollectOneRow(rows, rowToSession)
	if err != nil {
		return session, fmt.Errorf("db error: %w", err)
	}
	return session, nil
}

const getSession = `-- name: GetSession
SELECT id, user_id, created_at, expires_at, revoked_at
FROM sessions
WHERE id = $1
`

// Get session
// It should return result even it expired or revoked already
func (r *SessionRepo) Get(ctx context.Context, sessionID uuid.UUID) (models.Session, error) {
	rows, _ := r.DB.Query(ctx, getSession, sessionID)
	session, err := pgx.CollectOneRow(rows, rowToSession)

	switch {
	case err == nil:
		return session, nil
	case errors.Is(err, pgx.ErrNoRows):
		return session, fmt.Errorf("repo error: %w", apperrors.ErrSessionNotFound)
	default:
		return session, fmt.Errorf("db error: %w", err)
	}
}

const revokeSession = `-- name: RevokeSession
UPDATE sessions
SET revoked_at = COALESCE(revoked_at, $2)
WHERE id = $1
`

// Revoke session. Must not overwrite existing 'revoked_at'
func (r *SessionRepo) Revoke(ctx context.Context, sessionID uuid.UUID) error {
	_, err := r.DB.Exec(ctx, revokeSession, sessionID, time.Now())
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func rowToSession(row pgx.CollectableRow) (models.Session, error) {
	var s models.Session
	err := row.Scan(&s.ID, &s.UserID, &s.CreatedAt, &s.ExpiresAt, &s.RevokedAt)
	return s, err
}
