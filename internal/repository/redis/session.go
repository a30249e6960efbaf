package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/nkiryanov/minitwitter/internal/apperrors"
	"github.com/nkiryanov/minitwitter/internal/models"
)

const keyPrefix = "session:"

// Sessions live in redis until they expire
// Revoked session is kept with revoked_at set until its ttl ends
type SessionRepo struct {
	Client *goredis.Client

	// Used to compute key ttl; time.Now if nil
	Now func() time.Time
}

func NewSessionRepo(client *goredis.Client) *SessionRepo {
	return &SessionRepo{Client: client, Now: time.Now}
}

func sessionKey(id uuid.UUID) string {
	return keyPrefix + id.String()
}

func (r *SessionRepo) now() time.Time {
	if r.Now == nil {
		return time.Now()
	}
	return r.Now()
}

func (r *SessionRepo) Save(ctx context.Context, s models.Session) (models.Session, error) {
	ttl := s.ExpiresAt.Sub(r.now())
	if ttl <= 0 {
		return s, fmt.Errorf("redis error: %w", apperrors.ErrSessionExpired)
	}

	payload, err := json.Marshal(s)
	if err != nil {
		return s, fmt.Errorf("redis error: %w", err)
	}

	if err := r.Client.Set(ctx, sessionKey(s.ID), payload, ttl).Err(); err != nil {
		return s, fmt.Errorf("redis error: %w", err)
	}

	return s, nil
}

func (r *SessionRepo) Get(ctx context.Context, sessionID uuid.UUID) (models.Session, error) {
	var s models.Session

	payload, err := r.Client.Get(ctx, sessionKey(sessionID)).Bytes()
	switch {
	case errors.Is(err, goredis.Nil):
		return s, fmt.Errorf("repo error: %w", apperrors.ErrSessionNotFound)
	case err != nil:
		return s, fmt.Errorf("redis error: %w", err)
	}

	if err := json.Unmarshal(payload, &s); err != nil {
		return s, fmt.Errorf("redis error: corrupted session %s: %w", sessionID, err)
	}

	return s, nil
}

// Revoke session. Must not overwrite existing 'revoked_at'
func (r *SessionRepo) Revoke(ctx context.Context, sessionID uuid.UUID) error {
	s, err := r.Get(ctx, sessionID)
	switch {
	case errors.Is(err, apperrors.ErrSessionNotFound):
		return nil
	case err != nil:
		return err
	case s.RevokedAt != nil:
		return nil
	}

	revokedAt := r.now()
	s.RevokedAt = &revokedAt

	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("redis error: %w", err)
	}

	// XX: do not resurrect session expired between get and set
	err = r.Client.SetArgs(ctx, sessionKey(sessionID), payload, goredis.SetArgs{KeepTTL: true, Mode: "XX"}).Err()
	if err != nil && !errors.Is(err, goredis.Nil) {
		return fmt.Errorf("redis error: %w", err)
	}

	return nil
}
