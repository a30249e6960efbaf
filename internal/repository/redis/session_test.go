package redis

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/minitwitter/internal/apperrors"
	"github.com/nkiryanov/minitwitter/internal/models"
	"github.com/nkiryanov/minitwitter/internal/testutil"
)

func Test_SessionRepo(t *testing.T) {
	t.Parallel()

	rc := testutil.StartRedisContainer(t)
	t.Cleanup(rc.Terminate)

	repo := NewSessionRepo(rc.Client)

	newSession := func(ttl time.Duration) models.Session {
		now := time.Now().Truncate(time.Second)
		return models.Session{
			ID:        uuid.New(),
			UserID:    uuid.New(),
			CreatedAt: now,
			ExpiresAt: now.Add(ttl),
		}
	}

	t.Run("save and get", func(t *testing.T) {
		session := newSession(time.Hour)

		saved, err := repo.Save(t.Context(), session)
		require.NoError(t, err)
		require.Equal(t, session.ID, saved.ID)

		got, err := repo.Get(t.Context(), session.ID)

		require.NoError(t, err)
		assert.Equal(t, session.ID, got.ID)
		assert.Equal(t, session.UserID, got.UserID)
		assert.WithinDuration(t, session.CreatedAt, got.CreatedAt, 0)
		assert.WithinDuration(t, session.ExpiresAt, got.ExpiresAt, 0)
		assert.Nil(t, got.RevokedAt)
	})

	t.Run("key expires with session", func(t *testing.T) {
		session := newSession(time.Hour)
		_, err := repo.Save(t.Context(), session)
		require.NoError(t, err)

		ttl, err := rc.Client.TTL(t.Context(), sessionKey(session.ID)).Result()

		require.NoError(t, err)
		assert.InDelta(t, time.Hour.Seconds(), ttl.Seconds(), 5)
	})

	t.Run("save expired fail", func(t *testing.T) {
		_, err := repo.Save(t.Context(), newSession(-time.Minute))

		require.ErrorIs(t, err, apperrors.ErrSessionExpired)
	})

	t.Run("get not existed", func(t *testing.T) {
		_, err := repo.Get(t.Context(), uuid.New())

		require.ErrorIs(t, err, apperrors.ErrSessionNotFound)
	})

	t.Run("revoke keeps first revoked at", func(t *testing.T) {
		session := newSession(time.Hour)
		_, err := repo.Save(t.Context(), session)
		require.NoError(t, err)

		err = repo.Revoke(t.Context(), session.ID)
		require.NoError(t, err)
		first, err := repo.Get(t.Context(), session.ID)
		require.NoError(t, err)
		require.NotNil(t, first.RevokedAt, "session has to be revoked")

		err = repo.Revoke(t.Context(), session.ID)
		require.NoError(t, err, "revoke twice is ok")
		second, err := repo.Get(t.Context(), session.ID)
		require.NoError(t, err)
		assert.WithinDuration(t, *first.RevokedAt, *second.RevokedAt, 0, "revoked at must not change")

		ttl, err := rc.Client.TTL(t.Context(), sessionKey(session.ID)).Result()
		require.NoError(t, err)
		assert.Positive(t, ttl, "ttl must be kept after revoke")
	})

	t.Run("revoke not existed", func(t *testing.T) {
		err := repo.Revoke(t.Context(), uuid.New())

		require.NoError(t, err)
	})
}
