package sessionmanager

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/nkiryanov/minitwitter/internal/apperrors"
	"github.com/nkiryanov/minitwitter/internal/models"
	"github.com/nkiryanov/minitwitter/internal/repository"
)

const (
	defaultSigningMethod = "HS256"
	defaultSessionTTL    = 14 * 24 * time.Hour
)

// Claims of the signed session cookie value
// jti is the session id
type SessionClaims struct {
	jwt.RegisteredClaims
	UserID uuid.UUID `json:"uid"`
}

// Session manager with sensible default
type Config struct {
	// Secret key to sign session value
	// Required to be set
	SecretKey string

	// JWT MAC (Message Authentication Code) algorithm
	// If not set than default is used
	Alg string

	// Session lifetime
	// If not set than default is used
	TTL time.Duration
}

type SessionManager struct {
	key string
	alg jwt.SigningMethod
	ttl time.Duration

	sessionRepo repository.SessionRepo
}

func New(cfg Config, sessionRepo repository.SessionRepo) (*SessionManager, error) {
	if cfg.SecretKey == "" {
		return nil, errors.New("secret key must not be empty")
	}

	if cfg.Alg == "" {
		cfg.Alg = defaultSigningMethod
	}
	alg := jwt.GetSigningMethod(cfg.Alg)
	if alg == nil {
		return nil, fmt.Errorf("unknown signing method %q", cfg.Alg)
	}

	if cfg.TTL == 0 {
		cfg.TTL = defaultSessionTTL
	}

	return &SessionManager{
		key:         cfg.SecretKey,
		alg:         alg,
		ttl:         cfg.TTL,
		sessionRepo: sessionRepo,
	}, nil
}

// Start new session for the user and return signed value to store in cookie
func (m *SessionManager) Issue(ctx context.Context, user models.User) (models.IssuedSession, error) {
	var issued models.IssuedSession
	now := time.Now().Truncate(time.Second)

	session, err := m.sessionRepo.Save(ctx, models.Session{
		ID:        uuid.New(),
		UserID:    user.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	})
	if err != nil {
		return issued, fmt.Errorf("error while saving session. Err: %w", err)
	}

	token := jwt.NewWithClaims(
		m.alg,
		SessionClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				ID:        session.ID.String(),
				IssuedAt:  jwt.NewNumericDate(session.CreatedAt),
				ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
			},
			UserID: user.ID,
		},
	)
	value, err := token.SignedString([]byte(m.key))
	if err != nil {
		return issued, fmt.Errorf("error while signing session. Err: %w", err)
	}

	return models.IssuedSession{Value: value, ExpiresAt: session.ExpiresAt}, nil
}

func (m *SessionManager) parse(value string) (*SessionClaims, uuid.UUID, error) {
	claims := &SessionClaims{}

	_, err := jwt.ParseWithClaims(
		value,
		claims,
		func(t *jwt.Token) (any, error) {
			return []byte(m.key), nil
		},
		jwt.WithValidMethods([]string{m.alg.Alg()}),
	)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, uuid.Nil, apperrors.ErrSessionExpired
	case err != nil:
		return nil, uuid.Nil, fmt.Errorf("error while parsing or validating session. Err: %w", err)
	}

	sessionID, err := uuid.Parse(claims.ID)
	if err != nil {
		return nil, uuid.Nil, fmt.Errorf("session has invalid id. Err: %w", err)
	}

	return claims, sessionID, nil
}

// Verify signed value and return active session it refers to
// Revoked session is reported as apperrors.ErrSessionNotFound
func (m *SessionManager) Verify(ctx context.Context, value string) (models.Session, error) {
	claims, sessionID, err := m.parse(value)
	if err != nil {
		return models.Session{}, err
	}

	session, err := m.sessionRepo.Get(ctx, sessionID)
	switch {
	case err != nil:
		return session, err
	case session.UserID != claims.UserID:
		return session, apperrors.ErrSessionNotFound
	case session.RevokedAt != nil:
		return session, fmt.Errorf("session revoked: %w", apperrors.ErrSessionNotFound)
	case !session.ExpiresAt.After(time.Now()):
		return session, apperrors.ErrSessionExpired
	}

	return session, nil
}

// Revoke the session the value refers to
// Expired or unknown sessions are ignored
func (m *SessionManager) Revoke(ctx context.Context, value string) error {
	_, sessionID, err := m.parse(value)
	switch {
	case errors.Is(err, apperrors.ErrSessionExpired):
		return nil
	case err != nil:
		return err
	}

	return m.sessionRepo.Revoke(ctx, sessionID)
}
