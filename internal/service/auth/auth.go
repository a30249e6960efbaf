package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/nkiryanov/minitwitter/internal/apperrors"
	"github.com/nkiryanov/minitwitter/internal/models"
)

const (
	defaultCookieName = "sessionid"
)

// Interface to create or compare user password hashes
type PasswordHasher interface {
	// Generate Hash from password
	Hash(password string) (string, error)

	// Compare known hashedPassword and user provided password
	// Must be protected against timing attacks
	Compare(hashedPassword string, password string) error
}

var DefaultHasher PasswordHasher = BcryptHasher{}

type SessionManager interface {
	Issue(ctx context.Context, user models.User) (models.IssuedSession, error)
	Verify(ctx context.Context, value string) (models.Session, error)
	Revoke(ctx context.Context, value string) error
}

type UserService interface {
	CreateUser(ctx context.Context, username string, email string, password string) (models.User, error)
	Authenticate(ctx context.Context, username string, password string) (models.User, error)
	GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error)
}

type Config struct {
	// Cookie to store session value in
	// If not set than default is used
	CookieName string

	// Send cookie over https only
	Secure bool
}

type AuthService struct {
	cookieName string
	secure     bool

	sessions SessionManager
	users    UserService
}

func NewService(cfg Config, sessions SessionManager, users UserService) *AuthService {
	if cfg.CookieName == "" {
		cfg.CookieName = defaultCookieName
	}

	return &AuthService{
		cookieName: cfg.CookieName,
		secure:     cfg.Secure,
		sessions:   sessions,
		users:      users,
	}
}

// Create user and start session for it
func (s *AuthService) Register(ctx context.Context, username string, email string, password string) (models.User, models.IssuedSession, error) {
	var issued models.IssuedSession

	user, err := s.users.CreateUser(ctx, username, email, password)
	if err != nil {
		return user, issued, err
	}

	issued, err = s.sessions.Issue(ctx, user)
	if err != nil {
		return user, issued, fmt.Errorf("session could not be issued, sorry. Err: %w", err)
	}

	return user, issued, nil
}

// Check credentials and start session
// Unknown user and wrong password are both apperrors.ErrInvalidCredentials
func (s *AuthService) Login(ctx context.Context, username string, password string) (models.User, models.IssuedSession, error) {
	var issued models.IssuedSession

	user, err := s.users.Authenticate(ctx, username, password)
	if err != nil {
		return user, issued, err
	}

	issued, err = s.sessions.Issue(ctx, user)
	if err != nil {
		return user, issued, fmt.Errorf("session could not be issued, sorry. Err: %w", err)
	}

	return user, issued, nil
}

// Revoke session from request cookie if any
func (s *AuthService) Logout(ctx context.Context, r *http.Request) error {
	cookie, err := r.Cookie(s.cookieName)
	if err != nil {
		return nil
	}

	return s.sessions.Revoke(ctx, cookie.Value)
}

func (s *AuthService) SetSessionToResponse(w http.ResponseWriter, issued models.IssuedSession) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cookieName,
		Value:    issued.Value,
		Path:     "/",
		Expires:  issued.ExpiresAt,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *AuthService) ClearSession(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Return user the request session belongs to
// Request without valid session is apperrors.ErrUnauthenticated
func (s *AuthService) GetUserFromRequest(ctx context.Context, r *http.Request) (models.User, error) {
	cookie, err := r.Cookie(s.cookieName)
	if err != nil {
		return models.User{}, apperrors.ErrUnauthenticated
	}

	session, err := s.sessions.Verify(ctx, cookie.Value)
	if err != nil {
		return models.User{}, fmt.Errorf("%w: %w", apperrors.ErrUnauthenticated, err)
	}

	user, err := s.users.GetUserByID(ctx, session.UserID)
	switch {
	case errors.Is(err, apperrors.ErrUserNotFound):
		return user, fmt.Errorf("%w: %w", apperrors.ErrUnauthenticated, err)
	case err != nil:
		return user, err
	}

	return user, nil
}
