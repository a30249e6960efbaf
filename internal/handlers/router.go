package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/nkiryanov/minitwitter/internal/forms"
	"github.com/nkiryanov/minitwitter/internal/handlers/middleware"
	"github.com/nkiryanov/minitwitter/internal/handlers/render"
	"github.com/nkiryanov/minitwitter/internal/logger"
	"github.com/nkiryanov/minitwitter/internal/models"
)

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

type Services struct {
	Auth    authService
	Users   userService
	Tweets  tweetService
	Media   mediaStorage
	Metrics metricsService
}

// Build application handler
// Tweet pages are mounted under prefix, e.g. '/tweet'
func NewRouter(prefix string, s Services, logger logger.Logger) (http.Handler, error) {
	if !validPrefix(prefix) {
		return nil, fmt.Errorf("mount prefix %q has to start with '/' and have no trailing '/'", prefix)
	}

	renderer, err := render.New(render.URLs{Prefix: prefix})
	if err != nil {
		return nil, err
	}
	urls := renderer.URLs()

	auth := middleware.NewAuth(s.Auth, urls.Login(), logger)
	loginRequired := func(h http.Handler) http.Handler {
		return auth.RequireLogin(h)
	}

	pages := &pages{renderer: renderer, logger: logger}

	mux := http.NewServeMux()

	mux.Handle("GET "+prefix+"/{$}", handleTweetList(s.Tweets, pages))
	mux.Handle("GET "+prefix+"/index/{$}", handleIndex(pages))
	mux.Handle(prefix+"/create/{$}", loginRequired(handleTweetCreate(s.Tweets, s.Media, pages)))
	mux.Handle(prefix+"/{id}/edit/{$}", loginRequired(handleTweetEdit(s.Tweets, s.Media, pages)))
	mux.Handle(prefix+"/{id}/delete/{$}", loginRequired(handleTweetDelete(s.Tweets, s.Media, pages)))
	mux.Handle("GET "+prefix+"/search/{$}", handleSearch(s.Tweets, pages))
	mux.Handle(prefix+"/register/{$}", handleRegister(s.Auth, s.Users, pages))

	mux.Handle(urls.Login()+"{$}", handleLogin(s.Auth, pages))
	mux.Handle(urls.Logout()+"{$}", handleLogout(s.Auth, pages))

	mux.Handle("GET /{$}", http.RedirectHandler(urls.List(), http.StatusFound))
	mux.Handle("GET /media/", http.StripPrefix("/media/", s.Media.Handler()))
	mux.Handle("GET /metrics", s.Metrics.Handler())
	mux.Handle("/", handleNotFound(pages))

	// Authenticate replaces the request, so pattern readers go after it
	handler := chain(mux,
		auth.Authenticate,
		middleware.LoggerMiddleware(logger),
		middleware.MetricsMiddleware(s.Metrics),
	)

	return handler, nil
}

// Prefix must not overlap media files route
func validPrefix(prefix string) bool {
	return len(prefix) > 1 &&
		strings.HasPrefix(prefix, "/") &&
		!strings.HasSuffix(prefix, "/") &&
		!strings.ContainsAny(prefix, "{} ") &&
		!strings.HasPrefix(prefix+"/", "/media/")
}

type authService interface {
	// Register user and start session
	// Has to return apperrors.ErrUserAlreadyExists if user already exists
	Register(ctx context.Context, username string, email string, password string) (models.User, models.IssuedSession, error)

	// Check credentials and start session
	// Has to return apperrors.ErrInvalidCredentials if user not found or password is wrong
	Login(ctx context.Context, username string, password string) (models.User, models.IssuedSession, error)

	// Revoke session of the request
	Logout(ctx context.Context, r *http.Request) error

	SetSessionToResponse(w http.ResponseWriter, issued models.IssuedSession)
	ClearSession(w http.ResponseWriter)

	// Get request and return user if it authenticated or error
	GetUserFromRequest(ctx context.Context, r *http.Request) (models.User, error)
}

type userService interface {
	UsernameTaken(ctx context.Context, username string) (bool, error)
}

type tweetService interface {
	ListAll(ctx context.Context) ([]models.Tweet, error)
	FindOwned(ctx context.Context, tweetID uuid.UUID, user models.User) (models.Tweet, error)
	Create(ctx context.Context, user models.User, text string, photo string) (models.Tweet, error)
	Update(ctx context.Context, user models.User, tweet models.Tweet, text string, photo string) (models.Tweet, error)
	Delete(ctx context.Context, user models.User, tweet models.Tweet) error
	Search(ctx context.Context, q string) ([]models.Tweet, error)
}

type mediaStorage interface {
	Save(upload *forms.Upload) (string, error)
	Remove(name string) error
	Handler() http.Handler
}

type metricsService interface {
	ObserveRequest(method string, pattern string, status int, seconds float64)
	Handler() http.Handler
}
