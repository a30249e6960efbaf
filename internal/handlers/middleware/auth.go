package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/nkiryanov/minitwitter/internal/apperrors"
	"github.com/nkiryanov/minitwitter/internal/handlers/userctx"
	"github.com/nkiryanov/minitwitter/internal/models"
)

type authService interface {
	// Has to return apperrors.ErrUnauthenticated if request has no valid session
	GetUserFromRequest(ctx context.Context, r *http.Request) (models.User, error)
}

type errorLogger interface {
	Error(msg string, args ...any)
}

type Auth struct {
	authService authService
	logger      errorLogger

	// Login page url: anonymous users are redirected there from protected pages
	loginURL string
}

func NewAuth(as authService, loginURL string, l errorLogger) *Auth {
	return &Auth{authService: as, loginURL: loginURL, logger: l}
}

// Attach authenticated user to request context if session is valid
// Anonymous requests pass as is
func (a *Auth) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := a.authService.GetUserFromRequest(r.Context(), r)
		switch {
		case err == nil:
			r = r.WithContext(userctx.New(r.Context(), user))
		case !errors.Is(err, apperrors.ErrUnauthenticated):
			a.logger.Error("can't authenticate request", "error", err)
		}

		next.ServeHTTP(w, r)
	})
}

// Redirect anonymous users to login page, next is set to requested path
func (a *Auth) RequireLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := userctx.FromContext(r.Context()); !ok {
			http.Redirect(w, r, loginRedirectURL(a.loginURL, r), http.StatusFound)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func loginRedirectURL(loginURL string, r *http.Request) string {
	next := r.URL.Path
	if r.URL.RawQuery != "" {
		next += "?" + r.URL.RawQuery
	}
	return loginURL + "?" + (url.Values{"next": {next}}).Encode()
}
