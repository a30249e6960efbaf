package middleware

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/minitwitter/internal/apperrors"
	"github.com/nkiryanov/minitwitter/internal/handlers/userctx"
	"github.com/nkiryanov/minitwitter/internal/logger"
	"github.com/nkiryanov/minitwitter/internal/models"
)

// Allow to use a function as auth service
type authFunc func(ctx context.Context, r *http.Request) (models.User, error)

func (f authFunc) GetUserFromRequest(ctx context.Context, r *http.Request) (models.User, error) {
	return f(ctx, r)
}

func TestAuth(t *testing.T) {
	// Write username of request user or 'anonymous'
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		username := "anonymous"
		if user := userctx.FromRequest(r); user != nil {
			username = user.Username
		}

		w.WriteHeader(http.StatusOK)
		_, err := w.Write([]byte(username))
		require.NoError(t, err, "should write username to response")
	})

	authOK := authFunc(func(ctx context.Context, r *http.Request) (models.User, error) {
		return models.User{Username: "test-user"}, nil
	})
	authAnonymous := authFunc(func(ctx context.Context, r *http.Request) (models.User, error) {
		return models.User{}, apperrors.ErrUnauthenticated
	})
	authBroken := authFunc(func(ctx context.Context, r *http.Request) (models.User, error) {
		return models.User{}, errors.New("db is down")
	})

	// Do request without following redirects
	do := func(t *testing.T, h http.Handler, path string) (*http.Response, string) {
		srv := httptest.NewServer(h)
		t.Cleanup(srv.Close)

		client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }}
		resp, err := client.Get(srv.URL + path)
		require.NoError(t, err, "should make request to test server")
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err, "should read response body")
		defer resp.Body.Close() // nolint:errcheck

		return resp, string(body)
	}

	t.Run("Authenticate", func(t *testing.T) {
		tests := []struct {
			name     string
			auth     authFunc
			expected string
		}{
			{"valid session", authOK, "test-user"},
			{"no session", authAnonymous, "anonymous"},
			{"auth failed", authBroken, "anonymous"},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				a := NewAuth(tt.auth, "/accounts/login/", logger.NewNoOpLogger())

				resp, body := do(t, a.Authenticate(handler), "/test")

				require.Equal(t, http.StatusOK, resp.StatusCode)
				require.Equal(t, tt.expected, body)
			})
		}
	})

	t.Run("RequireLogin", func(t *testing.T) {
		t.Run("authenticated pass", func(t *testing.T) {
			a := NewAuth(authOK, "/accounts/login/", logger.NewNoOpLogger())

			resp, body := do(t, a.Authenticate(a.RequireLogin(handler)), "/tweet/create/")

			require.Equal(t, http.StatusOK, resp.StatusCode)
			require.Equal(t, "test-user", body)
		})

		t.Run("anonymous redirected to login", func(t *testing.T) {
			a := NewAuth(authAnonymous, "/accounts/login/", logger.NewNoOpLogger())

			resp, _ := do(t, a.Authenticate(a.RequireLogin(handler)), "/tweet/create/?draft=1")

			require.Equal(t, http.StatusFound, resp.StatusCode)
			require.Equal(t, "/accounts/login/?next=%2Ftweet%2Fcreate%2F%3Fdraft%3D1", resp.Header.Get("Location"))
		})
	})
}
