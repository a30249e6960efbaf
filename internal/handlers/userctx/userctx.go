package userctx

import (
	"context"
	"net/http"

	"github.com/nkiryanov/minitwitter/internal/models"
)

type ctxKey string

const userKey ctxKey = "user"

// Create a new context with the authenticated user
func New(ctx context.Context, u models.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// Extract the user from the context
func FromContext(ctx context.Context) (models.User, bool) {
	u, ok := ctx.Value(userKey).(models.User)
	return u, ok
}

// Authenticated user of the request or nil for anonymous
func FromRequest(r *http.Request) *models.User {
	u, ok := FromContext(r.Context())
	if !ok {
		return nil
	}
	return &u
}
