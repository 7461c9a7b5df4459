package handlers

import (
	"context"

	"github.com/HammerMeetNail/splitledger/internal/models"
)

type contextKey string

const userContextKey contextKey = "user"

// SetUserInContext attaches the authenticated principal to ctx.
func SetUserInContext(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// GetUserFromContext returns the principal set by the auth middleware, or nil.
func GetUserFromContext(ctx context.Context) *models.User {
	user, _ := ctx.Value(userContextKey).(*models.User)
	return user
}
