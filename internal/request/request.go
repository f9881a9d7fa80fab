// Package request carries per-request values through the context. The
// auth middleware is the only writer; handlers read the authenticated
// account back out.
package request

import (
	"context"

	"github.com/todoforge/todoforge/internal/models"
)

type userKey struct{}

// WithUser attaches the authenticated account to ctx.
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userKey{}, user)
}

// User returns the account stored on ctx by WithUser, or nil when the
// request never passed through the auth middleware.
func User(ctx context.Context) *models.User {
	user, _ := ctx.Value(userKey{}).(*models.User)
	return user
}
