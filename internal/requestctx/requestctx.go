// Package requestctx carries per-request values through context.Context.
package requestctx

import (
	"context"

	"github.com/starford/campaignjournal/internal/models"
)

type userKey struct{}

// WithUser returns a copy of ctx carrying u as the current user.
func WithUser(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, userKey{}, u)
}

// UserFrom returns the current user, or nil for an anonymous request.
func UserFrom(ctx context.Context) *models.User {
	u, _ := ctx.Value(userKey{}).(*models.User)
	return u
}
