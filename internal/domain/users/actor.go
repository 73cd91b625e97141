package users

import (
	"context"

	"github.com/google/uuid"

	"github.com/kinesio/kinesio/internal/platform/auth"
)

// ActorFromContext builds the acting user from the authenticated request
// context. Returns nil when the request carries no usable identity.
func ActorFromContext(ctx context.Context) *User {
	id, err := uuid.Parse(auth.UserIDFromContext(ctx))
	if err != nil {
		return nil
	}
	role := Role(auth.RoleFromContext(ctx))
	if !role.Valid() {
		return nil
	}
	return &User{ID: id, Role: role}
}
