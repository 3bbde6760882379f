package service

import (
	"context"

	"github.com/fircode/shelter/internal/model"
)

// Guard turns a session cookie into an authorized user.
type Guard struct {
	sessions *SessionManager
}

func NewGuard(sessions *SessionManager) *Guard { return &Guard{sessions: sessions} }

// Authenticate resolves the cookie without any role requirement.
func (g *Guard) Authenticate(ctx context.Context, cookieValue string) (model.User, error) {
	return g.sessions.ResolveSession(ctx, cookieValue)
}

// Authorize resolves the cookie and checks role (model.RoleAny or
// model.RoleAdmin).
func (g *Guard) Authorize(ctx context.Context, cookieValue, role string) (model.User, error) {
	u, err := g.sessions.ResolveSession(ctx, cookieValue)
	if err != nil {
		return model.User{}, err
	}
	if !u.HasRole(role) {
		return model.User{}, ErrForbidden
	}
	return u, nil
}

// RequireAdmin fails with ErrForbidden unless u is an admin.
func RequireAdmin(u model.User) error {
	if !u.HasRole(model.RoleAdmin) {
		return ErrForbidden
	}
	return nil
}
