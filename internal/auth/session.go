package auth

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/firstindallas/backend/internal/models"
)

// Session is the caller identity resolved for one request. Handlers and
// services receive it explicitly; nothing reads identity from globals.
type Session struct {
	UserID    uuid.UUID
	Email     string
	Role      models.Role
	TokenID   string
	ExpiresAt time.Time
}

// IsAdmin reports whether the session belongs to an admin.
func (s Session) IsAdmin() bool { return s.Role == models.RoleAdmin }

// SessionFromClaims converts validated token claims.
func SessionFromClaims(c *Claims) Session {
	s := Session{UserID: c.UserID, Email: c.Email, Role: models.Role(c.Role), TokenID: c.ID}
	if c.ExpiresAt != nil {
		s.ExpiresAt = c.ExpiresAt.Time
	}
	return s
}

type sessionKey struct{}

// WithSession returns a copy of ctx carrying s.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// FromContext returns the session stored in ctx, if any.
func FromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(Session)
	return s, ok
}
