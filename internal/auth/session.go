package auth

import (
	"context"
	"strings"

	"skyroute-backend/internal/models"
)

// Session identifies the operator behind a request. It is attached to the
// request context by the session middleware and passed explicitly to services.
type Session struct {
	OperatorID int
	Username   string
	Initials   string
}

// Valid reports whether the session names an operator.
func (s *Session) Valid() bool {
	return s != nil && s.OperatorID > 0 && s.Username != ""
}

// NewSession builds the session for an authenticated operator.
func NewSession(op *models.Operator) *Session {
	return &Session{
		OperatorID: op.ID,
		Username:   op.Username,
		Initials:   strings.ToUpper(op.Initials),
	}
}

type sessionKey struct{}

func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// SessionFromContext returns the request's session, if any.
func SessionFromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(*Session)
	return s, ok && s.Valid()
}
