package middleware

import (
	"context"
	"net/http"
	"strings"

	"skyroute-backend/internal/auth"
	"skyroute-backend/pkg/utils"
)

// Authenticator resolves a session token. Implemented by services.OperatorService.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*auth.Session, error)
}

type SessionMiddleware struct {
	auth       Authenticator
	cookieName string
}

func NewSessionMiddleware(a Authenticator, cookieName string) *SessionMiddleware {
	return &SessionMiddleware{auth: a, cookieName: cookieName}
}

// token reads the session cookie, falling back to a Bearer header for
// scripted clients.
func (m *SessionMiddleware) token(r *http.Request) string {
	if c, err := r.Cookie(m.cookieName); err == nil && c.Value != "" {
		return c.Value
	}
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) == 2 && parts[0] == "Bearer" {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

func (m *SessionMiddleware) session(r *http.Request) (*auth.Session, bool) {
	tok := m.token(r)
	if tok == "" {
		return nil, false
	}
	sess, err := m.auth.Authenticate(r.Context(), tok)
	if err != nil || !sess.Valid() {
		return nil, false
	}
	return sess, true
}

// Require guards API routes. Requests without a valid session get a JSON 401.
func (m *SessionMiddleware) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := m.session(r)
		if !ok {
			utils.Error(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next.ServeHTTP(w, r.WithContext(auth.WithSession(r.Context(), sess)))
	})
}

// RequirePage guards HTML pages and sends anonymous visitors to the login page.
func (m *SessionMiddleware) RequirePage(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := m.session(r)
		if !ok {
			http.Redirect(w, r, "/", http.StatusFound)
			return
		}
		next.ServeHTTP(w, r.WithContext(auth.WithSession(r.Context(), sess)))
	})
}

// Optional attaches a session when one is present but never rejects.
func (m *SessionMiddleware) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if sess, ok := m.session(r); ok {
			r = r.WithContext(auth.WithSession(r.Context(), sess))
		}
		next.ServeHTTP(w, r)
	})
}
