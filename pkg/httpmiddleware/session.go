package httpmiddleware

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// SessionConfig configures the Session middleware.
type SessionConfig struct {
	CookieName string
	MaxAge     time.Duration
	Secure     bool
}

type sessionKey struct{}

// SessionFromContext returns the session id stored by Session, or "".
func SessionFromContext(ctx context.Context) string {
	id, _ := ctx.Value(sessionKey{}).(string)
	return id
}

// WithSession stores a session id in ctx.
func WithSession(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionKey{}, id)
}

// Session identifies the browser by a cookie holding a random UUID. Requests
// without a valid cookie get a new session and a Set-Cookie header.
func Session(cfg SessionConfig) Middleware {
	if cfg.CookieName == "" {
		cfg.CookieName = "pizza_session"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var id string
			if c, err := r.Cookie(cfg.CookieName); err == nil {
				if _, err := uuid.Parse(c.Value); err == nil {
					id = c.Value
				}
			}
			if id == "" {
				id = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     cfg.CookieName,
					Value:    id,
					Path:     "/",
					MaxAge:   int(cfg.MaxAge.Seconds()),
					HttpOnly: true,
					Secure:   cfg.Secure,
					SameSite: http.SameSiteLaxMode,
				})
			}
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), id)))
		})
	}
}
