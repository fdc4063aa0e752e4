package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
)

const (
	sessionName   = "delivery_session"
	cartIDValue   = "cart_id"
	sessionMaxAge = 30 * 24 * 60 * 60
)

type sessionIDKey struct{}

// NewSessionStore returns the cookie store that carries the visitor's cart id.
func NewSessionStore(key []byte, secure bool) *sessions.CookieStore {
	store := sessions.NewCookieStore(key)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   sessionMaxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

// SessionMiddleware makes sure every visitor has a cart session id. A missing
// or unreadable cookie starts a new session.
func SessionMiddleware(store sessions.Store, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, err := store.Get(r, sessionName)
			if err != nil {
				logger.Warn("discarding unreadable session cookie", "error", err)
			}

			id, _ := session.Values[cartIDValue].(string)
			if id == "" {
				id = uuid.NewString()
				session.Values[cartIDValue] = id
				if err := session.Save(r, w); err != nil {
					logger.Error("failed to save session", "error", err)
				}
			}

			ctx := context.WithValue(r.Context(), sessionIDKey{}, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func getSessionID(ctx context.Context) string {
	if id, ok := ctx.Value(sessionIDKey{}).(string); ok {
		return id
	}
	return ""
}
