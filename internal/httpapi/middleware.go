package httpapi

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

const sessionCookieName = "session_id"

type contextKey string

const sessionIDKey contextKey = "session_id"

// SessionMiddleware resolves the browser session that owns the cart. The id
// comes from the X-Session-ID header or the session cookie; a fresh uuid is
// minted (and set as a cookie) when neither is present. This is cart keying
// only, not authentication.
func SessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessionID := r.Header.Get("X-Session-ID")
		if sessionID == "" {
			if c, err := r.Cookie(sessionCookieName); err == nil {
				sessionID = c.Value
			}
		}
		if sessionID == "" {
			sessionID = uuid.New().String()
			http.SetCookie(w, &http.Cookie{
				Name:     sessionCookieName,
				Value:    sessionID,
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}
		w.Header().Set("X-Session-ID", sessionID)

		ctx := context.WithValue(r.Context(), sessionIDKey, sessionID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func getSessionID(ctx context.Context) string {
	if sessionID, ok := ctx.Value(sessionIDKey).(string); ok {
		return sessionID
	}
	return ""
}
