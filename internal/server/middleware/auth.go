package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/jwp-tools/jwpedit/internal/server/response"
	"github.com/jwp-tools/jwpedit/internal/server/session"
)

// Header names accepted for credentials.
const (
	AdminKeyHeader     = "X-Admin-Key"
	SessionTokenHeader = "X-Session-Token"
)

// AdminAuth admits requests carrying the admin key in X-Admin-Key or as a
// bearer token. An empty key locks the admin endpoints entirely.
func AdminAuth(key string, logger *zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			provided := r.Header.Get(AdminKeyHeader)
			if provided == "" {
				provided = bearerToken(r)
			}
			if key == "" || provided == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(key)) != 1 {
				logger.Warn().
					Str("path", r.URL.Path).
					Str("remote_addr", ClientIP(r)).
					Bool("key_provided", provided != "").
					Msg("Admin authentication failed")
				response.Unauthorized(w, "Invalid or missing admin key",
					"Provide the admin key in the "+AdminKeyHeader+" header")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireSession resolves the session token and stores the session on the
// request context.
func RequireSession(store *session.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := store.Get(SessionToken(r))
			if err != nil {
				response.Unauthorized(w, "Sign in required", err.Error())
				return
			}
			next.ServeHTTP(w, r.WithContext(session.WithSession(r.Context(), sess)))
		})
	}
}

// SessionToken extracts the session token from a request. The token query
// parameter is accepted for EventSource clients, which cannot set headers.
func SessionToken(r *http.Request) string {
	if t := r.Header.Get(SessionTokenHeader); t != "" {
		return t
	}
	if t := bearerToken(r); t != "" {
		return t
	}
	return r.URL.Query().Get("token")
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}
