package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/devboardhq/devboard/internal/auth"
)

type sessionKey struct{}

// SessionAuth resolves the request's bearer token to a role-bearing
// session and stores it in the request context. Requests with no
// matching token are rejected before reaching any handler.
func SessionAuth(gate *auth.Gate) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			const prefix = "Bearer "
			if !strings.HasPrefix(header, prefix) {
				httpError(w, http.StatusUnauthorized, "authentication_error", "missing bearer token")
				return
			}
			sess := gate.SessionForToken(header[len(prefix):])
			if !sess.Authenticated {
				httpError(w, http.StatusUnauthorized, "authentication_error", "invalid bearer token")
				return
			}
			ctx := context.WithValue(r.Context(), sessionKey{}, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// sessionFrom returns the session placed by SessionAuth, or an
// unauthenticated session if the middleware did not run.
func sessionFrom(ctx context.Context) auth.Session {
	sess, _ := ctx.Value(sessionKey{}).(auth.Session)
	return sess
}
