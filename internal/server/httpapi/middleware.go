package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
)

type ctxKey string

const userKey ctxKey = "user"

// authenticate is the authentication gate: it extracts the bearer token from
// the Authorization header, verifies it, resolves the embedded id to a live
// identity, and attaches that identity to the request context. Every request
// re-verifies; the resolved identity is the sole source of ownership scoping
// downstream. There is no fallback carrier (no cookies, no query params).
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			writeError(w, http.StatusUnauthorized, "not authorized, token missing")
			return
		}

		userID, err := s.users.VerifyToken(token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "token invalid or expired")
			return
		}

		// a structurally valid token for a removed identity must not pass
		user, err := s.users.GetByID(r.Context(), userID)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "user not found")
			return
		}

		ctx := context.WithValue(r.Context(), userKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// userFromContext returns the identity attached by the gate.
func userFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(userKey).(*models.User)
	return user, ok
}
