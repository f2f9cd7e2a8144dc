package web

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/foliodesk/foliodesk/internal/storage"
)

type ctxKey int

const (
	userKey ctxKey = iota
	adminKey
)

// authenticate validates the request token. The static admin key (compared
// in constant time) grants admin access; otherwise the token must be a live
// session, which resolves to a user.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractToken(r)
		if token == "" {
			respondError(w, http.StatusUnauthorized, "missing authentication token")
			return
		}

		if s.config.Web.AdminKey != "" &&
			subtle.ConstantTimeCompare([]byte(token), []byte(s.config.Web.AdminKey)) == 1 {
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), adminKey, true)))
			return
		}

		session, err := s.repo.GetSession(token)
		if err != nil || session.ExpiresAt.Before(time.Now()) {
			respondError(w, http.StatusUnauthorized, "invalid or expired session")
			return
		}

		user, err := s.repo.GetUser(session.UserID)
		if err != nil {
			respondError(w, http.StatusUnauthorized, "unknown user")
			return
		}

		ctx := context.WithValue(r.Context(), userKey, user)
		if user.IsAdmin {
			ctx = context.WithValue(ctx, adminKey, true)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if admin, _ := r.Context().Value(adminKey).(bool); !admin {
			respondError(w, http.StatusForbidden, "admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func currentUser(r *http.Request) *storage.User {
	user, _ := r.Context().Value(userKey).(*storage.User)
	return user
}

// extractToken looks for a token in the Authorization header (Bearer
// scheme) or in the X-API-Key header.
func extractToken(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		parts := strings.SplitN(auth, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	if key := r.Header.Get("X-API-Key"); key != "" {
		return strings.TrimSpace(key)
	}
	return ""
}
