package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/jfenske/chessmate/internal/auth"
)

// contextKey is a custom type used for keys in context.Context, preventing
// collisions with keys set by other packages.
type contextKey string

const claimsContextKey = contextKey("claims")

// authMiddleware protects routes that require authentication. It accepts the
// token from the 'Authorization: Bearer' header or, as a fallback, from a
// 'token' URL query parameter (needed for EventSource connections, which
// cannot set headers).
//
// A token is only as good as its subject: after validating the signature and
// expiry we confirm the user still exists and has not been soft-deleted, so a
// deleted account's outstanding tokens die with it.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString := ""

		authHeader := r.Header.Get("Authorization")
		headerParts := strings.Split(authHeader, " ")
		if len(headerParts) == 2 && strings.ToLower(headerParts[0]) == "bearer" {
			tokenString = headerParts[1]
		}

		if tokenString == "" {
			tokenString = r.URL.Query().Get("token")
		}

		if tokenString == "" {
			s.errorJSON(w, errors.New("authorization token is required"), http.StatusUnauthorized)
			return
		}

		claims, err := auth.ValidateJWT(tokenString, s.config.JwtSecret)
		if err != nil {
			// auth reports expired and malformed tokens distinctly.
			s.errorJSON(w, err, http.StatusUnauthorized)
			return
		}

		user, err := s.db.GetUserByID(s.db.DB(), claims.UserID)
		if err != nil || user.Deleted {
			s.errorJSON(w, errors.New("user has been deleted"), http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), claimsContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// claimsFromContext retrieves the authenticated user's claims. Only handlers
// behind authMiddleware may call it.
func (s *Server) claimsFromContext(r *http.Request) (*auth.Claims, error) {
	claims, ok := r.Context().Value(claimsContextKey).(*auth.Claims)
	if !ok {
		// Indicates a wiring error, not a client mistake.
		return nil, errors.New("could not retrieve credentials from context")
	}
	return claims, nil
}
