package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rollcall/rollcall-go/internal/crypto"
)

type contextKey string

const (
	leaderIDKey   contextKey = "leaderID"
	leaderNameKey contextKey = "leaderName"
)

// JWTAuth returns middleware that validates a Bearer token from the Authorization header.
func JWTAuth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeJSONError(w, http.StatusUnauthorized, "missing authorization header")
				return
			}

			token, found := strings.CutPrefix(authHeader, "Bearer ")
			if !found || token == "" {
				writeJSONError(w, http.StatusUnauthorized, "invalid authorization format")
				return
			}

			claims, err := crypto.ValidateToken(token, secret)
			if err != nil {
				writeJSONError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), leaderIDKey, claims.LeaderID)
			ctx = context.WithValue(ctx, leaderNameKey, claims.Name)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// LeaderIDFromContext extracts the authenticated leader ID from the request context.
func LeaderIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(leaderIDKey).(int64)
	return id, ok
}

// LeaderNameFromContext returns the display name carried by the token, if any.
func LeaderNameFromContext(ctx context.Context) string {
	name, _ := ctx.Value(leaderNameKey).(string)
	return name
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
