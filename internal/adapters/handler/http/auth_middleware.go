package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/vncsmyrnk/pollvote/internal/core/ports"
)

type contextKey string

const UserIDKey contextKey = "user_id"

const accessTokenCookie = "access_token"

// Authenticate resolves the caller's user id from the access_token cookie or
// a bearer token and stores it under UserIDKey.
func Authenticate(verifier ports.IdentityVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			credential := credentialFrom(r)
			if credential == "" {
				http.Error(w, "Unauthorized: missing access token", http.StatusUnauthorized)
				return
			}

			userID, err := verifier.Verify(r.Context(), credential)
			if err != nil {
				http.Error(w, "Unauthorized: invalid access token", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func credentialFrom(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if cookie, err := r.Cookie(accessTokenCookie); err == nil {
		return cookie.Value
	}
	return ""
}

func userIDFrom(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDKey).(string)
	return userID, ok && userID != ""
}
