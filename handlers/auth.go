package handlers

import (
	"context"
	"net/http"
	"strings"

	"bandchat/services"
	"bandchat/utils"
)

type ctxKey struct{}

// claimsFrom returns the claims WithAuth stored on the request.
func claimsFrom(ctx context.Context) *utils.Claims {
	c, _ := ctx.Value(ctxKey{}).(*utils.Claims)
	return c
}

// WithAuth rejects requests without a valid token in the Authorization
// header. Both a bare token and "Bearer <token>" are accepted.
func WithAuth(auth *services.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := strings.TrimSpace(strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "))
			if token == "" {
				respondWithError(w, "Unauthorized", "Missing Authorization header", http.StatusUnauthorized)
				return
			}
			claims, err := auth.ParseToken(token)
			if err != nil {
				respondWithError(w, "Unauthorized", "Invalid token", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, claims)))
		})
	}
}
