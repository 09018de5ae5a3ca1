package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/krishnaher0/taskboard/services"
)

type contextKey string

const emailContextKey contextKey = "email"

type AuthMiddleware struct {
	authService *services.AuthService
}

func NewAuthMiddleware(authService *services.AuthService) *AuthMiddleware {
	return &AuthMiddleware{
		authService: authService,
	}
}

func (m *AuthMiddleware) Auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Get token from Authorization header
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "missing authorization header", http.StatusUnauthorized)
			return
		}

		// Extract token from Bearer format
		authParts := strings.Split(authHeader, " ")
		if len(authParts) != 2 || authParts[0] != "Bearer" {
			http.Error(w, "invalid authorization format", http.StatusUnauthorized)
			return
		}

		tokenString := authParts[1]

		email, err := m.authService.VerifyJWT(tokenString)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), emailContextKey, email)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requestEmail returns the authenticated user's email from the context.
func requestEmail(r *http.Request) (string, bool) {
	email, ok := r.Context().Value(emailContextKey).(string)
	return email, ok
}
