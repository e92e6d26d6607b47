package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"lineagehub/internal/domain"
)

// Authenticate validates the Bearer token on each request and stores the
// resulting principal in the request context. Requests without a valid token
// get a 401.
func Authenticate(validator JWTValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				writeUnauthorized(w, "missing bearer token")
				return
			}

			claims, err := validator.Validate(r.Context(), strings.TrimPrefix(auth, "Bearer "))
			if err != nil || claims.Subject == "" {
				writeUnauthorized(w, "invalid token")
				return
			}

			ctx := domain.WithPrincipal(r.Context(), domain.ContextPrincipal{
				Name:  claims.Subject,
				Email: claims.Email,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"code":    http.StatusUnauthorized,
		"message": "unauthorized: " + message,
	})
}
