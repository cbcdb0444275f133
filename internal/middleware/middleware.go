package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/goccy/go-json"

	"listingboard/internal/apperr"
	"listingboard/internal/logging"
	"listingboard/internal/models"
	"listingboard/internal/service"
)

type Middleware func(http.Handler) http.Handler

type userKey struct{}

// UserFromContext returns the identity attached by AuthMiddleware.
func UserFromContext(ctx context.Context) (models.TokenClaims, bool) {
	claims, ok := ctx.Value(userKey{}).(models.TokenClaims)
	return claims, ok
}

// WithUser attaches an authenticated identity to ctx.
func WithUser(ctx context.Context, claims models.TokenClaims) context.Context {
	return context.WithValue(ctx, userKey{}, claims)
}

// AuthMiddleware verifies the bearer token and adds the user to the context.
// The wrapped handler only runs for a valid token.
func AuthMiddleware(authService service.AuthService) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeError(w, "Authentication required", http.StatusUnauthorized)
				return
			}

			// Checking the "Bearer <token>" format
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
				writeError(w, "Invalid token format", http.StatusUnauthorized)
				return
			}

			claims, err := authService.VerifyToken(parts[1])
			if err != nil {
				if apperr.Is(err, apperr.ServerMisconfigured) {
					logging.Ctx(r.Context()).Error().Err(err).Msg("token verification unavailable")
					writeError(w, "Server configuration error", http.StatusInternalServerError)
					return
				}
				writeError(w, "Invalid or expired token", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), *claims)))
		})
	}
}

// CORS allows the configured origins. An empty list or "*" allows any origin.
func CORS(origins []string) Middleware {
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", RequestIDHeader},
		ExposedHeaders: []string{RequestIDHeader},
		MaxAge:         300,
	})
}

// RateLimit limits requests per client IP within window. A non-positive limit
// disables it.
func RateLimit(limit int, window time.Duration) Middleware {
	if limit <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}

	return httprate.Limit(limit, window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			writeError(w, "Too many requests, try again later", http.StatusTooManyRequests)
		}),
	)
}

// Chain wraps h so that the last middleware runs first.
func Chain(h http.Handler, middlewares ...Middleware) http.Handler {
	for _, m := range middlewares {
		h = m(h)
	}
	return h
}

func writeError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
