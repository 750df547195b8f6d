package httpapi

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"boutique/internal/domain/models"
	"boutique/internal/lib/jwt"
)

// contextKey is a private type for request context keys.
type contextKey string

const claimsKey contextKey = "claims"

// TokenVerifier is the slice of the session core the gateway needs.
type TokenVerifier interface {
	VerifyAccessToken(token string) *jwt.AccessClaims
}

// Authenticate extracts the bearer token, verifies it against the session
// core and attaches the claims to the request context. A nil verdict is
// always reported as unauthenticated; the cause is never exposed.
func Authenticate(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
				writeAuthError(w, "access token non fourni", "NO_TOKEN")
				return
			}

			token := strings.TrimPrefix(authHeader, "Bearer ")
			claims := verifier.VerifyAccessToken(token)
			if claims == nil {
				writeAuthError(w, "access token invalide ou expiré", "INVALID_TOKEN")
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin rejects requests whose verified claims lack the admin role.
// Must be chained after Authenticate.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := ClaimsFromContext(r.Context())
		if claims == nil || claims.Role != models.RoleAdmin {
			writeError(w, http.StatusForbidden, "accès refusé : droits administrateur requis")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ClaimsFromContext returns the verified access claims, or nil outside an
// authenticated request.
func ClaimsFromContext(ctx context.Context) *jwt.AccessClaims {
	claims, _ := ctx.Value(claimsKey).(*jwt.AccessClaims)
	return claims
}

// CORS stamps the allowed browser origin on every response and answers
// preflight requests before they reach the method-scoped routes. origin is
// the storefront host.
func CORS(origin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Vary", "Origin")

			if r.Method == http.MethodOptions {
				h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
				h.Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
				h.Set("Access-Control-Max-Age", "86400")
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequestLogger logs one line per request with method, path, status and
// duration.
func RequestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(sw, r)

			logger.Info("request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", sw.status),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// clientIP resolves the originating address, honoring X-Forwarded-For when
// the service sits behind a proxy.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		parts := strings.Split(fwd, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
