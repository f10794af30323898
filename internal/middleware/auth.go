package middleware

import (
	"net/http"
	"strings"

	"github.com/ZerkerEOD/appserver/pkg/debug"
	"github.com/ZerkerEOD/appserver/pkg/jwt"
)

const (
	// UnauthorizedBody is sent when the bearer token is missing or malformed
	UnauthorizedBody = "Unauthorized: Missing or invalid token format."
	// ForbiddenBody is sent when the bearer token fails verification
	ForbiddenBody = "Forbidden: Invalid or expired token."

	bearerPrefix = "Bearer "
)

// exemptPaths bypass authentication entirely
var exemptPaths = map[string]struct{}{
	"/api/auth/login":           {},
	"/api/auth/forgot-password": {},
	"/api/auth/register":        {},
	"/api/system/system_info":   {},
	"/api/system/health_check":  {},
	"/api/system/test_email":    {},
}

// exemptPrefixes bypass authentication for every path below them
var exemptPrefixes = []string{
	"/static",
	"/api/events/stream",
	"/api/uploads/",
}

// TokenVerifier checks a raw bearer token
type TokenVerifier interface {
	Verify(raw string) (*jwt.TokenPayload, error)
}

// IsExempt reports whether path is reachable without a token
func IsExempt(path string) bool {
	if _, ok := exemptPaths[path]; ok {
		return true
	}
	for _, prefix := range exemptPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// RequireAuth middleware verifies the bearer token of every non-exempt
// request and attaches the decoded payload to the request context.
func RequireAuth(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if IsExempt(r.URL.Path) {
				debug.Debug("[AUTH] Skipping auth for exempt path: %s", r.URL.Path)
				next.ServeHTTP(w, r)
				return
			}

			// Skip middleware for OPTIONS requests
			if r.Method == http.MethodOptions {
				debug.Debug("[AUTH] Skipping auth check for OPTIONS request")
				next.ServeHTTP(w, r)
				return
			}

			debug.Debug("[AUTH] Checking authentication for %s %s", r.Method, r.URL.Path)

			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, bearerPrefix) {
				debug.Warning("[AUTH] Missing or malformed Authorization header for %s %s", r.Method, r.URL.Path)
				deny(w, http.StatusUnauthorized, UnauthorizedBody)
				return
			}

			payload, err := verifier.Verify(strings.TrimPrefix(header, bearerPrefix))
			if err != nil {
				debug.Warning("[AUTH] Token rejected for %s %s: %v", r.Method, r.URL.Path, err)
				deny(w, http.StatusForbidden, ForbiddenBody)
				return
			}

			debug.Debug("[AUTH] Authenticated user %s for %s %s", payload.UserID(), r.Method, r.URL.Path)
			next.ServeHTTP(w, r.WithContext(jwt.WithPayload(r.Context(), payload)))
		})
	}
}

func deny(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}
