package middleware

import (
	"net/http"

	"github.com/ZerkerEOD/appserver/pkg/debug"
	"github.com/ZerkerEOD/appserver/pkg/jwt"
)

// RequireAdmin middleware ensures that only admin users can access the route.
// It must run after RequireAuth.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		debug.Debug("Checking admin authorization")

		payload, ok := jwt.PayloadFromContext(r.Context())
		if !ok {
			debug.Warning("No authenticated user on admin route %s", r.URL.Path)
			deny(w, http.StatusUnauthorized, UnauthorizedBody)
			return
		}

		if !payload.IsAdmin() {
			debug.Warning("Non-admin user %s attempted to access admin route %s", payload.UserID(), r.URL.Path)
			deny(w, http.StatusForbidden, "Forbidden")
			return
		}

		debug.Debug("Admin access granted for user %s", payload.UserID())
		next.ServeHTTP(w, r)
	})
}
