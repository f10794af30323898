package routes

import (
	"net/http"
	"time"

	"github.com/ZerkerEOD/appserver/internal/handlers/system"
	"github.com/ZerkerEOD/appserver/internal/handlers/user"
	"github.com/ZerkerEOD/appserver/internal/middleware"
	"github.com/ZerkerEOD/appserver/internal/repository"
	"github.com/ZerkerEOD/appserver/internal/services"
	"github.com/ZerkerEOD/appserver/pkg/debug"
	"github.com/gorilla/mux"
)

var timeNow = time.Now

// Dependencies are the services the HTTP surface calls into
type Dependencies struct {
	Tokens     middleware.TokenVerifier
	Users      *repository.UserRepository
	Notifier   *services.NotificationService
	Mail       system.ConnectionTester
	TOTPIssuer string
	AdminName  string
	AdminEmail string
}

// NewRouter builds the application handler. Every request passes CORS
// handling and then the authentication gate before routing.
func NewRouter(deps Dependencies) http.Handler {
	debug.Info("Setting up routes")

	router := mux.NewRouter()
	router.Use(loggingMiddleware)

	system.NewHandler(deps.Users, deps.Notifier, deps.AdminName, deps.AdminEmail).RegisterRoutes(router)
	debug.Debug("Registered system routes")

	userHandler := user.NewHandler(deps.Users)
	userHandler.RegisterRoutes(router)
	user.NewNotificationPreferencesHandler(deps.Users).RegisterRoutes(router)
	user.NewMFAHandler(deps.TOTPIssuer).RegisterRoutes(router)
	debug.Debug("Registered user routes")

	admin := router.PathPrefix("/api/admin").Subrouter()
	admin.Use(middleware.RequireAdmin)
	userHandler.RegisterAdminRoutes(admin)
	if deps.Mail != nil {
		system.NewMailHandler(deps.Mail).RegisterAdminRoutes(admin)
	}
	debug.Debug("Registered admin routes")

	return GlobalCORSMiddleware(middleware.RequireAuth(deps.Tokens)(router))
}
