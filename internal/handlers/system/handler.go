package system

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ZerkerEOD/appserver/internal/models"
	"github.com/ZerkerEOD/appserver/internal/services"
	"github.com/ZerkerEOD/appserver/internal/version"
	"github.com/ZerkerEOD/appserver/pkg/debug"
	"github.com/ZerkerEOD/appserver/pkg/httputil"
	"github.com/gorilla/mux"
)

const (
	// TestAdminUUID identifies the user that receives test emails
	TestAdminUUID = "test-admin-01"

	timestampLayout = "2006-01-02 15:04:05"
)

// UserUpserter stores a user together with its notification preference
type UserUpserter interface {
	Upsert(ctx context.Context, user *models.User, pref *models.NotificationPreference) error
}

// Notifier delivers a notification to a stored user
type Notifier interface {
	Notify(ctx context.Context, userUUID string, payload services.Payload) error
}

// Handler serves the system endpoints
type Handler struct {
	users      UserUpserter
	notifier   Notifier
	adminName  string
	adminEmail string
	now        func() time.Time
}

// NewHandler creates a new system handler
func NewHandler(users UserUpserter, notifier Notifier, adminName, adminEmail string) *Handler {
	return &Handler{
		users:      users,
		notifier:   notifier,
		adminName:  adminName,
		adminEmail: adminEmail,
		now:        time.Now,
	}
}

// HealthCheck handles GET /api/system/health_check
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.RespondWithJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": h.now().Format(timestampLayout),
	})
}

// Home handles GET /
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	httputil.RespondWithJSON(w, http.StatusOK, map[string]string{
		"app":     version.ProjectLongName,
		"version": version.Version,
		"status":  "running",
		"message": "Welcome to the " + version.ProjectName,
	})
}

// Status handles GET /status
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	httputil.RespondWithText(w, http.StatusOK, "OK")
}

// SystemInfo handles GET /api/system/system_info
func (h *Handler) SystemInfo(w http.ResponseWriter, r *http.Request) {
	debug.Debug("Retrieving system information")
	httputil.RespondWithJSON(w, http.StatusOK, version.GetInfo())
}

// TestEmail handles GET /api/system/test_email. It makes sure the
// configured admin exists and sends it a system report.
func (h *Handler) TestEmail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user := &models.User{
		UUID:  TestAdminUUID,
		Name:  h.adminName,
		Email: h.adminEmail,
	}
	if err := h.users.Upsert(ctx, user, models.DefaultNotificationPreference(user.UUID)); err != nil {
		debug.Error("Failed to create test user: %v", err)
		httputil.RespondWithText(w, http.StatusInternalServerError, "Failed to create test user: "+err.Error())
		return
	}

	if err := h.notifier.Notify(ctx, user.UUID, SystemReport()); err != nil {
		debug.Error("Failed to send test email to %s: %v", user.Email, err)
		httputil.RespondWithText(w, http.StatusInternalServerError, "Failed to send email: "+err.Error())
		return
	}

	httputil.RespondWithText(w, http.StatusOK, "Email sent successfully to "+user.Email)
}

// SystemReport builds the notification payload describing this build
func SystemReport() services.Payload {
	info := version.GetInfo()

	var message strings.Builder
	message.WriteString("System Status Report:<br>")
	fmt.Fprintf(&message, "Project: %s<br>", info.Project.LongName)
	fmt.Fprintf(&message, "Version: %s<br>", info.Version.Full)
	fmt.Fprintf(&message, "Runtime: %s (%s)<br>", info.Build.GoVersion, info.Build.Platform)

	return services.Payload{
		"subject":  "System Info Test",
		"title":    "System Information",
		"message":  message.String(),
		"app_name": info.Project.LongName,
		"has_link": false,
	}
}

// RegisterRoutes registers the system routes
func (h *Handler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/", h.Home).Methods("GET")
	router.HandleFunc("/status", h.Status).Methods("GET")
	router.HandleFunc("/api/system/health_check", h.HealthCheck).Methods("GET")
	router.HandleFunc("/api/system/system_info", h.SystemInfo).Methods("GET")
	router.HandleFunc("/api/system/test_email", h.TestEmail).Methods("GET")
}
