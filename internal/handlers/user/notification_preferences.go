package user

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/ZerkerEOD/appserver/internal/models"
	"github.com/ZerkerEOD/appserver/internal/repository"
	"github.com/ZerkerEOD/appserver/pkg/debug"
	"github.com/ZerkerEOD/appserver/pkg/httputil"
	"github.com/ZerkerEOD/appserver/pkg/jwt"
	"github.com/gorilla/mux"
	"golang.org/x/text/language"
)

// PreferenceRepository reads and writes notification preferences
type PreferenceRepository interface {
	GetPreference(ctx context.Context, uuid string) (*models.NotificationPreference, error)
	UpdatePreference(ctx context.Context, pref *models.NotificationPreference) error
}

// NotificationPreferencesHandler handles user notification preference operations
type NotificationPreferencesHandler struct {
	repo PreferenceRepository
}

// NewNotificationPreferencesHandler creates a new notification preferences handler
func NewNotificationPreferencesHandler(repo PreferenceRepository) *NotificationPreferencesHandler {
	return &NotificationPreferencesHandler{repo: repo}
}

// GetNotificationPreferences retrieves the current user's notification preferences
func (h *NotificationPreferencesHandler) GetNotificationPreferences(w http.ResponseWriter, r *http.Request) {
	userID, ok := jwt.GetUserID(r.Context())
	if !ok {
		debug.Error("Failed to get user ID from context")
		httputil.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	prefs, err := h.repo.GetPreference(r.Context(), userID)
	if err != nil {
		debug.Error("Failed to get notification preferences for user %s: %v", userID, err)
		httputil.RespondWithError(w, http.StatusInternalServerError, "Failed to get notification preferences")
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, prefs)
}

// UpdateNotificationPreferences updates the current user's notification preferences
func (h *NotificationPreferencesHandler) UpdateNotificationPreferences(w http.ResponseWriter, r *http.Request) {
	userID, ok := jwt.GetUserID(r.Context())
	if !ok {
		debug.Error("Failed to get user ID from context")
		httputil.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var update models.NotificationPreferencesUpdate
	if err := httputil.ParseJSONBody(r, &update); err != nil {
		debug.Error("Failed to decode notification preferences request: %v", err)
		httputil.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if update.Language != nil && strings.TrimSpace(*update.Language) != "" {
		if _, err := language.Parse(strings.TrimSpace(*update.Language)); err != nil {
			debug.Warning("Rejected notification language %q for user %s: %v", *update.Language, userID, err)
			httputil.RespondWithError(w, http.StatusBadRequest, "Invalid language tag")
			return
		}
	}

	prefs, err := h.repo.GetPreference(r.Context(), userID)
	if err != nil {
		debug.Error("Failed to get notification preferences for user %s: %v", userID, err)
		httputil.RespondWithError(w, http.StatusInternalServerError, "Failed to get notification preferences")
		return
	}
	update.Apply(prefs)

	if err := h.repo.UpdatePreference(r.Context(), prefs); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			httputil.RespondWithError(w, http.StatusNotFound, "User not found")
			return
		}
		debug.Error("Failed to update notification preferences for user %s: %v", userID, err)
		httputil.RespondWithError(w, http.StatusInternalServerError, "Failed to update notification preferences")
		return
	}

	debug.Info("Updated notification preferences for user %s", userID)
	httputil.RespondWithJSON(w, http.StatusOK, prefs)
}

// RegisterRoutes registers the notification preference routes
func (h *NotificationPreferencesHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/user/notification-preferences", h.GetNotificationPreferences).Methods("GET")
	router.HandleFunc("/api/user/notification-preferences", h.UpdateNotificationPreferences).Methods("PUT")
}
