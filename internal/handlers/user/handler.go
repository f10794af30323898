package user

import (
	"context"
	"errors"
	"net/http"

	"github.com/ZerkerEOD/appserver/internal/models"
	"github.com/ZerkerEOD/appserver/internal/repository"
	"github.com/ZerkerEOD/appserver/pkg/debug"
	"github.com/ZerkerEOD/appserver/pkg/httputil"
	"github.com/ZerkerEOD/appserver/pkg/jwt"
	"github.com/gorilla/mux"
)

// UserReader looks users up by UUID
type UserReader interface {
	GetUser(ctx context.Context, uuid string) (*models.User, error)
}

// Handler handles user-related HTTP requests
type Handler struct {
	users UserReader
}

// NewHandler creates a new user handler
func NewHandler(users UserReader) *Handler {
	return &Handler{users: users}
}

// GetCurrentUser handles GET /api/user/me
func (h *Handler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := jwt.GetUserID(r.Context())
	if !ok {
		debug.Error("Failed to get user ID from context")
		httputil.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	h.writeUser(w, r, userID)
}

// GetUser handles GET /api/admin/users/{uuid}
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	h.writeUser(w, r, mux.Vars(r)["uuid"])
}

func (h *Handler) writeUser(w http.ResponseWriter, r *http.Request, uuid string) {
	user, err := h.users.GetUser(r.Context(), uuid)
	if errors.Is(err, repository.ErrNotFound) {
		httputil.RespondWithError(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		debug.Error("Failed to get user %s: %v", uuid, err)
		httputil.RespondWithError(w, http.StatusInternalServerError, "Failed to retrieve user")
		return
	}
	httputil.RespondWithJSON(w, http.StatusOK, user)
}

// RegisterRoutes registers the current-user route
func (h *Handler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/user/me", h.GetCurrentUser).Methods("GET")
}

// RegisterAdminRoutes registers routes on a router that already enforces admin access
func (h *Handler) RegisterAdminRoutes(router *mux.Router) {
	router.HandleFunc("/users/{uuid}", h.GetUser).Methods("GET")
}
