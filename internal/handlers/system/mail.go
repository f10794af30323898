package system

import (
	"context"
	"net/http"
	"strings"

	"github.com/ZerkerEOD/appserver/pkg/debug"
	"github.com/ZerkerEOD/appserver/pkg/httputil"
	"github.com/gorilla/mux"
)

// ConnectionTester sends a raw test message through the mail provider
type ConnectionTester interface {
	TestConnection(ctx context.Context, testEmail string) error
}

// MailHandler checks the configured mail provider without templates or
// notification preferences in the way
type MailHandler struct {
	tester ConnectionTester
}

// NewMailHandler creates a new mail handler
func NewMailHandler(tester ConnectionTester) *MailHandler {
	return &MailHandler{tester: tester}
}

// TestConnection handles POST /api/admin/email/test
func (h *MailHandler) TestConnection(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := httputil.ParseJSONBody(r, &req); err != nil || strings.TrimSpace(req.Email) == "" {
		httputil.RespondWithError(w, http.StatusBadRequest, "A recipient email is required")
		return
	}

	if err := h.tester.TestConnection(r.Context(), req.Email); err != nil {
		debug.Error("Mail provider test to %s failed: %v", req.Email, err)
		httputil.RespondWithError(w, http.StatusBadGateway, "Mail provider test failed: "+err.Error())
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, map[string]string{
		"message": "Test email sent to " + req.Email,
	})
}

// RegisterAdminRoutes registers routes on a router that already enforces admin access
func (h *MailHandler) RegisterAdminRoutes(router *mux.Router) {
	router.HandleFunc("/email/test", h.TestConnection).Methods("POST")
}
