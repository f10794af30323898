package user

import (
	"encoding/base64"
	"net/http"

	"github.com/ZerkerEOD/appserver/pkg/debug"
	"github.com/ZerkerEOD/appserver/pkg/httputil"
	"github.com/ZerkerEOD/appserver/pkg/jwt"
	"github.com/ZerkerEOD/appserver/pkg/totp"
	"github.com/gorilla/mux"
)

const qrCodeSize = 256

// MFAHandler enrolls authenticator apps. The secret is returned to the
// caller, which stores it once a code has been confirmed.
type MFAHandler struct {
	issuer string
}

// NewMFAHandler creates a new MFA handler for the given TOTP issuer
func NewMFAHandler(issuer string) *MFAHandler {
	return &MFAHandler{issuer: issuer}
}

// SetupResponse carries a fresh authenticator secret
type SetupResponse struct {
	Secret string `json:"secret"`
	URI    string `json:"uri"`
	QRCode string `json:"qrCode"` // base64 PNG
}

// SetupAuthenticator handles GET /api/user/mfa/setup
func (h *MFAHandler) SetupAuthenticator(w http.ResponseWriter, r *http.Request) {
	payload, ok := jwt.PayloadFromContext(r.Context())
	if !ok {
		httputil.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	secret, err := totp.GenerateSecret()
	if err != nil {
		debug.Error("Failed to generate TOTP secret for %s: %v", payload.UserID(), err)
		httputil.RespondWithError(w, http.StatusInternalServerError, "Failed to generate secret")
		return
	}

	uri := totp.ProvisioningURI(payload.Email(), secret, h.issuer)
	qr, err := totp.ProvisioningQR(uri, qrCodeSize)
	if err != nil {
		httputil.RespondWithError(w, http.StatusInternalServerError, "Failed to generate QR code")
		return
	}

	debug.Info("Generated authenticator secret for user %s", payload.UserID())
	httputil.RespondWithJSON(w, http.StatusOK, SetupResponse{
		Secret: secret,
		URI:    uri,
		QRCode: base64.StdEncoding.EncodeToString(qr),
	})
}

// VerifyAuthenticator handles POST /api/user/mfa/verify
func (h *MFAHandler) VerifyAuthenticator(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Secret string `json:"secret"`
		Code   string `json:"code"`
	}
	if err := httputil.ParseJSONBody(r, &req); err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, map[string]bool{
		"valid": totp.ValidateCode(req.Secret, req.Code),
	})
}

// RegisterRoutes registers the authenticator enrollment routes
func (h *MFAHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/user/mfa/setup", h.SetupAuthenticator).Methods("GET")
	router.HandleFunc("/api/user/mfa/verify", h.VerifyAuthenticator).Methods("POST")
}
