package system

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ZerkerEOD/appserver/internal/models"
	"github.com/ZerkerEOD/appserver/internal/repository"
	"github.com/ZerkerEOD/appserver/internal/services"
	"github.com/ZerkerEOD/appserver/internal/testutil"
	"github.com/ZerkerEOD/appserver/internal/version"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T, mail *testutil.MockMailTransport) (*mux.Router, *repository.UserRepository, *Handler) {
	t.Helper()
	repo := repository.NewUserRepository(testutil.SetupTestDB(t))
	notifier := services.NewNotificationService(repo, mail, nil)
	h := NewHandler(repo, notifier, "Admin Test", "admin@example.com")

	router := mux.NewRouter()
	h.RegisterRoutes(router)
	return router, repo, h
}

func TestHealthCheck(t *testing.T) {
	router, _, h := newTestRouter(t, testutil.NewMockMailTransport())
	h.now = func() time.Time { return time.Date(2026, 3, 4, 5, 6, 7, 0, time.Local) }

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, testutil.MakeRequest(t, http.MethodGet, "/api/system/health_check", nil))

	var body map[string]string
	testutil.AssertJSONResponse(t, rr, http.StatusOK, &body)
	assert.Equal(t, map[string]string{"status": "ok", "timestamp": "2026-03-04 05:06:07"}, body)
}

func TestSystemInfo(t *testing.T) {
	router, _, _ := newTestRouter(t, testutil.NewMockMailTransport())

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, testutil.MakeRequest(t, http.MethodGet, "/api/system/system_info", nil))

	var info version.Info
	testutil.AssertJSONResponse(t, rr, http.StatusOK, &info)
	assert.Equal(t, version.ProjectName, info.Project.Name)
	assert.Equal(t, version.Version, info.Version.Full)
	assert.NotEmpty(t, info.Build.GoVersion)
}

func TestHomeAndStatus(t *testing.T) {
	router, _, _ := newTestRouter(t, testutil.NewMockMailTransport())

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, testutil.MakeRequest(t, http.MethodGet, "/", nil))

	var body map[string]string
	testutil.AssertJSONResponse(t, rr, http.StatusOK, &body)
	assert.Equal(t, version.ProjectLongName, body["app"])
	assert.Equal(t, version.Version, body["version"])
	assert.Equal(t, "running", body["status"])
	assert.NotEmpty(t, body["message"])

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, testutil.MakeRequest(t, http.MethodGet, "/status", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "OK", rr.Body.String())
}

func TestTestEmail(t *testing.T) {
	t.Run("sends system report to admin", func(t *testing.T) {
		mail := testutil.NewMockMailTransport()
		router, repo, _ := newTestRouter(t, mail)

		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, testutil.MakeRequest(t, http.MethodGet, "/api/system/test_email", nil))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "Email sent successfully to admin@example.com", rr.Body.String())

		user, err := repo.GetUser(context.Background(), TestAdminUUID)
		require.NoError(t, err)
		assert.Equal(t, "Admin Test", user.Name)

		sent, ok := mail.LastSent()
		require.True(t, ok)
		assert.Equal(t, "admin@example.com", sent.To)
		assert.Equal(t, "en", sent.Language)
		assert.True(t, sent.HTML)
		assert.Equal(t, "System Info Test", sent.Payload["subject"])
		assert.Equal(t, "System Information", sent.Payload["title"])
		assert.Equal(t, "Admin Test", sent.Payload["name"])
		assert.Contains(t, sent.Payload["message"], "System Status Report:")
	})

	t.Run("transport failure", func(t *testing.T) {
		mail := testutil.NewMockMailTransport()
		mail.SetSendError(errors.New("relay down"))
		router, _, _ := newTestRouter(t, mail)

		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, testutil.MakeRequest(t, http.MethodGet, "/api/system/test_email", nil))

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.Contains(t, rr.Body.String(), "Failed to send email")
		assert.Contains(t, rr.Body.String(), "relay down")
	})

	t.Run("admin email collides with another user", func(t *testing.T) {
		mail := testutil.NewMockMailTransport()
		router, repo, _ := newTestRouter(t, mail)
		require.NoError(t, repo.Upsert(context.Background(), &models.User{UUID: "other", Name: "Someone", Email: "admin@example.com"}, nil))

		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, testutil.MakeRequest(t, http.MethodGet, "/api/system/test_email", nil))

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.Contains(t, rr.Body.String(), "Failed to create test user")
		assert.Equal(t, 0, mail.Calls())
	})
}
