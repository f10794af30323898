package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ZerkerEOD/appserver/pkg/jwt"
)

// TokenService returns the token service used by test requests
func TokenService() *jwt.Service {
	return jwt.NewService(TestJWTSecret, TestJWTIssuer)
}

// MakeAuthenticatedRequest creates an HTTP request carrying a valid bearer token
func MakeAuthenticatedRequest(t *testing.T, method, url string, body interface{}, userID, email string, isAdmin bool) *http.Request {
	t.Helper()

	req := MakeRequest(t, method, url, body)

	token, err := TokenService().Issue(userID, email, isAdmin)
	if err != nil {
		t.Fatalf("Failed to generate auth token: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	return req
}

// MakeRequest creates a basic HTTP request
func MakeRequest(t *testing.T, method, url string, body interface{}) *http.Request {
	t.Helper()

	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to marshal request body: %v", err)
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req := httptest.NewRequest(method, url, bodyReader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return req
}

// AssertJSONResponse checks that the response has the expected status and decodes JSON
func AssertJSONResponse(t *testing.T, rr *httptest.ResponseRecorder, expectedStatus int, v interface{}) {
	t.Helper()

	if rr.Code != expectedStatus {
		t.Errorf("Expected status %d, got %d. Body: %s", expectedStatus, rr.Code, rr.Body.String())
	}

	if v != nil && rr.Body.Len() > 0 {
		if err := json.NewDecoder(rr.Body).Decode(v); err != nil {
			t.Errorf("Failed to decode JSON response: %v. Body: %s", err, rr.Body.String())
		}
	}
}

// WaitForCondition waits for a condition to be true or times out
func WaitForCondition(t *testing.T, condition func() bool, timeout time.Duration, message string) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}

	t.Fatalf("Timeout waiting for condition: %s", message)
}
