package system

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ZerkerEOD/appserver/internal/testutil"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
)

type stubTester struct {
	err error
	to  []string
}

func (s *stubTester) TestConnection(_ context.Context, to string) error {
	s.to = append(s.to, to)
	return s.err
}

func TestMailHandler_TestConnection(t *testing.T) {
	tests := []struct {
		name       string
		body       interface{}
		err        error
		wantStatus int
		wantCalls  int
	}{
		{"sent", map[string]string{"email": "ops@example.com"}, nil, http.StatusOK, 1},
		{"provider failure", map[string]string{"email": "ops@example.com"}, errors.New("relay refused"), http.StatusBadGateway, 1},
		{"missing recipient", map[string]string{"email": " "}, nil, http.StatusBadRequest, 0},
		{"unknown field", map[string]string{"to": "ops@example.com"}, nil, http.StatusBadRequest, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tester := &stubTester{err: tt.err}
			router := mux.NewRouter()
			NewMailHandler(tester).RegisterAdminRoutes(router.PathPrefix("/api/admin").Subrouter())

			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, testutil.MakeRequest(t, http.MethodPost, "/api/admin/email/test", tt.body))

			assert.Equal(t, tt.wantStatus, rr.Code, rr.Body.String())
			assert.Len(t, tester.to, tt.wantCalls)
		})
	}
}
