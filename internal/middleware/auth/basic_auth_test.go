package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func protected(user, pass string) http.Handler {
	return BasicAuth(user, pass)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
}

func TestBasicAuth(t *testing.T) {
	tests := []struct {
		name       string
		user, pass string
		setAuth    bool
		want       int
	}{
		{"valid", "admin", "secret", true, http.StatusNoContent},
		{"wrong password", "admin", "nope", true, http.StatusUnauthorized},
		{"wrong user", "root", "secret", true, http.StatusUnauthorized},
		{"no header", "", "", false, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodDelete, "/api/admin/uploads", nil)
			if tt.setAuth {
				req.SetBasicAuth(tt.user, tt.pass)
			}
			rr := httptest.NewRecorder()

			protected("admin", "secret").ServeHTTP(rr, req)

			assert.Equal(t, tt.want, rr.Code)
			if tt.want == http.StatusUnauthorized {
				assert.Equal(t, `Basic realm="Admin Area"`, rr.Header().Get("WWW-Authenticate"))
			}
		})
	}
}

func TestBasicAuth_EmptyCredentialsLockRoutes(t *testing.T) {
	req := httptest.NewRequest(http.MethodDelete, "/api/admin/uploads", nil)
	req.SetBasicAuth("", "")
	rr := httptest.NewRecorder()

	protected("", "").ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}
