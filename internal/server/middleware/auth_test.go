package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func authTestHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAPIKeyAuth_AcceptsPrimaryAndSecondary(t *testing.T) {
	handler := APIKeyAuth("primary", "secondary")(authTestHandler())

	for _, key := range []string{"primary", "secondary"} {
		req := httptest.NewRequest("POST", "/api/search", nil)
		req.Header.Set(APIKeyHeader, key)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, "key %q should be accepted", key)
	}
}

func TestAPIKeyAuth_RejectsMissingAndWrongKey(t *testing.T) {
	handler := APIKeyAuth("primary", "")(authTestHandler())

	req := httptest.NewRequest("POST", "/api/search", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest("POST", "/api/search", nil)
	req.Header.Set(APIKeyHeader, "wrong")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAPIKeyAuth_DisabledWithoutKeys(t *testing.T) {
	handler := APIKeyAuth("", "")(authTestHandler())

	req := httptest.NewRequest("POST", "/api/search", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAPIKeyAuth_EmptyConfiguredKeyNeverMatches(t *testing.T) {
	// Only a primary key is configured; an empty header must not match the
	// empty secondary slot.
	handler := APIKeyAuth("primary", "")(authTestHandler())

	req := httptest.NewRequest("POST", "/api/search", nil)
	req.Header.Set(APIKeyHeader, "")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
