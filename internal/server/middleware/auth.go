package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/fulmenhq/gofulmen/errors"
)

// APIKeyHeader carries the caller's credential.
const APIKeyHeader = "X-API-Key"

// APIKeyAuth requires a valid X-API-Key header on every request. Two keys are
// accepted so credentials can be rotated without downtime. With no keys
// configured the middleware is a pass-through.
func APIKeyAuth(primaryKey, secondaryKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if primaryKey == "" && secondaryKey == "" {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			supplied := r.Header.Get(APIKeyHeader)
			if !keyMatches(supplied, primaryKey) && !keyMatches(supplied, secondaryKey) {
				envelope := errors.NewErrorEnvelope("UNAUTHORIZED", "Invalid or missing API key").
					WithCorrelationID(GetRequestID(r.Context()))
				writeErrorResponse(w, envelope, http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func keyMatches(supplied, configured string) bool {
	if configured == "" || supplied == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(supplied), []byte(configured)) == 1
}
