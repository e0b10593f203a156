package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/webrecon/webrecon/internal/core"
	"github.com/webrecon/webrecon/internal/core/engine"
	apperrors "github.com/webrecon/webrecon/internal/errors"
)

// QuotaScopeStatus reports one scope's usage in the current window.
type QuotaScopeStatus struct {
	Scope         string `json:"scope"`
	Capacity      int    `json:"capacity"`
	PeriodSeconds int64  `json:"period_seconds"`
	Used          int    `json:"used"`
	Remaining     int    `json:"remaining"`
}

// QuotaResponse is the GET /api/quota response.
type QuotaResponse struct {
	Scopes []QuotaScopeStatus `json:"scopes"`
}

// QuotaHandler reports current-window usage for every configured scope.
// Reading usage consumes nothing.
type QuotaHandler struct {
	Limiter *engine.RateLimiter
}

// ServeHTTP handles GET /api/quota.
func (h *QuotaHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	response := QuotaResponse{Scopes: make([]QuotaScopeStatus, 0, len(core.Scopes))}
	for _, scope := range core.Scopes {
		limit, ok := h.Limiter.Limits[scope]
		if !ok {
			continue
		}

		used, err := h.Limiter.Usage(ctx, scope)
		if err != nil {
			respondWithError(w, r, apperrors.WrapInternal(r.Context(), err, "Quota usage could not be read"))
			return
		}

		remaining := limit.Capacity - used
		if remaining < 0 {
			remaining = 0
		}

		response.Scopes = append(response.Scopes, QuotaScopeStatus{
			Scope:         string(scope),
			Capacity:      limit.Capacity,
			PeriodSeconds: int64(limit.Period.Seconds()),
			Used:          used,
			Remaining:     remaining,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(response)
}
