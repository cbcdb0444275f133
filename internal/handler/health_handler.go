package handlers

import (
	"context"
	"net/http"
	"time"

	"listingboard/internal/logging"
)

const healthTimeout = 3 * time.Second

// Health reports database reachability and the number of public tables.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	status, err := h.HealthService.Check(ctx)
	if err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Msg("health check failed")
		WriteJSON(w, status, http.StatusServiceUnavailable)
		return
	}

	WriteJSON(w, status, http.StatusOK)
}
