package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"listingboard/internal/logging"
)

const RequestIDHeader = "X-Request-ID"

const maxRequestIDLength = 128

// RequestID reuses an upstream X-Request-ID or generates one, echoes it in the
// response and stores it for request-scoped logging.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" || len(requestID) > maxRequestIDLength {
			requestID = uuid.NewString()
		}

		w.Header().Set(RequestIDHeader, requestID)

		ctx := logging.WithRequestID(r.Context(), requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
