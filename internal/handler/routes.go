package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"listingboard/internal/middleware"
)

// NewRouter registers every route and wraps the router in the global
// middleware chain.
func NewRouter(h *Handlers) http.Handler {
	r := mux.NewRouter()
	r.Use(middleware.Metrics)

	auth := middleware.AuthMiddleware(h.AuthService)
	protected := func(fn http.HandlerFunc) http.Handler {
		return auth(fn)
	}

	r.HandleFunc("/health", h.Health).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	authRoutes := r.PathPrefix("/auth").Subrouter()
	authRoutes.Use(mux.MiddlewareFunc(middleware.RateLimit(h.Cfg.AuthRateLimit, time.Minute)))
	authRoutes.HandleFunc("/register", h.Register).Methods(http.MethodPost)
	authRoutes.HandleFunc("/login", h.Login).Methods(http.MethodPost)
	authRoutes.Handle("/me", protected(h.GetCurrentUser)).Methods(http.MethodGet)

	// my-listings is registered before {id} so it is never read as an id.
	r.Handle("/listings/user/my-listings", protected(h.GetMyListings)).Methods(http.MethodGet)
	r.HandleFunc("/listings", h.GetListings).Methods(http.MethodGet)
	r.Handle("/listings", protected(h.CreateListing)).Methods(http.MethodPost)
	r.HandleFunc("/listings/{id:[0-9]+}", h.GetListing).Methods(http.MethodGet)
	r.Handle("/listings/{id:[0-9]+}", protected(h.UpdateListing)).Methods(http.MethodPut)
	r.Handle("/listings/{id:[0-9]+}", protected(h.DeleteListing)).Methods(http.MethodDelete)

	r.Handle("/upload", protected(h.UploadImages)).Methods(http.MethodPost)
	r.Handle("/upload/image", protected(h.DeleteImage)).Methods(http.MethodDelete)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, "Route not found", http.StatusNotFound)
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, "Method not allowed", http.StatusMethodNotAllowed)
	})

	return middleware.Chain(r,
		middleware.Logging,
		middleware.CORS(h.Cfg.CORSOrigins),
		middleware.RequestID,
	)
}
