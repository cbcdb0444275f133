package handlers

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"listingboard/internal/apperr"
	"listingboard/internal/middleware"
	"listingboard/internal/models"
)

type ListingsResponse struct {
	Listings []models.Listing `json:"listings"`
}

type ListingResponse struct {
	Listing *models.Listing `json:"listing"`
}

func (h *Handlers) GetListings(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := models.ListingFilter{
		Category: query.Get("category"),
		Location: query.Get("location"),
		Search:   query.Get("search"),
	}

	listings, err := h.ListingService.List(r.Context(), filter)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	WriteJSON(w, ListingsResponse{Listings: nonNil(listings)}, http.StatusOK)
}

func (h *Handlers) GetListing(w http.ResponseWriter, r *http.Request) {
	id, err := listingID(r)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	listing, err := h.ListingService.Get(r.Context(), id)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	WriteJSON(w, ListingResponse{Listing: listing}, http.StatusOK)
}

func (h *Handlers) CreateListing(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.UserFromContext(r.Context())
	if !ok {
		WriteError(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	var req models.ListingInput
	if err := decodeJSON(r, &req); err != nil {
		HandleError(w, r, err)
		return
	}

	listing, err := h.ListingService.Create(r.Context(), claims.UserID, req)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	WriteJSON(w, ListingResponse{Listing: listing}, http.StatusCreated)
}

func (h *Handlers) GetMyListings(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.UserFromContext(r.Context())
	if !ok {
		WriteError(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	listings, err := h.ListingService.ListMine(r.Context(), claims.UserID)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	WriteJSON(w, ListingsResponse{Listings: nonNil(listings)}, http.StatusOK)
}

func (h *Handlers) UpdateListing(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.UserFromContext(r.Context())
	if !ok {
		WriteError(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	id, err := listingID(r)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	var req models.ListingInput
	if err := decodeJSON(r, &req); err != nil {
		HandleError(w, r, err)
		return
	}

	listing, err := h.ListingService.Update(r.Context(), id, claims.UserID, req)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	WriteJSON(w, ListingResponse{Listing: listing}, http.StatusOK)
}

func (h *Handlers) DeleteListing(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.UserFromContext(r.Context())
	if !ok {
		WriteError(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	id, err := listingID(r)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	if err := h.ListingService.Delete(r.Context(), id, claims.UserID); err != nil {
		HandleError(w, r, err)
		return
	}

	WriteJSON(w, MessageResponse{Message: "Listing deleted successfully"}, http.StatusOK)
}

func listingID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Invalid("Invalid listing id")
	}
	return id, nil
}

func nonNil(listings []models.Listing) []models.Listing {
	if listings == nil {
		return []models.Listing{}
	}
	return listings
}
