package handlers

import (
	"net/http"

	"listingboard/internal/middleware"
	"listingboard/internal/models"
)

type UserResponse struct {
	User *models.User `json:"user"`
}

func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterInput
	if err := decodeJSON(r, &req); err != nil {
		HandleError(w, r, err)
		return
	}

	result, err := h.AuthService.Register(r.Context(), req)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	WriteJSON(w, result, http.StatusCreated)
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginInput
	if err := decodeJSON(r, &req); err != nil {
		HandleError(w, r, err)
		return
	}

	result, err := h.AuthService.Login(r.Context(), req)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	WriteJSON(w, result, http.StatusOK)
}

// GetCurrentUser returns the profile of the token holder.
func (h *Handlers) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.UserFromContext(r.Context())
	if !ok {
		WriteError(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	user, err := h.UserService.GetProfile(r.Context(), claims.UserID)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	WriteJSON(w, UserResponse{User: user}, http.StatusOK)
}
