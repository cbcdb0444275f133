package test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"listingboard/internal/apperr"
	"listingboard/internal/models"
)

const listingBody = `{"title":"Two bedroom","category":"apartment","location":"Westlands","county":"Nairobi","phone":"0700","images":["http://cdn/a.jpg"]}`

func TestGetListingsHandler(t *testing.T) {
	t.Run("passes filters through", func(t *testing.T) {
		env := newTestEnv()
		env.listing.On("List", anyCtx, models.ListingFilter{Category: "house", Location: "Nairobi", Search: "garden view"}).
			Return([]models.Listing{{ID: 2, Title: "B"}, {ID: 1, Title: "A"}}, nil)

		rr := env.do(http.MethodGet, "/listings?category=house&location=Nairobi&search=garden+view", "", false)
		assert.Equal(t, http.StatusOK, rr.Code)

		listings := decodeBody(t, rr)["listings"].([]any)
		assert.Len(t, listings, 2)
		assert.Equal(t, float64(2), listings[0].(map[string]any)["id"])
	})

	t.Run("empty result is an empty array", func(t *testing.T) {
		env := newTestEnv()
		env.listing.On("List", anyCtx, models.ListingFilter{}).Return(nil, nil)

		rr := env.do(http.MethodGet, "/listings", "", false)
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"listings":[]}`, rr.Body.String())
	})
}

func TestGetListingHandler(t *testing.T) {
	env := newTestEnv()
	name := "Jane"
	env.listing.On("Get", anyCtx, int64(5)).Return(&models.Listing{ID: 5, OwnerName: &name}, nil)
	env.listing.On("Get", anyCtx, int64(6)).Return(nil, apperr.NotFoundf("Listing not found"))

	rr := env.do(http.MethodGet, "/listings/5", "", false)
	assert.Equal(t, http.StatusOK, rr.Code)
	listing := decodeBody(t, rr)["listing"].(map[string]any)
	assert.Equal(t, "Jane", listing["userName"])

	rr = env.do(http.MethodGet, "/listings/6", "", false)
	assertJSONError(t, rr, http.StatusNotFound, "Listing not found")

	rr = env.do(http.MethodGet, "/listings/abc", "", false)
	assertJSONError(t, rr, http.StatusNotFound, "Route not found")
}

func TestCreateListingHandler(t *testing.T) {
	t.Run("created for the token holder", func(t *testing.T) {
		env := newTestEnv()
		env.listing.On("Create", anyCtx, int64(7), mock.MatchedBy(func(in models.ListingInput) bool {
			return in.Title == "Two bedroom" && len(in.Images) == 1
		})).Return(&models.Listing{ID: 11, UserID: 7}, nil)

		rr := env.do(http.MethodPost, "/listings", listingBody, true)
		assert.Equal(t, http.StatusCreated, rr.Code)
		assert.Equal(t, float64(11), decodeBody(t, rr)["listing"].(map[string]any)["id"])
	})

	t.Run("anonymous", func(t *testing.T) {
		env := newTestEnv()

		rr := env.do(http.MethodPost, "/listings", listingBody, false)
		assertJSONError(t, rr, http.StatusUnauthorized, "Authentication required")
		env.listing.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("invalid listing", func(t *testing.T) {
		env := newTestEnv()
		env.listing.On("Create", anyCtx, int64(7), mock.Anything).Return(nil, apperr.Invalid("images is required"))

		rr := env.do(http.MethodPost, "/listings", `{"title":"x"}`, true)
		assertJSONError(t, rr, http.StatusBadRequest, "images is required")
	})
}

func TestGetMyListingsHandler(t *testing.T) {
	env := newTestEnv()
	env.listing.On("ListMine", anyCtx, int64(7)).Return([]models.Listing{{ID: 3, UserID: 7}}, nil)

	rr := env.do(http.MethodGet, "/listings/user/my-listings", "", true)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decodeBody(t, rr)["listings"].([]any), 1)
	env.listing.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)

	rr = env.do(http.MethodGet, "/listings/user/my-listings", "", false)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestUpdateListingHandler(t *testing.T) {
	tests := []struct {
		name           string
		serviceErr     error
		expectedStatus int
	}{
		{"owner", nil, http.StatusOK},
		{"not owner", apperr.New(apperr.Forbidden, "You can only edit your own listings"), http.StatusForbidden},
		{"missing", apperr.NotFoundf("Listing not found"), http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv()
			call := env.listing.On("Update", anyCtx, int64(9), int64(7), mock.Anything)
			if tt.serviceErr != nil {
				call.Return(nil, tt.serviceErr)
			} else {
				call.Return(&models.Listing{ID: 9, Title: "Two bedroom"}, nil)
			}

			rr := env.do(http.MethodPut, "/listings/9", listingBody, true)
			assert.Equal(t, tt.expectedStatus, rr.Code)
		})
	}
}

func TestDeleteListingHandler(t *testing.T) {
	env := newTestEnv()
	env.listing.On("Delete", anyCtx, int64(9), int64(7)).Return(nil)
	env.listing.On("Delete", anyCtx, int64(10), int64(7)).Return(apperr.New(apperr.Forbidden, "You can only delete your own listings"))

	rr := env.do(http.MethodDelete, "/listings/9", "", true)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Listing deleted successfully", decodeBody(t, rr)["message"])

	rr = env.do(http.MethodDelete, "/listings/10", "", true)
	assertJSONError(t, rr, http.StatusForbidden, "You can only delete your own listings")
}
