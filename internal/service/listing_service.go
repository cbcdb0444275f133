package service

import (
	"context"
	"strings"

	"listingboard/internal/apperr"
	"listingboard/internal/logging"
	"listingboard/internal/models"
	"listingboard/internal/repository"
)

type ListingService interface {
	List(ctx context.Context, filter models.ListingFilter) ([]models.Listing, error)
	Get(ctx context.Context, listingID int64) (*models.Listing, error)
	Create(ctx context.Context, ownerID int64, in models.ListingInput) (*models.Listing, error)
	ListMine(ctx context.Context, ownerID int64) ([]models.Listing, error)
	Update(ctx context.Context, listingID, ownerID int64, in models.ListingInput) (*models.Listing, error)
	Delete(ctx context.Context, listingID, ownerID int64) error
}

type listingService struct {
	listingRepo repository.ListingRepository
}

func NewListingService(listingRepo repository.ListingRepository) ListingService {
	return &listingService{listingRepo: listingRepo}
}

func (s *listingService) List(ctx context.Context, filter models.ListingFilter) ([]models.Listing, error) {
	return s.listingRepo.List(ctx, filter)
}

func (s *listingService) Get(ctx context.Context, listingID int64) (*models.Listing, error) {
	return s.listingRepo.GetByID(ctx, listingID)
}

func (s *listingService) ListMine(ctx context.Context, ownerID int64) ([]models.Listing, error) {
	return s.listingRepo.ListByUser(ctx, ownerID)
}

func (s *listingService) Create(ctx context.Context, ownerID int64, in models.ListingInput) (*models.Listing, error) {
	in = normalizeListing(in)
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	listing, err := s.listingRepo.Create(ctx, ownerID, in)
	if err != nil {
		return nil, err
	}

	logging.Ctx(ctx).Info().
		Int64("listing_id", listing.ID).
		Int64("user_id", ownerID).
		Msg("listing created")

	return listing, nil
}

func (s *listingService) Update(ctx context.Context, listingID, ownerID int64, in models.ListingInput) (*models.Listing, error) {
	if err := s.checkOwner(ctx, listingID, ownerID, "You can only edit your own listings"); err != nil {
		return nil, err
	}

	in = normalizeListing(in)
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	return s.listingRepo.Update(ctx, listingID, ownerID, in)
}

// Delete removes the row only. Objects referenced by its image URLs stay in
// storage.
func (s *listingService) Delete(ctx context.Context, listingID, ownerID int64) error {
	if err := s.checkOwner(ctx, listingID, ownerID, "You can only delete your own listings"); err != nil {
		return err
	}

	if err := s.listingRepo.Delete(ctx, listingID, ownerID); err != nil {
		return err
	}

	logging.Ctx(ctx).Info().
		Int64("listing_id", listingID).
		Int64("user_id", ownerID).
		Msg("listing deleted")

	return nil
}

func (s *listingService) checkOwner(ctx context.Context, listingID, ownerID int64, denied string) error {
	actual, err := s.listingRepo.GetOwnerID(ctx, listingID)
	if err != nil {
		return err
	}

	if actual != ownerID {
		return apperr.New(apperr.Forbidden, denied)
	}

	return nil
}

func normalizeListing(in models.ListingInput) models.ListingInput {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Category = strings.TrimSpace(in.Category)
	in.Location = strings.TrimSpace(in.Location)
	in.County = strings.TrimSpace(in.County)
	in.Phone = strings.TrimSpace(in.Phone)

	if in.CustomCategory != nil {
		custom := strings.TrimSpace(*in.CustomCategory)
		if custom == "" {
			in.CustomCategory = nil
		} else {
			in.CustomCategory = &custom
		}
	}

	in.Amenities = compact(in.Amenities)
	in.Images = compact(in.Images)

	return in
}

// compact trims every entry and drops the empty ones. The result is never nil.
func compact(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
