package test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"listingboard/internal/models"
	"listingboard/internal/service"
)

type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Register(ctx context.Context, in models.RegisterInput) (*models.AuthResult, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AuthResult), args.Error(1)
}

func (m *MockAuthService) Login(ctx context.Context, in models.LoginInput) (*models.AuthResult, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AuthResult), args.Error(1)
}

func (m *MockAuthService) VerifyToken(token string) (*models.TokenClaims, error) {
	args := m.Called(token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TokenClaims), args.Error(1)
}

type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) GetProfile(ctx context.Context, userID int64) (*models.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

type MockListingService struct {
	mock.Mock
}

func (m *MockListingService) List(ctx context.Context, filter models.ListingFilter) ([]models.Listing, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Listing), args.Error(1)
}

func (m *MockListingService) Get(ctx context.Context, listingID int64) (*models.Listing, error) {
	args := m.Called(ctx, listingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Listing), args.Error(1)
}

func (m *MockListingService) Create(ctx context.Context, ownerID int64, in models.ListingInput) (*models.Listing, error) {
	args := m.Called(ctx, ownerID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Listing), args.Error(1)
}

func (m *MockListingService) ListMine(ctx context.Context, ownerID int64) ([]models.Listing, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Listing), args.Error(1)
}

func (m *MockListingService) Update(ctx context.Context, listingID, ownerID int64, in models.ListingInput) (*models.Listing, error) {
	args := m.Called(ctx, listingID, ownerID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Listing), args.Error(1)
}

func (m *MockListingService) Delete(ctx context.Context, listingID, ownerID int64) error {
	return m.Called(ctx, listingID, ownerID).Error(0)
}

type MockMediaService struct {
	mock.Mock
}

func (m *MockMediaService) UploadImages(ctx context.Context, ownerID int64, files []service.UploadFile) ([]string, error) {
	args := m.Called(ctx, ownerID, files)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockMediaService) DeleteImage(ctx context.Context, imageURL string) error {
	return m.Called(ctx, imageURL).Error(0)
}

type MockHealthService struct {
	mock.Mock
}

func (m *MockHealthService) Check(ctx context.Context) (service.HealthStatus, error) {
	args := m.Called(ctx)
	return args.Get(0).(service.HealthStatus), args.Error(1)
}
