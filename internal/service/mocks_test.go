package service

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"listingboard/internal/models"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) CreateUser(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetUserByID(ctx context.Context, userID int64) (*models.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

type MockListingRepository struct {
	mock.Mock
}

func (m *MockListingRepository) List(ctx context.Context, filter models.ListingFilter) ([]models.Listing, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Listing), args.Error(1)
}

func (m *MockListingRepository) ListByUser(ctx context.Context, userID int64) ([]models.Listing, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Listing), args.Error(1)
}

func (m *MockListingRepository) GetByID(ctx context.Context, listingID int64) (*models.Listing, error) {
	args := m.Called(ctx, listingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Listing), args.Error(1)
}

func (m *MockListingRepository) GetOwnerID(ctx context.Context, listingID int64) (int64, error) {
	args := m.Called(ctx, listingID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockListingRepository) Create(ctx context.Context, userID int64, in models.ListingInput) (*models.Listing, error) {
	args := m.Called(ctx, userID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Listing), args.Error(1)
}

func (m *MockListingRepository) Update(ctx context.Context, listingID, userID int64, in models.ListingInput) (*models.Listing, error) {
	args := m.Called(ctx, listingID, userID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Listing), args.Error(1)
}

func (m *MockListingRepository) Delete(ctx context.Context, listingID, userID int64) error {
	args := m.Called(ctx, listingID, userID)
	return args.Error(0)
}

type MockHealthRepository struct {
	mock.Mock
}

func (m *MockHealthRepository) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockHealthRepository) CountTables(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

type MockObjectStore struct {
	mock.Mock
}

func (m *MockObjectStore) Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	args := m.Called(ctx, key, r, size, contentType)
	return args.String(0), args.Error(1)
}

func (m *MockObjectStore) Remove(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func (m *MockObjectStore) PublicURL(key string) string {
	return m.Called(key).String(0)
}

func (m *MockObjectStore) KeyFromURL(rawURL string) (string, bool) {
	args := m.Called(rawURL)
	return args.String(0), args.Bool(1)
}
