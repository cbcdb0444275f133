package service

import (
	"context"

	"listingboard/internal/models"
	"listingboard/internal/repository"
)

type UserService interface {
	GetProfile(ctx context.Context, userID int64) (*models.User, error)
}

type userService struct {
	userRepo repository.UserRepository
}

func NewUserService(userRepo repository.UserRepository) UserService {
	return &userService{userRepo: userRepo}
}

// GetProfile returns the user behind a verified token. The password hash never
// leaves the model through JSON.
func (s *userService) GetProfile(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	return user, nil
}
