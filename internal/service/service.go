package service

import (
	"listingboard/internal/config"
	"listingboard/internal/repository"
	"listingboard/internal/storage"
)

type Service struct {
	Auth    AuthService
	User    UserService
	Listing ListingService
	Media   MediaService
	Health  HealthService
}

func NewService(rep *repository.Repository, cfg *config.Config, store storage.ObjectStore) *Service {
	return &Service{
		Auth:    NewAuthService(rep.User, cfg),
		User:    NewUserService(rep.User),
		Listing: NewListingService(rep.Listing),
		Media:   NewMediaService(store, cfg),
		Health:  NewHealthService(rep.Health),
	}
}
