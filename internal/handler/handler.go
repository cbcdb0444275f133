package handlers

import (
	"listingboard/internal/config"
	"listingboard/internal/service"
)

type Handlers struct {
	AuthService    service.AuthService
	UserService    service.UserService
	ListingService service.ListingService
	MediaService   service.MediaService
	HealthService  service.HealthService
	Cfg            *config.Config
}

func NewHandlers(service *service.Service, config *config.Config) *Handlers {
	return &Handlers{
		AuthService:    service.Auth,
		UserService:    service.User,
		ListingService: service.Listing,
		MediaService:   service.Media,
		HealthService:  service.Health,
		Cfg:            config,
	}
}
