package app

import (
	"context"
	"fmt"
	"net/http"

	"listingboard/internal/config"
	"listingboard/internal/database"
	handlers "listingboard/internal/handler"
	"listingboard/internal/repository"
	"listingboard/internal/service"
	"listingboard/internal/storage"
)

type App struct {
	DB       *database.DB
	Store    storage.ObjectStore
	Repo     *repository.Repository
	Services *service.Service
	Handler  http.Handler
}

// New connects to PostgreSQL and MinIO and wires every layer.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	// connection DB
	db, err := database.ConnectDB(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	// connection MinIO
	minioClient, err := storage.NewMinIOClient(ctx, cfg.MinIO)
	if err != nil {
		_ = db.CloseDB()
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	return Build(cfg, db, minioClient), nil
}

// Build wires repositories, services and handlers on top of ready
// connections.
func Build(cfg *config.Config, db *database.DB, store storage.ObjectStore) *App {
	repo := repository.NewRepository(db, db)
	services := service.NewService(repo, cfg, store)
	h := handlers.NewHandlers(services, cfg)

	return &App{
		DB:       db,
		Store:    store,
		Repo:     repo,
		Services: services,
		Handler:  handlers.NewRouter(h),
	}
}

func (a *App) Close() error {
	return a.DB.CloseDB()
}
