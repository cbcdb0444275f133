package service

import (
	"context"
	"fmt"

	"listingboard/internal/repository"
)

type HealthStatus struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Tables   int    `json:"tables"`
}

type HealthService interface {
	Check(ctx context.Context) (HealthStatus, error)
}

type healthService struct {
	healthRepo repository.HealthRepository
}

func NewHealthService(healthRepo repository.HealthRepository) HealthService {
	return &healthService{healthRepo: healthRepo}
}

// Check pings the database and counts public tables. On error the returned
// status still describes the failure.
func (h *healthService) Check(ctx context.Context) (HealthStatus, error) {
	down := HealthStatus{Status: "error", Database: "down"}

	if err := h.healthRepo.Ping(ctx); err != nil {
		return down, fmt.Errorf("ping database: %w", err)
	}

	count, err := h.healthRepo.CountTables(ctx)
	if err != nil {
		return down, err
	}

	return HealthStatus{Status: "ok", Database: "up", Tables: count}, nil
}
