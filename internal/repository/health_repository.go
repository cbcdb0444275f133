package repository

import (
	"context"
	"fmt"
)

type healthRepository struct {
	db     Querier
	pinger Pinger
}

func NewHealthRepository(db Querier, pinger Pinger) HealthRepository {
	return &healthRepository{db: db, pinger: pinger}
}

func (r *healthRepository) Ping(ctx context.Context) error {
	return r.pinger.HealthCheck(ctx)
}

func (r *healthRepository) CountTables(ctx context.Context) (int, error) {
	var count int

	err := r.db.Get(ctx, &count, `
		SELECT COUNT(*)
		FROM information_schema.tables
		WHERE table_schema = 'public'
	`)
	if err != nil {
		return 0, fmt.Errorf("count tables: %w", err)
	}

	return count, nil
}
