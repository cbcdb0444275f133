package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"listingboard/internal/apperr"
	"listingboard/internal/models"
)

type userRepository struct {
	db Querier
}

func NewUserRepository(db Querier) UserRepository {
	return &userRepository{db: db}
}

// CreateUser inserts a user whose PasswordHash is already set and fills in the
// generated id and creation time.
func (r *userRepository) CreateUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (name, email, phone, password)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	var row struct {
		ID        int64        `db:"id"`
		CreatedAt sql.NullTime `db:"created_at"`
	}

	err := r.db.Get(ctx, &row, query, user.Name, user.Email, user.Phone, user.PasswordHash)
	if err != nil {
		if translated := translateConstraint(err); translated != err {
			return translated
		}
		return fmt.Errorf("create user: %w", err)
	}

	user.ID = row.ID
	user.CreatedAt = row.CreatedAt.Time

	return nil
}

func (r *userRepository) GetUserByID(ctx context.Context, userID int64) (*models.User, error) {
	var user models.User

	query := `SELECT id, name, email, phone, password, created_at FROM users WHERE id = $1`

	err := r.db.Get(ctx, &user, query, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFoundf("User not found")
		}
		return nil, fmt.Errorf("get user by id: %w", err)
	}

	return &user, nil
}

func (r *userRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User

	query := `SELECT id, name, email, phone, password, created_at FROM users WHERE email = $1`

	err := r.db.Get(ctx, &user, query, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFoundf("User not found")
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}

	return &user, nil
}
