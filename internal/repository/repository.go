package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"listingboard/internal/apperr"
	"listingboard/internal/models"
)

// Querier is the subset of the persistence gateway used by repositories.
// *database.DB satisfies it.
type Querier interface {
	Select(ctx context.Context, dest any, query string, args ...any) error
	Get(ctx context.Context, dest any, query string, args ...any) error
	Exec(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, userID int64) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

type ListingRepository interface {
	List(ctx context.Context, filter models.ListingFilter) ([]models.Listing, error)
	ListByUser(ctx context.Context, userID int64) ([]models.Listing, error)
	GetByID(ctx context.Context, listingID int64) (*models.Listing, error)
	GetOwnerID(ctx context.Context, listingID int64) (int64, error)
	Create(ctx context.Context, userID int64, in models.ListingInput) (*models.Listing, error)
	Update(ctx context.Context, listingID, userID int64, in models.ListingInput) (*models.Listing, error)
	Delete(ctx context.Context, listingID, userID int64) error
}

type HealthRepository interface {
	Ping(ctx context.Context) error
	CountTables(ctx context.Context) (int, error)
}

type Repository struct {
	User    UserRepository
	Listing ListingRepository
	Health  HealthRepository
}

// Pinger is implemented by the persistence gateway.
type Pinger interface {
	HealthCheck(ctx context.Context) error
}

func NewRepository(db Querier, pinger Pinger) *Repository {
	return &Repository{
		User:    NewUserRepository(db),
		Listing: NewListingRepository(db),
		Health:  NewHealthRepository(db, pinger),
	}
}

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
	pqCheckViolation      = "23514"
)

var constraintMessages = map[string]string{
	"users_email_key":       "Email already registered",
	"users_phone_key":       "Phone number already registered",
	"listings_user_id_fkey": "Listing owner does not exist",
	"listings_images_count": "A listing needs between 1 and 5 images",
}

// translateConstraint turns a constraint violation into a typed error with a
// field-specific message. Other errors are returned unchanged.
func translateConstraint(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}

	msg, known := constraintMessages[pqErr.Constraint]

	switch string(pqErr.Code) {
	case pqUniqueViolation:
		if !known {
			msg = "Resource already exists"
		}
		return apperr.Wrap(apperr.Conflict, msg, err)
	case pqForeignKeyViolation, pqCheckViolation:
		if !known {
			msg = "Invalid reference or value"
		}
		return apperr.Wrap(apperr.InvalidInput, msg, err)
	}
	return err
}
