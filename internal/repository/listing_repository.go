package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"listingboard/internal/apperr"
	"listingboard/internal/models"
)

var listingColumns = []string{
	"l.id", "l.user_id", "l.title", "l.description", "l.category", "l.custom_category",
	"l.location", "l.county", "l.phone", "l.amenities", "l.images",
	"l.created_at", "l.updated_at",
}

const returningListing = `
	RETURNING id, user_id, title, description, category, custom_category,
		location, county, phone, amenities, images, created_at, updated_at
`

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type listingRepository struct {
	db Querier
}

func NewListingRepository(db Querier) ListingRepository {
	return &listingRepository{db: db}
}

// BuildListQuery composes the filtered listing query. Every filter value is
// bound as a parameter; results are always newest first.
func BuildListQuery(filter models.ListingFilter) (string, []any, error) {
	q := psql.
		Select(listingColumns...).
		Column("u.name AS user_name").
		Column("u.phone AS user_phone").
		From("listings l").
		Join("users u ON u.id = l.user_id")

	if category := strings.TrimSpace(filter.Category); category != "" {
		q = q.Where(sq.Eq{"l.category": category})
	}
	if location := strings.TrimSpace(filter.Location); location != "" {
		q = q.Where(sq.Eq{"l.county": location})
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + escapeLike(search) + "%"
		q = q.Where(sq.Or{
			sq.ILike{"l.title": pattern},
			sq.ILike{"l.description": pattern},
		})
	}

	return q.OrderBy("l.created_at DESC", "l.id DESC").ToSql()
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (r *listingRepository) List(ctx context.Context, filter models.ListingFilter) ([]models.Listing, error) {
	query, args, err := BuildListQuery(filter)
	if err != nil {
		return nil, fmt.Errorf("build listing query: %w", err)
	}

	listings := []models.Listing{}
	if err := r.db.Select(ctx, &listings, query, args...); err != nil {
		return nil, fmt.Errorf("list listings: %w", err)
	}

	return listings, nil
}

func (r *listingRepository) ListByUser(ctx context.Context, userID int64) ([]models.Listing, error) {
	query, args, err := psql.
		Select(listingColumns...).
		From("listings l").
		Where(sq.Eq{"l.user_id": userID}).
		OrderBy("l.created_at DESC", "l.id DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build user listing query: %w", err)
	}

	listings := []models.Listing{}
	if err := r.db.Select(ctx, &listings, query, args...); err != nil {
		return nil, fmt.Errorf("list user listings: %w", err)
	}

	return listings, nil
}

func (r *listingRepository) GetByID(ctx context.Context, listingID int64) (*models.Listing, error) {
	query, args, err := psql.
		Select(listingColumns...).
		Column("u.name AS user_name").
		Column("u.email AS user_email").
		Column("u.phone AS user_phone").
		From("listings l").
		Join("users u ON u.id = l.user_id").
		Where(sq.Eq{"l.id": listingID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build listing query: %w", err)
	}

	var listing models.Listing
	if err := r.db.Get(ctx, &listing, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFoundf("Listing not found")
		}
		return nil, fmt.Errorf("get listing: %w", err)
	}

	return &listing, nil
}

func (r *listingRepository) GetOwnerID(ctx context.Context, listingID int64) (int64, error) {
	var ownerID int64

	err := r.db.Get(ctx, &ownerID, `SELECT user_id FROM listings WHERE id = $1`, listingID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, apperr.NotFoundf("Listing not found")
		}
		return 0, fmt.Errorf("get listing owner: %w", err)
	}

	return ownerID, nil
}

func (r *listingRepository) Create(ctx context.Context, userID int64, in models.ListingInput) (*models.Listing, error) {
	query := `
		INSERT INTO listings
			(user_id, title, description, category, custom_category, location, county, phone, amenities, images)
		VALUES
			($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	` + returningListing

	var listing models.Listing
	err := r.db.Get(ctx, &listing, query,
		userID,
		in.Title,
		in.Description,
		in.Category,
		in.CustomCategory,
		in.Location,
		in.County,
		in.Phone,
		pq.StringArray(in.Amenities),
		pq.StringArray(in.Images),
	)
	if err != nil {
		if translated := translateConstraint(err); translated != err {
			return nil, translated
		}
		return nil, fmt.Errorf("create listing: %w", err)
	}

	return &listing, nil
}

// Update replaces every writable field. The owner is part of the WHERE clause
// so a row whose owner differs is never touched.
func (r *listingRepository) Update(ctx context.Context, listingID, userID int64, in models.ListingInput) (*models.Listing, error) {
	query := `
		UPDATE listings SET
			title = $1,
			description = $2,
			category = $3,
			custom_category = $4,
			location = $5,
			county = $6,
			phone = $7,
			amenities = $8,
			images = $9,
			updated_at = NOW()
		WHERE id = $10 AND user_id = $11
	` + returningListing

	var listing models.Listing
	err := r.db.Get(ctx, &listing, query,
		in.Title,
		in.Description,
		in.Category,
		in.CustomCategory,
		in.Location,
		in.County,
		in.Phone,
		pq.StringArray(in.Amenities),
		pq.StringArray(in.Images),
		listingID,
		userID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFoundf("Listing not found")
		}
		if translated := translateConstraint(err); translated != err {
			return nil, translated
		}
		return nil, fmt.Errorf("update listing: %w", err)
	}

	return &listing, nil
}

func (r *listingRepository) Delete(ctx context.Context, listingID, userID int64) error {
	result, err := r.db.Exec(ctx, `DELETE FROM listings WHERE id = $1 AND user_id = $2`, listingID, userID)
	if err != nil {
		return fmt.Errorf("delete listing: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check deleted rows: %w", err)
	}

	if rowsAffected == 0 {
		return apperr.NotFoundf("Listing not found")
	}

	return nil
}
