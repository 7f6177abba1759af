package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"

	"github.com/nkiryanov/metalrezerv/internal/apperrors"
	"github.com/nkiryanov/metalrezerv/internal/models"
	"github.com/nkiryanov/metalrezerv/internal/repository"
)

type ListingRepo struct {
	DB DBTX
}

const listingColumns = `id, created_at, updated_at, title, description, category, status, user_id, company_id, publication_period, published_at`

const createListing = `-- name: CreateListing
INSERT INTO listings (id, title, description, category, status, user_id, company_id, publication_period, published_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, CASE WHEN $5 = 'published' THEN now() END)
RETURNING ` + listingColumns

func (r *ListingRepo) CreateListing(ctx context.Context, p repository.CreateListingParams) (models.Listing, error) {
	if p.Status == "" {
		p.Status = models.ListingPublished
	}

	rows, _ := r.DB.Query(ctx, createListing,
		uuid.New(), p.Title, p.Description, p.Category, p.Status, p.UserID, p.CompanyID, p.PublicationPeriod,
	)
	listing, err := pgx.CollectOneRow(rows, rowToListing)

	if err != nil {
		code, constraint := pgError(err)
		switch {
		case code == pgerrcode.ForeignKeyViolation && constraint == "listings_company_id_fkey":
			return listing, apperrors.ErrCompanyNotFound
		case code == pgerrcode.ForeignKeyViolation:
			return listing, apperrors.ErrUserNotFound
		case code == pgerrcode.CheckViolation:
			return listing, apperrors.InvalidInput("invalid listing status or publication period")
		default:
			return listing, fmt.Errorf("db error: %w", err)
		}
	}

	return listing, nil
}

const getListing = `-- name: GetListing
SELECT ` + listingColumns + ` FROM listings
WHERE id = $1
`

func (r *ListingRepo) GetListing(ctx context.Context, listingID uuid.UUID) (models.Listing, error) {
	rows, _ := r.DB.Query(ctx, getListing, listingID)
	return collectListing(rows)
}

// Publishing again restarts the publication period
const setListingStatus = `-- name: SetListingStatus
UPDATE listings SET
	status = $2,
	updated_at = now(),
	published_at = CASE WHEN $2 = 'published' AND status <> 'published' THEN now() ELSE published_at END
WHERE id = $1
RETURNING ` + listingColumns

func (r *ListingRepo) SetStatus(ctx context.Context, listingID uuid.UUID, status string) (models.Listing, error) {
	rows, _ := r.DB.Query(ctx, setListingStatus, listingID, status)
	listing, err := collectListing(rows)

	if code, _ := pgError(err); code == pgerrcode.CheckViolation {
		return listing, apperrors.InvalidInput("invalid listing status %q", status)
	}

	return listing, err
}

const unpublishExpired = `-- name: UnpublishExpired
UPDATE listings SET status = 'unpublished', updated_at = now()
WHERE status = 'published'
  AND publication_period IS NOT NULL
  AND published_at + make_interval(days => publication_period) <= $1
`

func (r *ListingRepo) UnpublishExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.DB.Exec(ctx, unpublishExpired, now)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}

	return tag.RowsAffected(), nil
}

func collectListing(rows pgx.Rows) (models.Listing, error) {
	listing, err := pgx.CollectOneRow(rows, rowToListing)

	switch {
	case err == nil:
		return listing, nil
	case errors.Is(err, pgx.ErrNoRows):
		return listing, apperrors.ErrListingNotFound
	default:
		return listing, fmt.Errorf("db error: %w", err)
	}
}

func rowToListing(row pgx.CollectableRow) (models.Listing, error) {
	var l models.Listing
	err := row.Scan(
		&l.ID, &l.CreatedAt, &l.UpdatedAt, &l.Title, &l.Description, &l.Category, &l.Status,
		&l.UserID, &l.CompanyID, &l.PublicationPeriod, &l.PublishedAt,
	)
	return l, err
}
