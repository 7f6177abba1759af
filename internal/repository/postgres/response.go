package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"

	"github.com/nkiryanov/metalrezerv/internal/apperrors"
	"github.com/nkiryanov/metalrezerv/internal/models"
	"github.com/nkiryanov/metalrezerv/internal/repository"
)

const defaultResponsesLimit = 20

type ResponseRepo struct {
	DB DBTX
}

const responseColumns = `id, created_at, updated_at, listing_id, user_id, company_id, status, message`

const createResponse = `-- name: CreateResponse
INSERT INTO responses (id, listing_id, user_id, company_id, status, message)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + responseColumns

func (r *ResponseRepo) CreateResponse(ctx context.Context, resp models.Response) (models.Response, error) {
	if resp.ID == uuid.Nil {
		resp.ID = uuid.New()
	}
	if resp.Status == "" {
		resp.Status = models.ResponsePending
	}

	rows, _ := r.DB.Query(ctx, createResponse, resp.ID, resp.ListingID, resp.UserID, resp.CompanyID, resp.Status, resp.Message)
	created, err := pgx.CollectOneRow(rows, rowToResponse)

	if err != nil {
		code, constraint := pgError(err)
		switch {
		case code == pgerrcode.UniqueViolation && constraint == "responses_listing_user_key":
			return resp, apperrors.ErrResponseDuplicate
		case code == pgerrcode.ForeignKeyViolation && constraint == "responses_listing_id_fkey":
			return resp, apperrors.ErrListingNotFound
		case code == pgerrcode.ForeignKeyViolation && constraint == "responses_company_id_fkey":
			return resp, apperrors.ErrCompanyNotFound
		case code == pgerrcode.ForeignKeyViolation:
			return resp, apperrors.ErrUserNotFound
		default:
			return resp, fmt.Errorf("db error: %w", err)
		}
	}

	return created, nil
}

const getResponse = `-- name: GetResponse
SELECT ` + responseColumns + ` FROM responses
WHERE id = $1
`

func (r *ResponseRepo) GetResponse(ctx context.Context, responseID uuid.UUID) (models.Response, error) {
	rows, _ := r.DB.Query(ctx, getResponse, responseID)
	return collectResponse(rows)
}

const responseExists = `-- name: ResponseExists
SELECT EXISTS (SELECT 1 FROM responses WHERE listing_id = $1 AND user_id = $2)
`

func (r *ResponseRepo) Exists(ctx context.Context, listingID uuid.UUID, userID uuid.UUID) (bool, error) {
	var exists bool
	if err := r.DB.QueryRow(ctx, responseExists, listingID, userID).Scan(&exists); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return exists, nil
}

const setResponseStatus = `-- name: SetResponseStatus
UPDATE responses SET status = $2, updated_at = now()
WHERE id = $1
RETURNING ` + responseColumns

func (r *ResponseRepo) SetStatus(ctx context.Context, responseID uuid.UUID, status string) (models.Response, error) {
	rows, _ := r.DB.Query(ctx, setResponseStatus, responseID, status)
	resp, err := collectResponse(rows)

	if code, _ := pgError(err); code == pgerrcode.CheckViolation {
		return resp, apperrors.InvalidInput("invalid response status %q", status)
	}

	return resp, err
}

const deleteResponse = `-- name: DeleteResponse
DELETE FROM responses WHERE id = $1
`

func (r *ResponseRepo) DeleteResponse(ctx context.Context, responseID uuid.UUID) error {
	tag, err := r.DB.Exec(ctx, deleteResponse, responseID)
	switch {
	case err != nil:
		return fmt.Errorf("db error: %w", err)
	case tag.RowsAffected() == 0:
		return apperrors.ErrResponseNotFound
	default:
		return nil
	}
}

const listResponses = `-- name: ListResponses
SELECT ` + responseColumns + `, count(*) OVER () FROM responses
WHERE ($1::uuid IS NULL OR listing_id = $1)
  AND ($2::uuid IS NULL OR user_id = $2)
  AND ($3::text = '' OR status = $3)
ORDER BY created_at DESC, id
LIMIT $4 OFFSET $5
`

const countResponses = `-- name: CountResponses
SELECT count(*) FROM responses
WHERE ($1::uuid IS NULL OR listing_id = $1)
  AND ($2::uuid IS NULL OR user_id = $2)
  AND ($3::text = '' OR status = $3)
`

func (r *ResponseRepo) ListResponses(ctx context.Context, opts repository.ListResponsesOpts) ([]models.Response, int, error) {
	if opts.Limit <= 0 {
		opts.Limit = defaultResponsesLimit
	}

	var total int
	rows, _ := r.DB.Query(ctx, listResponses, opts.ListingID, opts.UserID, opts.Status, opts.Limit, opts.Offset)
	responses, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Response, error) {
		var resp models.Response
		err := row.Scan(
			&resp.ID, &resp.CreatedAt, &resp.UpdatedAt, &resp.ListingID, &resp.UserID, &resp.CompanyID,
			&resp.Status, &resp.Message, &total,
		)
		return resp, err
	})
	if err != nil {
		return nil, 0, fmt.Errorf("db error: %w", err)
	}

	// Page past the end has no rows to carry the window count
	if len(responses) == 0 && opts.Offset > 0 {
		err := r.DB.QueryRow(ctx, countResponses, opts.ListingID, opts.UserID, opts.Status).Scan(&total)
		if err != nil {
			return nil, 0, fmt.Errorf("db error: %w", err)
		}
	}

	return responses, total, nil
}

func collectResponse(rows pgx.Rows) (models.Response, error) {
	resp, err := pgx.CollectOneRow(rows, rowToResponse)

	switch {
	case err == nil:
		return resp, nil
	case errors.Is(err, pgx.ErrNoRows):
		return resp, apperrors.ErrResponseNotFound
	default:
		return resp, fmt.Errorf("db error: %w", err)
	}
}

func rowToResponse(row pgx.CollectableRow) (models.Response, error) {
	var resp models.Response
	err := row.Scan(
		&resp.ID, &resp.CreatedAt, &resp.UpdatedAt, &resp.ListingID, &resp.UserID, &resp.CompanyID,
		&resp.Status, &resp.Message,
	)
	return resp, err
}
