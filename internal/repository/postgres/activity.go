package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/nkiryanov/metalrezerv/internal/models"
)

const defaultActivityLimit = 50

type ActivityRepo struct {
	DB DBTX
}

const appendActivity = `-- name: AppendActivity
INSERT INTO activity_log (user_id, company_id, action, description)
VALUES ($1, $2, $3, $4)
RETURNING id, created_at, user_id, company_id, action, description
`

func (r *ActivityRepo) Append(ctx context.Context, a models.Activity) (models.Activity, error) {
	rows, _ := r.DB.Query(ctx, appendActivity, a.UserID, a.CompanyID, a.Action, a.Description)
	created, err := pgx.CollectOneRow(rows, rowToActivity)
	if err != nil {
		return a, fmt.Errorf("db error: %w", err)
	}

	return created, nil
}

const listActivityByUser = `-- name: ListActivityByUser
SELECT id, created_at, user_id, company_id, action, description FROM activity_log
WHERE user_id = $1
ORDER BY id DESC
LIMIT $2
`

func (r *ActivityRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.Activity, error) {
	if limit <= 0 {
		limit = defaultActivityLimit
	}

	rows, _ := r.DB.Query(ctx, listActivityByUser, userID, limit)
	activities, err := pgx.CollectRows(rows, rowToActivity)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return activities, nil
}

func rowToActivity(row pgx.CollectableRow) (models.Activity, error) {
	var a models.Activity
	err := row.Scan(&a.ID, &a.CreatedAt, &a.UserID, &a.CompanyID, &a.Action, &a.Description)
	return a, err
}
