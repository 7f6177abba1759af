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
)

type CompanyRepo struct {
	DB DBTX
}

const companyColumns = `id, created_at, name, bin, status, balance, max_balance`

const createCompany = `-- name: CreateCompany
INSERT INTO companies (id, name, bin, max_balance)
VALUES ($1, $2, $3, $4)
RETURNING ` + companyColumns

func (r *CompanyRepo) CreateCompany(ctx context.Context, name string, bin string, maxBalance int64) (models.Company, error) {
	if maxBalance == 0 {
		maxBalance = models.DefaultMaxBalance
	}

	rows, _ := r.DB.Query(ctx, createCompany, uuid.New(), name, bin, maxBalance)
	company, err := pgx.CollectOneRow(rows, rowToCompany)

	if err != nil {
		if code, _ := pgError(err); code == pgerrcode.CheckViolation {
			return company, apperrors.InvalidAmount(maxBalance)
		}
		return company, fmt.Errorf("db error: %w", err)
	}

	return company, nil
}

const getCompany = `-- name: GetCompany
SELECT ` + companyColumns + ` FROM companies
WHERE id = $1
`

func (r *CompanyRepo) GetCompany(ctx context.Context, companyID uuid.UUID) (models.Company, error) {
	rows, _ := r.DB.Query(ctx, getCompany, companyID)
	return collectCompany(rows)
}

const lockCompany = `-- name: LockCompany
SELECT ` + companyColumns + ` FROM companies
WHERE id = $1
FOR UPDATE
`

const setMaxBalance = `-- name: SetMaxBalance
UPDATE companies SET max_balance = $2
WHERE id = $1
RETURNING ` + companyColumns

func (r *CompanyRepo) SetMaxBalance(ctx context.Context, companyID uuid.UUID, maxBalance int64) (models.Company, error) {
	if maxBalance <= 0 {
		return models.Company{}, apperrors.InvalidAmount(maxBalance)
	}

	rows, _ := r.DB.Query(ctx, lockCompany, companyID)
	company, err := collectCompany(rows)
	if err != nil {
		return company, err
	}

	if company.Balance > maxBalance {
		return company, apperrors.CeilingExceeded(maxBalance, company.Balance, 0)
	}

	rows, _ = r.DB.Query(ctx, setMaxBalance, companyID, maxBalance)
	return collectCompany(rows)
}

const setCompanyStatus = `-- name: SetCompanyStatus
UPDATE companies SET status = $2
WHERE id = $1
RETURNING ` + companyColumns

func (r *CompanyRepo) SetStatus(ctx context.Context, companyID uuid.UUID, status string) (models.Company, error) {
	rows, _ := r.DB.Query(ctx, setCompanyStatus, companyID, status)
	company, err := collectCompany(rows)

	if code, _ := pgError(err); code == pgerrcode.CheckViolation {
		return company, apperrors.InvalidInput("Unknown company status: %s", status)
	}

	return company, err
}

func collectCompany(rows pgx.Rows) (models.Company, error) {
	company, err := pgx.CollectOneRow(rows, rowToCompany)

	switch {
	case err == nil:
		return company, nil
	case errors.Is(err, pgx.ErrNoRows):
		return company, apperrors.ErrCompanyNotFound
	default:
		return company, fmt.Errorf("db error: %w", err)
	}
}

func rowToCompany(row pgx.CollectableRow) (models.Company, error) {
	var c models.Company
	err := row.Scan(&c.ID, &c.CreatedAt, &c.Name, &c.BIN, &c.Status, &c.Balance, &c.MaxBalance)
	return c, err
}

type MembershipRepo struct {
	DB DBTX
}

const addMember = `-- name: AddMember
INSERT INTO company_users (company_id, user_id, role)
VALUES ($1, $2, $3)
RETURNING company_id, user_id, role, created_at
`

func (r *MembershipRepo) AddMember(ctx context.Context, companyID uuid.UUID, userID uuid.UUID, role string) (models.Membership, error) {
	rows, _ := r.DB.Query(ctx, addMember, companyID, userID, role)
	m, err := pgx.CollectOneRow(rows, rowToMembership)

	if err != nil {
		code, constraint := pgError(err)
		switch {
		case code == pgerrcode.UniqueViolation:
			return m, apperrors.ErrAlreadyMember
		case code == pgerrcode.ForeignKeyViolation && constraint == "company_users_company_id_fkey":
			return m, apperrors.ErrCompanyNotFound
		case code == pgerrcode.ForeignKeyViolation:
			return m, apperrors.ErrUserNotFound
		default:
			return m, fmt.Errorf("db error: %w", err)
		}
	}

	return m, nil
}

const getMembership = `-- name: GetMembership
SELECT company_id, user_id, role, created_at FROM company_users
WHERE company_id = $1 AND user_id = $2
`

func (r *MembershipRepo) GetMembership(ctx context.Context, companyID uuid.UUID, userID uuid.UUID) (models.Membership, error) {
	rows, _ := r.DB.Query(ctx, getMembership, companyID, userID)
	m, err := pgx.CollectOneRow(rows, rowToMembership)

	switch {
	case err == nil:
		return m, nil
	case errors.Is(err, pgx.ErrNoRows):
		return m, apperrors.ErrNotCompanyMember
	default:
		return m, fmt.Errorf("db error: %w", err)
	}
}

const findUserCompany = `-- name: FindUserCompany
SELECT company_id FROM company_users
WHERE user_id = $1
ORDER BY created_at, company_id
LIMIT 1
`

func (r *MembershipRepo) FindUserCompany(ctx context.Context, userID uuid.UUID) (uuid.UUID, error) {
	var companyID uuid.UUID
	err := r.DB.QueryRow(ctx, findUserCompany, userID).Scan(&companyID)

	switch {
	case err == nil:
		return companyID, nil
	case errors.Is(err, pgx.ErrNoRows):
		return companyID, apperrors.ErrNotCompanyMember
	default:
		return companyID, fmt.Errorf("db error: %w", err)
	}
}

const removeMember = `-- name: RemoveMember
DELETE FROM company_users
WHERE company_id = $1 AND user_id = $2
`

func (r *MembershipRepo) RemoveMember(ctx context.Context, companyID uuid.UUID, userID uuid.UUID) error {
	tag, err := r.DB.Exec(ctx, removeMember, companyID, userID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotCompanyMember
	}

	return nil
}

func rowToMembership(row pgx.CollectableRow) (models.Membership, error) {
	var m models.Membership
	err := row.Scan(&m.CompanyID, &m.UserID, &m.Role, &m.CreatedAt)
	return m, err
}
