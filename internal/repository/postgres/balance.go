package postgres

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"

	"github.com/nkiryanov/metalrezerv/internal/apperrors"
	"github.com/nkiryanov/metalrezerv/internal/models"
	"github.com/nkiryanov/metalrezerv/internal/repository"
)

const defaultTransactionsLimit = 50

type LedgerRepo struct {
	DB DBTX
}

type accountQueries struct {
	get      string
	lock     string
	add      string
	notFound error
}

var accountSQL = map[models.AccountKind]accountQueries{
	models.AccountCompany: {
		get:      `SELECT balance, max_balance FROM companies WHERE id = $1`,
		lock:     `SELECT balance, max_balance FROM companies WHERE id = $1 FOR UPDATE`,
		add:      `UPDATE companies SET balance = balance + $2 WHERE id = $1 RETURNING balance, max_balance`,
		notFound: apperrors.ErrCompanyNotFound,
	},
	models.AccountUser: {
		get:      `SELECT balance, NULL::bigint FROM users WHERE id = $1`,
		lock:     `SELECT balance, NULL::bigint FROM users WHERE id = $1 FOR UPDATE`,
		add:      `UPDATE users SET balance = balance + $2 WHERE id = $1 RETURNING balance, NULL::bigint`,
		notFound: apperrors.ErrUserNotFound,
	},
}

func queriesFor(account models.AccountRef) (accountQueries, error) {
	q, ok := accountSQL[account.Kind]
	if !ok {
		return q, apperrors.InvalidInput("unknown account kind %q", account.Kind)
	}
	return q, nil
}

func (r *LedgerRepo) GetBalance(ctx context.Context, account models.AccountRef, lock bool) (models.AccountBalance, error) {
	q, err := queriesFor(account)
	if err != nil {
		return models.AccountBalance{}, err
	}

	query := q.get
	if lock {
		query = q.lock
	}

	return r.scanBalance(ctx, account, q, query)
}

func (r *LedgerRepo) scanBalance(ctx context.Context, account models.AccountRef, q accountQueries, query string, args ...any) (models.AccountBalance, error) {
	b := models.AccountBalance{Account: account}
	err := r.DB.QueryRow(ctx, query, append([]any{account.ID}, args...)...).Scan(&b.Balance, &b.Ceiling)

	switch {
	case err == nil:
		return b, nil
	case errors.Is(err, pgx.ErrNoRows):
		return b, q.notFound
	default:
		return b, fmt.Errorf("db error: %w", err)
	}
}

func (r *LedgerRepo) LockAccounts(ctx context.Context, accounts ...models.AccountRef) error {
	ordered := slices.Clone(accounts)
	slices.SortFunc(ordered, func(a, b models.AccountRef) int {
		switch {
		case a.Less(b):
			return -1
		case b.Less(a):
			return 1
		default:
			return 0
		}
	})
	ordered = slices.Compact(ordered)

	for _, account := range ordered {
		if _, err := r.GetBalance(ctx, account, true); err != nil {
			return err
		}
	}

	return nil
}

func (r *LedgerRepo) ApplyDelta(ctx context.Context, account models.AccountRef, delta int64) (models.AccountBalance, error) {
	q, err := queriesFor(account)
	if err != nil {
		return models.AccountBalance{}, err
	}

	current, err := r.scanBalance(ctx, account, q, q.lock)
	if err != nil {
		return current, err
	}

	// Compared against the headroom, balance + delta may not fit int64
	switch {
	case delta < 0 && delta < -current.Balance:
		return current, apperrors.InsufficientFunds(-delta, current.Balance)
	case delta > 0 && current.Ceiling != nil && delta > *current.Ceiling-current.Balance:
		return current, apperrors.CeilingExceeded(*current.Ceiling, current.Balance, delta)
	case delta > 0 && delta > math.MaxInt64-current.Balance:
		return current, apperrors.InvalidAmount(delta)
	}

	updated, err := r.scanBalance(ctx, account, q, q.add, delta)
	if err != nil {
		// Table constraints are the last line
		switch code, constraint := pgError(err); {
		case code == pgerrcode.CheckViolation && constraint == "companies_balance_ceiling":
			return current, apperrors.CeilingExceeded(*current.Ceiling, current.Balance, delta)
		case code == pgerrcode.CheckViolation:
			return current, apperrors.InsufficientFunds(-delta, current.Balance)
		}
		return current, err
	}

	return updated, nil
}

const recordTransaction = `-- name: RecordTransaction
INSERT INTO balance_transactions (company_id, user_id, amount, kind, description)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, created_at, company_id, user_id, amount, kind, description
`

func (r *LedgerRepo) RecordTransaction(ctx context.Context, t models.Transaction) (models.Transaction, error) {
	if t.Amount <= 0 {
		return t, apperrors.InvalidAmount(t.Amount)
	}

	switch t.Kind {
	case models.TransactionDeposit, models.TransactionWithdrawal, models.TransactionTransfer:
	default:
		return t, apperrors.InvalidInput("unknown transaction kind %q", t.Kind)
	}

	if t.CompanyID == nil && t.UserID == nil {
		return t, apperrors.InvalidInput("transaction must reference company or user")
	}

	rows, _ := r.DB.Query(ctx, recordTransaction, t.CompanyID, t.UserID, t.Amount, t.Kind, t.Description)
	created, err := pgx.CollectOneRow(rows, rowToTransaction)

	if err != nil {
		code, constraint := pgError(err)
		switch {
		case code == pgerrcode.ForeignKeyViolation && constraint == "balance_transactions_company_id_fkey":
			return t, apperrors.ErrCompanyNotFound
		case code == pgerrcode.ForeignKeyViolation:
			return t, apperrors.ErrUserNotFound
		default:
			return t, fmt.Errorf("db error: %w", err)
		}
	}

	return created, nil
}

const listTransactions = `-- name: ListTransactions
SELECT id, created_at, company_id, user_id, amount, kind, description
FROM balance_transactions
WHERE ($1::uuid IS NULL OR company_id = $1)
  AND ($2::uuid IS NULL OR user_id = $2)
ORDER BY id DESC
LIMIT $3
`

func (r *LedgerRepo) ListTransactions(ctx context.Context, opts repository.ListTransactionsOpts) ([]models.Transaction, error) {
	if opts.Limit <= 0 {
		opts.Limit = defaultTransactionsLimit
	}

	rows, _ := r.DB.Query(ctx, listTransactions, opts.CompanyID, opts.UserID, opts.Limit)
	transactions, err := pgx.CollectRows(rows, rowToTransaction)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return transactions, nil
}

func rowToTransaction(row pgx.CollectableRow) (models.Transaction, error) {
	var t models.Transaction
	err := row.Scan(&t.ID, &t.CreatedAt, &t.CompanyID, &t.UserID, &t.Amount, &t.Kind, &t.Description)
	return t, err
}
