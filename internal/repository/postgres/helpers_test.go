package postgres

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/metalrezerv/internal/models"
	"github.com/nkiryanov/metalrezerv/internal/repository"
	"github.com/nkiryanov/metalrezerv/internal/testutil"
)

// Run fn with storage bound to a transaction rolled back at the end
func inTx(t *testing.T, outer DBTX, fn func(pgx.Tx, repository.Storage)) {
	testutil.InTx(outer, t, func(tx pgx.Tx) {
		fn(tx, NewStorage(tx))
	})
}

func newTestUser(t *testing.T, s repository.Storage, role string, balance int64) models.User {
	t.Helper()

	user, err := s.User().CreateUser(t.Context(), fmt.Sprintf("%s@example.com", uuid.NewString()), "hash", role)
	require.NoError(t, err)

	if balance != 0 {
		b, err := s.Ledger().ApplyDelta(t.Context(), models.UserAccount(user.ID), balance)
		require.NoError(t, err)
		user.Balance = b.Balance
	}

	return user
}

func newTestCompany(t *testing.T, s repository.Storage, balance int64, maxBalance int64) models.Company {
	t.Helper()

	company, err := s.Company().CreateCompany(t.Context(), "Steel Works", "123456789012", maxBalance)
	require.NoError(t, err)

	if balance != 0 {
		b, err := s.Ledger().ApplyDelta(t.Context(), models.CompanyAccount(company.ID), balance)
		require.NoError(t, err)
		company.Balance = b.Balance
	}

	return company
}

func newTestListing(t *testing.T, s repository.Storage, owner models.User, status string) models.Listing {
	t.Helper()

	listing, err := s.Listing().CreateListing(t.Context(), repository.CreateListingParams{
		Title:  "Rebar A500C 12mm, 20t",
		Status: status,
		UserID: owner.ID,
	})
	require.NoError(t, err)

	return listing
}
