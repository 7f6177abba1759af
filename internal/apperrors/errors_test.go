package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestError_Is(t *testing.T) {
	t.Run("kind sentinel matches same kind", func(t *testing.T) {
		err := fmt.Errorf("wrapped: %w", ErrListingNotFound)

		require.ErrorIs(t, err, ErrNotFound)
		require.ErrorIs(t, err, ErrListingNotFound)
		require.NotErrorIs(t, err, ErrConflict)
	})

	t.Run("well known errors do not match each other", func(t *testing.T) {
		require.NotErrorIs(t, ErrListingNotFound, ErrUserNotFound)
		require.NotErrorIs(t, ErrResponseDuplicate, ErrUserAlreadyExists)
	})

	t.Run("insufficient funds keeps details", func(t *testing.T) {
		err := fmt.Errorf("debit: %w", InsufficientFunds(1, 0))

		require.ErrorIs(t, err, ErrInsufficientFunds)
		appErr := From(err)
		require.Equal(t, KindInsufficientFunds, appErr.Kind)
		require.Equal(t, int64(1), appErr.Details["required"])
		require.Equal(t, int64(0), appErr.Details["current"])
	})
}

func TestInternal(t *testing.T) {
	t.Run("nil stays nil", func(t *testing.T) {
		require.NoError(t, Internal(nil))
	})

	t.Run("wrap unknown error", func(t *testing.T) {
		cause := errors.New("connection reset")

		err := Internal(cause)

		require.ErrorIs(t, err, ErrInternal)
		require.ErrorIs(t, err, cause)
	})

	t.Run("keep application error", func(t *testing.T) {
		err := Internal(fmt.Errorf("ctx: %w", ErrCompanyNotFound))

		require.ErrorIs(t, err, ErrNotFound)
		require.NotErrorIs(t, err, ErrInternal)
	})
}

func TestFrom(t *testing.T) {
	appErr := From(errors.New("boom"))

	require.Equal(t, KindInternal, appErr.Kind)
	require.Equal(t, "internal failure", appErr.Message)
}
