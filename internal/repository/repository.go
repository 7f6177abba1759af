package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/nkiryanov/metalrezerv/internal/models"
)

// Storage gives access to all repositories sharing one connection or transaction
type Storage interface {
	User() UserRepo
	Company() CompanyRepo
	Membership() MembershipRepo
	Ledger() LedgerRepo
	Listing() ListingRepo
	Response() ResponseRepo
	Activity() ActivityRepo

	// Run fn in transaction
	// Commit if fn returns nil, rollback otherwise
	InTx(ctx context.Context, fn func(Storage) error) error
}

type UserRepo interface {
	// If user with the email exists already has to return apperrors.ErrUserAlreadyExists
	CreateUser(ctx context.Context, email string, hashedPassword string, role string) (models.User, error)

	// If user not found must return apperrors.ErrUserNotFound
	GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
}

type CompanyRepo interface {
	CreateCompany(ctx context.Context, name string, bin string, maxBalance int64) (models.Company, error)

	// If company not found must return apperrors.ErrCompanyNotFound
	GetCompany(ctx context.Context, companyID uuid.UUID) (models.Company, error)

	// Must return apperrors.ErrCeilingExceeded if current balance is above the new ceiling
	SetMaxBalance(ctx context.Context, companyID uuid.UUID, maxBalance int64) (models.Company, error)

	// Must return apperrors.ErrInvalidInput for unknown status
	SetStatus(ctx context.Context, companyID uuid.UUID, status string) (models.Company, error)
}

type MembershipRepo interface {
	// If user is a member already has to return apperrors.ErrAlreadyMember
	AddMember(ctx context.Context, companyID uuid.UUID, userID uuid.UUID, role string) (models.Membership, error)

	// If user is not a member must return apperrors.ErrNotCompanyMember
	GetMembership(ctx context.Context, companyID uuid.UUID, userID uuid.UUID) (models.Membership, error)

	// Company the user works for, the earliest one if many
	// If user has no company must return apperrors.ErrNotCompanyMember
	FindUserCompany(ctx context.Context, userID uuid.UUID) (uuid.UUID, error)

	// If user is not a member must return apperrors.ErrNotCompanyMember
	RemoveMember(ctx context.Context, companyID uuid.UUID, userID uuid.UUID) error
}

type ListTransactionsOpts struct {
	CompanyID *uuid.UUID
	UserID    *uuid.UUID
	Limit     int
}

// Ledger store: account balances and append-only transaction log
type LedgerRepo interface {
	// Return current balance
	// If lock is true the account row stays locked until the enclosing transaction ends
	GetBalance(ctx context.Context, account models.AccountRef, lock bool) (models.AccountBalance, error)

	// Lock accounts rows in stable order, see models.AccountRef.Less
	LockAccounts(ctx context.Context, accounts ...models.AccountRef) error

	// Add delta to balance and return new balance
	// Must return apperrors.ErrInsufficientFunds if balance becomes negative
	// Must return apperrors.ErrCeilingExceeded if company balance becomes greater than max balance
	ApplyDelta(ctx context.Context, account models.AccountRef, delta int64) (models.AccountBalance, error)

	// Append transaction
	// Must return apperrors.ErrInvalidAmount if amount is not positive
	RecordTransaction(ctx context.Context, t models.Transaction) (models.Transaction, error)

	// Newest first
	ListTransactions(ctx context.Context, opts ListTransactionsOpts) ([]models.Transaction, error)
}

type CreateListingParams struct {
	Title             string
	Description       string
	Category          string
	Status            string
	UserID            uuid.UUID
	CompanyID         *uuid.UUID
	PublicationPeriod *int32
}

type ListingRepo interface {
	CreateListing(ctx context.Context, p CreateListingParams) (models.Listing, error)

	// If listing not found must return apperrors.ErrListingNotFound
	GetListing(ctx context.Context, listingID uuid.UUID) (models.Listing, error)

	SetStatus(ctx context.Context, listingID uuid.UUID, status string) (models.Listing, error)

	// Unpublish published listings whose publication period ended before 'now'
	// Return number of listings unpublished
	UnpublishExpired(ctx context.Context, now time.Time) (int64, error)
}

type ListResponsesOpts struct {
	ListingID *uuid.UUID
	UserID    *uuid.UUID
	Status    string
	Limit     int
	Offset    int
}

type ResponseRepo interface {
	// Must return apperrors.ErrResponseDuplicate if the user responded to the listing already
	CreateResponse(ctx context.Context, r models.Response) (models.Response, error)

	// If response not found must return apperrors.ErrResponseNotFound
	GetResponse(ctx context.Context, responseID uuid.UUID) (models.Response, error)

	Exists(ctx context.Context, listingID uuid.UUID, userID uuid.UUID) (bool, error)
	SetStatus(ctx context.Context, responseID uuid.UUID, status string) (models.Response, error)
	DeleteResponse(ctx context.Context, responseID uuid.UUID) error

	// Return responses page and total count matching the filter
	ListResponses(ctx context.Context, opts ListResponsesOpts) ([]models.Response, int, error)
}

type ActivityRepo interface {
	Append(ctx context.Context, a models.Activity) (models.Activity, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.Activity, error)
}
