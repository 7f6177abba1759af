package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/nkiryanov/metalrezerv/internal/models"
	"github.com/nkiryanov/metalrezerv/internal/service/admission"
	"github.com/nkiryanov/metalrezerv/internal/service/ledger"
	"github.com/nkiryanov/metalrezerv/internal/service/listing"
)

type mockAuth struct{ mock.Mock }

func (m *mockAuth) Register(ctx context.Context, email string, password string, role string) (models.IssuedToken, error) {
	args := m.Called(ctx, email, password, role)
	return args.Get(0).(models.IssuedToken), args.Error(1)
}

func (m *mockAuth) Login(ctx context.Context, email string, password string) (models.IssuedToken, error) {
	args := m.Called(ctx, email, password)
	return args.Get(0).(models.IssuedToken), args.Error(1)
}

func (m *mockAuth) SetAccessToResponse(w http.ResponseWriter, token models.IssuedToken) {
	w.Header().Set("Authorization", "Bearer "+token.Value)
}

func (m *mockAuth) GetUserFromRequest(ctx context.Context, r *http.Request) (models.User, error) {
	args := m.Called(ctx, r)
	return args.Get(0).(models.User), args.Error(1)
}

type mockLedger struct{ mock.Mock }

func (m *mockLedger) DepositToCompany(ctx context.Context, actor models.User, companyID uuid.UUID, amount int64, description string) (ledger.DepositResult, error) {
	args := m.Called(ctx, actor, companyID, amount, description)
	return args.Get(0).(ledger.DepositResult), args.Error(1)
}

func (m *mockLedger) TransferToEmployee(ctx context.Context, actor models.User, companyID uuid.UUID, userID uuid.UUID, amount int64, description string) (ledger.TransferResult, error) {
	args := m.Called(ctx, actor, companyID, userID, amount, description)
	return args.Get(0).(ledger.TransferResult), args.Error(1)
}

func (m *mockLedger) GetBalance(ctx context.Context, actor models.User, account models.AccountRef) (models.AccountBalance, error) {
	args := m.Called(ctx, actor, account)
	return args.Get(0).(models.AccountBalance), args.Error(1)
}

func (m *mockLedger) CompanyStatement(ctx context.Context, actor models.User, companyID uuid.UUID) (ledger.Statement, error) {
	args := m.Called(ctx, actor, companyID)
	return args.Get(0).(ledger.Statement), args.Error(1)
}

func (m *mockLedger) SetMaxBalance(ctx context.Context, actor models.User, companyID uuid.UUID, maxBalance int64) (models.Company, error) {
	args := m.Called(ctx, actor, companyID, maxBalance)
	return args.Get(0).(models.Company), args.Error(1)
}

type mockAdmission struct{ mock.Mock }

func (m *mockAdmission) Submit(ctx context.Context, actor models.User, listingID uuid.UUID, message string) (admission.Result, error) {
	args := m.Called(ctx, actor, listingID, message)
	return args.Get(0).(admission.Result), args.Error(1)
}

func (m *mockAdmission) SetResponseStatus(ctx context.Context, actor models.User, responseID uuid.UUID, status string) (models.Response, error) {
	args := m.Called(ctx, actor, responseID, status)
	return args.Get(0).(models.Response), args.Error(1)
}

func (m *mockAdmission) DeleteResponse(ctx context.Context, actor models.User, responseID uuid.UUID) error {
	args := m.Called(ctx, actor, responseID)
	return args.Error(0)
}

func (m *mockAdmission) ListListingResponses(ctx context.Context, actor models.User, listingID uuid.UUID, page admission.Page) (admission.ResponsesPage, error) {
	args := m.Called(ctx, actor, listingID, page)
	return args.Get(0).(admission.ResponsesPage), args.Error(1)
}

func (m *mockAdmission) ListMyResponses(ctx context.Context, actor models.User, status string, page admission.Page) (admission.ResponsesPage, error) {
	args := m.Called(ctx, actor, status, page)
	return args.Get(0).(admission.ResponsesPage), args.Error(1)
}

type mockCompany struct{ mock.Mock }

func (m *mockCompany) Create(ctx context.Context, actor models.User, name string, bin string) (models.Company, error) {
	args := m.Called(ctx, actor, name, bin)
	return args.Get(0).(models.Company), args.Error(1)
}

func (m *mockCompany) AddMember(ctx context.Context, actor models.User, companyID uuid.UUID, email string, role string) (models.Membership, error) {
	args := m.Called(ctx, actor, companyID, email, role)
	return args.Get(0).(models.Membership), args.Error(1)
}

func (m *mockCompany) RemoveMember(ctx context.Context, actor models.User, companyID uuid.UUID, userID uuid.UUID) error {
	args := m.Called(ctx, actor, companyID, userID)
	return args.Error(0)
}

func (m *mockCompany) SetStatus(ctx context.Context, actor models.User, companyID uuid.UUID, status string) (models.Company, error) {
	args := m.Called(ctx, actor, companyID, status)
	return args.Get(0).(models.Company), args.Error(1)
}

type mockListing struct{ mock.Mock }

func (m *mockListing) Create(ctx context.Context, actor models.User, p listing.CreateParams) (models.Listing, error) {
	args := m.Called(ctx, actor, p)
	return args.Get(0).(models.Listing), args.Error(1)
}

func (m *mockListing) SetStatus(ctx context.Context, actor models.User, listingID uuid.UUID, status string) (models.Listing, error) {
	args := m.Called(ctx, actor, listingID, status)
	return args.Get(0).(models.Listing), args.Error(1)
}

type mockActivity struct{ mock.Mock }

func (m *mockActivity) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.Activity, error) {
	args := m.Called(ctx, userID, limit)
	return args.Get(0).([]models.Activity), args.Error(1)
}
