package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/ulule/limiter/v3"

	"github.com/nkiryanov/metalrezerv/internal/handlers/middleware"
	"github.com/nkiryanov/metalrezerv/internal/logger"
	"github.com/nkiryanov/metalrezerv/internal/models"
	"github.com/nkiryanov/metalrezerv/internal/service/admission"
	"github.com/nkiryanov/metalrezerv/internal/service/ledger"
	"github.com/nkiryanov/metalrezerv/internal/service/listing"
)

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

type Services struct {
	Auth      authService
	Ledger    ledgerService
	Admission admissionService
	Company   companyService
	Listing   listingService
	Activity  activityFeed

	// Limits response submissions, no limit if nil
	ResponseLimiter *limiter.Limiter
}

func NewRouter(s Services, l logger.Logger) http.Handler {
	withAuth := middleware.AuthMiddleware(s.Auth)

	submitMiddlewares := []func(http.Handler) http.Handler{withAuth}
	if s.ResponseLimiter != nil {
		submitMiddlewares = append(submitMiddlewares, middleware.RateLimitMiddleware(s.ResponseLimiter, l))
	}

	api := http.NewServeMux()

	api.Handle("POST /auth/register", handleRegister(s.Auth, l))
	api.Handle("POST /auth/login", handleLogin(s.Auth, l))

	api.Handle("GET /me", withAuth(handleUserMe()))
	api.Handle("GET /balance", withAuth(handleUserBalance(s.Ledger, l)))
	api.Handle("GET /activity", withAuth(handleActivity(s.Activity, l)))

	api.Handle("POST /companies", withAuth(handleCreateCompany(s.Company, l)))
	api.Handle("POST /companies/{id}/members", withAuth(handleAddMember(s.Company, l)))
	api.Handle("DELETE /companies/{id}/members/{user_id}", withAuth(handleRemoveMember(s.Company, l)))
	api.Handle("GET /companies/{id}/balance", withAuth(handleCompanyBalance(s.Ledger, l)))
	api.Handle("POST /companies/{id}/deposit", withAuth(handleDeposit(s.Ledger, l)))
	api.Handle("POST /companies/{id}/transfer", withAuth(handleTransfer(s.Ledger, l)))
	api.Handle("PUT /admin/companies/{id}/max-balance", withAuth(handleSetMaxBalance(s.Ledger, l)))
	api.Handle("PUT /admin/companies/{id}/status", withAuth(handleSetCompanyStatus(s.Company, l)))

	api.Handle("POST /listings", withAuth(handleCreateListing(s.Listing, l)))
	api.Handle("PUT /listings/{id}/status", withAuth(handleSetListingStatus(s.Listing, l)))
	api.Handle("POST /listings/{id}/responses", chain(handleSubmitResponse(s.Admission, l), submitMiddlewares...))
	api.Handle("GET /listings/{id}/responses", withAuth(handleListListingResponses(s.Admission, l)))

	api.Handle("GET /responses/my", withAuth(handleListMyResponses(s.Admission, l)))
	api.Handle("PUT /responses/{id}/status", withAuth(handleSetResponseStatus(s.Admission, l)))
	api.Handle("DELETE /responses/{id}", withAuth(handleDeleteResponse(s.Admission, l)))

	root := http.NewServeMux()
	root.Handle("/api/", http.StripPrefix("/api", api))

	return chain(root,
		middleware.LoggerMiddleware(l),
	)
}

type authService interface {
	// Register customer or executor and return access token
	// Has to return apperrors.ErrUserAlreadyExists if user already exists
	Register(ctx context.Context, email string, password string, role string) (models.IssuedToken, error)

	// Has to return apperrors.ErrInvalidCredentials if email or password is wrong
	Login(ctx context.Context, email string, password string) (models.IssuedToken, error)

	// Set access token to response
	SetAccessToResponse(w http.ResponseWriter, token models.IssuedToken)

	// Get request and return user if it authenticated or error
	GetUserFromRequest(ctx context.Context, r *http.Request) (models.User, error)
}

type ledgerService interface {
	DepositToCompany(ctx context.Context, actor models.User, companyID uuid.UUID, amount int64, description string) (ledger.DepositResult, error)
	TransferToEmployee(ctx context.Context, actor models.User, companyID uuid.UUID, userID uuid.UUID, amount int64, description string) (ledger.TransferResult, error)
	GetBalance(ctx context.Context, actor models.User, account models.AccountRef) (models.AccountBalance, error)
	CompanyStatement(ctx context.Context, actor models.User, companyID uuid.UUID) (ledger.Statement, error)
	SetMaxBalance(ctx context.Context, actor models.User, companyID uuid.UUID, maxBalance int64) (models.Company, error)
}

type admissionService interface {
	Submit(ctx context.Context, actor models.User, listingID uuid.UUID, message string) (admission.Result, error)
	SetResponseStatus(ctx context.Context, actor models.User, responseID uuid.UUID, status string) (models.Response, error)
	DeleteResponse(ctx context.Context, actor models.User, responseID uuid.UUID) error
	ListListingResponses(ctx context.Context, actor models.User, listingID uuid.UUID, page admission.Page) (admission.ResponsesPage, error)
	ListMyResponses(ctx context.Context, actor models.User, status string, page admission.Page) (admission.ResponsesPage, error)
}

type companyService interface {
	Create(ctx context.Context, actor models.User, name string, bin string) (models.Company, error)
	AddMember(ctx context.Context, actor models.User, companyID uuid.UUID, email string, role string) (models.Membership, error)
	RemoveMember(ctx context.Context, actor models.User, companyID uuid.UUID, userID uuid.UUID) error
	SetStatus(ctx context.Context, actor models.User, companyID uuid.UUID, status string) (models.Company, error)
}

type listingService interface {
	Create(ctx context.Context, actor models.User, p listing.CreateParams) (models.Listing, error)
	SetStatus(ctx context.Context, actor models.User, listingID uuid.UUID, status string) (models.Listing, error)
}

type activityFeed interface {
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.Activity, error)
}
