package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/nkiryanov/metalrezerv/internal/apperrors"
	"github.com/nkiryanov/metalrezerv/internal/logger"
	"github.com/nkiryanov/metalrezerv/internal/models"
	"github.com/nkiryanov/metalrezerv/internal/repository"
)

const (
	defaultDepositDescription  = "Company balance deposit"
	defaultTransferDescription = "Balance transfer to employee"

	statementSize = 50
)

// Service moves money between company and user accounts
// Every movement is one database transaction: balance check, mutation, transaction record and activity entry
type Service struct {
	storage repository.Storage
	logger  logger.Logger
}

func NewService(storage repository.Storage, l logger.Logger) *Service {
	return &Service{
		storage: storage,
		logger:  l.With("component", "ledger"),
	}
}

type DepositResult struct {
	NewBalance int64
}

func (s *Service) DepositToCompany(ctx context.Context, actor models.User, companyID uuid.UUID, amount int64, description string) (DepositResult, error) {
	var res DepositResult

	if err := s.authorizeBalanceChange(ctx, actor, companyID); err != nil {
		return res, err
	}

	if amount <= 0 {
		return res, apperrors.InvalidAmount(amount)
	}

	if description == "" {
		description = defaultDepositDescription
	}

	err := s.storage.InTx(ctx, func(st repository.Storage) error {
		b, err := st.Ledger().ApplyDelta(ctx, models.CompanyAccount(companyID), amount)
		if err != nil {
			return err
		}

		_, err = st.Ledger().RecordTransaction(ctx, models.Transaction{
			CompanyID:   &companyID,
			Amount:      amount,
			Kind:        models.TransactionDeposit,
			Description: description,
		})
		if err != nil {
			return err
		}

		_, err = st.Activity().Append(ctx, models.Activity{
			UserID:      actor.ID,
			CompanyID:   &companyID,
			Action:      models.ActionDepositBalance,
			Description: fmt.Sprintf("Deposited %d to company balance", amount),
		})
		if err != nil {
			return err
		}

		res.NewBalance = b.Balance
		return nil
	})
	if err != nil {
		return DepositResult{}, apperrors.Internal(err)
	}

	s.logger.Info("Company balance deposited", "company_id", companyID, "amount", amount, "balance", res.NewBalance)
	return res, nil
}

type TransferResult struct {
	NewCompanyBalance int64
	NewUserBalance    int64
}

func (s *Service) TransferToEmployee(ctx context.Context, actor models.User, companyID uuid.UUID, userID uuid.UUID, amount int64, description string) (TransferResult, error) {
	var res TransferResult

	if err := s.authorizeBalanceChange(ctx, actor, companyID); err != nil {
		return res, err
	}

	_, err := s.storage.Membership().GetMembership(ctx, companyID, userID)
	if err != nil {
		return res, apperrors.Internal(err)
	}

	if amount <= 0 {
		return res, apperrors.InvalidAmount(amount)
	}

	if description == "" {
		description = defaultTransferDescription
	}

	company := models.CompanyAccount(companyID)
	user := models.UserAccount(userID)

	err = s.storage.InTx(ctx, func(st repository.Storage) error {
		if err := st.Ledger().LockAccounts(ctx, company, user); err != nil {
			return err
		}

		cb, err := st.Ledger().ApplyDelta(ctx, company, -amount)
		if err != nil {
			return err
		}

		ub, err := st.Ledger().ApplyDelta(ctx, user, amount)
		if err != nil {
			return err
		}

		_, err = st.Ledger().RecordTransaction(ctx, models.Transaction{
			CompanyID:   &companyID,
			UserID:      &userID,
			Amount:      amount,
			Kind:        models.TransactionTransfer,
			Description: description,
		})
		if err != nil {
			return err
		}

		_, err = st.Activity().Append(ctx, models.Activity{
			UserID:      actor.ID,
			CompanyID:   &companyID,
			Action:      models.ActionTransferBalance,
			Description: fmt.Sprintf("Transferred %d to employee %s", amount, userID),
		})
		if err != nil {
			return err
		}

		res = TransferResult{NewCompanyBalance: cb.Balance, NewUserBalance: ub.Balance}
		return nil
	})
	if err != nil {
		return TransferResult{}, apperrors.Internal(err)
	}

	s.logger.Info("Balance transferred to employee", "company_id", companyID, "user_id", userID, "amount", amount)
	return res, nil
}

// Debit charges user account and records withdrawal
// Runs on the caller transaction 'st', so the caller decides whether it is committed
func (s *Service) Debit(ctx context.Context, st repository.Storage, userID uuid.UUID, companyID *uuid.UUID, amount int64, description string) (int64, error) {
	if amount <= 0 {
		return 0, apperrors.InvalidAmount(amount)
	}

	b, err := st.Ledger().ApplyDelta(ctx, models.UserAccount(userID), -amount)
	if err != nil {
		return 0, err
	}

	_, err = st.Ledger().RecordTransaction(ctx, models.Transaction{
		CompanyID:   companyID,
		UserID:      &userID,
		Amount:      amount,
		Kind:        models.TransactionWithdrawal,
		Description: description,
	})
	if err != nil {
		return 0, err
	}

	return b.Balance, nil
}

// GetBalance returns balance of the actor itself or of a company the actor is a member of
func (s *Service) GetBalance(ctx context.Context, actor models.User, account models.AccountRef) (models.AccountBalance, error) {
	switch {
	case actor.Role == models.RoleAdmin:
	case account.Kind == models.AccountUser && account.ID != actor.ID:
		return models.AccountBalance{}, apperrors.Forbidden("Unauthorized access to user balance")
	case account.Kind == models.AccountCompany:
		if err := s.authorizeMember(ctx, actor, account.ID); err != nil {
			return models.AccountBalance{}, err
		}
	}

	b, err := s.storage.Ledger().GetBalance(ctx, account, false)
	if err != nil {
		return b, apperrors.Internal(err)
	}

	return b, nil
}

type Statement struct {
	Balance      models.AccountBalance
	Transactions []models.Transaction
}

// CompanyStatement returns company balance with the latest transactions
func (s *Service) CompanyStatement(ctx context.Context, actor models.User, companyID uuid.UUID) (Statement, error) {
	var st Statement

	b, err := s.GetBalance(ctx, actor, models.CompanyAccount(companyID))
	if err != nil {
		return st, err
	}

	transactions, err := s.storage.Ledger().ListTransactions(ctx, repository.ListTransactionsOpts{
		CompanyID: &companyID,
		Limit:     statementSize,
	})
	if err != nil {
		return st, apperrors.Internal(err)
	}

	return Statement{Balance: b, Transactions: transactions}, nil
}

// SetMaxBalance changes company ceiling, platform admins only
func (s *Service) SetMaxBalance(ctx context.Context, actor models.User, companyID uuid.UUID, maxBalance int64) (models.Company, error) {
	var company models.Company

	if actor.Role != models.RoleAdmin {
		return company, apperrors.Forbidden("Admin access required")
	}

	if maxBalance <= 0 {
		return company, apperrors.InvalidAmount(maxBalance)
	}

	err := s.storage.InTx(ctx, func(st repository.Storage) error {
		var err error
		company, err = st.Company().SetMaxBalance(ctx, companyID, maxBalance)
		if err != nil {
			return err
		}

		_, err = st.Activity().Append(ctx, models.Activity{
			UserID:      actor.ID,
			CompanyID:   &companyID,
			Action:      models.ActionUpdateMaxBalance,
			Description: fmt.Sprintf("Updated max balance for company %s to %d", company.Name, maxBalance),
		})
		return err
	})
	if err != nil {
		return models.Company{}, apperrors.Internal(err)
	}

	s.logger.Info("Company max balance updated", "company_id", companyID, "max_balance", maxBalance)
	return company, nil
}

// Deposits and transfers are allowed to company owners and admins and to executor members
func (s *Service) authorizeBalanceChange(ctx context.Context, actor models.User, companyID uuid.UUID) error {
	if actor.Role == models.RoleAdmin {
		return nil
	}

	m, err := s.storage.Membership().GetMembership(ctx, companyID, actor.ID)
	switch {
	case errors.Is(err, apperrors.ErrNotCompanyMember):
		return apperrors.Forbidden("Unauthorized to change company balance")
	case err != nil:
		return apperrors.Internal(err)
	}

	if m.Role == models.MemberOwner || m.Role == models.MemberAdmin || actor.Role == models.RoleExecutor {
		return nil
	}

	return apperrors.Forbidden("Unauthorized to change company balance")
}

func (s *Service) authorizeMember(ctx context.Context, actor models.User, companyID uuid.UUID) error {
	_, err := s.storage.Membership().GetMembership(ctx, companyID, actor.ID)
	switch {
	case errors.Is(err, apperrors.ErrNotCompanyMember):
		return apperrors.Forbidden("Unauthorized access to company balance")
	case err != nil:
		return apperrors.Internal(err)
	default:
		return nil
	}
}
