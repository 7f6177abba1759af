package company

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/nkiryanov/metalrezerv/internal/apperrors"
	"github.com/nkiryanov/metalrezerv/internal/logger"
	"github.com/nkiryanov/metalrezerv/internal/models"
	"github.com/nkiryanov/metalrezerv/internal/repository"
)

type Service struct {
	storage repository.Storage
	logger  logger.Logger
}

func NewService(storage repository.Storage, l logger.Logger) *Service {
	return &Service{
		storage: storage,
		logger:  l.With("component", "company"),
	}
}

// Create company with default ceiling, the actor becomes its owner
func (s *Service) Create(ctx context.Context, actor models.User, name string, bin string) (models.Company, error) {
	var company models.Company

	name = strings.TrimSpace(name)
	if name == "" {
		return company, apperrors.InvalidInput("Company name is required")
	}

	err := s.storage.InTx(ctx, func(st repository.Storage) error {
		var err error
		company, err = st.Company().CreateCompany(ctx, name, bin, models.DefaultMaxBalance)
		if err != nil {
			return err
		}

		if _, err = st.Membership().AddMember(ctx, company.ID, actor.ID, models.MemberOwner); err != nil {
			return err
		}

		_, err = st.Activity().Append(ctx, models.Activity{
			UserID:      actor.ID,
			CompanyID:   &company.ID,
			Action:      models.ActionCreateCompany,
			Description: fmt.Sprintf("Created company: %s", company.Name),
		})
		return err
	})
	if err != nil {
		return models.Company{}, apperrors.Internal(err)
	}

	s.logger.Info("Company created", "company_id", company.ID, "owner_id", actor.ID)
	return company, nil
}

// AddMember adds registered user by email, company owners and admins only
func (s *Service) AddMember(ctx context.Context, actor models.User, companyID uuid.UUID, email string, role string) (models.Membership, error) {
	var m models.Membership

	switch role {
	case models.MemberAdmin, models.MemberManager, models.MemberEmployee:
	default:
		return m, apperrors.InvalidInput("Role must be admin, manager or employee")
	}

	if err := s.authorizeManager(ctx, actor, companyID, "Unauthorized to manage company members"); err != nil {
		return m, err
	}

	err := s.storage.InTx(ctx, func(st repository.Storage) error {
		user, err := st.User().GetUserByEmail(ctx, strings.ToLower(email))
		if err != nil {
			return err
		}

		m, err = st.Membership().AddMember(ctx, companyID, user.ID, role)
		if err != nil {
			return err
		}

		_, err = st.Activity().Append(ctx, models.Activity{
			UserID:      actor.ID,
			CompanyID:   &companyID,
			Action:      models.ActionAddMember,
			Description: fmt.Sprintf("Added %s as %s", user.Email, role),
		})
		return err
	})
	if err != nil {
		return models.Membership{}, apperrors.Internal(err)
	}

	s.logger.Info("Company member added", "company_id", companyID, "user_id", m.UserID, "role", role)
	return m, nil
}

// RemoveMember removes user from the company, company owners and admins only
// Owner can not be removed
func (s *Service) RemoveMember(ctx context.Context, actor models.User, companyID uuid.UUID, userID uuid.UUID) error {
	if err := s.authorizeManager(ctx, actor, companyID, "Unauthorized to remove employees"); err != nil {
		return err
	}

	err := s.storage.InTx(ctx, func(st repository.Storage) error {
		target, err := st.Membership().GetMembership(ctx, companyID, userID)
		if err != nil {
			return err
		}
		if target.Role == models.MemberOwner {
			return apperrors.Forbidden("Cannot remove company owner")
		}

		user, err := st.User().GetUserByID(ctx, userID)
		if err != nil {
			return err
		}

		if err = st.Membership().RemoveMember(ctx, companyID, userID); err != nil {
			return err
		}

		_, err = st.Activity().Append(ctx, models.Activity{
			UserID:      actor.ID,
			CompanyID:   &companyID,
			Action:      models.ActionRemoveMember,
			Description: fmt.Sprintf("Removed %s (%s)", user.Email, target.Role),
		})
		return err
	})
	if err != nil {
		return apperrors.Internal(err)
	}

	s.logger.Info("Company member removed", "company_id", companyID, "user_id", userID)
	return nil
}

// SetStatus moderates the company, platform admins only
func (s *Service) SetStatus(ctx context.Context, actor models.User, companyID uuid.UUID, status string) (models.Company, error) {
	var company models.Company

	if actor.Role != models.RoleAdmin {
		return company, apperrors.Forbidden("Admin access required")
	}

	switch status {
	case models.CompanyStatusPending, models.CompanyStatusApproved, models.CompanyStatusRejected:
	default:
		return company, apperrors.InvalidInput("Status must be pending, approved or rejected")
	}

	err := s.storage.InTx(ctx, func(st repository.Storage) error {
		var err error
		company, err = st.Company().SetStatus(ctx, companyID, status)
		if err != nil {
			return err
		}

		_, err = st.Activity().Append(ctx, models.Activity{
			UserID:      actor.ID,
			CompanyID:   &companyID,
			Action:      models.ActionUpdateCompanyStatus,
			Description: fmt.Sprintf("Updated company status to %s: %s", status, company.Name),
		})
		return err
	})
	if err != nil {
		return models.Company{}, apperrors.Internal(err)
	}

	s.logger.Info("Company status updated", "company_id", companyID, "status", status)
	return company, nil
}

// Platform admins pass, otherwise actor must be company owner or admin
func (s *Service) authorizeManager(ctx context.Context, actor models.User, companyID uuid.UUID, denied string) error {
	if actor.Role == models.RoleAdmin {
		return nil
	}

	am, err := s.storage.Membership().GetMembership(ctx, companyID, actor.ID)
	switch {
	case errors.Is(err, apperrors.ErrNotCompanyMember):
		return apperrors.Forbidden("%s", denied)
	case err != nil:
		return apperrors.Internal(err)
	case am.Role != models.MemberOwner && am.Role != models.MemberAdmin:
		return apperrors.Forbidden("%s", denied)
	}
	return nil
}
