package listing

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
		logger:  l.With("component", "listing"),
	}
}

type CreateParams struct {
	Title       string
	Description string
	Category    string

	// Days to stay published, unlimited if nil
	PublicationPeriod *int32

	// Create as draft instead of publishing right away
	Draft bool
}

// Create listing owned by the actor and scoped to the actor company if there is one
func (s *Service) Create(ctx context.Context, actor models.User, p CreateParams) (models.Listing, error) {
	var listing models.Listing

	if actor.Role == models.RoleExecutor {
		return listing, apperrors.Forbidden("Executors can not create listings")
	}

	p.Title = strings.TrimSpace(p.Title)
	if p.Title == "" {
		return listing, apperrors.InvalidInput("Listing title is required")
	}
	if p.PublicationPeriod != nil && *p.PublicationPeriod <= 0 {
		return listing, apperrors.InvalidInput("Publication period must be positive")
	}

	status := models.ListingPublished
	if p.Draft {
		status = models.ListingUnpublished
	}

	err := s.storage.InTx(ctx, func(st repository.Storage) error {
		var companyID *uuid.UUID
		id, err := st.Membership().FindUserCompany(ctx, actor.ID)
		switch {
		case errors.Is(err, apperrors.ErrNotCompanyMember):
		case err != nil:
			return err
		default:
			companyID = &id
		}

		listing, err = st.Listing().CreateListing(ctx, repository.CreateListingParams{
			Title:             p.Title,
			Description:       p.Description,
			Category:          p.Category,
			Status:            status,
			UserID:            actor.ID,
			CompanyID:         companyID,
			PublicationPeriod: p.PublicationPeriod,
		})
		if err != nil {
			return err
		}

		_, err = st.Activity().Append(ctx, models.Activity{
			UserID:      actor.ID,
			CompanyID:   companyID,
			Action:      models.ActionCreateListing,
			Description: fmt.Sprintf("Created listing: %s", listing.Title),
		})
		return err
	})
	if err != nil {
		return models.Listing{}, apperrors.Internal(err)
	}

	s.logger.Info("Listing created", "listing_id", listing.ID, "user_id", actor.ID, "status", listing.Status)
	return listing, nil
}

// SetStatus publishes, unpublishes or completes listing, owner only
func (s *Service) SetStatus(ctx context.Context, actor models.User, listingID uuid.UUID, status string) (models.Listing, error) {
	var listing models.Listing

	switch status {
	case models.ListingPublished, models.ListingUnpublished, models.ListingCompleted:
	default:
		return listing, apperrors.InvalidInput("Status must be published, unpublished or completed")
	}

	err := s.storage.InTx(ctx, func(st repository.Storage) error {
		current, err := st.Listing().GetListing(ctx, listingID)
		if err != nil {
			return err
		}
		if current.UserID != actor.ID {
			return apperrors.Forbidden("Only the listing owner can change its status")
		}

		listing, err = st.Listing().SetStatus(ctx, listingID, status)
		if err != nil {
			return err
		}

		_, err = st.Activity().Append(ctx, models.Activity{
			UserID:      actor.ID,
			CompanyID:   listing.CompanyID,
			Action:      models.ActionUpdateListingStatus,
			Description: fmt.Sprintf("Updated listing status to %s: %s", status, listing.Title),
		})
		return err
	})
	if err != nil {
		return models.Listing{}, apperrors.Internal(err)
	}

	s.logger.Info("Listing status updated", "listing_id", listingID, "status", status)
	return listing, nil
}
