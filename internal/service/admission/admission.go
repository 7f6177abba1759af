package admission

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

// ResponseCost is what an executor pays for one response
const ResponseCost int64 = 1

const (
	defaultPerPage = 20
	maxPerPage     = 100
)

// Debits executor balance on the caller transaction
type Debiter interface {
	Debit(ctx context.Context, st repository.Storage, userID uuid.UUID, companyID *uuid.UUID, amount int64, description string) (int64, error)
}

type Controller struct {
	storage repository.Storage
	ledger  Debiter
	logger  logger.Logger
}

func NewController(storage repository.Storage, ledger Debiter, l logger.Logger) *Controller {
	return &Controller{
		storage: storage,
		ledger:  ledger,
		logger:  l.With("component", "admission"),
	}
}

type Result struct {
	ResponseID       uuid.UUID
	RemainingBalance int64
}

// Submit creates executor response to a published listing and charges ResponseCost for it
// Checks go in fixed order, the first failed one is returned and nothing is changed
func (c *Controller) Submit(ctx context.Context, actor models.User, listingID uuid.UUID, message string) (Result, error) {
	var res Result

	if actor.Role != models.RoleExecutor {
		return res, apperrors.Forbidden("Only executors can respond to listings")
	}

	err := c.storage.InTx(ctx, func(st repository.Storage) error {
		listing, err := st.Listing().GetListing(ctx, listingID)
		switch {
		case errors.Is(err, apperrors.ErrListingNotFound):
			return apperrors.ErrListingUnavailable
		case err != nil:
			return err
		case listing.Status != models.ListingPublished:
			return apperrors.ErrListingUnavailable
		}

		exists, err := st.Response().Exists(ctx, listingID, actor.ID)
		if err != nil {
			return err
		}
		if exists {
			return apperrors.ErrResponseDuplicate
		}

		// Locks executor row until commit, concurrent debits of the same user queue here
		b, err := st.Ledger().GetBalance(ctx, models.UserAccount(actor.ID), true)
		if err != nil {
			return err
		}
		if b.Balance < ResponseCost {
			return apperrors.InsufficientFunds(ResponseCost, b.Balance)
		}

		var companyID *uuid.UUID
		id, err := st.Membership().FindUserCompany(ctx, actor.ID)
		switch {
		case errors.Is(err, apperrors.ErrNotCompanyMember):
		case err != nil:
			return err
		default:
			companyID = &id
		}

		response, err := st.Response().CreateResponse(ctx, models.Response{
			ListingID: listingID,
			UserID:    actor.ID,
			CompanyID: companyID,
			Status:    models.ResponsePending,
			Message:   message,
		})
		if err != nil {
			return err
		}

		balance, err := c.ledger.Debit(ctx, st, actor.ID, companyID, ResponseCost, fmt.Sprintf("Response to listing: %s", listing.Title))
		if err != nil {
			return err
		}

		_, err = st.Activity().Append(ctx, models.Activity{
			UserID:      actor.ID,
			CompanyID:   companyID,
			Action:      models.ActionCreateResponse,
			Description: fmt.Sprintf("Responded to listing: %s", listing.Title),
		})
		if err != nil {
			return err
		}

		res = Result{ResponseID: response.ID, RemainingBalance: balance}
		return nil
	})
	if err != nil {
		return Result{}, apperrors.Internal(err)
	}

	c.logger.Info("Response submitted", "response_id", res.ResponseID, "listing_id", listingID, "user_id", actor.ID, "balance", res.RemainingBalance)
	return res, nil
}

// SetResponseStatus accepts or rejects response, listing owner only
// Status may be changed again after it was set once
func (c *Controller) SetResponseStatus(ctx context.Context, actor models.User, responseID uuid.UUID, status string) (models.Response, error) {
	var response models.Response

	if status != models.ResponseAccepted && status != models.ResponseRejected {
		return response, apperrors.InvalidInput("Status must be accepted or rejected")
	}

	err := c.storage.InTx(ctx, func(st repository.Storage) error {
		current, err := st.Response().GetResponse(ctx, responseID)
		if err != nil {
			return err
		}

		listing, err := st.Listing().GetListing(ctx, current.ListingID)
		if err != nil {
			return err
		}
		if listing.UserID != actor.ID {
			return apperrors.Forbidden("Only the listing owner can change response status")
		}

		response, err = st.Response().SetStatus(ctx, responseID, status)
		if err != nil {
			return err
		}

		_, err = st.Activity().Append(ctx, models.Activity{
			UserID:      actor.ID,
			CompanyID:   listing.CompanyID,
			Action:      models.ActionUpdateResponseStatus,
			Description: fmt.Sprintf("Updated response status to %s for listing: %s", status, listing.Title),
		})
		return err
	})
	if err != nil {
		return models.Response{}, apperrors.Internal(err)
	}

	c.logger.Info("Response status updated", "response_id", responseID, "status", status)
	return response, nil
}

// DeleteResponse removes pending response of the actor
// The response cost is not refunded
func (c *Controller) DeleteResponse(ctx context.Context, actor models.User, responseID uuid.UUID) error {
	err := c.storage.InTx(ctx, func(st repository.Storage) error {
		response, err := st.Response().GetResponse(ctx, responseID)
		if err != nil {
			return err
		}

		// Someone else's response looks like a missing one
		if response.UserID != actor.ID {
			return apperrors.ErrResponseNotFound
		}
		if response.Status != models.ResponsePending {
			return apperrors.ErrResponseFinalized
		}

		if err := st.Response().DeleteResponse(ctx, responseID); err != nil {
			return err
		}

		description := "Deleted response"
		listing, err := st.Listing().GetListing(ctx, response.ListingID)
		switch {
		case errors.Is(err, apperrors.ErrListingNotFound):
		case err != nil:
			return err
		default:
			description = fmt.Sprintf("Deleted response for listing: %s", listing.Title)
		}

		_, err = st.Activity().Append(ctx, models.Activity{
			UserID:      actor.ID,
			CompanyID:   response.CompanyID,
			Action:      models.ActionDeleteResponse,
			Description: description,
		})
		return err
	})
	if err != nil {
		return apperrors.Internal(err)
	}

	c.logger.Info("Response deleted", "response_id", responseID, "user_id", actor.ID)
	return nil
}

type Page struct {
	Number  int
	PerPage int
}

func (p Page) normalize() Page {
	if p.Number < 1 {
		p.Number = 1
	}
	if p.PerPage < 1 {
		p.PerPage = defaultPerPage
	}
	if p.PerPage > maxPerPage {
		p.PerPage = maxPerPage
	}
	return p
}

type ResponsesPage struct {
	Responses []models.Response
	Total     int
	Page      int
	PerPage   int
}

// ListListingResponses returns responses to the listing, listing owner only
func (c *Controller) ListListingResponses(ctx context.Context, actor models.User, listingID uuid.UUID, page Page) (ResponsesPage, error) {
	listing, err := c.storage.Listing().GetListing(ctx, listingID)
	if err != nil {
		return ResponsesPage{}, apperrors.Internal(err)
	}
	if listing.UserID != actor.ID {
		return ResponsesPage{}, apperrors.Forbidden("Only the listing owner can view responses")
	}

	return c.list(ctx, repository.ListResponsesOpts{ListingID: &listingID}, page)
}

// ListMyResponses returns responses created by the actor, optionally filtered by status
func (c *Controller) ListMyResponses(ctx context.Context, actor models.User, status string, page Page) (ResponsesPage, error) {
	switch status {
	case "", models.ResponsePending, models.ResponseAccepted, models.ResponseRejected:
	default:
		return ResponsesPage{}, apperrors.InvalidInput("Unknown response status: %s", status)
	}

	return c.list(ctx, repository.ListResponsesOpts{UserID: &actor.ID, Status: status}, page)
}

func (c *Controller) list(ctx context.Context, opts repository.ListResponsesOpts, page Page) (ResponsesPage, error) {
	page = page.normalize()
	opts.Limit = page.PerPage
	opts.Offset = (page.Number - 1) * page.PerPage

	responses, total, err := c.storage.Response().ListResponses(ctx, opts)
	if err != nil {
		return ResponsesPage{}, apperrors.Internal(err)
	}

	return ResponsesPage{
		Responses: responses,
		Total:     total,
		Page:      page.Number,
		PerPage:   page.PerPage,
	}, nil
}
