package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/nkiryanov/metalrezerv/internal/handlers/render"
	"github.com/nkiryanov/metalrezerv/internal/logger"
	"github.com/nkiryanov/metalrezerv/internal/models"
	"github.com/nkiryanov/metalrezerv/internal/service/listing"
)

type listingResponse struct {
	ID                uuid.UUID  `json:"id"`
	Title             string     `json:"title"`
	Description       string     `json:"description"`
	Category          string     `json:"category"`
	Status            string     `json:"status"`
	UserID            uuid.UUID  `json:"user_id"`
	CompanyID         *uuid.UUID `json:"company_id"`
	PublicationPeriod *int32     `json:"publication_period"`
	PublishedAt       *time.Time `json:"published_at"`
	CreatedAt         time.Time  `json:"created_at"`
}

func newListingResponse(l models.Listing) listingResponse {
	return listingResponse{
		ID:                l.ID,
		Title:             l.Title,
		Description:       l.Description,
		Category:          l.Category,
		Status:            l.Status,
		UserID:            l.UserID,
		CompanyID:         l.CompanyID,
		PublicationPeriod: l.PublicationPeriod,
		PublishedAt:       l.PublishedAt,
		CreatedAt:         l.CreatedAt,
	}
}

func handleCreateListing(listingService listingService, l logger.Logger) http.Handler {
	type request struct {
		Title             string `json:"title" validate:"required,max=255"`
		Description       string `json:"description"`
		Category          string `json:"category" validate:"max=100"`
		PublicationPeriod *int32 `json:"publication_period" validate:"omitempty,gt=0"`
		Draft             bool   `json:"draft"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := currentUser(w, r)
		if !ok {
			return
		}

		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		created, err := listingService.Create(r.Context(), user, listing.CreateParams{
			Title:             data.Title,
			Description:       data.Description,
			Category:          data.Category,
			PublicationPeriod: data.PublicationPeriod,
			Draft:             data.Draft,
		})
		if err != nil {
			renderError(w, err, l, "Failed to create listing")
			return
		}

		render.Created(w, newListingResponse(created))
	})
}

func handleSetListingStatus(listingService listingService, l logger.Logger) http.Handler {
	type request struct {
		Status string `json:"status" validate:"required,oneof=published unpublished completed"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := currentUser(w, r)
		if !ok {
			return
		}
		listingID, ok := pathID(w, r)
		if !ok {
			return
		}

		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		updated, err := listingService.SetStatus(r.Context(), user, listingID, data.Status)
		if err != nil {
			renderError(w, err, l, "Failed to update listing status")
			return
		}

		render.JSON(w, newListingResponse(updated))
	})
}
