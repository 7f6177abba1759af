package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/nkiryanov/metalrezerv/internal/handlers/render"
	"github.com/nkiryanov/metalrezerv/internal/logger"
	"github.com/nkiryanov/metalrezerv/internal/models"
	"github.com/nkiryanov/metalrezerv/internal/service/admission"
)

type responseItem struct {
	ID        uuid.UUID  `json:"id"`
	ListingID uuid.UUID  `json:"listing_id"`
	UserID    uuid.UUID  `json:"user_id"`
	CompanyID *uuid.UUID `json:"company_id"`
	Status    string     `json:"status"`
	Message   string     `json:"message"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func newResponseItem(r models.Response) responseItem {
	return responseItem{
		ID:        r.ID,
		ListingID: r.ListingID,
		UserID:    r.UserID,
		CompanyID: r.CompanyID,
		Status:    r.Status,
		Message:   r.Message,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

type responsesPage struct {
	Responses []responseItem `json:"responses"`
	Total     int            `json:"total"`
	Page      int            `json:"page"`
	PerPage   int            `json:"per_page"`
}

func newResponsesPage(p admission.ResponsesPage) responsesPage {
	out := responsesPage{
		Responses: make([]responseItem, 0, len(p.Responses)),
		Total:     p.Total,
		Page:      p.Page,
		PerPage:   p.PerPage,
	}
	for _, r := range p.Responses {
		out.Responses = append(out.Responses, newResponseItem(r))
	}
	return out
}

func pageFromQuery(w http.ResponseWriter, r *http.Request) (admission.Page, bool) {
	number, ok := queryInt(w, r, "page")
	if !ok {
		return admission.Page{}, false
	}
	perPage, ok := queryInt(w, r, "per_page")
	if !ok {
		return admission.Page{}, false
	}
	return admission.Page{Number: number, PerPage: perPage}, true
}

func handleSubmitResponse(admissionService admissionService, l logger.Logger) http.Handler {
	type request struct {
		Message string `json:"message" validate:"max=2000"`
	}
	type response struct {
		ResponseID       uuid.UUID `json:"response_id"`
		RemainingBalance int64     `json:"remaining_balance"`
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

		res, err := admissionService.Submit(r.Context(), user, listingID, data.Message)
		if err != nil {
			renderError(w, err, l, "Failed to submit response")
			return
		}

		render.Created(w, response{ResponseID: res.ResponseID, RemainingBalance: res.RemainingBalance})
	})
}

func handleListListingResponses(admissionService admissionService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := currentUser(w, r)
		if !ok {
			return
		}
		listingID, ok := pathID(w, r)
		if !ok {
			return
		}
		page, ok := pageFromQuery(w, r)
		if !ok {
			return
		}

		p, err := admissionService.ListListingResponses(r.Context(), user, listingID, page)
		if err != nil {
			renderError(w, err, l, "Failed to list listing responses")
			return
		}

		render.JSON(w, newResponsesPage(p))
	})
}

func handleListMyResponses(admissionService admissionService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := currentUser(w, r)
		if !ok {
			return
		}
		page, ok := pageFromQuery(w, r)
		if !ok {
			return
		}

		p, err := admissionService.ListMyResponses(r.Context(), user, r.URL.Query().Get("status"), page)
		if err != nil {
			renderError(w, err, l, "Failed to list user responses")
			return
		}

		render.JSON(w, newResponsesPage(p))
	})
}

func handleSetResponseStatus(admissionService admissionService, l logger.Logger) http.Handler {
	type request struct {
		Status string `json:"status" validate:"required,oneof=accepted rejected"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := currentUser(w, r)
		if !ok {
			return
		}
		responseID, ok := pathID(w, r)
		if !ok {
			return
		}

		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		updated, err := admissionService.SetResponseStatus(r.Context(), user, responseID, data.Status)
		if err != nil {
			renderError(w, err, l, "Failed to update response status")
			return
		}

		render.JSON(w, newResponseItem(updated))
	})
}

func handleDeleteResponse(admissionService admissionService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := currentUser(w, r)
		if !ok {
			return
		}
		responseID, ok := pathID(w, r)
		if !ok {
			return
		}

		if err := admissionService.DeleteResponse(r.Context(), user, responseID); err != nil {
			renderError(w, err, l, "Failed to delete response")
			return
		}

		w.WriteHeader(http.StatusNoContent)
	})
}
