package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/nkiryanov/metalrezerv/internal/apperrors"
	"github.com/nkiryanov/metalrezerv/internal/handlers/render"
	"github.com/nkiryanov/metalrezerv/internal/logger"
	"github.com/nkiryanov/metalrezerv/internal/models"
)

type tokenResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func handleRegister(authService authService, l logger.Logger) http.Handler {
	type request struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required,min=8"`
		Role     string `json:"role" validate:"required,oneof=customer executor"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		token, err := authService.Register(r.Context(), data.Email, data.Password, data.Role)
		if err != nil {
			renderError(w, err, l, "Failed to register user")
			return
		}

		authService.SetAccessToResponse(w, token)
		render.JSON(w, tokenResponse{AccessToken: token.Value, ExpiresAt: token.ExpiresAt})
	})
}

func handleLogin(authService authService, l logger.Logger) http.Handler {
	type request struct {
		Email    string `json:"email" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		token, err := authService.Login(r.Context(), data.Email, data.Password)
		switch {
		case err == nil:
			authService.SetAccessToResponse(w, token)
			render.JSON(w, tokenResponse{AccessToken: token.Value, ExpiresAt: token.ExpiresAt})
		case errors.Is(err, apperrors.ErrInvalidCredentials):
			render.ServiceError(w, "Invalid email or password", http.StatusUnauthorized)
		default:
			renderError(w, err, l, "Failed to login user")
		}
	})
}

func handleUserMe() http.Handler {
	type response struct {
		ID      string    `json:"id"`
		Email   string    `json:"email"`
		Role    string    `json:"role"`
		Balance int64     `json:"balance"`
		Created time.Time `json:"created_at"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := currentUser(w, r)
		if !ok {
			return
		}
		render.JSON(w, response{
			ID:      user.ID.String(),
			Email:   user.Email,
			Role:    user.Role,
			Balance: user.Balance,
			Created: user.CreatedAt,
		})
	})
}

func handleUserBalance(ledgerService ledgerService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := currentUser(w, r)
		if !ok {
			return
		}

		b, err := ledgerService.GetBalance(r.Context(), user, models.UserAccount(user.ID))
		if err != nil {
			renderError(w, err, l, "Failed to get balance")
			return
		}

		render.JSON(w, newBalanceResponse(b))
	})
}

func handleActivity(feed activityFeed, l logger.Logger) http.Handler {
	type activity struct {
		Action      string    `json:"action"`
		Description string    `json:"description"`
		CompanyID   *string   `json:"company_id"`
		CreatedAt   time.Time `json:"created_at"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := currentUser(w, r)
		if !ok {
			return
		}

		limit, ok := queryInt(w, r, "limit")
		if !ok {
			return
		}

		entries, err := feed.ListByUser(r.Context(), user.ID, limit)
		if err != nil {
			renderError(w, apperrors.Internal(err), l, "Failed to list activity")
			return
		}

		out := make([]activity, 0, len(entries))
		for _, a := range entries {
			var companyID *string
			if a.CompanyID != nil {
				id := a.CompanyID.String()
				companyID = &id
			}
			out = append(out, activity{
				Action:      a.Action,
				Description: a.Description,
				CompanyID:   companyID,
				CreatedAt:   a.CreatedAt,
			})
		}
		render.JSON(w, out)
	})
}
