package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/nkiryanov/metalrezerv/internal/handlers/render"
	"github.com/nkiryanov/metalrezerv/internal/logger"
	"github.com/nkiryanov/metalrezerv/internal/models"
)

type balanceResponse struct {
	Balance    int64  `json:"balance"`
	MaxBalance *int64 `json:"max_balance,omitempty"`
}

func newBalanceResponse(b models.AccountBalance) balanceResponse {
	return balanceResponse{Balance: b.Balance, MaxBalance: b.Ceiling}
}

type companyResponse struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	BIN        string    `json:"bin"`
	Status     string    `json:"status"`
	Balance    int64     `json:"balance"`
	MaxBalance int64     `json:"max_balance"`
	CreatedAt  time.Time `json:"created_at"`
}

func newCompanyResponse(c models.Company) companyResponse {
	return companyResponse{
		ID:         c.ID,
		Name:       c.Name,
		BIN:        c.BIN,
		Status:     c.Status,
		Balance:    c.Balance,
		MaxBalance: c.MaxBalance,
		CreatedAt:  c.CreatedAt,
	}
}

func handleCreateCompany(companyService companyService, l logger.Logger) http.Handler {
	type request struct {
		Name string `json:"name" validate:"required,max=255"`
		BIN  string `json:"bin" validate:"omitempty,len=12,numeric"`
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

		company, err := companyService.Create(r.Context(), user, data.Name, data.BIN)
		if err != nil {
			renderError(w, err, l, "Failed to create company")
			return
		}

		render.Created(w, newCompanyResponse(company))
	})
}

func handleAddMember(companyService companyService, l logger.Logger) http.Handler {
	type request struct {
		Email string `json:"email" validate:"required,email"`
		Role  string `json:"role" validate:"required,oneof=admin manager employee"`
	}
	type response struct {
		CompanyID uuid.UUID `json:"company_id"`
		UserID    uuid.UUID `json:"user_id"`
		Role      string    `json:"role"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := currentUser(w, r)
		if !ok {
			return
		}
		companyID, ok := pathID(w, r)
		if !ok {
			return
		}

		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		m, err := companyService.AddMember(r.Context(), user, companyID, data.Email, data.Role)
		if err != nil {
			renderError(w, err, l, "Failed to add company member")
			return
		}

		render.Created(w, response{CompanyID: m.CompanyID, UserID: m.UserID, Role: m.Role})
	})
}

func handleRemoveMember(companyService companyService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := currentUser(w, r)
		if !ok {
			return
		}
		companyID, ok := pathID(w, r)
		if !ok {
			return
		}
		userID, ok := pathUUID(w, r, "user_id")
		if !ok {
			return
		}

		if err := companyService.RemoveMember(r.Context(), user, companyID, userID); err != nil {
			renderError(w, err, l, "Failed to remove company member")
			return
		}

		w.WriteHeader(http.StatusNoContent)
	})
}

func handleSetCompanyStatus(companyService companyService, l logger.Logger) http.Handler {
	type request struct {
		Status string `json:"status" validate:"required,oneof=pending approved rejected"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := currentUser(w, r)
		if !ok {
			return
		}
		companyID, ok := pathID(w, r)
		if !ok {
			return
		}

		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		company, err := companyService.SetStatus(r.Context(), user, companyID, data.Status)
		if err != nil {
			renderError(w, err, l, "Failed to update company status")
			return
		}

		render.JSON(w, newCompanyResponse(company))
	})
}

func handleCompanyBalance(ledgerService ledgerService, l logger.Logger) http.Handler {
	type transaction struct {
		ID          int64      `json:"id"`
		Kind        string     `json:"kind"`
		Amount      int64      `json:"amount"`
		UserID      *uuid.UUID `json:"user_id"`
		Description string     `json:"description"`
		CreatedAt   time.Time  `json:"created_at"`
	}
	type response struct {
		balanceResponse
		Transactions []transaction `json:"transactions"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := currentUser(w, r)
		if !ok {
			return
		}
		companyID, ok := pathID(w, r)
		if !ok {
			return
		}

		st, err := ledgerService.CompanyStatement(r.Context(), user, companyID)
		if err != nil {
			renderError(w, err, l, "Failed to get company balance")
			return
		}

		resp := response{
			balanceResponse: newBalanceResponse(st.Balance),
			Transactions:    make([]transaction, 0, len(st.Transactions)),
		}
		for _, t := range st.Transactions {
			resp.Transactions = append(resp.Transactions, transaction{
				ID:          t.ID,
				Kind:        t.Kind,
				Amount:      t.Amount,
				UserID:      t.UserID,
				Description: t.Description,
				CreatedAt:   t.CreatedAt,
			})
		}
		render.JSON(w, resp)
	})
}

func handleDeposit(ledgerService ledgerService, l logger.Logger) http.Handler {
	type request struct {
		Amount      int64  `json:"amount"`
		Description string `json:"description" validate:"max=255"`
	}
	type response struct {
		NewBalance int64 `json:"new_balance"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := currentUser(w, r)
		if !ok {
			return
		}
		companyID, ok := pathID(w, r)
		if !ok {
			return
		}

		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		res, err := ledgerService.DepositToCompany(r.Context(), user, companyID, data.Amount, data.Description)
		if err != nil {
			renderError(w, err, l, "Failed to deposit company balance")
			return
		}

		render.JSON(w, response{NewBalance: res.NewBalance})
	})
}

func handleTransfer(ledgerService ledgerService, l logger.Logger) http.Handler {
	type request struct {
		UserID      uuid.UUID `json:"user_id" validate:"required"`
		Amount      int64     `json:"amount"`
		Description string    `json:"description" validate:"max=255"`
	}
	type response struct {
		NewCompanyBalance int64 `json:"new_company_balance"`
		NewUserBalance    int64 `json:"new_user_balance"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := currentUser(w, r)
		if !ok {
			return
		}
		companyID, ok := pathID(w, r)
		if !ok {
			return
		}

		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		res, err := ledgerService.TransferToEmployee(r.Context(), user, companyID, data.UserID, data.Amount, data.Description)
		if err != nil {
			renderError(w, err, l, "Failed to transfer balance")
			return
		}

		render.JSON(w, response{NewCompanyBalance: res.NewCompanyBalance, NewUserBalance: res.NewUserBalance})
	})
}

func handleSetMaxBalance(ledgerService ledgerService, l logger.Logger) http.Handler {
	type request struct {
		MaxBalance int64 `json:"max_balance"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := currentUser(w, r)
		if !ok {
			return
		}
		companyID, ok := pathID(w, r)
		if !ok {
			return
		}

		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		company, err := ledgerService.SetMaxBalance(r.Context(), user, companyID, data.MaxBalance)
		if err != nil {
			renderError(w, err, l, "Failed to update max balance")
			return
		}

		render.JSON(w, newCompanyResponse(company))
	})
}
