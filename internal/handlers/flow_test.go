package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/metalrezerv/internal/handlers"
	"github.com/nkiryanov/metalrezerv/internal/logger"
	"github.com/nkiryanov/metalrezerv/internal/repository/postgres"
	"github.com/nkiryanov/metalrezerv/internal/service/admission"
	"github.com/nkiryanov/metalrezerv/internal/service/auth"
	"github.com/nkiryanov/metalrezerv/internal/service/auth/tokenmanager"
	"github.com/nkiryanov/metalrezerv/internal/service/company"
	"github.com/nkiryanov/metalrezerv/internal/service/ledger"
	"github.com/nkiryanov/metalrezerv/internal/service/listing"
	"github.com/nkiryanov/metalrezerv/internal/testutil"
)

// Create db transaction and run server with production services on it (one connection cause one transaction)
func serveInTx(t *testing.T, fn func(srvURL string)) {
	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
		l := logger.NewNoOpLogger()
		storage := postgres.NewStorage(tx)

		tokenManager, err := tokenmanager.New(tokenmanager.Config{SecretKey: "test-secret"})
		require.NoError(t, err, "token manager should be created without errors")
		as, err := auth.NewService(auth.Config{}, tokenManager, storage.User())
		require.NoError(t, err, "auth service starting error")

		ls := ledger.NewService(storage, l)
		router := handlers.NewRouter(handlers.Services{
			Auth:      as,
			Ledger:    ls,
			Admission: admission.NewController(storage, ls, l),
			Company:   company.NewService(storage, l),
			Listing:   listing.NewService(storage, l),
			Activity:  storage.Activity(),
		}, l)

		srv := httptest.NewServer(router)
		defer srv.Close()

		fn(srv.URL)
	})
}

type client struct {
	t      *testing.T
	srvURL string
	token  string
}

// Send request and decode response body into out if it is not nil
func (c *client) do(method string, path string, in any, out any) int {
	c.t.Helper()

	var body io.Reader
	if in != nil {
		d, err := json.Marshal(in)
		require.NoError(c.t, err)
		body = bytes.NewReader(d)
	}

	req, err := http.NewRequestWithContext(c.t.Context(), method, c.srvURL+path, body)
	require.NoError(c.t, err)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(c.t, err, "failed to send request")
	defer resp.Body.Close() // nolint:errcheck

	data, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err, "failed to read response body")

	if out != nil && len(data) > 0 {
		require.NoErrorf(c.t, json.Unmarshal(data, out), "not expected body: %s", string(data))
	}
	return resp.StatusCode
}

func register(t *testing.T, srvURL string, email string, role string) *client {
	c := &client{t: t, srvURL: srvURL}

	var token struct {
		AccessToken string `json:"access_token"`
	}
	code := c.do(http.MethodPost, "/api/auth/register", map[string]string{
		"email":    email,
		"password": "StrongEnoughPassword",
		"role":     role,
	}, &token)
	require.Equal(t, http.StatusOK, code)
	require.NotEmpty(t, token.AccessToken)

	c.token = token.AccessToken
	return c
}

type apiError struct {
	Error   string         `json:"error"`
	Message string         `json:"message"`
	Details map[string]any `json:"details"`
}

func Test_ResponseFlow(t *testing.T) {
	t.Parallel()

	serveInTx(t, func(srvURL string) {
		buyer := register(t, srvURL, "buyer@example.com", "customer")
		executor := register(t, srvURL, "executor@example.com", "executor")

		var created struct {
			ID string `json:"id"`
		}
		code := buyer.do(http.MethodPost, "/api/companies", map[string]string{"name": "Steel Works", "bin": "123456789012"}, &created)
		require.Equal(t, http.StatusCreated, code)
		companyPath := "/api/companies/" + created.ID

		code = buyer.do(http.MethodPost, companyPath+"/members", map[string]string{"email": "executor@example.com", "role": "employee"}, nil)
		require.Equal(t, http.StatusCreated, code)

		// Company tops up and gives the executor two responses worth of balance
		var deposit struct {
			NewBalance int64 `json:"new_balance"`
		}
		code = buyer.do(http.MethodPost, companyPath+"/deposit", map[string]any{"amount": 100}, &deposit)
		require.Equal(t, http.StatusOK, code)
		require.Equal(t, int64(100), deposit.NewBalance)

		var ceiling apiError
		code = buyer.do(http.MethodPost, companyPath+"/deposit", map[string]any{"amount": 1000}, &ceiling)
		require.Equal(t, http.StatusUnprocessableEntity, code)
		require.Equal(t, "ceiling_exceeded", ceiling.Error)

		var transfer struct {
			NewCompanyBalance int64 `json:"new_company_balance"`
			NewUserBalance    int64 `json:"new_user_balance"`
		}
		me := struct {
			ID string `json:"id"`
		}{}
		require.Equal(t, http.StatusOK, executor.do(http.MethodGet, "/api/me", nil, &me))
		code = buyer.do(http.MethodPost, companyPath+"/transfer", map[string]any{"user_id": me.ID, "amount": 2}, &transfer)
		require.Equal(t, http.StatusOK, code)
		require.Equal(t, int64(98), transfer.NewCompanyBalance)
		require.Equal(t, int64(2), transfer.NewUserBalance)

		// Three published listings
		listingIDs := make([]string, 0, 3)
		for _, title := range []string{"Rebar 12mm", "Steel sheet 2mm", "Pipe 57x3.5"} {
			var l struct {
				ID string `json:"id"`
			}
			code := buyer.do(http.MethodPost, "/api/listings", map[string]string{"title": title}, &l)
			require.Equal(t, http.StatusCreated, code)
			listingIDs = append(listingIDs, l.ID)
		}

		var submitted struct {
			ResponseID       string `json:"response_id"`
			RemainingBalance int64  `json:"remaining_balance"`
		}
		code = executor.do(http.MethodPost, "/api/listings/"+listingIDs[0]+"/responses", map[string]string{"message": "Ready to ship"}, &submitted)
		require.Equal(t, http.StatusCreated, code)
		require.Equal(t, int64(1), submitted.RemainingBalance)
		firstResponse := submitted.ResponseID

		var dup apiError
		code = executor.do(http.MethodPost, "/api/listings/"+listingIDs[0]+"/responses", map[string]string{}, &dup)
		require.Equal(t, http.StatusConflict, code)
		require.Equal(t, "conflict", dup.Error)

		var forbidden apiError
		code = buyer.do(http.MethodPost, "/api/listings/"+listingIDs[1]+"/responses", map[string]string{}, &forbidden)
		require.Equal(t, http.StatusForbidden, code)

		code = executor.do(http.MethodPost, "/api/listings/"+listingIDs[1]+"/responses", map[string]string{}, &submitted)
		require.Equal(t, http.StatusCreated, code)
		require.Equal(t, int64(0), submitted.RemainingBalance)

		var broke apiError
		code = executor.do(http.MethodPost, "/api/listings/"+listingIDs[2]+"/responses", map[string]string{}, &broke)
		require.Equal(t, http.StatusPaymentRequired, code)
		require.Equal(t, "insufficient_funds", broke.Error)
		require.Equal(t, map[string]any{"required": float64(1), "current": float64(0)}, broke.Details)

		// Owner accepts, then the executor can not take the response back
		code = buyer.do(http.MethodPut, "/api/responses/"+firstResponse+"/status", map[string]string{"status": "accepted"}, nil)
		require.Equal(t, http.StatusOK, code)

		var finalized apiError
		code = executor.do(http.MethodDelete, "/api/responses/"+firstResponse, nil, &finalized)
		require.Equal(t, http.StatusConflict, code)

		code = executor.do(http.MethodDelete, "/api/responses/"+submitted.ResponseID, nil, nil)
		require.Equal(t, http.StatusNoContent, code)

		var mine struct {
			Responses []struct {
				ID     string `json:"id"`
				Status string `json:"status"`
			} `json:"responses"`
			Total int `json:"total"`
		}
		code = executor.do(http.MethodGet, "/api/responses/my", nil, &mine)
		require.Equal(t, http.StatusOK, code)
		require.Equal(t, 1, mine.Total)
		require.Equal(t, "accepted", mine.Responses[0].Status)

		// Deleted response is not refunded
		var balance struct {
			Balance int64 `json:"balance"`
		}
		require.Equal(t, http.StatusOK, executor.do(http.MethodGet, "/api/balance", nil, &balance))
		require.Equal(t, int64(0), balance.Balance)

		var statement struct {
			Balance      int64 `json:"balance"`
			MaxBalance   int64 `json:"max_balance"`
			Transactions []struct {
				Kind string `json:"kind"`
			} `json:"transactions"`
		}
		require.Equal(t, http.StatusOK, buyer.do(http.MethodGet, companyPath+"/balance", nil, &statement))
		require.Equal(t, int64(98), statement.Balance)
		require.Equal(t, int64(1000), statement.MaxBalance)
		require.NotEmpty(t, statement.Transactions)

		var activity []struct {
			Action string `json:"action"`
		}
		require.Equal(t, http.StatusOK, executor.do(http.MethodGet, "/api/activity", nil, &activity))
		actions := make([]string, 0, len(activity))
		for _, a := range activity {
			actions = append(actions, a.Action)
		}
		require.Contains(t, actions, "create_response")
		require.Contains(t, actions, "delete_response")

		// Removed employee no longer receives transfers, the owner stays
		code = buyer.do(http.MethodDelete, companyPath+"/members/"+me.ID, nil, nil)
		require.Equal(t, http.StatusNoContent, code)

		var gone apiError
		code = buyer.do(http.MethodPost, companyPath+"/transfer", map[string]any{"user_id": me.ID, "amount": 1}, &gone)
		require.Equal(t, http.StatusNotFound, code)

		var owner struct {
			ID string `json:"id"`
		}
		require.Equal(t, http.StatusOK, buyer.do(http.MethodGet, "/api/me", nil, &owner))
		var keep apiError
		code = buyer.do(http.MethodDelete, companyPath+"/members/"+owner.ID, nil, &keep)
		require.Equal(t, http.StatusForbidden, code)
		require.Equal(t, "Cannot remove company owner", keep.Message)
	})
}
