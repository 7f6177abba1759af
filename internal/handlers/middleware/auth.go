package middleware

import (
	"context"
	"net/http"

	"github.com/nkiryanov/metalrezerv/internal/handlers/render"
	"github.com/nkiryanov/metalrezerv/internal/handlers/userctx"
	"github.com/nkiryanov/metalrezerv/internal/models"
)

type authService interface {
	GetUserFromRequest(ctx context.Context, r *http.Request) (models.User, error)
}

// AuthMiddleware puts authenticated user to request context or responds 401
func AuthMiddleware(as authService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := as.GetUserFromRequest(r.Context(), r)
			if err != nil {
				render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(userctx.New(r.Context(), user)))
		})
	}
}
