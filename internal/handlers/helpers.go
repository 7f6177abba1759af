package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/nkiryanov/metalrezerv/internal/apperrors"
	"github.com/nkiryanov/metalrezerv/internal/handlers/render"
	"github.com/nkiryanov/metalrezerv/internal/handlers/userctx"
	"github.com/nkiryanov/metalrezerv/internal/logger"
	"github.com/nkiryanov/metalrezerv/internal/models"
)

// Auth middleware always sets the user, so missing one is a server bug
func currentUser(w http.ResponseWriter, r *http.Request) (models.User, bool) {
	user, ok := userctx.FromContext(r.Context())
	if !ok {
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
	}
	return user, ok
}

func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	return pathUUID(w, r, "id")
}

func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		render.AppError(w, apperrors.InvalidInput("Invalid %s: %s", name, r.PathValue(name)))
		return uuid.Nil, false
	}
	return id, true
}

// Non negative integer query parameter, zero if not set
func queryInt(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, true
	}

	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		render.AppError(w, apperrors.InvalidInput("Invalid %s: %s", name, raw))
		return 0, false
	}
	return v, true
}

func renderError(w http.ResponseWriter, err error, l logger.Logger, msg string) {
	if errors.Is(err, apperrors.ErrInternal) {
		l.Error(msg, "error", err)
	}
	render.AppError(w, err)
}
