package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/clinic/clinic/internal/store"
)

// errorBody is the uniform error payload.
type errorBody struct {
	Kind  string `json:"kind"`
	Error string `json:"error"`
}

// writeError maps store error kinds to status codes: validation 400,
// dangling reference 422, not found 404, uniqueness / restricted delete /
// transaction conflict 409. Anything unrecognized is a 500 handed to echo's
// error handler.
func (h *Handler) writeError(c echo.Context, err error) error {
	var (
		ve *store.ValidationError
		ue *store.UniquenessError
		re *store.ReferenceError
		de *store.RestrictedDeleteError
		ne *store.NotFoundError
		ce *store.ConflictError
	)

	var kind, msg string
	var status int
	switch {
	case errors.As(err, &ve):
		kind, msg, status = "validation", ve.Error(), http.StatusBadRequest
	case errors.As(err, &ue):
		kind, msg, status = "uniqueness", ue.Error(), http.StatusConflict
	case errors.As(err, &re):
		kind, msg, status = "reference", re.Error(), http.StatusUnprocessableEntity
	case errors.As(err, &de):
		kind, msg, status = "restricted_delete", de.Error(), http.StatusConflict
	case errors.As(err, &ne):
		kind, msg, status = "not_found", ne.Error(), http.StatusNotFound
	case errors.As(err, &ce):
		kind, msg, status = "conflict", ce.Error(), http.StatusConflict
	default:
		return err
	}

	if h.mx != nil {
		h.mx.RecordStoreError(kind)
	}
	return c.JSON(status, errorBody{Kind: kind, Error: msg})
}
