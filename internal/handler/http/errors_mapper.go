package http

import (
	"errors"
	"net/http"

	"github.com/tabvault/tabvault/internal/service"
)

// statusFromError maps service-layer sentinel errors onto HTTP statuses.
// Unknown errors are internal by default.
func statusFromError(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrLoginTaken):
		return http.StatusConflict
	case errors.Is(err, service.ErrEmptyRequest):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
