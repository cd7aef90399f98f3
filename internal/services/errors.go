package services

import (
	"errors"
	"net/http"

	gateway_errors "gemini-gateway/pkg/errors"
)

func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, gateway_errors.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, gateway_errors.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, gateway_errors.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, gateway_errors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, gateway_errors.ErrAlreadyExists), errors.Is(err, gateway_errors.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, gateway_errors.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, gateway_errors.ErrServiceUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
