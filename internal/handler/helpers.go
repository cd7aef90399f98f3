package handler

import (
	"errors"
	"net/http"

	"gemini-gateway/internal/services"
	"gemini-gateway/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
)

// bindJSON decodes the body into dst and writes the 400/413 answer itself when
// that fails. It reports whether the handler should continue.
func bindJSON(c *gin.Context, dst any) bool {
	err := c.ShouldBindJSON(dst)
	if err == nil {
		return true
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		c.JSON(http.StatusRequestEntityTooLarge, httpdto.NewErrorResponse("request body too large", "TOO_LARGE"))
		return false
	}
	c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
	return false
}

// writeServiceError maps domain errors to an envelope. Unexpected errors are
// handed to the error middleware so their text is logged, not returned.
func writeServiceError(c *gin.Context, err error) {
	status := services.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		return
	}
	c.JSON(status, httpdto.NewErrorResponse(errorMessage(status), errorCode(status)))
}

func errorMessage(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "invalid request"
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusForbidden:
		return "forbidden"
	case http.StatusNotFound:
		return "not found"
	case http.StatusConflict:
		return "already exists"
	case http.StatusRequestEntityTooLarge:
		return "file too large"
	case http.StatusServiceUnavailable:
		return "service unavailable"
	default:
		return http.StatusText(status)
	}
}

func errorCode(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "INVALID_REQUEST"
	case http.StatusUnauthorized:
		return "UNAUTHORIZED"
	case http.StatusForbidden:
		return "FORBIDDEN"
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusConflict:
		return "CONFLICT"
	case http.StatusRequestEntityTooLarge:
		return "TOO_LARGE"
	case http.StatusServiceUnavailable:
		return "UNAVAILABLE"
	default:
		return "INTERNAL_ERROR"
	}
}
