package middleware

import (
	"net/http"

	"gemini-gateway/internal/transport/httpdto"
	"gemini-gateway/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorHandler turns errors attached with c.Error into a generic 500 envelope.
// The error text goes to the log only.
func ErrorHandler(l *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err
		l.ErrorCtx(c.Request.Context(), "request error",
			zap.String("path", c.Request.URL.Path),
			zap.Error(err),
		)
		if !c.Writer.Written() {
			c.JSON(http.StatusInternalServerError, httpdto.NewErrorResponse("internal server error", "INTERNAL_ERROR"))
		}
	}
}
