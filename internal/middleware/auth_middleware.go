package middleware

import (
	"net/http"
	"strings"

	"gemini-gateway/internal/services"
	"gemini-gateway/internal/transport/httpdto"
	"gemini-gateway/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func AuthMiddleware(service *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := service.ParseAccessToken(extractBearer(c))
		if err != nil {
			unauthorized(c)
			return
		}

		userID, err := uuid.Parse(claims.UserID)
		if err != nil {
			unauthorized(c)
			return
		}

		sessionID, err := uuid.Parse(claims.SessionID)
		if err != nil {
			unauthorized(c)
			return
		}

		if err := service.ValidateSession(c.Request.Context(), sessionID, userID); err != nil {
			unauthorized(c)
			return
		}

		ctx := services.WithUserSessionContext(c.Request.Context(), userID, sessionID)
		ctx = logger.WithUserID(ctx, userID.String())
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func unauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
}

func extractBearer(c *gin.Context) string {
	value := c.GetHeader("Authorization")
	parts := strings.SplitN(value, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
