package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/dev-debabrata/devchat-backend/internal/database"
	"github.com/dev-debabrata/devchat-backend/internal/models"
	"github.com/dev-debabrata/devchat-backend/pkg/errors"
	"github.com/dev-debabrata/devchat-backend/pkg/utils"
)

func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, "Authorization header required")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			abortUnauthorized(c, "Invalid authorization header format")
			return
		}

		claims, err := utils.ValidateToken(parts[1])
		if err != nil {
			abortUnauthorized(c, "Invalid or expired token")
			return
		}

		// Verify user exists
		var user models.User
		if err := database.DB.Select("id").First(&user, "id = ?", claims.UserID).Error; err != nil {
			abortUnauthorized(c, "User not found")
			return
		}

		c.Set("userId", claims.UserID)
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, msg string) {
	appErr := errors.Unauthorized(msg)
	_ = c.Error(appErr)
	c.AbortWithStatusJSON(appErr.Code, gin.H{"error": appErr.Message})
}
