package handlers

import (
	"github.com/gin-gonic/gin"

	apperrors "github.com/dev-debabrata/devchat-backend/pkg/errors"
)

// fail renders an AppError and records it on the context so the request
// logger sees it.
func fail(c *gin.Context, appErr *apperrors.AppError) {
	_ = c.Error(appErr)
	c.JSON(appErr.Code, gin.H{"error": appErr.Message})
	c.Abort()
}
