package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/dev-debabrata/devchat-backend/internal/handlers"
	"github.com/dev-debabrata/devchat-backend/internal/middleware"
)

func RegisterAuthRoutes(r gin.IRouter) {
	r.POST("/signup", handlers.Signup)
	r.POST("/login", handlers.Login)
	r.POST("/logout", handlers.Logout)

	r.GET("/me", middleware.AuthMiddleware(), handlers.Me)
	r.PUT("/update-profile", middleware.AuthMiddleware(), handlers.UpdateProfile)
}
