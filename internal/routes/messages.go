package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/dev-debabrata/devchat-backend/internal/handlers"
	"github.com/dev-debabrata/devchat-backend/internal/middleware"
)

func RegisterMessageRoutes(r gin.IRouter) {
	messages := r.Group("/messages")
	messages.Use(middleware.AuthMiddleware())
	{
		messages.GET("/contacts", handlers.GetContacts)
		messages.GET("/chats", handlers.GetChatPartners)
		messages.GET("/:id", handlers.GetMessages)
		messages.POST("/send/:id", handlers.SendMessage)
	}

	upload := r.Group("/upload")
	upload.Use(middleware.AuthMiddleware())
	{
		upload.POST("", handlers.UploadMedia)
	}
}
