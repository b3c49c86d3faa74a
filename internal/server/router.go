package server

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/emanuele-galle/fodi-os-sub008/internal/http/handlers"
	"github.com/emanuele-galle/fodi-os-sub008/internal/http/middleware"
)

type RouterConfig struct {
	AuthHandler     *handlers.AuthHandler
	ChatHandler     *handlers.ChatHandler
	RealtimeHandler *handlers.RealtimeHandler
	AuthMiddleware  *middleware.AuthMiddleware
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			"http://localhost:80",
			"http://localhost:3000",
			"http://localhost:5174",
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	router.GET("/healthcheck", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	{
		api.POST("/register", cfg.AuthHandler.Register)
		api.POST("/login", cfg.AuthHandler.Login)
	}

	protected := api.Group("/")
	protected.Use(cfg.AuthMiddleware.RequireAuth())
	{
		protected.GET("/realtime/stream", cfg.RealtimeHandler.Stream)

		protected.POST("/channels", cfg.ChatHandler.CreateChannel)
		protected.POST("/channels/:id/messages", cfg.ChatHandler.SendMessage)
		protected.POST("/channels/:id/read", cfg.ChatHandler.MarkRead)
		protected.POST("/channels/:id/typing", cfg.ChatHandler.Typing)
	}

	return router
}
