package app

import (
	"github.com/gin-gonic/gin"

	"github.com/emanuele-galle/fodi-os-sub008/internal/server"
)

func wireRouter(handlerset Handlers, middlewareset Middleware) *gin.Engine {
	return server.NewRouter(server.RouterConfig{
		AuthHandler:     handlerset.Auth,
		ChatHandler:     handlerset.Chat,
		RealtimeHandler: handlerset.Realtime,
		AuthMiddleware:  middlewareset.Auth,
	})
}
