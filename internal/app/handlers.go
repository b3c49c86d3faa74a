package app

import (
	"github.com/emanuele-galle/fodi-os-sub008/internal/http/handlers"
	"github.com/emanuele-galle/fodi-os-sub008/internal/http/middleware"
	"github.com/emanuele-galle/fodi-os-sub008/internal/platform/logger"
	"github.com/emanuele-galle/fodi-os-sub008/internal/realtime"
)

type Handlers struct {
	Auth     *handlers.AuthHandler
	Chat     *handlers.ChatHandler
	Realtime *handlers.RealtimeHandler
}

func wireHandlers(log *logger.Logger, cfg Config, serviceset Services, hub *realtime.Hub) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Auth:     handlers.NewAuthHandler(serviceset.Auth),
		Chat:     handlers.NewChatHandler(log, serviceset.Chat),
		Realtime: handlers.NewRealtimeHandler(log, hub, cfg.HeartbeatInterval),
	}
}

type Middleware struct {
	Auth *middleware.AuthMiddleware
}

func wireMiddleware(log *logger.Logger, serviceset Services) Middleware {
	return Middleware{
		Auth: middleware.NewAuthMiddleware(log, serviceset.Auth),
	}
}
