package app

import (
	"gorm.io/gorm"

	"github.com/emanuele-galle/fodi-os-sub008/internal/data/repos"
	"github.com/emanuele-galle/fodi-os-sub008/internal/platform/logger"
	"github.com/emanuele-galle/fodi-os-sub008/internal/realtime"
	"github.com/emanuele-galle/fodi-os-sub008/internal/services"
)

type Repos struct {
	User    repos.UserRepo
	Channel repos.ChannelRepo
	Message repos.MessageRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:    repos.NewUserRepo(db, log),
		Channel: repos.NewChannelRepo(db, log),
		Message: repos.NewMessageRepo(db, log),
	}
}

type Services struct {
	Auth  services.AuthService
	Chat  services.ChatService
	Emit  services.Emitter
	Badge services.BadgeNotifier
	Data  services.DataNotifier
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, reposet Repos, hub *realtime.Hub, clients Clients) Services {
	log.Info("Wiring services...")

	var emit services.Emitter
	if clients.Bus != nil {
		emit = &services.BusEmitter{Bus: clients.Bus}
	} else {
		emit = &services.HubEmitter{Hub: hub}
	}

	chatNotifier := services.NewChatNotifier(emit)
	badgeNotifier := services.NewBadgeNotifier(emit)
	dataNotifier := services.NewDataNotifier(emit)

	return Services{
		Auth:  services.NewAuthService(log, reposet.User, cfg.JWTSecretKey, cfg.AccessTokenTTL),
		Chat:  services.NewChatService(db, log, reposet.Channel, reposet.Message, chatNotifier, badgeNotifier, dataNotifier),
		Emit:  emit,
		Badge: badgeNotifier,
		Data:  dataNotifier,
	}
}
