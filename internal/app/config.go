package app

import (
	"time"

	"github.com/emanuele-galle/fodi-os-sub008/internal/platform/envutil"
	"github.com/emanuele-galle/fodi-os-sub008/internal/realtime"
)

type Config struct {
	Port              string
	JWTSecretKey      string
	AccessTokenTTL    time.Duration
	HeartbeatInterval time.Duration
	RedisAddr         string
}

func LoadConfig() Config {
	return Config{
		Port:              envutil.String("PORT", "8080"),
		JWTSecretKey:      envutil.String("JWT_SECRET_KEY", "defaultsecret"),
		AccessTokenTTL:    time.Duration(envutil.Int("ACCESS_TOKEN_TTL", 3600)) * time.Second,
		HeartbeatInterval: envutil.Duration("SSE_HEARTBEAT_INTERVAL", realtime.DefaultHeartbeatInterval),
		RedisAddr:         envutil.String("REDIS_ADDR", ""),
	}
}
