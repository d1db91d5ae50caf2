package config

import (
	"time"

	"github.com/inboxpilot/gateway/internal/logger"
)

type RateLimitConfig struct {
	Enabled bool
	MaxHits int
	Window  time.Duration
}

func GetRateLimitConfig(key string) RateLimitConfig {
	enabled := GetEnvOrDefault("RATELIMIT_ENABLED", "false") == "true"

	configs := map[string]RateLimitConfig{
		"global": {
			Enabled: enabled,
			MaxHits: parseEnvInt("RATELIMIT_GLOBAL", 1000), // 1000 requests per minute globally
			Window:  time.Minute,
		},
		"auth_login": {
			Enabled: enabled,
			MaxHits: parseEnvInt("RATELIMIT_AUTH_LOGIN", 30), // 30 requests per minute
			Window:  time.Minute,
		},
		"auth_callback": {
			Enabled: enabled,
			MaxHits: parseEnvInt("RATELIMIT_AUTH_CALLBACK", 30), // 30 requests per minute
			Window:  time.Minute,
		},
		"snapshot_create": {
			Enabled: enabled,
			MaxHits: parseEnvInt("RATELIMIT_SNAPSHOT_CREATE", 60), // 60 requests per minute
			Window:  time.Minute,
		},
	}

	if config, exists := configs[key]; exists {
		return config
	}

	logger.Warn(logger.CONFIG, "No rate limit config found for key: %s", key)
	return RateLimitConfig{Enabled: false}
}
