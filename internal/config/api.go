package config

import (
	"github.com/inboxpilot/gateway/internal/logger"
)

// GetAPIBaseURL returns the base URL of the summarization backend API
func GetAPIBaseURL() string {
	value := GetEnvOrDefault("INBOXPILOT_API_URL", "http://localhost:8000")
	logger.Debug(logger.CONFIG, "Using backend API base URL: %s", value)
	return value
}

// GetAPITimeoutSeconds returns the transport timeout for backend calls
func GetAPITimeoutSeconds() int {
	return parseEnvInt("INBOXPILOT_API_TIMEOUT", 30)
}
