package config

import "time"

var (
	// SessionCookieName is the name of the session cookie holding the signed session token
	// Defaults to "inboxpilot_session" if not set in environment
	SessionCookieName = GetEnvOrDefault("SESSION_COOKIE_NAME", "inboxpilot_session")

	// AccessTokenCookieName mirrors the backend access token for the route guard
	AccessTokenCookieName = GetEnvOrDefault("ACCESS_TOKEN_COOKIE_NAME", "inboxpilot_access_token")

	// RefreshTokenCookieName mirrors the backend refresh token
	RefreshTokenCookieName = GetEnvOrDefault("REFRESH_TOKEN_COOKIE_NAME", "inboxpilot_refresh_token")
)

// GetSessionCookieName returns the configured session cookie name
func GetSessionCookieName() string {
	return SessionCookieName
}

// GetAccessTokenCookieName returns the configured access token cookie name
func GetAccessTokenCookieName() string {
	return AccessTokenCookieName
}

// GetRefreshTokenCookieName returns the configured refresh token cookie name
func GetRefreshTokenCookieName() string {
	return RefreshTokenCookieName
}

// GetSessionTTL returns how long a gateway session stays valid without a refresh
func GetSessionTTL() time.Duration {
	hours := parseEnvInt("SESSION_TTL_HOURS", 24)
	return time.Duration(hours) * time.Hour
}

// SetSessionCookieName temporarily changes the session cookie name and returns a function to restore it
// This is primarily used for testing
func SetSessionCookieName(name string) func() {
	previous := SessionCookieName
	SessionCookieName = name

	return func() {
		SessionCookieName = previous
	}
}
