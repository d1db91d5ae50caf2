package config

import (
	"strings"

	"github.com/rs/zerolog/log"
)

// GoogleOAuthConfig holds everything needed to start the authorization-code flow.
// The token exchange itself happens on the backend; the gateway only builds the
// authorization URL and relays the callback code.
type GoogleOAuthConfig struct {
	ClientID    string
	RedirectURI string
	Scopes      []string
}

var googleOAuth = loadGoogleOAuthConfig()

func loadGoogleOAuthConfig() GoogleOAuthConfig {
	cfg := GoogleOAuthConfig{
		ClientID:    GetEnvOrDefault("GOOGLE_CLIENT_ID", ""),
		RedirectURI: GetEnvOrDefault("GOOGLE_REDIRECT_URI", ""),
		Scopes:      cleanEmptyStrings(strings.Split(GetEnvOrDefault("GOOGLE_OAUTH_SCOPES", "openid,email,profile"), ",")),
	}
	return cfg
}

// ValidateGoogleOAuthConfig fails hard when the flow cannot work at all.
// Called from main so tests can run without OAuth env vars.
func ValidateGoogleOAuthConfig() {
	if googleOAuth.ClientID == "" {
		log.Fatal().Msg("Missing required GOOGLE_CLIENT_ID")
	}
	if googleOAuth.RedirectURI == "" {
		log.Fatal().Msg("Missing required GOOGLE_REDIRECT_URI")
	}
	if len(googleOAuth.Scopes) == 0 {
		log.Fatal().Msg("Missing required Google OAuth scopes")
	}
}

// GetGoogleOAuthConfig returns the loaded Google OAuth configuration
func GetGoogleOAuthConfig() GoogleOAuthConfig {
	return googleOAuth
}

// SetGoogleOAuthConfig temporarily replaces the OAuth config and returns a restore function
// This is primarily used for testing
func SetGoogleOAuthConfig(cfg GoogleOAuthConfig) func() {
	previous := googleOAuth
	googleOAuth = cfg

	return func() {
		googleOAuth = previous
	}
}

// Helper function to clean empty strings from slices
func cleanEmptyStrings(slice []string) []string {
	result := make([]string, 0)
	for _, s := range slice {
		if s != "" {
			result = append(result, s)
		}
	}
	return result
}
