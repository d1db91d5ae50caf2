package oauth

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/inboxpilot/gateway/internal/config"
	"github.com/inboxpilot/gateway/internal/logger"
)

const (
	googleAuthorizeURL = "https://accounts.google.com/o/oauth2/v2/auth"
	stateLifetime      = 10 * time.Minute
)

// StateClaims is the signed CSRF state carried through the OAuth round trip.
// The redirect target rides along so the callback can send the user back to
// the page they started from.
type StateClaims struct {
	jwt.RegisteredClaims
	Nonce    string `json:"nce"`
	Redirect string `json:"rdr,omitempty"`
}

// NewState mints a signed state value for one authorization attempt
func NewState(redirect string) (string, error) {
	nonce := uuid.New().String()
	claims := &StateClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(stateLifetime)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ID:        nonce,
		},
		Nonce:    nonce,
		Redirect: redirect,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(config.GetJWTSecret())
	if err != nil {
		return "", fmt.Errorf("failed to sign state: %w", err)
	}

	logger.Debug(logger.OAUTH, "Minted OAuth state with nonce %s", nonce)
	return signed, nil
}

// VerifyState validates the signature and expiry of a returned state value
func VerifyState(state string) (*StateClaims, error) {
	token, err := jwt.ParseWithClaims(state, &StateClaims{}, func(token *jwt.Token) (interface{}, error) {
		return config.GetJWTSecret(), nil
	})
	if err != nil {
		logger.Warn(logger.OAUTH, "Failed to parse OAuth state: %v", err)
		return nil, fmt.Errorf("invalid state: %w", err)
	}

	claims, ok := token.Claims.(*StateClaims)
	if !ok || !token.Valid || claims.Nonce == "" {
		return nil, fmt.Errorf("invalid state claims")
	}

	return claims, nil
}

// BuildAuthorizationURL constructs the Google authorization-code URL.
// Offline access plus a forced consent prompt so the backend always receives
// a refresh token on exchange.
func BuildAuthorizationURL(state string) string {
	cfg := config.GetGoogleOAuthConfig()

	values := url.Values{}
	values.Set("client_id", cfg.ClientID)
	values.Set("redirect_uri", cfg.RedirectURI)
	values.Set("response_type", "code")
	values.Set("scope", strings.Join(cfg.Scopes, " "))
	values.Set("access_type", "offline")
	values.Set("prompt", "consent")
	values.Set("state", state)

	return googleAuthorizeURL + "?" + values.Encode()
}
