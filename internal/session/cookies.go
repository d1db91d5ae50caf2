package session

import (
	"context"
	"net/http"
	"time"

	"github.com/inboxpilot/gateway/internal/config"
)

// CookieMirror projects the current token set into browser cookies so the
// route guard, which runs before any handler, can see authentication state.
// The cookies are a read-only projection: the session store is the single
// source of truth.
type CookieMirror interface {
	SetTokens(tokens Tokens)
	ClearTokens()
}

type mirrorContextKey struct{}

// WithMirror attaches the cookie mirror for the response currently being
// built to the request context. The mirror rides the context rather than the
// shared handle so concurrent requests on one session each project onto
// their own response; a mutation whose context carries no mirror skips the
// projection and the next mirrored request re-projects.
func WithMirror(ctx context.Context, mirror CookieMirror) context.Context {
	return context.WithValue(ctx, mirrorContextKey{}, mirror)
}

func mirrorFrom(ctx context.Context) CookieMirror {
	mirror, _ := ctx.Value(mirrorContextKey{}).(CookieMirror)
	return mirror
}

// ResponseMirror writes the token cookies onto one HTTP response
type ResponseMirror struct {
	w      http.ResponseWriter
	secure bool
}

// NewResponseMirror binds a mirror to the response being built. secure should
// be true when the page was served over HTTPS.
func NewResponseMirror(w http.ResponseWriter, r *http.Request) *ResponseMirror {
	return &ResponseMirror{
		w:      w,
		secure: r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https",
	}
}

func (m *ResponseMirror) SetTokens(tokens Tokens) {
	maxAge := tokens.ExpiresIn
	if maxAge <= 0 {
		maxAge = int(config.GetSessionTTL().Seconds())
	}

	http.SetCookie(m.w, &http.Cookie{
		Name:     config.GetAccessTokenCookieName(),
		Value:    tokens.AccessToken,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   maxAge,
	})

	if tokens.RefreshToken != "" {
		http.SetCookie(m.w, &http.Cookie{
			Name:     config.GetRefreshTokenCookieName(),
			Value:    tokens.RefreshToken,
			Path:     "/",
			HttpOnly: true,
			Secure:   m.secure,
			SameSite: http.SameSiteLaxMode,
			MaxAge:   int(config.GetSessionTTL().Seconds()),
		})
	}
}

func (m *ResponseMirror) ClearTokens() {
	for _, name := range []string{config.GetAccessTokenCookieName(), config.GetRefreshTokenCookieName()} {
		http.SetCookie(m.w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			HttpOnly: true,
			Secure:   m.secure,
			SameSite: http.SameSiteLaxMode,
			Expires:  time.Now().Add(-1 * time.Hour),
		})
	}
}
