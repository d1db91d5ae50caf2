package session

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/inboxpilot/gateway/internal/config"
	"github.com/inboxpilot/gateway/internal/logger"
)

// SessionClaims is the signed payload of the session-ID cookie. The cookie
// identifies the session; the actual state lives in the persister and the
// in-memory handle.
type SessionClaims struct {
	jwt.RegisteredClaims
	SessionID string `json:"sid"`
}

// Manager hands out one Handle per session ID and owns the session-ID cookie
// lifecycle
type Manager struct {
	mu        sync.Mutex
	handles   map[string]*Handle
	persister Persister
}

func NewManager(persister Persister) *Manager {
	return &Manager{
		handles:   make(map[string]*Handle),
		persister: persister,
	}
}

// EnsureSession returns the handle for the request's session, minting a new
// session-ID cookie when none is present or the existing one is invalid.
// The handle is hydrated before it is returned.
func (m *Manager) EnsureSession(w http.ResponseWriter, r *http.Request) (*Handle, error) {
	sessionID := m.sessionIDFromRequest(r)

	if sessionID == "" {
		sessionID = uuid.New().String()
		if err := m.writeSessionCookie(w, r, sessionID); err != nil {
			return nil, err
		}
		logger.Debug(logger.SESSION, "Minted new session %s", sessionID)
	}

	return m.getOrCreate(r.Context(), sessionID), nil
}

// Lookup returns the handle for the request's session without minting a new
// one. Returns nil when no valid session cookie is present.
func (m *Manager) Lookup(ctx context.Context, r *http.Request) *Handle {
	sessionID := m.sessionIDFromRequest(r)
	if sessionID == "" {
		return nil
	}
	return m.getOrCreate(ctx, sessionID)
}

// Drop removes the in-memory handle and expires the session-ID cookie.
// Used on logout after Handle.Logout has cleared state and persistence.
// Secure matches the mint path: a Secure expiry write over plain HTTP would
// be rejected by the browser and the cookie would survive logout.
func (m *Manager) Drop(w http.ResponseWriter, r *http.Request, sessionID string) {
	m.mu.Lock()
	delete(m.handles, sessionID)
	m.mu.Unlock()

	http.SetCookie(w, &http.Cookie{
		Name:     config.GetSessionCookieName(),
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https",
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(-1 * time.Hour),
	})
}

func (m *Manager) getOrCreate(ctx context.Context, sessionID string) *Handle {
	m.mu.Lock()
	handle, exists := m.handles[sessionID]
	if !exists {
		handle = NewHandle(sessionID, m.persister)
		m.handles[sessionID] = handle
	}
	m.mu.Unlock()

	if !exists {
		handle.Hydrate(ctx)
	}

	return handle
}

func (m *Manager) sessionIDFromRequest(r *http.Request) string {
	cookie, err := r.Cookie(config.GetSessionCookieName())
	if err != nil {
		return ""
	}

	token, err := jwt.ParseWithClaims(cookie.Value, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		return config.GetJWTSecret(), nil
	})
	if err != nil {
		logger.Warn(logger.SESSION, "Failed to parse session cookie: %v", err)
		return ""
	}

	if claims, ok := token.Claims.(*SessionClaims); ok && token.Valid {
		return claims.SessionID
	}

	return ""
}

func (m *Manager) writeSessionCookie(w http.ResponseWriter, r *http.Request, sessionID string) error {
	ttl := config.GetSessionTTL()
	claims := &SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ID:        sessionID,
		},
		SessionID: sessionID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(config.GetJWTSecret())
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     config.GetSessionCookieName(),
		Value:    signedToken,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https",
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(ttl),
	})
	return nil
}
