package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inboxpilot/gateway/internal/apiclient"
	"github.com/inboxpilot/gateway/internal/config"
	"github.com/inboxpilot/gateway/internal/connections"
	"github.com/inboxpilot/gateway/internal/services/oauth"
	"github.com/inboxpilot/gateway/internal/session"
)

type testEnv struct {
	backend  *stubBackend
	sessions *session.Manager
	router   *mux.Router
}

// stubBackend fakes the summarization backend for handler tests
type stubBackend struct {
	server        *httptest.Server
	exchangeCalls int
	logoutCalls   int
	lastExchange  map[string]string
}

func newStubBackend(t *testing.T) *stubBackend {
	t.Helper()
	b := &stubBackend{}

	router := http.NewServeMux()

	router.HandleFunc("/api/v1/auth/google/exchange", func(w http.ResponseWriter, r *http.Request) {
		b.exchangeCalls++
		var payload map[string]string
		json.NewDecoder(r.Body).Decode(&payload)
		b.lastExchange = payload

		if payload["code"] == "bad-code" {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"error": "invalid code"})
			return
		}

		json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token":  "backend-access",
			"refresh_token": "backend-refresh",
			"expires_in":    900,
			"token_type":    "Bearer",
			"user": map[string]string{
				"id":    "u1",
				"email": "ada@example.com",
				"name":  "Ada Lovelace",
			},
		})
	})

	router.HandleFunc("/api/v1/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		b.logoutCalls++
		w.WriteHeader(http.StatusNoContent)
	})

	router.HandleFunc("/api/v1/auth/profile", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut {
			var payload map[string]string
			json.NewDecoder(r.Body).Decode(&payload)
			json.NewEncoder(w).Encode(map[string]string{
				"id":    "u1",
				"email": "ada@example.com",
				"name":  payload["name"],
			})
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"id": "u1", "email": "ada@example.com"})
	})

	router.HandleFunc("/api/v1/snapshots", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{"id": "snap-9", "status": "pending"})
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"items":  []map[string]string{{"id": "snap-1", "status": "ready"}},
			"window": r.URL.Query().Get("window"),
		})
	})

	router.HandleFunc("/api/v1/snapshots/", func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, "/api/v1/snapshots/")
		json.NewEncoder(w).Encode(map[string]string{"id": id, "status": "ready"})
	})

	router.HandleFunc("/api/v1/subscription/status", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"tier": "free", "status": "active"})
	})

	router.HandleFunc("/api/v1/subscription/plans", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"plans": []string{"free", "pro", "team"}})
	})

	router.HandleFunc("/api/v1/subscription/upgrade/", func(w http.ResponseWriter, r *http.Request) {
		tier := strings.TrimPrefix(r.URL.Path, "/api/v1/subscription/upgrade/")
		json.NewEncoder(w).Encode(map[string]string{"tier": tier, "status": "upgraded"})
	})

	b.server = httptest.NewServer(router)
	t.Cleanup(b.server.Close)
	return b
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	backend := newStubBackend(t)
	sessions := session.NewManager(session.NewMemoryPersister())
	events := connections.NewManager(connections.DefaultTimeouts)

	h := New(sessions, events, apiclient.WithBaseURL(backend.server.URL))

	router := mux.NewRouter()
	router.HandleFunc("/auth/google/login", h.HandleLoginStart).Methods("GET")
	router.HandleFunc("/auth/google/callback", h.HandleOAuthCallback).Methods("GET")
	router.HandleFunc("/api/session", h.HandleSessionInfo).Methods("GET")
	router.HandleFunc("/api/logout", h.HandleLogout).Methods("POST")
	router.HandleFunc("/api/profile", h.HandleProfileUpdate).Methods("PUT")
	router.HandleFunc("/api/snapshots", h.HandleSnapshotsList).Methods("GET")
	router.HandleFunc("/api/snapshots", h.HandleSnapshotCreate).Methods("POST")
	router.HandleFunc("/api/snapshots/{id}", h.HandleSnapshotGet).Methods("GET")
	router.HandleFunc("/api/subscription/status", h.HandleSubscriptionStatus).Methods("GET")
	router.HandleFunc("/api/subscription/plans", h.HandleSubscriptionPlans).Methods("GET")
	router.HandleFunc("/api/subscription/upgrade/{tier}", h.HandleUpgrade).Methods("POST")
	router.HandleFunc("/api/plan/select", h.HandlePlanSelect).Methods("POST")

	return &testEnv{backend: backend, sessions: sessions, router: router}
}

// mintSession establishes a session cookie the way a browser would, via the
// session info endpoint
func (env *testEnv) mintSession(t *testing.T) *http.Cookie {
	t.Helper()

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, "/api/session", nil)
	env.router.ServeHTTP(recorder, request)
	require.Equal(t, http.StatusOK, recorder.Code)

	for _, cookie := range recorder.Result().Cookies() {
		if cookie.Name == config.GetSessionCookieName() {
			return cookie
		}
	}
	t.Fatal("session cookie not minted")
	return nil
}

// loginSession puts the session behind the cookie into an authenticated state
func (env *testEnv) loginSession(t *testing.T, cookie *http.Cookie) {
	t.Helper()

	request := httptest.NewRequest(http.MethodGet, "/", nil)
	request.AddCookie(cookie)

	handle := env.sessions.Lookup(context.Background(), request)
	require.NotNil(t, handle)
	require.NoError(t, handle.Login(context.Background(),
		session.Tokens{AccessToken: "backend-access", RefreshToken: "backend-refresh"},
		session.User{ID: "u1", Email: "ada@example.com"}))
}

func TestOAuthCallbackFlow(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.mintSession(t)

	state, err := oauth.NewState("")
	require.NoError(t, err)

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, "/auth/google/callback?code=good-code&state="+state, nil)
	request.AddCookie(cookie)
	env.router.ServeHTTP(recorder, request)

	require.Equal(t, http.StatusFound, recorder.Code)
	assert.Equal(t, session.DefaultLandingPath, recorder.Header().Get("Location"))
	assert.Equal(t, 1, env.backend.exchangeCalls)
	assert.Equal(t, "good-code", env.backend.lastExchange["code"])

	// Token cookies are mirrored onto the callback response
	mirrored := map[string]bool{}
	for _, c := range recorder.Result().Cookies() {
		mirrored[c.Name] = c.Value != ""
	}
	assert.True(t, mirrored[config.GetAccessTokenCookieName()], "access token cookie should be mirrored")
	assert.True(t, mirrored[config.GetRefreshTokenCookieName()], "refresh token cookie should be mirrored")

	// Session now reads as authenticated
	infoRecorder := httptest.NewRecorder()
	infoRequest := httptest.NewRequest(http.MethodGet, "/api/session", nil)
	infoRequest.AddCookie(cookie)
	env.router.ServeHTTP(infoRecorder, infoRequest)

	var info struct {
		IsAuthenticated bool         `json:"is_authenticated"`
		HasHydrated     bool         `json:"has_hydrated"`
		User            *session.User `json:"user"`
	}
	require.NoError(t, json.NewDecoder(infoRecorder.Body).Decode(&info))
	assert.True(t, info.IsAuthenticated)
	assert.True(t, info.HasHydrated)
	require.NotNil(t, info.User)
	assert.Equal(t, "ada@example.com", info.User.Email)
}

func TestOAuthCallbackResumesPendingPlan(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.mintSession(t)

	selectRecorder := httptest.NewRecorder()
	selectRequest := httptest.NewRequest(http.MethodPost, "/api/plan/select", strings.NewReader(`{"tier":"pro","cycle":"yearly"}`))
	selectRequest.AddCookie(cookie)
	env.router.ServeHTTP(selectRecorder, selectRequest)
	require.Equal(t, http.StatusOK, selectRecorder.Code)

	state, err := oauth.NewState("")
	require.NoError(t, err)

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, "/auth/google/callback?code=good-code&state="+state, nil)
	request.AddCookie(cookie)
	env.router.ServeHTTP(recorder, request)

	require.Equal(t, http.StatusFound, recorder.Code)
	assert.Equal(t, session.PlanConfirmPath+"?tier=pro&cycle=yearly", recorder.Header().Get("Location"))
}

func TestOAuthCallbackRejectsInvalidState(t *testing.T) {
	env := newTestEnv(t)

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, "/auth/google/callback?code=good-code&state=forged", nil)
	env.router.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Zero(t, env.backend.exchangeCalls, "no exchange may happen with a bad state")
}

func TestOAuthCallbackExchangeFailure(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.mintSession(t)

	state, err := oauth.NewState("")
	require.NoError(t, err)

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, "/auth/google/callback?code=bad-code&state="+state, nil)
	request.AddCookie(cookie)
	env.router.ServeHTTP(recorder, request)

	require.Equal(t, http.StatusFound, recorder.Code)
	assert.Equal(t, "/login?error=exchange_failed", recorder.Header().Get("Location"))
}

func TestLoginStartRedirectsToGoogle(t *testing.T) {
	env := newTestEnv(t)

	restore := config.SetGoogleOAuthConfig(config.GoogleOAuthConfig{
		ClientID:    "client-123",
		RedirectURI: "https://app.example.com/auth/google/callback",
		Scopes:      []string{"openid", "email"},
	})
	defer restore()

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, "/auth/google/login?redirect=%2Fdashboard", nil)
	env.router.ServeHTTP(recorder, request)

	require.Equal(t, http.StatusFound, recorder.Code)
	location := recorder.Header().Get("Location")
	assert.True(t, strings.HasPrefix(location, "https://accounts.google.com/o/oauth2/v2/auth?"), "should redirect to Google, got %s", location)
	assert.Contains(t, location, "access_type=offline")
	assert.Contains(t, location, "state=")
}

func TestProtectedProxiesRequireSession(t *testing.T) {
	env := newTestEnv(t)

	paths := []string{"/api/snapshots", "/api/subscription/status"}
	for _, path := range paths {
		recorder := httptest.NewRecorder()
		request := httptest.NewRequest(http.MethodGet, path, nil)
		env.router.ServeHTTP(recorder, request)
		assert.Equal(t, http.StatusUnauthorized, recorder.Code, "path %s should demand a session", path)
	}
}

func TestSnapshotsListProxiesQueryParams(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.mintSession(t)
	env.loginSession(t, cookie)

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, "/api/snapshots?window=24h", nil)
	request.AddCookie(cookie)
	env.router.ServeHTTP(recorder, request)

	require.Equal(t, http.StatusOK, recorder.Code)

	var body struct {
		Window string `json:"window"`
	}
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&body))
	assert.Equal(t, "24h", body.Window, "window query param should pass through to the backend")
}

func TestSnapshotGetByID(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.mintSession(t)
	env.loginSession(t, cookie)

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, "/api/snapshots/snap-42", nil)
	request.AddCookie(cookie)
	env.router.ServeHTTP(recorder, request)

	require.Equal(t, http.StatusOK, recorder.Code)

	var body map[string]string
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&body))
	assert.Equal(t, "snap-42", body["id"])
}

func TestUpgradePassesTierAsPathParam(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.mintSession(t)
	env.loginSession(t, cookie)

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodPost, "/api/subscription/upgrade/team", nil)
	request.AddCookie(cookie)
	env.router.ServeHTTP(recorder, request)

	require.Equal(t, http.StatusOK, recorder.Code)

	var body map[string]string
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&body))
	assert.Equal(t, "team", body["tier"])
}

func TestPlansEndpointNeedsNoSession(t *testing.T) {
	env := newTestEnv(t)

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, "/api/subscription/plans", nil)
	env.router.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusOK, recorder.Code)
}

func TestLogoutClearsSessionAndCookies(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.mintSession(t)
	env.loginSession(t, cookie)

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodPost, "/api/logout", nil)
	request.AddCookie(cookie)
	env.router.ServeHTTP(recorder, request)

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, 1, env.backend.logoutCalls)

	expired := 0
	for _, c := range recorder.Result().Cookies() {
		if c.Value == "" {
			expired++
		}
	}
	assert.GreaterOrEqual(t, expired, 2, "token and session cookies should be expired")

	infoRecorder := httptest.NewRecorder()
	infoRequest := httptest.NewRequest(http.MethodGet, "/api/session", nil)
	infoRequest.AddCookie(cookie)
	env.router.ServeHTTP(infoRecorder, infoRequest)

	var info struct {
		IsAuthenticated bool `json:"is_authenticated"`
	}
	require.NoError(t, json.NewDecoder(infoRecorder.Body).Decode(&info))
	assert.False(t, info.IsAuthenticated)
}

func TestProfileUpdateRefreshesSessionUser(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.mintSession(t)
	env.loginSession(t, cookie)

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodPut, "/api/profile", strings.NewReader(`{"name":"Ada L."}`))
	request.AddCookie(cookie)
	env.router.ServeHTTP(recorder, request)

	require.Equal(t, http.StatusOK, recorder.Code)

	lookupRequest := httptest.NewRequest(http.MethodGet, "/", nil)
	lookupRequest.AddCookie(cookie)
	handle := env.sessions.Lookup(context.Background(), lookupRequest)
	require.NotNil(t, handle)
	assert.Equal(t, "Ada L.", handle.Snapshot().User.Name)
}
