package handlers

import (
	"net/http"
	"strings"

	"github.com/inboxpilot/gateway/internal/apiclient"
	"github.com/inboxpilot/gateway/internal/logger"
	"github.com/inboxpilot/gateway/internal/services/oauth"
	"github.com/inboxpilot/gateway/internal/session"
	"github.com/inboxpilot/gateway/pkg/httpext"
)

// exchangeResponse is what the backend returns for a successful
// authorization-code exchange
type exchangeResponse struct {
	session.Tokens
	User session.User `json:"user"`
}

// HandleLoginStart begins the Google authorization-code flow. An optional
// redirect query parameter (placed there by the route guard) rides along in
// the signed state; an optional tier/cycle pair records a plan selected
// before login.
func (h *Handlers) HandleLoginStart(w http.ResponseWriter, r *http.Request) {
	handle, err := h.sessions.EnsureSession(w, r)
	if err != nil {
		logger.Error(logger.HANDLER, "Failed to establish session: %v", err)
		httpext.JsonError(w, "Failed to establish session", http.StatusInternalServerError)
		return
	}

	if tier := r.URL.Query().Get("tier"); tier != "" {
		cycle := r.URL.Query().Get("cycle")
		if cycle == "" {
			cycle = "monthly"
		}
		if err := handle.SetPendingPlan(r.Context(), tier, cycle); err != nil {
			logger.Warn(logger.HANDLER, "Failed to record pending plan: %v", err)
		}
	}

	redirect := sanitizeRedirect(r.URL.Query().Get("redirect"))

	state, err := oauth.NewState(redirect)
	if err != nil {
		logger.Error(logger.HANDLER, "Failed to mint OAuth state: %v", err)
		httpext.JsonError(w, "Failed to start login", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, oauth.BuildAuthorizationURL(state), http.StatusFound)
}

// HandleOAuthCallback receives the code from Google, validates the state,
// and forwards the code to the backend's exchange endpoint. The gateway
// never talks to Google's token endpoint directly.
func (h *Handlers) HandleOAuthCallback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	if errParam := query.Get("error"); errParam != "" {
		logger.Warn(logger.HANDLER, "OAuth callback returned error: %s", errParam)
		http.Redirect(w, r, "/login?error="+errParam, http.StatusFound)
		return
	}

	code := query.Get("code")
	stateParam := query.Get("state")
	if code == "" || stateParam == "" {
		httpext.JsonError(w, "Missing code or state", http.StatusBadRequest)
		return
	}

	state, err := oauth.VerifyState(stateParam)
	if err != nil {
		httpext.JsonError(w, "Invalid state", http.StatusBadRequest)
		return
	}

	handle, err := h.sessions.EnsureSession(w, r)
	if err != nil {
		httpext.JsonError(w, "Failed to establish session", http.StatusInternalServerError)
		return
	}
	r = r.WithContext(session.WithMirror(r.Context(), session.NewResponseMirror(w, r)))

	var exchange exchangeResponse
	client := h.clientFor(handle)
	err = client.Do(r.Context(), http.MethodPost, apiclient.EndpointAuthExchange, &apiclient.RequestOptions{
		Payload: map[string]string{
			"code":  code,
			"state": state.Nonce,
		},
		SkipAuth: true,
	}, &exchange)
	if err != nil {
		logger.Error(logger.HANDLER, "Code exchange failed: %v", err)
		http.Redirect(w, r, "/login?error=exchange_failed", http.StatusFound)
		return
	}

	if err := handle.Login(r.Context(), exchange.Tokens, exchange.User); err != nil {
		logger.Warn(logger.HANDLER, "Failed to persist session after login: %v", err)
	}

	target := state.Redirect
	if target == "" {
		target = handle.PostLoginRedirect(r.Context())
	}
	http.Redirect(w, r, target, http.StatusFound)
}

// HandleLogout tears the session down. The backend logout is best-effort:
// local state and cookies clear regardless.
func (h *Handlers) HandleLogout(w http.ResponseWriter, r *http.Request) {
	handle := h.sessions.Lookup(r.Context(), r)
	if handle == nil {
		httpext.JsonResponse(w, http.StatusOK, map[string]bool{"ok": true})
		return
	}
	r = r.WithContext(session.WithMirror(r.Context(), session.NewResponseMirror(w, r)))

	client := h.clientFor(handle)
	if _, err := client.Send(r.Context(), http.MethodPost, apiclient.EndpointAuthLogout, nil); err != nil {
		logger.Warn(logger.HANDLER, "Backend logout failed, clearing local session anyway: %v", err)
	}

	if err := handle.Logout(r.Context()); err != nil {
		logger.Warn(logger.HANDLER, "Failed to clear persisted session: %v", err)
	}
	h.sessions.Drop(w, r, handle.ID())

	httpext.JsonResponse(w, http.StatusOK, map[string]bool{"ok": true})
}

// HandleSessionInfo exposes the session state the dashboard shell renders
// from. Consumers must treat hasHydrated=false as "render neutral".
func (h *Handlers) HandleSessionInfo(w http.ResponseWriter, r *http.Request) {
	handle, err := h.sessions.EnsureSession(w, r)
	if err != nil {
		httpext.JsonError(w, "Failed to establish session", http.StatusInternalServerError)
		return
	}

	snapshot := handle.Snapshot()
	httpext.JsonResponse(w, http.StatusOK, map[string]interface{}{
		"user":             snapshot.User,
		"is_authenticated": snapshot.IsAuthenticated,
		"has_hydrated":     snapshot.HasHydrated,
		"pending_plan":     snapshot.PendingPlan,
	})
}

// HandleProfile proxies the profile read
func (h *Handlers) HandleProfile(w http.ResponseWriter, r *http.Request) {
	handle, r := h.requireSession(w, r)
	if handle == nil {
		return
	}

	raw, err := h.clientFor(handle).Send(r.Context(), http.MethodGet, apiclient.EndpointAuthProfile, nil)
	if err != nil {
		writeAPIError(w, err)
		return
	}

	httpext.JsonRaw(w, http.StatusOK, raw)
}

// HandleProfileUpdate proxies a profile edit and refreshes the local user
// record so the session reflects the change immediately
func (h *Handlers) HandleProfileUpdate(w http.ResponseWriter, r *http.Request) {
	handle, r := h.requireSession(w, r)
	if handle == nil {
		return
	}

	var payload map[string]interface{}
	if err := decodeJSONBody(r, &payload); err != nil {
		httpext.JsonError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	var user session.User
	err := h.clientFor(handle).Do(r.Context(), http.MethodPut, apiclient.EndpointAuthProfile, &apiclient.RequestOptions{
		Payload: payload,
	}, &user)
	if err != nil {
		writeAPIError(w, err)
		return
	}

	if err := handle.UpdateUser(r.Context(), user); err != nil {
		logger.Warn(logger.HANDLER, "Failed to persist updated user: %v", err)
	}

	httpext.JsonResponse(w, http.StatusOK, user)
}

// sanitizeRedirect keeps post-login redirects on-site. Anything absolute or
// protocol-relative falls back to empty (the default landing path applies).
func sanitizeRedirect(redirect string) string {
	if redirect == "" || !strings.HasPrefix(redirect, "/") || strings.HasPrefix(redirect, "//") {
		return ""
	}
	return redirect
}
