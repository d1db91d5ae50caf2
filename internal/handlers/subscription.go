package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/inboxpilot/gateway/internal/apiclient"
	"github.com/inboxpilot/gateway/internal/session"
	"github.com/inboxpilot/gateway/pkg/httpext"
)

// HandleSubscriptionStatus proxies the current subscription state
func (h *Handlers) HandleSubscriptionStatus(w http.ResponseWriter, r *http.Request) {
	h.proxyAuthenticated(w, r, http.MethodGet, apiclient.EndpointSubscriptionStatus, nil)
}

// HandleSubscriptionLimits proxies the usage limits for the current plan
func (h *Handlers) HandleSubscriptionLimits(w http.ResponseWriter, r *http.Request) {
	h.proxyAuthenticated(w, r, http.MethodGet, apiclient.EndpointSubscriptionLimits, nil)
}

// HandleSubscriptionPlans proxies the public plan catalog. No session is
// required; the pricing page renders before login.
func (h *Handlers) HandleSubscriptionPlans(w http.ResponseWriter, r *http.Request) {
	client := apiclient.New(nil, append([]apiclient.Option{apiclient.WithErrorCallback(logAPIError)}, h.clientOpts...)...)

	raw, err := client.Send(r.Context(), http.MethodGet, apiclient.EndpointSubscriptionPlans, &apiclient.RequestOptions{
		SkipAuth: true,
	})
	if err != nil {
		writeAPIError(w, err)
		return
	}

	httpext.JsonRaw(w, http.StatusOK, raw)
}

// HandleStartTrial proxies trial activation
func (h *Handlers) HandleStartTrial(w http.ResponseWriter, r *http.Request) {
	h.proxyAuthenticated(w, r, http.MethodPost, apiclient.EndpointSubscriptionStartTrial, nil)
}

// HandleUpgrade proxies a plan upgrade; the tier travels as a path parameter
func (h *Handlers) HandleUpgrade(w http.ResponseWriter, r *http.Request) {
	handle, r := h.requireSession(w, r)
	if handle == nil {
		return
	}

	tier := mux.Vars(r)["tier"]

	var payload map[string]interface{}
	if r.ContentLength > 0 {
		if err := decodeJSONBody(r, &payload); err != nil {
			httpext.JsonError(w, "Invalid request body", http.StatusBadRequest)
			return
		}
	}

	opts := &apiclient.RequestOptions{
		PathParams: map[string]string{"tier": tier},
	}
	if payload != nil {
		opts.Payload = payload
	}

	raw, err := h.clientFor(handle).Send(r.Context(), http.MethodPost, apiclient.EndpointSubscriptionUpgrade, opts)
	if err != nil {
		writeAPIError(w, err)
		return
	}

	httpext.JsonRaw(w, http.StatusOK, raw)
}

// HandlePlanSelect records a plan choice made while unauthenticated so the
// checkout flow can resume after the OAuth round trip
func (h *Handlers) HandlePlanSelect(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Tier  string `json:"tier"`
		Cycle string `json:"cycle"`
	}
	if err := decodeJSONBody(r, &payload); err != nil || payload.Tier == "" {
		httpext.JsonError(w, "Invalid plan selection", http.StatusBadRequest)
		return
	}
	if payload.Cycle == "" {
		payload.Cycle = "monthly"
	}

	handle, err := h.sessions.EnsureSession(w, r)
	if err != nil {
		httpext.JsonError(w, "Failed to establish session", http.StatusInternalServerError)
		return
	}

	if err := handle.SetPendingPlan(r.Context(), payload.Tier, payload.Cycle); err != nil {
		httpext.JsonError(w, "Failed to record plan selection", http.StatusInternalServerError)
		return
	}

	httpext.JsonResponse(w, http.StatusOK, map[string]interface{}{
		"pending_plan": session.PendingPlan{Tier: payload.Tier, Cycle: payload.Cycle},
	})
}

// proxyAuthenticated is the shared path for plain authenticated pass-through
// operations with no parameters
func (h *Handlers) proxyAuthenticated(w http.ResponseWriter, r *http.Request, method string, endpoint apiclient.Endpoint, opts *apiclient.RequestOptions) {
	handle, r := h.requireSession(w, r)
	if handle == nil {
		return
	}

	raw, err := h.clientFor(handle).Send(r.Context(), method, endpoint, opts)
	if err != nil {
		writeAPIError(w, err)
		return
	}

	httpext.JsonRaw(w, http.StatusOK, raw)
}
