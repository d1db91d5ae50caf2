package handlers

import (
	"net/http"

	"github.com/inboxpilot/gateway/internal/apiclient"
	"github.com/inboxpilot/gateway/pkg/httpext"
)

// HandleHealthz reports gateway liveness. The backend is probed but a
// backend outage does not fail the check; it is reported as degraded.
func (h *Handlers) HandleHealthz(w http.ResponseWriter, r *http.Request) {
	client := apiclient.New(nil, h.clientOpts...)

	backend := "ok"
	if _, err := client.Send(r.Context(), http.MethodGet, apiclient.EndpointHealth, &apiclient.RequestOptions{SkipAuth: true}); err != nil {
		backend = "unreachable"
	}

	httpext.JsonResponse(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"backend": backend,
	})
}

// HandleMetrics proxies the authenticated usage metrics feed
func (h *Handlers) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	h.proxyAuthenticated(w, r, http.MethodGet, apiclient.EndpointMetrics, nil)
}
