package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/inboxpilot/gateway/internal/apiclient"
	"github.com/inboxpilot/gateway/internal/connections"
	"github.com/inboxpilot/gateway/pkg/httpext"
)

// snapshotEnvelope is the subset of a backend snapshot the gateway inspects
// for event fan-out. The full body is proxied through untouched.
type snapshotEnvelope struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// HandleSnapshotsList proxies the snapshot listing. Window and pagination
// query parameters pass through verbatim.
func (h *Handlers) HandleSnapshotsList(w http.ResponseWriter, r *http.Request) {
	handle, r := h.requireSession(w, r)
	if handle == nil {
		return
	}

	queryParams := make(map[string]string)
	for _, key := range []string{"window", "limit", "offset"} {
		if value := r.URL.Query().Get(key); value != "" {
			queryParams[key] = value
		}
	}

	raw, err := h.clientFor(handle).Send(r.Context(), http.MethodGet, apiclient.EndpointSnapshotsList, &apiclient.RequestOptions{
		QueryParams: queryParams,
	})
	if err != nil {
		writeAPIError(w, err)
		return
	}

	httpext.JsonRaw(w, http.StatusOK, raw)
}

// HandleSnapshotCreate asks the backend to generate a new snapshot and
// notifies the session's dashboard connections
func (h *Handlers) HandleSnapshotCreate(w http.ResponseWriter, r *http.Request) {
	handle, r := h.requireSession(w, r)
	if handle == nil {
		return
	}

	var payload map[string]interface{}
	if r.ContentLength > 0 {
		if err := decodeJSONBody(r, &payload); err != nil {
			httpext.JsonError(w, "Invalid request body", http.StatusBadRequest)
			return
		}
	}

	opts := &apiclient.RequestOptions{}
	if payload != nil {
		opts.Payload = payload
	}

	raw, err := h.clientFor(handle).Send(r.Context(), http.MethodPost, apiclient.EndpointSnapshotCreate, opts)
	if err != nil {
		writeAPIError(w, err)
		return
	}

	h.notifySnapshot(handle.ID(), raw, connections.EventSnapshotCreated)

	httpext.JsonRaw(w, http.StatusCreated, raw)
}

// HandleSnapshotGet proxies a single snapshot fetch. A snapshot observed in
// ready state triggers a ready event so other tabs catch up.
func (h *Handlers) HandleSnapshotGet(w http.ResponseWriter, r *http.Request) {
	handle, r := h.requireSession(w, r)
	if handle == nil {
		return
	}

	snapshotID := mux.Vars(r)["id"]

	raw, err := h.clientFor(handle).Send(r.Context(), http.MethodGet, apiclient.EndpointSnapshotByID, &apiclient.RequestOptions{
		PathParams: map[string]string{"id": snapshotID},
	})
	if err != nil {
		writeAPIError(w, err)
		return
	}

	var envelope snapshotEnvelope
	if json.Unmarshal(raw, &envelope) == nil && envelope.Status == "ready" {
		h.events.NotifySession(handle.ID(), connections.Event{
			Type:       connections.EventSnapshotReady,
			SnapshotID: envelope.ID,
		})
	}

	httpext.JsonRaw(w, http.StatusOK, raw)
}

func (h *Handlers) notifySnapshot(sessionID string, raw json.RawMessage, eventType string) {
	var envelope snapshotEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return
	}

	h.events.NotifySession(sessionID, connections.Event{
		Type:       eventType,
		SnapshotID: envelope.ID,
	})
}
