package handlers

import (
	"net/http"

	"github.com/inboxpilot/gateway/internal/apiclient"
	"github.com/inboxpilot/gateway/internal/connections"
	"github.com/inboxpilot/gateway/internal/logger"
	"github.com/inboxpilot/gateway/internal/session"
	"github.com/inboxpilot/gateway/pkg/httpext"
)

// Handlers owns the HTTP surface of the gateway. Everything stateful is
// injected: the session manager, the event fan-out, and the client options
// (tests point the client at a stub backend through these).
type Handlers struct {
	sessions   *session.Manager
	events     *connections.Manager
	clientOpts []apiclient.Option
}

func New(sessions *session.Manager, events *connections.Manager, clientOpts ...apiclient.Option) *Handlers {
	return &Handlers{
		sessions:   sessions,
		events:     events,
		clientOpts: clientOpts,
	}
}

// clientFor builds a backend client bound to one session's credentials.
// Construction is cheap; the heavy transport is shared by the http.Client
// default pooling.
func (h *Handlers) clientFor(handle *session.Handle) *apiclient.Client {
	opts := append([]apiclient.Option{apiclient.WithErrorCallback(logAPIError)}, h.clientOpts...)
	return apiclient.New(handle, opts...)
}

func logAPIError(err *apiclient.Error) {
	logger.Warn(logger.HANDLER, "Backend call failed: %v", err)
}

// writeAPIError translates a normalized client error into a JSON response
func writeAPIError(w http.ResponseWriter, err error) {
	apiErr, ok := err.(*apiclient.Error)
	if !ok {
		httpext.JsonError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	switch apiErr.Kind {
	case apiclient.KindValidation:
		httpext.JsonError(w, apiErr.Message, http.StatusBadRequest)
	case apiclient.KindNetwork:
		httpext.JsonError(w, "Backend unavailable", http.StatusBadGateway)
	case apiclient.KindRefresh:
		httpext.JsonError(w, "Session expired", http.StatusUnauthorized)
	default:
		status := apiErr.Status
		if status == 0 {
			status = http.StatusBadGateway
		}
		httpext.JsonErrorWithDetail(w, status, apiErr.Message, "")
	}
}

// requireSession resolves the request's session handle and rejects requests
// that carry no authenticated session. The returned request carries the
// cookie mirror in its context so any token rotation during the call lands
// on this response and no other.
func (h *Handlers) requireSession(w http.ResponseWriter, r *http.Request) (*session.Handle, *http.Request) {
	handle := h.sessions.Lookup(r.Context(), r)
	if handle == nil {
		httpext.JsonError(w, "Unauthorized", http.StatusUnauthorized)
		return nil, r
	}

	if !handle.Snapshot().IsAuthenticated {
		httpext.JsonError(w, "Unauthorized", http.StatusUnauthorized)
		return nil, r
	}

	return handle, r.WithContext(session.WithMirror(r.Context(), session.NewResponseMirror(w, r)))
}
