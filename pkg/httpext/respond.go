package httpext

import (
	"encoding/json"
	"net/http"

	"github.com/inboxpilot/gateway/internal/logger"
)

// ErrorResponse represents a standardised JSON error response
type ErrorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

// JsonError writes a JSON error response with the specified status code
func JsonError(w http.ResponseWriter, message string, code int) {
	JsonErrorWithDetail(w, code, message, "")
}

// JsonErrorWithDetail writes a JSON error response with an optional detail line
func JsonErrorWithDetail(w http.ResponseWriter, code int, message, detail string) {
	response := ErrorResponse{
		Error:  message,
		Detail: detail,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.Error(logger.HANDLER, "Failed to encode error response: %v", err)
		// Fallback to writing JSON body as plain text if JSON encoding fails
		http.Error(w, "{\"error\":\"Internal Server Error\"}", http.StatusInternalServerError)
		return
	}
}

// JsonResponse writes an arbitrary value as a JSON response body
func JsonResponse(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	if v == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error(logger.HANDLER, "Failed to encode response: %v", err)
	}
}

// JsonRaw writes a pre-serialized JSON body, used when proxying backend
// responses without re-decoding them
func JsonRaw(w http.ResponseWriter, code int, body json.RawMessage) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	if _, err := w.Write(body); err != nil {
		logger.Error(logger.HANDLER, "Failed to write response body: %v", err)
	}
}
