package apiclient

import (
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
)

// RequestOptions carries the per-call configuration for one backend operation.
// All fields are optional; the zero value is a bare authenticated call.
type RequestOptions struct {
	// Payload is JSON-serialized into the request body when non-nil
	Payload interface{}
	// QueryParams are appended as a URL-encoded query string
	QueryParams map[string]string
	// PathParams must cover every {name} placeholder in the endpoint template
	PathParams map[string]string
	// Headers are merged over the computed defaults; Authorization is always
	// recomputed from the live session and cannot be overridden here
	Headers map[string]string
	// SkipAuth disables bearer token injection for this call
	SkipAuth bool
}

var placeholderPattern = regexp.MustCompile(`\{([^{}]+)\}`)

// BuildURL resolves an endpoint template into a fully-qualified URL.
// Every placeholder must have a matching path parameter; the call fails
// before dispatch otherwise, naming the missing parameter.
func BuildURL(baseURL string, endpoint Endpoint, pathParams, queryParams map[string]string) (string, error) {
	template, exists := PathTemplate(endpoint)
	if !exists {
		return "", newValidationError("unknown endpoint: %s", endpoint)
	}

	path := template
	for name, value := range pathParams {
		path = strings.ReplaceAll(path, "{"+name+"}", url.PathEscape(value))
	}

	if match := placeholderPattern.FindStringSubmatch(path); match != nil {
		return "", newValidationError("missing path parameter %q for endpoint %s", match[1], endpoint)
	}

	full := strings.TrimSuffix(baseURL, "/") + path

	if len(queryParams) > 0 {
		values := url.Values{}
		for key, value := range queryParams {
			values.Set(key, value)
		}
		full = full + "?" + values.Encode()
	}

	return full, nil
}

// BuildHeaders composes the header set for one call. Defaults are additive:
// caller headers win on collision, except Authorization which is computed
// fresh from the session token on every attempt so a rotated token is picked
// up by the very next dispatch.
func BuildHeaders(hasPayload bool, accessToken string, extra map[string]string) http.Header {
	headers := http.Header{}

	if hasPayload {
		headers.Set("Content-Type", "application/json")
	}

	for key, value := range extra {
		headers.Set(key, value)
	}

	if accessToken != "" {
		headers.Set("Authorization", fmt.Sprintf("Bearer %s", accessToken))
	}

	return headers
}
