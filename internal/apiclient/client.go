package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/inboxpilot/gateway/internal/config"
	"github.com/inboxpilot/gateway/internal/logger"
	"github.com/inboxpilot/gateway/internal/session"
)

// Credentials is the session handle the client pulls tokens from. It is
// injected rather than read from a package-level store so the client stays
// testable without global reset hooks.
//
// RefreshWith must guarantee at most one in-flight exchange per session:
// concurrent callers attach to the same pending refresh and observe its
// outcome instead of racing the backend with parallel refresh requests.
type Credentials interface {
	AccessToken() string
	RefreshWith(ctx context.Context, exchange func(ctx context.Context, refreshToken string) (session.Tokens, error)) error
	Clear(ctx context.Context) error
}

// Client executes logical operations against the summarization backend:
// build the request, dispatch it, normalize the outcome, and run the
// one-shot refresh-and-retry policy on 401.
type Client struct {
	baseURL    string
	httpClient *http.Client
	creds      Credentials
	onError    func(*Error)
}

type Option func(*Client)

// WithHTTPClient replaces the underlying transport, primarily for tests
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithBaseURL overrides the configured backend base URL
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithErrorCallback installs a centralized hook invoked with every normalized
// error before it is returned to the caller
func WithErrorCallback(onError func(*Error)) Option {
	return func(c *Client) {
		c.onError = onError
	}
}

// New creates a backend client bound to the given session credentials.
// Pass nil credentials for a client that only makes unauthenticated calls.
func New(creds Credentials, opts ...Option) *Client {
	c := &Client{
		baseURL: config.GetAPIBaseURL(),
		httpClient: &http.Client{
			Timeout: time.Duration(config.GetAPITimeoutSeconds()) * time.Second,
		},
		creds: creds,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Send executes one logical operation and returns the raw JSON body.
// A 204 response yields an empty JSON object.
func (c *Client) Send(ctx context.Context, method string, endpoint Endpoint, opts *RequestOptions) (json.RawMessage, error) {
	if opts == nil {
		opts = &RequestOptions{}
	}

	fullURL, err := BuildURL(c.baseURL, endpoint, opts.PathParams, opts.QueryParams)
	if err != nil {
		return nil, c.fail(err.(*Error))
	}

	body, status, err := c.dispatch(ctx, method, fullURL, opts)
	if err != nil {
		return nil, c.fail(newNetworkError(err))
	}

	if status == http.StatusUnauthorized && !opts.SkipAuth && c.creds != nil {
		logger.Info(logger.CLIENT, "Received 401 for %s, attempting token refresh", endpoint)

		if refreshErr := c.creds.RefreshWith(ctx, c.exchangeRefreshToken); refreshErr != nil {
			logger.Warn(logger.CLIENT, "Token refresh failed: %v", refreshErr)
			if clearErr := c.creds.Clear(ctx); clearErr != nil {
				logger.Error(logger.CLIENT, "Failed to clear session after refresh failure: %v", clearErr)
			}
			return nil, c.fail(newRefreshError(refreshErr))
		}

		// Exactly one retry. Whatever the second attempt returns is final,
		// including another 401.
		body, status, err = c.dispatch(ctx, method, fullURL, opts)
		if err != nil {
			return nil, c.fail(newNetworkError(err))
		}
	}

	if status >= 200 && status < 300 {
		if status == http.StatusNoContent || len(body) == 0 {
			return json.RawMessage("{}"), nil
		}
		return json.RawMessage(body), nil
	}

	return nil, c.fail(newHTTPError(status, body))
}

// Do executes one operation and decodes the JSON response into out.
// A nil out discards the body.
func (c *Client) Do(ctx context.Context, method string, endpoint Endpoint, opts *RequestOptions, out interface{}) error {
	raw, err := c.Send(ctx, method, endpoint, opts)
	if err != nil {
		return err
	}

	if out == nil {
		return nil
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return c.fail(&Error{Kind: KindHTTP, Message: fmt.Sprintf("failed to decode response: %v", err), cause: err})
	}

	return nil
}

// dispatch performs one HTTP round trip and returns the body and status.
// The returned error is transport-level only; HTTP statuses are not errors here.
func (c *Client) dispatch(ctx context.Context, method, fullURL string, opts *RequestOptions) ([]byte, int, error) {
	var payload io.Reader
	hasPayload := opts.Payload != nil
	if hasPayload {
		jsonData, err := json.Marshal(opts.Payload)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to marshal request: %w", err)
		}
		payload = bytes.NewBuffer(jsonData)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, fullURL, payload)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}

	// Token is read fresh per attempt so a rotation between dispatches is
	// picked up by the retry.
	accessToken := ""
	if !opts.SkipAuth && c.creds != nil {
		accessToken = c.creds.AccessToken()
	}
	httpReq.Header = BuildHeaders(hasPayload, accessToken, opts.Headers)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read response body: %w", err)
	}

	return body, resp.StatusCode, nil
}

// exchangeRefreshToken trades a refresh token for a new token set. It goes
// through dispatch directly so a failing exchange can never recurse into the
// retry policy.
func (c *Client) exchangeRefreshToken(ctx context.Context, refreshToken string) (session.Tokens, error) {
	if refreshToken == "" {
		return session.Tokens{}, fmt.Errorf("no refresh token available")
	}

	fullURL, err := BuildURL(c.baseURL, EndpointAuthRefresh, nil, nil)
	if err != nil {
		return session.Tokens{}, err
	}

	opts := &RequestOptions{
		Payload:  map[string]string{"refresh_token": refreshToken},
		SkipAuth: true,
	}

	body, status, err := c.dispatch(ctx, http.MethodPost, fullURL, opts)
	if err != nil {
		return session.Tokens{}, err
	}

	if status < 200 || status >= 300 {
		return session.Tokens{}, fmt.Errorf("refresh endpoint returned status %d: %s", status, errorMessageFromBody(body, status))
	}

	var tokens session.Tokens
	if err := json.Unmarshal(body, &tokens); err != nil {
		return session.Tokens{}, fmt.Errorf("failed to decode refresh response: %w", err)
	}
	if tokens.AccessToken == "" {
		return session.Tokens{}, fmt.Errorf("refresh response missing access token")
	}

	return tokens, nil
}

// fail routes a normalized error through the optional centralized callback
// before handing it back to the caller
func (c *Client) fail(err *Error) *Error {
	if c.onError != nil {
		c.onError(err)
	}
	return err
}
