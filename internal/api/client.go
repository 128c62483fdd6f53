package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"resty.dev/v3"
)

// Client is a thin JSON client for the hospital REST API. It handles
// Bearer token authentication and maps error bodies onto typed errors.
// Requests are never retried.
type Client struct {
	rc      *resty.Client
	baseURL string
}

// Option configures a Client.
type Option func(*resty.Client)

// WithTimeout overrides the default 30s request timeout.
func WithTimeout(d time.Duration) Option {
	return func(rc *resty.Client) {
		rc.SetTimeout(d)
	}
}

// NewClient creates a client for the API rooted at baseURL
// (e.g. http://localhost:8000/api). An empty token sends no Authorization header.
func NewClient(baseURL, token string, opts ...Option) *Client {
	baseURL = strings.TrimRight(baseURL, "/")

	rc := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(30*time.Second).
		SetHeader("Accept", "application/json")
	if token != "" {
		rc.SetAuthToken(token)
	}
	for _, opt := range opts {
		opt(rc)
	}

	return &Client{rc: rc, baseURL: baseURL}
}

// BaseURL returns the API root this client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// SetToken replaces the Bearer token used for subsequent requests.
func (c *Client) SetToken(token string) {
	c.rc.SetAuthToken(token)
}

// Get performs a GET request and unmarshals the JSON response into result.
func (c *Client) Get(ctx context.Context, path string, query url.Values, result any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, result)
}

// Post performs a POST request with a JSON body. A nil result ignores the
// response body.
func (c *Client) Post(ctx context.Context, path string, body, result any) error {
	return c.do(ctx, http.MethodPost, path, nil, body, result)
}

// Put performs a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body, result any) error {
	return c.do(ctx, http.MethodPut, path, nil, body, result)
}

// Patch performs a PATCH request with a JSON body.
func (c *Client) Patch(ctx context.Context, path string, body, result any) error {
	return c.do(ctx, http.MethodPatch, path, nil, body, result)
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil, nil)
}

// do builds and executes the request. resty decodes the body into result on
// 2xx and into an ErrorResponse otherwise; every response is read as JSON.
func (c *Client) do(
	ctx context.Context,
	method string,
	path string,
	query url.Values,
	body any,
	result any,
) error {
	req := c.rc.R().
		SetContext(ctx).
		SetForceResponseContentType("application/json").
		SetError(&ErrorResponse{})
	if query != nil {
		req.SetQueryParamsFromValues(query)
	}
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}
	if result != nil {
		req.SetResult(result)
	}

	resp, err := req.Execute(method, path)
	if err != nil && (resp == nil || resp.RawResponse == nil) {
		return fmt.Errorf("executing request %s %s: %w", method, path, err)
	}

	// resty leaves the body open when it decodes nothing, e.g. an ack
	// without a result.
	if resp.Body != nil {
		defer resp.Body.Close()
	}

	// A body that failed to decode still leaves the status usable.
	status := resp.StatusCode()
	if status == http.StatusUnauthorized {
		return &AuthError{Message: errorText(resp)}
	}

	if status < 200 || status >= 300 {
		return &Error{
			Status:  status,
			Method:  method,
			Path:    path,
			Message: errorText(resp),
		}
	}

	if err != nil {
		return fmt.Errorf("decoding response from %s %s: %w", method, path, err)
	}

	return nil
}

// Close releases the underlying transport.
func (c *Client) Close() error {
	return c.rc.Close()
}

// errorText returns the "error" field of a decoded error body, unchanged.
func errorText(resp *resty.Response) string {
	er, ok := resp.Error().(*ErrorResponse)
	if !ok || er == nil {
		return ""
	}
	return er.Error
}
