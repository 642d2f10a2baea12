package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"taskdeck/internal/credentials"
	"taskdeck/internal/notify"
)

// DefaultTimeout is the fixed request timeout applied to every call.
const DefaultTimeout = 10 * time.Second

// Error is a failure reported by the backend: a non-2xx response or a
// response whose envelope status is not "success".
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("request failed with status %d", e.StatusCode)
}

// IsAuthError reports whether err is a backend 401/403.
func IsAuthError(err error) bool {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden
	}
	return false
}

// envelope is the wire wrapper every backend response must follow. Anything
// that does not decode into this shape is rejected outright.
type envelope struct {
	Status  string          `json:"status"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

// refreshPayload is the data payload of a successful token refresh.
type refreshPayload struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
}

// Client is the single point through which all backend calls are issued.
// It attaches the stored access token as a bearer credential, retries once
// after refreshing on a 401, and surfaces server messages through the
// injected notifier.
type Client struct {
	base     string
	http     *http.Client
	creds    *credentials.Store
	notifier notify.Notifier

	// onAuthExpired is the redirect-to-login primitive, invoked when a
	// refresh attempt fails and the session is torn down.
	onAuthExpired func()
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout overrides the fixed request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithNotifier sets the transient-message sink.
func WithNotifier(n notify.Notifier) Option {
	return func(c *Client) { c.notifier = n }
}

// WithAuthExpiredHandler sets the redirect-to-login primitive.
func WithAuthExpiredHandler(fn func()) Option {
	return func(c *Client) { c.onAuthExpired = fn }
}

// WithHTTPClient replaces the underlying transport (for testing).
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// New creates a client for the given base URL, e.g. "http://localhost:5000/api".
func New(baseURL string, creds *credentials.Store, opts ...Option) *Client {
	c := &Client{
		base:          baseURL,
		http:          &http.Client{Timeout: DefaultTimeout},
		creds:         creds,
		notifier:      notify.Discard{},
		onAuthExpired: func() {},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get issues a GET and decodes the envelope data into out.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.call(ctx, http.MethodGet, path, nil, out)
}

// Post issues a POST with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.call(ctx, http.MethodPost, path, body, out)
}

// Put issues a PUT with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.call(ctx, http.MethodPut, path, body, out)
}

// Patch issues a PATCH with a JSON body.
func (c *Client) Patch(ctx context.Context, path string, body, out any) error {
	return c.call(ctx, http.MethodPatch, path, body, out)
}

// Delete issues a DELETE.
func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.call(ctx, http.MethodDelete, path, nil, out)
}

// PostForm issues a POST with a multipart form body. The content type is the
// form's own (with boundary); JSON is never forced onto it.
func (c *Client) PostForm(ctx context.Context, path string, form *Form, out any) error {
	body, contentType, err := form.encode()
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, path, body, contentType, out)
}

// call marshals body as JSON (when non-nil) and dispatches the request.
func (c *Client) call(ctx context.Context, method, path string, body, out any) error {
	var payload []byte
	contentType := ""
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		contentType = "application/json"
	}
	return c.do(ctx, method, path, payload, contentType, out)
}

// do sends the request, performing at most one refresh-and-retry on a 401.
// The raw payload is kept so the request can be replayed with a fresh token.
func (c *Client) do(ctx context.Context, method, path string, payload []byte, contentType string, out any) error {
	resp, body, err := c.send(ctx, method, path, payload, contentType, c.creds.AccessToken())
	if err != nil {
		c.notifier.Error("Request failed", err.Error())
		return err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		// Single refresh attempt per original request. On success the
		// original request is replayed once with the new credential; on
		// failure the session is torn down and the 401 propagates.
		newAccess, refreshErr := c.refresh(ctx)
		if refreshErr != nil {
			_ = c.creds.Clear()
			c.onAuthExpired()
			return c.failure(resp.StatusCode, body, true)
		}
		resp, body, err = c.send(ctx, method, path, payload, contentType, newAccess)
		if err != nil {
			c.notifier.Error("Request failed", err.Error())
			return err
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.failure(resp.StatusCode, body, false)
	}

	return c.decode(body, out)
}

// send issues one HTTP attempt and reads the full response body.
func (c *Client) send(ctx context.Context, method, path string, payload []byte, contentType, token string) (*http.Response, []byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return nil, nil, fmt.Errorf("build request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("read response: %w", err)
	}
	return resp, body, nil
}

// refresh exchanges the stored refresh token for a new access token and
// persists it. The refresh call itself is never retried.
func (c *Client) refresh(ctx context.Context) (string, error) {
	refreshToken := c.creds.RefreshToken()
	if refreshToken == "" {
		return "", errors.New("no refresh token available")
	}

	payload, err := json.Marshal(map[string]string{"refreshToken": refreshToken})
	if err != nil {
		return "", err
	}

	resp, body, err := c.send(ctx, http.MethodPost, "/auth/refresh", payload, "application/json", "")
	if err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("refresh rejected with status %d", resp.StatusCode)
	}

	var data refreshPayload
	if err := c.decode(body, &data); err != nil {
		return "", err
	}
	if data.AccessToken == "" {
		return "", errors.New("no access token in refresh response")
	}

	if err := c.creds.SetAccess(ctx, data.AccessToken, data.RefreshToken); err != nil {
		return "", err
	}
	return data.AccessToken, nil
}

// failure turns a non-2xx response into an *Error, surfacing the server
// message unless the refresh path already handled the request.
func (c *Client) failure(status int, body []byte, handled bool) error {
	apiErr := &Error{StatusCode: status}

	var env envelope
	if err := json.Unmarshal(body, &env); err == nil && env.Message != "" {
		apiErr.Message = env.Message
	}

	if !handled {
		msg := apiErr.Message
		if msg == "" {
			msg = fmt.Sprintf("server returned status %d", status)
		}
		c.notifier.Error("Request failed", msg)
	}
	return apiErr
}

// decode enforces the {status, data} envelope and unmarshals data into out.
// Responses that do not follow the envelope are rejected, never probed.
func (c *Client) decode(body []byte, out any) error {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("malformed response body: %w", err)
	}
	if env.Status != "success" {
		return &Error{StatusCode: http.StatusOK, Message: envMessage(env)}
	}
	if out == nil {
		return nil
	}
	if len(env.Data) == 0 {
		return errors.New("response envelope has no data")
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode response data: %w", err)
	}
	return nil
}

func envMessage(env envelope) string {
	if env.Message != "" {
		return env.Message
	}
	return fmt.Sprintf("unexpected response status %q", env.Status)
}
