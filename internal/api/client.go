// Package api is the single HTTP client for the expense-workflow backend.
// All network access flows through it: one base URL, one fixed timeout,
// cookie credentials on every call, no retries anywhere.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Error is a non-2xx upstream response.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("upstream HTTP %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("upstream HTTP %d", e.StatusCode)
}

// StatusCode extracts the HTTP status from an upstream error, or 0 for
// transport-level failures (timeout, connection refused).
func StatusCode(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// ErrorLabel renders err the way the pages display it: "HTTP 404" when the
// upstream answered, a generic message otherwise.
func ErrorLabel(err error) string {
	if code := StatusCode(err); code != 0 {
		return fmt.Sprintf("HTTP %d", code)
	}
	return "通信エラー"
}

// Credentials are the upstream session cookies captured at login and replayed
// on every subsequent call for that user.
type Credentials []*http.Cookie

type Client struct {
	baseURL string
	httpc   *http.Client
}

// New builds a client for the given base URL (e.g. "http://localhost:8080/api").
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: timeout},
	}
}

// Health calls GET /health.
func (c *Client) Health(ctx context.Context) (Health, error) {
	var out Health
	err := c.do(ctx, nil, http.MethodGet, "/health", nil, &out, nil)
	return out, err
}

// Me calls GET /me. A 401 means unauthenticated and surfaces as *Error.
func (c *Client) Me(ctx context.Context, creds Credentials) (Me, error) {
	var out Me
	err := c.do(ctx, creds, http.MethodGet, "/me", nil, &out, nil)
	return out, err
}

// Login calls POST /auth/login and returns the session cookies the upstream
// set for this user.
func (c *Client) Login(ctx context.Context, email, password string) (Credentials, error) {
	body := map[string]string{"email": email, "password": password}
	var creds Credentials
	err := c.do(ctx, nil, http.MethodPost, "/auth/login", body, nil, func(resp *http.Response) {
		creds = resp.Cookies()
	})
	if err != nil {
		return nil, err
	}
	return creds, nil
}

// Logout calls POST /auth/logout.
func (c *Client) Logout(ctx context.Context, creds Credentials) error {
	return c.do(ctx, creds, http.MethodPost, "/auth/logout", nil, nil, nil)
}

// ListRequests calls GET /requests (the applicant's own requests).
func (c *Client) ListRequests(ctx context.Context, creds Credentials) ([]Request, error) {
	var out []Request
	err := c.do(ctx, creds, http.MethodGet, "/requests", nil, &out, nil)
	return out, err
}

// CreateRequest calls POST /requests; the created request starts in DRAFT.
func (c *Client) CreateRequest(ctx context.Context, creds Credentials, in RequestInput) (Request, error) {
	var out Request
	err := c.do(ctx, creds, http.MethodPost, "/requests", in, &out, nil)
	return out, err
}

// GetRequest calls GET /requests/{id}.
func (c *Client) GetRequest(ctx context.Context, creds Credentials, id string) (Request, error) {
	var out Request
	err := c.do(ctx, creds, http.MethodGet, "/requests/"+id, nil, &out, nil)
	return out, err
}

// UpdateRequest calls PATCH /requests/{id}; the status does not change.
func (c *Client) UpdateRequest(ctx context.Context, creds Credentials, id string, in RequestInput) error {
	return c.do(ctx, creds, http.MethodPatch, "/requests/"+id, in, nil, nil)
}

// SubmitRequest calls POST /requests/{id}/submit (DRAFT|RETURNED → SUBMITTED).
func (c *Client) SubmitRequest(ctx context.Context, creds Credentials, id string) error {
	return c.do(ctx, creds, http.MethodPost, "/requests/"+id+"/submit", nil, nil, nil)
}

// WithdrawRequest calls POST /requests/{id}/withdraw (DRAFT|RETURNED → WITHDRAWN).
func (c *Client) WithdrawRequest(ctx context.Context, creds Credentials, id string) error {
	return c.do(ctx, creds, http.MethodPost, "/requests/"+id+"/withdraw", nil, nil, nil)
}

// History calls GET /requests/{id}/history.
func (c *Client) History(ctx context.Context, creds Credentials, id string) ([]HistoryEntry, error) {
	var out []HistoryEntry
	err := c.do(ctx, creds, http.MethodGet, "/requests/"+id+"/history", nil, &out, nil)
	return out, err
}

// Inbox calls GET /inbox (the approver's pending queue).
func (c *Client) Inbox(ctx context.Context, creds Credentials) ([]Request, error) {
	var out []Request
	err := c.do(ctx, creds, http.MethodGet, "/inbox", nil, &out, nil)
	return out, err
}

// InboxDetail calls GET /inbox/{id} (the approver-scoped detail view).
func (c *Client) InboxDetail(ctx context.Context, creds Credentials, id string) (Request, error) {
	var out Request
	err := c.do(ctx, creds, http.MethodGet, "/inbox/"+id, nil, &out, nil)
	return out, err
}

// Approve calls POST /requests/{id}/approve.
func (c *Client) Approve(ctx context.Context, creds Credentials, id string) error {
	return c.do(ctx, creds, http.MethodPost, "/requests/"+id+"/approve", nil, nil, nil)
}

// Return calls POST /requests/{id}/return with the mandatory comment.
func (c *Client) Return(ctx context.Context, creds Credentials, id, comment string) error {
	return c.do(ctx, creds, http.MethodPost, "/requests/"+id+"/return", map[string]string{"comment": comment}, nil, nil)
}

// Reject calls POST /requests/{id}/reject with the mandatory comment.
func (c *Client) Reject(ctx context.Context, creds Credentials, id, comment string) error {
	return c.do(ctx, creds, http.MethodPost, "/requests/"+id+"/reject", map[string]string{"comment": comment}, nil, nil)
}

func (c *Client) do(ctx context.Context, creds Credentials, method, path string, body, out any, inspect func(*http.Response)) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	for _, cookie := range creds {
		req.AddCookie(cookie)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if inspect != nil {
		inspect(resp)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s %s: read body: %w", method, path, err)
	}

	if resp.StatusCode >= 400 {
		return &Error{StatusCode: resp.StatusCode, Message: errorMessage(data)}
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("%s %s: decode body: %w", method, path, err)
		}
	}
	return nil
}

// errorMessage pulls the "error" field out of an upstream error body when one
// exists; bodies are otherwise opaque.
func errorMessage(data []byte) string {
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(data, &body); err == nil && body.Error != "" {
		return body.Error
	}
	return ""
}
