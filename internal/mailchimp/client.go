// Package mailchimp is a small JSON client for the MailChimp marketing API.
package mailchimp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Craig-Turley/listsync/internal/oops"
)

type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// HTTPDoer is satisfied by *http.Client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type Client struct {
	baseURL    string
	apiKey     string
	httpClient HTTPDoer
}

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// SetHTTPClient swaps the transport, mostly for tests.
func (c *Client) SetHTTPClient(client HTTPDoer) {
	c.httpClient = client
}

func (c *Client) Post(ctx context.Context, path string, body any) (*Response, error) {
	return c.doRequest(ctx, http.MethodPost, path, body)
}

func (c *Client) Patch(ctx context.Context, path string, body any) (*Response, error) {
	return c.doRequest(ctx, http.MethodPatch, path, body)
}

func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.doRequest(ctx, http.MethodDelete, path, nil)
}

func (c *Client) doRequest(ctx context.Context, method, path string, body any) (*Response, error) {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, oops.New(err, "failed to marshal %s %s body", method, path)
		}
		reqBody = bytes.NewReader(jsonBody)
	}

	reqURL := c.baseURL + "/" + strings.TrimLeft(path, "/")

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reqBody)
	if err != nil {
		return nil, oops.New(err, "failed to create %s %s request", method, path)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		// any username works, the key goes in the password
		req.SetBasicAuth("listsync", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, oops.New(err, "%s %s failed", method, path)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, oops.New(err, "failed to read %s %s response", method, path)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, newAPIError(resp.StatusCode, raw)
	}

	out := &Response{StatusCode: resp.StatusCode, Body: map[string]any{}}
	if len(bytes.TrimSpace(raw)) > 0 {
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		if err := dec.Decode(&out.Body); err != nil {
			return nil, oops.New(err, "failed to decode %s %s response", method, path)
		}
	}

	return out, nil
}

// Response is a decoded 2xx answer.
type Response struct {
	StatusCode int
	Body       map[string]any
}

// Get returns a top-level field rendered as a string, "" when absent.
func (r *Response) Get(field string) string {
	if r == nil {
		return ""
	}

	switch v := r.Body[field].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// APIError is a non-2xx answer. MailChimp reports problems as
// application/problem+json with a title and a detail.
type APIError struct {
	StatusCode int    `json:"status"`
	Title      string `json:"title"`
	Detail     string `json:"detail"`
}

func newAPIError(status int, raw []byte) *APIError {
	apiErr := &APIError{}
	if err := json.Unmarshal(raw, apiErr); err != nil || apiErr.Title == "" {
		apiErr.Title = http.StatusText(status)
		apiErr.Detail = strings.TrimSpace(string(raw))
	}
	apiErr.StatusCode = status
	return apiErr
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("MailChimp API error (status %d): %s", e.StatusCode, e.Title)
	}
	return fmt.Sprintf("MailChimp API error (status %d): %s: %s", e.StatusCode, e.Title, e.Detail)
}
