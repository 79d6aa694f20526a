package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"almanara_go/config"

	"github.com/sirupsen/logrus"
)

// ErrTransport wraps network-level failures (no response received).
var ErrTransport = errors.New("academy api unreachable")

// APIError is a non-2xx response from the academy API with the message
// extracted from the body's "message" or "error" field when present.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("academy api: %d %s", e.Status, e.Message)
}

// Retryable reports whether the request may be retried. Validation
// rejections (4xx) never are.
func (e *APIError) Retryable() bool {
	return e.Status >= 500
}

// Client issues requests against the academy backend's resource
// collections. Filters go through normalized query parameters and deletes
// use an explicit DELETE verb; the old path-embedded `field=value` segments
// and body-less-PUT deletes are not reproduced.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	retries int
	backoff time.Duration
}

// New builds a client from the loaded application config.
func New() *Client {
	return NewWithOptions(
		config.AppConfig.AcademyAPIBaseURL,
		config.AppConfig.AcademyAPIKey,
		config.AppConfig.AcademyAPITimeout,
		config.AppConfig.AcademyAPIRetries,
	)
}

// NewWithOptions builds a client with explicit settings (used by tests).
func NewWithOptions(baseURL, apiKey string, timeout time.Duration, retries int) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
		retries: retries,
		backoff: 200 * time.Millisecond,
	}
}

// SetBackoff overrides the initial retry backoff (used by tests).
func (c *Client) SetBackoff(d time.Duration) {
	c.backoff = d
}

// List fetches a full collection into out.
func (c *Client) List(ctx context.Context, resource string, out interface{}) error {
	_, err := c.do(ctx, http.MethodGet, resource, nil, nil, "", out)
	return err
}

// Find fetches a collection filtered by query parameters.
func (c *Client) Find(ctx context.Context, resource string, filters map[string]string, out interface{}) error {
	q := url.Values{}
	for k, v := range filters {
		q.Set(k, v)
	}
	_, err := c.do(ctx, http.MethodGet, resource, q, nil, "", out)
	return err
}

// Get fetches a single entity by id.
func (c *Client) Get(ctx context.Context, resource string, id uint, out interface{}) error {
	_, err := c.do(ctx, http.MethodGet, fmt.Sprintf("%s/%d", resource, id), nil, nil, "", out)
	return err
}

// Create posts a new entity. idemKey is sent as an Idempotency-Key header so
// a retry after a timeout cannot create a duplicate record upstream; POSTs
// are only retried when a key is present.
func (c *Client) Create(ctx context.Context, resource string, payload interface{}, idemKey string, out interface{}) (int, error) {
	return c.do(ctx, http.MethodPost, resource, nil, payload, idemKey, out)
}

// Update puts changed fields on an existing entity.
func (c *Client) Update(ctx context.Context, resource string, id uint, payload interface{}, out interface{}) (int, error) {
	return c.do(ctx, http.MethodPut, fmt.Sprintf("%s/%d", resource, id), nil, payload, "", out)
}

// Delete removes an entity with an explicit DELETE verb.
func (c *Client) Delete(ctx context.Context, resource string, id uint) error {
	_, err := c.do(ctx, http.MethodDelete, fmt.Sprintf("%s/%d", resource, id), nil, nil, "", nil)
	return err
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload interface{}, idemKey string, out interface{}) (int, error) {
	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			return 0, fmt.Errorf("encode request: %w", err)
		}
	}

	endpoint := c.baseURL + "/" + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	// PUT is idempotent upstream; POST only when the caller supplied a key.
	canRetry := method == http.MethodGet || method == http.MethodPut || method == http.MethodDelete ||
		(method == http.MethodPost && idemKey != "")

	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			if !canRetry {
				break
			}
			select {
			case <-ctx.Done():
				return 0, ctx.Err()
			case <-time.After(c.backoff << (attempt - 1)):
			}
			logrus.WithFields(logrus.Fields{
				"method":  method,
				"path":    path,
				"attempt": attempt,
			}).Warn("Retrying academy API request")
		}

		status, err := c.doOnce(ctx, method, endpoint, body, idemKey, out)
		if err == nil {
			return status, nil
		}
		lastErr = err

		var apiErr *APIError
		if errors.As(err, &apiErr) && !apiErr.Retryable() {
			return status, err
		}
	}
	return 0, lastErr
}

func (c *Client) doOnce(ctx context.Context, method, endpoint string, body []byte, idemKey string, out interface{}) (int, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	if idemKey != "" {
		req.Header.Set("Idempotency-Key", idemKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("%w: %v", ErrTransport, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, &APIError{
			Status:  resp.StatusCode,
			Message: extractMessage(raw),
		}
	}

	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode response: %w", err)
		}
	}
	return resp.StatusCode, nil
}

// extractMessage pulls a human-readable message from an error body,
// preferring "message" then "error", else a generic fallback.
func extractMessage(raw []byte) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err == nil {
		if body.Message != "" {
			return body.Message
		}
		if body.Error != "" {
			return body.Error
		}
	}
	return "request rejected by the academy API"
}
