// Package cms is a typed client for the external events CMS API.
package cms

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ErrNotFound is matched by APIError values carrying a 404.
var ErrNotFound = errors.New("cms: not found")

// ErrConflict is matched by APIError values carrying a 409.
var ErrConflict = errors.New("cms: conflict")

// APIError is a non-2xx answer from the CMS. Detail is the upstream message
// and is meant to be shown to the operator unchanged.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("cms: %d %s", e.Status, e.Detail)
}

// Is lets errors.Is match ErrNotFound and ErrConflict.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	case ErrConflict:
		return e.Status == http.StatusConflict
	}
	return false
}

// Result is an opaque action response (counts, message) relayed to the caller.
type Result map[string]interface{}

// Message returns the "message" field if the CMS sent one.
func (r Result) Message() string {
	if s, ok := r["message"].(string); ok {
		return s
	}
	return ""
}

// Client talks to the CMS over HTTP.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	logger  *zap.Logger
}

// NewClient creates a CMS client. baseURL includes the API prefix (e.g. http://cms:8000/api).
func NewClient(baseURL, token string, timeout time.Duration, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

type request struct {
	method  string
	path    string
	query   url.Values
	body    interface{}
	headers map[string]string
}

func (c *Client) do(ctx context.Context, r request, out interface{}) error {
	var body io.Reader
	if r.body != nil {
		raw, err := json.Marshal(r.body)
		if err != nil {
			return fmt.Errorf("marshal %s %s: %w", r.method, r.path, err)
		}
		body = bytes.NewReader(raw)
	}
	u := c.baseURL + r.path
	if len(r.query) > 0 {
		u += "?" + r.query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, r.method, u, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	for k, v := range r.headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", r.method, r.path, err)
	}
	defer resp.Body.Close()
	c.logger.Debug("cms request",
		zap.String("method", r.method),
		zap.String("path", r.path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)),
	)

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return fmt.Errorf("read %s %s: %w", r.method, r.path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Status: resp.StatusCode, Detail: errorDetail(raw, resp.Status)}
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", r.method, r.path, err)
	}
	return nil
}

// errorDetail pulls the human message out of an error body. The CMS answers
// {"detail": "..."}; validation failures carry a list under detail.
func errorDetail(raw []byte, fallback string) string {
	var body struct {
		Detail  json.RawMessage `json:"detail"`
		Message string          `json:"message"`
		Error   string          `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err == nil {
		var s string
		if len(body.Detail) > 0 && json.Unmarshal(body.Detail, &s) == nil && s != "" {
			return s
		}
		var list []struct {
			Msg string        `json:"msg"`
			Loc []interface{} `json:"loc"`
		}
		if len(body.Detail) > 0 && json.Unmarshal(body.Detail, &list) == nil && len(list) > 0 {
			msgs := make([]string, 0, len(list))
			for _, d := range list {
				msgs = append(msgs, d.Msg)
			}
			return strings.Join(msgs, "; ")
		}
		if body.Message != "" {
			return body.Message
		}
		if body.Error != "" {
			return body.Error
		}
	}
	if text := strings.TrimSpace(string(raw)); text != "" && len(text) < 300 {
		return text
	}
	return fallback
}
