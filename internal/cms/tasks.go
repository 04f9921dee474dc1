package cms

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/firstindallas/backend/internal/models"
)

// SyncStarted is the answer to a provider sync trigger.
type SyncStarted struct {
	Message string `json:"message"`
	TaskID  int64  `json:"task_id"`
	Status  string `json:"status"`
	Note    string `json:"note,omitempty"`
}

// TriggerSync enqueues a provider import. path is the provider's endpoint under /sync.
func (c *Client) TriggerSync(ctx context.Context, path string) (*SyncStarted, error) {
	var out SyncStarted
	if err := c.do(ctx, request{method: http.MethodPost, path: "/sync" + path}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SyncStatus returns the recent tasks per provider.
func (c *Client) SyncStatus(ctx context.Context) (map[string][]models.SyncTask, error) {
	out := map[string][]models.SyncTask{}
	if err := c.do(ctx, request{method: http.MethodGet, path: "/sync/status"}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Extract creates one extraction task per URL.
func (c *Client) Extract(ctx context.Context, urls []string) ([]models.SyncTask, error) {
	var out []models.SyncTask
	body := map[string][]string{"urls": urls}
	if err := c.do(ctx, request{method: http.MethodPost, path: "/tasks/extract", body: body}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListTasks returns recent tasks, newest first.
func (c *Client) ListTasks(ctx context.Context, status string, limit, offset int) ([]models.SyncTask, error) {
	q := url.Values{}
	if status != "" {
		q.Set("status", status)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		q.Set("offset", strconv.Itoa(offset))
	}
	var out []models.SyncTask
	if err := c.do(ctx, request{method: http.MethodGet, path: "/tasks/", query: q}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetTask returns one task's current state.
func (c *Client) GetTask(ctx context.Context, id int64) (*models.SyncTask, error) {
	var out models.SyncTask
	if err := c.do(ctx, request{method: http.MethodGet, path: "/tasks/" + strconv.FormatInt(id, 10)}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
