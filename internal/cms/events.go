package cms

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/firstindallas/backend/internal/models"
)

// MaxListLimit is the largest page the CMS serves from GET /events.
const MaxListLimit = 1000

// EventQuery is the server-side filter set of GET /events.
type EventQuery struct {
	Status      string
	City        string
	Category    string
	PriceTier   string
	Search      string
	StartDate   *time.Time
	EndDate     *time.Time
	IncludePast bool
	Limit       int
	Offset      int
}

func (q EventQuery) values() url.Values {
	v := url.Values{}
	set := func(k, s string) {
		if s != "" {
			v.Set(k, s)
		}
	}
	set("status", q.Status)
	set("city", q.City)
	set("category", q.Category)
	set("price_tier", q.PriceTier)
	set("search", q.Search)
	if q.StartDate != nil {
		v.Set("start_date", q.StartDate.UTC().Format(time.RFC3339))
	}
	if q.EndDate != nil {
		v.Set("end_date", q.EndDate.UTC().Format(time.RFC3339))
	}
	if q.IncludePast {
		v.Set("include_past", "true")
	}
	limit := q.Limit
	if limit <= 0 || limit > MaxListLimit {
		limit = MaxListLimit
	}
	v.Set("limit", strconv.Itoa(limit))
	if q.Offset > 0 {
		v.Set("offset", strconv.Itoa(q.Offset))
	}
	return v
}

// ListEvents returns events ordered by start time ascending.
func (c *Client) ListEvents(ctx context.Context, q EventQuery) ([]models.Event, error) {
	var out []models.Event
	if err := c.do(ctx, request{method: http.MethodGet, path: "/events/", query: q.values()}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetEvent returns one event.
func (c *Client) GetEvent(ctx context.Context, id int64) (*models.Event, error) {
	var out models.Event
	if err := c.do(ctx, request{method: http.MethodGet, path: eventPath(id)}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateEvent creates a live event. idempotencyKey, when set, is sent as the
// Idempotency-Key header so a retried create maps to the same event.
func (c *Client) CreateEvent(ctx context.Context, e models.Event, idempotencyKey string) (*models.Event, error) {
	r := request{method: http.MethodPost, path: "/events/", body: e}
	if idempotencyKey != "" {
		r.headers = map[string]string{"Idempotency-Key": idempotencyKey}
	}
	var out models.Event
	if err := c.do(ctx, r, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SetEventStatus switches an event between DRAFT and PUBLISHED.
func (c *Client) SetEventStatus(ctx context.Context, id int64, status models.EventStatus) (*models.Event, error) {
	var out models.Event
	body := map[string]string{"status": string(status)}
	if err := c.do(ctx, request{method: http.MethodPut, path: eventPath(id), body: body}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteEvent removes an event.
func (c *Client) DeleteEvent(ctx context.Context, id int64) (Result, error) {
	out := Result{}
	if err := c.do(ctx, request{method: http.MethodDelete, path: eventPath(id)}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// PublishToWordPress pushes one event to the WordPress site.
func (c *Client) PublishToWordPress(ctx context.Context, id int64) (Result, error) {
	out := Result{}
	if err := c.do(ctx, request{method: http.MethodPost, path: eventPath(id) + "/publish"}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

type bulkIDs struct {
	EventIDs []int64 `json:"event_ids"`
}

// BulkPublish marks every listed event PUBLISHED.
func (c *Client) BulkPublish(ctx context.Context, ids []int64) (Result, error) {
	out := Result{}
	if err := c.do(ctx, request{method: http.MethodPost, path: "/events/bulk/publish", body: bulkIDs{EventIDs: ids}}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// BulkDelete removes every listed event.
func (c *Client) BulkDelete(ctx context.Context, ids []int64) (Result, error) {
	out := Result{}
	if err := c.do(ctx, request{method: http.MethodPost, path: "/events/bulk/delete", body: bulkIDs{EventIDs: ids}}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CleanupPastEvents deletes events that ended more than daysOld days ago.
func (c *Client) CleanupPastEvents(ctx context.Context, daysOld int) (Result, error) {
	out := Result{}
	q := url.Values{"days_old": {strconv.Itoa(daysOld)}}
	if err := c.do(ctx, request{method: http.MethodPost, path: "/events/cleanup/past-events", query: q}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Cities returns the distinct event cities.
func (c *Client) Cities(ctx context.Context) ([]string, error) {
	var out []string
	if err := c.do(ctx, request{method: http.MethodGet, path: "/events/cities/list"}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Categories returns the distinct event categories.
func (c *Client) Categories(ctx context.Context) ([]string, error) {
	var out []string
	if err := c.do(ctx, request{method: http.MethodGet, path: "/events/categories/list"}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Stats returns the CMS dashboard counters.
func (c *Client) Stats(ctx context.Context) (Result, error) {
	out := Result{}
	if err := c.do(ctx, request{method: http.MethodGet, path: "/stats/"}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// MirrorSubmission forwards a new organizer submission to the CMS intake.
func (c *Client) MirrorSubmission(ctx context.Context, payload interface{}) (Result, error) {
	out := Result{}
	if err := c.do(ctx, request{method: http.MethodPost, path: "/submissions/", body: payload}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func eventPath(id int64) string {
	return "/events/" + strconv.FormatInt(id, 10)
}
