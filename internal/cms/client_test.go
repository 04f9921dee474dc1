package cms

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/firstindallas/backend/internal/models"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/api", "secret", 5*time.Second, nil)
}

func TestListEvents_SendsFiltersAndToken(t *testing.T) {
	start := time.Date(2025, 6, 1, 19, 0, 0, 0, time.UTC)
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/events/", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		q := r.URL.Query()
		assert.Equal(t, "PUBLISHED", q.Get("status"))
		assert.Equal(t, "Dallas", q.Get("city"))
		assert.Equal(t, "1000", q.Get("limit"))
		assert.Equal(t, "", q.Get("include_past"))
		_ = json.NewEncoder(w).Encode([]models.Event{{ID: 7, Title: "Jazz Night", City: "Dallas", StartAt: start}})
	})

	events, err := c.ListEvents(context.Background(), EventQuery{Status: "PUBLISHED", City: "Dallas", Limit: 5000})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, int64(7), events[0].ID)
	assert.True(t, start.Equal(events[0].StartAt))
}

func TestCreateEvent_SendsIdempotencyKey(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "submission-abc", r.Header.Get("Idempotency-Key"))
		var e models.Event
		require.NoError(t, json.NewDecoder(r.Body).Decode(&e))
		assert.Equal(t, "Jazz Night", e.Title)
		e.ID = 42
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(e)
	})

	out, err := c.CreateEvent(context.Background(), models.Event{Title: "Jazz Night", StartAt: time.Now()}, "submission-abc")
	require.NoError(t, err)
	assert.Equal(t, int64(42), out.ID)
}

func TestAPIError_DetailSurfacedVerbatim(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"detail":"Duplicate event: an event with this title, city and start time already exists"}`))
	})

	_, err := c.CreateEvent(context.Background(), models.Event{Title: "x"}, "")
	require.Error(t, err)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusConflict, apiErr.Status)
	assert.Equal(t, "Duplicate event: an event with this title, city and start time already exists", apiErr.Detail)
	assert.True(t, errors.Is(err, ErrConflict))
	assert.False(t, errors.Is(err, ErrNotFound))
}

func TestAPIError_ValidationList(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"detail":[{"loc":["body","title"],"msg":"field required"},{"loc":["body","city"],"msg":"field required"}]}`))
	})

	_, err := c.GetTask(context.Background(), 1)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "field required; field required", apiErr.Detail)
}

func TestGetEvent_NotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/events/99", r.URL.Path)
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"detail":"Event not found"}`))
	})

	_, err := c.GetEvent(context.Background(), 99)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestBulkAndCleanup_RelayResult(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/events/bulk/delete":
			var body bulkIDs
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, []int64{1, 2}, body.EventIDs)
			_, _ = w.Write([]byte(`{"message":"Successfully deleted 2 events","deleted_count":2}`))
		case "/api/events/cleanup/past-events":
			assert.Equal(t, "7", r.URL.Query().Get("days_old"))
			_, _ = w.Write([]byte(`{"message":"Deleted 3 past events","deleted_count":3}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	res, err := c.BulkDelete(context.Background(), []int64{1, 2})
	require.NoError(t, err)
	assert.Equal(t, "Successfully deleted 2 events", res.Message())

	res, err = c.CleanupPastEvents(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "Deleted 3 past events", res.Message())
}

func TestTriggerSyncAndPollTask(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/sync/eventbrite/dallas":
			assert.Equal(t, http.MethodPost, r.Method)
			_, _ = w.Write([]byte(`{"message":"Eventbrite bulk sync started","task_id":12,"status":"queued"}`))
		case "/api/tasks/12":
			_, _ = w.Write([]byte(`{"id":12,"status":"completed","events_extracted":31}`))
		}
	})

	started, err := c.TriggerSync(context.Background(), "/eventbrite/dallas")
	require.NoError(t, err)
	assert.Equal(t, int64(12), started.TaskID)

	task, err := c.GetTask(context.Background(), 12)
	require.NoError(t, err)
	assert.Equal(t, models.TaskCompleted, task.Status)
	assert.Equal(t, 31, task.EventsExtracted)
}
