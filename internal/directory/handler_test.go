package directory

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/firstindallas/backend/internal/cms"
	"github.com/firstindallas/backend/internal/models"
	"github.com/firstindallas/backend/pkg/response"
)

type mockSource struct {
	mock.Mock
}

func (m *mockSource) ListEvents(ctx context.Context, q cms.EventQuery) ([]models.Event, error) {
	args := m.Called(ctx, q)
	events, _ := args.Get(0).([]models.Event)
	return events, args.Error(1)
}

func newTestRouter(t *testing.T, src EventSource, now time.Time) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	svc := NewService(src, nil, time.UTC, 20, nil)
	svc.now = func() time.Time { return now }
	h := NewHandler(svc, NewRenderer(time.UTC, ""), "/calendar", "/submit", nil)
	r := gin.New()
	r.GET("/api/directory", h.List)
	r.GET("/api/directory/cities", h.Cities)
	r.GET("/directory", h.Render)
	r.GET("/widgets/upcoming", h.Widget)
	return r
}

func TestList_FiltersAndEchoesQuery(t *testing.T) {
	now := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	events := makeEvents(25, now.Add(time.Hour))
	events[3].City = "Plano"
	src := new(mockSource)
	from := now.AddDate(0, 0, -RecentLookbackDays)
	src.On("ListEvents", mock.Anything, mock.MatchedBy(func(q cms.EventQuery) bool {
		return q.Status == "PUBLISHED" && q.Limit == cms.MaxListLimit && q.IncludePast &&
			q.StartDate != nil && q.StartDate.Equal(from)
	})).Return(events, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/directory?city=Dallas&page=2", nil)
	newTestRouter(t, src, now).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		response.Body
		Data PageResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 24, body.Data.Total)
	assert.Equal(t, 2, body.Data.Page.Page)
	assert.Len(t, body.Data.Items, 4)
	assert.Equal(t, "city=Dallas&page=2", body.Data.Query)
	src.AssertExpectations(t)
}

// cmsLike applies the CMS's own rule: events that already started are hidden
// unless include_past is sent.
type cmsLike struct {
	events []models.Event
	now    time.Time
	seen   []cms.EventQuery
}

func (c *cmsLike) ListEvents(_ context.Context, q cms.EventQuery) ([]models.Event, error) {
	c.seen = append(c.seen, q)
	var out []models.Event
	for _, e := range c.events {
		if !q.IncludePast && e.StartAt.Before(c.now) {
			continue
		}
		if q.StartDate != nil && e.StartAt.Before(*q.StartDate) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func TestList_IncludesEventsAlreadyUnderway(t *testing.T) {
	now := time.Date(2030, 3, 6, 14, 0, 0, 0, time.UTC)
	end := time.Date(2030, 3, 6, 18, 0, 0, 0, time.UTC)
	finished := time.Date(2030, 2, 1, 12, 0, 0, 0, time.UTC)
	src := &cmsLike{now: now, events: []models.Event{
		{ID: 1, Title: "Market", City: "Dallas", StartAt: time.Date(2030, 3, 6, 8, 0, 0, 0, time.UTC), EndAt: &end},
		{ID: 2, Title: "Old Fair", City: "Dallas", StartAt: time.Date(2030, 2, 1, 9, 0, 0, 0, time.UTC), EndAt: &finished},
	}}
	router := newTestRouter(t, src, now)

	total := func(path string) int {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusOK, rec.Code)
		var body struct {
			Data PageResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		return body.Data.Total
	}

	assert.Equal(t, 1, total("/api/directory?range=today"))
	assert.Equal(t, 1, total("/api/directory"))
	assert.Equal(t, 2, total("/api/directory?include_past=true"))
	for _, q := range src.seen {
		assert.True(t, q.IncludePast)
	}
}

func TestList_UpstreamFailure(t *testing.T) {
	src := new(mockSource)
	src.On("ListEvents", mock.Anything, mock.Anything).Return(nil, errors.New("connection refused"))

	rec := httptest.NewRecorder()
	newTestRouter(t, src, time.Now()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/directory", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "Unable to load events")
}

func TestRender_LimitAttributeAndHTML(t *testing.T) {
	now := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	src := new(mockSource)
	src.On("ListEvents", mock.Anything, mock.Anything).Return(makeEvents(30, now.Add(time.Hour)), nil)

	rec := httptest.NewRecorder()
	newTestRouter(t, src, now).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/directory?limit=10&show_filters=no", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	html := rec.Body.String()
	assert.Contains(t, html, "Event 10<")
	assert.NotContains(t, html, "Event 11<")
	assert.NotContains(t, html, "events-filters")
	assert.NotContains(t, html, "events-pagination")
}

func TestRender_UpstreamFailureShowsMessage(t *testing.T) {
	src := new(mockSource)
	src.On("ListEvents", mock.Anything, mock.Anything).Return(nil, errors.New("timeout"))

	rec := httptest.NewRecorder()
	newTestRouter(t, src, time.Now()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/directory", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Unable to load events. Please try again later.")
}

func TestWidget_ClampsLimitAndSkipsStarted(t *testing.T) {
	now := time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)
	events := makeEvents(15, now.Add(time.Hour))
	end := now.Add(2 * time.Hour)
	events = append(events, models.Event{ID: 99, Title: "Already Started", StartAt: now.Add(-time.Hour), EndAt: &end})
	src := new(mockSource)
	src.On("ListEvents", mock.Anything, mock.Anything).Return(events, nil)

	rec := httptest.NewRecorder()
	newTestRouter(t, src, now).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/widgets/upcoming?limit=50&title=Coming+Up", nil))

	html := rec.Body.String()
	assert.Contains(t, html, "Coming Up")
	assert.Contains(t, html, "Event 10<")
	assert.NotContains(t, html, "Event 11<")
	assert.NotContains(t, html, "Already Started")
	assert.Contains(t, html, `href="/calendar"`)
}

func TestCities_Distinct(t *testing.T) {
	now := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	events := makeEvents(3, now.Add(time.Hour))
	events[1].City = "plano"
	events[2].City = "Plano"
	src := new(mockSource)
	src.On("ListEvents", mock.Anything, mock.Anything).Return(events, nil)

	rec := httptest.NewRecorder()
	newTestRouter(t, src, now).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/directory/cities", nil))

	var body struct {
		Data []string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Data, 2)
	assert.Equal(t, "Dallas", body.Data[0])
}
