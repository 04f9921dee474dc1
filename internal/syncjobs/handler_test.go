package syncjobs

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/firstindallas/backend/internal/cms"
	"github.com/firstindallas/backend/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type MockRunner struct {
	mock.Mock
}

func (m *MockRunner) Trigger(ctx context.Context, provider string) (*Started, error) {
	args := m.Called(ctx, provider)
	out, _ := args.Get(0).(*Started)
	return out, args.Error(1)
}

func (m *MockRunner) Extract(ctx context.Context, urls []string) (*Started, error) {
	args := m.Called(ctx, urls)
	out, _ := args.Get(0).(*Started)
	return out, args.Error(1)
}

func (m *MockRunner) Active(ctx context.Context) ([]TaskView, error) {
	args := m.Called(ctx)
	out, _ := args.Get(0).([]TaskView)
	return out, args.Error(1)
}

func (m *MockRunner) Status(ctx context.Context) (map[string][]models.SyncTask, error) {
	args := m.Called(ctx)
	out, _ := args.Get(0).(map[string][]models.SyncTask)
	return out, args.Error(1)
}

func (m *MockRunner) ListTasks(ctx context.Context, status string, limit, offset int) ([]models.SyncTask, error) {
	args := m.Called(ctx, status, limit, offset)
	out, _ := args.Get(0).([]models.SyncTask)
	return out, args.Error(1)
}

func (m *MockRunner) Task(ctx context.Context, id int64) (*TaskView, error) {
	args := m.Called(ctx, id)
	out, _ := args.Get(0).(*TaskView)
	return out, args.Error(1)
}

func newRouter(r Runner) *gin.Engine {
	h := NewHandler(r, nil)
	e := gin.New()
	e.GET("/admin/sync/providers", h.Providers)
	e.POST("/admin/sync/:provider", h.Trigger)
	e.GET("/admin/sync/status", h.Status)
	e.GET("/admin/sync/active", h.Active)
	e.GET("/admin/tasks", h.ListTasks)
	e.GET("/admin/tasks/:id", h.GetTask)
	e.POST("/admin/tasks/extract", h.Extract)
	return e
}

func do(e *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.ServeHTTP(w, req)
	return w
}

func TestHandler_Trigger(t *testing.T) {
	r := &MockRunner{}
	r.On("Trigger", mock.Anything, "eventbrite").
		Return(&Started{Provider: "eventbrite", Message: "started", Tasks: []TaskView{{SyncTask: models.SyncTask{ID: 5}}}}, nil)

	w := do(newRouter(r), http.MethodPost, "/admin/sync/eventbrite", nil)
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Contains(t, w.Body.String(), `"id":5`)
}

func TestHandler_TriggerErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"unknown provider", ErrUnknownProvider, http.StatusNotFound},
		{"no facebook pages", ErrNoFacebookURLs, http.StatusBadRequest},
		{"cms rejected", &cms.APIError{Status: http.StatusServiceUnavailable, Detail: "busy"}, http.StatusServiceUnavailable},
		{"cms unreachable", context.DeadlineExceeded, http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &MockRunner{}
			r.On("Trigger", mock.Anything, "x").Return(nil, tt.err)
			w := do(newRouter(r), http.MethodPost, "/admin/sync/x", nil)
			assert.Equal(t, tt.code, w.Code)
		})
	}
}

func TestHandler_Extract(t *testing.T) {
	r := &MockRunner{}
	r.On("Extract", mock.Anything, []string{"bad"}).Return(nil, InvalidURLs{"urls[0]": "Must be an http or https URL"})
	r.On("Extract", mock.Anything, []string{"https://example.com/feed"}).Return(&Started{Message: "Extraction started for 1 URLs"}, nil)

	e := newRouter(r)
	w := do(e, http.MethodPost, "/admin/tasks/extract", ExtractRequest{URLs: []string{"bad"}})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "urls[0]")

	w = do(e, http.MethodPost, "/admin/tasks/extract", ExtractRequest{URLs: []string{"https://example.com/feed"}})
	assert.Equal(t, http.StatusAccepted, w.Code)
}

func TestHandler_ListTasksClampsPaging(t *testing.T) {
	r := &MockRunner{}
	r.On("ListTasks", mock.Anything, "running", 50, 0).Return(nil, nil)

	w := do(newRouter(r), http.MethodGet, "/admin/tasks?status=running&limit=9999&offset=-3", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"data":[]}`, w.Body.String())
	r.AssertExpectations(t)
}

func TestHandler_GetTask(t *testing.T) {
	r := &MockRunner{}
	r.On("Task", mock.Anything, int64(12)).Return(&TaskView{SyncTask: models.SyncTask{ID: 12, Status: models.TaskRunning}, Message: "Sync in progress..."}, nil)
	r.On("Task", mock.Anything, int64(13)).Return(nil, &cms.APIError{Status: http.StatusNotFound, Detail: "Task not found"})

	e := newRouter(r)
	w := do(e, http.MethodGet, "/admin/tasks/12", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Sync in progress...")

	assert.Equal(t, http.StatusNotFound, do(e, http.MethodGet, "/admin/tasks/13", nil).Code)
	assert.Equal(t, http.StatusNotFound, do(e, http.MethodGet, "/admin/tasks/abc", nil).Code)
}

func TestHandler_Providers(t *testing.T) {
	w := do(newRouter(&MockRunner{}), http.MethodGet, "/admin/sync/providers", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"label":"Klyde Warren Park"`)
}
