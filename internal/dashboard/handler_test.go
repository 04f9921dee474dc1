package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/firstindallas/backend/internal/cms"
	"github.com/firstindallas/backend/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubEvents struct {
	res cms.Result
	err error
}

func (s stubEvents) Stats(context.Context) (cms.Result, error) { return s.res, s.err }

type stubCounts struct {
	counts models.SubmissionStatusCounts
	err    error
}

func (s stubCounts) Counts(context.Context) (models.SubmissionStatusCounts, error) {
	return s.counts, s.err
}

type stubOutbox struct{ waiting, dead int64 }

func (s stubOutbox) Depth(context.Context) (int64, int64, error) { return s.waiting, s.dead, nil }

func get(h *Handler) *httptest.ResponseRecorder {
	e := gin.New()
	e.GET("/admin/stats", h.Stats)
	w := httptest.NewRecorder()
	e.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin/stats", nil))
	return w
}

func TestStats(t *testing.T) {
	h := NewHandler(
		stubEvents{res: cms.Result{"total_events": float64(120)}},
		stubCounts{counts: models.SubmissionStatusCounts{Total: 9, Pending: 4, Published: 5}},
		stubOutbox{waiting: 2, dead: 1},
		nil,
	)
	w := get(h)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data    Stats  `json:"data"`
		Warning string `json:"warning"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 4, body.Data.Submissions.Pending)
	assert.Equal(t, float64(120), body.Data.Events["total_events"])
	require.NotNil(t, body.Data.Outbox)
	assert.Equal(t, int64(1), body.Data.Outbox.Dead)
	assert.Empty(t, body.Warning)
}

func TestStats_CMSDownIsAWarning(t *testing.T) {
	h := NewHandler(stubEvents{err: errors.New("timeout")}, stubCounts{}, nil, nil)
	w := get(h)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Event stats are unavailable")
	assert.NotContains(t, w.Body.String(), "outbox")
}

func TestStats_CountsFailure(t *testing.T) {
	h := NewHandler(stubEvents{}, stubCounts{err: errors.New("db down")}, nil, nil)
	assert.Equal(t, http.StatusInternalServerError, get(h).Code)
}
