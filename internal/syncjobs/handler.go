package syncjobs

import (
	"context"
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/firstindallas/backend/internal/cms"
	"github.com/firstindallas/backend/internal/models"
	"github.com/firstindallas/backend/pkg/response"
)

// Runner is what the handler needs from the sync service.
type Runner interface {
	Trigger(ctx context.Context, provider string) (*Started, error)
	Extract(ctx context.Context, urls []string) (*Started, error)
	Active(ctx context.Context) ([]TaskView, error)
	Status(ctx context.Context) (map[string][]models.SyncTask, error)
	ListTasks(ctx context.Context, status string, limit, offset int) ([]models.SyncTask, error)
	Task(ctx context.Context, id int64) (*TaskView, error)
}

// Handler serves the admin sync and task endpoints.
type Handler struct {
	runner Runner
	logger *zap.Logger
}

// NewHandler creates a sync handler.
func NewHandler(runner Runner, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{runner: runner, logger: logger}
}

// ExtractRequest is the body for POST /admin/tasks/extract.
type ExtractRequest struct {
	URLs []string `json:"urls"`
}

func (h *Handler) fail(c *gin.Context, err error, msg string) {
	var invalid InvalidURLs
	var apiErr *cms.APIError
	switch {
	case errors.As(err, &invalid):
		response.Invalid(c, invalid)
	case errors.Is(err, ErrUnknownProvider):
		response.NotFound(c, err.Error())
	case errors.Is(err, ErrNoFacebookURLs), errors.Is(err, ErrInvalidStatus):
		response.BadRequest(c, err.Error())
	case errors.As(err, &apiErr):
		response.Upstream(c, apiErr.Status, apiErr.Detail)
	default:
		h.logger.Error(msg, zap.Error(err))
		response.Upstream(c, 0, msg)
	}
}

// Providers handles GET /admin/sync/providers.
func (h *Handler) Providers(c *gin.Context) {
	response.OK(c, Providers())
}

// Trigger handles POST /admin/sync/:provider.
func (h *Handler) Trigger(c *gin.Context) {
	started, err := h.runner.Trigger(c.Request.Context(), c.Param("provider"))
	if err != nil {
		h.fail(c, err, "Failed to start sync")
		return
	}
	response.Accepted(c, started)
}

// Status handles GET /admin/sync/status.
func (h *Handler) Status(c *gin.Context) {
	status, err := h.runner.Status(c.Request.Context())
	if err != nil {
		h.fail(c, err, "Unable to load sync status")
		return
	}
	response.OK(c, status)
}

// Active handles GET /admin/sync/active.
func (h *Handler) Active(c *gin.Context) {
	list, err := h.runner.Active(c.Request.Context())
	if err != nil {
		h.fail(c, err, "Unable to load active tasks")
		return
	}
	response.OK(c, list)
}

// Extract handles POST /admin/tasks/extract.
func (h *Handler) Extract(c *gin.Context) {
	var req ExtractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	started, err := h.runner.Extract(c.Request.Context(), req.URLs)
	if err != nil {
		h.fail(c, err, "Failed to start extraction")
		return
	}
	response.Accepted(c, started)
}

// ListTasks handles GET /admin/tasks?status=&limit=&offset=.
func (h *Handler) ListTasks(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	list, err := h.runner.ListTasks(c.Request.Context(), c.Query("status"), limit, offset)
	if err != nil {
		h.fail(c, err, "Unable to load tasks")
		return
	}
	if list == nil {
		list = []models.SyncTask{}
	}
	response.OK(c, list)
}

// GetTask handles GET /admin/tasks/:id.
func (h *Handler) GetTask(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.NotFound(c, "task not found")
		return
	}
	task, err := h.runner.Task(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err, "Unable to load task")
		return
	}
	response.OK(c, task)
}
