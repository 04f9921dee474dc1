// Package events serves the admin "Manage Events" API on top of the CMS.
package events

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/firstindallas/backend/internal/cms"
	"github.com/firstindallas/backend/internal/middleware"
	"github.com/firstindallas/backend/internal/models"
	"github.com/firstindallas/backend/pkg/response"
)

// CleanupDaysOld is how old a past event must be before cleanup removes it.
const CleanupDaysOld = 7

// CMS is the part of the CMS client the handler uses.
type CMS interface {
	ListEvents(ctx context.Context, q cms.EventQuery) ([]models.Event, error)
	SetEventStatus(ctx context.Context, id int64, status models.EventStatus) (*models.Event, error)
	DeleteEvent(ctx context.Context, id int64) (cms.Result, error)
	PublishToWordPress(ctx context.Context, id int64) (cms.Result, error)
	BulkPublish(ctx context.Context, ids []int64) (cms.Result, error)
	BulkDelete(ctx context.Context, ids []int64) (cms.Result, error)
	CleanupPastEvents(ctx context.Context, daysOld int) (cms.Result, error)
	Cities(ctx context.Context) ([]string, error)
	Categories(ctx context.Context) ([]string, error)
}

// WordPressMarker flags the submission behind a live event once it is on WordPress.
type WordPressMarker interface {
	MarkPublishedToWordPress(ctx context.Context, cmsEventID int64) (bool, error)
}

// Invalidator drops cached directory listings.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// Handler handles admin event management.
type Handler struct {
	cms       CMS
	marker    WordPressMarker
	directory Invalidator
	logger    *zap.Logger
}

// NewHandler creates an events handler. marker and directory may be nil.
func NewHandler(client CMS, marker WordPressMarker, directory Invalidator, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{cms: client, marker: marker, directory: directory, logger: logger}
}

// StatusRequest is the body for PATCH /admin/events/:id/status.
type StatusRequest struct {
	Status models.EventStatus `json:"status" binding:"required"`
}

// BulkRequest is the body for the bulk endpoints.
type BulkRequest struct {
	EventIDs []int64 `json:"event_ids"`
	Confirm  bool    `json:"confirm"`
}

// ConfirmRequest is the optional body of single destructive actions.
type ConfirmRequest struct {
	Confirm bool `json:"confirm"`
}

func (h *Handler) upstream(c *gin.Context, err error, msg string) {
	var apiErr *cms.APIError
	if errors.As(err, &apiErr) {
		response.Upstream(c, apiErr.Status, apiErr.Detail)
		return
	}
	h.logger.Error(msg, zap.Error(err))
	response.Upstream(c, 0, msg)
}

func (h *Handler) invalidate(c *gin.Context) {
	if h.directory == nil {
		return
	}
	if err := h.directory.Invalidate(c.Request.Context()); err != nil {
		h.logger.Warn("directory cache invalidate failed", zap.Error(err))
	}
}

func eventID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.NotFound(c, "event not found")
		return 0, false
	}
	return id, true
}

// List handles GET /admin/events with status, city, category, price_tier, search,
// include_past, limit and offset passed through to the CMS.
func (h *Handler) List(c *gin.Context) {
	q := cms.EventQuery{
		Status:    strings.ToUpper(c.Query("status")),
		City:      c.Query("city"),
		Category:  c.Query("category"),
		PriceTier: strings.ToUpper(c.Query("price_tier")),
		Search:    strings.TrimSpace(c.Query("search")),
	}
	q.IncludePast, _ = strconv.ParseBool(c.DefaultQuery("include_past", "true"))
	q.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "100"))
	q.Offset, _ = strconv.Atoi(c.Query("offset"))
	list, err := h.cms.ListEvents(c.Request.Context(), q)
	if err != nil {
		h.upstream(c, err, "Unable to load events")
		return
	}
	if list == nil {
		list = []models.Event{}
	}
	response.OK(c, list)
}

// Cities handles GET /admin/events/cities.
func (h *Handler) Cities(c *gin.Context) {
	list, err := h.cms.Cities(c.Request.Context())
	if err != nil {
		h.upstream(c, err, "Unable to load cities")
		return
	}
	response.OK(c, list)
}

// Categories handles GET /admin/events/categories.
func (h *Handler) Categories(c *gin.Context) {
	list, err := h.cms.Categories(c.Request.Context())
	if err != nil {
		h.upstream(c, err, "Unable to load categories")
		return
	}
	response.OK(c, list)
}

// Delete handles DELETE /admin/events/:id. Requires confirmation.
func (h *Handler) Delete(c *gin.Context) {
	id, ok := eventID(c)
	if !ok {
		return
	}
	var body ConfirmRequest
	_ = c.ShouldBindJSON(&body)
	if !middleware.Confirmed(c, body.Confirm) {
		response.ConfirmationRequired(c)
		return
	}
	res, err := h.cms.DeleteEvent(c.Request.Context(), id)
	if err != nil {
		h.upstream(c, err, "Failed to delete event")
		return
	}
	h.logger.Info("event deleted", zap.Int64("event_id", id))
	h.invalidate(c)
	response.OK(c, res)
}

// SetStatus handles PATCH /admin/events/:id/status (DRAFT or PUBLISHED).
func (h *Handler) SetStatus(c *gin.Context) {
	id, ok := eventID(c)
	if !ok {
		return
	}
	var body StatusRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "status is required")
		return
	}
	body.Status = models.EventStatus(strings.ToUpper(string(body.Status)))
	if body.Status != models.EventDraft && body.Status != models.EventPublished {
		response.Invalid(c, map[string]string{"status": "status must be DRAFT or PUBLISHED"})
		return
	}
	ev, err := h.cms.SetEventStatus(c.Request.Context(), id, body.Status)
	if err != nil {
		h.upstream(c, err, "Failed to update event")
		return
	}
	h.invalidate(c)
	response.OK(c, ev)
}

// PublishToWordPress handles POST /admin/events/:id/wordpress.
func (h *Handler) PublishToWordPress(c *gin.Context) {
	id, ok := eventID(c)
	if !ok {
		return
	}
	res, err := h.cms.PublishToWordPress(c.Request.Context(), id)
	if err != nil {
		h.upstream(c, err, "Failed to publish event")
		return
	}
	if h.marker != nil {
		if _, err := h.marker.MarkPublishedToWordPress(c.Request.Context(), id); err != nil {
			h.logger.Warn("mark submission published to wordpress failed", zap.Int64("event_id", id), zap.Error(err))
		}
	}
	response.OK(c, res)
}

func (h *Handler) bulk(c *gin.Context, action string, run func(context.Context, []int64) (cms.Result, error)) {
	var body BulkRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if len(body.EventIDs) == 0 {
		response.BadRequest(c, "Please select at least one event")
		return
	}
	if !middleware.Confirmed(c, body.Confirm) {
		response.ConfirmationRequired(c)
		return
	}
	res, err := run(c.Request.Context(), body.EventIDs)
	if err != nil {
		h.upstream(c, err, "Failed to bulk "+action+" events")
		return
	}
	h.logger.Info("bulk "+action, zap.Int("requested", len(body.EventIDs)), zap.String("message", res.Message()))
	h.invalidate(c)
	response.OK(c, res)
}

// BulkPublish handles POST /admin/events/bulk/publish. Requires confirmation.
func (h *Handler) BulkPublish(c *gin.Context) {
	h.bulk(c, "publish", h.cms.BulkPublish)
}

// BulkDelete handles POST /admin/events/bulk/delete. Requires confirmation.
func (h *Handler) BulkDelete(c *gin.Context) {
	h.bulk(c, "delete", h.cms.BulkDelete)
}

// Cleanup handles POST /admin/events/cleanup: removes events that ended more than
// CleanupDaysOld days ago. Requires confirmation.
func (h *Handler) Cleanup(c *gin.Context) {
	var body ConfirmRequest
	_ = c.ShouldBindJSON(&body)
	if !middleware.Confirmed(c, body.Confirm) {
		response.ConfirmationRequired(c)
		return
	}
	res, err := h.cms.CleanupPastEvents(c.Request.Context(), CleanupDaysOld)
	if err != nil {
		h.upstream(c, err, "Failed to cleanup past events")
		return
	}
	h.logger.Info("past events cleaned up", zap.Any("result", res))
	h.invalidate(c)
	response.OK(c, res)
}
