// Package dashboard serves the admin stats roll-up.
package dashboard

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/firstindallas/backend/internal/cms"
	"github.com/firstindallas/backend/internal/models"
	"github.com/firstindallas/backend/pkg/response"
)

// EventStats is the CMS stats endpoint.
type EventStats interface {
	Stats(ctx context.Context) (cms.Result, error)
}

// SubmissionCounter returns local submission totals.
type SubmissionCounter interface {
	Counts(ctx context.Context) (models.SubmissionStatusCounts, error)
}

// OutboxDepth reports the mirror queue backlog.
type OutboxDepth interface {
	Depth(ctx context.Context) (waiting, dead int64, err error)
}

// Outbox is the mirror queue backlog.
type Outbox struct {
	Waiting int64 `json:"waiting"`
	Dead    int64 `json:"dead"`
}

// Stats is the GET /admin/stats body.
type Stats struct {
	Events      cms.Result                    `json:"events"`
	Submissions models.SubmissionStatusCounts `json:"submissions"`
	Outbox      *Outbox                       `json:"outbox,omitempty"`
}

// Handler handles dashboard endpoints.
type Handler struct {
	events      EventStats
	submissions SubmissionCounter
	outbox      OutboxDepth
	logger      *zap.Logger
}

// NewHandler creates a dashboard handler. outbox may be nil.
func NewHandler(events EventStats, submissions SubmissionCounter, outbox OutboxDepth, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{events: events, submissions: submissions, outbox: outbox, logger: logger}
}

// Stats handles GET /admin/stats. Local counts are required; CMS and queue
// figures degrade to a warning.
func (h *Handler) Stats(c *gin.Context) {
	ctx := c.Request.Context()
	counts, err := h.submissions.Counts(ctx)
	if err != nil {
		h.logger.Error("submission counts", zap.Error(err))
		response.Internal(c, "Unable to load stats")
		return
	}
	out := Stats{Submissions: counts, Events: cms.Result{}}

	var warning string
	if ev, err := h.events.Stats(ctx); err != nil {
		h.logger.Warn("cms stats", zap.Error(err))
		warning = "Event stats are unavailable"
	} else if ev != nil {
		out.Events = ev
	}
	if h.outbox != nil {
		if waiting, dead, err := h.outbox.Depth(ctx); err != nil {
			h.logger.Warn("outbox depth", zap.Error(err))
		} else {
			out.Outbox = &Outbox{Waiting: waiting, Dead: dead}
		}
	}

	if warning != "" {
		response.OKWithWarning(c, out, warning)
		return
	}
	response.OK(c, out)
}
