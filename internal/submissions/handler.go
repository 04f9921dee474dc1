package submissions

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/firstindallas/backend/internal/cms"
	"github.com/firstindallas/backend/internal/middleware"
	"github.com/firstindallas/backend/pkg/response"
)

// Handler handles submission HTTP endpoints for organizers and admins.
type Handler struct {
	svc    *Service
	logger *zap.Logger
}

// NewHandler creates a submissions handler.
func NewHandler(svc *Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, logger: logger}
}

// ApproveRequest is the body for POST /admin/submissions/:id/approve.
type ApproveRequest struct {
	Confirm bool `json:"confirm"`
}

// RejectRequest is the body for POST /admin/submissions/:id/reject.
type RejectRequest struct {
	Reason string `json:"reason"`
}

func paging(c *gin.Context, def, max int) (int, int) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(def)))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit <= 0 || limit > max {
		limit = def
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func (h *Handler) fail(c *gin.Context, err error, msg string) {
	var verrs ValidationErrors
	var apiErr *cms.APIError
	switch {
	case errors.As(err, &verrs):
		response.Invalid(c, verrs)
	case errors.Is(err, ErrNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, ErrForbidden):
		response.Forbidden(c, err.Error())
	case errors.Is(err, ErrConfirmationRequired):
		response.ConfirmationRequired(c)
	case errors.Is(err, ErrReasonRequired), errors.Is(err, ErrInvalidStatus):
		response.BadRequest(c, err.Error())
	case errors.Is(err, ErrInvalidTransition), errors.Is(err, ErrBusy):
		response.Conflict(c, err.Error())
	case errors.As(err, &apiErr):
		response.Upstream(c, apiErr.Status, apiErr.Detail)
	default:
		h.logger.Error(msg, zap.Error(err))
		response.Internal(c, msg)
	}
}

// ValidateStep handles POST /api/submissions/validate/:step.
func (h *Handler) ValidateStep(c *gin.Context) {
	step, err := strconv.Atoi(c.Param("step"))
	if err != nil || step < StepBasics || step > StepTier {
		response.BadRequest(c, "step must be 1, 2 or 3")
		return
	}
	var in Input
	if err := c.ShouldBindJSON(&in); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if err := h.svc.ValidateStep(&in, step); err != nil {
		h.fail(c, err, "failed to validate step")
		return
	}
	response.OK(c, gin.H{"valid": true, "step": step})
}

// Create handles POST /api/submissions.
func (h *Handler) Create(c *gin.Context) {
	sess, _ := middleware.GetSession(c)
	var in Input
	if err := c.ShouldBindJSON(&in); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	v, err := h.svc.Create(c.Request.Context(), sess, &in)
	if err != nil {
		h.fail(c, err, "Failed to submit event")
		return
	}
	response.Created(c, v)
}

// ListMine handles GET /api/submissions.
func (h *Handler) ListMine(c *gin.Context) {
	sess, _ := middleware.GetSession(c)
	limit, offset := paging(c, 50, 200)
	list, err := h.svc.ListMine(c.Request.Context(), sess, limit, offset)
	if err != nil {
		h.fail(c, err, "failed to load submissions")
		return
	}
	response.OK(c, list)
}

// GetMine handles GET /api/submissions/:id.
func (h *Handler) GetMine(c *gin.Context) {
	sess, _ := middleware.GetSession(c)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.NotFound(c, ErrNotFound.Error())
		return
	}
	v, err := h.svc.GetMine(c.Request.Context(), sess, id)
	if err != nil {
		h.fail(c, err, "failed to load submission")
		return
	}
	response.OK(c, v)
}

// AdminList handles GET /admin/submissions?status=.
func (h *Handler) AdminList(c *gin.Context) {
	sess, _ := middleware.GetSession(c)
	status, err := ParseStatusFilter(c.Query("status"))
	if err != nil {
		h.fail(c, err, "failed to load submissions")
		return
	}
	limit, offset := paging(c, 100, 500)
	list, err := h.svc.ListForReview(c.Request.Context(), sess, status, limit, offset)
	if err != nil {
		h.fail(c, err, "failed to load submissions")
		return
	}
	response.OK(c, list)
}

// PendingCount handles GET /admin/submissions/pending-count.
func (h *Handler) PendingCount(c *gin.Context) {
	counts, err := h.svc.Counts(c.Request.Context())
	if err != nil {
		h.fail(c, err, "failed to count submissions")
		return
	}
	response.OK(c, gin.H{"pending_count": counts.Pending})
}

// Approve handles POST /admin/submissions/:id/approve.
func (h *Handler) Approve(c *gin.Context) {
	sess, _ := middleware.GetSession(c)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.NotFound(c, ErrNotFound.Error())
		return
	}
	var body ApproveRequest
	_ = c.ShouldBindJSON(&body)
	sub, err := h.svc.Approve(c.Request.Context(), sess, id, middleware.Confirmed(c, body.Confirm))
	if err != nil {
		h.fail(c, err, "failed to approve submission")
		return
	}
	response.OK(c, sub)
}

// Reject handles POST /admin/submissions/:id/reject.
func (h *Handler) Reject(c *gin.Context) {
	sess, _ := middleware.GetSession(c)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.NotFound(c, ErrNotFound.Error())
		return
	}
	var body RejectRequest
	_ = c.ShouldBindJSON(&body)
	sub, err := h.svc.Reject(c.Request.Context(), sess, id, body.Reason)
	if err != nil {
		h.fail(c, err, "failed to reject submission")
		return
	}
	response.OK(c, sub)
}
