package organizers

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/firstindallas/backend/internal/middleware"
	"github.com/firstindallas/backend/internal/models"
	"github.com/firstindallas/backend/pkg/response"
)

// Store is the organizer persistence the handler needs.
type Store interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Organizer, error)
	Update(ctx context.Context, id uuid.UUID, p UpdateProfileRequest) (*models.Organizer, error)
	ListWithCounts(ctx context.Context, limit, offset int) ([]models.OrganizerSummary, error)
}

// UpdateProfileRequest is the body for PATCH /api/organizer/profile. Omitted fields are unchanged.
type UpdateProfileRequest struct {
	FullName         *string `json:"full_name"`
	OrganizationName *string `json:"organization_name"`
	Phone            *string `json:"phone"`
}

func (p *UpdateProfileRequest) normalize() map[string]string {
	fields := map[string]string{}
	for name, v := range map[string]*string{"full_name": p.FullName, "organization_name": p.OrganizationName, "phone": p.Phone} {
		if v == nil {
			continue
		}
		*v = strings.TrimSpace(*v)
		if len(*v) > 255 {
			fields[name] = "must be at most 255 characters"
		}
	}
	if p.FullName != nil && *p.FullName == "" {
		fields["full_name"] = "must not be empty"
	}
	return fields
}

// Handler handles organizer profile endpoints and the admin roll-up.
type Handler struct {
	store  Store
	logger *zap.Logger
}

// NewHandler creates an organizers handler.
func NewHandler(store Store, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{store: store, logger: logger}
}

// GetProfile handles GET /api/organizer/profile.
func (h *Handler) GetProfile(c *gin.Context) {
	sess, _ := middleware.GetSession(c)
	o, err := h.store.Get(c.Request.Context(), sess.UserID)
	if errors.Is(err, ErrNotFound) {
		response.NotFound(c, err.Error())
		return
	}
	if err != nil {
		h.logger.Error("load organizer failed", zap.String("user_id", sess.UserID.String()), zap.Error(err))
		response.Internal(c, "failed to load profile")
		return
	}
	response.OK(c, o)
}

// UpdateProfile handles PATCH /api/organizer/profile.
func (h *Handler) UpdateProfile(c *gin.Context) {
	sess, _ := middleware.GetSession(c)
	var body UpdateProfileRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if fields := body.normalize(); len(fields) > 0 {
		response.Invalid(c, fields)
		return
	}
	o, err := h.store.Update(c.Request.Context(), sess.UserID, body)
	if errors.Is(err, ErrNotFound) {
		response.NotFound(c, err.Error())
		return
	}
	if err != nil {
		h.logger.Error("update organizer failed", zap.String("user_id", sess.UserID.String()), zap.Error(err))
		response.Internal(c, "failed to update profile")
		return
	}
	response.OK(c, o)
}

// AdminList handles GET /admin/organizers?limit=&offset=.
func (h *Handler) AdminList(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	list, err := h.store.ListWithCounts(c.Request.Context(), limit, offset)
	if err != nil {
		h.logger.Error("list organizers failed", zap.Error(err))
		response.Internal(c, "failed to list organizers")
		return
	}
	if list == nil {
		list = []models.OrganizerSummary{}
	}
	response.OK(c, list)
}
