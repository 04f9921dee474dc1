package directory

import (
	"bytes"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/firstindallas/backend/pkg/response"
)

const (
	widgetDefaultLimit = 5
	widgetMaxLimit     = 10
)

// Handler serves the public directory surfaces.
type Handler struct {
	svc         *Service
	render      *Renderer
	calendarURL string
	submitURL   string
	logger      *zap.Logger
}

// NewHandler creates a directory handler.
func NewHandler(svc *Service, render *Renderer, calendarURL, submitURL string, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, render: render, calendarURL: calendarURL, submitURL: submitURL, logger: logger}
}

// PageResponse is the JSON shape of a directory page.
type PageResponse struct {
	Page
	Query string `json:"query"`
}

// List handles GET /api/public/events and GET /api/directory.
// Filters and page come from the query string; the canonical query is echoed
// back so clients can put it in the address bar.
func (h *Handler) List(c *gin.Context) {
	f, page := ParseQuery(c.Request.URL.Query(), h.svc.Location())
	p, err := h.svc.Query(c.Request.Context(), f, page, DefaultWindowThreshold)
	if err != nil {
		h.logger.Error("directory query failed", zap.Error(err))
		response.ServiceUnavailable(c, loadError)
		return
	}
	response.OK(c, PageResponse{Page: p, Query: f.Values(p.Page, "page").Encode()})
}

// Cities handles GET /api/directory/cities.
func (h *Handler) Cities(c *gin.Context) {
	cities, err := h.svc.Cities(c.Request.Context())
	if err != nil {
		h.logger.Error("directory cities failed", zap.Error(err))
		response.ServiceUnavailable(c, loadError)
		return
	}
	response.OK(c, cities)
}

// Render handles GET /directory, the server-rendered listing. Embedding
// attributes (limit, city, category, status, source_type, show_filters) set
// defaults; the visitor's search, city, date, range, price_tier and page_num
// parameters override them.
func (h *Handler) Render(c *gin.Context) {
	q := c.Request.URL.Query()
	f, page := ParseQuery(q, h.svc.Location())
	showFilters := !strings.EqualFold(q.Get("show_filters"), "no") && q.Get("show_filters") != "false"
	limit, _ := strconv.Atoi(q.Get("limit"))
	basePath := c.Request.URL.Path

	events, err := h.svc.Events(c.Request.Context(), f)
	if err != nil {
		h.logger.Error("directory page failed", zap.Error(err))
		h.writeHTML(c, http.StatusOK, func(buf *bytes.Buffer) error {
			return RenderDirectory(buf, h.render.DirectoryError(basePath, f, showFilters))
		})
		return
	}
	matched := f.Apply(events, h.svc.Now())
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	p := Paginate(matched, page, h.svc.PageSize(), PluginWindowThreshold)

	var cities []string
	if showFilters {
		cities, err = h.svc.Cities(c.Request.Context())
		if err != nil {
			h.logger.Warn("directory cities failed", zap.Error(err))
		}
	}
	view := h.render.Directory(basePath, f, p, cities, showFilters)
	h.writeHTML(c, http.StatusOK, func(buf *bytes.Buffer) error { return RenderDirectory(buf, view) })
}

// Widget handles GET /widgets/upcoming. Query: title, limit (1-10, default 5),
// calendar_url, submit_url.
func (h *Handler) Widget(c *gin.Context) {
	limit := widgetDefaultLimit
	if n, err := strconv.Atoi(c.Query("limit")); err == nil && n > 0 {
		limit = n
	}
	if limit > widgetMaxLimit {
		limit = widgetMaxLimit
	}
	events, err := h.svc.Upcoming(c.Request.Context(), limit)
	if err != nil {
		h.logger.Warn("upcoming widget failed", zap.Error(err))
		events = nil
	}
	calendarURL := c.DefaultQuery("calendar_url", h.calendarURL)
	submitURL := c.DefaultQuery("submit_url", h.submitURL)
	view := h.render.Widget(c.Query("title"), events, calendarURL, submitURL)
	h.writeHTML(c, http.StatusOK, func(buf *bytes.Buffer) error { return RenderWidget(buf, view) })
}

func (h *Handler) writeHTML(c *gin.Context, status int, fn func(*bytes.Buffer) error) {
	var buf bytes.Buffer
	if err := fn(&buf); err != nil {
		h.logger.Error("render failed", zap.Error(err))
		c.String(http.StatusInternalServerError, "render failed")
		return
	}
	c.Data(status, "text/html; charset=utf-8", buf.Bytes())
}
