package images

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/firstindallas/backend/internal/auth"
	"github.com/firstindallas/backend/internal/middleware"
	"github.com/firstindallas/backend/pkg/response"
	"github.com/firstindallas/backend/pkg/storage"
)

const (
	msgNotImage     = "Please upload an image file"
	msgUploadFailed = "Failed to upload image. You can continue without an image."

	msgTooManyPixels = "Image dimensions are too large"
)

// Uploader stores processed images.
type Uploader interface {
	UploadImage(ctx context.Context, key, contentType string, body io.Reader, contentLength int64) (string, error)
}

// Attacher sets image_url on a submission the caller owns.
type Attacher interface {
	AttachImage(ctx context.Context, sess auth.Session, id uuid.UUID, imageURL string) error
}

// UploadResult is returned after a successful upload.
type UploadResult struct {
	ImageURL     string     `json:"image_url"`
	Width        int        `json:"width,omitempty"`
	Height       int        `json:"height,omitempty"`
	SubmissionID *uuid.UUID `json:"submission_id,omitempty"`
}

// Handler handles organizer image uploads.
type Handler struct {
	uploader Uploader
	attacher Attacher
	maxBytes int64
	maxWidth int
	now      func() time.Time
	logger   *zap.Logger
}

// NewHandler creates an image upload handler. uploader may be nil when storage is not configured.
func NewHandler(uploader Uploader, attacher Attacher, maxBytes int64, maxWidth int, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{uploader: uploader, attacher: attacher, maxBytes: maxBytes, maxWidth: maxWidth, now: time.Now, logger: logger}
}

func (h *Handler) tooLargeMessage() string {
	return fmt.Sprintf("Image must be less than %dMB", h.maxBytes/(1024*1024))
}

// Upload handles POST /api/uploads/images (multipart "file", optional "submission_id").
// Rejections are field-level; a storage failure is reported as a warning so the
// organizer can continue without an image.
func (h *Handler) Upload(c *gin.Context) {
	sess, _ := middleware.GetSession(c)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes+1<<20)

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			response.TooLarge(c, h.tooLargeMessage())
			return
		}
		response.Invalid(c, map[string]string{"image": msgNotImage})
		return
	}
	defer file.Close()
	if header.Size > h.maxBytes {
		response.TooLarge(c, h.tooLargeMessage())
		return
	}
	data, err := io.ReadAll(io.LimitReader(file, h.maxBytes+1))
	if err != nil {
		response.OKWithWarning(c, UploadResult{}, msgUploadFailed)
		return
	}

	p, err := Process(data, h.maxBytes, h.maxWidth)
	switch {
	case errors.Is(err, ErrTooLarge):
		response.TooLarge(c, h.tooLargeMessage())
		return
	case errors.Is(err, ErrTooManyPixels):
		response.TooLarge(c, msgTooManyPixels)
		return
	case errors.Is(err, ErrNotImage):
		response.Invalid(c, map[string]string{"image": msgNotImage})
		return
	case err != nil:
		h.logger.Warn("image processing failed", zap.String("user_id", sess.UserID.String()), zap.Error(err))
		response.OKWithWarning(c, UploadResult{}, msgUploadFailed)
		return
	}

	if h.uploader == nil {
		h.logger.Warn("image storage is not configured")
		response.OKWithWarning(c, UploadResult{}, msgUploadFailed)
		return
	}
	key := storage.ImageKey(sess.UserID.String(), h.now(), p.Ext)
	url, err := h.uploader.UploadImage(c.Request.Context(), key, p.ContentType, bytes.NewReader(p.Data), int64(len(p.Data)))
	if err != nil {
		h.logger.Warn("image upload failed", zap.String("user_id", sess.UserID.String()), zap.String("key", key), zap.Error(err))
		response.OKWithWarning(c, UploadResult{}, msgUploadFailed)
		return
	}
	result := UploadResult{ImageURL: url, Width: p.Width, Height: p.Height}

	if raw := c.PostForm("submission_id"); raw != "" && h.attacher != nil {
		id, err := uuid.Parse(raw)
		if err == nil {
			err = h.attacher.AttachImage(c.Request.Context(), sess, id, url)
		}
		if err != nil {
			h.logger.Warn("attach image failed", zap.String("submission_id", raw), zap.Error(err))
			response.OKWithWarning(c, result, "Image uploaded but could not be added to the submission.")
			return
		}
		result.SubmissionID = &id
	}
	response.Created(c, result)
}
