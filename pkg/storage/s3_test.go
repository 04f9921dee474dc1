package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestImageKey(t *testing.T) {
	at := time.UnixMilli(1717282800123)
	assert.Equal(t, "event-images/u-1-1717282800123.png", ImageKey("u-1", at, ".png"))
}

func TestPublicURL(t *testing.T) {
	cfg := S3Config{Region: "us-east-1", ImagesBucket: "fid-images"}
	assert.Equal(t, "https://fid-images.s3.us-east-1.amazonaws.com/event-images/a.jpg", PublicURL(cfg, "event-images/a.jpg"))

	cfg.PublicBaseURL = "https://cdn.firstindallas.com/"
	assert.Equal(t, "https://cdn.firstindallas.com/event-images/a.jpg", PublicURL(cfg, "event-images/a.jpg"))
}
