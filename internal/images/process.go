package images

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"net/http"

	"github.com/disintegration/imaging"

	"github.com/firstindallas/backend/pkg/storage"
)

var (
	ErrNotImage      = errors.New("not an image")
	ErrTooLarge      = errors.New("image too large")
	ErrTooManyPixels = errors.New("image dimensions too large")
)

// MaxPixels caps width*height before an upload is decoded.
const MaxPixels = 40_000_000

var exifHeader = []byte("Exif\x00\x00")

// Processed is an upload ready to be stored.
type Processed struct {
	Data        []byte
	ContentType string
	Ext         string
	Width       int
	Height      int
}

// Process checks that data is an image no larger than maxBytes and MaxPixels,
// then downscales it to maxWidth. JPEGs carrying EXIF are always re-encoded so
// the orientation is applied and the metadata dropped. WebP is stored
// unchanged since it cannot be re-encoded here.
func Process(data []byte, maxBytes int64, maxWidth int) (*Processed, error) {
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return nil, ErrTooLarge
	}
	ct := http.DetectContentType(data)
	ext, ok := storage.ImageExtensions[ct]
	if !ok {
		return nil, ErrNotImage
	}
	if ct == "image/webp" {
		return &Processed{Data: data, ContentType: ct, Ext: ext}, nil
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotImage, err)
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return nil, ErrTooManyPixels
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotImage, err)
	}
	b := img.Bounds()
	fits := maxWidth <= 0 || b.Dx() <= maxWidth
	if fits && !(ct == "image/jpeg" && hasEXIF(data)) {
		return &Processed{Data: data, ContentType: ct, Ext: ext, Width: b.Dx(), Height: b.Dy()}, nil
	}

	resized := img
	if !fits {
		resized = imaging.Resize(img, maxWidth, 0, imaging.Lanczos)
	}
	out, err := encode(resized, ct)
	if err != nil {
		return nil, err
	}
	rb := resized.Bounds()
	return &Processed{Data: out, ContentType: ct, Ext: ext, Width: rb.Dx(), Height: rb.Dy()}, nil
}

// hasEXIF reports whether a JPEG carries an APP1 EXIF segment.
func hasEXIF(data []byte) bool {
	for i := 2; i+10 <= len(data) && data[i] == 0xFF; {
		marker := data[i+1]
		if marker == 0xDA || marker == 0xD9 {
			return false
		}
		n := int(data[i+2])<<8 | int(data[i+3])
		if marker == 0xE1 && bytes.HasPrefix(data[i+4:], exifHeader) {
			return true
		}
		i += 2 + n
	}
	return false
}

func encode(img image.Image, contentType string) ([]byte, error) {
	format := imaging.JPEG
	switch contentType {
	case "image/png":
		format = imaging.PNG
	case "image/gif":
		format = imaging.GIF
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, format, imaging.JPEGQuality(85)); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}
	return buf.Bytes(), nil
}
