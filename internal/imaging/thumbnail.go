package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"net/http"

	"github.com/nfnt/resize"
)

// MaxThumbnail is the longest edge of a generated thumbnail, in pixels.
const MaxThumbnail = 320

var ErrUnsupported = errors.New("unsupported image format, only PNG and JPEG are allowed")

// Decode sniffs the content type and decodes PNG or JPEG data.
func Decode(data []byte) (image.Image, string, error) {
	contentType := http.DetectContentType(data)
	var (
		img image.Image
		err error
	)
	switch contentType {
	case "image/png":
		img, err = png.Decode(bytes.NewReader(data))
	case "image/jpeg":
		img, err = jpeg.Decode(bytes.NewReader(data))
	default:
		return nil, contentType, ErrUnsupported
	}
	if err != nil {
		return nil, contentType, fmt.Errorf("decode image: %w", err)
	}
	return img, contentType, nil
}

// Thumbnail scales img so neither edge exceeds MaxThumbnail, preserving the
// aspect ratio, and encodes it as JPEG. Smaller images are not enlarged.
func Thumbnail(img image.Image) ([]byte, error) {
	thumb := resize.Thumbnail(MaxThumbnail, MaxThumbnail, img, resize.Lanczos3)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, thumb, &jpeg.Options{Quality: 80}); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}

// Extension maps a detected content type to a file extension.
func Extension(contentType string) string {
	if contentType == "image/png" {
		return "png"
	}
	return "jpg"
}
