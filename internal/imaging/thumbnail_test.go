package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngOf(t *testing.T, w, h int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestThumbnailLandscape(t *testing.T) {
	img, ct, err := Decode(pngOf(t, 1280, 640))
	require.NoError(t, err)
	assert.Equal(t, "image/png", ct)
	assert.Equal(t, "png", Extension(ct))

	data, err := Thumbnail(img)
	require.NoError(t, err)
	out, err := jpeg.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 320, out.Bounds().Dx())
	assert.Equal(t, 160, out.Bounds().Dy())
}

func TestThumbnailSmallImageKept(t *testing.T) {
	img, _, err := Decode(pngOf(t, 100, 50))
	require.NoError(t, err)
	data, err := Thumbnail(img)
	require.NoError(t, err)
	out, err := jpeg.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 100, out.Bounds().Dx())
}

func TestDecodeRejectsOtherFormats(t *testing.T) {
	_, _, err := Decode([]byte("GIF89a not really"))
	assert.ErrorIs(t, err, ErrUnsupported)
}
