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

func solidImage(w, h int, c color.Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func encode(t *testing.T, img image.Image, enc func(*bytes.Buffer, image.Image) error) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, enc(&buf, img))
	return buf.Bytes()
}

func asPNG(t *testing.T, img image.Image) []byte {
	return encode(t, img, func(b *bytes.Buffer, i image.Image) error { return png.Encode(b, i) })
}

func TestNormalizeIsDeterministic(t *testing.T) {
	codec := NewCodec()
	img := solidImage(10, 10, color.NRGBA{R: 120, G: 30, B: 200, A: 255})

	a, err := codec.Normalize(asPNG(t, img))
	require.NoError(t, err)
	b, err := codec.Normalize(asPNG(t, img))
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Equal(t, codec.Digest(a), codec.Digest(b))
}

func TestNormalizeCanonicalizesAcrossEncodings(t *testing.T) {
	codec := NewCodec()
	img := solidImage(10, 10, color.NRGBA{R: 128, G: 128, B: 128, A: 255})

	fromPNG, err := codec.Normalize(asPNG(t, img))
	require.NoError(t, err)

	// Lossless-quality JPEG of a solid gray decodes to the same pixels
	jpegBytes := encode(t, img, func(b *bytes.Buffer, i image.Image) error {
		return jpeg.Encode(b, i, &jpeg.Options{Quality: 100})
	})
	fromJPEG, err := codec.Normalize(jpegBytes)
	require.NoError(t, err)

	assert.Equal(t, codec.Digest(fromPNG), codec.Digest(fromJPEG))
}

func TestNormalizeRejectsGarbage(t *testing.T) {
	codec := NewCodec()
	_, err := codec.Normalize([]byte("not an image at all"))
	assert.Error(t, err)
}

func TestThumbnailFitsWithinCanvas(t *testing.T) {
	codec := NewCodec()

	tests := []struct {
		name       string
		srcW, srcH int
	}{
		{name: "wide", srcW: 200, srcH: 50},
		{name: "tall", srcW: 50, srcH: 200},
		{name: "square", srcW: 100, srcH: 100},
		{name: "tiny", srcW: 4, srcH: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			canonical, err := codec.Normalize(asPNG(t, solidImage(tt.srcW, tt.srcH, color.NRGBA{B: 255, A: 255})))
			require.NoError(t, err)

			thumb, err := codec.Thumbnail(canonical, 64, 64)
			require.NoError(t, err)

			img, err := png.Decode(bytes.NewReader(thumb))
			require.NoError(t, err)
			assert.Equal(t, 64, img.Bounds().Dx())
			assert.Equal(t, 64, img.Bounds().Dy())
		})
	}
}

func TestThumbnailPadsWithTransparency(t *testing.T) {
	codec := NewCodec()
	canonical, err := codec.Normalize(asPNG(t, solidImage(200, 50, color.NRGBA{R: 255, A: 255})))
	require.NoError(t, err)

	thumb, err := codec.Thumbnail(canonical, 64, 64)
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(thumb))
	require.NoError(t, err)

	// A 4:1 source centered in a square canvas leaves the top rows empty
	_, _, _, a := img.At(32, 2).RGBA()
	assert.Zero(t, a)
	// And the middle opaque
	_, _, _, a = img.At(32, 32).RGBA()
	assert.NotZero(t, a)
}

func TestDigest(t *testing.T) {
	codec := NewCodec()
	assert.Equal(t,
		"e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		codec.Digest(nil))
	assert.NotEqual(t, codec.Digest([]byte("a")), codec.Digest([]byte("b")))
}
