// Package imaging normalizes uploaded image bytes into a canonical PNG form,
// derives content digests from the canonical bytes, and renders fixed-size
// thumbnails. Digesting the canonical form rather than the upload means the
// same pixels always produce the same content address regardless of the
// encoding they arrived in.
package imaging

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	"image/png"

	_ "image/gif"  // register GIF decoding
	_ "image/jpeg" // register JPEG decoding

	"golang.org/x/image/draw"
)

// Codec converts raw uploads into canonical PNGs and thumbnails.
type Codec struct{}

// NewCodec creates a codec
func NewCodec() *Codec {
	return &Codec{}
}

// Normalize decodes the raw bytes (PNG, JPEG or GIF) and re-encodes them as
// a PNG over an NRGBA canvas. The output is deterministic for identical
// pixel content.
func (c *Codec) Normalize(raw []byte) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}

	bounds := src.Bounds()
	canvas := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(canvas, canvas.Bounds(), src, bounds.Min, draw.Src)

	return encodePNG(canvas)
}

// Thumbnail scales a canonical PNG to fit inside a w×h canvas, preserving
// aspect ratio and centering the result over transparent padding.
func (c *Codec) Thumbnail(canonical []byte, w, h int) ([]byte, error) {
	src, err := png.Decode(bytes.NewReader(canonical))
	if err != nil {
		return nil, fmt.Errorf("decoding canonical png: %w", err)
	}

	bounds := src.Bounds()
	srcW, srcH := bounds.Dx(), bounds.Dy()
	if srcW == 0 || srcH == 0 {
		return nil, fmt.Errorf("empty image %dx%d", srcW, srcH)
	}

	// Fit-within scale factor; never upscale beyond the canvas.
	scaleW := float64(w) / float64(srcW)
	scaleH := float64(h) / float64(srcH)
	scale := scaleW
	if scaleH < scale {
		scale = scaleH
	}

	dstW := int(float64(srcW) * scale)
	dstH := int(float64(srcH) * scale)
	if dstW < 1 {
		dstW = 1
	}
	if dstH < 1 {
		dstH = 1
	}

	canvas := image.NewNRGBA(image.Rect(0, 0, w, h))
	offsetX := (w - dstW) / 2
	offsetY := (h - dstH) / 2
	target := image.Rect(offsetX, offsetY, offsetX+dstW, offsetY+dstH)

	draw.CatmullRom.Scale(canvas, target, src, bounds, draw.Over, nil)

	return encodePNG(canvas)
}

// Digest returns the hex SHA-256 of the given bytes.
func (c *Codec) Digest(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding png: %w", err)
	}
	return buf.Bytes(), nil
}
