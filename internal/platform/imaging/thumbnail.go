// Package imaging derives preview thumbnails from uploaded clinical
// photographs. It operates on decoded plaintext only; encryption happens
// after this stage, never before.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"net/http"

	_ "image/gif"
	_ "image/png"

	"golang.org/x/image/draw"
)

// ErrUnsupportedFormat signals that the input could not be decoded as an
// image.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// thumbnailMaxSide is the longest side of a generated thumbnail in pixels.
const thumbnailMaxSide = 128

// thumbnailQuality is the JPEG quality used for thumbnails.
const thumbnailQuality = 80

// GenerateThumbnail decodes the original image, scales its longest side
// down to 128px preserving aspect ratio, and re-encodes it as JPEG. Images
// already within bounds are re-encoded without scaling. Output is
// deterministic for identical input.
func GenerateThumbnail(original []byte) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(original))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}

	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("%w: empty image", ErrUnsupportedFormat)
	}

	tw, th := fitWithin(w, h, thumbnailMaxSide)
	dst := image.NewRGBA(image.Rect(0, 0, tw, th))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: thumbnailQuality}); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}

// fitWithin returns dimensions scaled so the longest side is at most max,
// never upscaling.
func fitWithin(w, h, max int) (int, int) {
	longest := w
	if h > w {
		longest = h
	}
	if longest <= max {
		return w, h
	}

	tw := w * max / longest
	th := h * max / longest
	if tw < 1 {
		tw = 1
	}
	if th < 1 {
		th = 1
	}
	return tw, th
}

// SniffContentType returns the MIME type of stored image bytes, used as the
// content-type hint on download.
func SniffContentType(data []byte) string {
	return http.DetectContentType(data)
}
