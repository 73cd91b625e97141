package imaging

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 100, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func decodeSize(t *testing.T, data []byte) (int, int) {
	t.Helper()
	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("thumbnail is not valid jpeg: %v", err)
	}
	b := img.Bounds()
	return b.Dx(), b.Dy()
}

func TestGenerateThumbnail_ScalesDownLongestSide(t *testing.T) {
	thumb, err := GenerateThumbnail(encodePNG(t, 640, 480))
	if err != nil {
		t.Fatal(err)
	}
	w, h := decodeSize(t, thumb)
	if w != 128 {
		t.Errorf("expected width 128, got %d", w)
	}
	if h != 96 {
		t.Errorf("expected height 96, got %d", h)
	}
}

func TestGenerateThumbnail_PortraitOrientation(t *testing.T) {
	thumb, err := GenerateThumbnail(encodePNG(t, 480, 640))
	if err != nil {
		t.Fatal(err)
	}
	w, h := decodeSize(t, thumb)
	if h != 128 {
		t.Errorf("expected height 128, got %d", h)
	}
	if w != 96 {
		t.Errorf("expected width 96, got %d", w)
	}
}

func TestGenerateThumbnail_NeverUpscales(t *testing.T) {
	thumb, err := GenerateThumbnail(encodePNG(t, 40, 30))
	if err != nil {
		t.Fatal(err)
	}
	w, h := decodeSize(t, thumb)
	if w != 40 || h != 30 {
		t.Errorf("expected 40x30, got %dx%d", w, h)
	}
}

func TestGenerateThumbnail_Deterministic(t *testing.T) {
	src := encodePNG(t, 200, 150)
	a, err := GenerateThumbnail(src)
	if err != nil {
		t.Fatal(err)
	}
	b, err := GenerateThumbnail(src)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a, b) {
		t.Error("thumbnails for identical input differ")
	}
}

func TestGenerateThumbnail_RejectsNonImage(t *testing.T) {
	for _, data := range [][]byte{nil, {}, []byte("definitely not an image")} {
		if _, err := GenerateThumbnail(data); !errors.Is(err, ErrUnsupportedFormat) {
			t.Errorf("input of %d bytes: expected ErrUnsupportedFormat, got %v", len(data), err)
		}
	}
}

func TestSniffContentType(t *testing.T) {
	if ct := SniffContentType(encodePNG(t, 10, 10)); ct != "image/png" {
		t.Errorf("expected image/png, got %s", ct)
	}

	thumb, err := GenerateThumbnail(encodePNG(t, 10, 10))
	if err != nil {
		t.Fatal(err)
	}
	if ct := SniffContentType(thumb); ct != "image/jpeg" {
		t.Errorf("expected image/jpeg, got %s", ct)
	}
}
