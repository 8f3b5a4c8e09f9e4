package filemeta

import (
	"bytes"
	"image"
	"image/png"
	"testing"
)

func TestResolutionPNG(t *testing.T) {
	var buf bytes.Buffer
	img := image.NewRGBA(image.Rect(0, 0, 40, 25))
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}

	got := Resolution(buf.Bytes(), "image/png")
	if got != "40x25" {
		t.Fatalf("got %q, want 40x25", got)
	}
}

func TestResolutionUndecodable(t *testing.T) {
	if got := Resolution([]byte("not an image"), "image/jpeg"); got != "" {
		t.Fatalf("expected empty, got %q", got)
	}
	if got := Resolution([]byte("not a pdf"), "application/pdf"); got != "" {
		t.Fatalf("expected empty, got %q", got)
	}
	if got := Resolution([]byte{0x52, 0x49, 0x46, 0x46}, "image/webp"); got != "" {
		t.Fatalf("webp should be skipped, got %q", got)
	}
}
