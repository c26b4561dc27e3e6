package codec

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/imagecask/imagecask/internal/domain"
)

func TestDecodeKnownFormats(t *testing.T) {
	reg := Registry{}

	img, err := reg.Decode(buildTestPNG(t, 32, 16))
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	if img.Bounds().Dx() != 32 || img.Bounds().Dy() != 16 {
		t.Fatalf("unexpected decoded bounds %v", img.Bounds())
	}
}

func TestDecodeGarbageFails(t *testing.T) {
	reg := Registry{}

	if _, err := reg.Decode([]byte("definitely not an image")); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestEncodeQOIRoundTrip(t *testing.T) {
	reg := Registry{}
	src := buildTestImage(32, 16)

	out := NewOutput(filepath.Join(t.TempDir(), "unused.qoi"))
	if err := reg.Encode(src, domain.FormatQOI, out); err != nil {
		t.Fatalf("encode qoi: %v", err)
	}
	if out.Direct() {
		t.Fatal("qoi backend must return bytes, not write directly")
	}
	if len(out.Bytes()) == 0 {
		t.Fatal("expected encoded bytes")
	}

	decoded, err := reg.Decode(out.Bytes())
	if err != nil {
		t.Fatalf("decode encoded qoi: %v", err)
	}
	if decoded.Bounds().Dx() != 32 || decoded.Bounds().Dy() != 16 {
		t.Fatalf("round trip changed dimensions: %v", decoded.Bounds())
	}
}

func TestEncodeAVIFReturnsBytes(t *testing.T) {
	reg := Registry{}

	out := NewOutput(filepath.Join(t.TempDir(), "unused.avif"))
	if err := reg.Encode(buildTestImage(24, 24), domain.FormatAVIF, out); err != nil {
		t.Fatalf("encode avif: %v", err)
	}
	if out.Direct() || len(out.Bytes()) == 0 {
		t.Fatal("expected in-memory avif output")
	}
}

func TestOutputRejectsWritesAfterDirect(t *testing.T) {
	out := NewOutput(filepath.Join(t.TempDir(), "x.heic"))
	out.markDirect()

	if _, err := out.Write([]byte("late")); err == nil {
		t.Fatal("expected write after direct persist to fail")
	}
	if len(out.Bytes()) != 0 {
		t.Fatal("direct output must not buffer bytes")
	}
	if _, err := os.Stat(out.DestPath()); err == nil {
		t.Fatal("sink alone must not create the destination file")
	}
}

func buildTestImage(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{
				R: uint8((x * 255) / w),
				G: uint8((y * 255) / h),
				B: 140,
				A: 255,
			})
		}
	}
	return img
}

func buildTestPNG(t *testing.T, w, h int) []byte {
	t.Helper()

	var buf bytes.Buffer
	if err := png.Encode(&buf, buildTestImage(w, h)); err != nil {
		t.Fatalf("encode test png: %v", err)
	}
	return buf.Bytes()
}
