package domain

import (
	"strings"
	"testing"

	"github.com/imagecask/imagecask/internal/fault"
)

func TestParseTransformRequestFromBody(t *testing.T) {
	body := strings.NewReader(`{"source": "https://example.com/cat.jpg", "tallestSide": 800, "format": "qoi"}`)

	req, err := ParseTransformRequest(body, "", FormatAVIF)
	if err != nil {
		t.Fatalf("parse request: %v", err)
	}
	if req.Source != "https://example.com/cat.jpg" {
		t.Fatalf("unexpected source %q", req.Source)
	}
	if req.TallestSide != 800 {
		t.Fatalf("unexpected tallestSide %d", req.TallestSide)
	}
	if req.Format != FormatQOI {
		t.Fatalf("unexpected format %s", req.Format)
	}
}

func TestParseTransformRequestPathSourceWins(t *testing.T) {
	body := strings.NewReader(`{"source": "https://ignored.example/a.png", "tallestSide": 100}`)

	req, err := ParseTransformRequest(body, "https://example.com/b.png", FormatAVIF)
	if err != nil {
		t.Fatalf("parse request: %v", err)
	}
	if req.Source != "https://example.com/b.png" {
		t.Fatalf("expected path source to win, got %q", req.Source)
	}
	if req.Format != FormatAVIF {
		t.Fatalf("expected default format, got %s", req.Format)
	}
}

func TestParseTransformRequestRejections(t *testing.T) {
	cases := []struct {
		name string
		body string
		want fault.Kind
	}{
		{"malformed json", `{"tallestSide": `, fault.KindJSONDeserialize},
		{"unknown format", `{"source": "https://example.com/a.jpg", "tallestSide": 100, "format": "bmp"}`, fault.KindUnsupportedFormat},
		{"zero tallest side", `{"source": "https://example.com/a.jpg", "tallestSide": 0}`, fault.KindBadRequest},
		{"missing source", `{"tallestSide": 100}`, fault.KindBadRequest},
		{"oversized body", `{"tallestSide": 100, "source": "` + strings.Repeat("x", MaxRequestBytes) + `"}`, fault.KindBadRequest},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseTransformRequest(strings.NewReader(tc.body), "", FormatAVIF)
			if err == nil {
				t.Fatal("expected parse error")
			}
			if got := fault.KindOf(err); got != tc.want {
				t.Fatalf("expected %s, got %s (%v)", tc.want, got, err)
			}
		})
	}
}

func TestParseFormat(t *testing.T) {
	for _, s := range []string{"avif", "heic", "jxl", "qoi"} {
		f, err := ParseFormat(s)
		if err != nil {
			t.Fatalf("parse %q: %v", s, err)
		}
		if f.Ext() != s {
			t.Fatalf("expected ext %q, got %q", s, f.Ext())
		}
	}

	if _, err := ParseFormat("AVIF"); err != nil {
		t.Fatalf("expected case-insensitive parse, got %v", err)
	}
	if _, err := ParseFormat("bmp"); err == nil {
		t.Fatal("expected unknown format error")
	}
}
