package domain

import "testing"

func TestCalculateResizedDimensions(t *testing.T) {
	cases := []struct {
		name       string
		w, h, side uint32
		wantW      uint32
		wantH      uint32
	}{
		{"landscape", 4000, 2000, 1000, 1000, 500},
		{"portrait", 2000, 4000, 1000, 500, 1000},
		{"square", 1000, 1000, 500, 500, 500},
		{"upscale", 100, 50, 400, 400, 200},
		{"rounds nearest", 3, 2, 1000, 1000, 667},
		{"zero side", 4000, 2000, 0, 0, 0},
		{"zero width", 0, 2000, 1000, 0, 0},
		{"zero height", 4000, 0, 1000, 0, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := CalculateResizedDimensions(tc.w, tc.h, tc.side)
			if got.Width != tc.wantW || got.Height != tc.wantH {
				t.Fatalf("CalculateResizedDimensions(%d, %d, %d) = (%d, %d), want (%d, %d)",
					tc.w, tc.h, tc.side, got.Width, got.Height, tc.wantW, tc.wantH)
			}
		})
	}
}

func TestCalculateResizedDimensionsSquareTakesLandscapeBranch(t *testing.T) {
	got := CalculateResizedDimensions(777, 777, 123)
	if got.Width != 123 {
		t.Fatalf("expected width pinned to tallest side, got %d", got.Width)
	}
}
