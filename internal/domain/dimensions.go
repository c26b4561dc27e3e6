package domain

import "math"

type ResizedDimensions struct {
	Width  uint32
	Height uint32
}

// CalculateResizedDimensions scales an image so its longer side becomes
// tallestSide and the shorter side follows the aspect ratio, rounded to the
// nearest pixel. Square inputs take the landscape branch, pinning width.
// A zero input dimension or a zero target returns (0, 0), which callers
// read as "nothing to resize".
func CalculateResizedDimensions(originalWidth, originalHeight, tallestSide uint32) ResizedDimensions {
	if originalWidth == 0 || originalHeight == 0 || tallestSide == 0 {
		return ResizedDimensions{}
	}

	ratio := float64(originalWidth) / float64(originalHeight)

	if originalWidth >= originalHeight {
		return ResizedDimensions{
			Width:  tallestSide,
			Height: uint32(math.Round(float64(tallestSide) / ratio)),
		}
	}
	return ResizedDimensions{
		Width:  uint32(math.Round(float64(tallestSide) * ratio)),
		Height: tallestSide,
	}
}
