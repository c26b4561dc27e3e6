package pipeline

import (
	"image"

	"golang.org/x/image/draw"

	"github.com/imagecask/imagecask/internal/domain"
)

// resample scales src to dims with a Catmull-Rom convolution kernel,
// copying pixels rather than compositing so the alpha channel stays out of
// the resampling weights. Matching dimensions pass the image through
// untouched.
func resample(src image.Image, dims domain.ResizedDimensions) image.Image {
	bounds := src.Bounds()
	if uint32(bounds.Dx()) == dims.Width && uint32(bounds.Dy()) == dims.Height {
		return src
	}

	dst := image.NewRGBA(image.Rect(0, 0, int(dims.Width), int(dims.Height)))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Src, nil)
	return dst
}
