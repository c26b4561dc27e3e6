package codec

import (
	"image"

	"github.com/gen2brain/jpegxl"

	"github.com/imagecask/imagecask/internal/fault"
)

// Fixed JPEG-XL preset: lossy at high quality on the encoder's own scale,
// low effort for a fast speed tier.
const (
	jxlQuality = 90
	jxlEffort  = 3
)

func encodeJXL(img image.Image, out *Output) error {
	err := jpegxl.Encode(out, img, jpegxl.Options{
		Quality: jxlQuality,
		Effort:  jxlEffort,
	})
	if err != nil {
		return fault.New(fault.KindImageEncode, err)
	}
	return nil
}
