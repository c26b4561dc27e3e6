package codec

import (
	"image"

	"github.com/gen2brain/avif"

	"github.com/imagecask/imagecask/internal/fault"
)

// Fixed AVIF preset; quality and speed are design constants, not
// request-tunable.
const (
	avifQuality = 85
	avifSpeed   = 8
)

func encodeAVIF(img image.Image, out *Output) error {
	err := avif.Encode(out, img, avif.Options{
		Quality:      avifQuality,
		QualityAlpha: avifQuality,
		Speed:        avifSpeed,
	})
	if err != nil {
		return fault.New(fault.KindImageEncode, err)
	}
	return nil
}
