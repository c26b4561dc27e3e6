package codec

import (
	"image"

	"github.com/xfmoulet/qoi"

	"github.com/imagecask/imagecask/internal/fault"
)

// encodeQOI is always lossless; the backend picks RGB or RGBA channels from
// the source alpha.
func encodeQOI(img image.Image, out *Output) error {
	if err := qoi.Encode(out, img); err != nil {
		return fault.New(fault.KindImageEncode, err)
	}
	return nil
}
