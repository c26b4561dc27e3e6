package codec

import (
	"image"

	"github.com/strukturag/libheif/go/heif"

	"github.com/imagecask/imagecask/internal/fault"
)

// Fixed HEIC preset.
const heicQuality = 85

// encodeHEIC is the one backend that cannot return bytes: libheif emits the
// container straight to a file, so it writes the destination path and marks
// the sink direct. A crash between that write and pipeline completion can
// leave a transformed blob with no recorded success response.
func encodeHEIC(img image.Image, out *Output) error {
	ctx, err := heif.EncodeFromImage(img, heif.CompressionHEVC, heicQuality, heif.LosslessModeDisabled, heif.LoggingLevelNone)
	if err != nil {
		return fault.New(fault.KindImageEncode, err)
	}

	if err := ctx.WriteToFile(out.DestPath()); err != nil {
		return fault.New(fault.KindFileCreation, err)
	}
	out.markDirect()
	return nil
}
