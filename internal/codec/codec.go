// Package codec routes decode and encode calls to per-format backends. The
// format set is closed; every dispatch switches exhaustively over
// domain.Format and unknown values never get this far.
package codec

import (
	"bytes"
	"fmt"
	"image"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"github.com/imagecask/imagecask/internal/domain"
	"github.com/imagecask/imagecask/internal/fault"
)

// Codec is the decode/encode collaborator the pipeline runs against.
type Codec interface {
	Decode(data []byte) (image.Image, error)
	Encode(img image.Image, format domain.Format, out *Output) error
}

// Registry dispatches to the built-in backends.
type Registry struct{}

// Decode turns raw source bytes into an in-memory image using whichever
// decoder registered itself for the byte signature. The backend packages
// imported here and in the encoder files cover jpeg, png, gif, webp, avif,
// jxl, qoi and heif sources.
func (Registry) Decode(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fault.New(fault.KindImageDecode, err)
	}
	return img, nil
}

// Encode writes img to out in the requested format at that format's fixed
// preset. Most backends fill the in-memory buffer; the HEIC backend writes
// the destination file itself and marks the sink accordingly.
func (Registry) Encode(img image.Image, format domain.Format, out *Output) error {
	switch format {
	case domain.FormatAVIF:
		return encodeAVIF(img, out)
	case domain.FormatHEIC:
		return encodeHEIC(img, out)
	case domain.FormatJXL:
		return encodeJXL(img, out)
	case domain.FormatQOI:
		return encodeQOI(img, out)
	default:
		return fault.Errorf(fault.KindImageEncode, "no encoder for format %s", format)
	}
}

// Output is the sink an encoder writes into. It unifies the two backend
// calling conventions: bytes-returning encoders write into the buffer and
// the caller persists it, while direct-to-path encoders write the
// destination file themselves and mark the sink as already persisted.
type Output struct {
	destPath string
	buf      bytes.Buffer
	direct   bool
}

func NewOutput(destPath string) *Output {
	return &Output{destPath: destPath}
}

func (o *Output) Write(p []byte) (int, error) {
	if o.direct {
		return 0, fmt.Errorf("sink %s was already written directly", o.destPath)
	}
	return o.buf.Write(p)
}

// DestPath is the final on-disk location of the transformed blob, for
// backends that emit whole files.
func (o *Output) DestPath() string {
	return o.destPath
}

func (o *Output) markDirect() {
	o.direct = true
}

// Direct reports whether the encoder already persisted the output itself,
// in which case Bytes is empty and the persist stage is a no-op.
func (o *Output) Direct() bool {
	return o.direct
}

func (o *Output) Bytes() []byte {
	return o.buf.Bytes()
}
