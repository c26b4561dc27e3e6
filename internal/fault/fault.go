// Package fault defines the closed set of failure kinds a transform request
// can end in, together with their HTTP mapping and user-facing reasons.
package fault

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	KindUnknown Kind = iota
	KindUnsupportedFormat
	KindBadRequest
	KindJSONDeserialize
	KindDownload
	KindDirectoryCreation
	KindFileCreation
	KindFileWrite
	KindFileRead
	KindFileCorrupt
	KindImageDecode
	KindResize
	KindImageEncode
	KindProcessing
)

func (k Kind) String() string {
	switch k {
	case KindUnsupportedFormat:
		return "unsupported_format"
	case KindBadRequest:
		return "bad_request"
	case KindJSONDeserialize:
		return "json_deserialize_error"
	case KindDownload:
		return "download_error"
	case KindDirectoryCreation:
		return "directory_creation_error"
	case KindFileCreation:
		return "file_creation_error"
	case KindFileWrite:
		return "file_write_error"
	case KindFileRead:
		return "file_read_error"
	case KindFileCorrupt:
		return "file_corrupt_error"
	case KindImageDecode:
		return "image_decode_error"
	case KindResize:
		return "resize_error"
	case KindImageEncode:
		return "image_encode_error"
	case KindProcessing:
		return "processing_error"
	default:
		return "unknown_error"
	}
}

// Reason is the human-readable text returned in the error response body.
func (k Kind) Reason() string {
	switch k {
	case KindUnsupportedFormat:
		return "Unsupported format. Use 'avif', 'heic', 'jxl', or 'qoi'."
	case KindBadRequest:
		return "Bad request: invalid request format."
	case KindJSONDeserialize:
		return "Bad request: invalid JSON."
	case KindDownload:
		return "Failed to download image from URL."
	case KindDirectoryCreation:
		return "Failed to create directories."
	case KindFileCreation:
		return "Failed to create output file."
	case KindFileWrite:
		return "Failed to write image data to file."
	case KindFileRead:
		return "Failed to read image data from file."
	case KindFileCorrupt:
		return "File was empty or corrupt."
	case KindImageDecode:
		return "Failed to decode image. May be corrupt or unsupported."
	case KindResize:
		return "Failed to resize image."
	case KindImageEncode:
		return "Failed to encode image."
	case KindProcessing:
		return "Internal processing error."
	default:
		return "Internal error."
	}
}

// HTTPStatus maps a kind onto the response status: validation failures are
// the client's fault, a failed origin fetch is a bad gateway, everything
// else is internal.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindUnsupportedFormat, KindBadRequest, KindJSONDeserialize:
		return http.StatusBadRequest
	case KindDownload:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

type Error struct {
	kind  Kind
	cause error
}

func New(kind Kind, cause error) *Error {
	return &Error{kind: kind, cause: cause}
}

func Errorf(kind Kind, format string, args ...any) *Error {
	return &Error{kind: kind, cause: fmt.Errorf(format, args...)}
}

func (e *Error) Kind() Kind {
	return e.kind
}

func (e *Error) Error() string {
	if e.cause == nil {
		return e.kind.String()
	}
	return fmt.Sprintf("%s: %v", e.kind, e.cause)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// KindOf extracts the fault kind from an error chain. Errors outside the
// taxonomy report KindProcessing, the catch-all for unexpected failures.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.kind
	}
	return KindProcessing
}
