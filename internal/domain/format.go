package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Format is the closed set of output formats the service can produce.
// Unknown strings are rejected once at parse time; downstream code switches
// exhaustively on the enum and never compares format strings again.
type Format int

const (
	FormatAVIF Format = iota
	FormatHEIC
	FormatJXL
	FormatQOI
)

var ErrUnknownFormat = errors.New("unknown format")

// ParseFormat resolves a request format string by exact lowercase match.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "avif":
		return FormatAVIF, nil
	case "heic":
		return FormatHEIC, nil
	case "jxl":
		return FormatJXL, nil
	case "qoi":
		return FormatQOI, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// Ext returns the file extension used for transformed blobs.
func (f Format) Ext() string {
	switch f {
	case FormatAVIF:
		return "avif"
	case FormatHEIC:
		return "heic"
	case FormatJXL:
		return "jxl"
	case FormatQOI:
		return "qoi"
	default:
		return "bin"
	}
}

func (f Format) String() string {
	return f.Ext()
}
