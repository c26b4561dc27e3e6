package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/imagecask/imagecask/internal/fault"
)

// MaxRequestBytes bounds the transform descriptor body. It describes a
// transform, not an image payload, so anything larger is rejected outright.
const MaxRequestBytes = 1024

const (
	StatusTransformed        = "TRANSFORMED"
	StatusAlreadyTransformed = "ALREADY_TRANSFORMED"
	StatusError              = "ERROR"
)

type TransformRequest struct {
	Source      string
	TallestSide uint32
	Format      Format
}

type transformPayload struct {
	Source      string  `json:"source,omitempty"`
	TallestSide uint32  `json:"tallestSide"`
	Format      *string `json:"format,omitempty"`
}

// ParseTransformRequest reads a bounded request body and validates it into a
// TransformRequest before any network or disk access happens. pathSource,
// when non-empty, is the source identifier embedded in the request path and
// takes precedence over a body-supplied source. An absent format maps to
// defaultFormat.
func ParseTransformRequest(body io.Reader, pathSource string, defaultFormat Format) (TransformRequest, error) {
	raw, err := io.ReadAll(io.LimitReader(body, MaxRequestBytes+1))
	if err != nil {
		return TransformRequest{}, fault.New(fault.KindBadRequest, fmt.Errorf("read request body: %w", err))
	}
	if len(raw) > MaxRequestBytes {
		return TransformRequest{}, fault.Errorf(fault.KindBadRequest, "request body exceeds %d bytes", MaxRequestBytes)
	}

	var payload transformPayload
	dec := json.NewDecoder(bytes.NewReader(raw))
	if err := dec.Decode(&payload); err != nil {
		return TransformRequest{}, fault.New(fault.KindJSONDeserialize, err)
	}

	source := strings.TrimSpace(pathSource)
	if source == "" {
		source = strings.TrimSpace(payload.Source)
	}
	if source == "" {
		return TransformRequest{}, fault.Errorf(fault.KindBadRequest, "source is required")
	}
	if payload.TallestSide == 0 {
		return TransformRequest{}, fault.Errorf(fault.KindBadRequest, "tallestSide must be positive")
	}

	format := defaultFormat
	if payload.Format != nil {
		parsed, err := ParseFormat(*payload.Format)
		if err != nil {
			if errors.Is(err, ErrUnknownFormat) {
				return TransformRequest{}, fault.New(fault.KindUnsupportedFormat, err)
			}
			return TransformRequest{}, fault.New(fault.KindBadRequest, err)
		}
		format = parsed
	}

	return TransformRequest{
		Source:      source,
		TallestSide: payload.TallestSide,
		Format:      format,
	}, nil
}

// StageTiming records how long one pipeline stage took, in execution order.
type StageTiming struct {
	Step     string
	Duration time.Duration
}

func (t StageTiming) DurationMS() float64 {
	return float64(t.Duration) / float64(time.Millisecond)
}

type TransformResult struct {
	Status   string
	Hash     string
	Filename string
	Timings  []StageTiming
}
