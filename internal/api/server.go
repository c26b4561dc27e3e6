// Package api is the HTTP boundary: one transform endpoint plus health and
// metrics. All validation happens here, before any network or disk access.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/imagecask/imagecask/internal/domain"
	"github.com/imagecask/imagecask/internal/fault"
	"github.com/imagecask/imagecask/internal/id"
)

type transformer interface {
	Transform(ctx context.Context, req domain.TransformRequest) (domain.TransformResult, error)
}

type Server struct {
	transformer   transformer
	defaultFormat domain.Format
	metrics       *metrics
	tracer        trace.Tracer
	mux           *http.ServeMux
}

func NewServer(t transformer, defaultFormat domain.Format, registry *prometheus.Registry) *Server {
	s := &Server{
		transformer:   t,
		defaultFormat: defaultFormat,
		metrics:       newMetrics(registry),
		tracer:        otel.Tracer("imagecask/api"),
		mux:           http.NewServeMux(),
	}
	s.mux.HandleFunc("GET /healthz", s.handleHealthz)
	s.mux.Handle("GET /metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	return s
}

// Handler routes POST requests straight to the transform handler so source
// URLs embedded in the path survive untouched; ServeMux would canonicalize
// the double slashes out of them.
func (s *Server) Handler() http.Handler {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			s.handleTransform(w, r)
			return
		}
		s.mux.ServeHTTP(w, r)
	})
	return s.metrics.withHTTPMetrics(s.withTracing(h))
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleTransform(w http.ResponseWriter, r *http.Request) {
	reqID := id.New()
	w.Header().Set("X-Request-Id", reqID)

	pathSource := strings.TrimPrefix(r.URL.RequestURI(), "/")

	req, err := domain.ParseTransformRequest(r.Body, pathSource, s.defaultFormat)
	if err != nil {
		s.writeError(w, reqID, "", err)
		return
	}

	result, err := s.transformer.Transform(r.Context(), req)
	if err != nil {
		s.writeError(w, reqID, req.Source, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":   result.Status,
		"hash":     result.Hash,
		"filename": result.Filename,
	})
}

func (s *Server) writeError(w http.ResponseWriter, reqID, source string, err error) {
	kind := fault.KindOf(err)
	log.Error().Err(err).Str("request_id", reqID).Str("source", source).Str("kind", kind.String()).Msg("transform failed")
	writeJSON(w, kind.HTTPStatus(), map[string]string{
		"status": domain.StatusError,
		"reason": kind.Reason(),
	})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
