package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/imagecask/imagecask/internal/domain"
	"github.com/imagecask/imagecask/internal/fault"
)

func TestHealthz(t *testing.T) {
	srv := newTestServer(&stubTransformer{})

	res := doRequest(t, srv, http.MethodGet, "/healthz", "")
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
}

func TestTransformSourceInPath(t *testing.T) {
	stub := &stubTransformer{
		result: domain.TransformResult{
			Status:   domain.StatusTransformed,
			Hash:     "abc123",
			Filename: "abc123_800.qoi",
		},
	}
	srv := newTestServer(stub)

	res := doRequest(t, srv, http.MethodPost, "/https://example.com/cat.jpg", `{"tallestSide": 800, "format": "qoi"}`)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}

	if stub.lastRequest.Source != "https://example.com/cat.jpg" {
		t.Fatalf("unexpected source %q", stub.lastRequest.Source)
	}
	if stub.lastRequest.TallestSide != 800 || stub.lastRequest.Format != domain.FormatQOI {
		t.Fatalf("unexpected request %+v", stub.lastRequest)
	}

	var body map[string]string
	decodeBody(t, res, &body)
	if body["status"] != domain.StatusTransformed || body["filename"] != "abc123_800.qoi" {
		t.Fatalf("unexpected body %v", body)
	}
}

func TestTransformSourceInBody(t *testing.T) {
	stub := &stubTransformer{result: domain.TransformResult{Status: domain.StatusAlreadyTransformed}}
	srv := newTestServer(stub)

	res := doRequest(t, srv, http.MethodPost, "/", `{"source": "https://example.com/dog.png", "tallestSide": 400}`)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}
	if stub.lastRequest.Source != "https://example.com/dog.png" {
		t.Fatalf("unexpected source %q", stub.lastRequest.Source)
	}
	if stub.lastRequest.Format != domain.FormatAVIF {
		t.Fatalf("expected default format, got %s", stub.lastRequest.Format)
	}
}

func TestTransformValidationFailsBeforeAnyWork(t *testing.T) {
	cases := []struct {
		name       string
		target     string
		body       string
		wantStatus int
	}{
		{"unsupported format", "/https://example.com/a.jpg", `{"tallestSide": 100, "format": "bmp"}`, http.StatusBadRequest},
		{"malformed json", "/https://example.com/a.jpg", `{"tallestSide"`, http.StatusBadRequest},
		{"oversized body", "/https://example.com/a.jpg", `{"x": "` + strings.Repeat("y", domain.MaxRequestBytes) + `"}`, http.StatusBadRequest},
		{"missing source", "/", `{"tallestSide": 100}`, http.StatusBadRequest},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			stub := &stubTransformer{}
			srv := newTestServer(stub)

			res := doRequest(t, srv, http.MethodPost, tc.target, tc.body)
			if res.Code != tc.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tc.wantStatus, res.Code, res.Body.String())
			}
			if got := stub.calls.Load(); got != 0 {
				t.Fatalf("expected no transform attempts, got %d", got)
			}

			var body map[string]string
			decodeBody(t, res, &body)
			if body["status"] != domain.StatusError || body["reason"] == "" {
				t.Fatalf("unexpected error body %v", body)
			}
		})
	}
}

func TestTransformErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		kind fault.Kind
		want int
	}{
		{"download failure", fault.KindDownload, http.StatusBadGateway},
		{"decode failure", fault.KindImageDecode, http.StatusInternalServerError},
		{"corrupt blob", fault.KindFileCorrupt, http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			stub := &stubTransformer{err: fault.Errorf(tc.kind, "boom")}
			srv := newTestServer(stub)

			res := doRequest(t, srv, http.MethodPost, "/https://example.com/a.jpg", `{"tallestSide": 100}`)
			if res.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, res.Code)
			}

			var body map[string]string
			decodeBody(t, res, &body)
			if body["reason"] != tc.kind.Reason() {
				t.Fatalf("expected reason %q, got %q", tc.kind.Reason(), body["reason"])
			}
		})
	}
}

func newTestServer(stub *stubTransformer) *Server {
	return NewServer(stub, domain.FormatAVIF, prometheus.NewRegistry())
}

func doRequest(t *testing.T, srv *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	res := httptest.NewRecorder()
	srv.Handler().ServeHTTP(res, req)
	return res
}

func decodeBody(t *testing.T, res *httptest.ResponseRecorder, into any) {
	t.Helper()

	if err := json.Unmarshal(res.Body.Bytes(), into); err != nil {
		t.Fatalf("decode response body: %v", err)
	}
}

type stubTransformer struct {
	result      domain.TransformResult
	err         error
	calls       atomic.Int32
	lastRequest domain.TransformRequest
}

func (s *stubTransformer) Transform(_ context.Context, req domain.TransformRequest) (domain.TransformResult, error) {
	s.calls.Add(1)
	s.lastRequest = req
	if s.err != nil {
		return domain.TransformResult{}, s.err
	}
	return s.result, nil
}
