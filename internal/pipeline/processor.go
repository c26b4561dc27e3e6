// Package pipeline sequences one transform request end to end: cache
// fast-path, download, decode, resize, encode, persist. Stages run in that
// strict order and each is timed independently.
package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/imagecask/imagecask/internal/cache"
	"github.com/imagecask/imagecask/internal/codec"
	"github.com/imagecask/imagecask/internal/domain"
	"github.com/imagecask/imagecask/internal/fault"
	"github.com/imagecask/imagecask/internal/fetch"
	"github.com/imagecask/imagecask/internal/worker"
)

const (
	stepDownload = "download"
	stepDecode   = "decode"
	stepResize   = "resize"
	stepEncode   = "encode"
	stepSave     = "save"
)

type Processor struct {
	store   *cache.Store
	fetcher fetch.Fetcher
	codec   codec.Codec
	pool    *worker.Pool
	metrics *Metrics
	tracer  trace.Tracer
	group   *singleflight.Group
}

// NewProcessor wires the orchestrator. With dedupe enabled, concurrent
// requests for the same (key, size, format) share one computation; disabled
// they each run the full pipeline and the last write wins.
func NewProcessor(store *cache.Store, fetcher fetch.Fetcher, cdc codec.Codec, pool *worker.Pool, metrics *Metrics, dedupe bool) *Processor {
	p := &Processor{
		store:   store,
		fetcher: fetcher,
		codec:   cdc,
		pool:    pool,
		metrics: metrics,
		tracer:  otel.Tracer("imagecask/pipeline"),
	}
	if dedupe {
		p.group = &singleflight.Group{}
	}
	return p
}

// Transform produces the transformed blob for req, or observes that a prior
// request already did. Every error is terminal for the request; nothing
// retries.
func (p *Processor) Transform(ctx context.Context, req domain.TransformRequest) (domain.TransformResult, error) {
	key := cache.ComputeKey(req.Source)
	filename := cache.TransformedFilename(key, req.TallestSide, req.Format)

	if p.group == nil {
		return p.run(ctx, req, key, filename)
	}

	var ran bool
	v, err, _ := p.group.Do(filename, func() (any, error) {
		ran = true
		return p.run(ctx, req, key, filename)
	})
	if err != nil {
		return domain.TransformResult{}, err
	}
	result := v.(domain.TransformResult)
	if !ran {
		// Followers observe the leader's fresh computation as a hit.
		result.Status = domain.StatusAlreadyTransformed
		result.Timings = nil
	}
	return result, nil
}

func (p *Processor) run(ctx context.Context, req domain.TransformRequest, key, filename string) (_ domain.TransformResult, err error) {
	ctx, span := p.tracer.Start(ctx, "pipeline.transform")
	span.SetAttributes(
		attribute.String("transform.key", key),
		attribute.String("transform.format", req.Format.String()),
		attribute.Int("transform.tallest_side", int(req.TallestSide)),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, fault.KindOf(err).String())
			p.metrics.observeResult(req.Format, domain.StatusError)
		}
		span.End()
	}()

	if p.store.LookupTransformed(key, req.TallestSide, req.Format) {
		log.Info().Str("key", key).Str("filename", filename).Msg("already transformed")
		p.metrics.observeLookup(lookupTransformed, true)
		p.metrics.observeResult(req.Format, domain.StatusAlreadyTransformed)
		span.SetStatus(codes.Ok, "already transformed")
		return domain.TransformResult{
			Status:   domain.StatusAlreadyTransformed,
			Hash:     key,
			Filename: filename,
		}, nil
	}
	p.metrics.observeLookup(lookupTransformed, false)

	p.metrics.activeTransforms.Inc()
	defer p.metrics.activeTransforms.Dec()

	timings := make([]domain.StageTiming, 0, 5)

	srcBytes, downloadDur, err := p.sourceBytes(ctx, req.Source, key)
	if err != nil {
		return domain.TransformResult{}, err
	}
	timings = append(timings, domain.StageTiming{Step: stepDownload, Duration: downloadDur})

	out := codec.NewOutput(p.store.TransformedPath(key, req.TallestSide, req.Format))
	stageTimings, err := worker.Submit(ctx, p.pool, func() ([]domain.StageTiming, error) {
		return p.transformBlocking(srcBytes, req, out)
	})
	if err != nil {
		return domain.TransformResult{}, err
	}
	timings = append(timings, stageTimings...)

	saveStart := time.Now()
	if !out.Direct() {
		if err := p.store.StoreTransformed(key, req.TallestSide, req.Format, out.Bytes()); err != nil {
			return domain.TransformResult{}, err
		}
	}
	timings = append(timings, domain.StageTiming{Step: stepSave, Duration: time.Since(saveStart)})

	p.observeTimings(timings)
	p.metrics.observeResult(req.Format, domain.StatusTransformed)
	span.SetStatus(codes.Ok, "transformed")
	logTimings(key, filename, timings)

	return domain.TransformResult{
		Status:   domain.StatusTransformed,
		Hash:     key,
		Filename: filename,
		Timings:  timings,
	}, nil
}

// sourceBytes resolves the raw source blob: from the source cache when
// present, otherwise one GET against the origin followed by a cache write.
// The download duration is zero on a cache hit; the entry still appears in
// the stage timings.
func (p *Processor) sourceBytes(ctx context.Context, source, key string) ([]byte, time.Duration, error) {
	data, err := p.store.LookupSource(key)
	switch {
	case err == nil:
		log.Info().Str("key", key).Msg("source cache hit")
		p.metrics.observeLookup(lookupSource, true)
		return data, 0, nil
	case errors.Is(err, cache.ErrMiss):
		p.metrics.observeLookup(lookupSource, false)
	default:
		return nil, 0, err
	}

	log.Info().Str("key", key).Str("source", source).Msg("source cache miss, downloading")

	start := time.Now()
	data, err = p.fetcher.Fetch(ctx, source)
	if err != nil {
		return nil, 0, err
	}
	downloadDur := time.Since(start)

	if len(data) == 0 {
		return nil, 0, fault.Errorf(fault.KindBadRequest, "source %s returned an empty body", source)
	}

	if err := p.store.StoreSource(key, data); err != nil {
		return nil, 0, err
	}
	log.Info().Str("key", key).Int("bytes", len(data)).Msg("source cached")

	return data, downloadDur, nil
}

// transformBlocking is the CPU-bound slice of the pipeline and always runs
// inside the worker pool.
func (p *Processor) transformBlocking(src []byte, req domain.TransformRequest, out *codec.Output) ([]domain.StageTiming, error) {
	timings := make([]domain.StageTiming, 0, 3)

	decodeStart := time.Now()
	img, err := p.codec.Decode(src)
	if err != nil {
		return nil, err
	}
	timings = append(timings, domain.StageTiming{Step: stepDecode, Duration: time.Since(decodeStart)})

	resizeStart := time.Now()
	bounds := img.Bounds()
	dims := domain.CalculateResizedDimensions(uint32(bounds.Dx()), uint32(bounds.Dy()), req.TallestSide)
	if dims.Width == 0 || dims.Height == 0 {
		return nil, fault.Errorf(fault.KindResize, "source %dx%d has nothing to resize", bounds.Dx(), bounds.Dy())
	}
	resized := resample(img, dims)
	timings = append(timings, domain.StageTiming{Step: stepResize, Duration: time.Since(resizeStart)})

	encodeStart := time.Now()
	if err := p.codec.Encode(resized, req.Format, out); err != nil {
		return nil, err
	}
	timings = append(timings, domain.StageTiming{Step: stepEncode, Duration: time.Since(encodeStart)})

	return timings, nil
}

func (p *Processor) observeTimings(timings []domain.StageTiming) {
	for _, t := range timings {
		p.metrics.stageDuration.WithLabelValues(t.Step).Observe(t.Duration.Seconds())
	}
}

func logTimings(key, filename string, timings []domain.StageTiming) {
	evt := log.Info().Str("key", key).Str("filename", filename)
	for _, t := range timings {
		evt = evt.Float64(t.Step+"_ms", t.DurationMS())
	}
	evt.Msg("transform complete")
}
