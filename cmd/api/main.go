package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/imagecask/imagecask/internal/api"
	"github.com/imagecask/imagecask/internal/cache"
	"github.com/imagecask/imagecask/internal/codec"
	"github.com/imagecask/imagecask/internal/config"
	"github.com/imagecask/imagecask/internal/domain"
	"github.com/imagecask/imagecask/internal/fetch"
	"github.com/imagecask/imagecask/internal/pipeline"
	"github.com/imagecask/imagecask/internal/storage"
	"github.com/imagecask/imagecask/internal/telemetry"
	"github.com/imagecask/imagecask/internal/worker"
)

func main() {
	cfg := config.Load()
	setupLogging(cfg.LogLevel)

	ctx := context.Background()
	shutdownTracing, err := telemetry.SetupTracing(ctx, telemetry.TraceConfig{
		ServiceName:  "imagecask",
		Exporter:     cfg.Trace.Exporter,
		OTLPEndpoint: cfg.Trace.OTLPEndpoint,
		OTLPInsecure: cfg.Trace.OTLPInsecure,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("tracing setup failed")
	}

	defaultFormat, err := domain.ParseFormat(cfg.Pipeline.DefaultFormat)
	if err != nil {
		log.Fatal().Err(err).Str("format", cfg.Pipeline.DefaultFormat).Msg("invalid default format")
	}

	store, err := cache.NewStore(cfg.Cache.Dir)
	if err != nil {
		log.Fatal().Err(err).Str("dir", cfg.Cache.Dir).Msg("cache store setup failed")
	}

	fetcher, err := buildFetcher(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("fetcher setup failed")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	processor := pipeline.NewProcessor(
		store,
		fetcher,
		codec.Registry{},
		worker.NewPool(cfg.Pipeline.WorkerSlots),
		pipeline.NewMetrics(registry),
		cfg.Pipeline.DedupeInFlight,
	)

	app := api.NewServer(processor, defaultFormat, registry)

	httpServer := &http.Server{
		Addr:         cfg.API.Addr,
		Handler:      app.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().
			Str("addr", cfg.API.Addr).
			Str("cache_dir", cfg.Cache.Dir).
			Str("default_format", defaultFormat.String()).
			Int("worker_slots", cfg.Pipeline.WorkerSlots).
			Bool("dedupe_in_flight", cfg.Pipeline.DedupeInFlight).
			Msg("listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	log.Info().Msg("shutting down")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("tracing shutdown failed")
	}
}

func buildFetcher(cfg config.Config) (fetch.Fetcher, error) {
	httpFetcher := fetch.NewHTTPFetcher(time.Duration(cfg.Pipeline.DownloadTimeout) * time.Second)

	var objectFetcher fetch.Fetcher
	if cfg.Storage.Enabled {
		client, err := storage.NewClient(storage.Config{
			Endpoint: cfg.Storage.Endpoint,
			Access:   cfg.Storage.AccessKey,
			Secret:   cfg.Storage.SecretKey,
			UseSSL:   cfg.Storage.UseSSL,
		})
		if err != nil {
			return nil, err
		}
		objectFetcher = fetch.NewObjectFetcher(client)
	}

	return fetch.NewRouter(httpFetcher, objectFetcher), nil
}

func setupLogging(level string) {
	parsed, err := zerolog.ParseLevel(level)
	if err != nil {
		parsed = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(parsed)
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs
	log.Logger = log.Output(os.Stdout)
}
