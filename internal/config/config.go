package config

import (
	"os"
	"runtime"
	"strconv"
)

type Config struct {
	API      APIConfig
	Cache    CacheConfig
	Pipeline PipelineConfig
	Storage  StorageConfig
	Trace    TraceConfig
	LogLevel string
}

type APIConfig struct {
	Addr string
}

type CacheConfig struct {
	Dir string
}

type PipelineConfig struct {
	DefaultFormat string
	WorkerSlots   int
	// DedupeInFlight collapses concurrent identical transforms into one
	// computation. Off by default: followers then redo the work and the
	// last write wins.
	DedupeInFlight  bool
	DownloadTimeout int
}

// StorageConfig is the optional S3-compatible store for s3:// sources.
type StorageConfig struct {
	Enabled   bool
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

type TraceConfig struct {
	Exporter     string
	OTLPEndpoint string
	OTLPInsecure bool
}

func Load() Config {
	return Config{
		API: APIConfig{
			Addr: env("IMAGECASK_ADDR", ":8080"),
		},
		Cache: CacheConfig{
			Dir: env("IMAGECASK_CACHE_DIR", "images"),
		},
		Pipeline: PipelineConfig{
			DefaultFormat:   env("IMAGECASK_DEFAULT_FORMAT", "avif"),
			WorkerSlots:     envInt("IMAGECASK_WORKER_SLOTS", max(1, runtime.NumCPU()/2)),
			DedupeInFlight:  envBool("IMAGECASK_DEDUPE_IN_FLIGHT", false),
			DownloadTimeout: envInt("IMAGECASK_DOWNLOAD_TIMEOUT_SECONDS", 30),
		},
		Storage: StorageConfig{
			Enabled:   envBool("IMAGECASK_S3_ENABLED", false),
			Endpoint:  env("IMAGECASK_S3_ENDPOINT", "localhost:9000"),
			AccessKey: env("IMAGECASK_S3_ACCESS_KEY", ""),
			SecretKey: env("IMAGECASK_S3_SECRET_KEY", ""),
			UseSSL:    envBool("IMAGECASK_S3_USE_SSL", false),
		},
		Trace: TraceConfig{
			Exporter:     env("IMAGECASK_TRACE_EXPORTER", "none"),
			OTLPEndpoint: env("IMAGECASK_TRACE_OTLP_ENDPOINT", ""),
			OTLPInsecure: envBool("IMAGECASK_TRACE_OTLP_INSECURE", false),
		},
		LogLevel: env("IMAGECASK_LOG_LEVEL", "info"),
	}
}

func env(key, fallback string) string {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}
	return value
}

func envInt(key string, fallback int) int {
	value := env(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envBool(key string, fallback bool) bool {
	value := env(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}
