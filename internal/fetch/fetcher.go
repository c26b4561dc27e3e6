// Package fetch retrieves source images. HTTP and HTTPS sources go over a
// shared http.Client; s3:// sources go through the object store client when
// one is configured.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/imagecask/imagecask/internal/fault"
	"github.com/imagecask/imagecask/internal/storage"
)

// Fetcher issues one GET for a source identifier and returns the raw bytes.
type Fetcher interface {
	Fetch(ctx context.Context, source string) ([]byte, error)
}

type HTTPFetcher struct {
	client *http.Client
}

func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	return &HTTPFetcher{
		client: &http.Client{Timeout: timeout},
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, source string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, fault.New(fault.KindDownload, fmt.Errorf("build request: %w", err))
	}

	res, err := f.client.Do(req)
	if err != nil {
		return nil, fault.New(fault.KindDownload, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fault.Errorf(fault.KindDownload, "unexpected status code %d", res.StatusCode)
	}

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fault.New(fault.KindDownload, fmt.Errorf("read response body: %w", err))
	}
	return data, nil
}

// ObjectFetcher resolves s3://bucket/key sources against the object store.
type ObjectFetcher struct {
	client *storage.Client
}

func NewObjectFetcher(client *storage.Client) *ObjectFetcher {
	return &ObjectFetcher{client: client}
}

func (f *ObjectFetcher) Fetch(ctx context.Context, source string) ([]byte, error) {
	bucket, key, err := splitObjectSource(source)
	if err != nil {
		return nil, fault.New(fault.KindDownload, err)
	}

	data, err := f.client.ReadObject(ctx, bucket, key)
	if err != nil {
		return nil, fault.New(fault.KindDownload, err)
	}
	return data, nil
}

func splitObjectSource(source string) (bucket, key string, err error) {
	u, err := url.Parse(source)
	if err != nil {
		return "", "", fmt.Errorf("parse object source: %w", err)
	}
	key = strings.TrimPrefix(u.Path, "/")
	if u.Host == "" || key == "" {
		return "", "", fmt.Errorf("object source %q must look like s3://bucket/key", source)
	}
	return u.Host, key, nil
}

// Router picks a fetcher by source scheme. Without a configured object
// store every source is treated as an HTTP URL.
type Router struct {
	http   Fetcher
	object Fetcher
}

func NewRouter(httpFetcher, objectFetcher Fetcher) *Router {
	return &Router{http: httpFetcher, object: objectFetcher}
}

func (r *Router) Fetch(ctx context.Context, source string) ([]byte, error) {
	if strings.HasPrefix(source, "s3://") {
		if r.object == nil {
			return nil, fault.Errorf(fault.KindDownload, "no object store configured for source %q", source)
		}
		return r.object.Fetch(ctx, source)
	}
	return r.http.Fetch(ctx, source)
}
