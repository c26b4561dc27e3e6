// Package storage wraps the S3-compatible object store some deployments
// keep their source images in. The transform service only ever reads from
// it; transformed output always lands on the local cache disk.
package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type Config struct {
	Endpoint string
	Access   string
	Secret   string
	UseSSL   bool
}

type Client struct {
	minio *minio.Client
}

func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.Endpoint) == "" {
		return nil, fmt.Errorf("endpoint is required")
	}

	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.Access, cfg.Secret, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	return &Client{minio: mc}, nil
}

func (c *Client) ReadObject(ctx context.Context, bucket, objectKey string) ([]byte, error) {
	obj, err := c.minio.GetObject(ctx, bucket, objectKey, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get object %s/%s: %w", bucket, objectKey, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("read object %s/%s: %w", bucket, objectKey, err)
	}
	return data, nil
}

func (c *Client) ObjectExists(ctx context.Context, bucket, objectKey string) (bool, error) {
	_, err := c.minio.StatObject(ctx, bucket, objectKey, minio.StatObjectOptions{})
	if err == nil {
		return true, nil
	}

	resp := minio.ToErrorResponse(err)
	if resp.Code == "NoSuchKey" || resp.Code == "NoSuchObject" || resp.Code == "NoSuchBucket" {
		return false, nil
	}
	return false, fmt.Errorf("stat object %s/%s: %w", bucket, objectKey, err)
}
