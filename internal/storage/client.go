package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"subburn/internal/config"
	"subburn/internal/logging"
)

// Client uploads files to a single bucket.
type Client struct {
	api        *minio.Client
	endpoint   string
	bucket     string
	prefix     string
	useSSL     bool
	publicBase string
	logger     *slog.Logger
	now        func() time.Time
}

// New builds a Client from the storage section of cfg.
func New(cfg config.Storage, logger *slog.Logger) (*Client, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, errors.New("storage: endpoint not configured")
	}
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, errors.New("storage: bucket not configured")
	}
	api, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("storage: create client: %w", err)
	}
	return &Client{
		api:        api,
		endpoint:   endpoint,
		bucket:     strings.TrimSpace(cfg.Bucket),
		prefix:     cfg.Prefix,
		useSSL:     cfg.UseSSL,
		publicBase: strings.TrimRight(strings.TrimSpace(cfg.PublicBaseURL), "/"),
		logger:     logging.NewComponentLogger(logger, "storage"),
		now:        time.Now,
	}, nil
}

// Upload stores localPath as a publicly readable object and returns its link.
func (c *Client) Upload(ctx context.Context, localPath, sessionID, name string) (string, error) {
	key := ObjectKey(c.prefix, sessionID, name, c.now())
	info, err := c.api.FPutObject(ctx, c.bucket, key, localPath, minio.PutObjectOptions{
		ContentType:  "video/mp4",
		UserMetadata: map[string]string{"x-amz-acl": "public-read"},
	})
	if err != nil {
		return "", fmt.Errorf("put object %s/%s: %w", c.bucket, key, err)
	}
	link := c.PublicURL(key)
	logging.WithContext(ctx, c.logger).Info("object uploaded",
		logging.String("bucket", c.bucket),
		logging.String("key", key),
		logging.Int64("size_bytes", info.Size),
		logging.String(logging.FieldEventType, "object_uploaded"),
	)
	return link, nil
}

// PublicURL returns the anonymous link for key, preferring public_base_url.
func (c *Client) PublicURL(key string) string {
	escaped := escapeKey(key)
	if c.publicBase != "" {
		return c.publicBase + "/" + escaped
	}
	scheme := "http"
	if c.useSSL {
		scheme = "https"
	}
	return (&url.URL{Scheme: scheme, Host: c.endpoint, Path: "/" + c.bucket + "/" + key, RawPath: "/" + c.bucket + "/" + escaped}).String()
}

// Check verifies the bucket exists and the credentials can see it.
func (c *Client) Check(ctx context.Context) error {
	ok, err := c.api.BucketExists(ctx, c.bucket)
	if err != nil {
		return fmt.Errorf("bucket %s: %w", c.bucket, err)
	}
	if !ok {
		return fmt.Errorf("bucket %s does not exist", c.bucket)
	}
	return nil
}

// Bucket returns the configured bucket name.
func (c *Client) Bucket() string {
	return c.bucket
}

func escapeKey(key string) string {
	segments := strings.Split(key, "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	return strings.Join(segments, "/")
}
