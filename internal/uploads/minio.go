// Package uploads stores user images in S3-compatible object storage.
package uploads

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"tablecraft/api/internal/util"
)

type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	// PublicURL is the base under which stored objects are reachable.
	// Defaults to the endpoint itself.
	PublicURL string
}

type Store struct {
	client *minio.Client
	config Config
}

var allowedImageTypes = map[string]string{
	"image/jpeg":    ".jpg",
	"image/png":     ".png",
	"image/gif":     ".gif",
	"image/webp":    ".webp",
	"image/svg+xml": ".svg",
}

func NewStore(config Config) (*Store, error) {
	client, err := minio.New(config.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(config.AccessKey, config.SecretKey, ""),
		Secure: config.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create object storage client: %w", err)
	}
	if config.PublicURL == "" {
		scheme := "http"
		if config.UseSSL {
			scheme = "https"
		}
		config.PublicURL = scheme + "://" + config.Endpoint
	}
	return &Store{client: client, config: config}, nil
}

// EnsureBucket creates the bucket if it does not exist yet.
func (s *Store) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.config.Bucket)
	if err != nil {
		return fmt.Errorf("check bucket: %w", err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.config.Bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("create bucket: %w", err)
	}
	return nil
}

// SaveImage stores an uploaded image under a fresh object key and
// returns its public URL. Rejects content types outside the image
// allowlist.
func (s *Store) SaveImage(ctx context.Context, restaurantID, contentType string, body io.Reader, size int64) (string, error) {
	ext, ok := allowedImageTypes[contentType]
	if !ok {
		return "", fmt.Errorf("unsupported image type %q", contentType)
	}

	objectKey := path.Join(restaurantID, util.NewID("img")+ext)
	_, err := s.client.PutObject(ctx, s.config.Bucket, objectKey, body, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("store image: %w", err)
	}

	return strings.TrimRight(s.config.PublicURL, "/") + "/" + s.config.Bucket + "/" + objectKey, nil
}

// DeleteImage removes a previously stored object.
func (s *Store) DeleteImage(ctx context.Context, objectKey string) error {
	if err := s.client.RemoveObject(ctx, s.config.Bucket, objectKey, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("delete image: %w", err)
	}
	return nil
}
