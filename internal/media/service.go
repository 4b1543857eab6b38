// Package media stores uploaded assets (images, documents) in an
// S3-compatible bucket via MinIO.
package media

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"folio/api/internal/util"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// allowedTypes maps accepted upload content types to file extensions.
var allowedTypes = map[string]string{
	"image/png":       ".png",
	"image/jpeg":      ".jpg",
	"image/webp":      ".webp",
	"image/gif":       ".gif",
	"image/svg+xml":   ".svg",
	"application/pdf": ".pdf",
}

type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type Service struct {
	client *minio.Client
	bucket string
}

// Upload is the stored-object descriptor returned to the admin UI.
type Upload struct {
	Key         string `json:"key"`
	URL         string `json:"url"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
}

// New connects to MinIO and makes sure the bucket exists.
func New(ctx context.Context, cfg Config) (*Service, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to minio: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", cfg.Bucket, err)
		}
	}

	return &Service{client: client, bucket: cfg.Bucket}, nil
}

// Store uploads an asset and returns its descriptor. The original
// filename only contributes a sanitized base name; the key is unique.
func (s *Service) Store(ctx context.Context, filename, contentType string, reader io.Reader, size int64) (Upload, error) {
	ext, ok := allowedTypes[contentType]
	if !ok {
		return Upload{}, fmt.Errorf("unsupported content type %q", contentType)
	}

	key := fmt.Sprintf("uploads/%s/%s-%s%s",
		time.Now().UTC().Format("2006/01"),
		sanitizeBaseName(filename),
		util.NewID(""),
		ext,
	)

	info, err := s.client.PutObject(ctx, s.bucket, key, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return Upload{}, fmt.Errorf("put object %s: %w", key, err)
	}

	return Upload{
		Key:         key,
		URL:         "/" + path.Join(s.bucket, key),
		ContentType: contentType,
		Size:        info.Size,
	}, nil
}

// PresignedURL produces a short-lived direct download link.
func (s *Service) PresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, expiry, nil)
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", key, err)
	}
	return u.String(), nil
}

func sanitizeBaseName(filename string) string {
	base := strings.TrimSuffix(path.Base(filename), path.Ext(filename))
	var b strings.Builder
	for _, r := range strings.ToLower(base) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '-', r == '_':
			b.WriteByte('-')
		}
	}
	out := strings.Trim(b.String(), "-")
	if out == "" {
		return "asset"
	}
	if len(out) > 40 {
		out = out[:40]
	}
	return out
}
