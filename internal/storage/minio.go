package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioStorage implements Storage using a MinIO (or any S3-compatible) backend.
// Each container maps to one bucket.
type MinioStorage struct {
	client     *minio.Client
	region     string
	publicBase string
}

// NewMinioStorage creates a MinIO client. Buckets are created on demand by EnsureContainer.
func NewMinioStorage(endpoint, accessKey, secretKey, region, publicBase string, useSSL bool) (*MinioStorage, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	return &MinioStorage{
		client:     client,
		region:     region,
		publicBase: publicBase,
	}, nil
}

// EnsureContainer creates the bucket with a public-read policy when it is missing.
// A concurrent creator winning the race is treated as success.
func (s *MinioStorage) EnsureContainer(ctx context.Context, container string) error {
	exists, err := s.client.BucketExists(ctx, container)
	if err != nil {
		return fmt.Errorf("check bucket existence: %w", err)
	}
	if exists {
		return nil
	}

	if err := s.client.MakeBucket(ctx, container, minio.MakeBucketOptions{Region: s.region}); err != nil {
		code := minio.ToErrorResponse(err).Code
		if code != "BucketAlreadyOwnedByYou" && code != "BucketAlreadyExists" {
			return fmt.Errorf("create bucket %q: %w", container, err)
		}
	}
	slog.Info("storage: created bucket", "bucket", container)

	if err := s.client.SetBucketPolicy(ctx, container, publicReadPolicy(container)); err != nil {
		return fmt.Errorf("set bucket policy: %w", err)
	}
	return nil
}

// Put streams reader to MinIO under key. size must be the exact byte count
// (-1 makes MinIO buffer the stream).
func (s *MinioStorage) Put(ctx context.Context, container, key string, reader io.Reader, size int64, contentType string) error {
	_, err := s.client.PutObject(ctx, container, key, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("put object %q: %w", key, err)
	}
	return nil
}

// Remove deletes the object. S3 deletes are silent for missing keys, so the
// object is stat'ed first to report ErrObjectNotFound.
func (s *MinioStorage) Remove(ctx context.Context, container, key string) error {
	if _, err := s.Stat(ctx, container, key); err != nil {
		return err
	}
	if err := s.client.RemoveObject(ctx, container, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove object %q: %w", key, err)
	}
	return nil
}

// Keys returns up to max object names in listing order.
func (s *MinioStorage) Keys(ctx context.Context, container string, max int) ([]string, error) {
	if max <= 0 {
		return nil, nil
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	keys := make([]string, 0, max)
	for obj := range s.client.ListObjects(ctx, container, minio.ListObjectsOptions{Recursive: true}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("list objects in %q: %w", container, obj.Err)
		}
		if len(keys) >= max {
			break
		}
		keys = append(keys, obj.Key)
	}
	return keys, nil
}

// Stat fetches object metadata.
func (s *MinioStorage) Stat(ctx context.Context, container, key string) (ObjectInfo, error) {
	info, err := s.client.StatObject(ctx, container, key, minio.StatObjectOptions{})
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return ObjectInfo{}, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
		}
		return ObjectInfo{}, fmt.Errorf("stat object %q: %w", key, err)
	}
	return ObjectInfo{Key: key, ContentType: info.ContentType, Size: info.Size}, nil
}

// ObjectURL returns the browser-accessible URL for the given key.
// For local MinIO: "http://localhost:9000/product-dashboard/1700000000000-42.png"
func (s *MinioStorage) ObjectURL(container, key string) string {
	return objectURL(s.publicBase, container, key)
}

var _ Storage = (*MinioStorage)(nil)
