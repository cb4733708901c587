// Package storage defines the interface for object storage operations.
// Swap implementations by changing the driver selected at startup.
// The MinIO implementation works with any S3-compatible provider, the S3
// implementation uses the AWS SDK, and the local one writes to disk.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
)

// ErrObjectNotFound is returned when an object does not exist in its container.
var ErrObjectNotFound = errors.New("object not found")

// ErrNotConfigured is returned when the store credentials are missing.
var ErrNotConfigured = errors.New("storage connection is not configured")

// ObjectInfo is the metadata the store reports for one object.
type ObjectInfo struct {
	Key         string
	ContentType string
	Size        int64
}

// Storage is the interface for container-scoped object operations.
type Storage interface {
	// EnsureContainer creates the container with anonymous read access if it does not exist.
	EnsureContainer(ctx context.Context, container string) error
	// Put streams data to the store under the given key.
	Put(ctx context.Context, container, key string, reader io.Reader, size int64, contentType string) error
	// Remove deletes an object; ErrObjectNotFound if it is missing.
	Remove(ctx context.Context, container, key string) error
	// Keys lists at most max object names in the store's native order.
	Keys(ctx context.Context, container string, max int) ([]string, error)
	// Stat returns the content type and size of an object.
	Stat(ctx context.Context, container, key string) (ObjectInfo, error)
	// ObjectURL constructs the browser-accessible URL for a given key.
	ObjectURL(container, key string) string
}

// objectURL joins base, container and key, escaping each path segment.
func objectURL(base, container, key string) string {
	return strings.TrimRight(base, "/") + "/" + url.PathEscape(container) + "/" + url.PathEscape(key)
}

// publicReadPolicy returns an S3 bucket policy JSON that allows anonymous GET on all objects.
func publicReadPolicy(bucket string) string {
	policy := map[string]interface{}{
		"Version": "2012-10-17",
		"Statement": []map[string]interface{}{
			{
				"Effect":    "Allow",
				"Principal": "*",
				"Action":    "s3:GetObject",
				"Resource":  fmt.Sprintf("arn:aws:s3:::%s/*", bucket),
			},
		},
	}
	b, _ := json.Marshal(policy)
	return string(b)
}
