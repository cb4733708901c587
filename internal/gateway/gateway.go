// Package gateway translates image intents into object-store operations.
// Every operation returns a tagged Result; nothing from the store escapes as
// a Go error or panic.
package gateway

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/radif/imagehub/internal/storage"
)

const (
	defaultMaxResults = 50
	statConcurrency   = 8
)

// Gateway performs upload, delete and list against the configured store.
type Gateway struct {
	conn         storage.Connector
	log          *slog.Logger
	observer     Observer
	cache        *ListCache
	invalidators []Invalidator
	defaultMax   int
	now          func() time.Time
	randomSuffix func() int
}

// Option customises a Gateway.
type Option func(*Gateway)

// WithLogger sets the logger used for failures.
func WithLogger(l *slog.Logger) Option {
	return func(g *Gateway) { g.log = l }
}

// WithObserver records metrics for every operation.
func WithObserver(o Observer) Option {
	return func(g *Gateway) { g.observer = o }
}

// WithListCache serves repeated listings from c and invalidates it on writes.
func WithListCache(c *ListCache) Option {
	return func(g *Gateway) {
		if c == nil {
			return
		}
		g.cache = c
		g.invalidators = append(g.invalidators, c)
	}
}

// WithInvalidator registers an extra "data changed" listener for writes.
func WithInvalidator(i Invalidator) Option {
	return func(g *Gateway) { g.invalidators = append(g.invalidators, i) }
}

// WithDefaultMaxResults sets the list limit used when callers pass max <= 0.
func WithDefaultMaxResults(n int) Option {
	return func(g *Gateway) {
		if n > 0 {
			g.defaultMax = n
		}
	}
}

// New creates a Gateway over conn.
func New(conn storage.Connector, opts ...Option) *Gateway {
	g := &Gateway{
		conn:         conn,
		log:          slog.Default(),
		observer:     nopObserver{},
		defaultMax:   defaultMaxResults,
		now:          time.Now,
		randomSuffix: func() int { return rand.IntN(1000) },
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Upload stores data under a freshly generated name in container and returns its URL.
// The container is created with public-read access on first use.
func (g *Gateway) Upload(ctx context.Context, data []byte, fileName, contentType, container string) Result {
	start := time.Now()
	res := g.upload(ctx, data, fileName, contentType, container)
	g.observer.RecordUpload(time.Since(start), len(data), !res.Success)
	return res
}

func (g *Gateway) upload(ctx context.Context, data []byte, fileName, contentType, container string) Result {
	if container == "" {
		return failure(KindMalformed, "container name is required")
	}
	store, res, ok := g.connect(ctx, "upload")
	if !ok {
		return res
	}

	if err := store.EnsureContainer(ctx, container); err != nil {
		return g.storeFailure(ctx, "upload", err, "container", container)
	}

	name := objectName(g.now(), g.randomSuffix(), fileName)
	if err := store.Put(ctx, container, name, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		return g.storeFailure(ctx, "upload", err, "container", container, "name", name)
	}

	g.invalidate(container)
	g.log.InfoContext(ctx, "image uploaded", "container", container, "name", name, "size", len(data))
	return Result{Success: true, URL: store.ObjectURL(container, name)}
}

// Delete removes the object whose name is the final path segment of url.
func (g *Gateway) Delete(ctx context.Context, url, container string) Result {
	start := time.Now()
	res := g.delete(ctx, url, container)
	g.observer.RecordDelete(time.Since(start), !res.Success)
	return res
}

func (g *Gateway) delete(ctx context.Context, url, container string) Result {
	name, ok := nameFromURL(url)
	if !ok {
		g.log.WarnContext(ctx, "delete rejected", "url", url, "error", "invalid blob URL")
		return failure(KindMalformed, "invalid blob URL")
	}
	if container == "" {
		return failure(KindMalformed, "container name is required")
	}
	store, res, ok := g.connect(ctx, "delete")
	if !ok {
		return res
	}

	if err := store.Remove(ctx, container, name); err != nil {
		return g.storeFailure(ctx, "delete", err, "container", container, "name", name)
	}

	g.invalidate(container)
	g.log.InfoContext(ctx, "image deleted", "container", container, "name", name)
	return Result{Success: true}
}

// List returns up to max images from container in the store's listing order.
// max counts enumerated objects, so non-image objects use up slots.
func (g *Gateway) List(ctx context.Context, container string, max int) Result {
	start := time.Now()
	res := g.list(ctx, container, max)
	g.observer.RecordList(time.Since(start), !res.Success)
	return res
}

func (g *Gateway) list(ctx context.Context, container string, max int) Result {
	if container == "" {
		return failure(KindMalformed, "container name is required")
	}
	if max <= 0 {
		max = g.defaultMax
	}
	if g.cache != nil {
		if images, ok := g.cache.get(container, max); ok {
			return Result{Success: true, Images: images}
		}
	}

	store, res, ok := g.connect(ctx, "list")
	if !ok {
		return res
	}

	keys, err := store.Keys(ctx, container, max)
	if err != nil {
		return g.storeFailure(ctx, "list", err, "container", container)
	}

	infos := make([]storage.ObjectInfo, len(keys))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(statConcurrency)
	for i, key := range keys {
		eg.Go(func() error {
			info, err := store.Stat(egCtx, container, key)
			if err != nil {
				return err
			}
			infos[i] = info
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return g.storeFailure(ctx, "list", err, "container", container)
	}

	images := make([]StoredImage, 0, len(infos))
	for _, info := range infos {
		if !isImage(info.Key, info.ContentType) {
			continue
		}
		ct := info.ContentType
		if ct == "" {
			ct = "unknown"
		}
		images = append(images, StoredImage{
			Name:        info.Key,
			URL:         store.ObjectURL(container, info.Key),
			ContentType: ct,
			SizeBytes:   info.Size,
		})
	}

	if g.cache != nil {
		g.cache.put(container, max, images)
	}
	return Result{Success: true, Images: images}
}

func (g *Gateway) connect(ctx context.Context, op string) (storage.Storage, Result, bool) {
	store, err := g.conn.Connect(ctx)
	if err == nil {
		return store, Result{}, true
	}
	// The caller only ever sees the generic message; the cause stays in the log.
	g.log.ErrorContext(ctx, "storage connect failed", "operation", op, "error", err)
	return nil, failure(KindConfig, storage.ErrNotConfigured.Error()), false
}

func (g *Gateway) storeFailure(ctx context.Context, op string, err error, attrs ...any) Result {
	g.log.ErrorContext(ctx, "gateway "+op+" failed", append(attrs, "error", err)...)
	if errors.Is(err, storage.ErrObjectNotFound) {
		return failure(KindNotFound, err.Error())
	}
	return failure(KindStore, err.Error())
}

func (g *Gateway) invalidate(container string) {
	for _, inv := range g.invalidators {
		inv.Invalidate(container)
	}
}
