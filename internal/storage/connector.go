package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/radif/imagehub/internal/config"
)

// Connector resolves the Storage used for a single gateway call.
type Connector interface {
	Connect(ctx context.Context) (Storage, error)
}

// ConnectorFunc adapts a function to Connector.
type ConnectorFunc func(ctx context.Context) (Storage, error)

func (f ConnectorFunc) Connect(ctx context.Context) (Storage, error) { return f(ctx) }

// Static returns a Connector that always yields s.
func Static(s Storage) Connector {
	return ConnectorFunc(func(context.Context) (Storage, error) { return s, nil })
}

// LazyConnector opens the configured driver on first use and memoises the
// client. Failures are not memoised, so every call re-checks the configuration.
type LazyConnector struct {
	mu    sync.Mutex
	open  func(ctx context.Context) (Storage, error)
	store Storage
}

// NewConnector returns a LazyConnector for the configured driver.
func NewConnector(cfg config.StorageConfig) *LazyConnector {
	return &LazyConnector{open: func(ctx context.Context) (Storage, error) {
		return Open(ctx, cfg)
	}}
}

// Connect returns the cached store or opens a new one.
func (c *LazyConnector) Connect(ctx context.Context) (Storage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store != nil {
		return c.store, nil
	}
	s, err := c.open(ctx)
	if err != nil {
		return nil, err
	}
	c.store = s
	return s, nil
}

// Open builds the Storage for cfg.Driver. Missing credentials yield ErrNotConfigured.
func Open(ctx context.Context, cfg config.StorageConfig) (Storage, error) {
	switch cfg.Driver {
	case config.DriverMinio, "":
		if cfg.AccessKey == "" || cfg.SecretKey == "" {
			return nil, ErrNotConfigured
		}
		return NewMinioStorage(cfg.Endpoint, cfg.AccessKey, cfg.SecretKey, cfg.Region, cfg.PublicBase, cfg.UseSSL)
	case config.DriverS3:
		if cfg.AccessKey == "" || cfg.SecretKey == "" {
			return nil, ErrNotConfigured
		}
		return NewS3Storage(ctx, cfg.Endpoint, cfg.Region, cfg.AccessKey, cfg.SecretKey, cfg.PublicBase)
	case config.DriverLocal:
		return NewLocalStorage(cfg.LocalDir, cfg.PublicBase)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
