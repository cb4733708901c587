// Package gallery keeps a browsable copy of a container's images with
// selection and confirmed deletion.
package gallery

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/radif/imagehub/internal/filex"
	"github.com/radif/imagehub/internal/gateway"
)

const DefaultMaxImages = 20

var (
	ErrNotSelectable = errors.New("gallery does not allow selection")
	ErrNotDeletable  = errors.New("gallery does not allow deletion")
	ErrDeclined      = errors.New("deletion was not confirmed")
)

// Backend is the subset of the gateway the browser needs.
type Backend interface {
	List(ctx context.Context, container string, max int) gateway.Result
	Delete(ctx context.Context, url, container string) gateway.Result
}

// Options configures a Browser.
type Options struct {
	Container  string
	MaxImages  int
	Selectable bool
	ReadOnly   bool
	Logger     *slog.Logger

	OnSelect func(ctx context.Context, url string)
}

// Image is a displayed gallery entry.
type Image struct {
	gateway.StoredImage
	SizeLabel string `json:"sizeLabel"`
}

// Snapshot is a point-in-time copy of the browser.
type Snapshot struct {
	Images   []Image `json:"images"`
	Selected string  `json:"selected,omitempty"`
	Loaded   bool    `json:"loaded"`
	Error    string  `json:"error,omitempty"`
}

// Browser mirrors the result of the last successful list call.
type Browser struct {
	backend Backend
	opts    Options

	mu       sync.Mutex
	images   []gateway.StoredImage
	selected string
	loaded   bool
	errMsg   string
}

// New creates a Browser. Nothing is fetched until Refresh or Run.
func New(backend Backend, opts Options) *Browser {
	if opts.MaxImages <= 0 {
		opts.MaxImages = DefaultMaxImages
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Browser{backend: backend, opts: opts}
}

// Refresh replaces the displayed set with a fresh listing. On failure the
// previous set is kept and the error recorded.
func (b *Browser) Refresh(ctx context.Context) error {
	res := b.backend.List(ctx, b.opts.Container, b.opts.MaxImages)

	b.mu.Lock()
	defer b.mu.Unlock()
	if !res.Success {
		b.errMsg = res.Error
		if b.errMsg == "" {
			b.errMsg = "Failed to load images"
		}
		return res.Err()
	}
	b.images = slices.Clone(res.Images)
	b.loaded = true
	b.errMsg = ""
	return nil
}

// Run refreshes on every tick until ctx ends. A non-positive interval only
// performs the initial refresh.
func (b *Browser) Run(ctx context.Context, interval time.Duration) {
	if err := b.Refresh(ctx); err != nil {
		b.opts.Logger.WarnContext(ctx, "gallery refresh failed", "container", b.opts.Container, "error", err)
	}
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := b.Refresh(ctx); err != nil {
				b.opts.Logger.WarnContext(ctx, "gallery refresh failed", "container", b.opts.Container, "error", err)
			}
		}
	}
}

// Images returns the displayed set.
func (b *Browser) Images() []gateway.StoredImage {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.images)
}

// Select marks url as the single selected image and reports it.
func (b *Browser) Select(ctx context.Context, url string) error {
	if !b.opts.Selectable {
		return ErrNotSelectable
	}
	b.mu.Lock()
	b.selected = url
	b.mu.Unlock()

	if b.opts.OnSelect != nil {
		b.opts.OnSelect(ctx, url)
	}
	return nil
}

// Selected returns the selected URL, or "" when none is.
func (b *Browser) Selected() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.selected
}

// Delete removes url after confirm approves it. A confirmed deletion drops
// the image from the displayed set without refetching; a failed one leaves
// the set untouched.
func (b *Browser) Delete(ctx context.Context, url string, confirm func(url string) bool) error {
	if b.opts.ReadOnly {
		return ErrNotDeletable
	}
	if confirm != nil && !confirm(url) {
		return ErrDeclined
	}

	res := b.backend.Delete(ctx, url, b.opts.Container)

	b.mu.Lock()
	defer b.mu.Unlock()
	if !res.Success {
		b.errMsg = "Failed to delete image: " + res.Error
		return res.Err()
	}
	b.images = slices.DeleteFunc(b.images, func(img gateway.StoredImage) bool { return img.URL == url })
	if b.selected == url {
		b.selected = ""
	}
	b.errMsg = ""
	return nil
}

// Snapshot returns a copy of the browser state.
func (b *Browser) Snapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	images := make([]Image, len(b.images))
	for i, img := range b.images {
		images[i] = Image{StoredImage: img, SizeLabel: filex.FormatSize(img.SizeBytes)}
	}
	return Snapshot{Images: images, Selected: b.selected, Loaded: b.loaded, Error: b.errMsg}
}
