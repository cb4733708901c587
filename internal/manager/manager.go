// Package manager composes the upload widgets and the gallery browser into
// the tabbed manager and the submit-driven forms.
package manager

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/radif/imagehub/internal/gallery"
	"github.com/radif/imagehub/internal/upload"
)

// Backend is everything the compositions need from the gateway.
type Backend interface {
	upload.Uploader
	gallery.Backend
}

// View is the active manager tab.
type View string

const (
	ViewGallery View = "gallery"
	ViewUpload  View = "upload"
)

var ErrUnknownView = errors.New("view must be gallery or upload")

// ParseView validates a tab name.
func ParseView(s string) (View, error) {
	switch v := View(s); v {
	case ViewGallery, ViewUpload:
		return v, nil
	}
	return "", ErrUnknownView
}

// Options configures the manager and the forms.
type Options struct {
	Container        string
	Policy           upload.Policy
	MaxFiles         int
	MaxImages        int
	Selectable       bool
	InitialView      View
	ProgressInterval time.Duration
	Logger           *slog.Logger
}

// ManagerSnapshot is a point-in-time copy of a Manager.
type ManagerSnapshot struct {
	View    View                  `json:"view"`
	Upload  upload.SingleSnapshot `json:"upload"`
	Gallery gallery.Snapshot      `json:"gallery"`
}

// Manager switches between a gallery tab and an auto-uploading widget tab.
// A successful upload refreshes the gallery and brings it back into view.
type Manager struct {
	Upload  *upload.Single
	Gallery *gallery.Browser

	log             *slog.Logger
	onImageSelected func(ctx context.Context, url string)

	mu   sync.Mutex
	view View
}

// NewManager builds a Manager. onImageSelected receives both freshly uploaded
// URLs and gallery selections; it may be nil.
func NewManager(be Backend, opts Options, onImageSelected func(ctx context.Context, url string)) *Manager {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.InitialView == "" {
		opts.InitialView = ViewGallery
	}
	m := &Manager{log: opts.Logger, onImageSelected: onImageSelected, view: opts.InitialView}
	m.Gallery = gallery.New(be, gallery.Options{
		Container:  opts.Container,
		MaxImages:  opts.MaxImages,
		Selectable: opts.Selectable,
		Logger:     opts.Logger,
		OnSelect:   m.imageSelected,
	})
	m.Upload = upload.NewSingle(be, upload.SingleOptions{
		Container:        opts.Container,
		Policy:           opts.Policy,
		Auto:             true,
		ProgressInterval: opts.ProgressInterval,
		OnSuccess:        m.uploaded,
	})
	return m
}

// View returns the active tab.
func (m *Manager) View() View {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.view
}

// SetView switches tabs.
func (m *Manager) SetView(v View) error {
	if _, err := ParseView(string(v)); err != nil {
		return err
	}
	m.mu.Lock()
	m.view = v
	m.mu.Unlock()
	return nil
}

// Snapshot returns a copy of the manager and both children.
func (m *Manager) Snapshot() ManagerSnapshot {
	return ManagerSnapshot{View: m.View(), Upload: m.Upload.Snapshot(), Gallery: m.Gallery.Snapshot()}
}

func (m *Manager) uploaded(ctx context.Context, url string) {
	if err := m.Gallery.Refresh(ctx); err != nil {
		m.log.WarnContext(ctx, "gallery refresh after upload failed", "error", err)
	}
	m.mu.Lock()
	m.view = ViewGallery
	m.mu.Unlock()
	m.imageSelected(ctx, url)
}

func (m *Manager) imageSelected(ctx context.Context, url string) {
	if m.onImageSelected != nil {
		m.onImageSelected(ctx, url)
	}
}
