package session

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/radif/imagehub/internal/gateway"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type memBackend struct {
	mu      sync.Mutex
	images  []gateway.StoredImage
	uploads int
	lists   int
}

func (m *memBackend) Upload(_ context.Context, data []byte, fileName, contentType, container string) gateway.Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.uploads++
	url := fmt.Sprintf("https://account.example/%s/%d-%s", container, m.uploads, fileName)
	m.images = append(m.images, gateway.StoredImage{Name: fileName, URL: url, ContentType: contentType, SizeBytes: int64(len(data))})
	return gateway.Result{Success: true, URL: url}
}

func (m *memBackend) List(_ context.Context, _ string, max int) gateway.Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lists++
	images := append([]gateway.StoredImage{}, m.images...)
	if len(images) > max {
		images = images[:max]
	}
	return gateway.Result{Success: true, Images: images}
}

func (m *memBackend) Delete(_ context.Context, url, _ string) gateway.Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, img := range m.images {
		if img.URL == url {
			m.images = append(m.images[:i], m.images[i+1:]...)
			return gateway.Result{Success: true}
		}
	}
	return gateway.Result{Error: "object not found", Kind: gateway.KindNotFound}
}

func (m *memBackend) listCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lists
}

func (m *memBackend) uploadCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.uploads
}
