package manager

import (
	"context"
	"fmt"
	"sync"

	"github.com/radif/imagehub/internal/filex"
	"github.com/radif/imagehub/internal/gateway"
)

// memBackend keeps uploaded images in memory so uploads show up in listings.
type memBackend struct {
	mu        sync.Mutex
	images    []gateway.StoredImage
	uploads   []string
	lists     int
	failFrom  int // 1-based upload index from which uploads fail; 0 never
}

func (m *memBackend) Upload(_ context.Context, data []byte, fileName, contentType, container string) gateway.Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.uploads = append(m.uploads, fileName)
	if m.failFrom > 0 && len(m.uploads) >= m.failFrom {
		return gateway.Result{Error: "store unavailable", Kind: gateway.KindStore}
	}
	url := fmt.Sprintf("https://account.example/%s/%d-%s", container, len(m.uploads), fileName)
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

func (m *memBackend) uploadCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.uploads)
}

func pngFile(name string) filex.File {
	return filex.File{Name: name, ContentType: "image/png", Data: []byte("png")}
}
