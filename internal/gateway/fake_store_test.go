package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/radif/imagehub/internal/storage"
)

type memObject struct {
	contentType string
	data        []byte
}

// memStore is an in-memory storage.Storage that records calls.
type memStore struct {
	mu         sync.Mutex
	containers map[string]map[string]memObject
	order      map[string][]string

	ensureCalls int
	putCalls    int
	removeCalls int
	keysCalls   int

	putErr  error
	keysErr error
	statErr error
}

func newMemStore() *memStore {
	return &memStore{
		containers: map[string]map[string]memObject{},
		order:      map[string][]string{},
	}
}

func (m *memStore) seed(container, key, contentType string, size int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.containers[container] == nil {
		m.containers[container] = map[string]memObject{}
	}
	m.containers[container][key] = memObject{contentType: contentType, data: make([]byte, size)}
	m.order[container] = append(m.order[container], key)
}

func (m *memStore) EnsureContainer(_ context.Context, container string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensureCalls++
	if m.containers[container] == nil {
		m.containers[container] = map[string]memObject{}
	}
	return nil
}

func (m *memStore) Put(_ context.Context, container, key string, r io.Reader, _ int64, contentType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.putCalls++
	if m.putErr != nil {
		return m.putErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.containers[container][key] = memObject{contentType: contentType, data: data}
	m.order[container] = append(m.order[container], key)
	return nil
}

func (m *memStore) Remove(_ context.Context, container, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removeCalls++
	objs := m.containers[container]
	if _, ok := objs[key]; !ok {
		return fmt.Errorf("%w: %s", storage.ErrObjectNotFound, key)
	}
	delete(objs, key)
	keys := m.order[container]
	for i, k := range keys {
		if k == key {
			m.order[container] = append(keys[:i:i], keys[i+1:]...)
			break
		}
	}
	return nil
}

func (m *memStore) Keys(_ context.Context, container string, max int) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keysCalls++
	if m.keysErr != nil {
		return nil, m.keysErr
	}
	if _, ok := m.containers[container]; !ok {
		return nil, errors.New("container does not exist")
	}
	keys := m.order[container]
	if len(keys) > max {
		keys = keys[:max]
	}
	return append([]string{}, keys...), nil
}

func (m *memStore) Stat(_ context.Context, container, key string) (storage.ObjectInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.statErr != nil {
		return storage.ObjectInfo{}, m.statErr
	}
	obj, ok := m.containers[container][key]
	if !ok {
		return storage.ObjectInfo{}, storage.ErrObjectNotFound
	}
	return storage.ObjectInfo{Key: key, ContentType: obj.contentType, Size: int64(len(obj.data))}, nil
}

func (m *memStore) ObjectURL(container, key string) string {
	return "https://account.example/" + container + "/" + key
}

func (m *memStore) names(container string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.containers[container]))
	for k := range m.containers[container] {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
