package storage

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore is an ImageStore for tests and local runs without a bucket.
// Uploads are simulated with Put.
type MemoryStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	deleted []string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string][]byte)}
}

func (m *MemoryStore) Put(key string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
}

func (m *MemoryStore) PresignUpload(_ context.Context, key, _ string) (string, error) {
	return "memory://upload/" + key, nil
}

func (m *MemoryStore) Exists(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[key]
	return ok, nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[key]; !ok {
		return fmt.Errorf("delete %s: object not found", key)
	}
	delete(m.objects, key)
	m.deleted = append(m.deleted, key)
	return nil
}

func (m *MemoryStore) PublicURL(key string) string {
	return "memory://" + key
}

// Deleted lists the keys removed so far, oldest first.
func (m *MemoryStore) Deleted() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.deleted...)
}
