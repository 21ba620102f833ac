// internal/state/mock.go
package state

import (
	"context"
	"maps"
	"sync"
)

// Mock is an in-memory Store for tests.
type Mock struct {
	mu      sync.Mutex
	blobs   map[string][]byte
	saves   int
	loadErr error
	saveErr error
	closed  bool
}

// NewMock creates a new empty mock store.
func NewMock() *Mock {
	return &Mock{blobs: make(map[string][]byte)}
}

func (m *Mock) Load(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, false, m.loadErr
	}
	data, ok := m.blobs[key]
	return data, ok, nil
}

func (m *Mock) Save(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.blobs[key] = append([]byte(nil), data...)
	m.saves++
	return nil
}

func (m *Mock) SaveBatch(_ context.Context, blobs map[string][]byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	for k, v := range blobs {
		m.blobs[k] = append([]byte(nil), v...)
	}
	m.saves++
	return nil
}

func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Test helpers

func (m *Mock) Set(key string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[key] = data
}

func (m *Mock) Get(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.blobs[key]
	return data, ok
}

func (m *Mock) Blobs() map[string][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return maps.Clone(m.blobs)
}

func (m *Mock) SetLoadErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loadErr = err
}

func (m *Mock) SetSaveErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveErr = err
}

// Saves returns how many Save or SaveBatch calls succeeded.
func (m *Mock) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

func (m *Mock) IsClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Verify Mock implements Store at compile time.
var _ Store = (*Mock)(nil)
