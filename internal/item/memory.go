package item

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/Zumgugger/reformat-sub001/internal/codec"

	"github.com/google/uuid"
)

// BufferSource resolves buffer-origin items to their bytes at
// conversion time.
type BufferSource interface {
	Bytes(id string) ([]byte, bool)
}

// MemorySource is a map-backed BufferSource. Safe for concurrent use.
type MemorySource struct {
	mu      sync.RWMutex
	buffers map[string][]byte
}

// NewMemorySource returns an empty buffer registry.
func NewMemorySource() *MemorySource {
	return &MemorySource{buffers: make(map[string][]byte)}
}

// Add probes data and registers it under a fresh id. The name becomes
// the output base name; a recognized image extension on it is dropped.
func (m *MemorySource) Add(name string, data []byte) (Item, error) {
	info, err := codec.ProbeBytes(data)
	if err != nil {
		return Item{}, fmt.Errorf("buffer %q: %w", name, err)
	}

	if ext := filepath.Ext(name); codec.SourceExtensions[strings.ToLower(ext)] {
		name = strings.TrimSuffix(name, ext)
	}

	it := Item{
		ID:       uuid.NewString(),
		Name:     name,
		Origin:   OriginBuffer,
		Size:     int64(len(data)),
		Width:    info.Width,
		Height:   info.Height,
		Format:   info.Format,
		HasAlpha: info.HasAlpha,
		ModTime:  time.Now(),
	}

	m.mu.Lock()
	m.buffers[it.ID] = data
	m.mu.Unlock()

	return it, nil
}

// Bytes returns the registered data for an id.
func (m *MemorySource) Bytes(id string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.buffers[id]
	return data, ok
}

// Remove drops a buffer, typically once its item has been exported.
func (m *MemorySource) Remove(id string) {
	m.mu.Lock()
	delete(m.buffers, id)
	m.mu.Unlock()
}

// Len reports the number of registered buffers.
func (m *MemorySource) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.buffers)
}
