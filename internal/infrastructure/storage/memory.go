package storage

import (
	"bytes"
	"context"
	"sort"
	"sync"
	"time"

	catalogapp "github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/application/catalog"
	"github.com/google/uuid"
)

var _ catalogapp.UploadArchive = (*MemoryUploadArchive)(nil)

// MemoryUploadArchive keeps archived uploads in memory. It backs development
// setups without object storage and tests.
type MemoryUploadArchive struct {
	mu        sync.RWMutex
	objects   map[string][]byte
	keyPrefix string
	baseURL   string
}

// NewMemoryUploadArchive creates an empty in-memory archive
func NewMemoryUploadArchive(keyPrefix string) *MemoryUploadArchive {
	return &MemoryUploadArchive{
		objects:   make(map[string][]byte),
		keyPrefix: keyPrefix,
		baseURL:   "memory://archive",
	}
}

// Put stores a copy of data
func (m *MemoryUploadArchive) Put(ctx context.Context, batchID uuid.UUID, fileName string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	key := ObjectKey(m.keyPrefix, batchID, fileName)
	m.mu.Lock()
	m.objects[key] = bytes.Clone(data)
	m.mu.Unlock()
	return key, nil
}

// DownloadURL returns a memory:// URL for an existing object
func (m *MemoryUploadArchive) DownloadURL(ctx context.Context, objectKey string) (string, time.Time, error) {
	if objectKey == "" {
		return "", time.Time{}, ErrObjectKeyRequired
	}
	return m.baseURL + "/" + objectKey, time.Now().Add(15 * time.Minute), nil
}

// Delete removes an object
func (m *MemoryUploadArchive) Delete(ctx context.Context, objectKey string) error {
	if objectKey == "" {
		return ErrObjectKeyRequired
	}
	m.mu.Lock()
	delete(m.objects, objectKey)
	m.mu.Unlock()
	return nil
}

// Get returns the stored bytes of an object
func (m *MemoryUploadArchive) Get(objectKey string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.objects[objectKey]
	return bytes.Clone(data), ok
}

// Keys lists the stored object keys in order
func (m *MemoryUploadArchive) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
