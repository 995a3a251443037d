package kvstore

import (
	"context"
	"sync"

	"github.com/zulandar/ribbonlog/internal/models"
)

// MemoryAdapter keeps the blob in process memory. Nothing survives a restart.
type MemoryAdapter struct {
	mu     sync.Mutex
	key    string
	values map[string]string
	// SaveErr, when set, is returned by Save without touching the stored blob.
	SaveErr error
}

// NewMemoryAdapter returns an empty in-memory adapter.
func NewMemoryAdapter(key string) *MemoryAdapter {
	return &MemoryAdapter{key: key, values: make(map[string]string)}
}

// Load decodes the blob, degrading to an empty list.
func (a *MemoryAdapter) Load(ctx context.Context) []models.Record {
	raw, ok, _ := a.Raw(ctx)
	if !ok {
		return []models.Record{}
	}
	return decodeSoft(a.key, raw)
}

// Save replaces the blob.
func (a *MemoryAdapter) Save(_ context.Context, records []models.Record) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.SaveErr != nil {
		return a.SaveErr
	}
	data, err := Encode(records)
	if err != nil {
		return err
	}
	a.values[a.key] = string(data)
	return nil
}

// Raw returns the blob verbatim.
func (a *MemoryAdapter) Raw(_ context.Context) (string, bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	v, ok := a.values[a.key]
	return v, ok, nil
}

// SetRaw stores a blob verbatim, bypassing encoding. Used to simulate
// corrupted or hand-edited storage.
func (a *MemoryAdapter) SetRaw(v string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.values[a.key] = v
}
