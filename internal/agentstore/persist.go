package agentstore

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/anshukumar-mobius/RAK-Healthcarev4-sub001/pkg/models"
)

// Persister loads and saves the store snapshot. Load returns nil, nil when nothing was saved yet.
// Implementations: *store.SnapshotPersister (SQLite/PostgreSQL slot) and *MemoryPersister.
type Persister interface {
	Load(ctx context.Context) (*models.Snapshot, error)
	Save(ctx context.Context, snap models.Snapshot) error
}

// MemoryPersister keeps the last saved snapshot as JSON in memory.
type MemoryPersister struct {
	mu    sync.Mutex
	data  []byte
	saves int
}

func NewMemoryPersister() *MemoryPersister {
	return &MemoryPersister{}
}

func (m *MemoryPersister) Load(ctx context.Context) (*models.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		return nil, nil
	}
	var snap models.Snapshot
	if err := json.Unmarshal(m.data, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (m *MemoryPersister) Save(ctx context.Context, snap models.Snapshot) error {
	b, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.data = b
	m.saves++
	m.mu.Unlock()
	return nil
}

// Saves returns how many times Save succeeded.
func (m *MemoryPersister) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}
