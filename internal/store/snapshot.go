package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/anshukumar-mobius/RAK-Healthcarev4-sub001/pkg/models"
)

// SnapshotPersister stores the agent store snapshot as JSON in a single slot.
type SnapshotPersister struct {
	Store Store
	Key   string // defaults to models.DefaultStorageKey
}

// NewSnapshotPersister returns a persister writing to the default slot of st.
func NewSnapshotPersister(st Store) *SnapshotPersister {
	return &SnapshotPersister{Store: st, Key: models.DefaultStorageKey}
}

func (p *SnapshotPersister) key() string {
	if p.Key == "" {
		return models.DefaultStorageKey
	}
	return p.Key
}

// Load returns nil, nil when the slot was never written.
func (p *SnapshotPersister) Load(ctx context.Context) (*models.Snapshot, error) {
	b, err := p.Store.GetSlot(ctx, p.key())
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var snap models.Snapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		return nil, fmt.Errorf("decode slot %s: %w", p.key(), err)
	}
	return &snap, nil
}

func (p *SnapshotPersister) Save(ctx context.Context, snap models.Snapshot) error {
	b, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return p.Store.PutSlot(ctx, p.key(), b)
}

// Reset deletes the snapshot slot so the next load seeds from the catalog.
func (p *SnapshotPersister) Reset(ctx context.Context) error {
	return p.Store.DeleteSlot(ctx, p.key())
}
