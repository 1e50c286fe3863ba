package assets

import (
	"context"
	"fmt"
	"sync"
)

// Registry resolves an asset id to its display metadata. Resolution is only
// needed for presentation; amounts stay correct without it.
type Registry interface {
	FetchAsset(ctx context.Context, id uint64) (Asset, error)
}

// StaticRegistry is an in-memory Registry seeded up front, typically from
// configuration. Safe for concurrent use.
type StaticRegistry struct {
	mu     sync.RWMutex
	assets map[uint64]Asset
}

func NewStaticRegistry(seed ...Asset) *StaticRegistry {
	r := &StaticRegistry{assets: make(map[uint64]Asset, len(seed))}
	for _, a := range seed {
		r.assets[a.ID] = a
	}
	return r
}

// Register adds or replaces an asset entry.
func (r *StaticRegistry) Register(a Asset) {
	r.mu.Lock()
	r.assets[a.ID] = a
	r.mu.Unlock()
}

func (r *StaticRegistry) FetchAsset(_ context.Context, id uint64) (Asset, error) {
	r.mu.RLock()
	a, ok := r.assets[id]
	r.mu.RUnlock()
	if !ok {
		return Asset{}, fmt.Errorf("asset %d not registered", id)
	}
	return a, nil
}

// FallbackRegistry resolves through the primary registry and synthesizes a
// placeholder asset when the id is unknown, so quoting never blocks on
// missing metadata.
type FallbackRegistry struct {
	Primary Registry
}

func (r *FallbackRegistry) FetchAsset(ctx context.Context, id uint64) (Asset, error) {
	if r.Primary != nil {
		if a, err := r.Primary.FetchAsset(ctx, id); err == nil {
			return a, nil
		}
	}
	return Asset{ID: id, UnitName: fmt.Sprintf("ASA-%d", id)}, nil
}
