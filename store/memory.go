package store

import (
	"context"
	"slices"
	"strings"
	"sync"
)

// MemoryGateway keeps documents in a map. Update holds the write lock for
// the duration of the callback, so callbacks must not use the gateway.
type MemoryGateway struct {
	docs map[Ref][]byte
	mu   sync.RWMutex
}

func NewMemoryGateway() *MemoryGateway {
	return &MemoryGateway{docs: make(map[Ref][]byte)}
}

func (g *MemoryGateway) Get(_ context.Context, ref Ref) ([]byte, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	data, ok := g.docs[ref]
	if !ok {
		return nil, ErrNotFound
	}
	return slices.Clone(data), nil
}

func (g *MemoryGateway) Set(_ context.Context, ref Ref, data []byte) error {
	if err := ref.validate(); err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.docs[ref] = slices.Clone(data)
	return nil
}

func (g *MemoryGateway) Update(_ context.Context, ref Ref, fn UpdateFunc) error {
	if err := ref.validate(); err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	var current []byte
	if data, ok := g.docs[ref]; ok {
		current = slices.Clone(data)
	}
	next, err := fn(current)
	if err != nil {
		return err
	}
	if next != nil {
		g.docs[ref] = slices.Clone(next)
	}
	return nil
}

func (g *MemoryGateway) Delete(_ context.Context, ref Ref) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.docs, ref)
	return nil
}

// Query returns matches ordered by collection, then id.
func (g *MemoryGateway) Query(_ context.Context, q Query) ([]Snapshot, error) {
	m, err := newMatcher(q.Where)
	if err != nil {
		return nil, err
	}

	g.mu.RLock()
	defer g.mu.RUnlock()

	var out []Snapshot
	for ref, data := range g.docs {
		if !q.matchesRef(ref) {
			continue
		}
		ok, err := m.match(data)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, Snapshot{Ref: ref, Data: slices.Clone(data)})
		}
	}
	slices.SortFunc(out, func(a, b Snapshot) int {
		if c := strings.Compare(a.Ref.Collection, b.Ref.Collection); c != 0 {
			return c
		}
		return strings.Compare(a.Ref.ID, b.Ref.ID)
	})
	return out, nil
}
