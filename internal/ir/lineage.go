package ir

import "sync"

// Lineage links every snapshot derived from one front-end library so that
// Original references can be followed back.
type Lineage struct {
	mu        sync.RWMutex
	snapshots map[SnapshotID]*Library
}

func newLineage() *Lineage {
	return &Lineage{snapshots: make(map[SnapshotID]*Library)}
}

func (g *Lineage) register(l *Library) {
	g.mu.Lock()
	g.snapshots[l.snapshot] = l
	g.mu.Unlock()
}

// Snapshot returns the library with the given id.
func (g *Lineage) Snapshot(id SnapshotID) (*Library, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	l, ok := g.snapshots[id]
	return l, ok
}

// Len returns the number of snapshots recorded.
func (g *Lineage) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.snapshots)
}
