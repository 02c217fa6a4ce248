package ir

import "fmt"

type indexEntry struct {
	decl   Decl
	parent Decl
}

type index struct {
	byID     map[DeclID]indexEntry
	byName   map[string][]DeclID
	replaced map[DeclID]DeclID
}

func (l *Library) index() *index {
	l.indexOnce.Do(func() {
		l.idx = buildIndex(l)
	})
	return l.idx
}

func buildIndex(l *Library) *index {
	idx := &index{
		byID:     make(map[DeclID]indexEntry),
		byName:   make(map[string][]DeclID),
		replaced: make(map[DeclID]DeclID),
	}
	l.Walk(func(d Decl, parents []Decl) bool {
		b := d.Common()
		id := b.ID()
		if _, dup := idx.byID[id]; dup {
			panic(fmt.Sprintf("ir: declaration %s (%s) appears twice in snapshot %d", id, b.Name, l.snapshot))
		}
		var parent Decl
		if len(parents) > 0 {
			parent = parents[len(parents)-1]
		}
		idx.byID[id] = indexEntry{decl: d, parent: parent}
		if b.Name != "" {
			idx.byName[b.Name] = append(idx.byName[b.Name], id)
		}
		for _, r := range b.Replaces {
			idx.replaced[r] = id
		}
		return true
	})
	// A live declaration wins over a stale replacement entry.
	for id := range idx.replaced {
		if _, live := idx.byID[id]; live {
			delete(idx.replaced, id)
		}
	}
	return idx
}
