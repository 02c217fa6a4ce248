package ir

import (
	"fmt"
	"sync/atomic"

	"fortio.org/safecast"
)

// DeclID is the stable identity of a declaration. It survives every rewrite
// of the node and is never reused.
type DeclID uint32

// NoDeclID marks the absence of a declaration.
const NoDeclID DeclID = 0

// SnapshotID identifies one Library value.
type SnapshotID uint32

var (
	declSeq     atomic.Uint64
	snapshotSeq atomic.Uint64
)

// NewDeclID allocates a fresh declaration identity.
func NewDeclID() DeclID {
	id, err := safecast.Conv[uint32](declSeq.Add(1))
	if err != nil {
		panic(fmt.Errorf("declaration id overflow: %w", err))
	}
	return DeclID(id)
}

func newSnapshotID() SnapshotID {
	id, err := safecast.Conv[uint32](snapshotSeq.Add(1))
	if err != nil {
		panic(fmt.Errorf("snapshot id overflow: %w", err))
	}
	return SnapshotID(id)
}

func (id DeclID) String() string {
	return fmt.Sprintf("#%d", uint32(id))
}

// OriginalRef is a non-owning pointer to the version of a declaration that
// lived in an earlier snapshot. It is for inspection only.
type OriginalRef struct {
	Snapshot SnapshotID
	ID       DeclID
}

// IsZero reports whether the declaration has no recorded original.
func (r OriginalRef) IsZero() bool {
	return r.Snapshot == 0 && r.ID == NoDeclID
}

// Accessibility of a declaration in the emitted binding.
type Accessibility uint8

const (
	AccessPublic Accessibility = iota
	AccessInternal
	AccessProtected
	AccessPrivate
)

func (a Accessibility) String() string {
	switch a {
	case AccessPublic:
		return "public"
	case AccessInternal:
		return "internal"
	case AccessProtected:
		return "protected"
	case AccessPrivate:
		return "private"
	default:
		return fmt.Sprintf("Accessibility(%d)", a)
	}
}
