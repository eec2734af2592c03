package token

import (
	"fmt"
	"sync/atomic"
)

// OwnerID is an opaque identity attached to synthetic tokens so that
// several instances of the same filter cooperating in one pipeline can
// recognise which synthetic tokens are their own and ignore the rest. It is
// never compared except by equality; obtain one with NewOwnerID.
type OwnerID uint64

var ownerCounter uint64

// NewOwnerID returns a process-wide unique OwnerID.
func NewOwnerID() OwnerID {
	return OwnerID(atomic.AddUint64(&ownerCounter, 1))
}

// PackedEntry is a synthetic token emitted by a packEntry-family filter
// immediately after the final token of a matched entry's value, when the
// filter is not running in sparse mode (invariant 3). Value holds the
// fully materialized JSON value (see package assemble), and Stack the full
// key path of the entry including its own key.
type PackedEntry struct {
	structToken
	Key     string
	Stack   []any
	Matcher string
	Value   any
	Owner   OwnerID
}

func (p PackedEntry) String() string {
	return fmt.Sprintf("PackedEntry(key=%q, matcher=%q)", p.Key, p.Matcher)
}

func (p PackedEntry) ownerID() OwnerID { return p.Owner }

// SparseBracketKind distinguishes the four bracket tokens a packEntry
// filter emits in sparse mode in place of a PackedEntry.
type SparseBracketKind uint8

const (
	SparseEntryKeyStart SparseBracketKind = iota
	SparseEntryKeyEnd
	SparseEntryValueStart
	SparseEntryValueEnd
)

func (k SparseBracketKind) String() string {
	switch k {
	case SparseEntryKeyStart:
		return "SparseEntryKeyStart"
	case SparseEntryKeyEnd:
		return "SparseEntryKeyEnd"
	case SparseEntryValueStart:
		return "SparseEntryValueStart"
	case SparseEntryValueEnd:
		return "SparseEntryValueEnd"
	default:
		return "SparseBracketKind(?)"
	}
}

// SparseBracket brackets the key tokens or the value tokens of a matched
// entry without materializing the value (§3, sparse mode).
type SparseBracket struct {
	structToken
	Kind    SparseBracketKind
	Key     string
	Stack   []any
	Matcher string
	Owner   OwnerID
}

func (s SparseBracket) String() string {
	return fmt.Sprintf("%s(key=%q)", s.Kind, s.Key)
}

func (s SparseBracket) ownerID() OwnerID { return s.Owner }

// Owned is implemented by synthetic tokens that carry an OwnerID.
type Owned interface {
	ownerID() OwnerID
}

// OwnedBy reports whether tok is a synthetic token owned by id.
func OwnedBy(tok Token, id OwnerID) bool {
	o, ok := tok.(Owned)
	return ok && o.ownerID() == id
}
