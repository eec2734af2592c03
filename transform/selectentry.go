package transform

import (
	"github.com/Xunnamius/tokenstream/internal/pathmatch"
	"github.com/Xunnamius/tokenstream/token"
)

// SelectEntry keeps only the value of the first entry whose key path
// matches, discarding the enclosing object's wrapper and every other
// entry in it (§4.7). If the selected value is an array, its own
// startArray/endArray are suppressed so each element streams as a
// top-level value instead; any other value passes through verbatim.
//
// It runs atop a sparse, non-discarding PackEntry: the inner filter
// leaves every token in place and merely brackets the matched entry, so
// SelectEntry's own pass only has to decide, token by token, what falls
// inside those brackets.
type SelectEntry struct {
	pack *PackEntry
}

// NewSelectEntry builds a SelectEntry selecting the first entry whose key
// path matches any of patterns.
func NewSelectEntry(patterns ...pathmatch.KeyPattern) (*SelectEntry, error) {
	p, err := NewPackEntry(true, false, patterns...)
	if err != nil {
		return nil, err
	}
	return &SelectEntry{pack: p}, nil
}

// WithSeparator sets the path separator used to match patterns against
// (default "."), matching PackEntry.WithSeparator.
func (s *SelectEntry) WithSeparator(sep string) *SelectEntry {
	s.pack.WithSeparator(sep)
	return s
}

// Transform implements token.StreamTransformer.
func (s *SelectEntry) Transform(in <-chan token.Token, out token.WriteStream) {
	inner := token.TransformStream(in, s.pack)

	inValue := false
	released := false  // a value has already been selected; later matches are ignored
	firstOfValue := false
	suppressDepth := 0 // >0 while inside an outer array suppressed per §4.7

	for tok := range inner {
		if b, ok := tok.(token.SparseBracket); ok && token.OwnedBy(b, s.pack.Owner) {
			switch b.Kind {
			case token.SparseEntryKeyStart, token.SparseEntryKeyEnd:
				continue // the selected entry's own key never appears in the output
			case token.SparseEntryValueStart:
				if !released {
					inValue = true
					firstOfValue = true
				}
				continue
			case token.SparseEntryValueEnd:
				inValue = false
				released = true
				continue
			}
		}
		if !inValue {
			continue // the enclosing object wrapper and every other entry are dropped
		}
		if firstOfValue {
			firstOfValue = false
			if _, ok := tok.(token.StartArray); ok {
				suppressDepth = 1
				continue
			}
		}
		if suppressDepth > 0 {
			switch tok.(type) {
			case token.StartArray, token.StartObject:
				suppressDepth++
			case token.EndArray, token.EndObject:
				suppressDepth--
				if suppressDepth == 0 {
					continue // the matching end of the suppressed outer array
				}
			}
		}
		out.Put(tok)
	}
}
