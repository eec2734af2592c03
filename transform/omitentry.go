package transform

import (
	"github.com/Xunnamius/tokenstream/internal/pathmatch"
	"github.com/Xunnamius/tokenstream/token"
)

// OmitEntry filters out every object entry whose key path matches (§4.6).
// It chains a PackEntry running in sparse+discard mode (so a match leaves
// only its four owned SparseBracket tokens in the intermediate stream,
// nothing else of the entry) with a pass that drops exactly those four
// owned tokens, leaving no trace of the omitted entry.
type OmitEntry struct {
	pack *PackEntry
}

// NewOmitEntry builds an OmitEntry dropping every entry whose key path
// matches any of patterns.
func NewOmitEntry(patterns ...pathmatch.KeyPattern) (*OmitEntry, error) {
	p, err := NewPackEntry(true, true, patterns...)
	if err != nil {
		return nil, err
	}
	return &OmitEntry{pack: p}, nil
}

// WithSeparator sets the path separator used to match patterns against
// (default "."), matching PackEntry.WithSeparator.
func (o *OmitEntry) WithSeparator(sep string) *OmitEntry {
	o.pack.WithSeparator(sep)
	return o
}

// Transform implements token.StreamTransformer.
func (o *OmitEntry) Transform(in <-chan token.Token, out token.WriteStream) {
	inner := token.TransformStream(in, o.pack)
	for tok := range inner {
		if b, ok := tok.(token.SparseBracket); ok && token.OwnedBy(b, o.pack.Owner) {
			continue
		}
		out.Put(tok)
	}
}
