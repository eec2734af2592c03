package transform

import (
	"github.com/Xunnamius/tokenstream/internal/pathmatch"
	"github.com/Xunnamius/tokenstream/token"
	"github.com/Xunnamius/tokenstream/transform/valuematch"
)

// SievePattern pairs a key matcher with the value condition an entry at
// that key must satisfy for its enclosing object to be released (§4.9).
type SievePattern struct {
	Key   pathmatch.KeyPattern
	Value valuematch.Matcher
}

// ObjectSieve buffers every token belonging to a root-level non-array
// object until it can decide, from one or more of the object's entries,
// whether to release the buffered tokens downstream or discard them.
// Non-object root values pass through unchanged, untouched by the sieve.
type ObjectSieve struct {
	pack    *PackEntry
	valueOf map[string]valuematch.Matcher
	// singleCertain is true only when there is exactly one pattern and
	// its key matcher is a plain string (not a regex): in that case, the
	// single possible matching entry has been seen the moment a
	// PackedEntry for it arrives, so a failed value match conclusively
	// decides discard without waiting for endObject (the Open Question
	// §4.9 leaves implicit: this is the only case where "the only filter
	// that could possibly match this key" can be determined ahead of
	// time, since a regex or a second pattern could still match a key
	// not yet seen).
	singleCertain bool
}

// NewObjectSieve builds an ObjectSieve releasing an object the instant any
// entry matching one of patterns has a value satisfying that pattern's
// Value matcher.
func NewObjectSieve(patterns ...SievePattern) (*ObjectSieve, error) {
	keys := make([]pathmatch.KeyPattern, len(patterns))
	valueOf := make(map[string]valuematch.Matcher, len(patterns))
	for i, p := range patterns {
		keys[i] = p.Key
		valueOf[p.Key.MatchName()] = p.Value
	}
	pack, err := NewPackEntry(false, false, keys...)
	if err != nil {
		return nil, err
	}
	return &ObjectSieve{
		pack:          pack,
		valueOf:       valueOf,
		singleCertain: len(patterns) == 1 && !patterns[0].Key.IsRegex(),
	}, nil
}

// Transform implements token.StreamTransformer. A "root-level" object, per
// the glossary, is either a bare object at depth 0 or an element of the
// outermost root-level array (depth 1 directly under it) -- inRootArray
// tracks the latter so an array-wrapped sequence of objects (the shape
// every collaborators.*Stream actually produces) is sieved element by
// element rather than passed through untouched.
func (s *ObjectSieve) Transform(in <-chan token.Token, out token.WriteStream) {
	depth := 0
	inRootArray := false
	for tok := range in {
		if _, ok := tok.(token.StartObject); ok && (depth == 0 || (depth == 1 && inRootArray)) {
			s.sieveObject(in, out)
			continue
		}
		switch tok.(type) {
		case token.StartArray:
			if depth == 0 {
				inRootArray = true
			}
			depth++
		case token.StartObject:
			depth++
		case token.EndArray:
			depth--
			if depth == 0 {
				inRootArray = false
			}
		case token.EndObject:
			depth--
		}
		out.Put(tok)
	}
}

// sieveObject reads tok directly from in (bypassing Transform's own loop)
// until the matching endObject, deciding along the way whether to release
// or discard the whole buffered object.
func (s *ObjectSieve) sieveObject(in <-chan token.Token, out token.WriteStream) {
	var sink token.SliceWriteStream
	buf := []token.Token{token.StartObject{}}
	s.pack.consume(token.StartObject{}, &sink)

	depth := 1
	decided := false
	release := false

	for depth > 0 {
		tok, ok := <-in
		if !ok {
			break
		}
		switch tok.(type) {
		case token.StartObject, token.StartArray:
			depth++
		case token.EndObject, token.EndArray:
			depth--
		}
		sink.Toks = sink.Toks[:0]
		s.pack.consume(tok, &sink)
		if decided {
			if release {
				out.Put(tok)
			}
			continue
		}
		buf = append(buf, tok)
		for _, emitted := range sink.Toks {
			pe, ok := emitted.(token.PackedEntry)
			if !ok || !token.OwnedBy(pe, s.pack.Owner) {
				continue
			}
			if mv, has := s.valueOf[pe.Matcher]; has && mv.Match(pe.Value) {
				decided, release = true, true
				break
			}
			if s.singleCertain {
				decided, release = true, false
			}
		}
		if release {
			for _, t := range buf {
				out.Put(t)
			}
		}
		if decided {
			buf = nil
		}
	}

	// Undecided at endObject, or conclusively unmatched: discard (§4.9
	// "At the endObject of an undecided object, default to discard").
}
