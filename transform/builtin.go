package transform

import (
	"log"

	"github.com/Xunnamius/tokenstream/token"
)

// MaxDepthFilter truncates the stream to a given depth. Collections more
// deeply nested than MaxDepth are elided (their contents replaced with a
// single Elision token in the examples below).
//
// E.g.
//
//	[1, 2, {"x": [3, 4], "y": 2}]
//
// At MaxDepth=0:
//
//	[...]
//
// At MaxDepth=1:
//
//	[1, 2, {...}]
//
// At MaxDepth=2:
//
//	[1, 2, {"x": [...], "y": 2}]
type MaxDepthFilter struct {
	MaxDepth int
}

// Transform implements the MaxDepthFilter transform.
func (f *MaxDepthFilter) Transform(in <-chan token.Token, out token.WriteStream) {
	depth := 0
	for item := range in {
		postIncr := 0
		switch item.(type) {
		case token.StartArray, token.StartObject:
			postIncr++
		case token.EndArray, token.EndObject:
			depth--
		}
		if depth <= f.MaxDepth {
			out.Put(item)
		}
		if depth == f.MaxDepth && postIncr > 0 {
			out.Put(token.Elision{})
		}
		depth += postIncr
	}
}

// ExplodeArray turns a root-level array into a stream of its element
// values, dropping the array's own brackets; a root-level array that
// follows it explodes in turn. Any other root-level value, and any array
// nested inside one, passes through unchanged.
//
//	E.g.
//	 [1, 2, 3]        -> 1 2 3
//	 {"x": 2, "y": 5} -> {"x": 2, "y": 5}
type ExplodeArray struct{}

// Transform implements the ExplodeArray transform.
func (ExplodeArray) Transform(in <-chan token.Token, out token.WriteStream) {
	depth := 0
	exploding := -1
	for item := range in {
		switch item.(type) {
		case token.StartArray:
			if depth == 0 && exploding == -1 {
				exploding = depth
				depth++
				continue
			}
			depth++
		case token.StartObject:
			depth++
		case token.EndArray:
			depth--
			if depth == exploding {
				exploding = -1
				continue
			}
		case token.EndObject:
			depth--
		}
		out.Put(item)
	}
}

// JoinStream is the reverse of ExplodeArray. It turns a stream of values
// into a JSON array.
//
// E.g.
//
//	1 2 3          -> [1, 2, 3]
//	[1, 2, 3]      -> [[1, 2, 3]]
//	<empty stream> -> []
type JoinStream struct{}

// Transform implements the JoinStream transform.
func (JoinStream) Transform(in <-chan token.Token, out token.WriteStream) {
	out.Put(token.StartArray{})
	for item := range in {
		out.Put(item)
	}
	out.Put(token.EndArray{})
}

// TraceStream logs every stream item and forwards nothing downstream.
// Useful for debugging a pipeline by splicing it in with a branching
// WriteStream.
type TraceStream struct{}

// Transform implements the TraceStream transform.
func (TraceStream) Transform(in <-chan token.Token, out token.WriteStream) {
	for item := range in {
		log.Printf("%s", item)
	}
}
