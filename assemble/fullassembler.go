// Package assemble reconstructs JSON values from token streams that may
// freely mix streamed and packed forms of keys, strings, and numbers
// (§4.3). It is the one piece of the pipeline every packing filter builds
// on to know when an entry's key or value is complete.
package assemble

import (
	"encoding/json"
	"strings"

	"github.com/Xunnamius/tokenstream/token"
)

// Sparse is the no-op value FullAssembler reports as Current() when running
// in sparse mode. It stands in for whatever the real value would have
// been, without the memory cost of actually building it.
type Sparse struct{}

// primKind identifies which streamed primitive (if any) a FullAssembler is
// currently buffering, or has just finished buffering.
type primKind uint8

const (
	primNone primKind = iota
	primKey
	primString
	primNumber
)

type frame struct {
	isObj bool // false means array

	obj map[string]any
	arr []any

	key    string
	haveKey bool
}

// FullAssembler consumes a token stream one token at a time and
// reconstructs the JSON value(s) it encodes. It tolerates any legal
// combination of streamed-only, packed-only, and streamed-then-packed
// forms for keys, strings, and numbers (invariants 1-2 in §3).
//
// Feed it the tokens of a whole document to get each concatenated
// root-level value in turn (Done() toggles true after each one), or feed
// it only the tokens of a single matched entry's value (as packEntry does)
// to get just that value.
type FullAssembler struct {
	sparse bool

	done    bool
	current any

	stack []frame

	buffering primKind
	buf       strings.Builder

	// pending records a streamed primitive that was just finalized, so a
	// packed duplicate immediately following it (invariant 2) is ignored
	// rather than double counted.
	pending primKind
}

// New creates a FullAssembler. In sparse mode Current never holds more
// than a Sparse{} placeholder, no matter how large the input; Done still
// toggles at exactly the same tokens as in full mode (§8 property 2).
func New(sparse bool) *FullAssembler {
	return &FullAssembler{sparse: sparse}
}

// Done reports whether the last token consumed completed a root-level
// value (or, when this assembler is scoped to a single value by its
// caller, that value).
func (a *FullAssembler) Done() bool {
	return a.done
}

// Current returns the most recently completed (or, mid-stream, the
// in-progress) root value. In sparse mode it is always a Sparse{}.
func (a *FullAssembler) Current() any {
	return a.current
}

// Depth exposes the assembler's internal construction depth. It is 0 at
// the root, regardless of sparse mode.
func (a *FullAssembler) Depth() int {
	return len(a.stack)
}

// Consume advances the assembler by one token. It panics with a
// *token.MalformedTokenStream if tok is inconsistent with the token
// grammar (§4.3 failure semantics).
func (a *FullAssembler) Consume(tok token.Token) {
	if a.consumeDuplicate(tok) {
		return
	}

	switch v := tok.(type) {
	case token.StartObject:
		a.push(frame{isObj: true, obj: a.newObj()})
	case token.EndObject:
		a.popObject()
	case token.StartArray:
		a.push(frame{isObj: false})
	case token.EndArray:
		a.popArray()

	case token.StartKey:
		a.startBuffer(primKey)
	case token.StartString:
		a.startBuffer(primString)
	case token.StartNumber:
		a.startBuffer(primNumber)

	case token.StringChunk:
		if a.buffering == primKey || a.buffering == primString {
			a.buf.WriteString(v.Text)
		} else {
			token.Malformed("StringChunk outside a streamed key or string", tok)
		}
	case token.NumberChunk:
		if a.buffering == primNumber {
			a.buf.WriteString(v.Text)
		} else {
			token.Malformed("NumberChunk outside a streamed number", tok)
		}

	case token.EndKey:
		a.endBuffer(primKey, a.buf.String())
	case token.EndString:
		a.endBuffer(primString, a.buf.String())
	case token.EndNumber:
		a.endBuffer(primNumber, a.buf.String())

	case token.KeyValue:
		a.assignKey(v.Text)
	case token.StringValue:
		a.finishValue(v.Text)
	case token.NumberValue:
		a.finishValue(json.Number(v.Text))
	case token.BoolValue:
		a.finishValue(v.Value)
	case token.NullValue:
		a.finishValue(nil)

	default:
		// Synthetic tokens (PackedEntry, SparseBracket, ...) pass through
		// transformers that don't own them; an assembler never needs to
		// see one, but ignoring it is harmless and keeps Consume total.
	}
}

// consumeDuplicate implements invariant 2: a packed token immediately
// following the streamed form of the same primitive is absorbed without
// being processed again.
func (a *FullAssembler) consumeDuplicate(tok token.Token) bool {
	wasPending := a.pending
	a.pending = primNone
	switch tok.(type) {
	case token.StringValue:
		return wasPending == primString
	case token.NumberValue:
		return wasPending == primNumber
	case token.KeyValue:
		return wasPending == primKey
	}
	return false
}

func (a *FullAssembler) newObj() map[string]any {
	if a.sparse {
		return nil
	}
	return map[string]any{}
}

func (a *FullAssembler) push(f frame) {
	a.done = false
	a.stack = append(a.stack, f)
}

func (a *FullAssembler) popObject() {
	if len(a.stack) == 0 || !a.stack[len(a.stack)-1].isObj {
		token.Malformed("unmatched EndObject", token.EndObject{})
	}
	f := a.stack[len(a.stack)-1]
	a.stack = a.stack[:len(a.stack)-1]
	if a.sparse {
		a.finishValue(Sparse{})
	} else {
		a.finishValue(f.obj)
	}
}

func (a *FullAssembler) popArray() {
	if len(a.stack) == 0 || a.stack[len(a.stack)-1].isObj {
		token.Malformed("unmatched EndArray", token.EndArray{})
	}
	f := a.stack[len(a.stack)-1]
	a.stack = a.stack[:len(a.stack)-1]
	if a.sparse {
		a.finishValue(Sparse{})
	} else {
		a.finishValue(f.arr)
	}
}

func (a *FullAssembler) startBuffer(kind primKind) {
	a.buffering = kind
	a.buf.Reset()
	a.done = false
}

func (a *FullAssembler) endBuffer(kind primKind, text string) {
	if a.buffering != kind {
		token.Malformed("end of streamed primitive with no matching start", nil)
	}
	a.buffering = primNone
	switch kind {
	case primKey:
		a.assignKey(text)
	case primString:
		a.finishValue(text)
	case primNumber:
		a.finishValue(json.Number(text))
	}
	a.pending = kind
}

// assignKey records the key of the entry currently being built; it does
// not itself constitute a complete value, so it never affects Done.
func (a *FullAssembler) assignKey(key string) {
	if len(a.stack) == 0 || !a.stack[len(a.stack)-1].isObj {
		token.Malformed("key outside an object", token.KeyValue{Text: key})
	}
	a.stack[len(a.stack)-1].key = key
	a.stack[len(a.stack)-1].haveKey = true
}

// finishValue completes one value: if there is an enclosing container it
// is appended/assigned into it (and Done stays false, since the outer
// value is still being built); otherwise it becomes the root result and
// Done flips true.
func (a *FullAssembler) finishValue(v any) {
	if len(a.stack) == 0 {
		a.current = v
		a.done = true
		return
	}
	a.done = false
	if a.sparse {
		return
	}
	top := &a.stack[len(a.stack)-1]
	if top.isObj {
		if !top.haveKey {
			token.Malformed("object value with no preceding key", nil)
		}
		top.obj[top.key] = v
		top.haveKey = false
	} else {
		top.arr = append(top.arr, v)
	}
}
