package token

import (
	"strconv"
	"strings"
)

// StackKeyTracker maintains the full key path (array indices and object
// keys) at the tracker's current position in a token stream (§4.2). Each
// stack element is one of:
//
//   - int    - the current index while inside an array
//   - string - the current key while inside an object, once assigned
//   - nil    - inside an object, but no key has been assigned yet
type StackKeyTracker struct {
	stack   []any
	keyBuf  strings.Builder
	bufKind bufKind

	// pending records which streamed primitive was just finalized, so
	// that an immediately following packed duplicate (invariant 2) does
	// not bump an enclosing array index a second time.
	pending primKind
}

type bufKind uint8

const (
	bufNone bufKind = iota
	bufKey
)

type primKind uint8

const (
	primNone primKind = iota
	primString
	primNumber
)

// Stack returns the current key path, outermost first. The returned slice
// must not be retained across a subsequent Update call.
func (t *StackKeyTracker) Stack() []any {
	return t.stack
}

// Head returns the stack element `offset` levels up from the top (offset 0
// is the top itself). It returns nil if offset reaches past the root.
func (t *StackKeyTracker) Head(offset int) any {
	i := len(t.stack) - 1 - offset
	if i < 0 || i >= len(t.stack) {
		return nil
	}
	return t.stack[i]
}

// Update advances the tracker by one token, per the transition table in
// §4.2.
func (t *StackKeyTracker) Update(tok Token) {
	// A packed duplicate immediately following its own streamed form must
	// not re-trigger the array-index bump; anything else clears the
	// pending marker before being processed normally.
	switch tok.(type) {
	case StringValue:
		if t.pending == primString {
			t.pending = primNone
			return
		}
	case NumberValue:
		if t.pending == primNumber {
			t.pending = primNone
			return
		}
	}
	t.pending = primNone

	switch v := tok.(type) {
	case StartObject:
		t.bumpArrayIndex()
		t.stack = append(t.stack, nil)
	case StartArray:
		t.bumpArrayIndex()
		t.stack = append(t.stack, -1)
	case EndObject, EndArray:
		if len(t.stack) > 0 {
			t.stack = t.stack[:len(t.stack)-1]
		}
	case StartKey:
		t.bufKind = bufKey
		t.keyBuf.Reset()
	case StringChunk:
		if t.bufKind == bufKey {
			t.keyBuf.WriteString(v.Text)
		}
	case EndKey:
		t.setHeadKey(t.keyBuf.String())
		t.keyBuf.Reset()
		t.bufKind = bufNone
	case KeyValue:
		// Idempotent whether or not a streamed key preceded it (the head
		// already holds the same key in the streamed+packed case).
		t.setHeadKey(v.Text)
	case StartString, StartNumber, NullValue, BoolValue, StringValue, NumberValue:
		t.bumpArrayIndex()
	case EndString:
		t.pending = primString
	case EndNumber:
		t.pending = primNumber
	}
}

// setHeadKey replaces the current stack head (which must be inside an
// object) with the given key.
func (t *StackKeyTracker) setHeadKey(key string) {
	if len(t.stack) == 0 {
		return
	}
	t.stack[len(t.stack)-1] = key
}

// bumpArrayIndex increments the stack head if it is an array index: called
// on every value-start (or packed-primitive) token, which always marks the
// beginning of a new element when the enclosing container is an array.
func (t *StackKeyTracker) bumpArrayIndex() {
	if len(t.stack) == 0 {
		return
	}
	i := len(t.stack) - 1
	if idx, ok := t.stack[i].(int); ok {
		t.stack[i] = idx + 1
	}
}

// PathString joins the current key path with sep (default "."), rendering
// array indices in decimal.
func (t *StackKeyTracker) PathString(sep string) string {
	return JoinPath(t.stack, sep)
}

// JoinPath joins a key path (as returned by Stack) into a string using sep
// to separate components.
func JoinPath(path []any, sep string) string {
	var b strings.Builder
	for i, c := range path {
		if i > 0 {
			b.WriteString(sep)
		}
		switch v := c.(type) {
		case string:
			b.WriteString(v)
		case int:
			b.WriteString(strconv.Itoa(v))
		}
	}
	return b.String()
}
