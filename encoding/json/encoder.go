package json

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"unicode/utf8"

	"github.com/Xunnamius/tokenstream/token"
)

// Encoder consumes a token stream and writes the JSON text it encodes.
// It accepts any well-formed mixture of streamed and packed tokens
// (§3); it does not require its input to be in the "big string"
// profile Decoder produces, since filters upstream may have rewritten
// the stream into another valid combination.
type Encoder struct {
	w            *bufio.Writer
	WrapInArray  bool // wrap the emitted top-level value sequence in a single JSON array
	wroteAnyRoot bool

	stack []frame
	// stringOpen is true while inside a startString/startKey that has
	// already written its opening quote.
	stringOpen bool
	// pending marks "a streamed primitive of this kind just finished";
	// the immediately following packed duplicate (if any, per §3
	// invariant 2) is absorbed rather than re-emitted. Cleared on any
	// other token.
	pending pendingKind
}

type pendingKind uint8

const (
	pendingNone pendingKind = iota
	pendingKey
	pendingString
	pendingNumber
)

type frame struct {
	inArray    bool
	count      int  // values emitted at this level so far
	needsValue bool // true immediately after a key, before its value
}

var _ token.StreamSink = &Encoder{}

// NewEncoder sets up a new Encoder writing to out.
func NewEncoder(out io.Writer) *Encoder {
	return &Encoder{w: bufio.NewWriter(out)}
}

// Consume writes every token read from stream as JSON text, flushing the
// underlying writer before returning. A stream that ends inside an
// unclosed object, array or string is reported as an error (after the
// partial output is flushed); beyond that it assumes stream is
// well-formed per §3 and may produce corrupt output (not silently drop
// data) if it is not -- this library is not an input validator (§4.3).
func (e *Encoder) Consume(stream <-chan token.Token) error {
	if e.WrapInArray {
		e.w.WriteByte('[')
		e.stack = append(e.stack, frame{inArray: true})
	}
	for tok := range stream {
		if err := e.writeToken(tok); err != nil {
			return err
		}
	}
	rootDepth := 0
	if e.WrapInArray {
		rootDepth = 1
	}
	if len(e.stack) != rootDepth || e.stringOpen {
		e.w.Flush()
		return fmt.Errorf("json: token stream ended inside an unclosed object, array or string")
	}
	if e.WrapInArray {
		e.w.WriteByte(']')
		e.stack = e.stack[:len(e.stack)-1]
	}
	return e.w.Flush()
}

func (e *Encoder) writeToken(tok token.Token) error {
	wasPending := e.pending
	e.pending = pendingNone
	switch t := tok.(type) {
	case token.StartObject:
		e.beforeValue()
		e.w.WriteByte('{')
		e.stack = append(e.stack, frame{})
	case token.EndObject:
		e.w.WriteByte('}')
		e.popFrame()
	case token.StartArray:
		e.beforeValue()
		e.w.WriteByte('[')
		e.stack = append(e.stack, frame{inArray: true})
	case token.EndArray:
		e.w.WriteByte(']')
		e.popFrame()
	case token.StartKey:
		e.beforeKey()
		e.w.WriteByte('"')
		e.stringOpen = true
	case token.EndKey:
		e.w.WriteByte('"')
		e.stringOpen = false
		e.w.WriteByte(':')
		e.topFrame().needsValue = true
		e.pending = pendingKey
	case token.StartString:
		e.beforeValue()
		e.w.WriteByte('"')
		e.stringOpen = true
	case token.EndString:
		e.w.WriteByte('"')
		e.stringOpen = false
		e.pending = pendingString
	case token.StartNumber:
		// big-string profile never streams numbers, but a pass-through
		// pipeline may forward them verbatim from another lexer profile.
		e.beforeValue()
	case token.EndNumber:
		e.pending = pendingNumber
	case token.StringChunk:
		writeEscapedString(e.w, t.Text)
	case token.NumberChunk:
		e.w.WriteString(t.Text)
	case token.KeyValue:
		if wasPending == pendingKey {
			return nil // absorb the packed duplicate of the key just streamed
		}
		e.beforeKey()
		e.w.WriteByte('"')
		writeEscapedString(e.w, t.Text)
		e.w.WriteByte('"')
		e.w.WriteByte(':')
		e.topFrame().needsValue = true
	case token.StringValue:
		if wasPending == pendingString {
			return nil // absorb the packed duplicate of the string just streamed
		}
		e.beforeValue()
		e.w.WriteByte('"')
		writeEscapedString(e.w, t.Text)
		e.w.WriteByte('"')
	case token.NumberValue:
		if wasPending == pendingNumber {
			return nil // absorb the packed duplicate of the number just streamed
		}
		e.beforeValue()
		e.w.WriteString(t.Text)
	case token.BoolValue:
		e.beforeValue()
		e.w.WriteString(strconv.FormatBool(t.Value))
	case token.NullValue:
		e.beforeValue()
		e.w.WriteString("null")
	case token.PackedEntry, token.SparseBracket:
		return fmt.Errorf("json: cannot encode synthetic token %v directly; a consuming filter must translate it first", tok)
	default:
		return fmt.Errorf("json: unrecognised token %T", tok)
	}
	return nil
}

// beforeValue writes a leading comma/array-separator if this is not the
// first value in the current array, or a newline between root values.
func (e *Encoder) beforeValue() {
	if len(e.stack) == 0 {
		if e.wroteAnyRoot {
			e.w.WriteByte('\n')
		}
		e.wroteAnyRoot = true
		return
	}
	f := e.topFrame()
	if f.inArray {
		if f.count > 0 {
			e.w.WriteByte(',')
		}
	} else if f.needsValue {
		f.needsValue = false
	}
	f.count++
}

func (e *Encoder) beforeKey() {
	f := e.topFrame()
	if f.count > 0 {
		e.w.WriteByte(',')
	}
}

func (e *Encoder) topFrame() *frame {
	return &e.stack[len(e.stack)-1]
}

func (e *Encoder) popFrame() {
	e.stack = e.stack[:len(e.stack)-1]
	if len(e.stack) > 0 {
		e.topFrame().count++
	} else {
		e.wroteAnyRoot = true
	}
}

// writeEscapedString writes s as JSON string content (without the
// surrounding quotes), escaping control characters and the characters
// JSON requires escaped.
func writeEscapedString(w *bufio.Writer, s string) {
	start := 0
	for i := 0; i < len(s); {
		b := s[i]
		if b >= utf8.RuneSelf {
			r, size := utf8.DecodeRuneInString(s[i:])
			if r == utf8.RuneError && size == 1 {
				w.WriteString(s[start:i])
				w.WriteString(`�`)
				i++
				start = i
				continue
			}
			i += size
			continue
		}
		if b >= 0x20 && b != '"' && b != '\\' {
			i++
			continue
		}
		w.WriteString(s[start:i])
		switch b {
		case '"':
			w.WriteString(`\"`)
		case '\\':
			w.WriteString(`\\`)
		case '\n':
			w.WriteString(`\n`)
		case '\r':
			w.WriteString(`\r`)
		case '\t':
			w.WriteString(`\t`)
		case '\b':
			w.WriteString(`\b`)
		case '\f':
			w.WriteString(`\f`)
		default:
			fmt.Fprintf(w, `\u%04x`, b)
		}
		i++
		start = i
	}
	w.WriteString(s[start:])
}
