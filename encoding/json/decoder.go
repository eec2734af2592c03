// Package json implements the bit-exact boundaries between JSON text and
// the token stream the rest of this module operates on: Decoder (bytes
// to tokens) and Encoder (tokens to bytes), both in the "big string"
// profile -- strings stream in chunks, keys/numbers/booleans/null are
// packed -- since the pipeline is built around large string-valued
// entries dominating a document's size.
package json

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/Xunnamius/tokenstream/internal/scanner"
	"github.com/Xunnamius/tokenstream/token"
)

// maxStringChunk bounds how much decoded string text accumulates in
// parseStreamedString's buffer before a StringChunk is flushed, so one very
// long string value does not defeat the bounded-memory goal of the
// pipeline.
const maxStringChunk = 4096

// A Decoder reads JSON text and produces a token stream.
type Decoder struct {
	scanr *scanner.Scanner
}

var _ token.StreamSource = &Decoder{}

// NewDecoder sets up a new Decoder reading from in.
func NewDecoder(in io.Reader) *Decoder {
	return &Decoder{scanr: scanner.NewScanner(in)}
}

// Produce reads a concatenated sequence of JSON values from the input
// and writes their tokens to out until EOF, or returns the first error
// encountered.
func (d *Decoder) Produce(out chan<- token.Token) error {
	for {
		b, err := d.scanr.SkipSpaceAndPeek()
		if err != nil {
			return err
		}
		if b == scanner.EOF {
			return nil
		}
		if err := d.parseValue(out); err != nil {
			return err
		}
	}
}

func (d *Decoder) parseValue(out chan<- token.Token) error {
	b, err := d.scanr.SkipSpaceAndPeek()
	if err != nil {
		return err
	}
	switch {
	case b == scanner.EOF:
		return io.ErrUnexpectedEOF
	case b == '"':
		return d.parseStreamedString(out, token.StartString{}, token.EndString{})
	case b == '[':
		return d.parseArray(out)
	case b == '{':
		return d.parseObject(out)
	case b == 't':
		if err := checkBytes(d.scanr, trueBytes); err != nil {
			return err
		}
		out <- token.True
		return nil
	case b == 'f':
		if err := checkBytes(d.scanr, falseBytes); err != nil {
			return err
		}
		out <- token.False
		return nil
	case b == 'n':
		if err := checkBytes(d.scanr, nullBytes); err != nil {
			return err
		}
		out <- token.Null
		return nil
	case b == '-' || b >= '0' && b <= '9':
		text, err := parseNumber(d.scanr)
		if err != nil {
			return err
		}
		out <- token.NumberValue{Text: text}
		return nil
	default:
		return unexpectedByte(d.scanr, "unexpected")
	}
}

func (d *Decoder) parseArray(out chan<- token.Token) error {
	if err := expectByte(d.scanr, '['); err != nil {
		return err
	}
	out <- token.StartArray{}
	b, err := d.scanr.SkipSpaceAndPeek()
	if err != nil {
		return err
	}
	if b == ']' {
		d.scanr.Read()
		out <- token.EndArray{}
		return nil
	}
	for {
		if err := d.parseValue(out); err != nil {
			return err
		}
		b, err = d.scanr.SkipSpaceAndPeek()
		if err != nil {
			return err
		}
		switch b {
		case ']':
			d.scanr.Read()
			out <- token.EndArray{}
			return nil
		case ',':
			d.scanr.Read()
		default:
			return unexpectedByte(d.scanr, "expected ']' or ',', got")
		}
	}
}

func (d *Decoder) parseObject(out chan<- token.Token) error {
	if err := expectByte(d.scanr, '{'); err != nil {
		return err
	}
	out <- token.StartObject{}
	b, err := d.scanr.SkipSpaceAndPeek()
	if err != nil {
		return err
	}
	if b == '}' {
		d.scanr.Read()
		out <- token.EndObject{}
		return nil
	}
	for {
		key, err := parseQuotedText(d.scanr)
		if err != nil {
			return err
		}
		out <- token.KeyValue{Text: key}
		b, err = d.scanr.SkipSpaceAndPeek()
		if err != nil {
			return err
		}
		if b != ':' {
			return unexpectedByte(d.scanr, "expected ':', got")
		}
		d.scanr.Read()
		if err := d.parseValue(out); err != nil {
			return err
		}
		b, err = d.scanr.SkipSpaceAndPeek()
		if err != nil {
			return err
		}
		switch b {
		case '}':
			d.scanr.Read()
			out <- token.EndObject{}
			return nil
		case ',':
			d.scanr.Read()
		default:
			return unexpectedByte(d.scanr, "expected '}' or ',', got")
		}
	}
}

// parseStreamedString reads a quoted JSON string, decoding escape
// sequences, and emits startTok, zero or more StringChunk tokens of
// decoded text, endTok -- the
// big-string profile's streamed form. Unescaping (rather than passing
// raw JSON text through, as the lexer this is adapted from did) is
// required here: StackKeyTracker and FullAssembler treat chunk/value
// text as the literal string content, not its JSON source form.
func (d *Decoder) parseStreamedString(out chan<- token.Token, startTok, endTok token.Token) error {
	if err := expectByte(d.scanr, '"'); err != nil {
		return err
	}
	out <- startTok
	var buf strings.Builder
	flush := func() {
		if buf.Len() > 0 {
			out <- token.StringChunk{Text: buf.String()}
			buf.Reset()
		}
	}
	for {
		b, err := d.scanr.Read()
		if err != nil {
			return err
		}
		switch b {
		case '"':
			flush()
			out <- endTok
			return nil
		case '\\':
			r, err := decodeEscape(d.scanr)
			if err != nil {
				return err
			}
			buf.WriteRune(r)
		default:
			if scanner.IsCtrl(b) {
				d.scanr.Back()
				return unexpectedByte(d.scanr, "invalid control character in string")
			}
			buf.WriteByte(b)
		}
		if buf.Len() >= maxStringChunk {
			flush()
		}
	}
}

// parseQuotedText reads a quoted, escape-decoded JSON string whole, for
// the packed forms (object keys in the big-string profile).
func parseQuotedText(scanr *scanner.Scanner) (string, error) {
	if err := expectByte(scanr, '"'); err != nil {
		return "", err
	}
	var buf strings.Builder
	for {
		b, err := scanr.Read()
		if err != nil {
			return "", err
		}
		switch b {
		case '"':
			return buf.String(), nil
		case '\\':
			r, err := decodeEscape(scanr)
			if err != nil {
				return "", err
			}
			buf.WriteRune(r)
		default:
			if scanner.IsCtrl(b) {
				scanr.Back()
				return "", unexpectedByte(scanr, "invalid control character in string")
			}
			buf.WriteByte(b)
		}
	}
}

// decodeEscape reads the character(s) following a backslash already
// consumed from scanr and returns the rune it decodes to, handling
// \uXXXX surrogate pairs for characters outside the Basic Multilingual
// Plane.
func decodeEscape(scanr *scanner.Scanner) (rune, error) {
	x, err := scanr.Read()
	if err != nil {
		return 0, err
	}
	switch x {
	case '"':
		return '"', nil
	case '\\':
		return '\\', nil
	case '/':
		return '/', nil
	case 'b':
		return '\b', nil
	case 'f':
		return '\f', nil
	case 'n':
		return '\n', nil
	case 'r':
		return '\r', nil
	case 't':
		return '\t', nil
	case 'u':
		r1, err := readHex4(scanr)
		if err != nil {
			return 0, err
		}
		if utf16.IsSurrogate(rune(r1)) {
			if err := expectByte(scanr, '\\'); err != nil {
				return 0, err
			}
			if err := expectByte(scanr, 'u'); err != nil {
				return 0, err
			}
			r2, err := readHex4(scanr)
			if err != nil {
				return 0, err
			}
			dec := utf16.DecodeRune(rune(r1), rune(r2))
			if dec == utf8.RuneError {
				return 0, fmt.Errorf("invalid surrogate pair \\u%04x\\u%04x", r1, r2)
			}
			return dec, nil
		}
		return rune(r1), nil
	default:
		scanr.Back()
		return 0, unexpectedByte(scanr, "invalid escape sequence, got")
	}
}

func readHex4(scanr *scanner.Scanner) (uint16, error) {
	var v uint16
	for i := 0; i < 4; i++ {
		b, err := scanr.Read()
		if err != nil {
			return 0, err
		}
		var d uint16
		switch {
		case b >= '0' && b <= '9':
			d = uint16(b - '0')
		case b >= 'a' && b <= 'f':
			d = uint16(b-'a') + 10
		case b >= 'A' && b <= 'F':
			d = uint16(b-'A') + 10
		default:
			scanr.Back()
			return 0, unexpectedByte(scanr, "expected hex digit, got")
		}
		v = v<<4 | d
	}
	return v, nil
}

func parseNumber(scanr *scanner.Scanner) (string, error) {
	scanr.StartToken()
	var n int
	b, err := scanr.Read()
	if b == '-' {
		b, err = scanr.Read()
	}
	if err != nil {
		return "", err
	}
	if b == '0' {
		b, err = scanr.Read()
		if err != nil {
			return "", err
		}
	} else if b >= '1' && b <= '9' {
		b, _, err = readDigits(scanr)
		if err != nil {
			return "", err
		}
	} else {
		scanr.Back()
		return "", unexpectedByte(scanr, "expected digit, got")
	}
	if b == '.' {
		b, n, err = readDigits(scanr)
		if err != nil {
			return "", err
		}
		if n == 0 {
			scanr.Back()
			return "", unexpectedByte(scanr, "expected digit, got")
		}
	}
	if b == 'e' || b == 'E' {
		b, err = scanr.Peek()
		if err != nil {
			return "", err
		}
		if b == '-' || b == '+' {
			scanr.Read()
		}
		_, n, err = readDigits(scanr)
		if err != nil {
			return "", err
		}
		if n == 0 {
			scanr.Back()
			return "", unexpectedByte(scanr, "expected digit, got")
		}
	}
	scanr.Back()
	return string(scanr.EndToken()), nil
}

func readDigits(scanr *scanner.Scanner) (byte, int, error) {
	var n int
	for {
		b, err := scanr.Read()
		if err != nil {
			return 0, n, err
		}
		if !scanner.IsDigit(b) {
			return b, n, nil
		}
		n++
	}
}

func expectByte(scanr *scanner.Scanner, xb byte) error {
	b, err := scanr.Read()
	if err != nil {
		return err
	}
	if b != xb {
		scanr.Back()
		return unexpectedByte(scanr, "expected %q, got", xb)
	}
	return nil
}

func unexpectedByte(scanr *scanner.Scanner, expected string, args ...interface{}) error {
	pos := scanr.CurrentPos()
	b, err := scanr.Read()
	if err != nil {
		return err
	}
	if b == scanner.EOF {
		return fmt.Errorf("syntax error at L%d,C%d: %s: <EOF>", pos.Line+1, pos.Col+1, fmt.Sprintf(expected, args...))
	}
	return fmt.Errorf("syntax error at L%d,C%d: %s: %q", pos.Line+1, pos.Col+1, fmt.Sprintf(expected, args...), b)
}

func checkBytes(scanr *scanner.Scanner, expected []byte) error {
	for _, xb := range expected {
		if err := expectByte(scanr, xb); err != nil {
			return err
		}
	}
	return nil
}

var (
	trueBytes  = []byte("true")
	falseBytes = []byte("false")
	nullBytes  = []byte("null")
)
