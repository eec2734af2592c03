package transform

import (
	"encoding/json"
	"testing"

	"github.com/Xunnamius/tokenstream/internal/pathmatch"
	"github.com/Xunnamius/tokenstream/token"
)

func runPackEntry(t *testing.T, p *PackEntry, toks ...token.Token) []token.Token {
	t.Helper()
	in := make(chan token.Token, len(toks))
	for _, tok := range toks {
		in <- tok
	}
	close(in)
	var out token.SliceWriteStream
	p.Transform(in, &out)
	return out.Toks
}

func TestPackEntryPassThroughWhenNoMatch(t *testing.T) {
	p, err := NewPackEntry(false, false, pathmatch.Key("nope"))
	if err != nil {
		t.Fatal(err)
	}
	input := []token.Token{
		token.StartObject{},
		token.KeyValue{Text: "a"}, token.NumberValue{Text: "1"},
		token.EndObject{},
	}
	got := runPackEntry(t, p, input...)
	if len(got) != len(input) {
		t.Fatalf("got %d tokens, want %d (pass-through, §8 property 5)", len(got), len(input))
	}
	for i := range input {
		if got[i] != input[i] {
			t.Errorf("token %d = %v, want %v", i, got[i], input[i])
		}
	}
}

func TestPackEntryEmitsPackedEntryAfterValue(t *testing.T) {
	p, err := NewPackEntry(false, false, pathmatch.Key("a"))
	if err != nil {
		t.Fatal(err)
	}
	got := runPackEntry(t, p,
		token.StartObject{},
		token.KeyValue{Text: "a"}, token.NumberValue{Text: "1"},
		token.EndObject{},
	)
	want := []token.Token{
		token.StartObject{},
		token.KeyValue{Text: "a"}, token.NumberValue{Text: "1"},
	}
	if len(got) != len(want)+2 {
		t.Fatalf("got %d tokens: %v", len(got), got)
	}
	for i, w := range want {
		if got[i] != w {
			t.Errorf("token %d = %v, want %v", i, got[i], w)
		}
	}
	pe, ok := got[len(want)].(token.PackedEntry)
	if !ok {
		t.Fatalf("token after value = %T, want PackedEntry", got[len(want)])
	}
	if pe.Key != "a" || pe.Value != json.Number("1") {
		t.Errorf("PackedEntry = %+v", pe)
	}
	if _, ok := got[len(got)-1].(token.EndObject); !ok {
		t.Errorf("last token = %T, want EndObject", got[len(got)-1])
	}
}

func TestPackEntryDeeplyNested(t *testing.T) {
	// E4: {"a":{"b":{"c":{"d":{"e":"deep"}}}}}, filter key="a.b.c.d.e".
	p, err := NewPackEntry(false, false, pathmatch.Key("a.b.c.d.e"))
	if err != nil {
		t.Fatal(err)
	}
	input := []token.Token{
		token.StartObject{},
		token.KeyValue{Text: "a"}, token.StartObject{},
		token.KeyValue{Text: "b"}, token.StartObject{},
		token.KeyValue{Text: "c"}, token.StartObject{},
		token.KeyValue{Text: "d"}, token.StartObject{},
		token.KeyValue{Text: "e"},
		token.StartString{}, token.StringChunk{Text: "deep"}, token.EndString{},
		token.EndObject{}, token.EndObject{}, token.EndObject{}, token.EndObject{},
		token.EndObject{},
	}
	got := runPackEntry(t, p, input...)
	if len(got) != len(input)+1 {
		t.Fatalf("got %d tokens, want %d (original + 1 PackedEntry)", len(got), len(input)+1)
	}
	// The PackedEntry must appear immediately after the EndString for "deep".
	endStringIdx := -1
	for i, tok := range got {
		if _, ok := tok.(token.EndString); ok {
			endStringIdx = i
			break
		}
	}
	pe, ok := got[endStringIdx+1].(token.PackedEntry)
	if !ok {
		t.Fatalf("token after EndString = %T, want PackedEntry", got[endStringIdx+1])
	}
	if pe.Key != "e" || pe.Value != "deep" {
		t.Errorf("PackedEntry = %+v", pe)
	}
	wantStack := []any{"a", "b", "c", "d", "e"}
	if len(pe.Stack) != len(wantStack) {
		t.Fatalf("Stack = %v, want %v", pe.Stack, wantStack)
	}
	for i := range wantStack {
		if pe.Stack[i] != wantStack[i] {
			t.Errorf("Stack[%d] = %v, want %v", i, pe.Stack[i], wantStack[i])
		}
	}
}

func TestPackEntrySparseBracketsWrapKeyAndValue(t *testing.T) {
	p, err := NewPackEntry(true, false, pathmatch.Key("a"))
	if err != nil {
		t.Fatal(err)
	}
	got := runPackEntry(t, p,
		token.StartObject{},
		token.KeyValue{Text: "a"}, token.NumberValue{Text: "1"},
		token.EndObject{},
	)
	want := []struct {
		check func(token.Token) bool
	}{
		{func(tok token.Token) bool { _, ok := tok.(token.StartObject); return ok }},
		{func(tok token.Token) bool {
			b, ok := tok.(token.SparseBracket)
			return ok && b.Kind == token.SparseEntryKeyStart
		}},
		{func(tok token.Token) bool { v, ok := tok.(token.KeyValue); return ok && v.Text == "a" }},
		{func(tok token.Token) bool {
			b, ok := tok.(token.SparseBracket)
			return ok && b.Kind == token.SparseEntryKeyEnd
		}},
		{func(tok token.Token) bool {
			b, ok := tok.(token.SparseBracket)
			return ok && b.Kind == token.SparseEntryValueStart
		}},
		{func(tok token.Token) bool { v, ok := tok.(token.NumberValue); return ok && v.Text == "1" }},
		{func(tok token.Token) bool {
			b, ok := tok.(token.SparseBracket)
			return ok && b.Kind == token.SparseEntryValueEnd
		}},
		{func(tok token.Token) bool { _, ok := tok.(token.EndObject); return ok }},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d tokens, want %d: %v", len(got), len(want), got)
	}
	for i, w := range want {
		if !w.check(got[i]) {
			t.Errorf("token %d = %v, failed expected check", i, got[i])
		}
	}
}

func TestPackEntryDiscardRemovesComponentTokens(t *testing.T) {
	p, err := NewPackEntry(true, true, pathmatch.Key("a"))
	if err != nil {
		t.Fatal(err)
	}
	got := runPackEntry(t, p,
		token.StartObject{},
		token.KeyValue{Text: "a"}, token.NumberValue{Text: "1"},
		token.EndObject{},
	)
	want := []token.Token{
		token.StartObject{},
		token.SparseBracket{Kind: token.SparseEntryKeyStart},
		token.SparseBracket{Kind: token.SparseEntryKeyEnd},
		token.SparseBracket{Kind: token.SparseEntryValueStart},
		token.SparseBracket{Kind: token.SparseEntryValueEnd},
		token.EndObject{},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d tokens, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		wb, wantBracket := want[i].(token.SparseBracket)
		gb, gotBracket := got[i].(token.SparseBracket)
		if wantBracket != gotBracket {
			t.Fatalf("token %d = %T, want %T", i, got[i], want[i])
		}
		if wantBracket && gb.Kind != wb.Kind {
			t.Errorf("token %d kind = %v, want %v", i, gb.Kind, wb.Kind)
		}
		if !wantBracket && got[i] != want[i] {
			t.Errorf("token %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestPackEntryStreamedAndPackedKeyNoDuplication(t *testing.T) {
	p, err := NewPackEntry(false, false, pathmatch.Key("name"))
	if err != nil {
		t.Fatal(err)
	}
	got := runPackEntry(t, p,
		token.StartObject{},
		token.StartKey{}, token.StringChunk{Text: "name"}, token.EndKey{}, token.KeyValue{Text: "name"},
		token.StringValue{Text: "x"},
		token.EndObject{},
	)
	// key tokens forwarded once (4: StartKey/StringChunk/EndKey/KeyValue
	// dup), value forwarded once (1: StringValue), plus the original
	// StartObject/EndObject and the PackedEntry synthetic token.
	if len(got) != 8 {
		t.Fatalf("got %d tokens, want 8: %v", len(got), got)
	}
	pe, ok := got[len(got)-2].(token.PackedEntry)
	if !ok || pe.Key != "name" || pe.Value != "x" {
		t.Fatalf("token before EndObject = %+v, want PackedEntry(name=x)", got[len(got)-2])
	}
}

func TestPackEntryStreamedAndPackedValueNoDuplication(t *testing.T) {
	p, err := NewPackEntry(false, false, pathmatch.Key("name"))
	if err != nil {
		t.Fatal(err)
	}
	got := runPackEntry(t, p,
		token.StartObject{},
		token.KeyValue{Text: "name"},
		token.StartString{}, token.StringChunk{Text: "x"}, token.EndString{}, token.StringValue{Text: "x"},
		token.EndObject{},
	)
	// key forwarded once (1: KeyValue), value forwarded once each for the
	// streamed form (StartString/StringChunk/EndString) and its packed
	// duplicate (StringValue) since Discard is false, plus the original
	// StartObject/EndObject and the PackedEntry synthetic token: 8 total.
	// Crucially, the PackedEntry must be the last token before EndObject --
	// never the StringValue duplicate after it (§3 invariant 3, §8 property 4).
	if len(got) != 8 {
		t.Fatalf("got %d tokens, want 8: %v", len(got), got)
	}
	if _, ok := got[len(got)-1].(token.EndObject); !ok {
		t.Fatalf("last token = %T, want EndObject", got[len(got)-1])
	}
	pe, ok := got[len(got)-2].(token.PackedEntry)
	if !ok || pe.Key != "name" || pe.Value != "x" {
		t.Fatalf("token before EndObject = %+v, want PackedEntry(name=x)", got[len(got)-2])
	}
}

func TestPackEntrySparseDiscardAbsorbsStreamedAndPackedValueDuplicate(t *testing.T) {
	// Regression: in sparse+discard mode (the mode omitEntry builds on),
	// the trailing packed duplicate of a
	// streamed+packed matched value must not leak into the output as a
	// stray component token after SparseEntryValueEnd.
	p, err := NewPackEntry(true, true, pathmatch.Key("name"))
	if err != nil {
		t.Fatal(err)
	}
	got := runPackEntry(t, p,
		token.StartObject{},
		token.StartKey{}, token.StringChunk{Text: "name"}, token.EndKey{}, token.KeyValue{Text: "name"},
		token.StartString{}, token.StringChunk{Text: "x"}, token.EndString{}, token.StringValue{Text: "x"},
		token.EndObject{},
	)
	want := []token.Token{
		token.StartObject{},
		token.SparseBracket{Kind: token.SparseEntryKeyStart},
		token.SparseBracket{Kind: token.SparseEntryKeyEnd},
		token.SparseBracket{Kind: token.SparseEntryValueStart},
		token.SparseBracket{Kind: token.SparseEntryValueEnd},
		token.EndObject{},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d tokens, want %d (no leaked duplicate): %v", len(got), len(want), got)
	}
	for i := range want {
		wb, wantBracket := want[i].(token.SparseBracket)
		gb, gotBracket := got[i].(token.SparseBracket)
		if wantBracket != gotBracket {
			t.Fatalf("token %d = %T, want %T", i, got[i], want[i])
		}
		if wantBracket && gb.Kind != wb.Kind {
			t.Errorf("token %d kind = %v, want %v", i, gb.Kind, wb.Kind)
		}
		if !wantBracket && got[i] != want[i] {
			t.Errorf("token %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestPackEntryFirstMatchWinsAmongMultiplePatterns(t *testing.T) {
	p, err := NewPackEntry(false, false, pathmatch.Key("b"), pathmatch.Key("a"))
	if err != nil {
		t.Fatal(err)
	}
	got := runPackEntry(t, p,
		token.StartObject{},
		token.KeyValue{Text: "a"}, token.NumberValue{Text: "1"},
		token.KeyValue{Text: "b"}, token.NumberValue{Text: "2"},
		token.EndObject{},
	)
	var matchers []string
	for _, tok := range got {
		if pe, ok := tok.(token.PackedEntry); ok {
			matchers = append(matchers, pe.Matcher)
		}
	}
	if len(matchers) != 2 || matchers[0] != "a" || matchers[1] != "b" {
		t.Errorf("matchers = %v, want [a b]", matchers)
	}
}
