package transform

import (
	"testing"

	"github.com/Xunnamius/tokenstream/internal/pathmatch"
	"github.com/Xunnamius/tokenstream/token"
)

func runTransformer(t *testing.T, tr token.StreamTransformer, toks ...token.Token) []token.Token {
	t.Helper()
	in := make(chan token.Token, len(toks))
	for _, tok := range toks {
		in <- tok
	}
	close(in)
	var out token.SliceWriteStream
	tr.Transform(in, &out)
	return out.Toks
}

func TestOmitEntryRemovesMatchedEntry(t *testing.T) {
	o, err := NewOmitEntry(pathmatch.Key("secret"))
	if err != nil {
		t.Fatal(err)
	}
	got := runTransformer(t, o,
		token.StartObject{},
		token.KeyValue{Text: "name"}, token.StringValue{Text: "alice"},
		token.KeyValue{Text: "secret"}, token.StringValue{Text: "hunter2"},
		token.KeyValue{Text: "age"}, token.NumberValue{Text: "9"},
		token.EndObject{},
	)
	want := []token.Token{
		token.StartObject{},
		token.KeyValue{Text: "name"}, token.StringValue{Text: "alice"},
		token.KeyValue{Text: "age"}, token.NumberValue{Text: "9"},
		token.EndObject{},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d tokens, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestOmitEntryPassThroughWhenNoMatch(t *testing.T) {
	o, err := NewOmitEntry(pathmatch.Key("nope"))
	if err != nil {
		t.Fatal(err)
	}
	input := []token.Token{
		token.StartObject{},
		token.KeyValue{Text: "a"}, token.NumberValue{Text: "1"},
		token.EndObject{},
	}
	got := runTransformer(t, o, input...)
	if len(got) != len(input) {
		t.Fatalf("got %d tokens, want %d", len(got), len(input))
	}
	for i := range input {
		if got[i] != input[i] {
			t.Errorf("token %d = %v, want %v", i, got[i], input[i])
		}
	}
}

func TestSelectEntryKeepsOnlySelectedValue(t *testing.T) {
	s, err := NewSelectEntry(pathmatch.Key("b"))
	if err != nil {
		t.Fatal(err)
	}
	got := runTransformer(t, s,
		token.StartObject{},
		token.KeyValue{Text: "a"}, token.NumberValue{Text: "1"},
		token.KeyValue{Text: "b"}, token.StringValue{Text: "picked"},
		token.KeyValue{Text: "c"}, token.NumberValue{Text: "3"},
		token.EndObject{},
	)
	want := []token.Token{token.StringValue{Text: "picked"}}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	if got[0] != want[0] {
		t.Errorf("got %v, want %v", got[0], want[0])
	}
}

func TestSelectEntrySuppressesArrayDelimiters(t *testing.T) {
	s, err := NewSelectEntry(pathmatch.Key("items"))
	if err != nil {
		t.Fatal(err)
	}
	got := runTransformer(t, s,
		token.StartObject{},
		token.KeyValue{Text: "items"},
		token.StartArray{}, token.NumberValue{Text: "1"}, token.NumberValue{Text: "2"}, token.EndArray{},
		token.EndObject{},
	)
	want := []token.Token{token.NumberValue{Text: "1"}, token.NumberValue{Text: "2"}}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v (array delimiters suppressed)", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestSelectEntryPassesThroughNonArrayVerbatim(t *testing.T) {
	s, err := NewSelectEntry(pathmatch.Key("obj"))
	if err != nil {
		t.Fatal(err)
	}
	got := runTransformer(t, s,
		token.StartObject{},
		token.KeyValue{Text: "obj"},
		token.StartObject{}, token.KeyValue{Text: "x"}, token.BoolValue{Value: true}, token.EndObject{},
		token.EndObject{},
	)
	want := []token.Token{
		token.StartObject{}, token.KeyValue{Text: "x"}, token.BoolValue{Value: true}, token.EndObject{},
	}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d = %v, want %v", i, got[i], want[i])
		}
	}
}
