package transform

import (
	"testing"

	"github.com/Xunnamius/tokenstream/token"
)

func TestMaxDepthFilterElidesBeyondDepth(t *testing.T) {
	f := &MaxDepthFilter{MaxDepth: 1}
	got := runTransformer(t, f,
		token.StartArray{},
		token.NumberValue{Text: "1"},
		token.StartObject{},
		token.KeyValue{Text: "x"}, token.NumberValue{Text: "2"},
		token.EndObject{},
		token.EndArray{},
	)
	want := []token.Token{
		token.StartArray{},
		token.NumberValue{Text: "1"},
		token.StartObject{},
		token.Elision{},
		token.EndObject{},
		token.EndArray{},
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

func TestExplodeArrayDropsRootBrackets(t *testing.T) {
	f := ExplodeArray{}
	got := runTransformer(t, f,
		token.StartArray{},
		token.NumberValue{Text: "1"}, token.NumberValue{Text: "2"}, token.NumberValue{Text: "3"},
		token.EndArray{},
	)
	want := []token.Token{token.NumberValue{Text: "1"}, token.NumberValue{Text: "2"}, token.NumberValue{Text: "3"}}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestExplodeArrayPassesNonArrayThrough(t *testing.T) {
	f := ExplodeArray{}
	input := []token.Token{
		token.StartObject{}, token.KeyValue{Text: "x"}, token.NumberValue{Text: "2"}, token.EndObject{},
	}
	got := runTransformer(t, f, input...)
	if len(got) != len(input) {
		t.Fatalf("got %v, want %v unchanged", got, input)
	}
	for i := range input {
		if got[i] != input[i] {
			t.Errorf("token %d = %v, want %v", i, got[i], input[i])
		}
	}
}

func TestJoinStreamWrapsValuesInArray(t *testing.T) {
	f := JoinStream{}
	got := runTransformer(t, f, token.NumberValue{Text: "1"}, token.NumberValue{Text: "2"})
	want := []token.Token{token.StartArray{}, token.NumberValue{Text: "1"}, token.NumberValue{Text: "2"}, token.EndArray{}}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestJoinStreamEmptyInputYieldsEmptyArray(t *testing.T) {
	f := JoinStream{}
	got := runTransformer(t, f)
	want := []token.Token{token.StartArray{}, token.EndArray{}}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}
