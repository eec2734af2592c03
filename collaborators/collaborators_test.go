package collaborators

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Xunnamius/tokenstream/assemble"
	"github.com/Xunnamius/tokenstream/token"
)

func drain(t *testing.T, src token.StreamSource) ([]token.Token, error) {
	t.Helper()
	ch := make(chan token.Token)
	errCh := make(chan error, 1)
	go func() {
		errCh <- src.Produce(ch)
		close(ch)
	}()
	var toks []token.Token
	for tok := range ch {
		toks = append(toks, tok)
	}
	return toks, <-errCh
}

func TestListsStreamPaginatesUntilDone(t *testing.T) {
	pages := [][]List{
		{{ID: "1", DisplayName: "a"}},
		{{ID: "2", DisplayName: "b"}},
	}
	call := 0
	fetch := func(cursor string) ([]List, string, bool, error) {
		items := pages[call]
		call++
		done := call >= len(pages)
		return items, "", done, nil
	}
	src := NewListsStream(fetch)
	toks, err := drain(t, src)
	if err != nil {
		t.Fatal(err)
	}
	asm := assemble.New(false)
	for _, tok := range toks {
		asm.Consume(tok)
	}
	if !asm.Done() {
		t.Fatal("assembler did not see a complete root value")
	}
	arr, ok := asm.Current().([]any)
	if !ok {
		t.Fatalf("got %T, want []any", asm.Current())
	}
	// two fetched items plus the trailing final marker
	if len(arr) != 3 {
		t.Fatalf("got %d elements, want 3: %v", len(arr), arr)
	}
	last, ok := arr[2].(map[string]any)
	if !ok || last["final"] != true {
		t.Errorf("last element = %v, want the final marker", arr[2])
	}
}

func TestListsStreamPropagatesFetchError(t *testing.T) {
	wantErr := errors.New("network down")
	fetch := func(cursor string) ([]List, string, bool, error) {
		return nil, "", false, wantErr
	}
	src := NewListsStream(fetch)
	_, err := drain(t, src)
	if err == nil {
		t.Fatal("expected an error")
	}
	var ioErr *token.ExternalIOError
	if !errors.As(err, &ioErr) {
		t.Fatalf("got %v, want *token.ExternalIOError", err)
	}
	if !errors.Is(err, wantErr) {
		t.Errorf("error does not wrap %v: %v", wantErr, err)
	}
}

func TestFileSinkWritesCompleteOutput(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.json")
	sink := FileSink{Path: path}
	in := make(chan token.Token, 4)
	in <- token.StartObject{}
	in <- token.KeyValue{Text: "a"}
	in <- token.NumberValue{Text: "1"}
	in <- token.EndObject{}
	close(in)
	if err := sink.Consume(in); err != nil {
		t.Fatal(err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `{"a":1}` {
		t.Errorf("got %q", b)
	}
}

type failingSource struct{}

func (failingSource) Produce(out chan<- token.Token) error {
	out <- token.StartObject{}
	return errors.New("boom")
}

func TestFileSinkRenamesToPartialOnFailure(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.json")
	sink := FileSink{Path: path}
	ch := token.StartStream(failingSource{}, nil)
	err := sink.Consume(ch)
	if err == nil {
		t.Fatal("expected an error")
	}
	if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
		t.Errorf("expected %s to have been renamed away", path)
	}
	if _, statErr := os.Stat(path + "-partial"); statErr != nil {
		t.Errorf("expected a -partial file: %v", statErr)
	}
}
