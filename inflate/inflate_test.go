package inflate

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/Xunnamius/tokenstream/token"
)

// TestPushManyRespectsBackpressure exercises property 10: a downstream
// consumer with a buffer of 1 token draining N >= 2 inflated chunks from a
// single PushMany call completes without deadlock, in order.
func TestPushManyRespectsBackpressure(t *testing.T) {
	const n = 50
	toks := make([]token.Token, n)
	for i := range toks {
		toks[i] = token.NumberValue{Text: strconv.Itoa(i)}
	}

	ch := make(chan token.Token, 1) // highWaterMark = 1
	done := make(chan error, 1)
	go func() {
		done <- PushMany(context.Background(), token.ChannelWriteStream(ch), NewSliceSource(toks))
		close(ch)
	}()

	var got []token.Token
	timeout := time.After(2 * time.Second)
	for {
		select {
		case tok, ok := <-ch:
			if !ok {
				goto drained
			}
			got = append(got, tok)
		case <-timeout:
			t.Fatal("timed out: PushMany appears to have deadlocked")
		}
	}
drained:
	if err := <-done; err != nil {
		t.Fatalf("PushMany returned error: %v", err)
	}
	if len(got) != n {
		t.Fatalf("got %d tokens, want %d", len(got), n)
	}
	for i, tok := range got {
		if tok.(token.NumberValue).Text != strconv.Itoa(i) {
			t.Fatalf("token %d out of order: got %v", i, tok)
		}
	}
}

func TestPushManyPropagatesSourceError(t *testing.T) {
	boom := errTest("boom")
	src := FuncSource(func() (token.Token, bool, error) { return nil, false, boom })
	var w token.SliceWriteStream
	err := PushMany(context.Background(), &w, src)
	if err != boom {
		t.Fatalf("err = %v, want %v", err, boom)
	}
}

func TestPushManyHonoursContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var w token.SliceWriteStream
	err := PushMany(ctx, &w, NewSliceSource([]token.Token{token.NullValue{}}))
	if err == nil {
		t.Fatal("expected context.Canceled error")
	}
}

type errTest string

func (e errTest) Error() string { return string(e) }
