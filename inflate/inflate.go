// Package inflate provides the one concurrency primitive the pipeline
// needs: a way for a transformer to emit an unbounded number of output
// tokens in response to a single input token (flushing a held-back
// buffer, or piping through a per-entry value stream) without blocking
// the rest of the pipeline while downstream is full (§4.4, §5).
//
// In the reference implementation this requires an explicit suspend/
// resume state machine keyed off a "flow" event from the consumer. In Go,
// every transformer already runs in its own goroutine wired together with
// channels (token.TransformStream); a channel send blocks only the
// sending goroutine, and resumes automatically the instant the consumer
// reads again. That is exactly the suspend-on-full/resume-on-read
// contract §4.4 asks for, so PushMany is a thin, sequential loop: the Go
// scheduler supplies the rest.
package inflate

import (
	"context"

	"github.com/Xunnamius/tokenstream/token"
)

// Source produces a sequence of Tokens, one at a time. Next returns
// ok=false once exhausted, or a non-nil error if production failed.
type Source interface {
	Next() (tok token.Token, ok bool, err error)
}

// SliceSource replays a fixed slice of Tokens. It models the "chunks is an
// array" case of push_many.
type SliceSource struct {
	toks []token.Token
	pos  int
}

func NewSliceSource(toks []token.Token) *SliceSource {
	return &SliceSource{toks: toks}
}

func (s *SliceSource) Next() (token.Token, bool, error) {
	if s.pos >= len(s.toks) {
		return nil, false, nil
	}
	tok := s.toks[s.pos]
	s.pos++
	return tok, true, nil
}

// ChanSource drains a Token channel until it is closed. It models the
// "chunks is an (async) iterator" case of push_many - e.g. the per-object
// value stream injectEntry pipes downstream.
type ChanSource struct {
	ch <-chan token.Token
}

func NewChanSource(ch <-chan token.Token) *ChanSource {
	return &ChanSource{ch: ch}
}

func (s *ChanSource) Next() (token.Token, bool, error) {
	tok, ok := <-s.ch
	if !ok {
		return nil, false, nil
	}
	return tok, true, nil
}

// FuncSource adapts a zero-argument producer function to Source. It
// models the "chunks is a zero-argument producer" case of push_many.
type FuncSource func() (tok token.Token, ok bool, err error)

func (f FuncSource) Next() (token.Token, bool, error) { return f() }

// PushMany drains src into out, one Token at a time, stopping at the
// first error src reports or when src is exhausted. It returns that error
// (nil on clean exhaustion), matching the push_many completion-callback
// contract in §4.4.
//
// out.Put may block the calling goroutine when downstream signals full;
// per the package doc, that block IS the suspend point, and it resumes
// on its own once downstream reads again - no separate callback or flow
// channel is needed to drive it.
func PushMany(ctx context.Context, out token.WriteStream, src Source) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		tok, ok, err := src.Next()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		out.Put(tok)
	}
}
