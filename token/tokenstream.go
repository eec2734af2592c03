package token

// ReadStream is a pull source of Tokens. Next returns nil once the stream
// is exhausted.
type ReadStream interface {
	Next() Token
}

// WriteStream is a push sink of Tokens.
type WriteStream interface {
	Put(Token)
}

// ChannelReadStream adapts a receive-only Token channel to ReadStream.
// Next blocks until a Token is available or the channel is closed, in
// which case it returns nil (the zero value of the Token interface).
type ChannelReadStream <-chan Token

func (r ChannelReadStream) Next() Token {
	return <-r
}

// ChannelWriteStream adapts a send-only Token channel to WriteStream. Put
// blocks if the channel's buffer is full; this is how a transformer's
// goroutine is suspended by downstream backpressure (§4.4, §5) without
// blocking the rest of the pipeline, which runs in its own goroutines.
type ChannelWriteStream chan<- Token

func (w ChannelWriteStream) Put(tok Token) {
	w <- tok
}

// SliceReadStream replays a fixed slice of Tokens, e.g. to feed a small
// buffered sequence back through a transformer.
type SliceReadStream struct {
	toks []Token
}

func NewSliceReadStream(toks []Token) *SliceReadStream {
	return &SliceReadStream{toks: toks}
}

func (r *SliceReadStream) Next() (tok Token) {
	if len(r.toks) > 0 {
		tok = r.toks[0]
		r.toks = r.toks[1:]
	}
	return
}

// SliceWriteStream appends every Token it is given to a slice. Useful in
// tests that want to assert on the tokens a transformer produced.
type SliceWriteStream struct {
	Toks []Token
}

func (w *SliceWriteStream) Put(tok Token) {
	w.Toks = append(w.Toks, tok)
}
