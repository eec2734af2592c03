// Package transform holds the token-stream filters built on top of
// assemble.FullAssembler: packEntry and the filters derived from it
// (omitEntry, selectEntry, injectEntry, objectSieve).
package transform

import (
	"github.com/Xunnamius/tokenstream/assemble"
	"github.com/Xunnamius/tokenstream/internal/pathmatch"
	"github.com/Xunnamius/tokenstream/token"
)

type packState int

const (
	packIdle packState = iota
	packKey
	packValue
)

// valueDupKind records which streamed primitive the matched value's last
// token just finished, so dispatchValue knows which packed token (if any)
// would be its legal streamed+packed duplicate (§3 invariant 2).
type valueDupKind int

const (
	valueDupNone valueDupKind = iota
	valueDupString
	valueDupNumber
)

// PackEntry scans a token stream for object entries whose key path
// matches a configured matcher and, for each match, emits a synthetic
// token immediately after the final token of that entry's value: a
// PackedEntry carrying the fully assembled value, or in sparse mode the
// four SparseBracket tokens bracketing the entry's key and value tokens
// without materializing the value (§4.5).
//
// omitEntry, selectEntry and objectSieve are all built by running a
// PackEntry in a particular mode and interpreting its synthetic output.
type PackEntry struct {
	Matcher pathmatch.Matcher
	// Sep joins key-path components for matching; defaults to "." if left
	// empty.
	Sep string
	// Sparse emits SparseBracket tokens instead of a materialized
	// PackedEntry, so downstream filters can detect entry boundaries
	// without paying for a full value assembly.
	Sparse bool
	// Discard removes the matched entry's key and value tokens from the
	// output stream; only the synthetic token(s) remain for that entry.
	Discard bool
	// Owner tags every synthetic token this instance emits, so several
	// PackEntry instances cooperating in one pipeline can recognise their
	// own output (token.OwnedBy) and ignore each other's.
	Owner token.OwnerID

	tracker token.StackKeyTracker
	state   packState

	keyBuf         []token.Token
	keyAwaitingDup bool

	matched  bool
	matchKey string
	matchStack []any
	matchName  string

	val              *assemble.FullAssembler
	valueStarted     bool
	valueAwaitingDup valueDupKind
}

// NewPackEntry builds a PackEntry matching any of patterns (first-match-
// wins per §7), tagged with a fresh OwnerID.
func NewPackEntry(sparse, discard bool, patterns ...pathmatch.KeyPattern) (*PackEntry, error) {
	m, err := pathmatch.Build(patterns...)
	if err != nil {
		return nil, err
	}
	return &PackEntry{Matcher: m, Sep: ".", Sparse: sparse, Discard: discard, Owner: token.NewOwnerID()}, nil
}

// WithSeparator overrides the default "." path separator.
func (p *PackEntry) WithSeparator(sep string) *PackEntry {
	p.Sep = sep
	return p
}

// Transform implements token.StreamTransformer.
func (p *PackEntry) Transform(in <-chan token.Token, out token.WriteStream) {
	if p.Sep == "" {
		p.Sep = "."
	}
	for tok := range in {
		p.consume(tok, out)
	}
}

func (p *PackEntry) consume(tok token.Token, out token.WriteStream) {
	p.tracker.Update(tok)
	p.dispatch(tok, out)
}

func (p *PackEntry) dispatch(tok token.Token, out token.WriteStream) {
	switch p.state {
	case packIdle:
		p.dispatchIdle(tok, out)
	case packKey:
		p.dispatchKey(tok, out)
	case packValue:
		p.dispatchValue(tok, out)
	}
}

// dispatchIdle forwards anything that isn't the start of an entry's key
// unchanged; a key start begins buffering (§4.5 "Key buffering").
func (p *PackEntry) dispatchIdle(tok token.Token, out token.WriteStream) {
	switch tok.(type) {
	case token.StartKey:
		p.state = packKey
		p.keyAwaitingDup = false
		p.keyBuf = append(p.keyBuf[:0], tok)
	case token.KeyValue:
		// A packed-only key: the whole key is known in this one token,
		// so the match decision can be made immediately with no dup to
		// wait for.
		p.keyBuf = append(p.keyBuf[:0], tok)
		p.prepareDecision()
		p.applyKeyDecision(out)
	default:
		out.Put(tok)
	}
}

// dispatchKey buffers key tokens until the key is fully assembled, then
// decides whether it matches (§3 invariant 2 means a streamed key may be
// immediately followed by its packed duplicate; keyAwaitingDup holds the
// decision open for exactly one more token to absorb that duplicate into
// the same buffer before flushing or discarding it).
func (p *PackEntry) dispatchKey(tok token.Token, out token.WriteStream) {
	if p.keyAwaitingDup {
		if _, ok := tok.(token.KeyValue); ok {
			p.keyBuf = append(p.keyBuf, tok)
			p.applyKeyDecision(out)
			return
		}
		p.applyKeyDecision(out)
		p.dispatch(tok, out)
		return
	}
	p.keyBuf = append(p.keyBuf, tok)
	if _, ok := tok.(token.EndKey); ok {
		p.prepareDecision()
		p.keyAwaitingDup = true
	}
}

// prepareDecision tests the matcher against the path as it stands right
// after the key just completed (the tracker already holds this entry's
// key as its own stack head, since it was fed every key token above).
func (p *PackEntry) prepareDecision() {
	path := p.tracker.PathString(p.Sep)
	name, ok := p.Matcher.Match(path)
	p.matched = ok
	p.matchName = name
	if ok {
		if k, isStr := p.tracker.Head(0).(string); isStr {
			p.matchKey = k
		}
		p.matchStack = append([]any(nil), p.tracker.Stack()...)
	}
}

// applyKeyDecision disposes of the buffered key tokens (flush verbatim,
// or drop if Discard) and, for a match, emits the sparse key brackets and
// starts assembling the value; state moves to packIdle (no match) or
// packValue (match).
func (p *PackEntry) applyKeyDecision(out token.WriteStream) {
	if !p.matched {
		for _, t := range p.keyBuf {
			out.Put(t)
		}
		p.keyBuf = p.keyBuf[:0]
		p.state = packIdle
		return
	}
	if p.Sparse {
		out.Put(token.SparseBracket{Kind: token.SparseEntryKeyStart, Key: p.matchKey, Stack: p.matchStack, Matcher: p.matchName, Owner: p.Owner})
	}
	if !p.Discard {
		for _, t := range p.keyBuf {
			out.Put(t)
		}
	}
	p.keyBuf = p.keyBuf[:0]
	if p.Sparse {
		out.Put(token.SparseBracket{Kind: token.SparseEntryKeyEnd, Key: p.matchKey, Stack: p.matchStack, Matcher: p.matchName, Owner: p.Owner})
	}
	p.val = assemble.New(p.Sparse)
	p.valueStarted = false
	p.state = packValue
}

// dispatchValue forwards (or drops) the matched entry's value tokens
// while feeding them to the assembler, and finalizes the entry -- emitting
// the PackedEntry or the closing SparseEntryValueEnd -- the instant the
// assembler reports the value complete (§3 invariant 3: never before).
//
// A streamed string/number value may be immediately followed by its own
// packed duplicate (§3 invariant 2), just like a streamed key can. Once
// the assembler reports Done after an EndString/EndNumber,
// valueAwaitingDup holds the decision open for exactly one more token so
// that duplicate is absorbed into this same entry instead of finalizing
// one token early and letting the duplicate free-pass through
// dispatchIdle as a stray component token (the same fix dispatchKey
// already applies via keyAwaitingDup).
func (p *PackEntry) dispatchValue(tok token.Token, out token.WriteStream) {
	if p.valueAwaitingDup != valueDupNone {
		dup := p.isMatchingValueDup(tok)
		p.valueAwaitingDup = valueDupNone
		if dup {
			if !p.Discard {
				out.Put(tok)
			}
			p.val.Consume(tok)
			p.finalizeValue(out)
			return
		}
		p.finalizeValue(out)
		p.dispatch(tok, out)
		return
	}

	if p.Sparse && !p.valueStarted {
		out.Put(token.SparseBracket{Kind: token.SparseEntryValueStart, Key: p.matchKey, Stack: p.matchStack, Matcher: p.matchName, Owner: p.Owner})
		p.valueStarted = true
	}
	if !p.Discard {
		out.Put(tok)
	}
	p.val.Consume(tok)
	if !p.val.Done() {
		return
	}
	switch tok.(type) {
	case token.EndString:
		p.valueAwaitingDup = valueDupString
		return
	case token.EndNumber:
		p.valueAwaitingDup = valueDupNumber
		return
	}
	p.finalizeValue(out)
}

// isMatchingValueDup reports whether tok is the packed duplicate that
// legally follows the streamed primitive recorded in valueAwaitingDup.
func (p *PackEntry) isMatchingValueDup(tok token.Token) bool {
	switch tok.(type) {
	case token.StringValue:
		return p.valueAwaitingDup == valueDupString
	case token.NumberValue:
		return p.valueAwaitingDup == valueDupNumber
	}
	return false
}

// finalizeValue emits the synthetic token closing this matched entry and
// returns the state machine to packIdle.
func (p *PackEntry) finalizeValue(out token.WriteStream) {
	if p.Sparse {
		out.Put(token.SparseBracket{Kind: token.SparseEntryValueEnd, Key: p.matchKey, Stack: p.matchStack, Matcher: p.matchName, Owner: p.Owner})
	} else {
		out.Put(token.PackedEntry{Key: p.matchKey, Stack: p.matchStack, Matcher: p.matchName, Value: p.val.Current(), Owner: p.Owner})
	}
	p.val = nil
	p.matched = false
	p.state = packIdle
}
