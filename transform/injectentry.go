package transform

import (
	"context"
	"fmt"

	"github.com/Xunnamius/tokenstream/inflate"
	"github.com/Xunnamius/tokenstream/internal/pathmatch"
	"github.com/Xunnamius/tokenstream/token"
)

// ValueStreamFactory produces the token stream of the value to inject,
// once per object injectEntry matches (§4.8).
type ValueStreamFactory func() (inflate.Source, error)

// FactoryError wraps an error a ValueStreamFactory returned; injectEntry
// propagates it as a fatal pipeline error (§7 FactoryError).
type FactoryError struct{ Err error }

func (e *FactoryError) Error() string {
	return fmt.Sprintf("injectEntry: valueTokenStreamFactory failed: %v", e.Err)
}

func (e *FactoryError) Unwrap() error { return e.Err }

// InjectEntry inserts a new key/value entry into every object whose
// enclosing key path matches InjectionPoint (or, if InjectionPoint is
// nil, only the root-level object) (§4.8).
type InjectEntry struct {
	Key                string
	ValueStreamFactory ValueStreamFactory
	StreamKeys         bool
	PackKeys           bool
	Sep                string

	injectionPoint pathmatch.Matcher // nil: root object only
	omit           *OmitEntry        // set when auto-omitting a pre-existing entry
}

// NewInjectEntry builds an InjectEntry. injectionPoint nil matches only
// the root object; otherwise every object whose enclosing path matches
// it. autoOmit removes any pre-existing entry with the injected key
// first -- only supported when injectionPoint is nil or a plain (non-
// regex) pattern, since deriving the matching omit path for a regex
// injection point would need capture-group substitution this package
// does not implement (a documented simplification, not in the original
// spec's core invariants). If both streamKeys and packKeys are false,
// streamKeys is forced true, since the injected key must be emitted
// somehow.
func NewInjectEntry(injectionPoint *pathmatch.KeyPattern, key string, factory ValueStreamFactory, autoOmit, streamKeys, packKeys bool) (*InjectEntry, error) {
	if !streamKeys && !packKeys {
		streamKeys = true
	}
	ie := &InjectEntry{
		Key:                key,
		ValueStreamFactory: factory,
		StreamKeys:         streamKeys,
		PackKeys:           packKeys,
		Sep:                ".",
	}
	if injectionPoint != nil {
		m, err := pathmatch.Build(*injectionPoint)
		if err != nil {
			return nil, err
		}
		ie.injectionPoint = m
	}
	if autoOmit {
		var omitKey pathmatch.KeyPattern
		switch {
		case injectionPoint == nil:
			omitKey = pathmatch.Key(key)
		case !injectionPoint.IsRegex():
			omitKey = pathmatch.Key(injectionPoint.MatchName() + ie.Sep + key)
		default:
			return nil, fmt.Errorf("transform: autoOmitInjectionKey is not supported with a regex injection point")
		}
		omit, err := NewOmitEntry(omitKey)
		if err != nil {
			return nil, err
		}
		ie.omit = omit
	}
	return ie, nil
}

// Transform implements token.StreamTransformer. Every upstream token is
// forwarded downstream unchanged; at the endObject of a matched object,
// the injected entry's tokens are written first, so they always precede
// that object's close (§4.8 step 2).
func (e *InjectEntry) Transform(in <-chan token.Token, out token.WriteStream) {
	if e.Sep == "" {
		e.Sep = "."
	}
	upstream := in
	if e.omit != nil {
		upstream = token.TransformStream(in, e.omit)
	}

	var tracker token.StackKeyTracker
	for tok := range upstream {
		if _, isEnd := tok.(token.EndObject); isEnd {
			tracker.Update(tok)
			if e.isInjectionTarget(tracker.Stack()) {
				if err := e.injectInto(out); err != nil {
					panic(err)
				}
			}
			out.Put(tok)
			continue
		}
		tracker.Update(tok)
		out.Put(tok)
	}
}

// isInjectionTarget reports whether the object that just closed -- whose
// enclosing key path is stack, as it stands immediately after that
// object's own frame has been popped -- matches InjectionPoint.
//
// With no InjectionPoint configured, every root object is matched (§4.8):
// either a bare root-level object (stack is empty) or an element of the
// outermost root-level array (stack holds exactly that array's own
// integer index, per the glossary's "root object" definition -- depth 1
// under the outermost array, or depth 0 for a bare value). A non-empty
// stack whose head is a string or an int nested deeper than that belongs
// to an object further inside the document, not a root object.
func (e *InjectEntry) isInjectionTarget(stack []any) bool {
	if e.injectionPoint == nil {
		switch len(stack) {
		case 0:
			return true
		case 1:
			_, isArrayIndex := stack[0].(int)
			return isArrayIndex
		default:
			return false
		}
	}
	_, ok := e.injectionPoint.Match(token.JoinPath(stack, e.Sep))
	return ok
}

func (e *InjectEntry) injectInto(out token.WriteStream) error {
	src, err := e.ValueStreamFactory()
	if err != nil {
		return &FactoryError{Err: err}
	}
	if e.StreamKeys {
		out.Put(token.StartKey{})
		out.Put(token.StringChunk{Text: e.Key})
		out.Put(token.EndKey{})
	}
	if e.PackKeys {
		out.Put(token.KeyValue{Text: e.Key})
	}
	return inflate.PushMany(context.Background(), out, src)
}
