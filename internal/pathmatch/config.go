package pathmatch

import "fmt"

// KeyPattern is one element of a filter's matching argument: either an
// exact path (String set, Regex empty) or an I-Regexp pattern (Regex
// set). Filters expose this as their public configuration type so
// callers can write either
//
//	pathmatch.Key("user.name")
//	pathmatch.Regex(`user\..*`)
//
// or a slice of both to build a first-match-wins list matcher.
type KeyPattern struct {
	str   string
	regex string
	isRe  bool
}

// Key builds a KeyPattern that matches path s by exact equality.
func Key(s string) KeyPattern { return KeyPattern{str: s} }

// Regex builds a KeyPattern that matches any path fully matching the
// I-Regexp pattern ptn.
func Regex(ptn string) KeyPattern { return KeyPattern{regex: ptn, isRe: true} }

// Build compiles a list of KeyPatterns into a single Matcher per §7:
// zero patterns never match, one pattern behaves exactly as that
// pattern alone would, and two or more are tried in order, first match
// wins.
func Build(patterns ...KeyPattern) (Matcher, error) {
	matchers := make([]Matcher, 0, len(patterns))
	for _, p := range patterns {
		if p.isRe {
			m, err := NewRegexMatcher(p.regex)
			if err != nil {
				return nil, err
			}
			matchers = append(matchers, m)
			continue
		}
		matchers = append(matchers, NewStringMatcher(p.str))
	}
	switch len(matchers) {
	case 0:
		return listMatcher(nil), nil
	case 1:
		return matchers[0], nil
	default:
		return NewListMatcher(matchers...), nil
	}
}

// MatchName returns the string a Matcher built from this single pattern
// would report as its match name (the literal key, or the raw regex
// source) - the same value recorded on PackedEntry.Matcher/
// SparseBracket.Matcher, so callers that need to map a matched entry
// back to the KeyPattern that selected it can index by this.
func (p KeyPattern) MatchName() string {
	if p.isRe {
		return p.regex
	}
	return p.str
}

// IsRegex reports whether this pattern is a regular expression rather
// than a plain string.
func (p KeyPattern) IsRegex() bool {
	return p.isRe
}

func (p KeyPattern) String() string {
	if p.isRe {
		return fmt.Sprintf("/%s/", p.regex)
	}
	return p.str
}
