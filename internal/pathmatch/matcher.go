package pathmatch

import (
	"fmt"
	"regexp"
)

// Matcher tells a filter whether a joined key path selects an entry.
// Per §7, every filter accepts its matching argument in one of three
// shapes: a single string (exact joined-path equality), a single
// regular expression (full-path match), or a list of strings/regexes
// tried in order with first-match-wins semantics.
type Matcher interface {
	// Match reports whether path (already joined with the filter's
	// configured separator) is selected, and if so the name under which
	// it matched - the literal string, or the regexp's source pattern.
	// That name ends up on PackedEntry.Matcher/SparseBracket.Matcher so
	// a pipeline with several filters can tell which one fired.
	Match(path string) (name string, ok bool)
}

// stringMatcher matches a path by exact equality.
type stringMatcher string

func (m stringMatcher) Match(path string) (string, bool) {
	if path == string(m) {
		return string(m), true
	}
	return "", false
}

// regexMatcher matches a path against a compiled I-Regexp pattern
// anchored to match the whole path, not a substring of it.
type regexMatcher struct {
	pattern string
	re      *regexp.Regexp
}

func (m regexMatcher) Match(path string) (string, bool) {
	if m.re.MatchString(path) {
		return m.pattern, true
	}
	return "", false
}

// listMatcher tries each of its entries in order and returns the first
// match, implementing the first-match-wins semantics §7 specifies for
// a list-of-strings-and-regexes matcher.
type listMatcher []Matcher

func (m listMatcher) Match(path string) (string, bool) {
	for _, sub := range m {
		if name, ok := sub.Match(path); ok {
			return name, true
		}
	}
	return "", false
}

// NewStringMatcher builds a Matcher that selects only the exact path s.
func NewStringMatcher(s string) Matcher {
	return stringMatcher(s)
}

// NewRegexMatcher builds a Matcher that selects any path fully matching
// the I-Regexp pattern ptn. It returns an error if ptn does not compile.
func NewRegexMatcher(ptn string) (Matcher, error) {
	re, err := Compile(`^(?:` + ptn + `)$`)
	if err != nil {
		return nil, fmt.Errorf("pathmatch: invalid pattern %q: %w", ptn, err)
	}
	return regexMatcher{pattern: ptn, re: re}, nil
}

// NewListMatcher builds a Matcher trying each of matchers in order,
// first-match-wins. An empty list never matches anything.
func NewListMatcher(matchers ...Matcher) Matcher {
	return listMatcher(matchers)
}
