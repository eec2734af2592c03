// Package pathmatch compiles and caches the regular expressions filters
// use to match a joined key path, and implements the three-shape matcher
// configuration surface (single string, single regexp, or a list of
// either) shared by packEntry, omitEntry, selectEntry, and injectEntry
// (§7).
package pathmatch

import (
	"regexp"
	"strings"
	"sync"
)

// iregexpString rewrites an I-Regexp-flavoured pattern (RFC 9485, as used
// by JSON Schema and JSONPath) into one Go's regexp package accepts: the
// only difference that matters here is that '.' must not match line
// terminators outside a character class.
func iregexpString(ptn string) string {
	inClass := false
	escape := false
	lastIndex := 0
	var builder strings.Builder
	for i, r := range ptn {
		if escape {
			escape = false
			continue
		}
		switch r {
		case '\\':
			escape = true
		case '[':
			inClass = true
		case ']':
			inClass = false
		case '.':
			if !inClass {
				builder.WriteString(ptn[lastIndex:i])
				builder.WriteString(`[^\n\r]`)
				lastIndex = i + 1
			}
		}
	}
	if lastIndex == 0 {
		return ptn
	}
	if lastIndex < len(ptn) {
		builder.WriteString(ptn[lastIndex:])
	}
	return builder.String()
}

var (
	regexpCacheMu sync.Mutex
	regexpCache   = map[string]*regexp.Regexp{}
)

// Compile compiles ptn as an I-Regexp pattern, caching the result so that
// filters built repeatedly with the same pattern (e.g. in a hot loop
// constructing one packEntry per object) don't re-pay compilation cost.
func Compile(ptn string) (*regexp.Regexp, error) {
	regexpCacheMu.Lock()
	re, ok := regexpCache[ptn]
	regexpCacheMu.Unlock()
	if ok {
		return re, nil
	}
	re, err := regexp.Compile(iregexpString(ptn))
	if err != nil {
		return nil, err
	}
	regexpCacheMu.Lock()
	regexpCache[ptn] = re
	regexpCacheMu.Unlock()
	return re, nil
}
