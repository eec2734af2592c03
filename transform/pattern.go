package transform

import "github.com/Xunnamius/tokenstream/internal/pathmatch"

// KeyPattern is the public configuration type filter constructors take:
// either an exact key path or a regular expression, built with Key or
// Regex below. It is an alias for internal/pathmatch's own type, so
// callers outside this module never need to import internal/pathmatch
// directly.
type KeyPattern = pathmatch.KeyPattern

// Key builds a KeyPattern that matches a path by exact equality.
func Key(s string) KeyPattern { return pathmatch.Key(s) }

// Regex builds a KeyPattern that matches any path fully matching the
// I-Regexp pattern ptn.
func Regex(ptn string) KeyPattern { return pathmatch.Regex(ptn) }
