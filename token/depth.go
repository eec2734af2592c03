package token

// DepthTracker maintains the nesting depth of a token stream: it
// increments on StartObject/StartArray and decrements on EndObject/
// EndArray, leaving every other token unchanged. Filters use it to detect
// root-level structural boundaries (§4.1).
type DepthTracker struct {
	depth int
}

// Depth returns the current nesting depth. The root of the document is
// depth 0; the first token inside the outermost object or array is depth 1.
func (d *DepthTracker) Depth() int {
	return d.depth
}

// Update advances the tracker by one token.
func (d *DepthTracker) Update(tok Token) {
	switch tok.(type) {
	case StartObject, StartArray:
		d.depth++
	case EndObject, EndArray:
		d.depth--
	}
}
