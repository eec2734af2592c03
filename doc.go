// Package tokenstream processes JSON input as a stream of lexical
// tokens instead of a parsed value tree.
//
//   - reading JSON text into a token stream: [encoding/json.Decoder]
//   - transforming a token stream into another: [token.StreamTransformer]
//   - writing a token stream back out as JSON text: [encoding/json.Encoder]
//   - reconstructing a JSON value from any valid mixture of streamed and
//     packed tokens: [assemble.FullAssembler]
//
// These combine into a pipeline:
//
//	decode JSON -> filter_1 -> ... -> filter_n -> encode JSON
//
// Every stage runs concurrently in its own goroutine connected by
// channels, so a pipeline starts producing output before it has
// finished reading its input, and a long string value streams through
// in bounded-size chunks rather than being held in memory whole.
//
// The transform package implements the filter family this is built
// around: packEntry (and the omitEntry/selectEntry/injectEntry/
// objectSieve filters derived from it), which match object entries by
// key path and act on the matched value without ever materializing
// values it does not need to.
//
// The CLI utility is in cmd/jtok. Install it with
//
//	go install github.com/Xunnamius/tokenstream/cmd/jtok
package tokenstream
