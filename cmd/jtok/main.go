// Command jtok reads a stream of JSON values from stdin, applies the
// requested filters without ever buffering a whole document in memory,
// and writes the result to stdout (§6).
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Xunnamius/tokenstream/collaborators"
	tjson "github.com/Xunnamius/tokenstream/encoding/json"
	"github.com/Xunnamius/tokenstream/inflate"
	"github.com/Xunnamius/tokenstream/token"
	"github.com/Xunnamius/tokenstream/transform"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fatalf("%s", err)
	}
}

type runOptions struct {
	omitSpecs, selectSpecs, injectSpecs []string
	injectAutoOmit                      bool
	maxDepth                            int
	explode, join, trace, wrapArray     bool
	sep, outPath                        string
}

func newRootCmd() *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "jtok",
		Short: "streaming JSON token filter pipeline",
		Long: `jtok reads a stream of JSON values from stdin, applies the requested
filters without ever buffering a whole document in memory, and writes
the result to stdout.

Filters run in this fixed order: -omit, -select, -inject, -max-depth,
-explode, -join, -trace.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(opts)
		},
	}

	flags := cmd.Flags()
	flags.StringArrayVar(&opts.omitSpecs, "omit", nil, "drop the entry at this key path; prefix with re: for a regular expression; repeatable")
	flags.StringArrayVar(&opts.selectSpecs, "select", nil, "keep only the value at this key path, discarding the rest of its object; repeatable")
	flags.StringArrayVar(&opts.injectSpecs, "inject", nil, "inject key=file.json, or point@key=file.json to target a nested object; repeatable")
	flags.BoolVar(&opts.injectAutoOmit, "inject-auto-omit", true, "remove any pre-existing entry with the injected key before injecting")
	flags.IntVar(&opts.maxDepth, "max-depth", -1, "truncate the stream beyond this nesting depth (-1: unlimited)")
	flags.BoolVar(&opts.explode, "explode", false, "turn a root-level array into a stream of its elements")
	flags.BoolVar(&opts.join, "join", false, "wrap the stream of root-level values into a single array")
	flags.BoolVar(&opts.trace, "trace", false, "log every token to stderr instead of writing output")
	flags.BoolVar(&opts.wrapArray, "wrap-array", false, "wrap the encoded output in a single top-level array")
	flags.StringVar(&opts.sep, "sep", ".", "path separator used in -omit/-select/-inject patterns")
	flags.StringVar(&opts.outPath, "out", "", "also write the output to this file (renamed to <path>-partial on error)")

	return cmd
}

func run(opts runOptions) error {
	chain, err := buildChain(opts)
	if err != nil {
		return err
	}

	dec := tjson.NewDecoder(os.Stdin)
	var decodeErr error
	stream := token.StartStream(dec, func(err error) { decodeErr = err })
	for _, t := range chain {
		stream = token.TransformStream(stream, t)
	}

	var consumeErr error
	if opts.outPath == "" {
		enc := tjson.NewEncoder(os.Stdout)
		enc.WrapInArray = opts.wrapArray
		consumeErr = token.ConsumeStream(stream, enc)
	} else {
		g, ctx := errgroup.WithContext(context.Background())
		toStdout, toFile := tee(ctx, stream)
		g.Go(func() error {
			enc := tjson.NewEncoder(os.Stdout)
			enc.WrapInArray = opts.wrapArray
			return enc.Consume(toStdout)
		})
		g.Go(func() error {
			sink := collaborators.FileSink{Path: opts.outPath, WrapInArray: opts.wrapArray}
			return sink.Consume(toFile)
		})
		consumeErr = g.Wait()
	}

	return errors.Join(consumeErr, decodeErr)
}

// buildChain turns the CLI flags into the filter pipeline, applied in a
// fixed order: omit, select, inject, max-depth, explode, join, trace.
func buildChain(opts runOptions) ([]token.StreamTransformer, error) {
	var chain []token.StreamTransformer

	if len(opts.omitSpecs) > 0 {
		pats, err := parsePatterns(opts.omitSpecs)
		if err != nil {
			return nil, fmt.Errorf("-omit: %w", err)
		}
		f, err := transform.NewOmitEntry(pats...)
		if err != nil {
			return nil, fmt.Errorf("-omit: %w", err)
		}
		chain = append(chain, f.WithSeparator(opts.sep))
	}

	if len(opts.selectSpecs) > 0 {
		pats, err := parsePatterns(opts.selectSpecs)
		if err != nil {
			return nil, fmt.Errorf("-select: %w", err)
		}
		f, err := transform.NewSelectEntry(pats...)
		if err != nil {
			return nil, fmt.Errorf("-select: %w", err)
		}
		chain = append(chain, f.WithSeparator(opts.sep))
	}

	for _, spec := range opts.injectSpecs {
		f, err := buildInjectEntry(spec, opts.sep, opts.injectAutoOmit)
		if err != nil {
			return nil, fmt.Errorf("-inject %q: %w", spec, err)
		}
		chain = append(chain, f)
	}

	if opts.maxDepth >= 0 {
		chain = append(chain, &transform.MaxDepthFilter{MaxDepth: opts.maxDepth})
	}
	if opts.explode {
		chain = append(chain, transform.ExplodeArray{})
	}
	if opts.join {
		chain = append(chain, transform.JoinStream{})
	}
	if opts.trace {
		chain = append(chain, transform.TraceStream{})
	}

	return chain, nil
}

// parsePatterns turns each spec into a literal key pattern, or a regular
// expression pattern if prefixed with "re:".
func parsePatterns(specs []string) ([]transform.KeyPattern, error) {
	pats := make([]transform.KeyPattern, 0, len(specs))
	for _, s := range specs {
		if rest, ok := strings.CutPrefix(s, "re:"); ok {
			pats = append(pats, transform.Regex(rest))
			continue
		}
		pats = append(pats, transform.Key(s))
	}
	return pats, nil
}

// buildInjectEntry parses a "key=path" or "point@key=path" -inject spec
// and builds the InjectEntry that reads the value to inject fresh from
// path each time it fires.
func buildInjectEntry(spec, sep string, autoOmit bool) (*transform.InjectEntry, error) {
	rest := spec
	var point *transform.KeyPattern
	if idx := strings.Index(rest, "@"); idx >= 0 {
		p := transform.Key(rest[:idx])
		point = &p
		rest = rest[idx+1:]
	}
	eq := strings.Index(rest, "=")
	if eq < 0 {
		return nil, errors.New("want key=path or point@key=path")
	}
	key, path := rest[:eq], rest[eq+1:]

	ie, err := transform.NewInjectEntry(point, key, fileValueFactory(path), autoOmit, false, true)
	if err != nil {
		return nil, err
	}
	ie.Sep = sep
	return ie, nil
}

// fileValueFactory builds a ValueStreamFactory that re-reads path from
// disk each time the returned factory is called, so an InjectEntry
// matching more than one object re-injects a fresh copy of the same
// value into each.
func fileValueFactory(path string) transform.ValueStreamFactory {
	return func() (inflate.Source, error) {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		dec := tjson.NewDecoder(f)
		var decodeErr error
		ch := token.StartStream(dec, func(err error) { decodeErr = err })
		return &closingSource{ch: ch, closer: f, errp: &decodeErr}, nil
	}
}

// closingSource adapts a token channel produced by token.StartStream
// into an inflate.Source, closing the underlying file and surfacing any
// decode error once the channel is drained.
type closingSource struct {
	ch     <-chan token.Token
	closer io.Closer
	errp   *error
}

func (s *closingSource) Next() (token.Token, bool, error) {
	tok, ok := <-s.ch
	if !ok {
		s.closer.Close()
		return nil, false, *s.errp
	}
	return tok, true, nil
}

// tee duplicates in into two independently-drainable channels. It stops
// forwarding as soon as ctx is cancelled, so one branch erroring out
// (cancelling the errgroup's context) doesn't leave tee blocked forever
// trying to feed the other, now-abandoned branch.
func tee(ctx context.Context, in <-chan token.Token) (<-chan token.Token, <-chan token.Token) {
	out1 := make(chan token.Token)
	out2 := make(chan token.Token)
	go func() {
		defer close(out1)
		defer close(out2)
		for {
			select {
			case tok, ok := <-in:
				if !ok {
					return
				}
				select {
				case out1 <- tok:
				case <-ctx.Done():
					return
				}
				select {
				case out2 <- tok:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return out1, out2
}

func fatalf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if isatty.IsTerminal(os.Stderr.Fd()) {
		w := colorable.NewColorableStderr()
		fmt.Fprintf(w, "\033[31mjtok: %s\033[0m\n", msg)
	} else {
		fmt.Fprintf(os.Stderr, "jtok: %s\n", msg)
	}
	os.Exit(1)
}
