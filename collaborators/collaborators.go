// Package collaborators implements the higher-level producer/consumer
// helpers built on top of the token pipeline: paginated list/task/
// attachment sources (the createListsStream family) and a filesystem
// sink that fails safe by renaming a truncated output to "-partial"
// rather than leaving a file that looks complete but isn't (§6).
package collaborators

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	tjson "github.com/Xunnamius/tokenstream/encoding/json"
	"github.com/Xunnamius/tokenstream/token"
)

// List, Task, Attachment and AttachmentContentBytes are the minimal
// domain shapes the collaborator factories paginate over -- enough
// fields to exercise the pagination/encoding machinery below, not a
// full client for any particular API.
type List struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
}

type Task struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Status string `json:"status"`
}

type Attachment struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type AttachmentContentBytes struct {
	ID          string `json:"id"`
	ContentType string `json:"contentType"`
	Bytes       []byte `json:"contentBytes"`
}

// Fetcher retrieves one page of items. cursor is empty on the first
// call; next is the cursor to pass on the following call, ignored once
// done is true.
type Fetcher[T any] func(cursor string) (items []T, next string, done bool, err error)

// finalMarker is the synthetic value collaborator streams append once
// a Fetcher reports it is exhausted, so a consumer can tell a complete
// page sequence from one truncated by an upstream error.
type finalMarker struct {
	Final bool `json:"final"`
}

type pagedSource[T any] struct {
	fetch Fetcher[T]
}

var _ token.StreamSource = pagedSource[List]{}

// NewListsStream builds the createListsStream collaborator: a
// token.StreamSource producing one JSON array of Lists, paginated
// through fetch.
func NewListsStream(fetch Fetcher[List]) token.StreamSource { return pagedSource[List]{fetch} }

// NewTasksStream builds the createTasksStream collaborator.
func NewTasksStream(fetch Fetcher[Task]) token.StreamSource { return pagedSource[Task]{fetch} }

// NewAttachmentsStream builds the createAttachmentsStream collaborator.
func NewAttachmentsStream(fetch Fetcher[Attachment]) token.StreamSource {
	return pagedSource[Attachment]{fetch}
}

// NewAttachmentsContentBytesStream builds the
// createAttachmentsContentBytesStream collaborator.
func NewAttachmentsContentBytesStream(fetch Fetcher[AttachmentContentBytes]) token.StreamSource {
	return pagedSource[AttachmentContentBytes]{fetch}
}

// Produce implements token.StreamSource.
func (s pagedSource[T]) Produce(out chan<- token.Token) error {
	out <- token.StartArray{}
	cursor := ""
	for {
		items, next, done, err := s.fetch(cursor)
		if err != nil {
			return &token.ExternalIOError{Op: "fetch page", Err: err}
		}
		for _, item := range items {
			if err := emitValue(out, item); err != nil {
				return err
			}
		}
		if done {
			break
		}
		cursor = next
	}
	if err := emitValue(out, finalMarker{Final: true}); err != nil {
		return err
	}
	out <- token.EndArray{}
	return nil
}

// emitValue marshals v to JSON with the standard library (plain value
// serialization, not a domain concern any pack dependency addresses)
// and re-lexes it through this module's own Decoder, so every value a
// collaborator stream emits goes through the same token grammar as
// everything else in the pipeline instead of bypassing it.
func emitValue(out chan<- token.Token, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return &token.ExternalIOError{Op: "marshal item", Err: err}
	}
	dec := tjson.NewDecoder(bytes.NewReader(b))
	toks := make(chan token.Token)
	errCh := make(chan error, 1)
	go func() {
		defer close(toks)
		errCh <- dec.Produce(toks)
	}()
	for tok := range toks {
		out <- tok
	}
	if err := <-errCh; err != nil {
		return err
	}
	return nil
}

// FileSink consumes a token stream, encodes it with
// encoding/json.Encoder, and writes it to Path; on any encode or write
// failure it renames the (possibly incomplete) file to Path+"-partial"
// before returning the error. Grounded on original_source's
// finalizeOutputFile/-partial rename convention (§6
// [SUPPLEMENTED]); original_source/ itself had no retrievable files for
// this TypeScript project (_INDEX.md: 0 files kept), so only that
// convention, named in spec.md/SPEC_FULL.md, was available to ground
// this on -- not its on-disk metadata format or auth flow, which stay
// out of scope per spec.md §1.
type FileSink struct {
	Path        string
	WrapInArray bool
}

var _ token.StreamSink = FileSink{}

// Consume implements token.StreamSink.
func (s FileSink) Consume(stream <-chan token.Token) error {
	f, err := os.Create(s.Path)
	if err != nil {
		return &token.ExternalIOError{Op: "create output file", Err: err}
	}
	enc := tjson.NewEncoder(f)
	enc.WrapInArray = s.WrapInArray
	consumeErr := enc.Consume(stream)
	closeErr := f.Close()
	if consumeErr == nil {
		consumeErr = closeErr
	}
	if consumeErr == nil {
		return nil
	}
	partial := s.Path + "-partial"
	if renameErr := os.Rename(s.Path, partial); renameErr == nil {
		return &token.ExternalIOError{Op: fmt.Sprintf("write %s (renamed to %s)", s.Path, partial), Err: consumeErr}
	}
	return &token.ExternalIOError{Op: "write " + s.Path, Err: consumeErr}
}
