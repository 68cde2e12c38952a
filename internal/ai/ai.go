// Package ai defines the generation channel the assist core consumes: an
// asynchronous sequence of text-delta chunks for a request, terminated by
// completion or cancellation. No assumption is made about chunk size or
// boundaries; a chunk may split mid-word.
//
// Provider implementations adapt real SDK streaming APIs to the Stream
// interface; the scripted provider drives tests and offline demos.
package ai

import (
	"context"
	"errors"
	"io"
	"strings"
)

// Errors returned by providers.
var (
	ErrNoAPIKey       = errors.New("missing API key")
	ErrUnknownBackend = errors.New("unknown generation backend")
)

// Request describes one generation request.
type Request struct {
	// Prompt is the user-visible instruction plus any document context
	// the caller chose to include.
	Prompt string

	// System is an optional system prompt.
	System string

	// Model names the backend model.
	Model string

	// MaxTokens bounds the response length. Zero means the provider
	// default.
	MaxTokens int
}

// Stream is an in-flight generation. Recv returns the next text delta and
// io.EOF once the backend signals completion; any other error is terminal.
type Stream interface {
	Recv() (string, error)
	Close() error
}

// Provider opens generation streams against one backend.
type Provider interface {
	// Name identifies the backend ("anthropic", "openai", ...).
	Name() string

	// Stream starts a generation. Canceling the context tears the
	// stream down; a Recv racing the cancellation reports the context
	// error.
	Stream(ctx context.Context, req Request) (Stream, error)
}

// Collect drains a stream into a single string. It is a convenience for
// callers that do not render incrementally.
func Collect(ctx context.Context, s Stream) (string, error) {
	defer s.Close()

	var sb strings.Builder
	for {
		if err := ctx.Err(); err != nil {
			return sb.String(), err
		}
		chunk, err := s.Recv()
		if err == io.EOF {
			return sb.String(), nil
		}
		if err != nil {
			return sb.String(), err
		}
		sb.WriteString(chunk)
	}
}
