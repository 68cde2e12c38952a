package ai

import (
	"context"
	"io"
	"sync"
	"time"
)

// Scripted is a provider that replays a fixed chunk sequence. It backs
// tests and the offline demo mode.
type Scripted struct {
	// Chunks are returned one per Recv call, in order.
	Chunks []string

	// Interval is an optional delay before each chunk, to mimic network
	// pacing.
	Interval time.Duration

	// Err, if set, terminates the stream after the chunks instead of a
	// clean completion.
	Err error
}

// Name implements Provider.
func (s *Scripted) Name() string { return "scripted" }

// Stream implements Provider.
func (s *Scripted) Stream(ctx context.Context, _ Request) (Stream, error) {
	return &scriptedStream{
		ctx:      ctx,
		chunks:   s.Chunks,
		interval: s.Interval,
		err:      s.Err,
	}, nil
}

type scriptedStream struct {
	ctx      context.Context
	mu       sync.Mutex
	chunks   []string
	next     int
	interval time.Duration
	err      error
	closed   bool
}

func (s *scriptedStream) Recv() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return "", io.EOF
	}
	if err := s.ctx.Err(); err != nil {
		return "", err
	}
	if s.next >= len(s.chunks) {
		if s.err != nil {
			return "", s.err
		}
		return "", io.EOF
	}

	if s.interval > 0 {
		select {
		case <-time.After(s.interval):
		case <-s.ctx.Done():
			return "", s.ctx.Err()
		}
	}

	chunk := s.chunks[s.next]
	s.next++
	return chunk, nil
}

func (s *scriptedStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
