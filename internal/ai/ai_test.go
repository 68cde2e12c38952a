package ai

import (
	"context"
	"errors"
	"io"
	"testing"
)

func TestScriptedStream(t *testing.T) {
	p := &Scripted{Chunks: []string{"Hel", "lo, ", "wor", "ld"}}

	s, err := p.Stream(context.Background(), Request{Prompt: "greet"})
	if err != nil {
		t.Fatalf("Stream failed: %v", err)
	}

	var got []string
	for {
		chunk, err := s.Recv()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Recv failed: %v", err)
		}
		got = append(got, chunk)
	}

	if len(got) != 4 {
		t.Fatalf("received %d chunks, want 4", len(got))
	}
	if got[0] != "Hel" || got[3] != "ld" {
		t.Errorf("chunks = %v", got)
	}
}

func TestScriptedError(t *testing.T) {
	wantErr := errors.New("backend fell over")
	p := &Scripted{Chunks: []string{"partial"}, Err: wantErr}

	s, _ := p.Stream(context.Background(), Request{})
	if _, err := s.Recv(); err != nil {
		t.Fatalf("first Recv failed: %v", err)
	}
	if _, err := s.Recv(); !errors.Is(err, wantErr) {
		t.Errorf("err = %v, want %v", err, wantErr)
	}
}

func TestScriptedCancellation(t *testing.T) {
	p := &Scripted{Chunks: []string{"a", "b", "c"}}

	ctx, cancel := context.WithCancel(context.Background())
	s, _ := p.Stream(ctx, Request{})

	if _, err := s.Recv(); err != nil {
		t.Fatalf("Recv before cancel failed: %v", err)
	}

	cancel()
	if _, err := s.Recv(); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestScriptedClose(t *testing.T) {
	p := &Scripted{Chunks: []string{"a"}}
	s, _ := p.Stream(context.Background(), Request{})

	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if _, err := s.Recv(); err != io.EOF {
		t.Errorf("Recv after Close = %v, want io.EOF", err)
	}
}

func TestCollect(t *testing.T) {
	p := &Scripted{Chunks: []string{"one ", "two ", "three"}}
	s, _ := p.Stream(context.Background(), Request{})

	text, err := Collect(context.Background(), s)
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if text != "one two three" {
		t.Errorf("Collect = %q", text)
	}
}

func TestProviderConstructorsRequireKey(t *testing.T) {
	if _, err := NewAnthropic(""); !errors.Is(err, ErrNoAPIKey) {
		t.Errorf("NewAnthropic err = %v, want ErrNoAPIKey", err)
	}
	if _, err := NewOpenAI(""); !errors.Is(err, ErrNoAPIKey) {
		t.Errorf("NewOpenAI err = %v, want ErrNoAPIKey", err)
	}
	if _, err := NewGemini(context.Background(), ""); !errors.Is(err, ErrNoAPIKey) {
		t.Errorf("NewGemini err = %v, want ErrNoAPIKey", err)
	}
}
