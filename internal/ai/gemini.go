package ai

import (
	"context"
	"io"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// Gemini streams completions from the Google Generative AI API.
type Gemini struct {
	client *genai.Client
}

// NewGemini creates a Gemini provider. The client holds a connection and
// should be closed when the provider is no longer needed.
func NewGemini(ctx context.Context, apiKey string) (*Gemini, error) {
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	return &Gemini{client: client}, nil
}

// Name implements Provider.
func (g *Gemini) Name() string { return "gemini" }

// Stream implements Provider.
func (g *Gemini) Stream(ctx context.Context, req Request) (Stream, error) {
	model := g.client.GenerativeModel(req.Model)
	if req.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(req.MaxTokens))
	}
	if req.System != "" {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(req.System)},
		}
	}

	return &geminiStream{
		iter: model.GenerateContentStream(ctx, genai.Text(req.Prompt)),
	}, nil
}

// Close releases the underlying API client.
func (g *Gemini) Close() error {
	return g.client.Close()
}

type geminiStream struct {
	iter *genai.GenerateContentResponseIterator
}

func (s *geminiStream) Recv() (string, error) {
	for {
		resp, err := s.iter.Next()
		if err == iterator.Done {
			return "", io.EOF
		}
		if err != nil {
			return "", err
		}

		var sb strings.Builder
		for _, cand := range resp.Candidates {
			if cand.Content == nil {
				continue
			}
			for _, part := range cand.Content.Parts {
				if text, ok := part.(genai.Text); ok {
					sb.WriteString(string(text))
				}
			}
		}
		if sb.Len() > 0 {
			return sb.String(), nil
		}
	}
}

func (s *geminiStream) Close() error {
	// The iterator is driven by its context; nothing to tear down here.
	return nil
}
