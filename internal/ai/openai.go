package ai

import (
	"context"
	"io"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/ssestream"
)

// OpenAI streams completions from the OpenAI chat completions API.
type OpenAI struct {
	client openai.Client
}

// NewOpenAI creates an OpenAI provider.
func NewOpenAI(apiKey string) (*OpenAI, error) {
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	return &OpenAI{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
	}, nil
}

// Name implements Provider.
func (o *OpenAI) Name() string { return "openai" }

// Stream implements Provider.
func (o *OpenAI) Stream(ctx context.Context, req Request) (Stream, error) {
	var messages []openai.ChatCompletionMessageParamUnion
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	messages = append(messages, openai.UserMessage(req.Prompt))

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(req.Model),
		Messages: messages,
	}
	if req.MaxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(req.MaxTokens))
	}

	return &openaiStream{
		stream: o.client.Chat.Completions.NewStreaming(ctx, params),
	}, nil
}

type openaiStream struct {
	stream *ssestream.Stream[openai.ChatCompletionChunk]
}

func (s *openaiStream) Recv() (string, error) {
	for s.stream.Next() {
		chunk := s.stream.Current()
		if len(chunk.Choices) == 0 {
			continue
		}
		if delta := chunk.Choices[0].Delta.Content; delta != "" {
			return delta, nil
		}
	}
	if err := s.stream.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

func (s *openaiStream) Close() error {
	return s.stream.Close()
}
