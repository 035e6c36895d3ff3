package ai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIProvider talks to any OpenAI-compatible chat completions endpoint
// (OpenAI, OpenRouter, llama.cpp server, vLLM).
type OpenAIProvider struct {
	Model  string
	client *openai.Client
}

func NewOpenAIProvider(baseURL, apiKey, model string) *OpenAIProvider {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	return &OpenAIProvider{
		Model:  model,
		client: openai.NewClientWithConfig(cfg),
	}
}

// StreamChat opens a streaming completion. top_k has no equivalent in the
// OpenAI API and is dropped.
func (p *OpenAIProvider) StreamChat(ctx context.Context, messages []Message, opts Options) (TokenStream, error) {
	model := strings.TrimSpace(p.Model)
	if model == "" {
		return nil, errors.New("openai: model is required")
	}

	req := openai.ChatCompletionRequest{
		Model:       model,
		Stream:      true,
		Temperature: float32(opts.Temperature),
		TopP:        float32(opts.TopP),
		Messages: func() []openai.ChatCompletionMessage {
			out := make([]openai.ChatCompletionMessage, 0, len(messages))
			for _, m := range messages {
				out = append(out, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
			}
			return out
		}(),
	}

	st, err := p.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("openai: %w", err)
	}
	return &openAIStream{st: st}, nil
}

func (p *OpenAIProvider) ListModels(ctx context.Context) ([]string, error) {
	list, err := p.client.ListModels(ctx)
	if err != nil {
		return nil, fmt.Errorf("openai: %w", err)
	}
	names := make([]string, 0, len(list.Models))
	for _, m := range list.Models {
		names = append(names, m.ID)
	}
	return names, nil
}

type openAIStream struct {
	st   *openai.ChatCompletionStream
	tok  string
	err  error
	done bool
}

func (s *openAIStream) Next() bool {
	s.tok = ""
	if s.done || s.err != nil {
		return false
	}
	for {
		resp, err := s.st.Recv()
		if errors.Is(err, io.EOF) {
			s.done = true
			return false
		}
		if err != nil {
			s.err = fmt.Errorf("openai: %w", err)
			return false
		}
		if len(resp.Choices) == 0 {
			continue
		}
		if delta := resp.Choices[0].Delta.Content; delta != "" {
			s.tok = delta
			return true
		}
	}
}

func (s *openAIStream) Token() string { return s.tok }

func (s *openAIStream) Err() error { return s.err }

func (s *openAIStream) Close() error {
	s.done = true
	s.st.Close()
	return nil
}
