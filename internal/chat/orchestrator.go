package chat

import (
	"context"
	"errors"
	"fmt"

	"github.com/suPer8Hu/chat-app/internal/ai"
	"github.com/suPer8Hu/chat-app/internal/history"
)

var ErrGeneration = errors.New("generation failed")

// GenerationError wraps any failure of the model capability, before or
// during streaming.
type GenerationError struct {
	Model string
	Err   error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation with model %q failed: %v", e.Model, e.Err)
}

func (e *GenerationError) Unwrap() []error { return []error{ErrGeneration, e.Err} }

// Params selects the model and sampling parameters for one generation.
type Params struct {
	Model       string
	Temperature float64
	TopP        float64
	TopK        float64
}

type Orchestrator struct {
	registry *ai.Registry
	backend  string
}

// NewOrchestrator resolves providers from registry under the given backend
// name ("ollama", "openai").
func NewOrchestrator(registry *ai.Registry, backend string) *Orchestrator {
	if backend == "" {
		backend = defaultBackend
	}
	return &Orchestrator{registry: registry, backend: backend}
}

const defaultBackend = "ollama"

// Generate sends the whole ordered history to the model and returns its
// token stream.
func (o *Orchestrator) Generate(ctx context.Context, msgs []history.Message, p Params) (*Stream, error) {
	provider, err := o.registry.Get(ctx, o.backend, p.Model)
	if err != nil {
		return nil, &GenerationError{Model: p.Model, Err: err}
	}

	src, err := provider.StreamChat(ctx, BuildPrompt(msgs), ai.Options{
		Temperature: p.Temperature,
		TopP:        p.TopP,
		TopK:        p.TopK,
	})
	if err != nil {
		return nil, &GenerationError{Model: p.Model, Err: err}
	}
	return &Stream{src: src, model: p.Model}, nil
}

// BuildPrompt maps transcript roles onto provider roles, keeping order.
func BuildPrompt(msgs []history.Message) []ai.Message {
	out := make([]ai.Message, 0, len(msgs))
	for _, m := range msgs {
		role := ai.RoleUser
		if m.Role == history.Assistant {
			role = ai.RoleAssistant
		}
		out = append(out, ai.Message{Role: role, Content: m.Content})
	}
	return out
}

// Stream is one generation attempt. Errors from the underlying provider
// are reported as *GenerationError.
type Stream struct {
	src   ai.TokenStream
	model string
	err   error
}

func (s *Stream) Next() bool {
	if s.err != nil {
		return false
	}
	if s.src.Next() {
		return true
	}
	if err := s.src.Err(); err != nil {
		s.err = &GenerationError{Model: s.model, Err: err}
	}
	return false
}

func (s *Stream) Token() string { return s.src.Token() }

func (s *Stream) Err() error { return s.err }

func (s *Stream) Close() error { return s.src.Close() }
