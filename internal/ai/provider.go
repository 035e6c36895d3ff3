package ai

import "context"

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role    string
	Content string
}

// Options carries sampling parameters. Zero values are sent as-is except
// where the backend has no equivalent parameter.
type Options struct {
	Temperature float64
	TopP        float64
	TopK        float64
}

// Provider produces a token stream for an ordered prompt.
type Provider interface {
	StreamChat(ctx context.Context, messages []Message, opts Options) (TokenStream, error)
}

// ModelLister enumerates the models a backend can serve.
type ModelLister interface {
	ListModels(ctx context.Context) ([]string, error)
}
