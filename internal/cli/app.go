package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/suPer8Hu/chat-app/internal/ai"
	"github.com/suPer8Hu/chat-app/internal/chat"
	"github.com/suPer8Hu/chat-app/internal/history"
	"github.com/suPer8Hu/chat-app/internal/session"
)

// newRegistry registers the inference backends. The orchestrator picks one
// by cfg.AIProvider.
func newRegistry() *ai.Registry {
	reg := ai.NewRegistry()
	reg.Register("ollama", func(_ context.Context, model string) (ai.Provider, error) {
		return ai.NewOllamaProvider(cfg.OllamaBaseURL, model), nil
	})
	reg.Register("openai", func(_ context.Context, model string) (ai.Provider, error) {
		if strings.TrimSpace(cfg.OpenAIAPIKey) == "" {
			return nil, errors.New("OPENAI_API_KEY is not set")
		}
		return ai.NewOpenAIProvider(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, model), nil
	})
	return reg
}

func modelLister() (ai.ModelLister, error) {
	switch strings.ToLower(cfg.AIProvider) {
	case "", "ollama":
		return ai.NewOllamaProvider(cfg.OllamaBaseURL, ""), nil
	case "openai":
		return ai.NewOpenAIProvider(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, ""), nil
	default:
		return nil, fmt.Errorf("unsupported AI_PROVIDER=%q, want one of: %s", cfg.AIProvider, strings.Join(newRegistry().Names(), ", "))
	}
}

func resolveHistory(ctx context.Context, provider string) (history.Handle, error) {
	r := history.NewResolver(store, history.Descriptors{
		PostgresDSN: cfg.PostgresDSN,
		MySQLDSN:    cfg.MySQLDSN,
		RedisURL:    cfg.RedisURL,
	}, logger)
	return r.Resolve(ctx, provider)
}

// newConversation wires one session: history handle, state seeded from the
// settings file, and the orchestrator. A stored model that is no longer
// listed is reported and the selection left empty.
func newConversation(ctx context.Context, provider string) (*chat.Conversation, ai.ModelLister, error) {
	lister, err := modelLister()
	if err != nil {
		return nil, nil, err
	}

	rec, err := store.Read()
	if err != nil {
		return nil, nil, err
	}
	models := ai.ModelsOrFallback(ctx, lister, logger)
	state, err := session.New(rec, models)
	if err != nil {
		if !errors.Is(err, session.ErrModelNotFound) {
			return nil, nil, err
		}
		logger.Warn("previously selected model is no longer available", "error", err)
	}

	h, err := resolveHistory(ctx, provider)
	if err != nil {
		return nil, nil, err
	}

	orch := chat.NewOrchestrator(newRegistry(), cfg.AIProvider)
	return chat.NewConversation(h, state, store, orch, logger), lister, nil
}
