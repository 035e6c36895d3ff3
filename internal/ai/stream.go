package ai

import (
	"context"
	"log/slog"
)

// TokenStream is a pull-based sequence of content chunks. Next advances to
// the following chunk and reports false once the model signalled completion
// or an error occurred; Err tells the two apart. A stream cannot be
// restarted.
type TokenStream interface {
	Next() bool
	Token() string
	Err() error
	Close() error
}

// UnknownModel is the single-entry listing returned when no model can be
// enumerated.
const UnknownModel = "Unknown"

// ModelsOrFallback lists models and degrades to []string{UnknownModel}.
func ModelsOrFallback(ctx context.Context, l ModelLister, logger *slog.Logger) []string {
	models, err := l.ListModels(ctx)
	if err != nil {
		logger.Warn("failed to list models", "error", err)
		return []string{UnknownModel}
	}
	if len(models) == 0 {
		return []string{UnknownModel}
	}
	return models
}
