package services

import (
	"context"
	"fmt"

	"evs-comms/backend/internal/config"
)

// NewCompleter returns the completer selected by cfg.AI.Provider.
func NewCompleter(ctx context.Context, cfg *config.Config) (TextCompleter, error) {
	switch cfg.AI.Provider {
	case config.ProviderHTTP:
		return NewHTTPCompleter(cfg.AI.URL), nil
	case config.ProviderGemini:
		return NewGeminiCompleter(ctx, cfg.AI.APIKey, cfg.AI.Model)
	case config.ProviderCanned, "":
		return CannedCompleter{}, nil
	default:
		return nil, fmt.Errorf("unknown completion provider %q", cfg.AI.Provider)
	}
}
