package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	perrors "github.com/p-blackswan/taskflow/internal/errors"
)

// Config selects a backend and its credential.
type Config struct {
	Provider        string
	GeminiAPIKey    string
	AnthropicAPIKey string
	Model           string
	MaxTokens       int
	// Timeout bounds each HTTP round trip to the anthropic backend. Zero keeps
	// the provider default.
	Timeout time.Duration
}

// New builds the configured provider. A missing credential is not an error:
// it yields an Unconfigured provider so the rest of the app keeps working.
func New(ctx context.Context, cfg Config, logger zerolog.Logger) (Provider, error) {
	backend := strings.ToLower(strings.TrimSpace(cfg.Provider))
	if backend == "" {
		backend = "gemini"
	}
	switch backend {
	case "gemini":
		p, err := NewGeminiProvider(ctx, GeminiConfig{
			APIKey:    cfg.GeminiAPIKey,
			Model:     cfg.Model,
			MaxTokens: cfg.MaxTokens,
		}, logger)
		if errors.Is(err, perrors.ErrNotConfigured) {
			logger.Warn().Str("provider", backend).Msg("no API key, AI features disabled")
			return Unconfigured{Backend: backend}, nil
		}
		if err != nil {
			return nil, err
		}
		return p, nil
	case "anthropic":
		if cfg.AnthropicAPIKey == "" {
			logger.Warn().Str("provider", backend).Msg("no API key, AI features disabled")
			return Unconfigured{Backend: backend}, nil
		}
		opts := []AnthropicOption{WithModel(cfg.Model), WithLogger(logger)}
		if cfg.MaxTokens > 0 {
			opts = append(opts, WithMaxTokens(cfg.MaxTokens))
		}
		if cfg.Timeout > 0 {
			opts = append(opts, WithHTTPClient(&http.Client{Timeout: cfg.Timeout}))
		}
		return NewAnthropicProvider(cfg.AnthropicAPIKey, opts...), nil
	}
	return nil, fmt.Errorf("unknown AI provider %q", cfg.Provider)
}
