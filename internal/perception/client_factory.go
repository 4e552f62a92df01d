package perception

import (
	"context"
	"fmt"

	"rentnerd/internal/config"
	"rentnerd/internal/logging"
	"rentnerd/internal/types"
)

// NewClientFromConfig builds the configured LLM client.
// Supported providers: "genai" (Gemini SDK) and "openai-compat" (any
// chat-completions endpoint, base_url required for non-OpenAI hosts).
func NewClientFromConfig(ctx context.Context, cfg config.LLMConfig) (LLMClient, error) {
	logging.Boot("creating LLM client: provider=%s model=%s", cfg.Provider, cfg.Model)

	switch cfg.Provider {
	case "genai", "gemini", "":
		gc := DefaultGenAIConfig(cfg.APIKey)
		if cfg.Model != "" {
			gc.Model = cfg.Model
		}
		return NewGenAIClient(ctx, gc)

	case "openai-compat", "openai":
		oc := DefaultOpenAICompatConfig(cfg.APIKey)
		if cfg.Model != "" {
			oc.Model = cfg.Model
		}
		if cfg.BaseURL != "" {
			oc.BaseURL = cfg.BaseURL
		}
		oc.Timeout = cfg.TimeoutDuration()
		return NewOpenAICompatClient(oc), nil
	}

	return nil, types.NewFault(types.FaultProvider, fmt.Sprintf("unknown LLM provider: %q", cfg.Provider), nil)
}
