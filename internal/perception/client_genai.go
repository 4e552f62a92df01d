package perception

import (
	"context"
	"strings"

	"google.golang.org/genai"

	"rentnerd/internal/logging"
	"rentnerd/internal/types"
)

// =============================================================================
// GOOGLE GENAI CLIENT
// =============================================================================

// GenAIClient implements LLMClient using Google's Gemini API via the genai SDK.
type GenAIClient struct {
	client *genai.Client
	model  string
}

// GenAIConfig holds configuration for the GenAI client.
type GenAIConfig struct {
	APIKey string
	Model  string
}

// DefaultGenAIConfig returns sensible defaults.
func DefaultGenAIConfig(apiKey string) GenAIConfig {
	return GenAIConfig{
		APIKey: apiKey,
		Model:  "gemini-2.5-flash",
	}
}

// NewGenAIClient creates a new Gemini client.
func NewGenAIClient(ctx context.Context, config GenAIConfig) (*GenAIClient, error) {
	if config.APIKey == "" {
		return nil, types.NewFault(types.FaultProvider, "GenAI API key is required", nil)
	}
	if config.Model == "" {
		config.Model = "gemini-2.5-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: config.APIKey,
	})
	if err != nil {
		return nil, types.NewFault(types.FaultProvider, "failed to create GenAI client", err)
	}

	return &GenAIClient{
		client: client,
		model:  config.Model,
	}, nil
}

// Complete sends a prompt and returns the completion.
func (c *GenAIClient) Complete(ctx context.Context, prompt string) (string, error) {
	return c.CompleteWithSystem(ctx, "", prompt)
}

// CompleteWithSystem sends a prompt with a system instruction.
func (c *GenAIClient) CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr[float32](0.1), // low temperature for structured output
	}
	if systemPrompt != "" {
		cfg.SystemInstruction = genai.NewContentFromText(systemPrompt, genai.RoleUser)
	}

	result, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(userPrompt), cfg)
	if err != nil {
		return "", types.NewFault(types.FaultProvider, "GenAI completion failed", err)
	}

	text := result.Text()
	if text == "" {
		return "", types.NewFault(types.FaultProvider, "no completion returned", nil)
	}

	logging.API("genai completion ok: model=%s chars=%d", c.model, len(text))
	return strings.TrimSpace(text), nil
}

// Model returns the configured model name.
func (c *GenAIClient) Model() string { return c.model }
