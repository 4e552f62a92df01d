package perception

import (
	"context"
	"fmt"

	"rentnerd/internal/types"
)

const answererSystem = `You are a rental-management assistant. The user's message is
not a CRUD request; answer it conversationally. You may reference the recent
conversation. Keep answers short and concrete.`

// GeneralAnswerer handles the none-intent path: utterances with no CRUD verb
// fall through to a plain conversational reply.
type GeneralAnswerer struct {
	client LLMClient
}

// NewGeneralAnswerer creates the general-answer collaborator.
func NewGeneralAnswerer(client LLMClient) *GeneralAnswerer {
	return &GeneralAnswerer{client: client}
}

// Answer produces a Text envelope for a general utterance. The last few
// transcript turns give the model context.
func (g *GeneralAnswerer) Answer(ctx context.Context, transcript []types.Turn, utterance string) (types.Envelope, error) {
	// Only the trailing window; a general question does not need the full
	// slot-filling history.
	start := 0
	if len(transcript) > 6 {
		start = len(transcript) - 6
	}

	prompt := renderTranscript(transcript[start:]) + "\n## Current Message\n\n" + utterance
	response, err := g.client.CompleteWithSystem(ctx, answererSystem, prompt)
	if err != nil {
		return types.Envelope{}, fmt.Errorf("general answer failed: %w", err)
	}

	return types.TextEnvelope(types.SourceLLM, g.client.Model(), response), nil
}
