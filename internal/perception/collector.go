package perception

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"rentnerd/internal/logging"
	"rentnerd/internal/types"
)

const collectorSystem = `You collect field values for one rental-management operation
through dialogue. The operation instructions below state the required fields,
optional fields and identifying fields. Slot state lives only in the transcript:
re-read the whole conversation each time and account for every value already given.

Answer with ONLY a JSON object:
{"ready": bool, "data": {...} | null, "comment": "..."}

Rules:
- ready=true only when EVERY required/identifying field has a value. Then "data"
  holds all collected fields as flat string key/values and "comment" is a short
  confirmation.
- ready=false when fields are missing. Then "data" is null and "comment" asks the
  user for the missing fields, naming them.
- Declining optional fields ("leave blank", "no more details", "skip") once the
  required fields are present means the user is done: set ready=true without them.
  It is progress, NEVER a cancellation.
- Only an explicit, unambiguous abandon message ("cancel", "stop this", "forget
  it") is a cancellation: answer {"ready": false, "data": null,
  "cancelled": true, "comment": "<acknowledge>"}.
- A message starting with "Backend Error:" reports that saving failed. Explain the
  problem in "comment" and, if the error names a bad field value, ask for a
  corrected one (ready=false).`

// Collector drives one LLM round of slot filling for the active write
// operation. The transcript is append-only; the model re-reads it entirely on
// every call, so no field state is materialized outside of it.
type Collector struct {
	client LLMClient
}

// NewCollector creates a collector on top of an LLM client.
func NewCollector(client LLMClient) *Collector {
	return &Collector{client: client}
}

// Collect appends the utterance to the transcript, runs one collection round
// and appends the model's comment. It returns the result and the grown
// transcript. Malformed output gets one structured retry, then a decode fault.
func (c *Collector) Collect(ctx context.Context, transcript []types.Turn, instructions, utterance string) (types.CollectionResult, []types.Turn, error) {
	transcript = append(transcript, types.Turn{Role: types.RoleUser, Content: utterance})

	system := collectorSystem + "\n\n## Operation Instructions\n\n" + instructions
	prompt := renderTranscript(transcript)

	response, err := c.client.CompleteWithSystem(ctx, system, prompt)
	if err != nil {
		return types.CollectionResult{}, transcript, fmt.Errorf("slot collection failed: %w", err)
	}

	result, decodeErr := parseCollectionResult(response)
	if decodeErr != nil {
		logging.Perception("collection result malformed, retrying once: %v", decodeErr)
		retryPrompt := fmt.Sprintf("%s\n\nYour previous answer could not be parsed (%v). Answer again with only the JSON object.", prompt, decodeErr)
		response, err = c.client.CompleteWithSystem(ctx, system, retryPrompt)
		if err != nil {
			return types.CollectionResult{}, transcript, fmt.Errorf("slot collection retry failed: %w", err)
		}
		result, decodeErr = parseCollectionResult(response)
		if decodeErr != nil {
			return types.CollectionResult{}, transcript,
				types.NewFault(types.FaultDecode, "collection result malformed after retry", decodeErr)
		}
	}

	transcript = append(transcript, types.Turn{Role: types.RoleAssistant, Content: result.Comment})
	logging.PerceptionDebug("collection round: ready=%v cancelled=%v", result.Ready, result.Cancelled)
	return result, transcript, nil
}

// renderTranscript flattens the conversation for the prompt.
func renderTranscript(transcript []types.Turn) string {
	var sb strings.Builder
	sb.WriteString("## Conversation\n\n")
	for _, turn := range transcript {
		fmt.Fprintf(&sb, "**%s**: %s\n\n", turn.Role, turn.Content)
	}
	return sb.String()
}

// parseCollectionResult decodes and validates the model response.
func parseCollectionResult(response string) (types.CollectionResult, error) {
	jsonStr := extractJSON(response)
	if jsonStr == "" {
		return types.CollectionResult{}, fmt.Errorf("no JSON found in response")
	}

	var result types.CollectionResult
	if err := json.Unmarshal([]byte(jsonStr), &result); err != nil {
		return types.CollectionResult{}, fmt.Errorf("JSON parse failed: %w", err)
	}
	if err := result.Validate(); err != nil {
		return types.CollectionResult{}, err
	}
	return result, nil
}
