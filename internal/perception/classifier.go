package perception

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"rentnerd/internal/logging"
	"rentnerd/internal/types"
)

// Feedback is the short-term session signal handed to the classifier each
// turn: whether the session is free to start a new operation, and the raw
// answer from the previous turn so an in-flight operation can be echoed back.
type Feedback struct {
	// Readiness is true when no write-flow is active and the classifier may
	// start any operation afresh.
	Readiness bool

	// LastIntent is the previous classifier answer, nil on the first turn.
	LastIntent *types.IntentAnswer
}

const classifierSystem = `You are the intent classifier of a rental-management assistant.
The dataset has four entity types: person, apartment, tenancy, contract.
Decide which CRUD operation, if any, the user's message asks for.

Answer with ONLY a JSON object of this exact shape:
{
  "create": {"active": false, "entity_type": "", "operation_id": ""},
  "update": {"active": false, "entity_type": "", "operation_id": ""},
  "delete": {"active": false, "entity_type": "", "operation_id": ""},
  "show":   {"active": false, "entity_type": "", "operation_id": ""}
}

Rules:
- At most ONE record may be active. If a message mixes verbs, prefer
  delete over update over create over show.
- "show", "list", "display" and similar read requests activate show.
- Informational or analytical questions without an explicit CRUD verb
  activate NOTHING: leave all four records inactive.
- CONTINUATION: when the feedback says readiness=false, a write operation is
  mid-collection. Unless the message unambiguously starts an unrelated task,
  echo back exactly the active operation from last_answer, including its
  operation_id. Field values, corrections, "leave blank" and similar replies
  are continuations, never new operations.
- A message starting with "Backend Error:" is system feedback about the
  in-flight operation; treat it as a continuation.
- Only fill operation_id when echoing a continuation; leave it empty for a
  newly started operation.`

// Classifier turns an utterance plus session feedback into an IntentAnswer.
// The LLM call is external; the XOR-priority policy and the structured-output
// contract enforced here are part of the core.
type Classifier struct {
	client LLMClient
}

// NewClassifier creates a classifier on top of an LLM client.
func NewClassifier(client LLMClient) *Classifier {
	return &Classifier{client: client}
}

// Classify returns the structured intent for one utterance.
// Malformed model output gets exactly one structured retry (the decode error
// is folded into a re-ask); a second failure is a decode fault.
func (c *Classifier) Classify(ctx context.Context, feedback Feedback, utterance string) (*types.IntentAnswer, error) {
	prompt := c.buildPrompt(feedback, utterance)

	response, err := c.client.CompleteWithSystem(ctx, classifierSystem, prompt)
	if err != nil {
		return nil, fmt.Errorf("intent classification failed: %w", err)
	}

	answer, decodeErr := parseIntentAnswer(response)
	if decodeErr == nil {
		logging.PerceptionDebug("intent classified: active=%d", answer.ActiveCount())
		return answer, nil
	}

	// One structured retry: re-ask with the decode failure spelled out.
	logging.Perception("intent answer malformed, retrying once: %v", decodeErr)
	retryPrompt := fmt.Sprintf("%s\n\nYour previous answer could not be parsed (%v). Answer again with only the JSON object.", prompt, decodeErr)
	response, err = c.client.CompleteWithSystem(ctx, classifierSystem, retryPrompt)
	if err != nil {
		return nil, fmt.Errorf("intent classification retry failed: %w", err)
	}

	answer, decodeErr = parseIntentAnswer(response)
	if decodeErr != nil {
		return nil, types.NewFault(types.FaultDecode, "intent answer malformed after retry", decodeErr)
	}
	return answer, nil
}

// buildPrompt renders the feedback block and the utterance.
func (c *Classifier) buildPrompt(feedback Feedback, utterance string) string {
	var sb strings.Builder

	sb.WriteString("## Session Feedback\n\n")
	fmt.Fprintf(&sb, "readiness: %v\n", feedback.Readiness)
	if feedback.LastIntent != nil {
		if raw, err := json.Marshal(feedback.LastIntent); err == nil {
			fmt.Fprintf(&sb, "last_answer: %s\n", raw)
		}
	}

	sb.WriteString("\n## User Message\n\n")
	sb.WriteString(utterance)

	return sb.String()
}

// parseIntentAnswer decodes the model response into an IntentAnswer.
func parseIntentAnswer(response string) (*types.IntentAnswer, error) {
	jsonStr := extractJSON(response)
	if jsonStr == "" {
		return nil, fmt.Errorf("no JSON found in response")
	}

	var answer types.IntentAnswer
	if err := json.Unmarshal([]byte(jsonStr), &answer); err != nil {
		return nil, fmt.Errorf("JSON parse failed: %w", err)
	}

	// Active flags must carry an entity type the registry knows.
	for _, f := range []types.IntentFlag{answer.Create, answer.Update, answer.Delete, answer.Show} {
		if !f.Active {
			continue
		}
		if _, err := types.ParseEntityType(f.EntityType); err != nil {
			return nil, fmt.Errorf("active flag with bad entity type %q", f.EntityType)
		}
	}

	return &answer, nil
}
