package perception

import (
	"context"
)

// mockClient replays scripted responses and records every prompt it saw.
type mockClient struct {
	responses []string
	err       error
	calls     int
	systems   []string
	prompts   []string
}

func (m *mockClient) Complete(ctx context.Context, prompt string) (string, error) {
	return m.CompleteWithSystem(ctx, "", prompt)
}

func (m *mockClient) CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	m.systems = append(m.systems, systemPrompt)
	m.prompts = append(m.prompts, userPrompt)
	m.calls++
	if m.err != nil {
		return "", m.err
	}
	idx := m.calls - 1
	if idx >= len(m.responses) {
		idx = len(m.responses) - 1
	}
	return m.responses[idx], nil
}

func (m *mockClient) Model() string { return "mock-model" }

// intentJSON renders a minimal IntentAnswer response with one active verb.
func intentJSON(verb, entity, opID string) string {
	blank := `{"active": false, "entity_type": "", "operation_id": ""}`
	active := `{"active": true, "entity_type": "` + entity + `", "operation_id": "` + opID + `"}`
	out := "{"
	for i, v := range []string{"create", "update", "delete", "show"} {
		if i > 0 {
			out += ","
		}
		if v == verb {
			out += `"` + v + `": ` + active
		} else {
			out += `"` + v + `": ` + blank
		}
	}
	return out + "}"
}
