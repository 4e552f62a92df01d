package perception

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentnerd/internal/types"
)

const personInstructions = "Operation: create person\nRequired fields: first_name, last_name\n"

func TestCollectNotReadyAsksForFields(t *testing.T) {
	client := &mockClient{responses: []string{
		`{"ready": false, "data": null, "comment": "What is the last name?"}`,
	}}
	c := NewCollector(client)

	result, transcript, err := c.Collect(context.Background(), nil, personInstructions, "add Ada")
	require.NoError(t, err)

	assert.False(t, result.Ready)
	assert.Equal(t, "What is the last name?", result.Comment)

	// User utterance and model comment are both appended.
	require.Len(t, transcript, 2)
	assert.Equal(t, types.RoleUser, transcript[0].Role)
	assert.Equal(t, "add Ada", transcript[0].Content)
	assert.Equal(t, types.RoleAssistant, transcript[1].Role)
}

func TestCollectReadyCarriesData(t *testing.T) {
	client := &mockClient{responses: []string{
		`{"ready": true, "data": {"first_name": "Ada", "last_name": "Lovelace"}, "comment": "All set."}`,
	}}
	c := NewCollector(client)

	prior := []types.Turn{
		{Role: types.RoleUser, Content: "add Ada"},
		{Role: types.RoleAssistant, Content: "What is the last name?"},
	}
	result, transcript, err := c.Collect(context.Background(), prior, personInstructions, "Lovelace")
	require.NoError(t, err)

	assert.True(t, result.Ready)
	assert.JSONEq(t, `{"first_name": "Ada", "last_name": "Lovelace"}`, string(result.Data))
	assert.Len(t, transcript, 4)

	// The model re-reads the whole transcript: the prompt must contain the
	// earlier turns, and the instructions ride in the system prompt.
	assert.Contains(t, client.prompts[0], "add Ada")
	assert.Contains(t, client.prompts[0], "Lovelace")
	assert.Contains(t, client.systems[0], "create person")
}

func TestCollectCancellationSignal(t *testing.T) {
	client := &mockClient{responses: []string{
		`{"ready": false, "data": null, "cancelled": true, "comment": "Okay, dropping it."}`,
	}}
	c := NewCollector(client)

	result, _, err := c.Collect(context.Background(), nil, personInstructions, "forget it")
	require.NoError(t, err)
	assert.True(t, result.Cancelled)
	assert.False(t, result.Ready)
}

func TestCollectRetriesOnceThenFaults(t *testing.T) {
	client := &mockClient{responses: []string{"gibberish", "more gibberish"}}
	c := NewCollector(client)

	_, transcript, err := c.Collect(context.Background(), nil, personInstructions, "add Ada")
	require.Error(t, err)
	assert.Equal(t, types.FaultDecode, types.AsFault(err).Code)
	assert.Equal(t, 2, client.calls)

	// The user turn is recorded even when decoding fails; no assistant turn is.
	require.Len(t, transcript, 1)
	assert.Equal(t, types.RoleUser, transcript[0].Role)
}

func TestCollectMissingCommentIsMalformed(t *testing.T) {
	client := &mockClient{responses: []string{
		`{"ready": false, "data": null}`,
		`{"ready": false, "data": null, "comment": "Which apartment?"}`,
	}}
	c := NewCollector(client)

	result, _, err := c.Collect(context.Background(), nil, personInstructions, "add someone")
	require.NoError(t, err)
	assert.Equal(t, 2, client.calls)
	assert.Equal(t, "Which apartment?", result.Comment)
}
