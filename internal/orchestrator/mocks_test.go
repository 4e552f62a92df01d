package orchestrator

import (
	"context"

	"rentnerd/internal/perception"
	"rentnerd/internal/types"
)

// intentAnswer builds a classifier answer with exactly one active verb.
func intentAnswer(kind types.OperationKind, entity, opID string) *types.IntentAnswer {
	answer := &types.IntentAnswer{}
	flag := types.IntentFlag{Active: true, EntityType: entity, OperationID: opID}
	switch kind {
	case types.OpCreate:
		answer.Create = flag
	case types.OpUpdate:
		answer.Update = flag
	case types.OpDelete:
		answer.Delete = flag
	case types.OpShow:
		answer.Show = flag
	}
	return answer
}

// classifierFunc adapts a function to the IntentClassifier interface.
type classifierFunc func(ctx context.Context, feedback perception.Feedback, utterance string) (*types.IntentAnswer, error)

func (f classifierFunc) Classify(ctx context.Context, feedback perception.Feedback, utterance string) (*types.IntentAnswer, error) {
	return f(ctx, feedback, utterance)
}

// echoClassifier behaves like a cooperative model: it activates a fresh
// intent on the first call and echoes the fed-back answer on every later
// call, the way the continuation rule in the system prompt demands.
type echoClassifier struct {
	fresh      *types.IntentAnswer
	calls      int
	feedbacks  []perception.Feedback
	utterances []string
}

func (e *echoClassifier) Classify(ctx context.Context, feedback perception.Feedback, utterance string) (*types.IntentAnswer, error) {
	e.calls++
	e.feedbacks = append(e.feedbacks, feedback)
	e.utterances = append(e.utterances, utterance)
	if feedback.LastIntent != nil {
		echoed := *feedback.LastIntent
		return &echoed, nil
	}
	return e.fresh, nil
}

// scriptedCollector replays canned collection results and mimics the real
// collector's transcript growth: the user turn always lands, the assistant
// comment only on success.
type scriptedCollector struct {
	results      []types.CollectionResult
	err          error
	calls        int
	instructions []string
	utterances   []string
}

func (s *scriptedCollector) Collect(ctx context.Context, transcript []types.Turn, instructions, utterance string) (types.CollectionResult, []types.Turn, error) {
	s.calls++
	s.instructions = append(s.instructions, instructions)
	s.utterances = append(s.utterances, utterance)

	transcript = append(transcript, types.Turn{Role: types.RoleUser, Content: utterance})
	if s.err != nil {
		return types.CollectionResult{}, transcript, s.err
	}
	idx := s.calls - 1
	if idx >= len(s.results) {
		idx = len(s.results) - 1
	}
	result := s.results[idx]
	transcript = append(transcript, types.Turn{Role: types.RoleAssistant, Content: result.Comment})
	return result, transcript, nil
}

// stubAnswerer returns a fixed conversational reply.
type stubAnswerer struct {
	message string
	calls   int
}

func (s *stubAnswerer) Answer(ctx context.Context, transcript []types.Turn, utterance string) (types.Envelope, error) {
	s.calls++
	return types.TextEnvelope(types.SourceLLM, "mock-model", s.message), nil
}

// stubStore counts persistence calls and injects failures on demand.
type stubStore struct {
	createErr error
	updateErr error
	deleteErr error
	listErr   error

	createCalls int
	updateCalls int
	deleteCalls int
	listCalls   int

	lastFields     map[string]string
	lastIdentifier map[string]string

	record  types.Record
	records []types.Record
}

func (s *stubStore) Create(ctx context.Context, entity types.EntityType, fields map[string]string) (types.Record, error) {
	s.createCalls++
	s.lastFields = fields
	if s.createErr != nil {
		return types.Record{}, s.createErr
	}
	return s.record, nil
}

func (s *stubStore) Update(ctx context.Context, entity types.EntityType, identifier, fields map[string]string) (types.Record, error) {
	s.updateCalls++
	s.lastIdentifier = identifier
	s.lastFields = fields
	if s.updateErr != nil {
		return types.Record{}, s.updateErr
	}
	return s.record, nil
}

func (s *stubStore) Delete(ctx context.Context, entity types.EntityType, identifier map[string]string) (types.Record, error) {
	s.deleteCalls++
	s.lastIdentifier = identifier
	if s.deleteErr != nil {
		return types.Record{}, s.deleteErr
	}
	return s.record, nil
}

func (s *stubStore) List(ctx context.Context, entity types.EntityType) ([]types.Record, error) {
	s.listCalls++
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.records, nil
}

// historyRecorder captures synced transcript turns.
type historyRecorder struct {
	turns []types.Turn
	err   error
}

func (h *historyRecorder) StoreSessionTurn(ctx context.Context, sessionID string, turnNumber int, role types.Role, content string) error {
	if h.err != nil {
		return h.err
	}
	h.turns = append(h.turns, types.Turn{Role: role, Content: content})
	return nil
}
