// Package orchestrator is the conversation core of rentNERD: the per-session
// state machine that turns a sequence of partial, multi-turn utterances into
// exactly one completed, validated CRUD operation, surviving backend failures
// with a single bounded error-feedback retry.
package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"rentnerd/internal/logging"
	"rentnerd/internal/perception"
	"rentnerd/internal/schema"
	"rentnerd/internal/types"
)

// backendErrorMarker prefixes the synthetic utterance injected after an
// executor failure. Its presence on an incoming utterance is the retry guard:
// a pass that starts from a marked utterance must not inject again, which
// bounds the retry to exactly one level regardless of input.
const backendErrorMarker = "Backend Error:"

// IntentClassifier resolves which operation an utterance asks for.
type IntentClassifier interface {
	Classify(ctx context.Context, feedback perception.Feedback, utterance string) (*types.IntentAnswer, error)
}

// SlotCollector drives one LLM round of field collection.
type SlotCollector interface {
	Collect(ctx context.Context, transcript []types.Turn, instructions, utterance string) (types.CollectionResult, []types.Turn, error)
}

// Answerer handles utterances with no CRUD intent.
type Answerer interface {
	Answer(ctx context.Context, transcript []types.Turn, utterance string) (types.Envelope, error)
}

// HistorySink persists transcript turns. Optional; persistence failures are
// logged, never fatal to a turn.
type HistorySink interface {
	StoreSessionTurn(ctx context.Context, sessionID string, turnNumber int, role types.Role, content string) error
}

// Orchestrator owns the turn loop. It holds no per-conversation state itself;
// everything mutable lives on the Session passed into HandleTurn.
type Orchestrator struct {
	classifier IntentClassifier
	collector  SlotCollector
	answerer   Answerer
	executor   *Executor
	history    HistorySink
	model      string
}

// New creates an orchestrator from its collaborators. model names the LLM in
// outbound envelopes; history may be nil.
func New(classifier IntentClassifier, collector SlotCollector, answerer Answerer, executor *Executor, history HistorySink, model string) *Orchestrator {
	return &Orchestrator{
		classifier: classifier,
		collector:  collector,
		answerer:   answerer,
		executor:   executor,
		history:    history,
		model:      model,
	}
}

// HandleTurn processes one inbound message and returns the outbound envelope.
// On a terminal fault the session is reset to no-active-operation before the
// error propagates, and the returned envelope still describes the failure so
// front doors can render it; err is non-nil in that case.
func (o *Orchestrator) HandleTurn(ctx context.Context, sess *Session, utterance string) (types.Envelope, error) {
	logging.Orchestrator("session %s: turn: %s", sess.ID, truncate(utterance, 80))

	env, err := o.runTurn(ctx, sess, utterance)
	o.syncTranscript(ctx, sess)
	if err != nil {
		sess.ResetOperation()
		logging.Orchestrator("session %s: terminal fault: %v", sess.ID, err)
		return types.ErrorEnvelope(o.model, err), err
	}
	return env, nil
}

// runTurn is the bounded turn loop. Each iteration is one full pass of
// classify → collect → execute; a second iteration happens only when a pass
// asks for error-feedback injection, and a pass starting from an already
// marked utterance can never ask (see pass). Termination is therefore
// guaranteed by the marker check, not by counting.
func (o *Orchestrator) runTurn(ctx context.Context, sess *Session, utterance string) (types.Envelope, error) {
	for {
		env, injected, err := o.pass(ctx, sess, utterance)
		if err != nil {
			return types.Envelope{}, err
		}
		if injected == "" {
			return env, nil
		}
		logging.Orchestrator("session %s: executor failed, re-entering with error feedback", sess.ID)
		utterance = injected
	}
}

// pass runs one classify → collect → execute cycle. It returns either a final
// envelope, or a non-empty injected utterance requesting exactly one more
// pass with the backend failure folded in.
func (o *Orchestrator) pass(ctx context.Context, sess *Session, utterance string) (types.Envelope, string, error) {
	feedback := perception.Feedback{
		Readiness:  sess.Active.None(),
		LastIntent: sess.LastIntent,
	}

	answer, err := o.classifier.Classify(ctx, feedback, utterance)
	if err != nil {
		return types.Envelope{}, "", err
	}
	sess.LastUtterance = utterance
	sess.LastIntent = answer

	kind, flag := o.resolveIntent(sess, answer)

	switch {
	case kind == types.OpShow:
		env, err := o.handleShow(ctx, sess, flag)
		return env, "", err

	case kind.IsWrite():
		return o.handleWrite(ctx, sess, kind, flag, utterance)

	default:
		env, err := o.handleNone(ctx, sess, utterance)
		return env, "", err
	}
}

// resolveIntent applies the stickiness rule. Mid-collection the classifier is
// expected to echo the active operation back; the orchestrator trusts the
// echo but verifies the operation_id. A disagreeing answer wins only when it
// is an explicit new task, i.e. a flag re-activated from scratch with no
// echoed operation_id. Anything else continues the stored operation.
func (o *Orchestrator) resolveIntent(sess *Session, answer *types.IntentAnswer) (types.OperationKind, types.IntentFlag) {
	kind, flag := answer.Resolve()

	if sess.Active.None() {
		return kind, flag
	}

	// A write-flow is mid-collection.
	if kind.IsWrite() && flag.OperationID == sess.Active.OperationID {
		// Clean echo of the in-flight operation.
		return sess.Active.Kind, types.IntentFlag{
			Active:      true,
			EntityType:  string(sess.Active.EntityType),
			OperationID: sess.Active.OperationID,
		}
	}

	if kind != types.OpNone && flag.OperationID == "" {
		// Fresh decision: the classifier re-evaluated all four flags and
		// started an unrelated task. Abandon the old operation.
		logging.Orchestrator("session %s: operation %s interrupted by new %s intent",
			sess.ID, sess.Active.OperationID, kind)
		sess.ResetOperation()
		sess.LastIntent = answer // reset cleared it; the fresh answer still applies
		return kind, flag
	}

	// Disagreement without a fresh activation: distrust the classifier and
	// continue the stored operation.
	logging.OrchestratorDebug("session %s: classifier diverged from active operation, continuing %s",
		sess.ID, sess.Active.OperationID)
	return sess.Active.Kind, types.IntentFlag{
		Active:      true,
		EntityType:  string(sess.Active.EntityType),
		OperationID: sess.Active.OperationID,
	}
}

// handleShow executes the stateless read path. Show never persists state
// across turns: the session is reset whether the listing succeeds or not.
func (o *Orchestrator) handleShow(ctx context.Context, sess *Session, flag types.IntentFlag) (types.Envelope, error) {
	defer sess.ResetOperation()

	entity, err := types.ParseEntityType(flag.EntityType)
	if err != nil {
		return types.Envelope{}, err
	}

	records, err := o.executor.Execute(ctx, types.OpShow, entity, nil)
	if err != nil {
		return types.Envelope{}, err
	}

	msg := fmt.Sprintf("Found %d %s record(s).", len(records), entity)
	return types.DataEnvelope(types.SourceBackend, o.model, msg, records), nil
}

// handleNone delegates to the general answerer. None never leaves operation
// state behind.
func (o *Orchestrator) handleNone(ctx context.Context, sess *Session, utterance string) (types.Envelope, error) {
	sess.ResetOperation()

	env, err := o.answerer.Answer(ctx, sess.Transcript, utterance)
	if err != nil {
		return types.Envelope{}, err
	}

	sess.Transcript = append(sess.Transcript,
		types.Turn{Role: types.RoleUser, Content: utterance},
		types.Turn{Role: types.RoleAssistant, Content: env.Result.Message},
	)
	return env, nil
}

// handleWrite drives the multi-turn write-flow: activate, collect, execute.
func (o *Orchestrator) handleWrite(ctx context.Context, sess *Session, kind types.OperationKind, flag types.IntentFlag, utterance string) (types.Envelope, string, error) {
	if sess.Active.None() {
		entity, err := types.ParseEntityType(flag.EntityType)
		if err != nil {
			return types.Envelope{}, "", err
		}
		sess.StartOperation(kind, entity)
		if sess.LastIntent != nil {
			// Reflect the minted token into the raw answer so the next
			// turn's feedback lets the classifier echo it back.
			sess.LastIntent.SetOperationID(kind, sess.Active.OperationID)
		}
	}

	// Generate the collector instructions exactly once per operation
	// instance. Regenerating them every turn would reset the model's notion
	// of required fields and break multi-turn slot accumulation.
	if sess.TurnStarted || sess.PendingPrompt == "" {
		prompt, err := schema.Describe(sess.Active.EntityType, sess.Active.Kind)
		if err != nil {
			return types.Envelope{}, "", err
		}
		sess.PendingPrompt = prompt
		sess.TurnStarted = false
	}

	result, transcript, err := o.collector.Collect(ctx, sess.Transcript, sess.PendingPrompt, utterance)
	sess.Transcript = transcript
	if err != nil {
		return types.Envelope{}, "", err
	}

	if result.Cancelled {
		logging.Orchestrator("session %s: operation %s cancelled by user", sess.ID, sess.Active.OperationID)
		sess.ResetOperation()
		return types.TextEnvelope(types.SourceLLM, o.model, result.Comment), "", nil
	}

	if !result.Ready {
		// Keep collecting; the cycle continues next turn.
		return types.TextEnvelope(types.SourceLLM, o.model, result.Comment), "", nil
	}

	records, err := o.executor.Execute(ctx, sess.Active.Kind, sess.Active.EntityType, result.Data)
	if err != nil {
		fault := types.AsFault(err)
		if types.IsBackendFault(fault) && !strings.HasPrefix(utterance, backendErrorMarker) {
			// One-shot error-feedback retry: fold the failure into a
			// synthetic utterance and let the caller loop once more. The
			// operation stays active so the retry pass continues it.
			injected := fmt.Sprintf("%s %s %s", backendErrorMarker, fault.Code, fault.Message)
			return types.Envelope{}, injected, nil
		}
		return types.Envelope{}, "", err
	}

	logging.Orchestrator("session %s: operation %s completed (%s %s)",
		sess.ID, sess.Active.OperationID, sess.Active.Kind, sess.Active.EntityType)
	sess.ResetOperation()
	return types.DataEnvelope(types.SourceBackend, o.model, result.Comment, records), "", nil
}

// syncTranscript pushes unsynced transcript turns to the history sink.
func (o *Orchestrator) syncTranscript(ctx context.Context, sess *Session) {
	if o.history == nil {
		return
	}
	for i := sess.persistedTurns; i < len(sess.Transcript); i++ {
		turn := sess.Transcript[i]
		if err := o.history.StoreSessionTurn(ctx, sess.ID, i, turn.Role, turn.Content); err != nil {
			logging.Get(logging.CategorySession).Warn("failed to persist turn %d: %v", i, err)
			return
		}
		sess.persistedTurns = i + 1
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
