package orchestrator

import (
	"github.com/google/uuid"

	"rentnerd/internal/logging"
	"rentnerd/internal/types"
)

// ActiveOperation is the session's tagged active-operation union: a zero value
// means no operation is in flight.
type ActiveOperation struct {
	Kind        types.OperationKind
	EntityType  types.EntityType
	OperationID string
}

// None reports whether no operation is active.
func (a ActiveOperation) None() bool {
	return a.Kind == "" || a.Kind == types.OpNone
}

// Session is the mutable per-conversation state. One instance per
// conversation, passed by reference into every HandleTurn call; the caller
// must serialize turns of the same session (no two turns of one session may
// run concurrently). Sessions share nothing, so distinct sessions can run
// fully in parallel.
type Session struct {
	ID string

	// Active is the operation currently being collected, if any.
	Active ActiveOperation

	// TurnStarted marks the first turn of the active operation: the collector
	// instructions have not been generated yet.
	TurnStarted bool

	// PendingPrompt is the collector instruction blob, generated exactly once
	// per operation instance from the schema registry.
	PendingPrompt string

	// LastUtterance is the most recent (possibly synthetic) user message.
	LastUtterance string

	// LastIntent is the raw classifier answer from the previous turn, used to
	// detect interrupted operations.
	LastIntent *types.IntentAnswer

	// Transcript is the append-only conversation log the collector re-reads
	// on every call. It survives operation completion; only the session's
	// owner discards it.
	Transcript []types.Turn

	// persistedTurns counts transcript entries already synced to the store.
	persistedTurns int
}

// NewSession creates a fresh session.
func NewSession() *Session {
	return &Session{ID: uuid.NewString()}
}

// ResetOperation clears the active operation and everything scoped to it.
// Called when an operation completes, is cancelled, or fails terminally, so a
// fatal error can never leave the session stuck. The transcript is kept.
func (s *Session) ResetOperation() {
	if !s.Active.None() {
		logging.Session("session %s: resetting operation %s %s (%s)",
			s.ID, s.Active.Kind, s.Active.EntityType, s.Active.OperationID)
	}
	s.Active = ActiveOperation{}
	s.TurnStarted = false
	s.PendingPrompt = ""
	s.LastIntent = nil
}

// StartOperation activates a write-flow, minting a fresh operation identifier.
func (s *Session) StartOperation(kind types.OperationKind, entity types.EntityType) {
	s.Active = ActiveOperation{
		Kind:        kind,
		EntityType:  entity,
		OperationID: uuid.NewString(),
	}
	s.TurnStarted = true
	s.PendingPrompt = ""
	logging.Session("session %s: started %s %s (%s)", s.ID, kind, entity, s.Active.OperationID)
}
