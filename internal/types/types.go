// Package types provides shared type definitions used across rentNERD packages.
// This package exists to break import cycles between orchestrator, perception,
// and store. Types in this package should be foundational data structures with
// no complex dependencies.
package types

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// =============================================================================
// ENTITY TYPES
// =============================================================================

// EntityType identifies one of the rental-management record kinds.
// It is a closed enumeration; unknown strings are rejected at the boundary.
type EntityType string

const (
	EntityPerson    EntityType = "person"
	EntityApartment EntityType = "apartment"
	EntityTenancy   EntityType = "tenancy"
	EntityContract  EntityType = "contract"
)

// AllEntityTypes lists every valid entity type in canonical order.
func AllEntityTypes() []EntityType {
	return []EntityType{EntityPerson, EntityApartment, EntityTenancy, EntityContract}
}

// ParseEntityType validates a raw string from the classifier.
func ParseEntityType(s string) (EntityType, error) {
	et := EntityType(strings.ToLower(strings.TrimSpace(s)))
	switch et {
	case EntityPerson, EntityApartment, EntityTenancy, EntityContract:
		return et, nil
	}
	return "", &Fault{Code: FaultPolicy, Message: fmt.Sprintf("unknown entity type: %q", s)}
}

// String returns the canonical lowercase name.
func (e EntityType) String() string { return string(e) }

// =============================================================================
// OPERATION KINDS
// =============================================================================

// OperationKind identifies a CRUD verb.
type OperationKind string

const (
	OpCreate OperationKind = "create"
	OpUpdate OperationKind = "update"
	OpDelete OperationKind = "delete"
	OpShow   OperationKind = "show"
	OpNone   OperationKind = "none"
)

// IsWrite reports whether the kind is a multi-turn write-flow.
func (k OperationKind) IsWrite() bool {
	return k == OpCreate || k == OpUpdate || k == OpDelete
}

// =============================================================================
// INTENT ANSWER
// =============================================================================

// IntentFlag is one of the four per-verb records in an IntentAnswer.
type IntentFlag struct {
	Active      bool   `json:"active"`
	EntityType  string `json:"entity_type"`
	OperationID string `json:"operation_id"`
}

// IntentAnswer is the classifier's structured output: one fixed record per verb.
// At most one record is active for a newly started operation; Resolve enforces
// the priority delete > update > create > show when the model sets several.
type IntentAnswer struct {
	Create IntentFlag `json:"create"`
	Update IntentFlag `json:"update"`
	Delete IntentFlag `json:"delete"`
	Show   IntentFlag `json:"show"`
}

// Resolve returns the winning operation kind and its flag.
// Priority on conflict: delete > update > create > show.
// Returns OpNone when no flag is active.
func (a IntentAnswer) Resolve() (OperationKind, IntentFlag) {
	switch {
	case a.Delete.Active:
		return OpDelete, a.Delete
	case a.Update.Active:
		return OpUpdate, a.Update
	case a.Create.Active:
		return OpCreate, a.Create
	case a.Show.Active:
		return OpShow, a.Show
	}
	return OpNone, IntentFlag{}
}

// ActiveCount returns how many verb flags the model set.
func (a IntentAnswer) ActiveCount() int {
	n := 0
	for _, f := range []IntentFlag{a.Create, a.Update, a.Delete, a.Show} {
		if f.Active {
			n++
		}
	}
	return n
}

// SetOperationID writes the minted operation identifier into the record for
// the given kind, so the next turn's feedback lets the classifier echo it.
func (a *IntentAnswer) SetOperationID(kind OperationKind, id string) {
	switch kind {
	case OpCreate:
		a.Create.OperationID = id
	case OpUpdate:
		a.Update.OperationID = id
	case OpDelete:
		a.Delete.OperationID = id
	case OpShow:
		a.Show.OperationID = id
	}
}

// Flag returns the record for the given kind. OpNone returns a zero flag.
func (a IntentAnswer) Flag(kind OperationKind) IntentFlag {
	switch kind {
	case OpCreate:
		return a.Create
	case OpUpdate:
		return a.Update
	case OpDelete:
		return a.Delete
	case OpShow:
		return a.Show
	}
	return IntentFlag{}
}

// =============================================================================
// COLLECTION RESULT
// =============================================================================

// CollectionResult is the slot collector's per-call output.
// Data is well-formed only when Ready is true; Comment is always user-facing.
// Cancelled marks an explicit, unambiguous abandon signal from the user.
type CollectionResult struct {
	Ready     bool            `json:"ready"`
	Data      json.RawMessage `json:"data,omitempty"`
	Comment   string          `json:"comment"`
	Cancelled bool            `json:"cancelled,omitempty"`
}

// Validate checks the structural invariants of a decoded result.
func (r CollectionResult) Validate() error {
	if strings.TrimSpace(r.Comment) == "" {
		return &Fault{Code: FaultDecode, Message: "collection result missing comment"}
	}
	if r.Ready && len(r.Data) == 0 {
		return &Fault{Code: FaultDecode, Message: "collection result ready without data"}
	}
	return nil
}

// =============================================================================
// ENVELOPE
// =============================================================================

// EnvelopeType tags the outbound message shape.
type EnvelopeType string

const (
	EnvelopeText  EnvelopeType = "text"
	EnvelopeData  EnvelopeType = "data"
	EnvelopeError EnvelopeType = "error"
)

// AnswerSource records which collaborator produced the final answer.
type AnswerSource string

const (
	SourceLLM     AnswerSource = "llm"
	SourceBackend AnswerSource = "backend"
)

// EnvelopeResult carries the message and optional payload of an envelope.
type EnvelopeResult struct {
	Message string   `json:"message,omitempty"`
	Payload []Record `json:"payload,omitempty"`
}

// Envelope is the unified outbound message for one completed turn.
// It is immutable once returned.
type Envelope struct {
	Type         EnvelopeType   `json:"type"`
	Result       EnvelopeResult `json:"result"`
	AnswerSource AnswerSource   `json:"answer_source"`
	Model        string         `json:"model"`
}

// TextEnvelope builds a plain conversational reply.
func TextEnvelope(source AnswerSource, model, message string) Envelope {
	return Envelope{
		Type:         EnvelopeText,
		Result:       EnvelopeResult{Message: message},
		AnswerSource: source,
		Model:        model,
	}
}

// DataEnvelope builds a record-carrying reply.
func DataEnvelope(source AnswerSource, model, message string, records []Record) Envelope {
	return Envelope{
		Type:         EnvelopeData,
		Result:       EnvelopeResult{Message: message, Payload: records},
		AnswerSource: source,
		Model:        model,
	}
}

// ErrorEnvelope reports a failed turn to the user.
func ErrorEnvelope(model string, err error) Envelope {
	return Envelope{
		Type:         EnvelopeError,
		Result:       EnvelopeResult{Message: err.Error()},
		AnswerSource: SourceBackend,
		Model:        model,
	}
}

// =============================================================================
// RECORD
// =============================================================================

// Record is a persisted entity row. Fields hold the flattened attribute map;
// the schema registry defines which keys are meaningful per entity type.
type Record struct {
	ID         string            `json:"id"`
	EntityType EntityType        `json:"entity_type"`
	Fields     map[string]string `json:"fields"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// =============================================================================
// CONVERSATION TURNS
// =============================================================================

// Role tags a transcript turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Turn is one entry in a session's append-only transcript.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}
