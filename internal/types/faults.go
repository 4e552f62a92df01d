package types

import (
	"errors"
	"fmt"
)

// =============================================================================
// FAULT TAXONOMY
// =============================================================================

// FaultCode classifies a failure by which collaborator produced it and how the
// orchestrator must react to it.
type FaultCode string

const (
	// FaultProvider marks an LLM transport/provider failure (timeouts, HTTP
	// errors, quota). Surfaced immediately, never retried by the core.
	FaultProvider FaultCode = "provider"

	// FaultDecode marks malformed structured output from the LLM that survived
	// the collaborator's single structured retry. Terminal.
	FaultDecode FaultCode = "decode"

	// FaultStorage marks a backend/storage failure during a mutation.
	// Together with FaultNotFound it triggers the one-shot error-feedback
	// retry; see IsBackendFault.
	FaultStorage FaultCode = "storage"

	// FaultNotFound marks an identifier that matched no record.
	FaultNotFound FaultCode = "not_found"

	// FaultNotImplemented marks an entity/operation combination the executor
	// does not support. Raised deliberately instead of a silent no-op.
	FaultNotImplemented FaultCode = "not_implemented"

	// FaultPolicy marks a core invariant violation (unknown entity type,
	// inconsistent classifier answer). Terminal, never retried.
	FaultPolicy FaultCode = "policy"
)

// Fault is the typed error shared by all collaborators.
type Fault struct {
	Code    FaultCode
	Message string
	Err     error
}

// Error implements the error interface.
func (f *Fault) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("%s: %s: %v", f.Code, f.Message, f.Err)
	}
	return fmt.Sprintf("%s: %s", f.Code, f.Message)
}

// Unwrap exposes the wrapped cause for errors.Is/As.
func (f *Fault) Unwrap() error { return f.Err }

// NewFault builds a fault wrapping an optional cause.
func NewFault(code FaultCode, message string, cause error) *Fault {
	return &Fault{Code: code, Message: message, Err: cause}
}

// AsFault extracts a *Fault from an error chain, or wraps the error as a
// storage fault when no typed fault is present.
func AsFault(err error) *Fault {
	var f *Fault
	if errors.As(err, &f) {
		return f
	}
	return &Fault{Code: FaultStorage, Message: err.Error(), Err: err}
}

// IsBackendFault reports whether the error is a backend failure the
// orchestrator feeds back for a single retry pass. Storage faults and missing
// identifiers qualify: folding them into the next classifier call lets the
// collector ask the user for corrected input. Not-implemented and policy
// faults describe the request itself and are terminal.
func IsBackendFault(err error) bool {
	var f *Fault
	if !errors.As(err, &f) {
		return false
	}
	return f.Code == FaultStorage || f.Code == FaultNotFound
}

// IsTerminalFault reports whether the error must abort the turn without a
// retry pass.
func IsTerminalFault(err error) bool {
	var f *Fault
	if !errors.As(err, &f) {
		return false
	}
	switch f.Code {
	case FaultProvider, FaultDecode, FaultPolicy:
		return true
	}
	return false
}
