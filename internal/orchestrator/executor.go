package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"

	"rentnerd/internal/logging"
	"rentnerd/internal/schema"
	"rentnerd/internal/types"
)

// Persistence is the storage collaborator contract. Implementations must be
// safe to call at most once per ready payload; the orchestrator never
// re-invokes a successful mutation.
type Persistence interface {
	Create(ctx context.Context, entity types.EntityType, fields map[string]string) (types.Record, error)
	Update(ctx context.Context, entity types.EntityType, identifier, fields map[string]string) (types.Record, error)
	Delete(ctx context.Context, entity types.EntityType, identifier map[string]string) (types.Record, error)
	List(ctx context.Context, entity types.EntityType) ([]types.Record, error)
}

// Executor maps ready payloads onto the persistence collaborator. Unsupported
// entity/operation combinations raise a typed not-implemented fault instead of
// silently no-opping, so the failure path stays deterministic.
type Executor struct {
	store Persistence
}

// NewExecutor creates an executor over a persistence backend.
func NewExecutor(store Persistence) *Executor {
	return &Executor{store: store}
}

// Execute performs one operation with a finalized payload.
// Show ignores the payload and lists the entity type.
func (e *Executor) Execute(ctx context.Context, kind types.OperationKind, entity types.EntityType, payload json.RawMessage) ([]types.Record, error) {
	logging.OrchestratorDebug("execute: kind=%s entity=%s", kind, entity)

	if kind == types.OpShow {
		return e.store.List(ctx, entity)
	}

	// Signed contracts are immutable; amendments mean a new contract.
	if kind == types.OpUpdate && entity == types.EntityContract {
		return nil, types.NewFault(types.FaultNotImplemented, "contracts cannot be updated once signed", nil)
	}

	fields, err := decodePayload(payload)
	if err != nil {
		return nil, err
	}

	switch kind {
	case types.OpCreate:
		required, err := schema.RequiredFields(entity, types.OpCreate)
		if err != nil {
			return nil, err
		}
		for _, key := range required {
			if fields[key] == "" {
				return nil, types.NewFault(types.FaultPolicy,
					fmt.Sprintf("ready payload is missing required field %q", key), nil)
			}
		}
		rec, err := e.store.Create(ctx, entity, fields)
		if err != nil {
			return nil, err
		}
		return []types.Record{rec}, nil

	case types.OpUpdate:
		identifier, changes, err := splitIdentifier(entity, fields)
		if err != nil {
			return nil, err
		}
		rec, err := e.store.Update(ctx, entity, identifier, changes)
		if err != nil {
			return nil, err
		}
		return []types.Record{rec}, nil

	case types.OpDelete:
		identifier, _, err := splitIdentifier(entity, fields)
		if err != nil {
			return nil, err
		}
		rec, err := e.store.Delete(ctx, entity, identifier)
		if err != nil {
			return nil, err
		}
		return []types.Record{rec}, nil
	}

	return nil, types.NewFault(types.FaultNotImplemented, fmt.Sprintf("operation %q is not supported", kind), nil)
}

// decodePayload flattens the collector's data object into string fields.
// The collector prompt demands flat string values, but models sometimes emit
// numbers; those are stringified rather than rejected.
func decodePayload(payload json.RawMessage) (map[string]string, error) {
	if len(payload) == 0 {
		return nil, types.NewFault(types.FaultPolicy, "ready payload is empty", nil)
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, types.NewFault(types.FaultPolicy, "ready payload is not an object", err)
	}

	fields := make(map[string]string, len(raw))
	for k, v := range raw {
		switch val := v.(type) {
		case nil:
			continue
		case string:
			if val != "" {
				fields[k] = val
			}
		case float64:
			fields[k] = trimFloat(val)
		case bool:
			fields[k] = fmt.Sprintf("%v", val)
		default:
			return nil, types.NewFault(types.FaultPolicy, fmt.Sprintf("field %q has unsupported value type", k), nil)
		}
	}
	return fields, nil
}

// splitIdentifier separates identifying fields from change fields using the
// first identifier option the payload fully specifies.
func splitIdentifier(entity types.EntityType, fields map[string]string) (identifier, changes map[string]string, err error) {
	options, err := schema.IdentifierOptions(entity)
	if err != nil {
		return nil, nil, err
	}

	for _, opt := range options {
		complete := true
		for _, key := range opt {
			if fields[key] == "" {
				complete = false
				break
			}
		}
		if !complete {
			continue
		}

		identifier = make(map[string]string, len(opt))
		for _, key := range opt {
			identifier[key] = fields[key]
		}
		changes = make(map[string]string)
		for k, v := range fields {
			if _, isID := identifier[k]; !isID {
				changes[k] = v
			}
		}
		return identifier, changes, nil
	}

	return nil, nil, types.NewFault(types.FaultPolicy,
		fmt.Sprintf("payload carries no complete identifier for %s", entity), nil)
}

// trimFloat renders whole numbers without a decimal point.
func trimFloat(f float64) string {
	if f == float64(int64(f)) {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprintf("%g", f)
}
