// Package schema is the static entity schema registry: per-entity required and
// optional field sets for create/update/delete, plus the alternative field
// combinations that uniquely identify a record. Purely data; nothing here is
// mutated at runtime.
package schema

import (
	"fmt"
	"sort"
	"strings"

	"rentnerd/internal/types"
)

// entitySchema describes one entity type.
type entitySchema struct {
	required    []string
	optional    []string
	identifiers [][]string
}

// registry holds the full field tables. Field names are the canonical snake_case
// keys used in record field maps and collector payloads.
var registry = map[types.EntityType]entitySchema{
	types.EntityPerson: {
		required:    []string{"first_name", "last_name"},
		optional:    []string{"email", "phone", "birth_date"},
		identifiers: [][]string{{"email"}, {"first_name", "last_name"}},
	},
	types.EntityApartment: {
		required:    []string{"street", "number", "city"},
		optional:    []string{"floor", "rooms", "rent"},
		identifiers: [][]string{{"street", "number", "city"}},
	},
	types.EntityTenancy: {
		required:    []string{"person_email", "apartment_street", "apartment_number", "start_date"},
		optional:    []string{"end_date"},
		identifiers: [][]string{{"person_email", "apartment_street", "apartment_number"}},
	},
	types.EntityContract: {
		required:    []string{"tenancy_ref", "monthly_rent", "signed_date"},
		optional:    []string{"deposit"},
		identifiers: [][]string{{"tenancy_ref"}},
	},
}

// RequiredFields returns the required field set for an entity/operation pair.
// Create requires the full required set; update and delete require only an
// identifier plus, for update, at least one field to change (enforced by the
// collector prompt, not here).
func RequiredFields(entity types.EntityType, kind types.OperationKind) ([]string, error) {
	es, ok := registry[entity]
	if !ok {
		return nil, types.NewFault(types.FaultPolicy, fmt.Sprintf("no schema for entity %q", entity), nil)
	}
	switch kind {
	case types.OpCreate:
		return append([]string(nil), es.required...), nil
	case types.OpUpdate, types.OpDelete:
		// The shortest identifier option is the minimum the user must supply.
		shortest := es.identifiers[0]
		for _, opt := range es.identifiers[1:] {
			if len(opt) < len(shortest) {
				shortest = opt
			}
		}
		return append([]string(nil), shortest...), nil
	}
	return nil, types.NewFault(types.FaultPolicy, fmt.Sprintf("no required-field set for operation %q", kind), nil)
}

// OptionalFields returns the optional field set for an entity/operation pair.
func OptionalFields(entity types.EntityType, kind types.OperationKind) ([]string, error) {
	es, ok := registry[entity]
	if !ok {
		return nil, types.NewFault(types.FaultPolicy, fmt.Sprintf("no schema for entity %q", entity), nil)
	}
	if kind == types.OpDelete {
		return nil, nil
	}
	return append([]string(nil), es.optional...), nil
}

// IdentifierOptions returns the alternative field combinations that uniquely
// locate a record of the given entity type.
func IdentifierOptions(entity types.EntityType) ([][]string, error) {
	es, ok := registry[entity]
	if !ok {
		return nil, types.NewFault(types.FaultPolicy, fmt.Sprintf("no schema for entity %q", entity), nil)
	}
	out := make([][]string, len(es.identifiers))
	for i, opt := range es.identifiers {
		out[i] = append([]string(nil), opt...)
	}
	return out, nil
}

// AllFields returns required followed by optional fields.
func AllFields(entity types.EntityType) ([]string, error) {
	es, ok := registry[entity]
	if !ok {
		return nil, types.NewFault(types.FaultPolicy, fmt.Sprintf("no schema for entity %q", entity), nil)
	}
	all := append([]string(nil), es.required...)
	all = append(all, es.optional...)
	return all, nil
}

// Describe renders the collector instruction blob for one operation instance.
// The orchestrator generates this exactly once per operation; regenerating it
// every turn would reset the model's notion of required fields and break
// multi-turn slot accumulation.
func Describe(entity types.EntityType, kind types.OperationKind) (string, error) {
	es, ok := registry[entity]
	if !ok {
		return "", types.NewFault(types.FaultPolicy, fmt.Sprintf("no schema for entity %q", entity), nil)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Operation: %s %s\n", kind, entity)

	switch kind {
	case types.OpCreate:
		fmt.Fprintf(&sb, "Required fields: %s\n", strings.Join(es.required, ", "))
		if len(es.optional) > 0 {
			fmt.Fprintf(&sb, "Optional fields: %s\n", strings.Join(es.optional, ", "))
		}
	case types.OpUpdate:
		sb.WriteString("Identify the record with one of:\n")
		writeIdentifierOptions(&sb, es.identifiers)
		all := append(append([]string(nil), es.required...), es.optional...)
		sort.Strings(all)
		fmt.Fprintf(&sb, "Updatable fields: %s\n", strings.Join(all, ", "))
	case types.OpDelete:
		sb.WriteString("Identify the record with one of:\n")
		writeIdentifierOptions(&sb, es.identifiers)
	default:
		return "", types.NewFault(types.FaultPolicy, fmt.Sprintf("no instructions for operation %q", kind), nil)
	}

	return sb.String(), nil
}

func writeIdentifierOptions(sb *strings.Builder, options [][]string) {
	for _, opt := range options {
		fmt.Fprintf(sb, "  - %s\n", strings.Join(opt, " + "))
	}
}
