package orchestrator

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentnerd/internal/types"
)

func TestExecuteContractUpdateIsNotImplemented(t *testing.T) {
	db := &stubStore{}
	e := NewExecutor(db)

	_, err := e.Execute(context.Background(), types.OpUpdate, types.EntityContract,
		json.RawMessage(`{"tenancy_ref": "t-1", "monthly_rent": "900"}`))
	require.Error(t, err)
	assert.Equal(t, types.FaultNotImplemented, types.AsFault(err).Code)
	assert.Equal(t, 0, db.updateCalls)
}

func TestExecuteCreateRejectsMissingRequiredField(t *testing.T) {
	db := &stubStore{}
	e := NewExecutor(db)

	_, err := e.Execute(context.Background(), types.OpCreate, types.EntityPerson,
		json.RawMessage(`{"first_name": "Ada"}`))
	require.Error(t, err)
	assert.Equal(t, types.FaultPolicy, types.AsFault(err).Code)
	assert.Contains(t, err.Error(), "last_name")
	assert.Equal(t, 0, db.createCalls)
}

func TestExecuteUpdateSplitsIdentifierFromChanges(t *testing.T) {
	db := &stubStore{record: types.Record{ID: "r1"}}
	e := NewExecutor(db)

	_, err := e.Execute(context.Background(), types.OpUpdate, types.EntityPerson,
		json.RawMessage(`{"email": "ada@example.com", "phone": "555-0101"}`))
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"email": "ada@example.com"}, db.lastIdentifier)
	assert.Equal(t, map[string]string{"phone": "555-0101"}, db.lastFields)
}

func TestExecuteUpdatePrefersFirstCompleteIdentifier(t *testing.T) {
	db := &stubStore{record: types.Record{ID: "r1"}}
	e := NewExecutor(db)

	// Both the email and the name pair are present; the email option is
	// declared first and wins, so the name fields count as changes.
	_, err := e.Execute(context.Background(), types.OpUpdate, types.EntityPerson,
		json.RawMessage(`{"email": "ada@example.com", "first_name": "Ada", "last_name": "King"}`))
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"email": "ada@example.com"}, db.lastIdentifier)
	assert.Equal(t, "King", db.lastFields["last_name"])
}

func TestExecuteDeleteWithoutIdentifierIsPolicyFault(t *testing.T) {
	db := &stubStore{}
	e := NewExecutor(db)

	_, err := e.Execute(context.Background(), types.OpDelete, types.EntityApartment,
		json.RawMessage(`{"street": "Baker St"}`))
	require.Error(t, err)
	assert.Equal(t, types.FaultPolicy, types.AsFault(err).Code)
	assert.Equal(t, 0, db.deleteCalls)
}

func TestDecodePayload(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    map[string]string
		wantErr bool
	}{
		{"strings pass through", `{"city": "Berlin"}`, map[string]string{"city": "Berlin"}, false},
		{"whole numbers lose the point", `{"rooms": 4}`, map[string]string{"rooms": "4"}, false},
		{"fractions keep it", `{"rent": 950.5}`, map[string]string{"rent": "950.5"}, false},
		{"bools stringified", `{"furnished": true}`, map[string]string{"furnished": "true"}, false},
		{"nulls and empties dropped", `{"a": null, "b": "", "c": "x"}`, map[string]string{"c": "x"}, false},
		{"nested objects rejected", `{"a": {"b": 1}}`, nil, true},
		{"arrays rejected", `{"a": [1]}`, nil, true},
		{"empty payload rejected", ``, nil, true},
		{"non-object rejected", `[1, 2]`, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodePayload(json.RawMessage(tt.payload))
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, types.FaultPolicy, types.AsFault(err).Code)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
