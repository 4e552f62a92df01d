package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePriority(t *testing.T) {
	active := IntentFlag{Active: true, EntityType: "person"}

	tests := []struct {
		name   string
		answer IntentAnswer
		want   OperationKind
	}{
		{"none active", IntentAnswer{}, OpNone},
		{"show only", IntentAnswer{Show: active}, OpShow},
		{"create beats show", IntentAnswer{Create: active, Show: active}, OpCreate},
		{"update beats create", IntentAnswer{Update: active, Create: active}, OpUpdate},
		{"delete beats everything", IntentAnswer{Delete: active, Update: active, Create: active, Show: active}, OpDelete},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, flag := tt.answer.Resolve()
			assert.Equal(t, tt.want, kind)
			if tt.want != OpNone {
				assert.True(t, flag.Active)
			}
		})
	}
}

func TestActiveCount(t *testing.T) {
	a := IntentAnswer{
		Create: IntentFlag{Active: true},
		Delete: IntentFlag{Active: true},
	}
	assert.Equal(t, 2, a.ActiveCount())
	assert.Equal(t, 0, IntentAnswer{}.ActiveCount())
}

func TestSetOperationID(t *testing.T) {
	var a IntentAnswer
	a.Create.Active = true
	a.SetOperationID(OpCreate, "op-123")
	assert.Equal(t, "op-123", a.Create.OperationID)
	assert.Empty(t, a.Delete.OperationID)
}

func TestParseEntityType(t *testing.T) {
	et, err := ParseEntityType("  Person ")
	require.NoError(t, err)
	assert.Equal(t, EntityPerson, et)

	_, err = ParseEntityType("spaceship")
	require.Error(t, err)
	f := AsFault(err)
	assert.Equal(t, FaultPolicy, f.Code)
}

func TestCollectionResultValidate(t *testing.T) {
	ok := CollectionResult{Ready: true, Data: json.RawMessage(`{"a":"b"}`), Comment: "done"}
	assert.NoError(t, ok.Validate())

	noComment := CollectionResult{Ready: false}
	assert.Error(t, noComment.Validate())

	readyNoData := CollectionResult{Ready: true, Comment: "done"}
	assert.Error(t, readyNoData.Validate())
}

func TestFaultClassification(t *testing.T) {
	assert.True(t, IsBackendFault(NewFault(FaultStorage, "disk on fire", nil)))
	assert.True(t, IsBackendFault(NewFault(FaultNotFound, "no such person", nil)))
	assert.False(t, IsBackendFault(NewFault(FaultNotImplemented, "nope", nil)))
	assert.False(t, IsBackendFault(NewFault(FaultPolicy, "bad entity", nil)))

	assert.True(t, IsTerminalFault(NewFault(FaultProvider, "timeout", nil)))
	assert.True(t, IsTerminalFault(NewFault(FaultDecode, "garbage", nil)))
	assert.False(t, IsTerminalFault(NewFault(FaultStorage, "disk", nil)))
}

func TestAsFaultWrapsUnknownErrors(t *testing.T) {
	f := AsFault(assert.AnError)
	assert.Equal(t, FaultStorage, f.Code)
}

func TestEnvelopeConstructors(t *testing.T) {
	text := TextEnvelope(SourceLLM, "test-model", "hello")
	assert.Equal(t, EnvelopeText, text.Type)
	assert.Equal(t, SourceLLM, text.AnswerSource)
	assert.Equal(t, "hello", text.Result.Message)

	data := DataEnvelope(SourceBackend, "test-model", "found", []Record{{ID: "1"}})
	assert.Equal(t, EnvelopeData, data.Type)
	assert.Len(t, data.Result.Payload, 1)

	errEnv := ErrorEnvelope("test-model", NewFault(FaultStorage, "boom", nil))
	assert.Equal(t, EnvelopeError, errEnv.Type)
	assert.Contains(t, errEnv.Result.Message, "boom")
}
