package graph

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rawPlan(parts ...string) []json.RawMessage {
	out := make([]json.RawMessage, len(parts))
	for i, p := range parts {
		out[i] = json.RawMessage(p)
	}
	return out
}

func TestDecodePlan_ValidOperations(t *testing.T) {
	ops, err := DecodePlan(rawPlan(
		`{"op":"add_node","node":{"id":"n1","type":"print","position":{"x":0,"y":0},"inputs":[{"id":"in","name":"in","kind":"execution"}],"outputs":[]}}`,
		`{"op":"add_connection","connection":{"fromNodeId":"a","fromPinId":"out","toNodeId":"n1","toPinId":"in","type":"execution"}}`,
		`{"op":"move_node","nodeId":"n1","position":{"x":120,"y":40}}`,
		`{"op":"update_node_data","nodeId":"n1","data":{"message":"hi"}}`,
		`{"op":"set_variable","variable":{"name":"total","kind":"number"}}`,
		`{"op":"remove_variable","name":"total"}`,
		`{"op":"add_comment","comment":{"id":"k","position":{"x":0,"y":0},"width":10,"height":10,"text":"x"}}`,
		`{"op":"remove_comment","commentId":"k"}`,
		`{"op":"set_viewport","viewport":{"x":0,"y":0,"zoom":1}}`,
		`{"op":"remove_connection","connectionId":"c1"}`,
		`{"op":"remove_node","nodeId":"n1"}`,
	))
	require.NoError(t, err)
	require.Len(t, ops, 11)
	assert.Equal(t, OpAddNode, ops[0].Name())
	assert.Equal(t, OpRemoveNode, ops[10].Name())
}

func TestDecodePlan_UnknownOp(t *testing.T) {
	_, err := DecodePlan(rawPlan(`{"op":"drop_table","nodeId":"n1"}`))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedPlan)
}

func TestDecodePlan_MissingOpField(t *testing.T) {
	_, err := DecodePlan(rawPlan(`{"nodeId":"n1"}`))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedPlan)
}

func TestDecodePlan_UnknownFieldRejected(t *testing.T) {
	// no best-effort parsing: a shape outside the grammar is refused whole
	_, err := DecodePlan(rawPlan(`{"op":"remove_node","nodeId":"n1","force":true}`))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedPlan)
}

func TestDecodePlan_MissingRequiredFields(t *testing.T) {
	cases := []string{
		`{"op":"remove_node"}`,
		`{"op":"remove_connection"}`,
		`{"op":"add_connection","connection":{"fromNodeId":"a","toNodeId":"b","type":"data"}}`,
		`{"op":"add_connection","connection":{"fromNodeId":"a","fromPinId":"p","toNodeId":"b","toPinId":"q","type":"wireless"}}`,
		`{"op":"set_variable","variable":{"name":"x","kind":"integer"}}`,
		`{"op":"add_node","node":{"id":"n1"}}`,
		`{"op":"move_node","position":{"x":1,"y":2}}`,
	}
	for _, c := range cases {
		_, err := DecodePlan(rawPlan(c))
		assert.ErrorIs(t, err, ErrMalformedPlan, "plan %s", c)
	}
}

func TestDecodePlan_NotAnObject(t *testing.T) {
	_, err := DecodePlan(rawPlan(`"remove_node"`))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedPlan)
}

func TestDecodePlan_EmptyPlanIsValid(t *testing.T) {
	ops, err := DecodePlan(nil)
	require.NoError(t, err)
	assert.Empty(t, ops)
}

func TestDecodeOp_RemoveVariableKeepsWireKey(t *testing.T) {
	op, err := DecodeOp(json.RawMessage(`{"op":"remove_variable","name":"count"}`))
	require.NoError(t, err)

	v, ok := op.(RemoveVariableOp)
	require.True(t, ok)
	assert.Equal(t, OpRemoveVariable, v.Name())
	assert.Equal(t, "count", v.VariableName)

	encoded, err := json.Marshal(v)
	require.NoError(t, err)
	assert.JSONEq(t, `{"op":"remove_variable","name":"count"}`, string(encoded))
}

func TestDecodeOp_RoundTripsThroughJSON(t *testing.T) {
	raw := json.RawMessage(`{"op":"update_node_data","nodeId":"n1","data":{"sql":"select 1"},"label":"query"}`)
	op, err := DecodeOp(raw)
	require.NoError(t, err)

	v, ok := op.(UpdateNodeDataOp)
	require.True(t, ok)
	assert.Equal(t, "n1", v.NodeID)
	require.NotNil(t, v.Label)
	assert.Equal(t, "query", *v.Label)
	assert.JSONEq(t, `{"sql":"select 1"}`, string(v.Data))

	encoded, err := json.Marshal(v)
	require.NoError(t, err)
	again, err := DecodeOp(encoded)
	require.NoError(t, err)
	assert.Equal(t, v, again)
}
