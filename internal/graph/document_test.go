package graph

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fullDocument() *Document {
	doc := NewDocument()
	doc.Nodes = []Node{
		{
			ID: "start", Type: "event", Label: "On Start",
			Position: Position{X: 0, Y: 0},
			Inputs:   []Pin{},
			Outputs:  []Pin{{ID: "out", Name: "out", Kind: KindExecution}},
		},
		{
			ID: "print", Type: "print", Position: Position{X: 240, Y: 0},
			Data: NodeData(`{"prefix":"log: "}`),
			Inputs: []Pin{
				{ID: "in", Name: "in", Kind: KindExecution},
				{ID: "message", Name: "message", Kind: KindString, Required: true, DefaultValue: NodeData(`"hello"`)},
			},
			Outputs:   []Pin{{ID: "out", Name: "out", Kind: KindExecution}},
			Width:     180,
			Collapsed: true,
		},
	}
	doc.Connections = []Connection{
		{ID: "c1", FromNode: "start", FromPin: "out", ToNode: "print", ToPin: "in", Type: ConnectionExecution},
	}
	doc.Variables = []Variable{{Name: "greeting", Kind: KindString, DefaultValue: NodeData(`"hi"`)}}
	doc.Comments = []CommentBox{{ID: "k1", Position: Position{X: -40, Y: -40}, Width: 400, Height: 200, Text: "entry", Color: "#ffcc00", NodeIDs: []string{"start", "print"}}}
	doc.Viewport = &Viewport{X: 12, Y: -8, Zoom: 0.75}
	return doc
}

func TestDocument_JSONRoundTrip(t *testing.T) {
	doc := fullDocument()
	require.False(t, Validate(doc).HasErrors())

	data, err := json.Marshal(doc)
	require.NoError(t, err)

	var back Document
	require.NoError(t, json.Unmarshal(data, &back))

	assert.Equal(t, doc, &back)

	// the opaque data payload survives byte-for-byte
	assert.JSONEq(t, `{"prefix":"log: "}`, string(back.FindNode("print").Data))
}

func TestDocument_WireFormatTopLevelFields(t *testing.T) {
	data, err := json.Marshal(fullDocument())
	require.NoError(t, err)

	var fields map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &fields))

	for _, key := range []string{"nodes", "connections", "variables", "comments", "viewport"} {
		assert.Contains(t, fields, key)
	}
	assert.Len(t, fields, 5)
}

func TestDocument_EmptyDocumentKeepsArrays(t *testing.T) {
	data, err := json.Marshal(NewDocument())
	require.NoError(t, err)
	assert.JSONEq(t, `{"nodes":[],"connections":[],"variables":[],"comments":[]}`, string(data))
}

func TestDocument_CloneIsDeep(t *testing.T) {
	doc := fullDocument()
	clone := doc.Clone()
	require.Equal(t, doc, clone)

	clone.FindNode("print").Data = NodeData(`{"prefix":"changed"}`)
	clone.Connections[0].ToPin = "elsewhere"
	clone.Variables[0].Name = "other"
	clone.Comments[0].NodeIDs[0] = "mutated"
	clone.Viewport.Zoom = 99

	assert.JSONEq(t, `{"prefix":"log: "}`, string(doc.FindNode("print").Data))
	assert.Equal(t, "in", doc.Connections[0].ToPin)
	assert.Equal(t, "greeting", doc.Variables[0].Name)
	assert.Equal(t, "start", doc.Comments[0].NodeIDs[0])
	assert.Equal(t, 0.75, doc.Viewport.Zoom)
}

func TestNodeData_NullHandling(t *testing.T) {
	var n NodeData
	data, err := json.Marshal(n)
	require.NoError(t, err)
	assert.Equal(t, "null", string(data))

	require.NoError(t, json.Unmarshal([]byte(`{"a":1}`), &n))
	assert.JSONEq(t, `{"a":1}`, string(n))
}
