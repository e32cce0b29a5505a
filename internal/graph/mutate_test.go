package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// wiredPair returns a document with nodes "a" and "b" joined by an
// execution connection c-exec, plus compatible data pins left unwired.
func wiredPair() *Document {
	doc := NewDocument()
	doc.Nodes = []Node{
		testNode("a", KindString, KindString),
		testNode("b", KindString, KindString),
	}
	doc.Connections = []Connection{
		{ID: "c-exec", FromNode: "a", FromPin: "out", ToNode: "b", ToPin: "in", Type: ConnectionExecution},
	}
	return doc
}

func TestApply_AddNode(t *testing.T) {
	doc := NewDocument()

	next, applied, report, err := Apply(doc, []Op{
		AddNodeOp{Op: OpAddNode, Node: testNode("a", KindString, KindString)},
	})
	require.NoError(t, err)
	assert.False(t, report.HasErrors())
	assert.Len(t, applied, 1)
	assert.NotNil(t, next.FindNode("a"))

	// original untouched
	assert.Nil(t, doc.FindNode("a"))
}

func TestApply_AddNode_GeneratesID(t *testing.T) {
	doc := NewDocument()
	node := testNode("", KindString, KindString)

	next, applied, _, err := Apply(doc, []Op{AddNodeOp{Op: OpAddNode, Node: node}})
	require.NoError(t, err)
	require.Len(t, next.Nodes, 1)
	assert.NotEmpty(t, next.Nodes[0].ID)

	got, ok := applied[0].(AddNodeOp)
	require.True(t, ok)
	assert.Equal(t, next.Nodes[0].ID, got.Node.ID, "audit log carries the generated id")
}

func TestApply_AddNode_DuplicateID(t *testing.T) {
	doc := wiredPair()

	_, _, _, err := Apply(doc, []Op{
		AddNodeOp{Op: OpAddNode, Node: testNode("a", KindString, KindString)},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicateID)
}

func TestApply_TypeMismatchFailsBatch(t *testing.T) {
	// Example: A.result is a number, B.value is a string
	doc := NewDocument()
	doc.Nodes = []Node{
		testNode("A", KindString, KindNumber),
		testNode("B", KindString, KindString),
	}

	_, _, _, err := Apply(doc, []Op{
		AddConnectionOp{Op: OpAddConnection, Connection: Connection{
			FromNode: "A", FromPin: "result", ToNode: "B", ToPin: "value", Type: ConnectionData,
		}},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTypeMismatch)
}

func TestApply_FanInViolationKeepsExisting(t *testing.T) {
	doc := NewDocument()
	doc.Nodes = []Node{
		testNode("a", KindString, KindString),
		testNode("b", KindString, KindString),
		testNode("c", KindString, KindString),
	}
	doc.Connections = []Connection{
		{ID: "c1", FromNode: "a", FromPin: "result", ToNode: "c", ToPin: "value", Type: ConnectionData},
	}

	next, _, _, err := Apply(doc, []Op{
		AddConnectionOp{Op: OpAddConnection, Connection: Connection{
			ID: "c2", FromNode: "b", FromPin: "result", ToNode: "c", ToPin: "value", Type: ConnectionData,
		}},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFanInViolation)

	// the rejected batch returns the untouched original
	assert.Same(t, doc, next)
	require.Len(t, next.Connections, 1)
	assert.Equal(t, "c1", next.Connections[0].ID)
}

func TestApply_InvalidReference(t *testing.T) {
	doc := wiredPair()

	_, _, _, err := Apply(doc, []Op{
		AddConnectionOp{Op: OpAddConnection, Connection: Connection{
			FromNode: "ghost", FromPin: "out", ToNode: "b", ToPin: "in", Type: ConnectionExecution,
		}},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidReference)
}

func TestApply_RemoveNodeCascades(t *testing.T) {
	// Example: removing A drops its execution connection to B as well
	doc := wiredPair()

	next, applied, report, err := Apply(doc, []Op{
		RemoveNodeOp{Op: OpRemoveNode, NodeID: "a"},
	})
	require.NoError(t, err)

	assert.Nil(t, next.FindNode("a"))
	assert.Empty(t, next.Connections, "no dangling connection survives a committed mutation")
	for _, f := range report.Findings {
		assert.NotEqual(t, "a", f.NodeID, "no finding references the removed node")
	}

	// expanded audit log: remove_connection first, then remove_node
	require.Len(t, applied, 2)
	assert.Equal(t, OpRemoveConnection, applied[0].Name())
	assert.Equal(t, OpRemoveNode, applied[1].Name())

	// original untouched
	assert.NotNil(t, doc.FindNode("a"))
	assert.Len(t, doc.Connections, 1)
}

func TestApply_BatchIsAtomic(t *testing.T) {
	doc := wiredPair()
	before := doc.Clone()

	// first op is fine, second fails its precondition: nothing is kept
	_, _, _, err := Apply(doc, []Op{
		MoveNodeOp{Op: OpMoveNode, NodeID: "a", Position: Position{X: 100, Y: 100}},
		RemoveConnectionOp{Op: OpRemoveConnection, ConnectionID: "ghost"},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidReference)
	assert.Equal(t, before, doc)
}

func TestApply_ValidationRejectedReturnsOriginal(t *testing.T) {
	doc := wiredPair()
	before := doc.Clone()

	// Adding a node that duplicates a pin id inside itself passes the
	// primitive precondition but fails validation.
	bad := testNode("z", KindString, KindString)
	bad.Inputs = append(bad.Inputs, Pin{ID: "in", Name: "in2", Kind: KindExecution})

	next, _, report, err := Apply(doc, []Op{AddNodeOp{Op: OpAddNode, Node: bad}})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidationRejected)
	assert.True(t, report.HasErrors())
	assert.Same(t, doc, next)
	assert.Equal(t, before, doc)
}

func TestApply_WarningsDoNotBlockCommit(t *testing.T) {
	doc := wiredPair()

	// close the loop: b -> a creates an execution cycle, which is a warning
	next, _, report, err := Apply(doc, []Op{
		AddConnectionOp{Op: OpAddConnection, Connection: Connection{
			ID: "c-back", FromNode: "b", FromPin: "out", ToNode: "a", ToPin: "in", Type: ConnectionExecution,
		}},
	})
	require.NoError(t, err)
	assert.False(t, report.HasErrors())
	assert.Contains(t, findingCodes(report), "execution_cycle")
	assert.Len(t, next.Connections, 2)
}

func TestApply_UpdateNodeDataAndMove(t *testing.T) {
	doc := wiredPair()
	label := "renamed"

	next, _, _, err := Apply(doc, []Op{
		UpdateNodeDataOp{Op: OpUpdateNodeData, NodeID: "a", Data: NodeData(`{"message":"hello"}`), Label: &label},
		MoveNodeOp{Op: OpMoveNode, NodeID: "a", Position: Position{X: 10, Y: -5}},
	})
	require.NoError(t, err)

	a := next.FindNode("a")
	require.NotNil(t, a)
	assert.Equal(t, "renamed", a.Label)
	assert.JSONEq(t, `{"message":"hello"}`, string(a.Data))
	assert.Equal(t, Position{X: 10, Y: -5}, a.Position)
}

func TestApply_VariablesAndComments(t *testing.T) {
	doc := NewDocument()

	next, _, _, err := Apply(doc, []Op{
		SetVariableOp{Op: OpSetVariable, Variable: Variable{Name: "count", Kind: KindNumber, DefaultValue: NodeData(`0`)}},
		SetVariableOp{Op: OpSetVariable, Variable: Variable{Name: "count", Kind: KindNumber, DefaultValue: NodeData(`42`)}},
		AddCommentOp{Op: OpAddComment, Comment: CommentBox{ID: "note", Text: "todo section", Width: 200, Height: 80}},
		SetViewportOp{Op: OpSetViewport, Viewport: Viewport{X: 5, Y: 5, Zoom: 1.5}},
	})
	require.NoError(t, err)

	require.Len(t, next.Variables, 1, "set_variable upserts by name")
	assert.JSONEq(t, `42`, string(next.Variables[0].DefaultValue))
	assert.NotNil(t, next.FindComment("note"))
	require.NotNil(t, next.Viewport)
	assert.Equal(t, 1.5, next.Viewport.Zoom)

	next2, _, _, err := Apply(next, []Op{
		RemoveVariableOp{Op: OpRemoveVariable, VariableName: "count"},
		RemoveCommentOp{Op: OpRemoveComment, CommentID: "note"},
	})
	require.NoError(t, err)
	assert.Empty(t, next2.Variables)
	assert.Empty(t, next2.Comments)
}

func TestApply_EmptyBatchCommits(t *testing.T) {
	doc := wiredPair()
	next, applied, report, err := Apply(doc, nil)
	require.NoError(t, err)
	assert.Empty(t, applied)
	assert.False(t, report.HasErrors())
	assert.NotSame(t, doc, next)
	assert.Equal(t, doc.Connections, next.Connections)
}
