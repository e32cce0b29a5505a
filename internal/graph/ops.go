package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Op is one primitive document edit. Batches of ops are the only way a
// document changes, whether they come from the UI or from the assistant —
// both go through the exact same decoding and the exact same gate.
type Op interface {
	Name() string
}

const (
	OpAddNode          = "add_node"
	OpRemoveNode       = "remove_node"
	OpAddConnection    = "add_connection"
	OpRemoveConnection = "remove_connection"
	OpUpdateNodeData   = "update_node_data"
	OpMoveNode         = "move_node"
	OpSetVariable      = "set_variable"
	OpRemoveVariable   = "remove_variable"
	OpAddComment       = "add_comment"
	OpRemoveComment    = "remove_comment"
	OpSetViewport      = "set_viewport"
)

type AddNodeOp struct {
	Op   string `json:"op"`
	Node Node   `json:"node"`
}

type RemoveNodeOp struct {
	Op     string `json:"op"`
	NodeID string `json:"nodeId"`
}

type AddConnectionOp struct {
	Op         string     `json:"op"`
	Connection Connection `json:"connection"`
}

type RemoveConnectionOp struct {
	Op           string `json:"op"`
	ConnectionID string `json:"connectionId"`
}

type UpdateNodeDataOp struct {
	Op     string   `json:"op"`
	NodeID string   `json:"nodeId"`
	Data   NodeData `json:"data"`
	Label  *string  `json:"label,omitempty"`
}

type MoveNodeOp struct {
	Op       string   `json:"op"`
	NodeID   string   `json:"nodeId"`
	Position Position `json:"position"`
}

type SetVariableOp struct {
	Op       string   `json:"op"`
	Variable Variable `json:"variable"`
}

type RemoveVariableOp struct {
	Op           string `json:"op"`
	VariableName string `json:"name"`
}

type AddCommentOp struct {
	Op      string     `json:"op"`
	Comment CommentBox `json:"comment"`
}

type RemoveCommentOp struct {
	Op        string `json:"op"`
	CommentID string `json:"commentId"`
}

type SetViewportOp struct {
	Op       string   `json:"op"`
	Viewport Viewport `json:"viewport"`
}

func (o AddNodeOp) Name() string          { return OpAddNode }
func (o RemoveNodeOp) Name() string       { return OpRemoveNode }
func (o AddConnectionOp) Name() string    { return OpAddConnection }
func (o RemoveConnectionOp) Name() string { return OpRemoveConnection }
func (o UpdateNodeDataOp) Name() string   { return OpUpdateNodeData }
func (o MoveNodeOp) Name() string         { return OpMoveNode }
func (o SetVariableOp) Name() string      { return OpSetVariable }
func (o RemoveVariableOp) Name() string   { return OpRemoveVariable }
func (o AddCommentOp) Name() string       { return OpAddComment }
func (o RemoveCommentOp) Name() string    { return OpRemoveComment }
func (o SetViewportOp) Name() string      { return OpSetViewport }

// DecodeOp parses one raw operation strictly: unknown op names, unknown
// fields and missing required fields are all rejected. There is no
// best-effort interpretation — a shape the grammar does not recognize
// must never reach the mutation engine.
func DecodeOp(raw json.RawMessage) (Op, error) {
	var envelope struct {
		Op string `json:"op"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, &PlanError{Msg: fmt.Sprintf("operation is not an object: %v", err)}
	}

	var op Op
	var err error
	switch envelope.Op {
	case OpAddNode:
		v := AddNodeOp{}
		if err = strictUnmarshal(raw, &v); err == nil {
			if v.Node.Type == "" {
				err = &PlanError{Msg: "add_node: node.type is required"}
			}
		}
		op = v
	case OpRemoveNode:
		v := RemoveNodeOp{}
		if err = strictUnmarshal(raw, &v); err == nil && v.NodeID == "" {
			err = &PlanError{Msg: "remove_node: nodeId is required"}
		}
		op = v
	case OpAddConnection:
		v := AddConnectionOp{}
		if err = strictUnmarshal(raw, &v); err == nil {
			c := v.Connection
			switch {
			case c.FromNode == "" || c.FromPin == "" || c.ToNode == "" || c.ToPin == "":
				err = &PlanError{Msg: "add_connection: all four endpoint references are required"}
			case c.Type != ConnectionExecution && c.Type != ConnectionData:
				err = &PlanError{Msg: fmt.Sprintf("add_connection: unknown connection type %q", c.Type)}
			}
		}
		op = v
	case OpRemoveConnection:
		v := RemoveConnectionOp{}
		if err = strictUnmarshal(raw, &v); err == nil && v.ConnectionID == "" {
			err = &PlanError{Msg: "remove_connection: connectionId is required"}
		}
		op = v
	case OpUpdateNodeData:
		v := UpdateNodeDataOp{}
		if err = strictUnmarshal(raw, &v); err == nil && v.NodeID == "" {
			err = &PlanError{Msg: "update_node_data: nodeId is required"}
		}
		op = v
	case OpMoveNode:
		v := MoveNodeOp{}
		if err = strictUnmarshal(raw, &v); err == nil && v.NodeID == "" {
			err = &PlanError{Msg: "move_node: nodeId is required"}
		}
		op = v
	case OpSetVariable:
		v := SetVariableOp{}
		if err = strictUnmarshal(raw, &v); err == nil {
			switch {
			case v.Variable.Name == "":
				err = &PlanError{Msg: "set_variable: variable.name is required"}
			case !IsValidKind(v.Variable.Kind):
				err = &PlanError{Msg: fmt.Sprintf("set_variable: unknown kind %q", v.Variable.Kind)}
			}
		}
		op = v
	case OpRemoveVariable:
		v := RemoveVariableOp{}
		if err = strictUnmarshal(raw, &v); err == nil && v.VariableName == "" {
			err = &PlanError{Msg: "remove_variable: name is required"}
		}
		op = v
	case OpAddComment:
		v := AddCommentOp{}
		err = strictUnmarshal(raw, &v)
		op = v
	case OpRemoveComment:
		v := RemoveCommentOp{}
		if err = strictUnmarshal(raw, &v); err == nil && v.CommentID == "" {
			err = &PlanError{Msg: "remove_comment: commentId is required"}
		}
		op = v
	case OpSetViewport:
		v := SetViewportOp{}
		err = strictUnmarshal(raw, &v)
		op = v
	case "":
		return nil, &PlanError{Msg: "operation is missing the op field"}
	default:
		return nil, &PlanError{Msg: fmt.Sprintf("unknown operation %q", envelope.Op)}
	}

	if err != nil {
		return nil, err
	}
	return op, nil
}

// DecodePlan parses an ordered operation list. The list may legitimately
// be empty (the assistant answered a question without editing anything).
func DecodePlan(raw []json.RawMessage) ([]Op, error) {
	ops := make([]Op, 0, len(raw))
	for i, r := range raw {
		op, err := DecodeOp(r)
		if err != nil {
			return nil, &PlanError{Msg: fmt.Sprintf("operation %d: %v", i, err)}
		}
		ops = append(ops, op)
	}
	return ops, nil
}

func strictUnmarshal(raw json.RawMessage, out any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return &PlanError{Msg: err.Error()}
	}
	return nil
}
