package graph

import (
	"fmt"

	"github.com/google/uuid"
)

// Apply runs an ordered mutation batch against a working copy of doc and
// returns the new document version. The original document is never touched:
// on any failure (precondition or error-level validation finding) the
// caller keeps exactly what it had.
//
// The returned op list is the expanded audit log of what was actually
// applied — cascading removals are made explicit there, so replaying the
// list against the old version reproduces the new one. The report carries
// every finding of the final validation pass (warnings survive a commit).
func Apply(doc *Document, ops []Op) (*Document, []Op, Report, error) {
	working := doc.Clone()
	applied := make([]Op, 0, len(ops))

	for i, op := range ops {
		expanded, err := applyOne(working, i, op)
		if err != nil {
			return doc, nil, Report{}, err
		}
		applied = append(applied, expanded...)
	}

	report := Validate(working)
	if report.HasErrors() {
		return doc, nil, report, fmt.Errorf("%w: batch produced %d error finding(s)", ErrValidationRejected, len(report.Findings))
	}

	Annotate(working, report)
	return working, applied, report, nil
}

// applyOne applies a single primitive op, returning the ops actually
// performed (more than one when a node removal cascades).
func applyOne(d *Document, index int, op Op) ([]Op, error) {
	switch v := op.(type) {
	case AddNodeOp:
		return addNode(d, index, v)
	case RemoveNodeOp:
		return removeNode(d, index, v)
	case AddConnectionOp:
		return addConnection(d, index, v)
	case RemoveConnectionOp:
		return removeConnection(d, index, v)
	case UpdateNodeDataOp:
		return updateNodeData(d, index, v)
	case MoveNodeOp:
		return moveNode(d, index, v)
	case SetVariableOp:
		return setVariable(d, v)
	case RemoveVariableOp:
		return removeVariable(d, index, v)
	case AddCommentOp:
		return addComment(d, index, v)
	case RemoveCommentOp:
		return removeComment(d, index, v)
	case SetViewportOp:
		vp := v.Viewport
		d.Viewport = &vp
		return []Op{v}, nil
	default:
		return nil, &OpError{Index: index, Op: op.Name(), Msg: "unhandled operation", Err: ErrMalformedPlan}
	}
}

func addNode(d *Document, index int, v AddNodeOp) ([]Op, error) {
	node := v.Node.clone()
	if node.ID == "" {
		node.ID = uuid.New().String()
	}
	if d.FindNode(node.ID) != nil {
		return nil, &OpError{Index: index, Op: OpAddNode,
			Msg: fmt.Sprintf("node %q already exists", node.ID), Err: ErrDuplicateID}
	}
	if node.Inputs == nil {
		node.Inputs = []Pin{}
	}
	if node.Outputs == nil {
		node.Outputs = []Pin{}
	}
	node.Errors = nil
	node.Warnings = nil
	d.Nodes = append(d.Nodes, node)
	v.Node = node
	return []Op{v}, nil
}

// removeNode expands into explicit removals of every incident connection
// followed by the node removal itself, keeping the audit log replayable.
func removeNode(d *Document, index int, v RemoveNodeOp) ([]Op, error) {
	if d.FindNode(v.NodeID) == nil {
		return nil, &OpError{Index: index, Op: OpRemoveNode,
			Msg: fmt.Sprintf("node %q does not exist", v.NodeID), Err: ErrInvalidReference}
	}

	var applied []Op
	kept := d.Connections[:0]
	for _, c := range d.Connections {
		if c.FromNode == v.NodeID || c.ToNode == v.NodeID {
			applied = append(applied, RemoveConnectionOp{Op: OpRemoveConnection, ConnectionID: c.ID})
			continue
		}
		kept = append(kept, c)
	}
	d.Connections = kept

	for i := range d.Nodes {
		if d.Nodes[i].ID == v.NodeID {
			d.Nodes = append(d.Nodes[:i], d.Nodes[i+1:]...)
			break
		}
	}
	return append(applied, v), nil
}

func addConnection(d *Document, index int, v AddConnectionOp) ([]Op, error) {
	c := v.Connection
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if d.FindConnection(c.ID) != nil {
		return nil, &OpError{Index: index, Op: OpAddConnection,
			Msg: fmt.Sprintf("connection %q already exists", c.ID), Err: ErrDuplicateID}
	}

	from := d.FindNode(c.FromNode)
	if from == nil {
		return nil, &OpError{Index: index, Op: OpAddConnection,
			Msg: fmt.Sprintf("node %q does not exist", c.FromNode), Err: ErrInvalidReference}
	}
	to := d.FindNode(c.ToNode)
	if to == nil {
		return nil, &OpError{Index: index, Op: OpAddConnection,
			Msg: fmt.Sprintf("node %q does not exist", c.ToNode), Err: ErrInvalidReference}
	}
	out := from.OutputPin(c.FromPin)
	if out == nil {
		return nil, &OpError{Index: index, Op: OpAddConnection,
			Msg: fmt.Sprintf("node %q has no output pin %q", c.FromNode, c.FromPin), Err: ErrInvalidReference}
	}
	in := to.InputPin(c.ToPin)
	if in == nil {
		return nil, &OpError{Index: index, Op: OpAddConnection,
			Msg: fmt.Sprintf("node %q has no input pin %q", c.ToNode, c.ToPin), Err: ErrInvalidReference}
	}

	switch c.Type {
	case ConnectionExecution:
		if out.Kind != KindExecution || in.Kind != KindExecution {
			return nil, &OpError{Index: index, Op: OpAddConnection,
				Msg: fmt.Sprintf("execution connection requires execution pins, got %s -> %s", out.Kind, in.Kind),
				Err: ErrTypeMismatch}
		}
	case ConnectionData:
		if out.Kind == KindExecution || in.Kind == KindExecution {
			return nil, &OpError{Index: index, Op: OpAddConnection,
				Msg: "data connection may not join execution pins", Err: ErrTypeMismatch}
		}
		if !Compatible(out.Kind, in.Kind) {
			return nil, &OpError{Index: index, Op: OpAddConnection,
				Msg: fmt.Sprintf("%s output is not compatible with %s input", out.Kind, in.Kind),
				Err: ErrTypeMismatch}
		}
		for _, existing := range d.Connections {
			if existing.Type == ConnectionData && existing.ToNode == c.ToNode && existing.ToPin == c.ToPin {
				return nil, &OpError{Index: index, Op: OpAddConnection,
					Msg: fmt.Sprintf("input pin %q on node %q already has an incoming data connection", c.ToPin, c.ToNode),
					Err: ErrFanInViolation}
			}
		}
	default:
		return nil, &OpError{Index: index, Op: OpAddConnection,
			Msg: fmt.Sprintf("unknown connection type %q", c.Type), Err: ErrMalformedPlan}
	}

	d.Connections = append(d.Connections, c)
	v.Connection = c
	return []Op{v}, nil
}

func removeConnection(d *Document, index int, v RemoveConnectionOp) ([]Op, error) {
	for i := range d.Connections {
		if d.Connections[i].ID == v.ConnectionID {
			d.Connections = append(d.Connections[:i], d.Connections[i+1:]...)
			return []Op{v}, nil
		}
	}
	return nil, &OpError{Index: index, Op: OpRemoveConnection,
		Msg: fmt.Sprintf("connection %q does not exist", v.ConnectionID), Err: ErrInvalidReference}
}

func updateNodeData(d *Document, index int, v UpdateNodeDataOp) ([]Op, error) {
	node := d.FindNode(v.NodeID)
	if node == nil {
		return nil, &OpError{Index: index, Op: OpUpdateNodeData,
			Msg: fmt.Sprintf("node %q does not exist", v.NodeID), Err: ErrInvalidReference}
	}
	if v.Data != nil {
		node.Data = v.Data.Clone()
	}
	if v.Label != nil {
		node.Label = *v.Label
	}
	return []Op{v}, nil
}

func moveNode(d *Document, index int, v MoveNodeOp) ([]Op, error) {
	node := d.FindNode(v.NodeID)
	if node == nil {
		return nil, &OpError{Index: index, Op: OpMoveNode,
			Msg: fmt.Sprintf("node %q does not exist", v.NodeID), Err: ErrInvalidReference}
	}
	node.Position = v.Position
	return []Op{v}, nil
}

func setVariable(d *Document, v SetVariableOp) ([]Op, error) {
	if existing := d.FindVariable(v.Variable.Name); existing != nil {
		*existing = v.Variable
	} else {
		d.Variables = append(d.Variables, v.Variable)
	}
	return []Op{v}, nil
}

func removeVariable(d *Document, index int, v RemoveVariableOp) ([]Op, error) {
	for i := range d.Variables {
		if d.Variables[i].Name == v.VariableName {
			d.Variables = append(d.Variables[:i], d.Variables[i+1:]...)
			return []Op{v}, nil
		}
	}
	return nil, &OpError{Index: index, Op: OpRemoveVariable,
		Msg: fmt.Sprintf("variable %q does not exist", v.VariableName), Err: ErrInvalidReference}
}

func addComment(d *Document, index int, v AddCommentOp) ([]Op, error) {
	comment := v.Comment
	if comment.ID == "" {
		comment.ID = uuid.New().String()
	}
	if d.FindComment(comment.ID) != nil {
		return nil, &OpError{Index: index, Op: OpAddComment,
			Msg: fmt.Sprintf("comment %q already exists", comment.ID), Err: ErrDuplicateID}
	}
	d.Comments = append(d.Comments, comment)
	v.Comment = comment
	return []Op{v}, nil
}

func removeComment(d *Document, index int, v RemoveCommentOp) ([]Op, error) {
	for i := range d.Comments {
		if d.Comments[i].ID == v.CommentID {
			d.Comments = append(d.Comments[:i], d.Comments[i+1:]...)
			return []Op{v}, nil
		}
	}
	return nil, &OpError{Index: index, Op: OpRemoveComment,
		Msg: fmt.Sprintf("comment %q does not exist", v.CommentID), Err: ErrInvalidReference}
}
