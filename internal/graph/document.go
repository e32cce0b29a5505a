package graph

// Position is a 2D canvas coordinate.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Pin is a typed input or output slot on a node. Pin IDs are unique within
// their owning node; names are unique within each direction.
type Pin struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Kind         PinKind  `json:"kind"`
	DefaultValue NodeData `json:"defaultValue,omitempty"`
	Required     bool     `json:"required,omitempty"`
}

// Node is a typed block on the canvas. Its Type identifies the semantic
// role and is not interpreted here; Data is the opaque per-type payload.
// Errors and Warnings are derived, recomputed by Annotate on validation.
type Node struct {
	ID        string   `json:"id"`
	Type      string   `json:"type"`
	Label     string   `json:"label,omitempty"`
	Position  Position `json:"position"`
	Data      NodeData `json:"data,omitempty"`
	Inputs    []Pin    `json:"inputs"`
	Outputs   []Pin    `json:"outputs"`
	Width     float64  `json:"width,omitempty"`
	Height    float64  `json:"height,omitempty"`
	Collapsed bool     `json:"collapsed,omitempty"`
	Errors    []string `json:"errors,omitempty"`
	Warnings  []string `json:"warnings,omitempty"`
}

// ConnectionType tags an edge as control flow or data flow.
type ConnectionType string

const (
	ConnectionExecution ConnectionType = "execution"
	ConnectionData      ConnectionType = "data"
)

// Connection is a directed edge from an output pin to an input pin. It
// references its endpoints by id pair and does not own them; a connection
// whose endpoint disappeared is surfaced by Validate, never silently kept.
type Connection struct {
	ID       string         `json:"id"`
	FromNode string         `json:"fromNodeId"`
	FromPin  string         `json:"fromPinId"`
	ToNode   string         `json:"toNodeId"`
	ToPin    string         `json:"toPinId"`
	Type     ConnectionType `json:"type"`
}

// Variable is a document-scoped named slot, referenced by name from node
// data payloads.
type Variable struct {
	Name         string   `json:"name"`
	Kind         PinKind  `json:"kind"`
	DefaultValue NodeData `json:"defaultValue,omitempty"`
}

// CommentBox is a purely annotative region with no graph semantics.
type CommentBox struct {
	ID       string   `json:"id"`
	Position Position `json:"position"`
	Width    float64  `json:"width"`
	Height   float64  `json:"height"`
	Text     string   `json:"text"`
	Color    string   `json:"color,omitempty"`
	NodeIDs  []string `json:"nodeIds,omitempty"`
}

// Viewport is pan/zoom state. Cosmetic only, never validated.
type Viewport struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Zoom float64 `json:"zoom"`
}

// Document is the aggregate root of a flowchart. Identity of the document
// itself (name, owner, stored id) lives in the persistence layer, not here.
type Document struct {
	Nodes       []Node       `json:"nodes"`
	Connections []Connection `json:"connections"`
	Variables   []Variable   `json:"variables"`
	Comments    []CommentBox `json:"comments"`
	Viewport    *Viewport    `json:"viewport,omitempty"`
}

// NewDocument returns an empty document with non-nil collections so the
// wire format always carries the four arrays.
func NewDocument() *Document {
	return &Document{
		Nodes:       []Node{},
		Connections: []Connection{},
		Variables:   []Variable{},
		Comments:    []CommentBox{},
	}
}

// Clone returns a deep copy. Committed versions are immutable; every
// mutation batch works against a clone and the original is never touched.
func (d *Document) Clone() *Document {
	out := &Document{
		Nodes:       make([]Node, len(d.Nodes)),
		Connections: make([]Connection, len(d.Connections)),
		Variables:   make([]Variable, len(d.Variables)),
		Comments:    make([]CommentBox, len(d.Comments)),
	}
	for i, n := range d.Nodes {
		out.Nodes[i] = n.clone()
	}
	copy(out.Connections, d.Connections)
	for i, v := range d.Variables {
		out.Variables[i] = v
		out.Variables[i].DefaultValue = v.DefaultValue.Clone()
	}
	for i, c := range d.Comments {
		out.Comments[i] = c
		out.Comments[i].NodeIDs = append([]string(nil), c.NodeIDs...)
	}
	if d.Viewport != nil {
		vp := *d.Viewport
		out.Viewport = &vp
	}
	return out
}

func (n Node) clone() Node {
	out := n
	out.Data = n.Data.Clone()
	out.Inputs = clonePins(n.Inputs)
	out.Outputs = clonePins(n.Outputs)
	out.Errors = append([]string(nil), n.Errors...)
	out.Warnings = append([]string(nil), n.Warnings...)
	return out
}

func clonePins(pins []Pin) []Pin {
	out := make([]Pin, len(pins))
	for i, p := range pins {
		out[i] = p
		out[i].DefaultValue = p.DefaultValue.Clone()
	}
	return out
}

// FindNode returns the node with the given id, or nil.
func (d *Document) FindNode(id string) *Node {
	for i := range d.Nodes {
		if d.Nodes[i].ID == id {
			return &d.Nodes[i]
		}
	}
	return nil
}

// FindConnection returns the connection with the given id, or nil.
func (d *Document) FindConnection(id string) *Connection {
	for i := range d.Connections {
		if d.Connections[i].ID == id {
			return &d.Connections[i]
		}
	}
	return nil
}

// FindVariable returns the variable with the given name, or nil.
func (d *Document) FindVariable(name string) *Variable {
	for i := range d.Variables {
		if d.Variables[i].Name == name {
			return &d.Variables[i]
		}
	}
	return nil
}

// FindComment returns the comment box with the given id, or nil.
func (d *Document) FindComment(id string) *CommentBox {
	for i := range d.Comments {
		if d.Comments[i].ID == id {
			return &d.Comments[i]
		}
	}
	return nil
}

// InputPin returns the input pin with the given id, or nil.
func (n *Node) InputPin(id string) *Pin {
	for i := range n.Inputs {
		if n.Inputs[i].ID == id {
			return &n.Inputs[i]
		}
	}
	return nil
}

// OutputPin returns the output pin with the given id, or nil.
func (n *Node) OutputPin(id string) *Pin {
	for i := range n.Outputs {
		if n.Outputs[i].ID == id {
			return &n.Outputs[i]
		}
	}
	return nil
}
