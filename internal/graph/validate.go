package graph

import "fmt"

// Severity classifies a finding. Error-level findings block persistence;
// warnings are surfaced but do not reject the document.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Finding is a single integrity violation or suspicion, attached to the
// offending node and/or connection so the UI can highlight it.
type Finding struct {
	Severity     Severity `json:"severity"`
	Code         string   `json:"code"`
	NodeID       string   `json:"nodeId,omitempty"`
	ConnectionID string   `json:"connectionId,omitempty"`
	Message      string   `json:"message"`
}

// Report is the full validation result for one document.
type Report struct {
	Findings []Finding `json:"findings"`
}

// HasErrors reports whether any finding is error-level.
func (r Report) HasErrors() bool {
	for _, f := range r.Findings {
		if f.Severity == SeverityError {
			return true
		}
	}
	return false
}

func (r *Report) addError(code, nodeID, connID, msg string) {
	r.Findings = append(r.Findings, Finding{
		Severity: SeverityError, Code: code, NodeID: nodeID, ConnectionID: connID, Message: msg,
	})
}

func (r *Report) addWarning(code, nodeID, connID, msg string) {
	r.Findings = append(r.Findings, Finding{
		Severity: SeverityWarning, Code: code, NodeID: nodeID, ConnectionID: connID, Message: msg,
	})
}

// Validate runs every integrity check over the document and returns the
// full report. It is pure and deterministic: the same document always
// yields the same findings in the same order, which the mutation engine
// relies on for its all-or-nothing commit decision.
func Validate(d *Document) Report {
	var report Report

	nodes := indexNodes(d, &report)
	checkPins(d, &report)
	inDataCount := checkConnections(d, nodes, &report)
	checkRequiredInputs(d, inDataCount, &report)
	checkVariables(d, &report)
	checkExecutionFlow(d, nodes, &report)

	return report
}

// indexNodes builds the node id index, reporting duplicates.
func indexNodes(d *Document, report *Report) map[string]*Node {
	nodes := make(map[string]*Node, len(d.Nodes))
	for i := range d.Nodes {
		n := &d.Nodes[i]
		if n.ID == "" {
			report.addError("empty_node_id", "", "", "node has an empty id")
			continue
		}
		if _, seen := nodes[n.ID]; seen {
			report.addError("duplicate_node_id", n.ID, "", fmt.Sprintf("duplicate node id %q", n.ID))
			continue
		}
		nodes[n.ID] = n
	}
	return nodes
}

// checkPins verifies pin id uniqueness within a node and name uniqueness
// within each direction, plus kind validity.
func checkPins(d *Document, report *Report) {
	for i := range d.Nodes {
		n := &d.Nodes[i]
		ids := make(map[string]bool, len(n.Inputs)+len(n.Outputs))
		for _, seq := range [][]Pin{n.Inputs, n.Outputs} {
			names := make(map[string]bool, len(seq))
			for _, p := range seq {
				if ids[p.ID] {
					report.addError("duplicate_pin_id", n.ID, "",
						fmt.Sprintf("node %q: duplicate pin id %q", n.ID, p.ID))
				}
				ids[p.ID] = true
				if names[p.Name] {
					report.addError("duplicate_pin_name", n.ID, "",
						fmt.Sprintf("node %q: duplicate pin name %q", n.ID, p.Name))
				}
				names[p.Name] = true
				if !IsValidKind(p.Kind) {
					report.addError("unknown_pin_kind", n.ID, "",
						fmt.Sprintf("node %q: pin %q has unknown kind %q", n.ID, p.ID, p.Kind))
				}
			}
		}
	}
}

// checkConnections verifies every connection resolves to existing pins of
// the correct direction, respects the type lattice and the data fan-in cap.
// Returns the incoming data-connection count per (node, pin) for the
// required-input pass.
func checkConnections(d *Document, nodes map[string]*Node, report *Report) map[[2]string]int {
	connIDs := make(map[string]bool, len(d.Connections))
	inDataCount := make(map[[2]string]int)

	for i := range d.Connections {
		c := &d.Connections[i]
		if connIDs[c.ID] {
			report.addError("duplicate_connection_id", "", c.ID,
				fmt.Sprintf("duplicate connection id %q", c.ID))
		}
		connIDs[c.ID] = true

		from, ok := nodes[c.FromNode]
		if !ok {
			report.addError("missing_node", c.FromNode, c.ID,
				fmt.Sprintf("connection %q references unknown node %q", c.ID, c.FromNode))
			continue
		}
		to, ok := nodes[c.ToNode]
		if !ok {
			report.addError("missing_node", c.ToNode, c.ID,
				fmt.Sprintf("connection %q references unknown node %q", c.ID, c.ToNode))
			continue
		}

		out := from.OutputPin(c.FromPin)
		if out == nil {
			report.addError("missing_pin", from.ID, c.ID,
				fmt.Sprintf("connection %q references unknown output pin %q on node %q", c.ID, c.FromPin, from.ID))
			continue
		}
		in := to.InputPin(c.ToPin)
		if in == nil {
			report.addError("missing_pin", to.ID, c.ID,
				fmt.Sprintf("connection %q references unknown input pin %q on node %q", c.ID, c.ToPin, to.ID))
			continue
		}

		switch c.Type {
		case ConnectionExecution:
			if out.Kind != KindExecution || in.Kind != KindExecution {
				report.addError("type_mismatch", to.ID, c.ID,
					fmt.Sprintf("execution connection %q must join two execution pins (%s -> %s)", c.ID, out.Kind, in.Kind))
			}
		case ConnectionData:
			if out.Kind == KindExecution || in.Kind == KindExecution {
				report.addError("type_mismatch", to.ID, c.ID,
					fmt.Sprintf("data connection %q may not join execution pins", c.ID))
			} else if !Compatible(out.Kind, in.Kind) {
				report.addError("type_mismatch", to.ID, c.ID,
					fmt.Sprintf("connection %q: %s output is not compatible with %s input", c.ID, out.Kind, in.Kind))
			}
			key := [2]string{to.ID, in.ID}
			inDataCount[key]++
			if inDataCount[key] > 1 {
				report.addError("fan_in", to.ID, c.ID,
					fmt.Sprintf("input pin %q on node %q already has an incoming data connection", in.ID, to.ID))
			}
		default:
			report.addError("unknown_connection_type", "", c.ID,
				fmt.Sprintf("connection %q has unknown type %q", c.ID, c.Type))
		}
	}
	return inDataCount
}

// checkRequiredInputs warns on required data pins left unwired and without
// a default value.
func checkRequiredInputs(d *Document, inDataCount map[[2]string]int, report *Report) {
	for i := range d.Nodes {
		n := &d.Nodes[i]
		for _, p := range n.Inputs {
			if !p.Required || p.Kind == KindExecution {
				continue
			}
			if p.DefaultValue != nil {
				continue
			}
			if inDataCount[[2]string{n.ID, p.ID}] == 0 {
				report.addWarning("required_unwired", n.ID, "",
					fmt.Sprintf("required input %q on node %q has no incoming connection and no default value", p.Name, n.ID))
			}
		}
	}
}

func checkVariables(d *Document, report *Report) {
	names := make(map[string]bool, len(d.Variables))
	for _, v := range d.Variables {
		if names[v.Name] {
			report.addError("duplicate_variable", "", "",
				fmt.Sprintf("duplicate variable %q", v.Name))
		}
		names[v.Name] = true
		if !IsValidKind(v.Kind) {
			report.addError("unknown_variable_kind", "", "",
				fmt.Sprintf("variable %q has unknown kind %q", v.Name, v.Kind))
		}
	}
}

// checkExecutionFlow runs cycle detection over the execution subgraph with
// a DFS recursion stack. Cycles are warnings on purpose: some node types
// legitimately consume delayed feedback values, so the document stays
// committable and the user is told instead. Also warns on nodes whose
// execution inputs are all unwired (unreachable in the control flow).
func checkExecutionFlow(d *Document, nodes map[string]*Node, report *Report) {
	adjacency := make(map[string][]string)
	hasIncoming := make(map[string]bool)
	for _, c := range d.Connections {
		if c.Type != ConnectionExecution {
			continue
		}
		if nodes[c.FromNode] == nil || nodes[c.ToNode] == nil {
			continue
		}
		adjacency[c.FromNode] = append(adjacency[c.FromNode], c.ToNode)
		hasIncoming[c.ToNode] = true
	}

	// A node that expects to be driven (has execution inputs) but has no
	// incoming execution connection will never run.
	for i := range d.Nodes {
		n := &d.Nodes[i]
		if hasExecutionInput(n) && !hasIncoming[n.ID] {
			report.addWarning("unreachable_node", n.ID, "",
				fmt.Sprintf("node %q is not reachable through any execution connection", n.ID))
		}
	}

	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[string]int, len(d.Nodes))
	var stack []string

	var dfs func(id string) bool
	dfs = func(id string) bool {
		color[id] = gray
		stack = append(stack, id)
		for _, next := range adjacency[id] {
			if color[next] == gray {
				report.addWarning("execution_cycle", next, "",
					fmt.Sprintf("execution cycle through node %q: %v", next, cyclePath(stack, next)))
				return true
			}
			if color[next] == white && dfs(next) {
				return true
			}
		}
		stack = stack[:len(stack)-1]
		color[id] = black
		return false
	}

	// One cycle reported per connected component, in document order. When a
	// DFS aborts on a cycle its recursion stack is still gray; finalize those
	// nodes so a later root entering the same component cannot report the
	// cycle a second time.
	for i := range d.Nodes {
		if color[d.Nodes[i].ID] == white {
			stack = stack[:0]
			if dfs(d.Nodes[i].ID) {
				for _, id := range stack {
					color[id] = black
				}
			}
		}
	}
}

func hasExecutionInput(n *Node) bool {
	for _, p := range n.Inputs {
		if p.Kind == KindExecution {
			return true
		}
	}
	return false
}

// cyclePath extracts the cycle from the DFS recursion stack. A gray node is
// always on the current stack, so the fallback never fabricates a self-loop.
func cyclePath(stack []string, start string) []string {
	for i, id := range stack {
		if id == start {
			return append(append([]string(nil), stack[i:]...), start)
		}
	}
	return nil
}

// Annotate folds the report back onto the document's nodes, replacing the
// derived Errors/Warnings lists.
func Annotate(d *Document, report Report) {
	for i := range d.Nodes {
		d.Nodes[i].Errors = nil
		d.Nodes[i].Warnings = nil
	}
	for _, f := range report.Findings {
		if f.NodeID == "" {
			continue
		}
		n := d.FindNode(f.NodeID)
		if n == nil {
			continue
		}
		if f.Severity == SeverityError {
			n.Errors = append(n.Errors, f.Message)
		} else {
			n.Warnings = append(n.Warnings, f.Message)
		}
	}
}
