package logchase

import (
	"fmt"
	"io"
	"strings"
)

// NodeID indexes a node inside its Graph.
type NodeID int

// Node is a state in a pattern graph.
type Node struct {
	ID        NodeID
	Accepting bool
}

// TransitionKind is the type of a Transition.
type TransitionKind int

const (
	// Consume matches the current line against a template.
	Consume TransitionKind = iota
	// ConsumeAny accepts any existing line.
	ConsumeAny
	// Epsilon moves without reading input.
	Epsilon
)

func (k TransitionKind) String() string {
	switch k {
	case Consume:
		return "CONSUME"
	case ConsumeAny:
		return "CONSUME_ANY"
	case Epsilon:
		return "EPSILON"
	default:
		return fmt.Sprintf("TransitionKind(%d)", int(k))
	}
}

// Transition is a typed edge between two nodes.
type Transition struct {
	From     NodeID
	To       NodeID
	Kind     TransitionKind
	Invert   bool            // Consume only: succeed when the line does not match
	Template Template        // Consume only
	Refs     []GroupRef      // values substituted into Template placeholders
	Time     *TimeConstraint // nil when unconstrained

	// Capture is the MatchID this transition records under. Only set on
	// non-inverted Consume transitions.
	Capture    MatchID
	HasCapture bool
}

func (t *Transition) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s -> %d", t.Kind, t.To)
	if t.Kind == Consume {
		if t.Invert {
			sb.WriteString(" !")
		} else {
			sb.WriteString(" ")
		}
		fmt.Fprintf(&sb, "%q", t.Template.String())
	}
	for _, r := range t.Refs {
		fmt.Fprintf(&sb, " %s", r)
	}
	if t.Time != nil {
		fmt.Fprintf(&sb, " time(%s rel #%d)", t.Time, t.Time.Ref)
	}
	if t.HasCapture {
		fmt.Fprintf(&sb, " capture=#%d", t.Capture)
	}
	return sb.String()
}

// Graph is a built pattern. It is never modified after Builder.Graph returns
// it and may be matched from many goroutines at once.
type Graph struct {
	description string
	nodes       []Node
	edges       [][]Transition
	start       NodeID
	accept      NodeID
}

func newGraph(description string) *Graph {
	g := &Graph{description: description}
	g.start = g.addNode()
	return g
}

// addNode appends a node, making it the accepting one.
func (g *Graph) addNode() NodeID {
	if len(g.nodes) > 0 {
		g.nodes[g.accept].Accepting = false
	}
	id := NodeID(len(g.nodes))
	g.nodes = append(g.nodes, Node{ID: id, Accepting: true})
	g.edges = append(g.edges, nil)
	g.accept = id
	return id
}

func (g *Graph) addTransition(t Transition) {
	g.edges[t.From] = append(g.edges[t.From], t)
}

// Description returns the text passed to NewBuilder.
func (g *Graph) Description() string {
	return g.description
}

// Start returns the initial node.
func (g *Graph) Start() NodeID {
	return g.start
}

// Accepting returns the single accepting node.
func (g *Graph) Accepting() NodeID {
	return g.accept
}

// Node returns the node with the given id.
func (g *Graph) Node(id NodeID) Node {
	return g.nodes[id]
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// Transitions returns the outgoing transitions of a node in insertion order.
// The returned slice must not be modified.
func (g *Graph) Transitions(id NodeID) []Transition {
	return g.edges[id]
}

// Describe writes one block per node listing its outgoing transitions.
func (g *Graph) Describe(w io.Writer) error {
	if g.description != "" {
		if _, err := fmt.Fprintf(w, "# %s\n", g.description); err != nil {
			return err
		}
	}
	for _, n := range g.nodes {
		if _, err := fmt.Fprintf(w, "Node %d. Accepting %t\n", n.ID, n.Accepting); err != nil {
			return err
		}
		for i := range g.edges[n.ID] {
			if _, err := fmt.Fprintf(w, "  %s\n", &g.edges[n.ID][i]); err != nil {
				return err
			}
		}
	}
	return nil
}
