// Package graph defines the workflow document's wire format and the
// normalized, immutable form the compiler consumes. It mirrors the
// original Rust implementation's schema.rs: a YAML document of nodes and
// edges, loaded with gopkg.in/yaml.v3, with string port names resolved
// against each node's declared port table during compilation rather than
// here — this package only normalizes the raw int|string port_index into a
// single PortRef shape.
package graph

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/wehubfusion/rustflow/pkg/engineerrors"
)

// PortRef names a port on a node. Index holds the numeric port when the
// document specified an integer; Name holds the raw string when the
// document specified a port name (e.g. "true", "false", "success"). Exactly
// one of Index/Name is meaningful, distinguished by IsName.
type PortRef struct {
	NodeID  string
	IsName  bool
	Name    string
	Index   int
}

func (p PortRef) String() string {
	if p.IsName {
		return fmt.Sprintf("%s.%s", p.NodeID, p.Name)
	}
	return fmt.Sprintf("%s.%d", p.NodeID, p.Index)
}

// NodeSpec is one node declaration from the workflow document.
type NodeSpec struct {
	ID     string
	Type   string
	Config map[string]interface{}
}

// Edge is a directed link between two PortRefs.
type Edge struct {
	From PortRef
	To   PortRef
}

// WorkflowDef is the normalized, compile-ready form of a workflow document.
type WorkflowDef struct {
	Nodes []NodeSpec
	Edges []Edge
}

// Document is the raw YAML shape, decoded before normalization. Its fields
// mirror the on-disk workflow document exactly, including the int|string
// port_index ambiguity resolved by portRefFromRaw.
type Document struct {
	Nodes []docNode `yaml:"nodes"`
	Edges []docEdge `yaml:"edges"`
}

type docNode struct {
	ID     string                 `yaml:"id"`
	Type   string                 `yaml:"type"`
	Config map[string]interface{} `yaml:"config"`
}

type docEdge struct {
	From     string      `yaml:"from"`
	FromPort interface{} `yaml:"from_port"`
	To       string      `yaml:"to"`
	ToPort   interface{} `yaml:"to_port"`
}

// Parse decodes a YAML workflow document.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, engineerrors.NewCompileError(engineerrors.KindConfigError, "invalid workflow document", err)
	}
	return &doc, nil
}

// Normalize converts a parsed Document into an immutable WorkflowDef,
// resolving the from_port/to_port int|string ambiguity into PortRef. It
// does not validate node references, arity, or acyclicity — that is the
// compiler's job, since it requires the node registry's declared port
// tables.
func Normalize(doc *Document) (*WorkflowDef, error) {
	nodes := make([]NodeSpec, 0, len(doc.Nodes))
	for _, n := range doc.Nodes {
		if n.ID == "" {
			return nil, engineerrors.NewCompileError(engineerrors.KindDuplicateID, "node with empty id", engineerrors.ErrEmptyNodeID)
		}
		cfg := n.Config
		if cfg == nil {
			cfg = map[string]interface{}{}
		}
		nodes = append(nodes, NodeSpec{ID: n.ID, Type: n.Type, Config: cfg})
	}

	edges := make([]Edge, 0, len(doc.Edges))
	for _, e := range doc.Edges {
		fromPort, err := portRefFromRaw(e.From, e.FromPort, 0)
		if err != nil {
			return nil, err
		}
		toPort, err := portRefFromRaw(e.To, e.ToPort, 0)
		if err != nil {
			return nil, err
		}
		edges = append(edges, Edge{From: fromPort, To: toPort})
	}

	return &WorkflowDef{Nodes: nodes, Edges: edges}, nil
}

// ParseAndNormalize is the convenience entry point combining Parse and
// Normalize.
func ParseAndNormalize(data []byte) (*WorkflowDef, error) {
	doc, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return Normalize(doc)
}

func portRefFromRaw(nodeID string, raw interface{}, defaultIndex int) (PortRef, error) {
	if nodeID == "" {
		return PortRef{}, engineerrors.NewCompileError(engineerrors.KindBadEdge, "edge references empty node id", nil)
	}
	switch t := raw.(type) {
	case nil:
		return PortRef{NodeID: nodeID, IsName: false, Index: defaultIndex}, nil
	case int:
		return PortRef{NodeID: nodeID, IsName: false, Index: t}, nil
	case string:
		return PortRef{NodeID: nodeID, IsName: true, Name: t}, nil
	default:
		return PortRef{}, engineerrors.NewCompileError(engineerrors.KindBadEdge,
			fmt.Sprintf("port index on node %q must be an int or string, got %T", nodeID, raw), nil)
	}
}
