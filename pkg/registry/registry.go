// Package registry describes node types for the engine's metadata
// endpoint: the id/label/category/ports/properties UI generators need
// without coupling to engine internals, onto a fixed set of UI-facing
// property kinds.
package registry

import "github.com/wehubfusion/rustflow/pkg/compiler"

// PropertyKind is the UI-facing type tag for a configuration property: a
// closed vocabulary the node registry contract names explicitly.
type PropertyKind string

const (
	PropertyText    PropertyKind = "text"
	PropertyNumber  PropertyKind = "number"
	PropertySelect  PropertyKind = "select"
	PropertyJSON    PropertyKind = "json"
	PropertyCode    PropertyKind = "code"
	PropertyBoolean PropertyKind = "boolean"
)

// PropertyDescriptor describes one configuration field a node type accepts.
type PropertyDescriptor struct {
	Name     string
	Label    string
	Kind     PropertyKind
	Required bool
	Default  interface{}
	Options  []string
}

// PortDescriptor describes one declared input or output port for display
// purposes.
type PortDescriptor struct {
	Name  string
	Label string
}

// NodeTypeDescriptor is the full metadata record for one registered node
// type.
type NodeTypeDescriptor struct {
	ID          string
	Label       string
	Category    string
	Description string
	Inputs      []PortDescriptor
	Outputs     []PortDescriptor
	Properties  []PropertyDescriptor
}

// Catalog is a human-authored set of NodeTypeDescriptors, keyed by type_tag.
// The compiler.Registry decides what can actually be instantiated; Catalog
// is purely descriptive metadata served to UI clients, mirroring how the
// original node_registry.rs keeps registry metadata separate from the
// executor lookup.
type Catalog struct {
	descriptors map[string]NodeTypeDescriptor
}

// NewCatalog creates an empty Catalog.
func NewCatalog() *Catalog {
	return &Catalog{descriptors: map[string]NodeTypeDescriptor{}}
}

// Add registers a descriptor under its own ID.
func (c *Catalog) Add(d NodeTypeDescriptor) {
	c.descriptors[d.ID] = d
}

// Describe returns every descriptor whose ID is also registered in reg,
// i.e. the catalog entries actually instantiable right now. Descriptors
// with no matching factory are omitted, so a Catalog can be built once and
// shared across engines that register different subsets of node types.
func (c *Catalog) Describe(reg *compiler.Registry) []NodeTypeDescriptor {
	out := make([]NodeTypeDescriptor, 0, len(c.descriptors))
	for _, typeTag := range reg.RegisteredTypes() {
		if d, ok := c.descriptors[typeTag]; ok {
			out = append(out, d)
		}
	}
	return out
}

// Get returns one descriptor by type_tag.
func (c *Catalog) Get(typeTag string) (NodeTypeDescriptor, bool) {
	d, ok := c.descriptors[typeTag]
	return d, ok
}
