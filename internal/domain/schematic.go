package domain

import "fmt"

// Schematic is the abstract node/connection dataset a scene is built from.
// Order is significant: nodes and connections are materialized in sequence.
type Schematic struct {
	Nodes       []NodeRecord       `json:"nodes"`
	Connections []ConnectionRecord `json:"connections"`
}

// NewSchematic creates an empty schematic
func NewSchematic() *Schematic {
	return &Schematic{
		Nodes:       make([]NodeRecord, 0),
		Connections: make([]ConnectionRecord, 0),
	}
}

// AddNode appends a node record
func (s *Schematic) AddNode(node NodeRecord) {
	s.Nodes = append(s.Nodes, node)
}

// AddConnection appends a connection record
func (s *Schematic) AddConnection(conn ConnectionRecord) {
	s.Connections = append(s.Connections, conn)
}

// Node returns the record with the given ID
func (s *Schematic) Node(id string) (*NodeRecord, bool) {
	for i := range s.Nodes {
		if s.Nodes[i].ID == id {
			return &s.Nodes[i], true
		}
	}
	return nil, false
}

// VisibleIn returns the IDs of nodes that have a position for ctx
func (s *Schematic) VisibleIn(ctx ViewingContext) []string {
	var ids []string
	for i := range s.Nodes {
		if _, ok := s.Nodes[i].PositionFor(ctx); ok {
			ids = append(ids, s.Nodes[i].ID)
		}
	}
	return ids
}

// Contexts returns every viewing context some node has a position for,
// in first-seen order
func (s *Schematic) Contexts() []ViewingContext {
	seen := make(map[ViewingContext]bool)
	var out []ViewingContext
	for _, n := range s.Nodes {
		for _, p := range n.Positions {
			c := p.Context()
			if !seen[c] {
				seen[c] = true
				out = append(out, c)
			}
		}
	}
	return out
}

// Validate checks structural problems a scene could not recover from:
// empty, dotted or duplicate node IDs and nodes without a variant
func (s *Schematic) Validate() error {
	seen := make(map[string]bool, len(s.Nodes))
	for i := range s.Nodes {
		n := &s.Nodes[i]
		if err := n.Validate(); err != nil {
			return err
		}
		if seen[n.ID] {
			return fmt.Errorf("duplicate node %s", n.ID)
		}
		seen[n.ID] = true
	}
	return nil
}

// Dangling returns connection records that reference nodes missing from the
// schematic. These are skipped when a scene is built.
func (s *Schematic) Dangling() []ConnectionRecord {
	nodes := make(map[string]bool, len(s.Nodes))
	for _, n := range s.Nodes {
		nodes[n.ID] = true
	}
	var out []ConnectionRecord
	for _, c := range s.Connections {
		if !nodes[c.Source.NodeID] || !nodes[c.Destination.NodeID] {
			out = append(out, c)
		}
	}
	return out
}

// Catalog is an in-memory set of variant descriptors
type Catalog struct {
	Variants map[string]*VariantDescriptor `json:"variants"`
}

// NewCatalog creates an empty catalog
func NewCatalog() *Catalog {
	return &Catalog{Variants: make(map[string]*VariantDescriptor)}
}

// Add registers a variant, replacing any with the same ID
func (c *Catalog) Add(v *VariantDescriptor) error {
	if err := v.Validate(); err != nil {
		return err
	}
	if c.Variants == nil {
		c.Variants = make(map[string]*VariantDescriptor)
	}
	c.Variants[v.ID] = v
	return nil
}

// Get returns a variant by ID
func (c *Catalog) Get(id string) (*VariantDescriptor, bool) {
	v, ok := c.Variants[id]
	return v, ok
}
