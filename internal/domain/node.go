package domain

import "fmt"

// NodeRecord is one node of a schematic as supplied by the host
type NodeRecord struct {
	ID              string           `json:"id" yaml:"id"`
	SchemaVariantID string           `json:"schema_variant_id" yaml:"schema_variant_id"`
	Label           string           `json:"label,omitempty" yaml:"label,omitempty"`
	Positions       []PositionRecord `json:"positions,omitempty" yaml:"positions,omitempty"`
}

// NewNodeRecord creates a node record with no positions
func NewNodeRecord(id, schemaVariantID string) *NodeRecord {
	return &NodeRecord{
		ID:              id,
		SchemaVariantID: schemaVariantID,
		Positions:       make([]PositionRecord, 0),
	}
}

// SetPosition records the node's position for a context, replacing any
// existing position for the same context
func (n *NodeRecord) SetPosition(ctx ViewingContext, x, y float64) {
	for i := range n.Positions {
		if n.Positions[i].Matches(ctx) {
			n.Positions[i].X = x
			n.Positions[i].Y = y
			return
		}
	}
	n.Positions = append(n.Positions, NewPositionRecord(ctx, x, y))
}

// PositionFor returns the position matching ctx exactly
func (n *NodeRecord) PositionFor(ctx ViewingContext) (PositionRecord, bool) {
	for _, p := range n.Positions {
		if p.Matches(ctx) {
			return p, true
		}
	}
	return PositionRecord{}, false
}

// DisplayLabel returns the label, falling back to the ID
func (n *NodeRecord) DisplayLabel() string {
	if n.Label != "" {
		return n.Label
	}
	return n.ID
}

// Validate checks the ID and that a schema variant is set
func (n *NodeRecord) Validate() error {
	if err := ValidateNodeID(n.ID); err != nil {
		return err
	}
	if n.SchemaVariantID == "" {
		return fmt.Errorf("node %s: schema variant is required", n.ID)
	}
	return nil
}
