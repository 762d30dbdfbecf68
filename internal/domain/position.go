package domain

import "schematic/internal/geometry"

// SchematicKind names a family of schematic views
type SchematicKind string

const (
	SchematicKindDeployment SchematicKind = "deployment"
	SchematicKindComponent  SchematicKind = "component"
)

// ViewingContext selects which PositionRecord of a node is active.
// An empty DeploymentNodeID means the view is not scoped to a deployment.
type ViewingContext struct {
	Kind             SchematicKind `json:"kind" yaml:"kind"`
	DeploymentNodeID string        `json:"deployment_node_id,omitempty" yaml:"deployment_node_id,omitempty"`
}

// NewViewingContext creates a viewing context
func NewViewingContext(kind SchematicKind, deploymentNodeID string) ViewingContext {
	return ViewingContext{Kind: kind, DeploymentNodeID: deploymentNodeID}
}

func (c ViewingContext) String() string {
	if c.DeploymentNodeID == "" {
		return string(c.Kind)
	}
	return string(c.Kind) + "@" + c.DeploymentNodeID
}

// PositionRecord is a node's position within one viewing context
type PositionRecord struct {
	SchematicKind    SchematicKind `json:"schematic_kind" yaml:"schematic_kind"`
	DeploymentNodeID string        `json:"deployment_node_id,omitempty" yaml:"deployment_node_id,omitempty"`
	X                float64       `json:"x" yaml:"x"`
	Y                float64       `json:"y" yaml:"y"`

	// Size overrides the variant's default size when non-zero
	Width  float64 `json:"width,omitempty" yaml:"width,omitempty"`
	Height float64 `json:"height,omitempty" yaml:"height,omitempty"`
}

// NewPositionRecord creates a position record for a context
func NewPositionRecord(ctx ViewingContext, x, y float64) PositionRecord {
	return PositionRecord{
		SchematicKind:    ctx.Kind,
		DeploymentNodeID: ctx.DeploymentNodeID,
		X:                x,
		Y:                y,
	}
}

// Matches reports whether the record belongs to exactly the given context.
// Both the kind and the deployment node must be equal; an empty deployment
// only matches an empty deployment.
func (p PositionRecord) Matches(ctx ViewingContext) bool {
	return p.SchematicKind == ctx.Kind && p.DeploymentNodeID == ctx.DeploymentNodeID
}

// Context returns the viewing context the record belongs to
func (p PositionRecord) Context() ViewingContext {
	return ViewingContext{Kind: p.SchematicKind, DeploymentNodeID: p.DeploymentNodeID}
}

// Point returns the record's coordinates
func (p PositionRecord) Point() geometry.Point {
	return geometry.Pt(p.X, p.Y)
}
