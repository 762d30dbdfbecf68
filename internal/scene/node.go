package scene

import (
	"schematic/internal/domain"
	"schematic/internal/geometry"
)

const socketSpacing = 20.0

// Node is the visual of one schematic node in the active viewing context
type Node struct {
	id            string
	label         string
	variant       *domain.VariantDescriptor
	position      geometry.Point
	width, height float64
	sockets       []*Socket
	dirty         bool
	destroyed     bool
}

// NewNode builds a node visual and its sockets at the given position
func NewNode(rec *domain.NodeRecord, variant *domain.VariantDescriptor, pos domain.PositionRecord) *Node {
	w, h := variant.Size()
	if pos.Width > 0 {
		w = pos.Width
	}
	if pos.Height > 0 {
		h = pos.Height
	}

	n := &Node{
		id:       rec.ID,
		label:    rec.DisplayLabel(),
		variant:  variant,
		position: pos.Point(),
		width:    w,
		height:   h,
		dirty:    true,
	}
	n.sockets = layoutSockets(n, variant.Sockets)
	return n
}

// layoutSockets places sockets at their descriptor offsets. A variant that
// gives no offsets at all gets inputs down the left edge and outputs down the
// right edge.
func layoutSockets(n *Node, descs []domain.SocketDescriptor) []*Socket {
	explicit := false
	for _, d := range descs {
		if d.OffsetX != 0 || d.OffsetY != 0 {
			explicit = true
			break
		}
	}

	sockets := make([]*Socket, 0, len(descs))
	var inputs, outputs int
	for _, d := range descs {
		s := &Socket{
			identity:   domain.NewSocketIdentity(n.id, d.ID),
			descriptor: d,
			node:       n,
		}
		switch {
		case explicit:
			s.offset = geometry.Pt(d.OffsetX, d.OffsetY)
		case d.Kind == domain.SocketKindOutput:
			outputs++
			s.offset = geometry.Pt(n.width, socketSpacing*float64(outputs))
		default:
			inputs++
			s.offset = geometry.Pt(0, socketSpacing*float64(inputs))
		}
		sockets = append(sockets, s)
	}
	return sockets
}

// VisualName returns the node ID
func (n *Node) VisualName() string {
	return n.id
}

// ID returns the schematic node ID
func (n *Node) ID() string {
	return n.id
}

// Label returns the display label
func (n *Node) Label() string {
	return n.label
}

// Variant returns the resolved variant descriptor
func (n *Node) Variant() *domain.VariantDescriptor {
	return n.variant
}

// Position returns the node origin in the scene frame
func (n *Node) Position() geometry.Point {
	return n.position
}

// Bounds returns the node's rectangle in the scene frame
func (n *Node) Bounds() geometry.Rect {
	return geometry.Rect{Min: n.position, W: n.width, H: n.height}
}

// Sockets returns the node's sockets in variant order
func (n *Node) Sockets() []*Socket {
	out := make([]*Socket, len(n.sockets))
	copy(out, n.sockets)
	return out
}

// Socket finds a socket by its variant socket ID
func (n *Node) Socket(socketID string) *Socket {
	for _, s := range n.sockets {
		if s.descriptor.ID == socketID {
			return s
		}
	}
	return nil
}

// Translate moves the node and marks its transform dirty
func (n *Node) Translate(p geometry.Point) {
	n.position = p
	n.dirty = true
}

// Dirty reports whether the transform changed since the last render pass
func (n *Node) Dirty() bool {
	return n.dirty
}

// ClearDirty marks the node as rendered
func (n *Node) ClearDirty() {
	n.dirty = false
}

// Destroyed reports whether the node's visual resources were released
func (n *Node) Destroyed() bool {
	return n.destroyed
}

// Destroy releases the node's visual resources
func (n *Node) Destroy() {
	n.destroyed = true
	n.sockets = nil
}
