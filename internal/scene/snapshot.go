package scene

import (
	"schematic/internal/domain"
	"schematic/internal/geometry"
)

// Snapshot is a consistent, immutable copy of the scene for renderers
type Snapshot struct {
	Generation  uint64                `json:"generation"`
	State       string                `json:"state"`
	Context     domain.ViewingContext `json:"context"`
	Transform   geometry.Transform    `json:"transform"`
	Grid        GridView              `json:"grid"`
	Nodes       []NodeView            `json:"nodes"`
	Connections []ConnectionView      `json:"connections"`
}

// GridView describes the background grid
type GridView struct {
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
	Spacing float64 `json:"spacing"`
	Cols    int     `json:"cols"`
	Rows    int     `json:"rows"`
}

// NodeView describes one node and its sockets
type NodeView struct {
	ID          string         `json:"id"`
	Label       string         `json:"label"`
	VariantID   string         `json:"variant_id"`
	VariantName string         `json:"variant_name,omitempty"`
	Color       string         `json:"color,omitempty"`
	Position    geometry.Point `json:"position"`
	Width       float64        `json:"width"`
	Height      float64        `json:"height"`
	Dirty       bool           `json:"dirty,omitempty"`
	Sockets     []SocketView   `json:"sockets"`
}

// SocketView describes one socket
type SocketView struct {
	Identity  domain.SocketIdentity `json:"identity"`
	Name      string                `json:"name"`
	Kind      domain.SocketKind     `json:"kind"`
	Anchor    geometry.Point        `json:"anchor"`
	Connected bool                  `json:"connected"`
}

// ConnectionView describes one connection
type ConnectionView struct {
	ID          domain.ConnectionIdentity `json:"id"`
	Source      domain.SocketIdentity     `json:"source"`
	Destination domain.SocketIdentity     `json:"destination"`
	Start       geometry.Point            `json:"start"`
	End         geometry.Point            `json:"end"`
	Color       string                    `json:"color"`
	Kind        ConnectionKind            `json:"kind"`
}

// Snapshot copies the scene under the lock
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := Snapshot{
		Generation:  m.generation,
		State:       m.state.String(),
		Context:     m.context,
		Transform:   m.transform,
		Nodes:       make([]NodeView, 0, m.nodeGroup.Len()),
		Connections: make([]ConnectionView, 0, m.connGroup.Len()),
	}
	if m.grid != nil {
		snap.Grid = GridView{
			Width:   m.grid.width,
			Height:  m.grid.height,
			Spacing: m.grid.spacing,
			Cols:    m.grid.cols,
			Rows:    m.grid.rows,
		}
	}

	for _, v := range m.nodeGroup.children {
		n := v.(*Node)
		nv := NodeView{
			ID:       n.id,
			Label:    n.label,
			Position: n.position,
			Width:    n.width,
			Height:   n.height,
			Dirty:    n.dirty,
			Sockets:  make([]SocketView, 0, len(n.sockets)),
		}
		if n.variant != nil {
			nv.VariantID = n.variant.ID
			nv.VariantName = n.variant.Name
			nv.Color = n.variant.Color
		}
		for _, s := range n.sockets {
			nv.Sockets = append(nv.Sockets, SocketView{
				Identity:  s.identity,
				Name:      s.Name(),
				Kind:      s.Kind(),
				Anchor:    s.Anchor(),
				Connected: s.connected,
			})
		}
		snap.Nodes = append(snap.Nodes, nv)
	}

	for _, v := range m.connGroup.children {
		c := v.(*Connection)
		snap.Connections = append(snap.Connections, ConnectionView{
			ID:          c.id,
			Source:      c.source,
			Destination: c.destination,
			Start:       c.start,
			End:         c.end,
			Color:       c.color,
			Kind:        c.kind,
		})
	}
	return snap
}
