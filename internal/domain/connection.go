package domain

// SocketRef points at one socket of one node
type SocketRef struct {
	NodeID   string `json:"node_id" yaml:"node_id"`
	SocketID string `json:"socket_id" yaml:"socket_id"`
}

// Identity returns the socket's composite scene identity
func (r SocketRef) Identity() SocketIdentity {
	return NewSocketIdentity(r.NodeID, r.SocketID)
}

// ConnectionRecord is a link between two sockets as supplied by the host
type ConnectionRecord struct {
	Source      SocketRef `json:"source" yaml:"source"`
	Destination SocketRef `json:"destination" yaml:"destination"`
}

// NewConnectionRecord creates a connection record
func NewConnectionRecord(srcNode, srcSocket, dstNode, dstSocket string) *ConnectionRecord {
	return &ConnectionRecord{
		Source:      SocketRef{NodeID: srcNode, SocketID: srcSocket},
		Destination: SocketRef{NodeID: dstNode, SocketID: dstSocket},
	}
}

// Identity returns the connection identity derived from both endpoints
func (c *ConnectionRecord) Identity() ConnectionIdentity {
	return NewConnectionIdentity(c.Source.Identity(), c.Destination.Identity())
}

// Involves checks if this connection touches the given node
func (c *ConnectionRecord) Involves(nodeID string) bool {
	return c.Source.NodeID == nodeID || c.Destination.NodeID == nodeID
}
