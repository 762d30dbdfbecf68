package scene

import (
	"schematic/internal/domain"
	"schematic/internal/geometry"
)

// Socket is a connection point drawn on a node
type Socket struct {
	identity   domain.SocketIdentity
	descriptor domain.SocketDescriptor
	node       *Node
	offset     geometry.Point
	connected  bool
}

// Identity returns the socket's composite scene identity
func (s *Socket) Identity() domain.SocketIdentity {
	return s.identity
}

// Name returns the socket's display name
func (s *Socket) Name() string {
	if s.descriptor.Name != "" {
		return s.descriptor.Name
	}
	return s.descriptor.ID
}

// Kind returns whether the socket is an input or output
func (s *Socket) Kind() domain.SocketKind {
	return s.descriptor.Kind
}

// Descriptor returns the variant socket this visual was built from
func (s *Socket) Descriptor() domain.SocketDescriptor {
	return s.descriptor
}

// Node returns the node owning the socket
func (s *Socket) Node() *Node {
	return s.node
}

// Anchor returns the socket's anchor in the scene frame
func (s *Socket) Anchor() geometry.Point {
	return s.node.position.Add(s.offset)
}

// Connected reports the socket's connected visual state
func (s *Socket) Connected() bool {
	return s.connected
}

// SetConnected sets the connected visual state
func (s *Socket) SetConnected(connected bool) {
	s.connected = connected
}
