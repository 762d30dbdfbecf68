package domain

import (
	"crypto/sha256"
	"fmt"
	"strings"
)

// IdentitySeparator joins the node and socket parts of a SocketIdentity
const IdentitySeparator = "."

// SocketIdentity is the composite key "nodeID.socketID" of a socket in a scene
type SocketIdentity string

// NewSocketIdentity joins a node and socket id
func NewSocketIdentity(nodeID, socketID string) SocketIdentity {
	return SocketIdentity(nodeID + IdentitySeparator + socketID)
}

// ValidateNodeID rejects node IDs that cannot be told apart from a socket
// identity. The separator may appear in socket IDs but not in node IDs, so
// every identity splits back into its node at the first separator.
func ValidateNodeID(id string) error {
	if id == "" {
		return fmt.Errorf("node ID is required")
	}
	if strings.Contains(id, IdentitySeparator) {
		return fmt.Errorf("node ID %q must not contain %q", id, IdentitySeparator)
	}
	return nil
}

// ParseSocketIdentity splits an identity at its first separator
func ParseSocketIdentity(s string) (nodeID, socketID string, err error) {
	nodeID, socketID, ok := strings.Cut(s, IdentitySeparator)
	if !ok || nodeID == "" || socketID == "" {
		return "", "", fmt.Errorf("invalid socket identity %q", s)
	}
	return nodeID, socketID, nil
}

// NodeID returns the node part of the identity
func (s SocketIdentity) NodeID() string {
	nodeID, _, _ := strings.Cut(string(s), IdentitySeparator)
	return nodeID
}

// SocketID returns the socket part of the identity
func (s SocketIdentity) SocketID() string {
	_, socketID, _ := strings.Cut(string(s), IdentitySeparator)
	return socketID
}

func (s SocketIdentity) String() string {
	return string(s)
}

// ConnectionIdentity identifies a connection by its ordered endpoints
type ConnectionIdentity string

// NewConnectionIdentity creates a deterministic ID for a connection.
// Endpoint order is significant: a->b and b->a are different connections.
func NewConnectionIdentity(source, destination SocketIdentity) ConnectionIdentity {
	key := fmt.Sprintf("%s->%s", source, destination)
	hash := sha256.Sum256([]byte(key))
	return ConnectionIdentity(fmt.Sprintf("%x", hash[:8]))
}

func (c ConnectionIdentity) String() string {
	return string(c)
}
