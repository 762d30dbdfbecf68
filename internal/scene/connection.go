package scene

import (
	"schematic/internal/domain"
	"schematic/internal/geometry"
)

// ConnectionKind distinguishes committed connections from a drag in progress
type ConnectionKind string

const (
	ConnectionPersisted   ConnectionKind = "persisted"
	ConnectionInteractive ConnectionKind = "interactive"
)

// Connection is a line drawn between two sockets
type Connection struct {
	id          domain.ConnectionIdentity
	source      domain.SocketIdentity
	destination domain.SocketIdentity
	start, end  geometry.Point
	color       string
	kind        ConnectionKind
	destroyed   bool
}

func newConnection(start, end geometry.Point, src, dst domain.SocketIdentity, color string, kind ConnectionKind) *Connection {
	return &Connection{
		id:          domain.NewConnectionIdentity(src, dst),
		source:      src,
		destination: dst,
		start:       start,
		end:         end,
		color:       color,
		kind:        kind,
	}
}

// VisualName returns the connection identity
func (c *Connection) VisualName() string {
	return string(c.id)
}

// ID returns the connection identity
func (c *Connection) ID() domain.ConnectionIdentity {
	return c.id
}

// Source returns the source socket identity
func (c *Connection) Source() domain.SocketIdentity {
	return c.source
}

// Destination returns the destination socket identity
func (c *Connection) Destination() domain.SocketIdentity {
	return c.destination
}

// Endpoints returns the rendered start and end points
func (c *Connection) Endpoints() (start, end geometry.Point) {
	return c.start, c.end
}

// Color returns the stroke color
func (c *Connection) Color() string {
	return c.color
}

// Kind returns whether the connection is persisted or interactive
func (c *Connection) Kind() ConnectionKind {
	return c.kind
}

// Interactive reports whether the connection follows a pointer drag
func (c *Connection) Interactive() bool {
	return c.kind == ConnectionInteractive
}

// Touches reports whether either endpoint is the given socket
func (c *Connection) Touches(id domain.SocketIdentity) bool {
	return c.source == id || c.destination == id
}

func (c *Connection) setEndpoints(start, end geometry.Point) {
	c.start, c.end = start, end
}

// Destroyed reports whether the connection was released
func (c *Connection) Destroyed() bool {
	return c.destroyed
}

// Destroy releases the connection
func (c *Connection) Destroy() {
	c.destroyed = true
}
