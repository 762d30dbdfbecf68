package scene

import (
	"schematic/internal/domain"
	"schematic/internal/geometry"
)

// CreateConnection adds a connection between two sockets.
//
// Both sockets are marked connected whether or not the connection is new.
// If a connection with the same identity is already in the scene, nil is
// returned and nothing else changes. An interactive connection replaces any
// previous one and becomes the tracked drag; its endpoints are kept exactly
// as given.
func (m *Manager) CreateConnection(srcAnchor, dstAnchor geometry.Point, src, dst domain.SocketIdentity, color string, interactive bool) *Connection {
	kind := ConnectionPersisted
	if interactive {
		kind = ConnectionInteractive
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	conn := m.createConnectionLocked(srcAnchor, dstAnchor, src, dst, color, kind)
	m.mu.Unlock()

	if conn != nil {
		m.surface.RenderGroup(ConnectionGroup)
	}
	return conn
}

func (m *Manager) createConnectionLocked(srcAnchor, dstAnchor geometry.Point, src, dst domain.SocketIdentity, color string, kind ConnectionKind) *Connection {
	m.markConnectedLocked(src, dst)

	id := domain.NewConnectionIdentity(src, dst)
	if _, exists := m.connections[id]; exists {
		m.recorder.DuplicateRejected()
		return nil
	}

	if kind == ConnectionInteractive && m.interactive != nil {
		m.removeConnectionLocked(m.interactive.id)
	}

	if color == "" {
		color = m.defaultColor
	}
	conn := newConnection(srcAnchor, dstAnchor, src, dst, color, kind)
	m.connGroup.add(conn)
	m.connections[id] = conn
	if kind == ConnectionInteractive {
		m.interactive = conn
	}
	// Dropping a previous drag may have cleared the flags
	m.markConnectedLocked(src, dst)

	// Only connections on the two sockets can have moved
	m.recorder.ConnectionsRefreshed(m.refreshTouchingLocked(src, dst))
	return conn
}

func (m *Manager) markConnectedLocked(ids ...domain.SocketIdentity) {
	for _, id := range ids {
		if s := m.sockets[id]; s != nil {
			s.SetConnected(true)
		}
	}
}

// RemoveConnection removes a connection. Sockets left without any
// connection are marked disconnected.
func (m *Manager) RemoveConnection(id domain.ConnectionIdentity) bool {
	m.mu.Lock()
	removed := m.removeConnectionLocked(id)
	m.mu.Unlock()

	if removed {
		m.surface.RenderGroup(ConnectionGroup)
	}
	return removed
}

func (m *Manager) removeConnectionLocked(id domain.ConnectionIdentity) bool {
	conn, ok := m.connections[id]
	if !ok {
		return false
	}
	m.connGroup.remove(string(id))
	delete(m.connections, id)
	if m.interactive == conn {
		m.interactive = nil
	}
	conn.Destroy()

	for _, sid := range []domain.SocketIdentity{conn.source, conn.destination} {
		if s := m.sockets[sid]; s != nil {
			s.SetConnected(len(m.connectionsTouchingLocked(sid)) > 0)
		}
	}
	return true
}

func (m *Manager) connectionsTouchingLocked(id domain.SocketIdentity) []*Connection {
	var out []*Connection
	for _, v := range m.connGroup.children {
		if c := v.(*Connection); c.Touches(id) {
			out = append(out, c)
		}
	}
	return out
}

// RefreshConnections repositions every persisted connection from its
// sockets' live positions and returns how many were updated. The
// interactive connection is left alone.
func (m *Manager) RefreshConnections() int {
	m.mu.Lock()
	n := m.refreshAllLocked()
	m.mu.Unlock()

	m.recorder.ConnectionsRefreshed(n)
	return n
}

func (m *Manager) refreshAllLocked() int {
	n := 0
	for _, v := range m.connGroup.children {
		c := v.(*Connection)
		if c.Interactive() {
			continue
		}
		if m.refreshLocked(c) {
			n++
		}
	}
	return n
}

func (m *Manager) refreshTouchingLocked(ids ...domain.SocketIdentity) int {
	n := 0
	for _, v := range m.connGroup.children {
		c := v.(*Connection)
		if c.Interactive() {
			continue
		}
		for _, id := range ids {
			if c.Touches(id) {
				if m.refreshLocked(c) {
					n++
				}
				break
			}
		}
	}
	return n
}

// RefreshConnectionPosition repositions one persisted connection. It reports
// false when the connection is unknown or interactive, a socket is missing,
// or the zoom factor is unusable.
func (m *Manager) RefreshConnectionPosition(id domain.ConnectionIdentity) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.connections[id]
	if !ok || c.Interactive() {
		return false
	}
	return m.refreshLocked(c)
}

// refreshLocked maps both socket positions from the outer frame into the
// root frame: p = (global - offset) / zoom
func (m *Manager) refreshLocked(c *Connection) bool {
	if !m.transform.Valid() {
		return false
	}
	src, ok := m.globalPositionLocked(c.source)
	if !ok {
		return false
	}
	dst, ok := m.globalPositionLocked(c.destination)
	if !ok {
		return false
	}

	start, _ := geometry.ToRootLocal(src, m.transform, true)
	end, _ := geometry.ToRootLocal(dst, m.transform, true)
	c.setEndpoints(start, end)
	return true
}

// globalPositionLocked asks the surface where a socket is drawn, falling
// back to the scene model when the surface has no layout for it
func (m *Manager) globalPositionLocked(id domain.SocketIdentity) (geometry.Point, bool) {
	s := m.sockets[id]
	if s == nil {
		return geometry.Point{}, false
	}
	if p, ok := m.surface.GlobalPosition(string(id)); ok {
		return p, true
	}
	return m.transform.ToGlobal(s.Anchor()), true
}

// UpdateConnectionInteractive moves the destination of the tracked
// interactive connection to the pointer. The source stays where the drag
// began. The pointer is already in the connection's frame, so no offset or
// zoom is applied.
func (m *Manager) UpdateConnectionInteractive(id domain.ConnectionIdentity, pointer geometry.Point) bool {
	m.mu.Lock()
	c := m.interactive
	if c == nil || c.id != id {
		m.mu.Unlock()
		return false
	}
	end, _ := geometry.ToRootLocal(pointer, m.transform, false)
	c.setEndpoints(c.start, end)
	m.mu.Unlock()

	m.surface.RenderGroup(ConnectionGroup)
	return true
}

// CancelInteractive removes the tracked interactive connection
func (m *Manager) CancelInteractive() bool {
	m.mu.Lock()
	removed := false
	if m.interactive != nil {
		removed = m.removeConnectionLocked(m.interactive.id)
	}
	m.mu.Unlock()

	if removed {
		m.surface.RenderGroup(ConnectionGroup)
	}
	return removed
}
