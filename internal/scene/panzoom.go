package scene

import (
	"schematic/internal/geometry"
	"schematic/internal/viewport"
)

// UpdateZoomFactor stores a new zoom factor and relays out the grid.
// Zero, negative, NaN and infinite factors are ignored.
func (m *Manager) UpdateZoomFactor(factor float64) bool {
	if !geometry.ValidZoom(factor) {
		return false
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return false
	}
	m.setZoomLocked(factor)
	m.mu.Unlock()

	m.surface.RenderGroup(GridGroup)
	return true
}

func (m *Manager) setZoomLocked(factor float64) {
	m.transform.Zoom = geometry.Clamp(factor, m.minZoom, m.maxZoom)
	if m.grid != nil {
		m.grid.rerender(m.transform.Zoom)
	}
}

// UpdatePan stores the root container's offset
func (m *Manager) UpdatePan(offset geometry.Point) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transform.Offset = offset
}

// ApplyViewport applies one pan/zoom event: the transform is stored, the grid
// relaid out and every persisted connection repositioned. With no scene
// loaded only the transform is stored.
func (m *Manager) ApplyViewport(ev viewport.Event) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.transform.Offset = ev.Offset
	zoomed := geometry.ValidZoom(ev.Zoom)
	if zoomed {
		m.setZoomLocked(ev.Zoom)
	}
	if m.state == StateEmpty {
		m.mu.Unlock()
		return
	}
	n := m.refreshAllLocked()
	m.mu.Unlock()

	m.recorder.ConnectionsRefreshed(n)
	if zoomed {
		m.surface.RenderGroup(GridGroup)
	}
	if n > 0 {
		m.surface.RenderGroup(ConnectionGroup)
	}
}

// Subscribe attaches the scene to a pan/zoom stream. Events are applied on a
// dedicated goroutine until Close.
func (m *Manager) Subscribe(stream *viewport.Stream) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	if m.sub != nil {
		m.mu.Unlock()
		return ErrAlreadySubscribed
	}
	sub := stream.Subscribe()
	done := make(chan struct{})
	m.stream, m.sub, m.subDone = stream, sub, done
	m.mu.Unlock()

	go func() {
		defer close(done)
		for ev := range sub.C() {
			m.ApplyViewport(ev)
		}
	}()
	return nil
}
