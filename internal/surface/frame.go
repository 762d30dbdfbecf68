// Package surface turns a live scene into render frames for remote clients.
package surface

import (
	"sync"

	"schematic/internal/geometry"
	"schematic/internal/scene"
)

// FrameEvent is the SSE event name frames are published under
const FrameEvent = "frame"

// Frame is one published render of the scene. Groups lists what changed;
// a full frame lists every group.
type Frame struct {
	Seq    uint64   `json:"seq"`
	Full   bool     `json:"full"`
	Groups []string `json:"groups"`
	scene.Snapshot
}

// Publisher delivers frames to clients
type Publisher interface {
	Publish(event string, payload any)
}

// FrameRecorder observes published frames
type FrameRecorder interface {
	FramePublished()
}

// FrameSurface is a scene.Surface that publishes every render request as a
// frame. Clients that draw the scene may report where sockets actually
// landed; until they do, the scene's own model is used.
type FrameSurface struct {
	mu        sync.Mutex
	width     float64
	height    float64
	scene     *scene.Manager
	pub       Publisher
	recorder  FrameRecorder
	positions map[string]geometry.Point
	last      *Frame
	seq       uint64
}

// NewFrameSurface creates a surface of the given size. recorder may be nil.
func NewFrameSurface(width, height float64, pub Publisher, recorder FrameRecorder) *FrameSurface {
	return &FrameSurface{
		width:     width,
		height:    height,
		pub:       pub,
		recorder:  recorder,
		positions: make(map[string]geometry.Point),
	}
}

// Bind attaches the scene frames are taken from. Renders before Bind are
// dropped.
func (s *FrameSurface) Bind(m *scene.Manager) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scene = m
}

// Size returns the surface dimensions
func (s *FrameSurface) Size() (float64, float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.width, s.height
}

// SetSize changes the surface dimensions. The scene's grid is not touched;
// call Manager.Resize for that.
func (s *FrameSurface) SetSize(width, height float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.width, s.height = width, height
}

// RenderAll publishes a full frame
func (s *FrameSurface) RenderAll() {
	s.render(true, scene.GridGroup, scene.ConnectionGroup, scene.NodeGroup)
}

// RenderGroup publishes a frame that marks one group as changed
func (s *FrameSurface) RenderGroup(kind scene.GroupKind) {
	s.render(false, kind)
}

func (s *FrameSurface) render(full bool, kinds ...scene.GroupKind) {
	s.mu.Lock()
	m := s.scene
	s.mu.Unlock()
	if m == nil {
		return
	}

	// The scene lock is taken here, so this must run without s.mu held
	snap := m.Snapshot()

	groups := make([]string, len(kinds))
	for i, k := range kinds {
		groups[i] = k.String()
	}

	s.mu.Lock()
	s.seq++
	frame := &Frame{Seq: s.seq, Full: full, Groups: groups, Snapshot: snap}
	s.last = frame
	s.mu.Unlock()

	if full {
		m.MarkRendered()
	}
	if s.pub != nil {
		s.pub.Publish(FrameEvent, frame)
	}
	if s.recorder != nil {
		s.recorder.FramePublished()
	}
}

// GlobalPosition returns a position reported by a client for the named
// socket
func (s *FrameSurface) GlobalPosition(name string) (geometry.Point, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.positions[name]
	return p, ok
}

// ReportPositions records where a client drew sockets, in surface
// coordinates. Existing reports for other sockets are kept.
func (s *FrameSurface) ReportPositions(positions map[string]geometry.Point) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for name, p := range positions {
		s.positions[name] = p
	}
}

// DropPositions forgets the reports for the named sockets
func (s *FrameSurface) DropPositions(names ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, name := range names {
		delete(s.positions, name)
	}
}

// ClearPositions drops every reported position
func (s *FrameSurface) ClearPositions() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.positions = make(map[string]geometry.Point)
}

// Last returns the most recently published frame
func (s *FrameSurface) Last() (Frame, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return Frame{}, false
	}
	return *s.last, true
}

// Current renders a full frame without publishing it
func (s *FrameSurface) Current() (Frame, bool) {
	s.mu.Lock()
	m := s.scene
	seq := s.seq
	s.mu.Unlock()
	if m == nil {
		return Frame{}, false
	}
	return Frame{
		Seq:      seq,
		Full:     true,
		Groups:   []string{scene.GridGroup.String(), scene.ConnectionGroup.String(), scene.NodeGroup.String()},
		Snapshot: m.Snapshot(),
	}, true
}
