package scene

import (
	"context"
	"fmt"
	"log"
	"sync"

	"schematic/internal/domain"
	"schematic/internal/geometry"
	"schematic/internal/viewport"
)

// DefaultConnectionColor is used when a connection has no provider color
const DefaultConnectionColor = "#8a8f98"

// State is the lifecycle state of a scene
type State int

const (
	StateEmpty State = iota
	StateLoading
	StatePopulated
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateLoading:
		return "loading"
	case StatePopulated:
		return "populated"
	default:
		return "unknown"
	}
}

// Option configures a Manager
type Option func(*Manager)

// WithRecorder sets the recorder that observes scene activity
func WithRecorder(r Recorder) Option {
	return func(m *Manager) {
		if r != nil {
			m.recorder = r
		}
	}
}

// WithLogger sets the logger
func WithLogger(l *log.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithDefaultColor sets the color of connections without provider metadata
func WithDefaultColor(color string) Option {
	return func(m *Manager) {
		if color != "" {
			m.defaultColor = color
		}
	}
}

// WithGridSpacing sets the grid line spacing at zoom 1
func WithGridSpacing(base float64) Option {
	return func(m *Manager) {
		if base > 0 {
			m.gridBase = base
		}
	}
}

// WithZoomLimits bounds accepted zoom factors. Zero disables a bound.
func WithZoomLimits(min, max float64) Option {
	return func(m *Manager) {
		m.minZoom, m.maxZoom = min, max
	}
}

// Manager owns one live scene and every mutation of it.
//
// All methods are safe for concurrent use. Visuals returned by accessors are
// owned by the manager; read them from the goroutine that drives the scene,
// or use Snapshot from anywhere else.
type Manager struct {
	mu sync.Mutex

	surface         Surface
	variantResolver VariantResolver
	socketResolver  SocketMetadataResolver
	recorder        Recorder
	logger          *log.Logger

	defaultColor     string
	gridBase         float64
	minZoom, maxZoom float64

	state      State
	generation uint64
	cancelLoad context.CancelFunc
	context    domain.ViewingContext
	transform  geometry.Transform

	grid      *Grid
	gridGroup *Group
	connGroup *Group
	nodeGroup *Group

	nodes       map[string]*Node
	sockets     map[domain.SocketIdentity]*Socket
	connections map[domain.ConnectionIdentity]*Connection
	interactive *Connection

	stream  *viewport.Stream
	sub     *viewport.Subscription
	subDone chan struct{}
	closed  bool
}

// NewManager creates an empty scene drawing to surface. The background grid
// is created immediately at the surface's current size.
func NewManager(surface Surface, variants VariantResolver, sockets SocketMetadataResolver, opts ...Option) *Manager {
	m := &Manager{
		surface:         surface,
		variantResolver: variants,
		socketResolver:  sockets,
		recorder:        nopRecorder{},
		logger:          log.Default(),
		defaultColor:    DefaultConnectionColor,
		gridBase:        DefaultGridSpacing,
		transform:       geometry.Identity(),
		gridGroup:       newGroup(GridGroup),
		connGroup:       newGroup(ConnectionGroup),
		nodeGroup:       newGroup(NodeGroup),
		nodes:           make(map[string]*Node),
		sockets:         make(map[domain.SocketIdentity]*Socket),
		connections:     make(map[domain.ConnectionIdentity]*Connection),
	}
	for _, opt := range opts {
		opt(m)
	}

	w, h := surface.Size()
	m.grid = newGrid(w, h, m.gridBase, m.transform.Zoom)
	m.gridGroup.add(m.grid)
	return m
}

// State returns the scene's lifecycle state
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Generation returns the number of loads started so far
func (m *Manager) Generation() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.generation
}

// ViewingContext returns the context of the most recent load
func (m *Manager) ViewingContext() domain.ViewingContext {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.context
}

// Transform returns the current pan/zoom of the root container
func (m *Manager) Transform() geometry.Transform {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.transform
}

// Grid returns the background grid
func (m *Manager) Grid() *Grid {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.grid
}

// Groups returns the scene's groups in draw order
func (m *Manager) Groups() []*Group {
	m.mu.Lock()
	defer m.mu.Unlock()
	return []*Group{m.gridGroup, m.connGroup, m.nodeGroup}
}

// Node returns the node visual with the given ID
func (m *Manager) Node(id string) *Node {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.nodes[id]
}

// Nodes returns the node visuals in group order
func (m *Manager) Nodes() []*Node {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Node, 0, m.nodeGroup.Len())
	for _, v := range m.nodeGroup.children {
		out = append(out, v.(*Node))
	}
	return out
}

// Socket returns the socket visual with the given identity
func (m *Manager) Socket(id domain.SocketIdentity) *Socket {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sockets[id]
}

// Connection returns the connection visual with the given identity
func (m *Manager) Connection(id domain.ConnectionIdentity) *Connection {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connections[id]
}

// Connections returns the connection visuals in group order
func (m *Manager) Connections() []*Connection {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Connection, 0, m.connGroup.Len())
	for _, v := range m.connGroup.children {
		out = append(out, v.(*Connection))
	}
	return out
}

// Interactive returns the connection currently following a drag, if any
func (m *Manager) Interactive() *Connection {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.interactive
}

// AddNode inserts a node into the node group
func (m *Manager) AddNode(n *Node) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	if err := m.checkNodeLocked(n); err != nil {
		m.mu.Unlock()
		return err
	}
	m.addNodeLocked(n)
	m.mu.Unlock()

	m.surface.RenderGroup(NodeGroup)
	return nil
}

// checkNodeLocked refuses a node that would shadow an existing node or
// socket in the identity maps
func (m *Manager) checkNodeLocked(n *Node) error {
	if err := domain.ValidateNodeID(n.id); err != nil {
		return err
	}
	if _, exists := m.nodes[n.id]; exists {
		return fmt.Errorf("node %s: %w", n.id, ErrNodeExists)
	}
	for _, s := range n.sockets {
		if _, exists := m.sockets[s.identity]; exists {
			return fmt.Errorf("node %s: %s: %w", n.id, s.identity, ErrSocketExists)
		}
	}
	return nil
}

func (m *Manager) addNodeLocked(n *Node) {
	m.nodeGroup.add(n)
	m.nodes[n.id] = n
	for _, s := range n.sockets {
		m.sockets[s.identity] = s
	}
}

// RemoveNode destroys a node and every connection attached to its sockets.
// Only the node group is redrawn, plus the connection group when a
// connection went with it.
func (m *Manager) RemoveNode(id string) bool {
	m.mu.Lock()
	n, ok := m.nodes[id]
	if !ok {
		m.mu.Unlock()
		return false
	}

	m.nodeGroup.remove(id)
	delete(m.nodes, id)

	removed := 0
	for _, s := range n.sockets {
		delete(m.sockets, s.identity)
		for _, c := range m.connectionsTouchingLocked(s.identity) {
			if m.removeConnectionLocked(c.id) {
				removed++
			}
		}
	}
	n.Destroy()
	m.mu.Unlock()

	m.surface.RenderGroup(NodeGroup)
	if removed > 0 {
		m.surface.RenderGroup(ConnectionGroup)
	}
	return true
}

// TranslateNode moves a node and marks its transform dirty for the next
// render pass. Persisted connections on its sockets follow it.
func (m *Manager) TranslateNode(id string, p geometry.Point) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	n, ok := m.nodes[id]
	if !ok {
		return false
	}
	n.Translate(p)

	ids := make([]domain.SocketIdentity, 0, len(n.sockets))
	for _, s := range n.sockets {
		ids = append(ids, s.identity)
	}
	m.recorder.ConnectionsRefreshed(m.refreshTouchingLocked(ids...))
	return true
}

// MarkRendered clears the dirty flag of every node. Surfaces call it after
// drawing a full pass.
func (m *Manager) MarkRendered() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range m.nodes {
		n.ClearDirty()
	}
}

// Resize recreates the background grid for a new surface size
func (m *Manager) Resize(width, height float64) {
	m.mu.Lock()
	m.clearLocked(GridGroup)
	m.grid = newGrid(width, height, m.gridBase, m.transform.Zoom)
	m.gridGroup.add(m.grid)
	m.mu.Unlock()

	m.surface.RenderGroup(GridGroup)
}

// clearLocked empties the given groups and the indexes that point into them
func (m *Manager) clearLocked(kinds ...GroupKind) {
	for _, kind := range kinds {
		switch kind {
		case NodeGroup:
			m.nodeGroup.clear()
			m.nodes = make(map[string]*Node)
			m.sockets = make(map[domain.SocketIdentity]*Socket)
		case ConnectionGroup:
			m.connGroup.clear()
			m.connections = make(map[domain.ConnectionIdentity]*Connection)
			m.interactive = nil
		case GridGroup:
			m.gridGroup.clear()
			m.grid = nil
		}
	}
}

// Close unsubscribes from the viewport stream and cancels any load in flight
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	if m.cancelLoad != nil {
		m.cancelLoad()
		m.cancelLoad = nil
	}
	stream, sub, done := m.stream, m.sub, m.subDone
	m.stream, m.sub = nil, nil
	m.mu.Unlock()

	if sub != nil {
		stream.Unsubscribe(sub)
		<-done
	}
}
