package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"

	"golang.org/x/sync/errgroup"

	"schematic/internal/codec"
	"schematic/internal/domain"
	"schematic/internal/geometry"
	"schematic/internal/loader"
	"schematic/internal/repository"
	"schematic/internal/scene"
	"schematic/internal/surface"
	"schematic/internal/viewport"
)

var (
	// ErrNotFound is returned when a node, socket or connection is not in
	// the scene or the store
	ErrNotFound = errors.New("not found")

	// ErrConnectionExists is returned when creating a connection the scene
	// already has
	ErrConnectionExists = errors.New("connection already exists")

	// ErrInvalidViewport is returned for unusable zoom factors and sizes
	ErrInvalidViewport = errors.New("invalid viewport")

	// ErrInvalidContext is returned for a viewing context without a kind
	ErrInvalidContext = errors.New("invalid viewing context")

	// ErrNoDrag is returned when no connection drag is in progress
	ErrNoDrag = errors.New("no drag in progress")

	// ErrInvalidDocument is returned for imports that cannot be parsed or
	// fail validation
	ErrInvalidDocument = errors.New("invalid document")
)

// DragTarget is the destination identity of the connection that follows the
// pointer while a drag is in progress
const DragTarget = domain.SocketIdentity("pointer.drag")

// SceneService drives one live scene from the store. Mutations are
// persisted first and then applied to the scene.
type SceneService struct {
	repo     repository.Repository
	scene    *scene.Manager
	surface  *surface.FrameSurface
	stream   *viewport.Stream
	eventBus *EventBus

	mu         sync.Mutex
	view       domain.ViewingContext
	dragSource domain.SocketIdentity
}

// NewSceneService creates a scene service. The scene should already be
// bound to surface and subscribed to stream.
func NewSceneService(repo repository.Repository, m *scene.Manager, fs *surface.FrameSurface, stream *viewport.Stream, eventBus *EventBus, view domain.ViewingContext) *SceneService {
	return &SceneService{
		repo:     repo,
		scene:    m,
		surface:  fs,
		stream:   stream,
		eventBus: eventBus,
		view:     view,
	}
}

// View returns the viewing context scenes are loaded in
func (s *SceneService) View() domain.ViewingContext {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

// Frame renders the current scene without publishing it
func (s *SceneService) Frame() (surface.Frame, bool) {
	return s.surface.Current()
}

// Reload rebuilds the scene from the stored schematic. A reload overtaken
// by a newer one returns scene.ErrLoadSuperseded.
func (s *SceneService) Reload(ctx context.Context) error {
	schematic, err := s.repo.GetSchematic(ctx)
	if err != nil {
		return fmt.Errorf("failed to get schematic: %w", err)
	}

	s.mu.Lock()
	vc := s.view
	s.dragSource = ""
	s.mu.Unlock()

	if err := s.scene.LoadSceneData(ctx, schematic, vc); err != nil {
		if errors.Is(err, scene.ErrLoadSuperseded) {
			return err
		}
		var loadErr *scene.LoadError
		if errors.As(err, &loadErr) {
			s.eventBus.Publish(Event{
				Type: EventSceneFailed,
				Payload: map[string]string{
					"record": loadErr.Record,
					"id":     loadErr.ID,
					"error":  loadErr.Err.Error(),
				},
			})
		}
		return fmt.Errorf("failed to load scene: %w", err)
	}

	snap := s.scene.Snapshot()
	s.eventBus.Publish(Event{
		Type: EventSceneLoaded,
		Payload: map[string]any{
			"generation":  snap.Generation,
			"context":     vc,
			"nodes":       len(snap.Nodes),
			"connections": len(snap.Connections),
		},
	})
	return nil
}

// SwitchContext changes the viewing context and reloads the scene in it
func (s *SceneService) SwitchContext(ctx context.Context, vc domain.ViewingContext) error {
	if vc.Kind == "" {
		return ErrInvalidContext
	}

	s.mu.Lock()
	s.view = vc
	s.mu.Unlock()

	// Reported socket positions belong to the previous layout
	s.surface.ClearPositions()

	s.eventBus.Publish(Event{
		Type:    EventContextChanged,
		Payload: vc,
	})
	return s.Reload(ctx)
}

// ApplyViewport publishes a pan/zoom event to every scene on the stream
func (s *SceneService) ApplyViewport(ev viewport.Event) error {
	if !geometry.ValidZoom(ev.Zoom) {
		return fmt.Errorf("zoom %v: %w", ev.Zoom, ErrInvalidViewport)
	}
	s.stream.Publish(ev)
	return nil
}

// Resize changes the surface size and relays out the grid
func (s *SceneService) Resize(width, height float64) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("size %vx%v: %w", width, height, ErrInvalidViewport)
	}
	s.surface.SetSize(width, height)
	s.scene.Resize(width, height)
	return nil
}

// ReportLayout records where a client drew sockets and repositions the
// connections. It returns the number of connections updated.
func (s *SceneService) ReportLayout(positions map[string]geometry.Point) int {
	s.surface.ReportPositions(positions)
	n := s.scene.RefreshConnections()
	if n > 0 {
		s.surface.RenderGroup(scene.ConnectionGroup)
	}
	return n
}

// CreateConnection stores a connection between two sockets of the scene and
// draws it
func (s *SceneService) CreateConnection(ctx context.Context, src, dst domain.SocketIdentity) (domain.ConnectionIdentity, error) {
	snap := s.scene.Snapshot()
	srcView, ok := findSocket(snap, src)
	if !ok {
		return "", fmt.Errorf("socket %s: %w", src, ErrNotFound)
	}
	dstView, ok := findSocket(snap, dst)
	if !ok {
		return "", fmt.Errorf("socket %s: %w", dst, ErrNotFound)
	}

	color := ""
	md, err := s.repo.GetSocketMetadata(ctx, src)
	if err != nil {
		return "", fmt.Errorf("failed to get socket metadata: %w", err)
	}
	if md != nil {
		color = md.ProviderColor
	}

	conn := s.scene.CreateConnection(srcView.Anchor, dstView.Anchor, src, dst, color, false)
	if conn == nil {
		return "", ErrConnectionExists
	}

	rec := domain.NewConnectionRecord(src.NodeID(), src.SocketID(), dst.NodeID(), dst.SocketID())
	if err := s.repo.UpsertConnection(ctx, rec); err != nil {
		s.scene.RemoveConnection(conn.ID())
		return "", err
	}

	s.eventBus.Publish(Event{
		Type: EventConnectionCreated,
		Payload: map[string]string{
			"id":          string(conn.ID()),
			"source":      string(src),
			"destination": string(dst),
		},
	})
	return conn.ID(), nil
}

// RemoveConnection deletes a connection drawn in the scene
func (s *SceneService) RemoveConnection(ctx context.Context, id domain.ConnectionIdentity) error {
	if s.scene.Connection(id) == nil {
		return fmt.Errorf("connection %s: %w", id, ErrNotFound)
	}
	if err := s.repo.DeleteConnection(ctx, id); err != nil {
		return err
	}
	s.scene.RemoveConnection(id)

	s.eventBus.Publish(Event{
		Type:    EventConnectionDeleted,
		Payload: map[string]string{"id": string(id)},
	})
	return nil
}

// StartDrag begins dragging a new connection out of src. at is where the
// drag starts on the surface.
func (s *SceneService) StartDrag(src domain.SocketIdentity, at geometry.Point) (domain.ConnectionIdentity, error) {
	if s.scene.Socket(src) == nil {
		return "", fmt.Errorf("socket %s: %w", src, ErrNotFound)
	}

	// A drag out of the same socket has the same identity
	s.scene.CancelInteractive()
	conn := s.scene.CreateConnection(at, at, src, DragTarget, "", true)
	if conn == nil {
		return "", ErrConnectionExists
	}

	s.mu.Lock()
	s.dragSource = src
	s.mu.Unlock()
	return conn.ID(), nil
}

// MoveDrag moves the end of the dragged connection to the pointer
func (s *SceneService) MoveDrag(pointer geometry.Point) error {
	drag := s.scene.Interactive()
	if drag == nil {
		return ErrNoDrag
	}
	if !s.scene.UpdateConnectionInteractive(drag.ID(), pointer) {
		return ErrNoDrag
	}
	return nil
}

// CancelDrag drops the dragged connection
func (s *SceneService) CancelDrag() bool {
	s.mu.Lock()
	s.dragSource = ""
	s.mu.Unlock()
	return s.scene.CancelInteractive()
}

// FinishDrag drops the dragged connection and stores a real one from the
// drag's source to dst. When the connection cannot be made the drag is
// kept, so the pointer can still drop it on another socket.
func (s *SceneService) FinishDrag(ctx context.Context, dst domain.SocketIdentity) (domain.ConnectionIdentity, error) {
	s.mu.Lock()
	src := s.dragSource
	s.mu.Unlock()

	drag := s.scene.Interactive()
	if src == "" || drag == nil {
		return "", ErrNoDrag
	}
	if s.scene.Socket(dst) == nil {
		return "", fmt.Errorf("socket %s: %w", dst, ErrNotFound)
	}
	if s.scene.Connection(domain.NewConnectionIdentity(src, dst)) != nil {
		return "", ErrConnectionExists
	}

	start, end := drag.Endpoints()
	if !s.scene.CancelInteractive() {
		return "", ErrNoDrag
	}
	id, err := s.CreateConnection(ctx, src, dst)
	if err != nil {
		if s.scene.CreateConnection(start, end, src, DragTarget, "", true) == nil {
			s.clearDrag(src)
		}
		return "", err
	}
	s.clearDrag(src)
	return id, nil
}

// clearDrag forgets the drag source unless a newer drag replaced it
func (s *SceneService) clearDrag(src domain.SocketIdentity) {
	s.mu.Lock()
	if s.dragSource == src {
		s.dragSource = ""
	}
	s.mu.Unlock()
}

// MoveNode stores a node's position in the current context and moves it in
// the scene
func (s *SceneService) MoveNode(ctx context.Context, id string, p geometry.Point) error {
	n := s.scene.Node(id)
	if n == nil {
		return fmt.Errorf("node %s: %w", id, ErrNotFound)
	}

	vc := s.View()
	if err := s.repo.SavePositions(ctx, vc, map[string]geometry.Point{id: p}); err != nil {
		return err
	}

	// Reports for the node's sockets describe where it used to be
	var names []string
	for _, sock := range n.Sockets() {
		names = append(names, string(sock.Identity()))
	}
	s.surface.DropPositions(names...)

	s.scene.TranslateNode(id, p)
	s.surface.RenderGroup(scene.NodeGroup)
	s.surface.RenderGroup(scene.ConnectionGroup)

	s.eventBus.Publish(Event{
		Type:    EventNodeMoved,
		Payload: map[string]any{"id": id, "x": p.X, "y": p.Y, "context": vc},
	})
	return nil
}

// DeleteNode removes a node and its connections from the store and the scene
func (s *SceneService) DeleteNode(ctx context.Context, id string) error {
	if s.scene.Node(id) == nil {
		existing, err := s.repo.GetNode(ctx, id)
		if err != nil {
			return err
		}
		if existing == nil {
			return fmt.Errorf("node %s: %w", id, ErrNotFound)
		}
	}

	if err := s.repo.DeleteNode(ctx, id); err != nil {
		return err
	}
	s.scene.RemoveNode(id)

	s.eventBus.Publish(Event{
		Type:    EventNodeDeleted,
		Payload: map[string]string{"id": id},
	})
	return nil
}

// ImportResult summarizes an import
type ImportResult struct {
	Variants    int                   `json:"variants"`
	Nodes       int                   `json:"nodes"`
	Connections int                   `json:"connections"`
	Context     domain.ViewingContext `json:"context"`
}

// ImportDocument replaces the stored schematic with the document's, merges
// its variants into the catalog and reloads the scene. A document view
// becomes the current viewing context.
func (s *SceneService) ImportDocument(ctx context.Context, doc *codec.Document) (*ImportResult, error) {
	if err := doc.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	catalog, err := doc.Catalog()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	if len(catalog.Variants) > 0 {
		g.Go(func() error {
			return s.repo.ImportCatalog(gctx, catalog)
		})
	}
	g.Go(func() error {
		return s.repo.ImportSchematic(gctx, doc.Schematic())
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to import document: %w", err)
	}

	s.mu.Lock()
	if doc.View != nil && doc.View.Kind != "" {
		s.view = *doc.View
	}
	vc := s.view
	s.mu.Unlock()
	s.surface.ClearPositions()

	result := &ImportResult{
		Variants:    len(catalog.Variants),
		Nodes:       len(doc.Nodes),
		Connections: len(doc.Connections),
		Context:     vc,
	}
	s.eventBus.Publish(Event{
		Type:    EventDocumentImported,
		Payload: result,
	})

	if err := s.Reload(ctx); err != nil && !errors.Is(err, scene.ErrLoadSuperseded) {
		return result, err
	}
	return result, nil
}

// Import parses data in the given format and imports it
func (s *SceneService) Import(ctx context.Context, format string, data []byte) (*ImportResult, error) {
	c, err := codec.ForFormat(format)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	doc, err := loader.Parse(data, c)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	return s.ImportDocument(ctx, doc)
}

// ImportFile imports a snapshot file, choosing the format by extension
func (s *SceneService) ImportFile(ctx context.Context, path string) (*ImportResult, error) {
	doc, err := loader.LoadFile(path)
	if err != nil {
		return nil, err
	}
	result, err := s.ImportDocument(ctx, doc)
	if err != nil {
		return nil, err
	}
	log.Printf("Imported %s: %d variants, %d nodes, %d connections",
		path, result.Variants, result.Nodes, result.Connections)
	return result, nil
}

// ExportDocument builds a document from the store and the current context
func (s *SceneService) ExportDocument(ctx context.Context) (*codec.Document, error) {
	var (
		schematic *domain.Schematic
		variants  []*domain.VariantDescriptor
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		schematic, err = s.repo.GetSchematic(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		variants, err = s.repo.ListVariants(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to export document: %w", err)
	}

	catalog := domain.NewCatalog()
	for _, v := range variants {
		if err := catalog.Add(v); err != nil {
			return nil, err
		}
	}

	doc := codec.NewDocument(schematic, catalog)
	vc := s.View()
	doc.View = &vc
	return doc, nil
}

// Export writes the stored schematic in the given format
func (s *SceneService) Export(ctx context.Context, format string, w io.Writer) error {
	c, err := codec.ForFormat(format)
	if err != nil {
		return err
	}
	doc, err := s.ExportDocument(ctx)
	if err != nil {
		return err
	}
	return c.Export(doc, w)
}

func findSocket(snap scene.Snapshot, id domain.SocketIdentity) (scene.SocketView, bool) {
	for _, n := range snap.Nodes {
		if n.ID != id.NodeID() {
			continue
		}
		for _, sock := range n.Sockets {
			if sock.Identity == id {
				return sock, true
			}
		}
	}
	return scene.SocketView{}, false
}
