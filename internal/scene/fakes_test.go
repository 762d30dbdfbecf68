package scene

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"time"

	"schematic/internal/domain"
	"schematic/internal/geometry"
)

type fakeSurface struct {
	mu        sync.Mutex
	width     float64
	height    float64
	renderAll int
	groups    []GroupKind
	positions map[string]geometry.Point
}

func newFakeSurface() *fakeSurface {
	return &fakeSurface{width: 800, height: 600, positions: make(map[string]geometry.Point)}
}

func (s *fakeSurface) Size() (float64, float64) {
	return s.width, s.height
}

func (s *fakeSurface) RenderAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.renderAll++
}

func (s *fakeSurface) RenderGroup(kind GroupKind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.groups = append(s.groups, kind)
}

func (s *fakeSurface) GlobalPosition(name string) (geometry.Point, bool) {
	p, ok := s.positions[name]
	return p, ok
}

func (s *fakeSurface) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.renderAll = 0
	s.groups = nil
}

func (s *fakeSurface) renders() (int, []GroupKind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]GroupKind, len(s.groups))
	copy(out, s.groups)
	return s.renderAll, out
}

type countingRecorder struct {
	mu         sync.Mutex
	started    int
	finished   int
	failed     int
	superseded int
	duplicates int
}

func (r *countingRecorder) LoadStarted() { r.inc(&r.started) }
func (r *countingRecorder) LoadFinished(_, _, _ int, _ time.Duration) { r.inc(&r.finished) }
func (r *countingRecorder) LoadFailed() { r.inc(&r.failed) }
func (r *countingRecorder) LoadSuperseded() { r.inc(&r.superseded) }
func (r *countingRecorder) DuplicateRejected() { r.inc(&r.duplicates) }
func (r *countingRecorder) ConnectionsRefreshed(int) {}

func (r *countingRecorder) inc(p *int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	*p++
}

func (r *countingRecorder) get(p *int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return *p
}

var errBackend = errors.New("backend unavailable")

func testVariant() *domain.VariantDescriptor {
	return &domain.VariantDescriptor{
		ID:    "v-service",
		Name:  "Service",
		Color: "#336699",
		Sockets: []domain.SocketDescriptor{
			{ID: "in", Name: "Input", Kind: domain.SocketKindInput},
			{ID: "out", Name: "Output", Kind: domain.SocketKindOutput, Provider: "docker", Color: "#ff8800"},
		},
	}
}

func staticVariants() VariantResolver {
	return VariantResolverFunc(func(_ context.Context, id string) (*domain.VariantDescriptor, error) {
		v := testVariant()
		v.ID = id
		return v, nil
	})
}

func staticSockets(color string) SocketMetadataResolver {
	return SocketMetadataResolverFunc(func(_ context.Context, _ domain.SocketIdentity) (*domain.SocketMetadata, error) {
		return &domain.SocketMetadata{Provider: "docker", ProviderColor: color}, nil
	})
}

var (
	ctxDeploy1 = domain.NewViewingContext(domain.SchematicKindDeployment, "1")
	ctxDeploy2 = domain.NewViewingContext(domain.SchematicKindDeployment, "2")
)

// twoNodeSchematic has n1.out -> n2.in, both positioned in deployment 1
func twoNodeSchematic() *domain.Schematic {
	s := domain.NewSchematic()
	n1 := domain.NewNodeRecord("n1", "v-service")
	n1.SetPosition(ctxDeploy1, 0, 0)
	n2 := domain.NewNodeRecord("n2", "v-service")
	n2.SetPosition(ctxDeploy1, 300, 100)
	s.AddNode(*n1)
	s.AddNode(*n2)
	s.AddConnection(*domain.NewConnectionRecord("n1", "out", "n2", "in"))
	return s
}

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func newTestManager(surface *fakeSurface, opts ...Option) *Manager {
	opts = append([]Option{WithLogger(quietLogger())}, opts...)
	return NewManager(surface, staticVariants(), staticSockets("#ff8800"), opts...)
}
