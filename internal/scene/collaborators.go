package scene

import (
	"context"
	"time"

	"schematic/internal/domain"
	"schematic/internal/geometry"
)

// VariantResolver looks up the variant descriptor of a schema variant
type VariantResolver interface {
	ResolveVariant(ctx context.Context, schemaVariantID string) (*domain.VariantDescriptor, error)
}

// SocketMetadataResolver looks up provider metadata for a socket
type SocketMetadataResolver interface {
	ResolveSocketMetadata(ctx context.Context, id domain.SocketIdentity) (*domain.SocketMetadata, error)
}

// VariantResolverFunc adapts a function to VariantResolver
type VariantResolverFunc func(ctx context.Context, schemaVariantID string) (*domain.VariantDescriptor, error)

// ResolveVariant calls f
func (f VariantResolverFunc) ResolveVariant(ctx context.Context, schemaVariantID string) (*domain.VariantDescriptor, error) {
	return f(ctx, schemaVariantID)
}

// SocketMetadataResolverFunc adapts a function to SocketMetadataResolver
type SocketMetadataResolverFunc func(ctx context.Context, id domain.SocketIdentity) (*domain.SocketMetadata, error)

// ResolveSocketMetadata calls f
func (f SocketMetadataResolverFunc) ResolveSocketMetadata(ctx context.Context, id domain.SocketIdentity) (*domain.SocketMetadata, error) {
	return f(ctx, id)
}

// Surface is the rendering surface the scene draws to.
//
// The manager never calls RenderAll or RenderGroup while holding its lock, so
// implementations may read the scene back (for example via Snapshot) from
// inside them. GlobalPosition is called with the lock held and must not call
// back into the manager.
type Surface interface {
	// Size returns the current viewport dimensions
	Size() (width, height float64)
	// RenderAll redraws the whole stage
	RenderAll()
	// RenderGroup redraws one group only
	RenderGroup(kind GroupKind)
	// GlobalPosition returns the outer-frame position of a named visual.
	// ok is false when the surface has no layout for it.
	GlobalPosition(name string) (p geometry.Point, ok bool)
}

// Recorder observes scene activity, typically for metrics
type Recorder interface {
	LoadStarted()
	LoadFinished(nodes, connections, skipped int, elapsed time.Duration)
	LoadFailed()
	LoadSuperseded()
	DuplicateRejected()
	ConnectionsRefreshed(n int)
}

type nopRecorder struct{}

func (nopRecorder) LoadStarted() {}
func (nopRecorder) LoadFinished(_, _, _ int, _ time.Duration) {}
func (nopRecorder) LoadFailed() {}
func (nopRecorder) LoadSuperseded() {}
func (nopRecorder) DuplicateRejected() {}
func (nopRecorder) ConnectionsRefreshed(int) {}
