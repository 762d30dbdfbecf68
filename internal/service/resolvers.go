package service

import (
	"context"
	"fmt"

	"schematic/internal/domain"
	"schematic/internal/repository"
)

// CatalogResolver answers scene lookups from the repository
type CatalogResolver struct {
	repo repository.Repository
}

// NewCatalogResolver creates a resolver over repo
func NewCatalogResolver(repo repository.Repository) *CatalogResolver {
	return &CatalogResolver{repo: repo}
}

// ResolveVariant implements scene.VariantResolver
func (r *CatalogResolver) ResolveVariant(ctx context.Context, schemaVariantID string) (*domain.VariantDescriptor, error) {
	v, err := r.repo.GetVariant(ctx, schemaVariantID)
	if err != nil {
		return nil, fmt.Errorf("failed to get variant %s: %w", schemaVariantID, err)
	}
	return v, nil
}

// ResolveSocketMetadata implements scene.SocketMetadataResolver. A socket
// the catalog does not know has no metadata.
func (r *CatalogResolver) ResolveSocketMetadata(ctx context.Context, id domain.SocketIdentity) (*domain.SocketMetadata, error) {
	md, err := r.repo.GetSocketMetadata(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get socket metadata %s: %w", id, err)
	}
	return md, nil
}

// SnapshotResolver answers scene lookups from an in-memory catalog and the
// schematic being loaded. It is used where no database is open.
type SnapshotResolver struct {
	catalog   *domain.Catalog
	schematic *domain.Schematic
}

// NewSnapshotResolver creates a resolver over catalog and schematic
func NewSnapshotResolver(catalog *domain.Catalog, schematic *domain.Schematic) *SnapshotResolver {
	if catalog == nil {
		catalog = domain.NewCatalog()
	}
	return &SnapshotResolver{catalog: catalog, schematic: schematic}
}

// ResolveVariant implements scene.VariantResolver
func (r *SnapshotResolver) ResolveVariant(_ context.Context, schemaVariantID string) (*domain.VariantDescriptor, error) {
	v, _ := r.catalog.Get(schemaVariantID)
	return v, nil
}

// ResolveSocketMetadata implements scene.SocketMetadataResolver
func (r *SnapshotResolver) ResolveSocketMetadata(_ context.Context, id domain.SocketIdentity) (*domain.SocketMetadata, error) {
	if r.schematic == nil {
		return nil, nil
	}
	node, ok := r.schematic.Node(id.NodeID())
	if !ok {
		return nil, nil
	}
	v, ok := r.catalog.Get(node.SchemaVariantID)
	if !ok {
		return nil, nil
	}
	s, ok := v.Socket(id.SocketID())
	if !ok {
		return nil, nil
	}
	return s.Metadata(), nil
}
