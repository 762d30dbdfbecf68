package repository

import (
	"context"

	"schematic/internal/domain"
	"schematic/internal/geometry"
)

// Repository defines data access for the variant catalog and the stored
// schematic. Lookups of missing records return nil with a nil error.
type Repository interface {
	// Catalog
	GetVariant(ctx context.Context, id string) (*domain.VariantDescriptor, error)
	ListVariants(ctx context.Context) ([]*domain.VariantDescriptor, error)
	UpsertVariant(ctx context.Context, v *domain.VariantDescriptor) error
	DeleteVariant(ctx context.Context, id string) error
	GetSocketMetadata(ctx context.Context, id domain.SocketIdentity) (*domain.SocketMetadata, error)

	// Schematic
	GetSchematic(ctx context.Context) (*domain.Schematic, error)
	GetNode(ctx context.Context, id string) (*domain.NodeRecord, error)
	UpsertNode(ctx context.Context, node *domain.NodeRecord) error
	DeleteNode(ctx context.Context, id string) error
	UpsertConnection(ctx context.Context, conn *domain.ConnectionRecord) error
	DeleteConnection(ctx context.Context, id domain.ConnectionIdentity) error

	// Layout persistence
	SavePositions(ctx context.Context, vc domain.ViewingContext, positions map[string]geometry.Point) error

	// Bulk operations
	ImportCatalog(ctx context.Context, catalog *domain.Catalog) error
	ImportSchematic(ctx context.Context, schematic *domain.Schematic) error

	// Close releases resources
	Close() error
}
