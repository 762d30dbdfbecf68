package codec

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"schematic/internal/domain"
)

// DocumentVersion is written into exported documents
const DocumentVersion = "1"

// Document is the file form of a schematic together with the variants it
// uses and an optional default viewing context
type Document struct {
	Version     string                      `json:"version,omitempty"`
	View        *domain.ViewingContext      `json:"view,omitempty"`
	Variants    []*domain.VariantDescriptor `json:"variants,omitempty"`
	Nodes       []domain.NodeRecord         `json:"nodes"`
	Connections []domain.ConnectionRecord   `json:"connections"`
}

// NewDocument builds a document from a schematic and a catalog. Variants are
// sorted by ID so exports are stable. catalog may be nil.
func NewDocument(s *domain.Schematic, catalog *domain.Catalog) *Document {
	doc := &Document{
		Version:     DocumentVersion,
		Nodes:       s.Nodes,
		Connections: s.Connections,
	}
	if catalog != nil {
		for _, v := range catalog.Variants {
			doc.Variants = append(doc.Variants, v)
		}
		sort.Slice(doc.Variants, func(i, j int) bool {
			return doc.Variants[i].ID < doc.Variants[j].ID
		})
	}
	return doc
}

// Schematic returns the document's nodes and connections
func (d *Document) Schematic() *domain.Schematic {
	s := domain.NewSchematic()
	s.Nodes = append(s.Nodes, d.Nodes...)
	s.Connections = append(s.Connections, d.Connections...)
	return s
}

// Catalog returns the document's variants as a catalog
func (d *Document) Catalog() (*domain.Catalog, error) {
	c := domain.NewCatalog()
	for _, v := range d.Variants {
		if err := c.Add(v); err != nil {
			return nil, fmt.Errorf("variant %q: %w", v.ID, err)
		}
	}
	return c, nil
}

// Validate checks the schematic and that every node's variant is declared.
// Documents without variants rely on an external catalog and skip the
// second check.
func (d *Document) Validate() error {
	if err := d.Schematic().Validate(); err != nil {
		return err
	}
	if len(d.Variants) == 0 {
		return nil
	}
	catalog, err := d.Catalog()
	if err != nil {
		return err
	}
	for _, n := range d.Nodes {
		if _, ok := catalog.Get(n.SchemaVariantID); !ok {
			return fmt.Errorf("node %s: unknown variant %s", n.ID, n.SchemaVariantID)
		}
	}
	return nil
}

// normalize replaces missing node and position lists with empty ones
func (d *Document) normalize() {
	if d.Nodes == nil {
		d.Nodes = make([]domain.NodeRecord, 0)
	}
	if d.Connections == nil {
		d.Connections = make([]domain.ConnectionRecord, 0)
	}
	for i := range d.Nodes {
		if d.Nodes[i].Positions == nil {
			d.Nodes[i].Positions = make([]domain.PositionRecord, 0)
		}
	}
}

// Importer interface for reading schematic documents
type Importer interface {
	Parse(r io.Reader) (*Document, error)
	Format() string
}

// Exporter interface for writing schematic documents
type Exporter interface {
	Export(doc *Document, w io.Writer) error
	Format() string
}

// Codec both reads and writes one format
type Codec interface {
	Importer
	Exporter
}

// ForFormat returns the codec for a format name
func ForFormat(format string) (Codec, error) {
	switch strings.ToLower(format) {
	case "yaml", "yml":
		return NewYAMLCodec(), nil
	case "json":
		return NewJSONCodec(), nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

// ForPath picks a codec from a file extension
func ForPath(path string) (Codec, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return nil, fmt.Errorf("cannot infer format of %s", path)
	}
	return ForFormat(ext)
}
