package codec

import (
	"fmt"
	"io"

	"schematic/internal/domain"

	"gopkg.in/yaml.v3"
)

// YAMLCodec handles YAML import/export. Connections are written in the
// compact "node.socket" form.
type YAMLCodec struct{}

// NewYAMLCodec creates a new YAML codec
func NewYAMLCodec() *YAMLCodec {
	return &YAMLCodec{}
}

// Format returns the codec format identifier
func (c *YAMLCodec) Format() string {
	return "yaml"
}

// yamlDocument represents the YAML structure of a document
type yamlDocument struct {
	Version     string                      `yaml:"version,omitempty"`
	View        *domain.ViewingContext      `yaml:"view,omitempty"`
	Variants    []*domain.VariantDescriptor `yaml:"variants,omitempty"`
	Nodes       []domain.NodeRecord         `yaml:"nodes"`
	Connections []yamlConnection            `yaml:"connections,omitempty"`
}

type yamlConnection struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// Parse imports a document from YAML
func (c *YAMLCodec) Parse(r io.Reader) (*Document, error) {
	var yd yamlDocument
	decoder := yaml.NewDecoder(r)
	if err := decoder.Decode(&yd); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	doc := &Document{
		Version:     yd.Version,
		View:        yd.View,
		Variants:    yd.Variants,
		Nodes:       yd.Nodes,
		Connections: make([]domain.ConnectionRecord, 0, len(yd.Connections)),
	}
	doc.normalize()

	for i, yc := range yd.Connections {
		srcNode, srcSocket, err := domain.ParseSocketIdentity(yc.From)
		if err != nil {
			return nil, fmt.Errorf("connection %d: from: %w", i, err)
		}
		dstNode, dstSocket, err := domain.ParseSocketIdentity(yc.To)
		if err != nil {
			return nil, fmt.Errorf("connection %d: to: %w", i, err)
		}
		doc.Connections = append(doc.Connections,
			*domain.NewConnectionRecord(srcNode, srcSocket, dstNode, dstSocket))
	}

	return doc, nil
}

// Export exports a document to YAML
func (c *YAMLCodec) Export(doc *Document, w io.Writer) error {
	yd := yamlDocument{
		Version:     doc.Version,
		View:        doc.View,
		Variants:    doc.Variants,
		Nodes:       doc.Nodes,
		Connections: make([]yamlConnection, 0, len(doc.Connections)),
	}
	if yd.Nodes == nil {
		yd.Nodes = make([]domain.NodeRecord, 0)
	}

	for _, conn := range doc.Connections {
		yd.Connections = append(yd.Connections, yamlConnection{
			From: string(conn.Source.Identity()),
			To:   string(conn.Destination.Identity()),
		})
	}

	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	defer encoder.Close()

	if err := encoder.Encode(&yd); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}

	return nil
}
