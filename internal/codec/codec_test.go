package codec

import (
	"bytes"
	"reflect"
	"strings"
	"testing"

	"schematic/internal/domain"
)

const sampleYAML = `
version: "1"
view:
  kind: deployment
  deployment_node_id: d1
variants:
  - id: v-service
    name: Service
    color: "#336699"
    sockets:
      - id: in
        name: Input
        kind: input
      - id: out
        name: Output
        kind: output
        provider: docker
        color: "#ff8800"
nodes:
  - id: api
    schema_variant_id: v-service
    label: API
    positions:
      - schematic_kind: deployment
        deployment_node_id: d1
        x: 10
        y: 20
  - id: db
    schema_variant_id: v-service
connections:
  - from: api.out
    to: db.in
`

func TestYAMLCodecParse(t *testing.T) {
	doc, err := NewYAMLCodec().Parse(strings.NewReader(sampleYAML))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if doc.View == nil || doc.View.String() != "deployment@d1" {
		t.Errorf("View = %v, want deployment@d1", doc.View)
	}
	if len(doc.Variants) != 1 || len(doc.Variants[0].Sockets) != 2 {
		t.Fatalf("Variants = %+v", doc.Variants)
	}
	if len(doc.Nodes) != 2 {
		t.Fatalf("len(Nodes) = %d, want 2", len(doc.Nodes))
	}
	if doc.Nodes[1].Positions == nil {
		t.Error("nodes without positions should get an empty slice")
	}
	pos, ok := doc.Nodes[0].PositionFor(domain.NewViewingContext(domain.SchematicKindDeployment, "d1"))
	if !ok || pos.X != 10 || pos.Y != 20 {
		t.Errorf("api position = %+v, %v", pos, ok)
	}

	want := *domain.NewConnectionRecord("api", "out", "db", "in")
	if len(doc.Connections) != 1 || doc.Connections[0] != want {
		t.Errorf("Connections = %+v, want %+v", doc.Connections, want)
	}
	if err := doc.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestYAMLCodecParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"malformed", "nodes: [\n"},
		{"bad from", "nodes: []\nconnections:\n  - from: api\n    to: db.in\n"},
		{"bad to", "nodes: []\nconnections:\n  - from: api.out\n    to: .in\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewYAMLCodec().Parse(strings.NewReader(tt.input)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestRoundTrip(t *testing.T) {
	original, err := NewYAMLCodec().Parse(strings.NewReader(sampleYAML))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	for _, format := range []string{"yaml", "json"} {
		t.Run(format, func(t *testing.T) {
			c, err := ForFormat(format)
			if err != nil {
				t.Fatalf("ForFormat(%q) error = %v", format, err)
			}

			var buf bytes.Buffer
			if err := c.Export(original, &buf); err != nil {
				t.Fatalf("Export() error = %v", err)
			}
			got, err := c.Parse(&buf)
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}

			if !reflect.DeepEqual(original.Schematic(), got.Schematic()) {
				t.Errorf("schematic changed:\n got %+v\nwant %+v", got.Schematic(), original.Schematic())
			}
			if !reflect.DeepEqual(original.Variants, got.Variants) {
				t.Errorf("variants changed:\n got %+v\nwant %+v", got.Variants, original.Variants)
			}
		})
	}
}

func TestYAMLExportUsesCompactConnections(t *testing.T) {
	s := domain.NewSchematic()
	s.AddNode(*domain.NewNodeRecord("a", "v"))
	s.AddConnection(*domain.NewConnectionRecord("a", "out", "b", "in"))

	var buf bytes.Buffer
	if err := NewYAMLCodec().Export(NewDocument(s, nil), &buf); err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "from: a.out") || !strings.Contains(out, "to: b.in") {
		t.Errorf("export missing compact connection:\n%s", out)
	}
	if !strings.Contains(out, `version: "1"`) {
		t.Errorf("export missing version:\n%s", out)
	}
}

func TestNewDocumentSortsVariants(t *testing.T) {
	catalog := domain.NewCatalog()
	for _, id := range []string{"zeta", "alpha", "mid"} {
		if err := catalog.Add(&domain.VariantDescriptor{ID: id}); err != nil {
			t.Fatal(err)
		}
	}

	doc := NewDocument(domain.NewSchematic(), catalog)

	var ids []string
	for _, v := range doc.Variants {
		ids = append(ids, v.ID)
	}
	if !reflect.DeepEqual(ids, []string{"alpha", "mid", "zeta"}) {
		t.Errorf("variant order = %v", ids)
	}
}

func TestDocumentValidate(t *testing.T) {
	doc, err := NewYAMLCodec().Parse(strings.NewReader(sampleYAML))
	if err != nil {
		t.Fatal(err)
	}
	doc.Nodes[1].SchemaVariantID = "v-unknown"

	if err := doc.Validate(); err == nil {
		t.Error("expected unknown variant error")
	}

	doc.Variants = nil
	if err := doc.Validate(); err != nil {
		t.Errorf("without variants the catalog is external, got %v", err)
	}
}

func TestForPath(t *testing.T) {
	tests := []struct {
		path    string
		want    string
		wantErr bool
	}{
		{"scene.yaml", "yaml", false},
		{"scene.YML", "yaml", false},
		{"dir/scene.json", "json", false},
		{"scene.toml", "", true},
		{"scene", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			c, err := ForPath(tt.path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ForPath() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && c.Format() != tt.want {
				t.Errorf("Format() = %q, want %q", c.Format(), tt.want)
			}
		})
	}
}
