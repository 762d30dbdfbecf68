package sqlite

import (
	"context"
	"database/sql"
	"reflect"
	"testing"

	"schematic/internal/domain"
	"schematic/internal/geometry"
)

// ============================================================================
// Test Helpers
// ============================================================================

// newTestRepo creates an in-memory SQLite repository for testing
func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test repository: %v", err)
	}
	t.Cleanup(func() {
		repo.Close()
	})
	return repo
}

// assertNoError fails the test if err is not nil
func assertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// assertEqual fails the test if expected != actual
func assertEqual(t *testing.T, expected, actual interface{}) {
	t.Helper()
	if !reflect.DeepEqual(expected, actual) {
		t.Fatalf("expected %v, got %v", expected, actual)
	}
}

var (
	deploy1   = domain.NewViewingContext(domain.SchematicKindDeployment, "d1")
	component = domain.NewViewingContext(domain.SchematicKindComponent, "")
)

func serviceVariant() *domain.VariantDescriptor {
	return &domain.VariantDescriptor{
		ID:     "v-service",
		Name:   "Service",
		Color:  "#336699",
		Width:  160,
		Height: 0,
		Sockets: []domain.SocketDescriptor{
			{ID: "in", Name: "Input", Kind: domain.SocketKindInput, Arity: domain.SocketArityMany},
			{ID: "out", Name: "Output", Kind: domain.SocketKindOutput, Provider: "docker", Color: "#ff8800", OffsetX: 160, OffsetY: 40},
		},
	}
}

func sampleSchematic() *domain.Schematic {
	s := domain.NewSchematic()
	b := domain.NewNodeRecord("b", "v-service")
	b.Label = "Backend"
	b.SetPosition(deploy1, 300, 100)
	b.SetPosition(component, 10, 10)
	a := domain.NewNodeRecord("a", "v-service")
	a.SetPosition(deploy1, 0, 0)
	// b before a so order is not alphabetical
	s.AddNode(*b)
	s.AddNode(*a)
	s.AddConnection(*domain.NewConnectionRecord("a", "out", "b", "in"))
	s.AddConnection(*domain.NewConnectionRecord("b", "out", "ghost", "in"))
	return s
}

// ============================================================================
// Helper Function Tests
// ============================================================================

func TestNullConversions(t *testing.T) {
	tests := []struct {
		name string
		got  interface{}
		want interface{}
	}{
		{"null string", nullToString(sql.NullString{}), ""},
		{"valid string", nullToString(sql.NullString{String: "x", Valid: true}), "x"},
		{"empty to null", stringToNull(""), sql.NullString{}},
		{"zero float to null", floatToNull(0), sql.NullFloat64{}},
		{"float round trip", nullToFloat(floatToNull(2.5)), 2.5},
		{"null float", nullToFloat(sql.NullFloat64{}), 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertEqual(t, tt.want, tt.got)
		})
	}
}

func TestDSN(t *testing.T) {
	if got := dsn(":memory:"); got != "file::memory:?_pragma=foreign_keys(1)" {
		t.Errorf("memory dsn = %q", got)
	}
	if got := dsn("/tmp/x.db"); got != "file:/tmp/x.db?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)" {
		t.Errorf("file dsn = %q", got)
	}
}

// ============================================================================
// Catalog Tests
// ============================================================================

func TestVariantRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	assertNoError(t, repo.UpsertVariant(ctx, serviceVariant()))

	got, err := repo.GetVariant(ctx, "v-service")
	assertNoError(t, err)
	if got == nil {
		t.Fatal("expected variant, got nil")
	}
	assertEqual(t, serviceVariant(), got)
}

func TestGetVariantNotFound(t *testing.T) {
	repo := newTestRepo(t)

	got, err := repo.GetVariant(context.Background(), "missing")
	assertNoError(t, err)
	if got != nil {
		t.Errorf("expected nil, got %+v", got)
	}
}

func TestUpsertVariantReplacesSockets(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	assertNoError(t, repo.UpsertVariant(ctx, serviceVariant()))

	v := serviceVariant()
	v.Name = "Service v2"
	v.Sockets = v.Sockets[1:]
	assertNoError(t, repo.UpsertVariant(ctx, v))

	got, err := repo.GetVariant(ctx, "v-service")
	assertNoError(t, err)
	assertEqual(t, "Service v2", got.Name)
	assertEqual(t, 1, len(got.Sockets))
	assertEqual(t, "out", got.Sockets[0].ID)
}

func TestUpsertVariantRejectsInvalid(t *testing.T) {
	repo := newTestRepo(t)
	if err := repo.UpsertVariant(context.Background(), &domain.VariantDescriptor{}); err == nil {
		t.Error("expected error for variant without ID")
	}
}

func TestListAndDeleteVariants(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	catalog := domain.NewCatalog()
	assertNoError(t, catalog.Add(serviceVariant()))
	assertNoError(t, catalog.Add(&domain.VariantDescriptor{ID: "v-db", Name: "Database"}))
	assertNoError(t, repo.ImportCatalog(ctx, catalog))

	list, err := repo.ListVariants(ctx)
	assertNoError(t, err)
	assertEqual(t, 2, len(list))
	assertEqual(t, "v-db", list[0].ID)
	assertEqual(t, 0, len(list[0].Sockets))
	assertEqual(t, 2, len(list[1].Sockets))

	assertNoError(t, repo.DeleteVariant(ctx, "v-service"))
	list, err = repo.ListVariants(ctx)
	assertNoError(t, err)
	assertEqual(t, 1, len(list))

	var sockets int
	assertNoError(t, repo.db.QueryRow(`SELECT COUNT(*) FROM variant_sockets`).Scan(&sockets))
	assertEqual(t, 0, sockets)
}

func TestGetSocketMetadata(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	assertNoError(t, repo.UpsertVariant(ctx, serviceVariant()))
	assertNoError(t, repo.ImportSchematic(ctx, sampleSchematic()))

	tests := []struct {
		name string
		id   domain.SocketIdentity
		want *domain.SocketMetadata
	}{
		{"socket with provider", "a.out", &domain.SocketMetadata{Provider: "docker", ProviderColor: "#ff8800"}},
		{"socket without provider", "a.in", &domain.SocketMetadata{}},
		{"unknown socket", "a.nope", nil},
		{"unknown node", "ghost.in", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.GetSocketMetadata(ctx, tt.id)
			assertNoError(t, err)
			assertEqual(t, tt.want, got)
		})
	}
}

// ============================================================================
// Schematic Tests
// ============================================================================

func TestImportSchematicPreservesOrder(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	assertNoError(t, repo.ImportSchematic(ctx, sampleSchematic()))

	got, err := repo.GetSchematic(ctx)
	assertNoError(t, err)
	assertEqual(t, sampleSchematic(), got)
}

func TestImportSchematicReplaces(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	assertNoError(t, repo.ImportSchematic(ctx, sampleSchematic()))

	next := domain.NewSchematic()
	n := domain.NewNodeRecord("z", "v-service")
	n.SetPosition(deploy1, 1, 2)
	next.AddNode(*n)
	assertNoError(t, repo.ImportSchematic(ctx, next))

	got, err := repo.GetSchematic(ctx)
	assertNoError(t, err)
	assertEqual(t, 1, len(got.Nodes))
	assertEqual(t, 0, len(got.Connections))

	var positions int
	assertNoError(t, repo.db.QueryRow(`SELECT COUNT(*) FROM node_positions`).Scan(&positions))
	assertEqual(t, 1, positions)
}

func TestImportSchematicRejectsInvalid(t *testing.T) {
	repo := newTestRepo(t)
	s := domain.NewSchematic()
	s.AddNode(*domain.NewNodeRecord("a", ""))

	if err := repo.ImportSchematic(context.Background(), s); err == nil {
		t.Error("expected error for node without variant")
	}
}

func TestNodeCRUD(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	assertNoError(t, repo.ImportSchematic(ctx, sampleSchematic()))

	t.Run("get", func(t *testing.T) {
		got, err := repo.GetNode(ctx, "b")
		assertNoError(t, err)
		assertEqual(t, "Backend", got.Label)
		assertEqual(t, 2, len(got.Positions))
	})

	t.Run("get missing", func(t *testing.T) {
		got, err := repo.GetNode(ctx, "missing")
		assertNoError(t, err)
		if got != nil {
			t.Errorf("expected nil, got %+v", got)
		}
	})

	t.Run("upsert appends new nodes", func(t *testing.T) {
		c := domain.NewNodeRecord("c", "v-service")
		c.SetPosition(deploy1, 5, 5)
		assertNoError(t, repo.UpsertNode(ctx, c))

		s, err := repo.GetSchematic(ctx)
		assertNoError(t, err)
		assertEqual(t, "c", s.Nodes[len(s.Nodes)-1].ID)
	})

	t.Run("upsert rejects dotted ID", func(t *testing.T) {
		if err := repo.UpsertNode(ctx, domain.NewNodeRecord("db.primary", "v-service")); err == nil {
			t.Error("expected error for node ID containing the identity separator")
		}
		got, err := repo.GetNode(ctx, "db.primary")
		assertNoError(t, err)
		if got != nil {
			t.Errorf("expected nothing stored, got %+v", got)
		}
	})

	t.Run("upsert keeps position of existing node in order", func(t *testing.T) {
		b, err := repo.GetNode(ctx, "b")
		assertNoError(t, err)
		b.Label = "Renamed"
		assertNoError(t, repo.UpsertNode(ctx, b))

		s, err := repo.GetSchematic(ctx)
		assertNoError(t, err)
		assertEqual(t, "b", s.Nodes[0].ID)
		assertEqual(t, "Renamed", s.Nodes[0].Label)
	})

	t.Run("delete cascades", func(t *testing.T) {
		assertNoError(t, repo.DeleteNode(ctx, "b"))

		s, err := repo.GetSchematic(ctx)
		assertNoError(t, err)
		for _, n := range s.Nodes {
			if n.ID == "b" {
				t.Fatal("node b still stored")
			}
		}
		assertEqual(t, 0, len(s.Connections))
	})
}

func TestConnectionCRUD(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	conn := domain.NewConnectionRecord("a", "out", "b", "in")
	assertNoError(t, repo.UpsertConnection(ctx, conn))
	assertNoError(t, repo.UpsertConnection(ctx, conn))
	assertNoError(t, repo.UpsertConnection(ctx, domain.NewConnectionRecord("b", "out", "a", "in")))

	s, err := repo.GetSchematic(ctx)
	assertNoError(t, err)
	assertEqual(t, 2, len(s.Connections))
	assertEqual(t, conn.Identity(), s.Connections[0].Identity())

	assertNoError(t, repo.DeleteConnection(ctx, conn.Identity()))
	s, err = repo.GetSchematic(ctx)
	assertNoError(t, err)
	assertEqual(t, 1, len(s.Connections))
	assertEqual(t, "b", s.Connections[0].Source.NodeID)
}

func TestSavePositions(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	assertNoError(t, repo.ImportSchematic(ctx, sampleSchematic()))

	deploy2 := domain.NewViewingContext(domain.SchematicKindDeployment, "d2")
	assertNoError(t, repo.SavePositions(ctx, deploy1, map[string]geometry.Point{
		"a":       geometry.Pt(50, 60),
		"unknown": geometry.Pt(1, 1),
	}))
	assertNoError(t, repo.SavePositions(ctx, deploy2, map[string]geometry.Point{
		"a": geometry.Pt(7, 8),
	}))

	a, err := repo.GetNode(ctx, "a")
	assertNoError(t, err)
	p, ok := a.PositionFor(deploy1)
	if !ok {
		t.Fatal("missing deploy1 position")
	}
	assertEqual(t, geometry.Pt(50, 60), p.Point())
	p, ok = a.PositionFor(deploy2)
	if !ok {
		t.Fatal("missing deploy2 position")
	}
	assertEqual(t, geometry.Pt(7, 8), p.Point())

	unknown, err := repo.GetNode(ctx, "unknown")
	assertNoError(t, err)
	if unknown != nil {
		t.Error("SavePositions must not create nodes")
	}
}

func TestAddColumnIfNotExists(t *testing.T) {
	repo := newTestRepo(t)

	assertNoError(t, repo.addColumnIfNotExists("nodes", "notes", "TEXT"))
	// Second call is a no-op
	assertNoError(t, repo.addColumnIfNotExists("nodes", "notes", "TEXT"))

	_, err := repo.db.Exec(`UPDATE nodes SET notes = 'x'`)
	assertNoError(t, err)
}
