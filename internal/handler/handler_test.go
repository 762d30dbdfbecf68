package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schematic/internal/domain"
	"schematic/internal/repository"
	"schematic/internal/repository/sqlite"
	"schematic/internal/scene"
	"schematic/internal/service"
	"schematic/internal/surface"
	"schematic/internal/viewport"
)

const testYAML = `
version: "1"
view:
  kind: deployment
  deployment_node_id: a
variants:
  - id: v-service
    name: Service
    sockets:
      - {id: in, name: Input, kind: input}
      - {id: out, name: Output, kind: output, provider: docker, color: "#ff8800"}
nodes:
  - id: n1
    schema_variant_id: v-service
    positions:
      - {schematic_kind: deployment, deployment_node_id: a, x: 0, y: 0}
  - id: n2
    schema_variant_id: v-service
    positions:
      - {schematic_kind: deployment, deployment_node_id: a, x: 300, y: 100}
connections:
  - {from: n1.out, to: n2.in}
`

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	repo, err := sqlite.New(":memory:")
	require.NoError(t, err)
	return newTestServerWithRepo(t, repo)
}

func newTestServerWithRepo(t *testing.T, repo repository.Repository) *httptest.Server {
	t.Helper()

	fs := surface.NewFrameSurface(800, 600, nil, nil)
	resolver := service.NewCatalogResolver(repo)
	m := scene.NewManager(fs, resolver, resolver, scene.WithLogger(log.New(io.Discard, "", 0)))
	fs.Bind(m)
	stream := viewport.NewStream()
	require.NoError(t, m.Subscribe(stream))

	svc := service.NewSceneService(repo, m, fs, stream, service.NewEventBus(),
		domain.NewViewingContext(domain.SchematicKindDeployment, "a"))

	mux := http.NewServeMux()
	NewSceneHandler(svc).Register(mux)
	srv := httptest.NewServer(Chain(mux, Recover, CORS("*"), Logger(nil)))

	t.Cleanup(func() {
		srv.Close()
		m.Close()
		stream.Close()
		repo.Close()
	})
	return srv
}

func do(t *testing.T, srv *httptest.Server, method, path, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, srv.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func importTestYAML(t *testing.T, srv *httptest.Server) {
	t.Helper()
	resp := do(t, srv, http.MethodPost, "/api/import/yaml", testYAML)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestGetScene(t *testing.T) {
	srv := newTestServer(t)

	resp := do(t, srv, http.MethodGet, "/api/scene", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	frame := decodeBody[surface.Frame](t, resp)
	assert.Equal(t, "empty", frame.State)
	assert.Empty(t, frame.Nodes)

	importTestYAML(t, srv)

	resp = do(t, srv, http.MethodGet, "/api/scene", "")
	frame = decodeBody[surface.Frame](t, resp)
	assert.Equal(t, "populated", frame.State)
	assert.Len(t, frame.Nodes, 2)
	require.Len(t, frame.Connections, 1)
	assert.Equal(t, "#ff8800", frame.Connections[0].Color)
}

func TestImport(t *testing.T) {
	srv := newTestServer(t)

	resp := do(t, srv, http.MethodPost, "/api/import/yaml", testYAML)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	result := decodeBody[service.ImportResult](t, resp)
	assert.Equal(t, 2, result.Nodes)
	assert.Equal(t, 1, result.Connections)

	tests := []struct {
		name   string
		path   string
		body   string
		status int
	}{
		{"unsupported format", "/api/import/toml", "x = 1", http.StatusBadRequest},
		{"malformed yaml", "/api/import/yaml", "nodes: [", http.StatusBadRequest},
		{"invalid document", "/api/import/json", `{"nodes":[{"id":"n1"}]}`, http.StatusBadRequest},
		{"dotted node ID", "/api/import/json", `{"nodes":[{"id":"a.b","schema_variant_id":"v"}]}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := do(t, srv, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.status, resp.StatusCode)
			errResp := decodeBody[ErrorResponse](t, resp)
			assert.NotEmpty(t, errResp.Error)
		})
	}
}

// brokenStore fails every schematic write
type brokenStore struct {
	*sqlite.Repository
}

func (brokenStore) ImportSchematic(context.Context, *domain.Schematic) error {
	return errors.New("database is locked")
}

func TestImport_StoreFailureIsServerError(t *testing.T) {
	repo, err := sqlite.New(":memory:")
	require.NoError(t, err)
	srv := newTestServerWithRepo(t, brokenStore{repo})

	resp := do(t, srv, http.MethodPost, "/api/import/yaml", testYAML)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	errResp := decodeBody[ErrorResponse](t, resp)
	assert.Contains(t, errResp.Details, "database is locked")

	// Bad input is still the client's fault
	resp = do(t, srv, http.MethodPost, "/api/import/yaml", "nodes: [")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestExport(t *testing.T) {
	srv := newTestServer(t)
	importTestYAML(t, srv)

	resp := do(t, srv, http.MethodGet, "/api/export/yaml", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/x-yaml", resp.Header.Get("Content-Type"))
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "from: n1.out")

	resp = do(t, srv, http.MethodGet, "/api/export/json", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "schematic.json")

	resp = do(t, srv, http.MethodGet, "/api/export/toml", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestConnections(t *testing.T) {
	srv := newTestServer(t)
	importTestYAML(t, srv)

	resp := do(t, srv, http.MethodPost, "/api/connections", `{"source":"n2.out","destination":"n1.in"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeBody[ConnectionResponse](t, resp)
	assert.Equal(t, domain.NewConnectionIdentity("n2.out", "n1.in"), created.ID)

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"duplicate", `{"source":"n2.out","destination":"n1.in"}`, http.StatusConflict},
		{"unknown socket", `{"source":"n9.out","destination":"n1.in"}`, http.StatusNotFound},
		{"missing destination", `{"source":"n1.out"}`, http.StatusBadRequest},
		{"malformed body", `{`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := do(t, srv, http.MethodPost, "/api/connections", tt.body)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}

	resp = do(t, srv, http.MethodDelete, "/api/connections/"+string(created.ID), "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp = do(t, srv, http.MethodDelete, "/api/connections/"+string(created.ID), "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDrag(t *testing.T) {
	srv := newTestServer(t)
	importTestYAML(t, srv)

	resp := do(t, srv, http.MethodDelete, "/api/drag", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = do(t, srv, http.MethodPost, "/api/drag", `{"source":"n2.out","x":440,"y":120}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = do(t, srv, http.MethodPut, "/api/drag", `{"x":10,"y":20}`)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = do(t, srv, http.MethodPost, "/api/drag/finish", `{"destination":"n1.in"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeBody[ConnectionResponse](t, resp)
	assert.Equal(t, domain.NewConnectionIdentity("n2.out", "n1.in"), created.ID)

	resp = do(t, srv, http.MethodPut, "/api/drag", `{"x":10,"y":20}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = do(t, srv, http.MethodPost, "/api/drag", `{"x":1,"y":1}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestNodes(t *testing.T) {
	srv := newTestServer(t)
	importTestYAML(t, srv)

	resp := do(t, srv, http.MethodPut, "/api/nodes/n1/position", `{"x":50,"y":60}`)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp = do(t, srv, http.MethodPut, "/api/nodes/n9/position", `{"x":50,"y":60}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = do(t, srv, http.MethodGet, "/api/scene", "")
	frame := decodeBody[surface.Frame](t, resp)
	require.Len(t, frame.Nodes, 2)
	assert.Equal(t, 50.0, frame.Nodes[0].Position.X)

	resp = do(t, srv, http.MethodDelete, "/api/nodes/n2", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp = do(t, srv, http.MethodDelete, "/api/nodes/n2", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = do(t, srv, http.MethodGet, "/api/scene", "")
	frame = decodeBody[surface.Frame](t, resp)
	assert.Len(t, frame.Nodes, 1)
	assert.Empty(t, frame.Connections)
}

func TestViewport(t *testing.T) {
	srv := newTestServer(t)
	importTestYAML(t, srv)

	resp := do(t, srv, http.MethodPost, "/api/viewport", `{"zoom":0}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = do(t, srv, http.MethodPost, "/api/viewport", `{"zoom":2,"offset_x":10,"offset_y":10}`)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Eventually(t, func() bool {
		resp := do(t, srv, http.MethodGet, "/api/scene", "")
		return decodeBody[surface.Frame](t, resp).Transform.Zoom == 2
	}, time.Second, 10*time.Millisecond)

	resp = do(t, srv, http.MethodPut, "/api/viewport/size", `{"width":400,"height":300}`)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp = do(t, srv, http.MethodPut, "/api/viewport/size", `{"width":-1,"height":300}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = do(t, srv, http.MethodGet, "/api/scene", "")
	frame := decodeBody[surface.Frame](t, resp)
	assert.Equal(t, 400.0, frame.Grid.Width)
}

func TestContextAndLayout(t *testing.T) {
	srv := newTestServer(t)
	importTestYAML(t, srv)

	resp := do(t, srv, http.MethodPut, "/api/scene/layout", `{"positions":{"n1.out":{"x":5,"y":5},"n2.in":{"x":50,"y":50}}}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, map[string]int{"refreshed": 1}, decodeBody[map[string]int](t, resp))

	resp = do(t, srv, http.MethodPut, "/api/scene/context", `{"kind":"component"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	frame := decodeBody[surface.Frame](t, resp)
	assert.Equal(t, domain.SchematicKindComponent, frame.Context.Kind)
	assert.Empty(t, frame.Nodes)

	resp = do(t, srv, http.MethodPut, "/api/scene/context", `{}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = do(t, srv, http.MethodPost, "/api/scene/reload", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
