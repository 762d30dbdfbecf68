package scene

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schematic/internal/domain"
	"schematic/internal/geometry"
)

func TestNewNode_AutoLayout(t *testing.T) {
	rec := domain.NewNodeRecord("n1", "v-service")
	n := NewNode(rec, testVariant(), domain.NewPositionRecord(ctxDeploy1, 10, 5))

	assert.Equal(t, geometry.Pt(10, 5), n.Position())
	assert.Equal(t, geometry.Rect{Min: geometry.Pt(10, 5), W: 140, H: 100}, n.Bounds())
	require.Len(t, n.Sockets(), 2)
	assert.Equal(t, geometry.Pt(10, 25), n.Socket("in").Anchor())
	assert.Equal(t, geometry.Pt(150, 25), n.Socket("out").Anchor())
	assert.Equal(t, domain.SocketIdentity("n1.out"), n.Socket("out").Identity())
	assert.Same(t, n, n.Socket("in").Node())
	assert.Nil(t, n.Socket("missing"))
	assert.True(t, n.Dirty(), "new nodes need a first render")
}

func TestNewNode_ExplicitOffsetsAndSize(t *testing.T) {
	variant := &domain.VariantDescriptor{
		ID: "v-box",
		Sockets: []domain.SocketDescriptor{
			{ID: "a", Kind: domain.SocketKindInput, OffsetX: 0, OffsetY: 50},
			{ID: "b", Kind: domain.SocketKindOutput, OffsetX: 200, OffsetY: 50},
		},
	}
	pos := domain.NewPositionRecord(ctxDeploy1, 0, 0)
	pos.Width, pos.Height = 200, 100

	n := NewNode(domain.NewNodeRecord("box", "v-box"), variant, pos)

	assert.Equal(t, geometry.Pt(0, 50), n.Socket("a").Anchor())
	assert.Equal(t, geometry.Pt(200, 50), n.Socket("b").Anchor())
	assert.Equal(t, 200.0, n.Bounds().W)
}

func TestNode_TranslateMovesSockets(t *testing.T) {
	n := NewNode(domain.NewNodeRecord("n1", "v-service"), testVariant(), domain.NewPositionRecord(ctxDeploy1, 0, 0))
	n.ClearDirty()

	n.Translate(geometry.Pt(100, 100))

	assert.True(t, n.Dirty())
	assert.Equal(t, geometry.Pt(240, 120), n.Socket("out").Anchor())
}

func TestGroup_RemoveAndClear(t *testing.T) {
	g := newGroup(NodeGroup)
	a := NewNode(domain.NewNodeRecord("a", "v"), testVariant(), domain.NewPositionRecord(ctxDeploy1, 0, 0))
	b := NewNode(domain.NewNodeRecord("b", "v"), testVariant(), domain.NewPositionRecord(ctxDeploy1, 0, 0))
	g.add(a)
	g.add(b)

	v, ok := g.remove("a")
	require.True(t, ok)
	assert.Same(t, a, v)
	assert.False(t, a.Destroyed(), "remove only detaches")
	_, ok = g.remove("a")
	assert.False(t, ok)

	assert.Equal(t, 1, g.clear())
	assert.True(t, b.Destroyed())
	assert.Equal(t, 0, g.Len())
}
