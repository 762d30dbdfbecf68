package domain

import (
	"testing"
)

func TestNewNodeRecord(t *testing.T) {
	t.Run("creates record with defaults", func(t *testing.T) {
		node := NewNodeRecord("n1", "v-docker")

		if node.ID != "n1" {
			t.Errorf("expected ID 'n1', got %s", node.ID)
		}
		if node.SchemaVariantID != "v-docker" {
			t.Errorf("expected variant 'v-docker', got %s", node.SchemaVariantID)
		}
		if node.Positions == nil {
			t.Error("expected Positions to be initialized")
		}
		if node.DisplayLabel() != "n1" {
			t.Errorf("expected label to fall back to ID, got %s", node.DisplayLabel())
		}
	})
}

func TestNodeRecordPositions(t *testing.T) {
	ctx1 := NewViewingContext(SchematicKindDeployment, "1")
	ctx2 := NewViewingContext(SchematicKindDeployment, "2")

	t.Run("position for known context", func(t *testing.T) {
		node := NewNodeRecord("n1", "v")
		node.SetPosition(ctx1, 10, 20)

		pos, ok := node.PositionFor(ctx1)
		if !ok {
			t.Fatal("expected position for ctx1")
		}
		if pos.X != 10 || pos.Y != 20 {
			t.Errorf("expected (10,20), got (%f,%f)", pos.X, pos.Y)
		}
	})

	t.Run("no position for other context", func(t *testing.T) {
		node := NewNodeRecord("n1", "v")
		node.SetPosition(ctx1, 10, 20)

		if _, ok := node.PositionFor(ctx2); ok {
			t.Error("expected no position for ctx2")
		}
	})

	t.Run("set replaces existing context", func(t *testing.T) {
		node := NewNodeRecord("n1", "v")
		node.SetPosition(ctx1, 10, 20)
		node.SetPosition(ctx1, 30, 40)

		if len(node.Positions) != 1 {
			t.Fatalf("expected 1 position, got %d", len(node.Positions))
		}
		pos, _ := node.PositionFor(ctx1)
		if pos.X != 30 || pos.Y != 40 {
			t.Errorf("expected (30,40), got (%f,%f)", pos.X, pos.Y)
		}
	})
}
