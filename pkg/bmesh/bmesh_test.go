package bmesh

import (
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

// TestCreateVertex verifies the initial graph: one vertex at the origin,
// no edges.
func TestCreateVertex(t *testing.T) {
	g := CreateVertex()

	if g.VertexCount() != 1 {
		t.Fatalf("Expected 1 vertex, got %d", g.VertexCount())
	}
	if g.EdgeCount() != 0 {
		t.Fatalf("Expected 0 edges, got %d", g.EdgeCount())
	}
	v, err := g.Vertex(0)
	if err != nil {
		t.Fatalf("Vertex(0) failed: %v", err)
	}
	if v != (r3.Vec{}) {
		t.Errorf("Expected origin vertex, got %v", v)
	}
}

// TestExtrudeVertexTowardsPoint verifies that extrusion appends exactly one
// vertex and one edge and preserves earlier indices.
func TestExtrudeVertexTowardsPoint(t *testing.T) {
	g := CreateVertex()

	points := []r3.Vec{
		{X: 1},
		{X: 2},
		{X: 2, Y: 1},
	}
	for i, p := range points {
		if err := g.ExtrudeVertexTowardsPoint(i, p); err != nil {
			t.Fatalf("Extrusion %d failed: %v", i, err)
		}
	}

	if g.VertexCount() != 4 {
		t.Fatalf("Expected 4 vertices, got %d", g.VertexCount())
	}
	if g.EdgeCount() != 3 {
		t.Fatalf("Expected 3 edges, got %d", g.EdgeCount())
	}

	// Earlier indices still resolve to their original positions
	for i, expected := range points {
		v, err := g.Vertex(i + 1)
		if err != nil {
			t.Fatalf("Vertex(%d) failed: %v", i+1, err)
		}
		if v != expected {
			t.Errorf("Vertex %d: expected %v, got %v", i+1, expected, v)
		}
	}

	// Edges connect parent to appended vertex
	edges := g.Edges()
	for i, e := range edges {
		if e[0] != i || e[1] != i+1 {
			t.Errorf("Edge %d: expected [%d %d], got %v", i, i, i+1, e)
		}
	}
}

// TestExtrudeBranching verifies extrusion from an interior vertex, the
// shape every morphology fork produces.
func TestExtrudeBranching(t *testing.T) {
	g := CreateVertex()
	g.ExtrudeVertexTowardsPoint(0, r3.Vec{X: 1})
	g.ExtrudeVertexTowardsPoint(1, r3.Vec{X: 2})

	// Fork: extrude twice from vertex 1
	if err := g.ExtrudeVertexTowardsPoint(1, r3.Vec{X: 1, Y: 1}); err != nil {
		t.Fatalf("Branch extrusion failed: %v", err)
	}
	if err := g.ExtrudeVertexTowardsPoint(1, r3.Vec{X: 1, Y: -1}); err != nil {
		t.Fatalf("Branch extrusion failed: %v", err)
	}

	if g.VertexCount() != 5 {
		t.Fatalf("Expected 5 vertices, got %d", g.VertexCount())
	}
	if !g.IsTree() {
		t.Error("Extrusion-built graph must remain a tree")
	}
}

// TestExtrudeInvalidIndex verifies the out-of-range error path.
func TestExtrudeInvalidIndex(t *testing.T) {
	g := CreateVertex()

	testCases := []int{-1, 1, 100}
	for _, index := range testCases {
		if err := g.ExtrudeVertexTowardsPoint(index, r3.Vec{X: 1}); err == nil {
			t.Errorf("Expected error extruding from index %d", index)
		}
	}
	if g.VertexCount() != 1 || g.EdgeCount() != 0 {
		t.Error("Failed extrusion must not modify the graph")
	}
}

// TestMoveVertex verifies repositioning without topology change.
func TestMoveVertex(t *testing.T) {
	g := CreateVertex()
	g.ExtrudeVertexTowardsPoint(0, r3.Vec{X: 1})

	if err := g.MoveVertex(0, r3.Vec{X: -5}); err != nil {
		t.Fatalf("MoveVertex failed: %v", err)
	}
	v, _ := g.Vertex(0)
	if v.X != -5 {
		t.Errorf("Expected moved vertex at x=-5, got %g", v.X)
	}
	if g.EdgeCount() != 1 {
		t.Error("MoveVertex must not change topology")
	}

	if err := g.MoveVertex(7, r3.Vec{}); err == nil {
		t.Error("Expected error moving out-of-range vertex")
	}
}

// TestIsTree verifies the validation helper used by the builder tests.
func TestIsTree(t *testing.T) {
	t.Run("SingleVertex", func(t *testing.T) {
		if !CreateVertex().IsTree() {
			t.Error("A single vertex is a tree")
		}
	})

	t.Run("Chain", func(t *testing.T) {
		g := CreateVertex()
		for i := 0; i < 10; i++ {
			g.ExtrudeVertexTowardsPoint(i, r3.Vec{X: float64(i + 1)})
		}
		if !g.IsTree() {
			t.Error("A chain is a tree")
		}
	})

	t.Run("EmptyGraph", func(t *testing.T) {
		g := &Graph{}
		if g.IsTree() {
			t.Error("An empty graph is not a tree")
		}
	})
}
