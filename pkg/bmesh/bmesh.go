// Package bmesh provides the minimal editable vertex/edge graph the skinning
// pipeline extrudes skeletal curves into. The graph mirrors the edit-mode
// mesh of the host application: vertices are addressed by insertion index,
// and extrusion appends exactly one vertex and one edge without disturbing
// earlier indices.
package bmesh

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

// Graph is a vertex/edge graph under construction. A graph built purely by
// extrusion is always a tree: every new vertex is connected to exactly one
// existing vertex.
type Graph struct {
	vertices []r3.Vec
	edges    [][2]int
}

// CreateVertex returns a new graph holding a single vertex at the origin.
func CreateVertex() *Graph {
	return &Graph{vertices: []r3.Vec{{}}}
}

// VertexCount returns the number of vertices in the graph.
func (g *Graph) VertexCount() int {
	return len(g.vertices)
}

// EdgeCount returns the number of edges in the graph.
func (g *Graph) EdgeCount() int {
	return len(g.edges)
}

// Vertex returns the position of the vertex at the given index.
func (g *Graph) Vertex(index int) (r3.Vec, error) {
	if index < 0 || index >= len(g.vertices) {
		return r3.Vec{}, fmt.Errorf("vertex index %d out of range [0, %d)",
			index, len(g.vertices))
	}
	return g.vertices[index], nil
}

// Vertices returns a copy of the vertex positions in index order.
func (g *Graph) Vertices() []r3.Vec {
	out := make([]r3.Vec, len(g.vertices))
	copy(out, g.vertices)
	return out
}

// Edges returns a copy of the edge list. Each edge stores the lower-index
// endpoint first, which for extrusion-built graphs is always the parent
// vertex.
func (g *Graph) Edges() [][2]int {
	out := make([][2]int, len(g.edges))
	copy(out, g.edges)
	return out
}

// ExtrudeVertexTowardsPoint appends a new vertex at point p and an edge
// connecting it to the vertex at index. Existing vertex indices are
// preserved; the new vertex receives index VertexCount()-1 after the call.
func (g *Graph) ExtrudeVertexTowardsPoint(index int, p r3.Vec) error {
	if index < 0 || index >= len(g.vertices) {
		return fmt.Errorf("cannot extrude from vertex %d: index out of range [0, %d)",
			index, len(g.vertices))
	}
	g.vertices = append(g.vertices, p)
	g.edges = append(g.edges, [2]int{index, len(g.vertices) - 1})
	return nil
}

// MoveVertex repositions an existing vertex without changing topology.
func (g *Graph) MoveVertex(index int, p r3.Vec) error {
	if index < 0 || index >= len(g.vertices) {
		return fmt.Errorf("vertex index %d out of range [0, %d)",
			index, len(g.vertices))
	}
	g.vertices[index] = p
	return nil
}

// IsTree reports whether the graph is a connected tree: exactly one fewer
// edge than vertices, no dangling edge endpoints, and every vertex reachable
// from vertex 0.
func (g *Graph) IsTree() bool {
	if len(g.vertices) == 0 {
		return false
	}
	if len(g.edges) != len(g.vertices)-1 {
		return false
	}

	adjacency := make([][]int, len(g.vertices))
	for _, e := range g.edges {
		if e[0] < 0 || e[0] >= len(g.vertices) || e[1] < 0 || e[1] >= len(g.vertices) {
			return false
		}
		adjacency[e[0]] = append(adjacency[e[0]], e[1])
		adjacency[e[1]] = append(adjacency[e[1]], e[0])
	}

	visited := make([]bool, len(g.vertices))
	stack := []int{0}
	visited[0] = true
	reached := 1
	for len(stack) > 0 {
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, n := range adjacency[v] {
			if !visited[n] {
				visited[n] = true
				reached++
				stack = append(stack, n)
			}
		}
	}
	return reached == len(g.vertices)
}
