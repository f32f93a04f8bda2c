// Package mesh implements the mesh-object primitives the reconstruction
// pipeline consumes: conversion of a skeletal graph into a mesh object,
// the variable-radius skin modifier that inflates the graph into a solid
// tube surface, vertex smoothing, smooth shading and material assignment.
// These stand in for the equivalent operators of the host application and
// honor the same contracts.
package mesh

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"neuroskin/internal/models"
	"neuroskin/pkg/bmesh"
)

// ErrOperationFailed reports a mesh operator that could not run, usually
// because its preconditions were violated. The affected object must be
// discarded rather than attached to the scene tree.
var ErrOperationFailed = errors.New("mesh operation failed")

// DefaultTextureSpaceSize is the texture-space extent objects are created
// with before any normalization.
const DefaultTextureSpaceSize = 1.0

// Object is a mutable mesh object. Before ApplySkin it carries only the
// skeletal vertices and edges copied from a graph plus their per-vertex skin
// radii; afterwards it additionally carries the inflated tube surface.
// Imported objects carry surface geometry directly.
type Object struct {
	// Name identifies the object in the scene
	Name string

	// Vertices and Edges are the skeletal graph, indexed exactly as the
	// source graph so sample arbor indices stay valid
	Vertices []r3.Vec
	Edges    [][2]int

	// SkinRadii holds one radius pair per skeletal vertex, consumed by
	// ApplySkin. The two components allow elliptical tubes; the pipeline
	// always sets both to the same value.
	SkinRadii [][2]float64

	// SurfaceVertices, SurfaceTriangles and Normals describe the solid
	// surface. Triangles index into SurfaceVertices; Normals is parallel
	// to SurfaceVertices once ShadeSmooth has run.
	SurfaceVertices  []r3.Vec
	SurfaceTriangles [][3]int
	Normals          []r3.Vec

	// Material is the assigned shading material
	Material models.Material

	// SmoothShaded marks the object for interpolated-normal shading
	SmoothShaded bool

	// TextureSpaceSize is the per-axis texture-space extent used for
	// procedural texturing
	TextureSpaceSize [3]float64
}

// FromGraph converts a skeletal graph into a named mesh object. Skin radii
// are allocated zeroed; callers must set them before applying the skin.
func FromGraph(g *bmesh.Graph, name string) *Object {
	return &Object{
		Name:      name,
		Vertices:  g.Vertices(),
		Edges:     g.Edges(),
		SkinRadii: make([][2]float64, g.VertexCount()),
		TextureSpaceSize: [3]float64{
			DefaultTextureSpaceSize, DefaultTextureSpaceSize, DefaultTextureSpaceSize,
		},
	}
}

// SetSkinRadius sets the inflation radius pair of one skeletal vertex.
func (o *Object) SetSkinRadius(index int, rx, ry float64) error {
	if index < 0 || index >= len(o.SkinRadii) {
		return fmt.Errorf("%w: skin vertex %d out of range [0, %d)",
			ErrOperationFailed, index, len(o.SkinRadii))
	}
	o.SkinRadii[index] = [2]float64{rx, ry}
	return nil
}

// SkinRadius returns the inflation radius pair of one skeletal vertex.
func (o *Object) SkinRadius(index int) ([2]float64, error) {
	if index < 0 || index >= len(o.SkinRadii) {
		return [2]float64{}, fmt.Errorf("%w: skin vertex %d out of range [0, %d)",
			ErrOperationFailed, index, len(o.SkinRadii))
	}
	return o.SkinRadii[index], nil
}

// AssignMaterial sets the object's shading material.
func (o *Object) AssignMaterial(m models.Material) {
	o.Material = m
}

// SetTextureSpaceSize sets the per-axis texture-space extent.
func (o *Object) SetTextureSpaceSize(x, y, z float64) {
	o.TextureSpaceSize = [3]float64{x, y, z}
}

// ShadeSmooth recomputes area-weighted vertex normals over the surface and
// marks the object for smooth shading. Topology is unchanged.
func (o *Object) ShadeSmooth() {
	o.Normals = make([]r3.Vec, len(o.SurfaceVertices))
	for _, tri := range o.SurfaceTriangles {
		a := o.SurfaceVertices[tri[0]]
		b := o.SurfaceVertices[tri[1]]
		c := o.SurfaceVertices[tri[2]]
		// Cross product magnitude weighs the normal by triangle area.
		n := r3.Cross(r3.Sub(b, a), r3.Sub(c, a))
		for _, idx := range tri {
			o.Normals[idx] = r3.Add(o.Normals[idx], n)
		}
	}
	for i, n := range o.Normals {
		if norm := r3.Norm(n); norm > 0 {
			o.Normals[i] = r3.Scale(1/norm, n)
		}
	}
	o.SmoothShaded = true
}

// Smooth applies the given number of Laplacian smoothing iterations to the
// surface vertices: each iteration moves every vertex halfway towards the
// average of its edge-connected neighbours.
func (o *Object) Smooth(iterations int) error {
	if len(o.SurfaceVertices) == 0 {
		return fmt.Errorf("%w: smoothing requires a surface, apply the skin first",
			ErrOperationFailed)
	}

	neighbours := make([][]int, len(o.SurfaceVertices))
	seen := make(map[[2]int]bool)
	addEdge := func(a, b int) {
		if a > b {
			a, b = b, a
		}
		if seen[[2]int{a, b}] {
			return
		}
		seen[[2]int{a, b}] = true
		neighbours[a] = append(neighbours[a], b)
		neighbours[b] = append(neighbours[b], a)
	}
	for _, tri := range o.SurfaceTriangles {
		addEdge(tri[0], tri[1])
		addEdge(tri[1], tri[2])
		addEdge(tri[2], tri[0])
	}

	const factor = 0.5
	for iter := 0; iter < iterations; iter++ {
		smoothed := make([]r3.Vec, len(o.SurfaceVertices))
		for i, v := range o.SurfaceVertices {
			if len(neighbours[i]) == 0 {
				smoothed[i] = v
				continue
			}
			var sum r3.Vec
			for _, n := range neighbours[i] {
				sum = r3.Add(sum, o.SurfaceVertices[n])
			}
			average := r3.Scale(1/float64(len(neighbours[i])), sum)
			smoothed[i] = r3.Add(v, r3.Scale(factor, r3.Sub(average, v)))
		}
		o.SurfaceVertices = smoothed
	}
	return nil
}
