// Package morphology defines the neuronal morphology skeleton model used by
// the reconstruction pipeline: samples, sections, arbors and the soma, plus
// the repair and traversal operations that prepare a skeleton for meshing.
package morphology

import (
	"gonum.org/v1/gonum/spatial/r3"
)

// Sample is a single measured point of the morphology skeleton: a 3D
// position with the local neurite radius at that position.
type Sample struct {
	// Point is the sample position in morphology space
	Point r3.Vec

	// Radius is the local neurite radius at the sample, always >= 0
	Radius float64

	// ID is the identity index assigned by the upstream parser
	ID int

	// ArborIndex addresses the vertex that corresponds to this sample in
	// the skeletal graph generated for its arbor. It is transient: valid
	// only between index assignment and mesh finalization of one arbor.
	ArborIndex int
}

// Section is an unbranched run of samples between two forks (or between the
// soma and the first fork). Sections form a tree: every section except an
// arbor root has exactly one parent, and the first sample of a non-root
// section duplicates the last sample of its parent.
type Section struct {
	// ID is the section identity assigned by the upstream parser
	ID int

	// Samples are ordered from the proximal end (closest to the soma) to
	// the distal end
	Samples []*Sample

	// Children are the sections that branch off the distal end, in the
	// order the parser emitted them. The order is stable and determines
	// traversal order everywhere in the pipeline.
	Children []*Section

	// Parent is nil for arbor roots
	Parent *Section

	// BranchingOrder is the generational depth from the arbor root,
	// root sections having order 0
	BranchingOrder int

	// Primary marks the thicker child at each fork after labeling;
	// arbor roots are always primary
	Primary bool
}

// IsRoot reports whether the section is the root of its arbor.
func (s *Section) IsRoot() bool {
	return s.Parent == nil
}

// FirstSample returns the proximal sample, or nil for an empty section.
func (s *Section) FirstSample() *Sample {
	if len(s.Samples) == 0 {
		return nil
	}
	return s.Samples[0]
}

// LastSample returns the distal sample, or nil for an empty section.
func (s *Section) LastSample() *Sample {
	if len(s.Samples) == 0 {
		return nil
	}
	return s.Samples[len(s.Samples)-1]
}

// Length returns the polyline length of the section along its samples.
func (s *Section) Length() float64 {
	total := 0.0
	for i := 0; i+1 < len(s.Samples); i++ {
		total += r3.Norm(r3.Sub(s.Samples[i+1].Point, s.Samples[i].Point))
	}
	return total
}

// AddChild appends a child section, fixing up its parent pointer and
// branching order.
func (s *Section) AddChild(child *Section) {
	child.Parent = s
	child.BranchingOrder = s.BranchingOrder + 1
	s.Children = append(s.Children, child)
}

// Arbor is one neurite tree (the axon or a dendrite) rooted at the soma.
type Arbor struct {
	// Root is the first section of the arbor
	Root *Section

	// Label names the arbor in diagnostics and mesh names,
	// e.g. "basal_dendrite_0"
	Label string

	// ConnectedToSoma records the result of the connectivity check of the
	// repair pass. Disconnected arbors are still meshed but flagged.
	ConnectedToSoma bool

	// MeshHandle is the scene handle of the reconstructed membrane mesh,
	// assigned after finalization succeeds. Zero means not built.
	MeshHandle int
}

// FirstSample returns the arbor's proximal sample, or nil for a degenerate
// arbor with no root or no samples.
func (a *Arbor) FirstSample() *Sample {
	if a == nil || a.Root == nil {
		return nil
	}
	return a.Root.FirstSample()
}

// Soma is the minimal cell-body representation the pipeline needs: enough
// geometry to decide which samples lie inside the cell body. The full soma
// surface is reconstructed elsewhere.
type Soma struct {
	// Centre is the soma centroid; morphologies are conventionally
	// centred at the origin
	Centre r3.Vec

	// MeanRadius is the mean distance from the centroid to the soma
	// profile points
	MeanRadius float64
}

// Morphology is a complete neuron skeleton: zero or one apical dendrite,
// any number of basal dendrites, zero or one axon, and the soma.
type Morphology struct {
	// Label names the morphology in diagnostics
	Label string

	Soma Soma

	ApicalDendrite *Arbor
	BasalDendrites []*Arbor
	Axon           *Arbor
}

// Arbors returns every non-nil arbor of the morphology in the processing
// order used by the builder: apical dendrite, basal dendrites, axon.
func (m *Morphology) Arbors() []*Arbor {
	var arbors []*Arbor
	if m.ApicalDendrite != nil {
		arbors = append(arbors, m.ApicalDendrite)
	}
	for _, d := range m.BasalDendrites {
		if d != nil {
			arbors = append(arbors, d)
		}
	}
	if m.Axon != nil {
		arbors = append(arbors, m.Axon)
	}
	return arbors
}
