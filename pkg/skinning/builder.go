// Package skinning reconstructs a neuron's membrane mesh from its
// morphology skeleton using the skinning technique: every arbor is walked
// section by section into a skeletal curve graph, the graph is inflated
// into a variable-radius tube surface, and the surface is smoothed and
// shaded. The reconstructed meshes are not guaranteed to be watertight,
// but they capture the neuron's true per-sample geometry.
//
// The reconstruction process consists of several steps:
//  1. Verifying and repairing the morphology skeleton
//  2. Assigning per-arbor sample indices
//  3. Extruding the skeletal curve graph per arbor
//  4. Assigning true per-sample radii to the graph vertices
//  5. Applying the skin modifier, smoothing and shading the surface
package skinning

import (
	"errors"
	"fmt"
	"log/slog"

	"gonum.org/v1/gonum/spatial/r3"

	"neuroskin/internal/models"
	"neuroskin/pkg/bmesh"
	"neuroskin/pkg/config"
	"neuroskin/pkg/mesh"
	"neuroskin/pkg/morphology"
	"neuroskin/pkg/scene"
)

// somaBridgeOffset is the distance, in morphology length units, between the
// auxiliary root vertex of an arbor skeleton and the arbor's first sample.
// The auxiliary vertex bridges the small gap between the soma surface and
// the point the arbor becomes visible.
const somaBridgeOffset = 0.01

// reservedAuxiliaryVertices is the number of skeleton vertices that precede
// the first true sample when bridging with the offset vertex: the initial
// vertex and the offset extrusion. Sample indices therefore start at 2.
const reservedAuxiliaryVertices = 2

// Builder reconstructs the membrane mesh of one morphology. It drives the
// repair pass, the per-arbor skeletal curve construction, the radius
// assignment and the mesh finalization, attaching each finished arbor mesh
// back onto its morphology node.
type Builder struct {
	// morph is the morphology skeleton to reconstruct, mutated in place
	// by the repair pass
	morph *morphology.Morphology

	// cfg holds the loaded meshing options
	cfg *config.Config

	// scn receives the finished arbor meshes
	scn *scene.Scene

	log *slog.Logger
}

// NewBuilder creates a builder for the given morphology. A nil logger falls
// back to slog.Default.
func NewBuilder(morph *morphology.Morphology, cfg *config.Config, scn *scene.Scene, log *slog.Logger) *Builder {
	if log == nil {
		log = slog.Default()
	}
	return &Builder{
		morph: morph,
		cfg:   cfg,
		scn:   scn,
		log:   log,
	}
}

// VerifyMorphologySkeleton verifies and repairs the morphology if it
// contains any artifacts that would affect the reconstruction quality of
// the mesh. The filters applied here are specific to skinning; other
// builders may apply a different set.
func (b *Builder) VerifyMorphologySkeleton() error {
	// Remove the samples that lie inside the soma so every tube starts at
	// the point its arbor separates from the cell body.
	err := morphology.ApplyToMorphology(b.morph, morphology.RemoveSamplesInsideSoma, b.log)

	// Sharp edges are meshed as sampled. Smooth edges need resampling
	// first: the vertex smoothing filter applied after skinning causes
	// meshing artifacts on long uneven segments.
	if b.cfg.Meshing.Edges == config.EdgesSmooth {
		spacing := b.cfg.Meshing.ResampleSpacing
		if spacing <= 0 {
			spacing = morphology.DefaultResampleSpacing
		}
		if rerr := morphology.ApplyToMorphology(
			b.morph, morphology.ResampleSections(spacing), b.log); err == nil {
			err = rerr
		}
	}

	// Verify the connectivity of the arbors to the soma to flag the
	// disconnected ones, for example an axon emanating from a dendrite.
	if verr := morphology.ApplyToMorphology(
		b.morph, morphology.VerifyArborConnectivityToSoma, b.log); err == nil {
		err = verr
	}

	// Label the primary and secondary sections based on radii. Skinning
	// itself is agnostic to the labels.
	if lerr := morphology.ApplyToMorphology(
		b.morph, morphology.LabelPrimaryAndSecondarySections, b.log); err == nil {
		err = lerr
	}
	return err
}

// assignSampleIndices walks the pruned arbor tree pre-order and tags every
// visited sample with a strictly increasing arbor index, starting right
// after the auxiliary bridge vertices. A non-root section's first sample
// duplicates its parent's last sample and therefore inherits that sample's
// index instead of consuming a new one.
func assignSampleIndices(arbor *morphology.Arbor, maxBranchingOrder, firstIndex int) int {
	next := firstIndex
	morphology.Walk(arbor.Root, maxBranchingOrder, func(section *morphology.Section) {
		start := 0
		if !section.IsRoot() {
			if len(section.Samples) > 0 && section.Parent.LastSample() != nil {
				section.Samples[0].ArborIndex = section.Parent.LastSample().ArborIndex
			}
			start = 1
		}
		for _, sample := range section.Samples[min(start, len(section.Samples)):] {
			sample.ArborIndex = next
			next++
		}
	})
	return next - firstIndex
}

// extrudeSection extrudes the section along its samples from the first one
// to the last one. The starting vertex already exists in the graph: it is
// either the auxiliary bridge vertex (root sections) or the parent's distal
// vertex (child sections).
func extrudeSection(graph *bmesh.Graph, section *morphology.Section) error {
	for i := 0; i+1 < len(section.Samples); i++ {
		if err := graph.ExtrudeVertexTowardsPoint(
			section.Samples[i].ArborIndex, section.Samples[i+1].Point); err != nil {
			return err
		}
	}
	return nil
}

// extrudeArbor extrudes the given arbor section by section, pre-order,
// pruning subtrees past the branching order limit.
func extrudeArbor(graph *bmesh.Graph, arbor *morphology.Arbor, maxBranchingOrder int) error {
	var opErr error
	morphology.Walk(arbor.Root, maxBranchingOrder, func(section *morphology.Section) {
		if opErr != nil {
			return
		}
		opErr = extrudeSection(graph, section)
	})
	return opErr
}

// buildArborGraph creates the connected skeletal graph of one arbor: the
// auxiliary bridge vertices followed by one vertex per visited sample.
// An arbor without samples yields a minimal single-vertex graph and a
// diagnostic; the caller decides whether to continue.
func (b *Builder) buildArborGraph(arbor *morphology.Arbor, maxBranchingOrder int) (*bmesh.Graph, int, error) {
	graph := bmesh.CreateVertex()

	first := arbor.FirstSample()
	if first == nil {
		return graph, 0, fmt.Errorf("%w: arbor %q has no samples",
			morphology.ErrMalformedSkeleton, arbor.Label)
	}

	auxiliary := reservedAuxiliaryVertices
	if b.cfg.Meshing.BridgeFromSomaCentre {
		auxiliary = b.bridgeFromSomaCentre(graph, first.Point)
	} else {
		// Offset the auxiliary vertex slightly back from the first
		// sample along the direction from the origin, bridging the gap
		// between the soma surface and the arbor start.
		direction := first.Point
		if norm := r3.Norm(direction); norm > 0 {
			direction = r3.Scale(1/norm, direction)
		}
		p0 := r3.Sub(first.Point, r3.Scale(somaBridgeOffset, direction))

		if err := graph.ExtrudeVertexTowardsPoint(0, p0); err != nil {
			return graph, 0, err
		}
		if err := graph.ExtrudeVertexTowardsPoint(1, first.Point); err != nil {
			return graph, 0, err
		}
	}

	assignSampleIndices(arbor, maxBranchingOrder, auxiliary)
	if err := extrudeArbor(graph, arbor, maxBranchingOrder); err != nil {
		return graph, auxiliary, err
	}
	return graph, auxiliary, nil
}

// bridgeFromSomaCentre extrudes a chain of auxiliary vertices from the soma
// centre towards the arbor's first sample, ending on the sample itself.
// Returns the number of vertices preceding the first true sample index.
func (b *Builder) bridgeFromSomaCentre(graph *bmesh.Graph, first r3.Vec) int {
	samples := b.cfg.Meshing.BridgeSamples
	if samples < 2 {
		samples = 2
	}

	centre := b.morph.Soma.Centre
	step := r3.Scale(1/float64(samples), r3.Sub(first, centre))

	graph.MoveVertex(0, centre)
	for i := 1; i < samples; i++ {
		graph.ExtrudeVertexTowardsPoint(i-1, r3.Add(centre, r3.Scale(float64(i), step)))
	}
	// The final extrusion lands on the first sample itself, which takes
	// the next index after the auxiliary chain.
	graph.ExtrudeVertexTowardsPoint(samples-1, first)
	return samples
}

// updateSectionSamplesRadii updates the radii of the samples along a given
// section. Root sections include their first sample; non-root sections skip
// it, since its vertex belongs to the parent's distal sample.
func updateSectionSamplesRadii(obj *mesh.Object, section *morphology.Section) error {
	startingIndex := 0
	if !section.IsRoot() {
		startingIndex = 1
	}

	for i := startingIndex; i < len(section.Samples); i++ {
		radius := section.Samples[i].Radius
		if err := obj.SetSkinRadius(section.Samples[i].ArborIndex, radius, radius); err != nil {
			return err
		}
	}
	return nil
}

// updateArborSamplesRadii updates the radii of the samples of the entire
// arbor to match reality, replacing the temporary ones used during curve
// construction. Must run after the graph is converted to a mesh object and
// before the skin is applied.
func updateArborSamplesRadii(obj *mesh.Object, arbor *morphology.Arbor, maxBranchingOrder int) error {
	var opErr error
	morphology.Walk(arbor.Root, maxBranchingOrder, func(section *morphology.Section) {
		if opErr != nil {
			return
		}
		opErr = updateSectionSamplesRadii(obj, section)
	})
	return opErr
}

// CreateArborMesh creates the membrane mesh of one arbor: skeletal curve
// construction, radius assignment, skin application, smoothing, shading and
// material assignment. The finished mesh is linked into the scene and its
// handle returned. On failure nothing stays attached to the scene.
func (b *Builder) CreateArborMesh(arbor *morphology.Arbor, maxBranchingOrder int,
	name string, material models.Material) (scene.Handle, error) {

	graph, auxiliary, err := b.buildArborGraph(arbor, maxBranchingOrder)
	if err != nil {
		return 0, err
	}

	// Convert the skeletal graph to a mesh object and link it so it can
	// be activated. All mutation below happens on the active object.
	obj := mesh.FromGraph(graph, name)
	handle := b.scn.Link(obj)
	if err := b.scn.SetActiveObject(handle); err != nil {
		b.scn.Unlink(handle)
		return 0, fmt.Errorf("%w: %v", mesh.ErrOperationFailed, err)
	}

	if err := b.finalizeArborMesh(obj, arbor, maxBranchingOrder, auxiliary, material); err != nil {
		// A partially finalized mesh must not stay in the scene.
		b.scn.Unlink(handle)
		return 0, err
	}
	return handle, nil
}

// finalizeArborMesh seeds the auxiliary vertex radii, runs the radius
// assignment pass and applies skin, smoothing, shading and material.
func (b *Builder) finalizeArborMesh(obj *mesh.Object, arbor *morphology.Arbor,
	maxBranchingOrder, auxiliary int, material models.Material) error {

	first := arbor.FirstSample()

	// The auxiliary bridge vertices take the first sample's radius so the
	// tube meets the soma at full thickness.
	for i := 0; i < auxiliary; i++ {
		if err := obj.SetSkinRadius(i, first.Radius, first.Radius); err != nil {
			return err
		}
	}

	// Replace the temporary radii with the true per-sample radii before
	// the skin uses them. Ordering is a hard precondition of ApplySkin.
	if err := updateArborSamplesRadii(obj, arbor, maxBranchingOrder); err != nil {
		return err
	}

	if err := obj.ApplySkin(); err != nil {
		return err
	}
	if err := obj.Smooth(b.cfg.Meshing.SmoothIterations); err != nil {
		return err
	}
	obj.ShadeSmooth()
	obj.AssignMaterial(material)
	return nil
}

// BuildArbors builds the arbors of the neuron as skinned tubes: the apical
// dendrite, then the basal dendrites, then the axon, honoring the per-type
// ignore flags and branching order limits. One arbor's failure is reported
// and does not stop the remaining arbors.
func (b *Builder) BuildArbors() error {
	b.log.Info("building arbors", "morphology", b.morph.Label)

	var firstErr error
	build := func(arbor *morphology.Arbor, arborType models.ArborType, index, order int, material models.Material) {
		name := arborType.String()
		if arborType == models.BasalDendrite {
			name = fmt.Sprintf("%s_%d", arborType, index)
		}
		b.log.Info("building arbor", "arbor", name, "type", arborType)
		if arbor.Label == "" {
			arbor.Label = name
		}
		handle, err := b.CreateArborMesh(arbor, order, name, material)
		if err != nil {
			b.log.Warn("arbor reconstruction failed", "arbor", name, "err", err)
			if firstErr == nil {
				firstErr = err
			}
			return
		}
		arbor.MeshHandle = int(handle)
		b.reportArborStats(arbor, order)
	}

	if !b.cfg.Arbors.IgnoreApicalDendrite && b.morph.ApicalDendrite != nil {
		build(b.morph.ApicalDendrite, models.ApicalDendrite, 0,
			b.cfg.Arbors.ApicalDendriteBranchOrder,
			b.cfg.Materials.ApicalDendrites[0])
	}

	if !b.cfg.Arbors.IgnoreBasalDendrites {
		for i, dendrite := range b.morph.BasalDendrites {
			build(dendrite, models.BasalDendrite, i,
				b.cfg.Arbors.BasalDendritesBranchOrder,
				b.cfg.Materials.BasalDendrites[0])
		}
	}

	if !b.cfg.Arbors.IgnoreAxon && b.morph.Axon != nil {
		build(b.morph.Axon, models.Axon, 0,
			b.cfg.Arbors.AxonBranchOrder,
			b.cfg.Materials.Axon[0])
	}
	return firstErr
}

// ReconstructMesh runs the complete reconstruction pipeline: configuration
// validation, skeleton repair, then arbor building. Repair diagnostics do
// not abort the build; only a configuration problem does.
func (b *Builder) ReconstructMesh() error {
	if err := b.cfg.Validate(); err != nil {
		return fmt.Errorf("cannot reconstruct %q: %w", b.morph.Label, err)
	}

	b.log.Info("verifying morphology skeleton", "morphology", b.morph.Label)
	if err := b.VerifyMorphologySkeleton(); err != nil {
		if !errors.Is(err, morphology.ErrMalformedSkeleton) {
			return err
		}
		b.log.Warn("skeleton repair reported malformed arbors, continuing",
			"morphology", b.morph.Label, "err", err)
	}

	if err := b.BuildArbors(); err != nil {
		b.log.Warn("some arbors failed to build",
			"morphology", b.morph.Label, "err", err)
	}

	b.log.Info("done", "morphology", b.morph.Label)
	return nil
}
