package models

// ArborType identifies the kind of neurite an arbor represents
type ArborType int

const (
	// Axon is the single axonal arbor of the neuron
	Axon ArborType = iota

	// BasalDendrite is one of the basal dendritic arbors
	BasalDendrite

	// ApicalDendrite is the apical dendritic arbor, present in some
	// neuron types such as pyramidal cells
	ApicalDendrite
)

// Mesh name prefixes used when attaching reconstructed arbor meshes to the
// scene. Basal dendrites are suffixed with their index, e.g. "basal_dendrite_2".
const (
	AxonPrefix           = "axon"
	BasalDendritesPrefix = "basal_dendrite"
	ApicalDendritePrefix = "apical_dendrite"
)

// String returns the mesh name prefix for the arbor type
func (t ArborType) String() string {
	switch t {
	case Axon:
		return AxonPrefix
	case BasalDendrite:
		return BasalDendritesPrefix
	case ApicalDendrite:
		return ApicalDendritePrefix
	}
	return "unknown"
}

// Material describes the shading material assigned to a reconstructed mesh.
// The host engine owns the actual shader; this carries only the parameters
// the reconstruction pipeline decides on.
type Material struct {
	// Name identifies the material in the scene
	Name string

	// R, G, B, A are the base color components in the 0-1 range
	R, G, B, A float64
}

// Neuron represents a single neuron referenced by a batch import job.
// The GID (global identifier) is assigned by the upstream circuit tools
// and determines the expected asset filenames, e.g. "neuron_1042.obj".
type Neuron struct {
	// GID is the global identifier of the neuron within its circuit
	GID string

	// MembraneMeshes holds the scene handles of the loaded membrane
	// meshes for this neuron. Empty until the import pass runs, and
	// left empty if the asset file is missing.
	MembraneMeshes []int
}
