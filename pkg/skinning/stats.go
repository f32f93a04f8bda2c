package skinning

import (
	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat"

	"neuroskin/pkg/morphology"
)

// ArborStats summarizes the geometry of one reconstructed arbor. The values
// describe the pruned skeleton actually meshed, not the full tree.
type ArborStats struct {
	// Sections and Samples count what the pruned walk visited
	Sections int
	Samples  int

	// MeanSegmentLength and SegmentLengthStdDev describe the distances
	// between consecutive samples, in morphology length units
	MeanSegmentLength   float64
	SegmentLengthStdDev float64

	// MeanRadius and RadiusStdDev describe the per-sample radii
	MeanRadius   float64
	RadiusStdDev float64

	// MaxBranchingOrder is the deepest order visited
	MaxBranchingOrder int
}

// CollectArborStats walks the pruned arbor and gathers its geometry
// statistics.
func CollectArborStats(arbor *morphology.Arbor, maxBranchingOrder int) ArborStats {
	var (
		stats    ArborStats
		segments []float64
		radii    []float64
	)

	morphology.Walk(arbor.Root, maxBranchingOrder, func(section *morphology.Section) {
		stats.Sections++
		if section.BranchingOrder > stats.MaxBranchingOrder {
			stats.MaxBranchingOrder = section.BranchingOrder
		}

		start := 0
		if !section.IsRoot() && len(section.Samples) > 0 {
			start = 1
		}
		stats.Samples += len(section.Samples) - start
		for _, sample := range section.Samples[start:] {
			radii = append(radii, sample.Radius)
		}
		for i := 0; i+1 < len(section.Samples); i++ {
			segments = append(segments,
				r3.Norm(r3.Sub(section.Samples[i+1].Point, section.Samples[i].Point)))
		}
	})

	if len(segments) > 0 {
		stats.MeanSegmentLength = stat.Mean(segments, nil)
		stats.SegmentLengthStdDev = stat.StdDev(segments, nil)
	}
	if len(radii) > 0 {
		stats.MeanRadius = stat.Mean(radii, nil)
		stats.RadiusStdDev = stat.StdDev(radii, nil)
	}
	return stats
}

// reportArborStats logs the geometry summary of a finished arbor.
func (b *Builder) reportArborStats(arbor *morphology.Arbor, maxBranchingOrder int) {
	s := CollectArborStats(arbor, maxBranchingOrder)
	b.log.Info("arbor reconstructed",
		"arbor", arbor.Label,
		"sections", s.Sections,
		"samples", s.Samples,
		"meanSegmentLength", s.MeanSegmentLength,
		"meanRadius", s.MeanRadius,
		"maxBranchingOrder", s.MaxBranchingOrder,
	)
}
