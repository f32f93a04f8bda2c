package morphology

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// ErrMalformedSkeleton reports an arbor with no usable geometry: a missing
// root, a section with zero samples, or corrupted branching data.
var ErrMalformedSkeleton = errors.New("malformed skeleton")

// UnlimitedBranchingOrder walks the whole tree. Repair operations always use
// it: branching order limits only restrict meshing, they never delete data.
const UnlimitedBranchingOrder = math.MaxInt

// DefaultResampleSpacing is the target inter-sample distance, in morphology
// length units, used when resampling sections for smooth-edge meshing.
const DefaultResampleSpacing = 2.5

// ArborOperation mutates one arbor in place.
type ArborOperation func(m *Morphology, a *Arbor) error

// ApplyToMorphology applies op to every arbor of the morphology. A failure
// on one arbor is logged and does not stop processing of the remaining
// arbors; the first error is returned once all arbors have been visited.
func ApplyToMorphology(m *Morphology, op ArborOperation, log *slog.Logger) error {
	if log == nil {
		log = slog.Default()
	}

	var firstErr error
	for _, arbor := range m.Arbors() {
		if err := op(m, arbor); err != nil {
			log.Warn("skeleton operation failed, skipping arbor",
				"morphology", m.Label, "arbor", arbor.Label, "err", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// RemoveSamplesInsideSoma drops every sample of the arbor that lies strictly
// inside the soma sphere. Samples exactly on the soma surface are kept, and
// the last sample of each section always survives so no section is left
// empty. The removal is what lets the skin modifier start the tube at the
// point where the arbor visibly separates from the soma body.
func RemoveSamplesInsideSoma(m *Morphology, a *Arbor) error {
	if a == nil || a.Root == nil {
		return fmt.Errorf("%w: arbor has no root section", ErrMalformedSkeleton)
	}

	soma := m.Soma
	var opErr error
	Walk(a.Root, UnlimitedBranchingOrder, func(section *Section) {
		if len(section.Samples) == 0 {
			opErr = fmt.Errorf("%w: section %d has no samples",
				ErrMalformedSkeleton, section.ID)
			return
		}

		kept := section.Samples[:0]
		for i, sample := range section.Samples {
			inside := r3.Norm(r3.Sub(sample.Point, soma.Centre)) < soma.MeanRadius
			if inside && i != len(section.Samples)-1 {
				continue
			}
			kept = append(kept, sample)
		}
		section.Samples = kept
	})
	return opErr
}

// ResampleSections redistributes the samples of every section of the arbor
// at a fixed spacing along the section polyline. The first and last samples
// are preserved exactly, which keeps child sections consistent with their
// parents; intermediate positions and radii are interpolated linearly.
//
// Resampling is required before smooth-edge meshing: the vertex smoothing
// filter applied after skinning produces faceting artifacts on sections with
// long, uneven segments.
func ResampleSections(spacing float64) ArborOperation {
	return func(m *Morphology, a *Arbor) error {
		if a == nil || a.Root == nil {
			return fmt.Errorf("%w: arbor has no root section", ErrMalformedSkeleton)
		}
		if spacing <= 0 {
			return fmt.Errorf("resample spacing must be positive, got %g", spacing)
		}

		Walk(a.Root, UnlimitedBranchingOrder, func(section *Section) {
			resampleSection(section, spacing)
		})
		return nil
	}
}

// resampleSection rebuilds the sample list of one section at the target
// spacing. Sections shorter than one spacing step keep their endpoints only.
func resampleSection(section *Section, spacing float64) {
	if len(section.Samples) < 2 {
		return
	}

	length := section.Length()
	if length == 0 {
		return
	}

	steps := int(length / spacing)
	resampled := []*Sample{section.Samples[0]}
	for i := 1; i <= steps; i++ {
		distance := float64(i) * spacing
		if distance >= length {
			break
		}
		resampled = append(resampled, sampleAtDistance(section, distance))
	}
	resampled = append(resampled, section.Samples[len(section.Samples)-1])
	section.Samples = resampled
}

// sampleAtDistance interpolates a new sample at the given arc distance from
// the proximal end of the section.
func sampleAtDistance(section *Section, distance float64) *Sample {
	travelled := 0.0
	for i := 0; i+1 < len(section.Samples); i++ {
		a, b := section.Samples[i], section.Samples[i+1]
		segment := r3.Norm(r3.Sub(b.Point, a.Point))
		if segment == 0 {
			continue
		}
		if travelled+segment >= distance {
			t := (distance - travelled) / segment
			return &Sample{
				Point:  r3.Add(a.Point, r3.Scale(t, r3.Sub(b.Point, a.Point))),
				Radius: a.Radius + t*(b.Radius-a.Radius),
				ID:     a.ID,
			}
		}
		travelled += segment
	}
	return section.Samples[len(section.Samples)-1]
}

// VerifyArborConnectivityToSoma checks that the arbor emanates from the soma
// surface: its first sample must lie within half to twice the soma mean
// radius of the centre. Arbors outside that band, such as an axon that
// branches off a dendrite, are flagged as disconnected so downstream
// consumers can treat them separately; their geometry is left untouched.
func VerifyArborConnectivityToSoma(m *Morphology, a *Arbor) error {
	first := a.FirstSample()
	if first == nil {
		return fmt.Errorf("%w: arbor has no samples", ErrMalformedSkeleton)
	}

	distance := r3.Norm(r3.Sub(first.Point, m.Soma.Centre))
	a.ConnectedToSoma = distance >= m.Soma.MeanRadius/2 &&
		distance <= m.Soma.MeanRadius*2
	return nil
}

// LabelPrimaryAndSecondarySections marks, at every fork of the arbor, the
// child with the largest proximal radius as the primary continuation and all
// other children as secondary. When two children tie exactly, the first one
// in child order wins, so labeling is deterministic. Root sections are
// always primary. Skinning itself ignores the labels; downstream skeleton
// consumers rely on them.
func LabelPrimaryAndSecondarySections(m *Morphology, a *Arbor) error {
	if a == nil || a.Root == nil {
		return fmt.Errorf("%w: arbor has no root section", ErrMalformedSkeleton)
	}

	a.Root.Primary = true
	Walk(a.Root, UnlimitedBranchingOrder, func(section *Section) {
		best := -1
		bestRadius := math.Inf(-1)
		for i, child := range section.Children {
			child.Primary = false
			first := child.FirstSample()
			if first == nil {
				continue
			}
			// Strict comparison keeps the first sibling on ties.
			if first.Radius > bestRadius {
				best = i
				bestRadius = first.Radius
			}
		}
		if best >= 0 {
			section.Children[best].Primary = true
		}
	})
	return nil
}
