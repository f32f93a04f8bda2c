package skinning

import (
	"math"
	"testing"

	"neuroskin/pkg/morphology"
)

// TestCollectArborStats verifies section, sample and segment accounting on
// the two-level test arbor: unit segments along x, the child's duplicated
// first sample counted once.
func TestCollectArborStats(t *testing.T) {
	arbor := testArbor("axon")

	s := CollectArborStats(arbor, morphology.UnlimitedBranchingOrder)

	if s.Sections != 2 {
		t.Errorf("Expected 2 sections, got %d", s.Sections)
	}
	if s.Samples != 5 {
		t.Errorf("Expected 5 visited samples, got %d", s.Samples)
	}
	if s.MaxBranchingOrder != 1 {
		t.Errorf("Expected max branching order 1, got %d", s.MaxBranchingOrder)
	}
	// All four segments are unit length
	if math.Abs(s.MeanSegmentLength-1) > 1e-12 {
		t.Errorf("Expected mean segment length 1, got %g", s.MeanSegmentLength)
	}
	if s.SegmentLengthStdDev > 1e-12 {
		t.Errorf("Expected zero segment length deviation, got %g", s.SegmentLengthStdDev)
	}
	// Visited radii: 0.5, 0.4, 0.3, 0.2, 0.1
	if math.Abs(s.MeanRadius-0.3) > 1e-12 {
		t.Errorf("Expected mean radius 0.3, got %g", s.MeanRadius)
	}
}

// TestCollectArborStatsPruned verifies that pruned subtrees contribute
// nothing.
func TestCollectArborStatsPruned(t *testing.T) {
	arbor := testArbor("axon")

	s := CollectArborStats(arbor, 0)

	if s.Sections != 1 {
		t.Errorf("Expected 1 section, got %d", s.Sections)
	}
	if s.Samples != 3 {
		t.Errorf("Expected 3 samples, got %d", s.Samples)
	}
	if s.MaxBranchingOrder != 0 {
		t.Errorf("Expected max branching order 0, got %d", s.MaxBranchingOrder)
	}
}
