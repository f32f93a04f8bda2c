package morphology

import (
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

// buildTestTree creates a small three-level section tree:
//
//	root (order 0, 3 samples)
//	├── childA (order 1, 3 samples)
//	│   └── grandchild (order 2, 2 samples)
//	└── childB (order 1, 4 samples)
//
// Every child's first sample duplicates its parent's last sample, as the
// morphology parsers guarantee.
func buildTestTree() *Section {
	root := &Section{ID: 1, Samples: []*Sample{
		{Point: r3.Vec{X: 1}, Radius: 1.0, ID: 0},
		{Point: r3.Vec{X: 2}, Radius: 0.9, ID: 1},
		{Point: r3.Vec{X: 3}, Radius: 0.8, ID: 2},
	}}

	childA := &Section{ID: 2, Samples: []*Sample{
		{Point: r3.Vec{X: 3}, Radius: 0.8, ID: 2},
		{Point: r3.Vec{X: 4, Y: 1}, Radius: 0.6, ID: 3},
		{Point: r3.Vec{X: 5, Y: 2}, Radius: 0.5, ID: 4},
	}}
	root.AddChild(childA)

	grandchild := &Section{ID: 4, Samples: []*Sample{
		{Point: r3.Vec{X: 5, Y: 2}, Radius: 0.5, ID: 4},
		{Point: r3.Vec{X: 6, Y: 3}, Radius: 0.4, ID: 5},
	}}
	childA.AddChild(grandchild)

	childB := &Section{ID: 3, Samples: []*Sample{
		{Point: r3.Vec{X: 3}, Radius: 0.8, ID: 2},
		{Point: r3.Vec{X: 4, Y: -1}, Radius: 0.7, ID: 6},
		{Point: r3.Vec{X: 5, Y: -2}, Radius: 0.6, ID: 7},
		{Point: r3.Vec{X: 6, Y: -3}, Radius: 0.5, ID: 8},
	}}
	root.AddChild(childB)

	return root
}

// TestWalkOrder verifies the pre-order guarantee: parents before children,
// siblings in child list order, and the same order on repeated walks.
func TestWalkOrder(t *testing.T) {
	root := buildTestTree()

	var order []int
	Walk(root, UnlimitedBranchingOrder, func(s *Section) {
		order = append(order, s.ID)
	})

	expected := []int{1, 2, 4, 3}
	if len(order) != len(expected) {
		t.Fatalf("Expected %d sections visited, got %d", len(expected), len(order))
	}
	for i := range expected {
		if order[i] != expected[i] {
			t.Errorf("Visit %d: expected section %d, got %d", i, expected[i], order[i])
		}
	}

	// A second walk must produce the identical order
	var second []int
	Walk(root, UnlimitedBranchingOrder, func(s *Section) {
		second = append(second, s.ID)
	})
	for i := range order {
		if order[i] != second[i] {
			t.Fatalf("Repeated walk diverged at visit %d: %d vs %d", i, order[i], second[i])
		}
	}
}

// TestWalkPruning verifies that sections past the branching order limit are
// excluded entirely, children included.
func TestWalkPruning(t *testing.T) {
	root := buildTestTree()

	testCases := []struct {
		maxOrder int
		expected []int
	}{
		{0, []int{1}},
		{1, []int{1, 2, 3}},
		{2, []int{1, 2, 4, 3}},
	}

	for _, tc := range testCases {
		var order []int
		Walk(root, tc.maxOrder, func(s *Section) {
			order = append(order, s.ID)
		})
		if len(order) != len(tc.expected) {
			t.Errorf("maxOrder=%d: expected %v, got %v", tc.maxOrder, tc.expected, order)
			continue
		}
		for i := range tc.expected {
			if order[i] != tc.expected[i] {
				t.Errorf("maxOrder=%d: expected %v, got %v", tc.maxOrder, tc.expected, order)
				break
			}
		}

		// No visited section may exceed the limit
		Walk(root, tc.maxOrder, func(s *Section) {
			if s.BranchingOrder > tc.maxOrder {
				t.Errorf("maxOrder=%d: visited section %d with order %d",
					tc.maxOrder, s.ID, s.BranchingOrder)
			}
		})
	}
}

// TestWalkNilRoot verifies that walking a nil root is a no-op.
func TestWalkNilRoot(t *testing.T) {
	called := false
	Walk(nil, UnlimitedBranchingOrder, func(*Section) {
		called = true
	})
	if called {
		t.Error("Walk of nil root should not visit anything")
	}
}

// TestCountVisitedSamples verifies the sample accounting rule: root
// sections contribute all samples, non-root sections skip their first.
func TestCountVisitedSamples(t *testing.T) {
	root := buildTestTree()

	testCases := []struct {
		maxOrder int
		expected int
	}{
		// root contributes 3
		{0, 3},
		// + childA samples[1:] (2) + childB samples[1:] (3)
		{1, 8},
		// + grandchild samples[1:] (1)
		{2, 9},
	}

	for _, tc := range testCases {
		got := CountVisitedSamples(root, tc.maxOrder)
		if got != tc.expected {
			t.Errorf("maxOrder=%d: expected %d visited samples, got %d",
				tc.maxOrder, tc.expected, got)
		}
	}
}

// TestSectionLength verifies polyline length accumulation.
func TestSectionLength(t *testing.T) {
	section := &Section{Samples: []*Sample{
		{Point: r3.Vec{}},
		{Point: r3.Vec{X: 3}},
		{Point: r3.Vec{X: 3, Y: 4}},
	}}
	if got := section.Length(); got != 7 {
		t.Errorf("Expected length 7, got %g", got)
	}
}
