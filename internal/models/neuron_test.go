package models

import "testing"

// TestArborTypeString verifies the mesh name prefix of every arbor type.
func TestArborTypeString(t *testing.T) {
	testCases := []struct {
		arborType ArborType
		expected  string
	}{
		{Axon, AxonPrefix},
		{BasalDendrite, BasalDendritesPrefix},
		{ApicalDendrite, ApicalDendritePrefix},
		{ArborType(99), "unknown"},
	}

	for _, tc := range testCases {
		if got := tc.arborType.String(); got != tc.expected {
			t.Errorf("ArborType(%d): expected %q, got %q",
				tc.arborType, tc.expected, got)
		}
	}
}
