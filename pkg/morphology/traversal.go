package morphology

// Walk visits every section of the tree rooted at root in pre-order
// (parent before children), pruning any subtree whose root exceeds the
// maximum branching order. Sibling order follows the section's child list,
// so repeated walks over the same tree visit sections in the same order;
// every pass of the pipeline relies on that to keep sample indices and
// radius assignment consistent.
//
// The walk uses an explicit stack rather than recursion so that very deep
// morphologies (thousands of sections on a long axon) cannot exhaust the
// goroutine stack.
func Walk(root *Section, maxBranchingOrder int, visit func(*Section)) {
	if root == nil {
		return
	}

	stack := []*Section{root}
	for len(stack) > 0 {
		section := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		// Sections past the branching order limit are excluded entirely,
		// children included.
		if section.BranchingOrder > maxBranchingOrder {
			continue
		}

		visit(section)

		// Push children in reverse so the first child is visited first.
		for i := len(section.Children) - 1; i >= 0; i-- {
			stack = append(stack, section.Children[i])
		}
	}
}

// CountSections returns the number of sections Walk would visit for the
// given branching order limit.
func CountSections(root *Section, maxBranchingOrder int) int {
	count := 0
	Walk(root, maxBranchingOrder, func(*Section) {
		count++
	})
	return count
}

// CountVisitedSamples returns the number of samples the pipeline processes
// for the given branching order limit: root sections contribute all their
// samples, non-root sections skip their first sample since it duplicates the
// parent's last one.
func CountVisitedSamples(root *Section, maxBranchingOrder int) int {
	count := 0
	Walk(root, maxBranchingOrder, func(section *Section) {
		n := len(section.Samples)
		if !section.IsRoot() && n > 0 {
			n--
		}
		count += n
	})
	return count
}
