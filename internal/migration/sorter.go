package migration

import "sort"

// SortSteps returns a new slice ordered by step number, numerically, with the
// directory name breaking ties. The input is left untouched.
func SortSteps(steps []StepDirectory) []StepDirectory {
	sorted := make([]StepDirectory, len(steps))
	copy(sorted, steps)

	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Number != sorted[j].Number {
			return sorted[i].Number < sorted[j].Number
		}

		return sorted[i].Name < sorted[j].Name
	})

	return sorted
}
