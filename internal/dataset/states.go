package dataset

import (
	"cmp"
	"slices"

	"github.com/jgoulah/ehrkpi/pkg/models"
)

// UniqueStates returns each distinct (state, state code, state FIPS) triple
// found in records exactly once, in the order it was first seen.
func UniqueStates(records []models.KPIRecord) []models.StateKey {
	seen := make(map[models.StateKey]struct{})
	var states []models.StateKey

	for _, r := range records {
		key := r.StateKey()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		states = append(states, key)
	}

	return states
}

// SortStates orders triples by state code, then state name, then FIPS.
func SortStates(states []models.StateKey) {
	slices.SortFunc(states, func(a, b models.StateKey) int {
		return cmp.Or(
			cmp.Compare(a.StateCode, b.StateCode),
			cmp.Compare(a.State, b.State),
			cmp.Compare(a.StateFIPS, b.StateFIPS),
		)
	})
}
