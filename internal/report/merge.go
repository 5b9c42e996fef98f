package report

import (
	"slices"

	"github.com/Belphemur/EpisodeHarvester/internal/models"
)

// Merge flattens the rows of every partial and orders them by discovery index.
// The result does not depend on the order of partials.
func Merge(partials []models.Partial) []models.ResultRow {
	var rows []models.ResultRow
	for _, p := range partials {
		rows = append(rows, p.Rows...)
	}
	slices.SortStableFunc(rows, func(a, b models.ResultRow) int {
		return a.Index - b.Index
	})
	return rows
}

// Failures collects every item failure ordered by discovery index.
func Failures(partials []models.Partial) []models.ItemFailure {
	var failures []models.ItemFailure
	for _, p := range partials {
		failures = append(failures, p.Failures...)
	}
	slices.SortStableFunc(failures, func(a, b models.ItemFailure) int {
		return a.Index - b.Index
	})
	return failures
}
