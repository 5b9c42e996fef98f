package pool

import (
	"fmt"
	"slices"
)

// Partition splits items into exactly k contiguous chunks of ceil(len(items)/k) elements.
// Trailing chunks take the remainder and may be empty.
func Partition[T any](items []T, k int) ([][]T, error) {
	if k < 1 {
		return nil, fmt.Errorf("worker count must be at least 1, got %d", k)
	}

	size := (len(items) + k - 1) / k
	chunks := make([][]T, k)
	for i := range chunks {
		start := min(i*size, len(items))
		end := min(start+size, len(items))
		chunks[i] = slices.Clip(items[start:end])
	}
	return chunks, nil
}
