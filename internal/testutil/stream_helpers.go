package testutil

import (
	"context"

	"github.com/Belphemur/EpisodeHarvester/internal/models"
)

// Collect consumes a result stream until it is closed and returns the values in
// arrival order together with every error that was sent.
// This is a test helper and should not be used in production code.
func Collect[T any](ctx context.Context, stream <-chan models.StreamResult[T]) ([]T, []error) {
	var (
		values []T
		errs   []error
	)
	for {
		select {
		case result, ok := <-stream:
			if !ok {
				return values, errs
			}
			if result.Err != nil {
				errs = append(errs, result.Err)
			}
			values = append(values, result.Value)
		case <-ctx.Done():
			return values, append(errs, ctx.Err())
		}
	}
}
