package pool

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/getsentry/sentry-go"

	"github.com/Belphemur/EpisodeHarvester/internal/apperrors"
	"github.com/Belphemur/EpisodeHarvester/internal/config"
	"github.com/Belphemur/EpisodeHarvester/internal/metrics"
	"github.com/Belphemur/EpisodeHarvester/internal/models"
)

// ErrNothingToDispatch is returned when a pool is started without chunks.
var ErrNothingToDispatch = errors.New("no chunks to dispatch")

// WorkerFunc processes one chunk. An error means the worker could not do its job at
// all (for example its session could not be created); item failures belong in the Partial.
type WorkerFunc func(ctx context.Context, workerID int, chunk []models.DiscoveredItem) (models.Partial, error)

// Pool runs one goroutine per chunk and degrades crashed workers to empty partials.
type Pool struct {
	hub *sentry.Hub
}

// New creates a pool reporting worker crashes to hub. A nil hub uses sentry.CurrentHub().
func New(hub *sentry.Hub) *Pool {
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	return &Pool{hub: hub}
}

// Stream dispatches every chunk concurrently and emits each worker's partial as it
// finishes. The channel is closed once every worker has terminated. A single error result
// is sent when nothing could be dispatched.
func (p *Pool) Stream(ctx context.Context, chunks [][]models.DiscoveredItem, run WorkerFunc) <-chan models.StreamResult[models.Partial] {
	ch := make(chan models.StreamResult[models.Partial], len(chunks)+1)

	if len(chunks) == 0 {
		ch <- models.StreamResult[models.Partial]{Err: ErrNothingToDispatch}
		close(ch)
		return ch
	}
	if err := ctx.Err(); err != nil {
		ch <- models.StreamResult[models.Partial]{Err: fmt.Errorf("pool not started: %w", err)}
		close(ch)
		return ch
	}

	var wg sync.WaitGroup
	wg.Add(len(chunks))
	for id, chunk := range chunks {
		go func() {
			defer wg.Done()
			ch <- models.StreamResult[models.Partial]{Value: p.runWorker(ctx, id, chunk, run)}
		}()
	}

	go func() {
		wg.Wait()
		close(ch)
	}()
	return ch
}

// RunAll dispatches every chunk, waits for all workers and returns their partials in
// chunk order.
func (p *Pool) RunAll(ctx context.Context, chunks [][]models.DiscoveredItem, run WorkerFunc) ([]models.Partial, error) {
	partials := make([]models.Partial, len(chunks))
	for result := range p.Stream(ctx, chunks, run) {
		if result.Err != nil {
			return nil, result.Err
		}
		partials[result.Value.WorkerID] = result.Value
	}
	return partials, nil
}

// runWorker runs one chunk, converting a panic or worker error into WorkerUnavailable.
func (p *Pool) runWorker(ctx context.Context, id int, chunk []models.DiscoveredItem, run WorkerFunc) (partial models.Partial) {
	logger := config.GetLogger().With().Int("worker", id).Logger()

	if len(chunk) == 0 {
		logger.Debug().Msg("Empty chunk, worker done")
		metrics.WorkersTotal.WithLabelValues("ok").Inc()
		return models.Partial{WorkerID: id}
	}

	hub := p.hub.Clone()
	hub.ConfigureScope(func(scope *sentry.Scope) {
		scope.SetTag("worker", fmt.Sprint(id))
	})

	metrics.WorkersActive.Inc()
	defer metrics.WorkersActive.Dec()

	defer func() {
		if r := recover(); r != nil {
			hub.Recover(r)
			partial = unavailable(id, chunk, fmt.Errorf("worker panicked: %v", r))
		}
		if partial.Err != nil {
			metrics.WorkersTotal.WithLabelValues("unavailable").Inc()
			logger.Error().Err(partial.Err).Ints("indices", indices(chunk)).Msg("Worker unavailable, chunk contributes no rows")
		} else {
			metrics.WorkersTotal.WithLabelValues("ok").Inc()
		}
	}()

	result, err := run(ctx, id, chunk)
	if err != nil {
		hub.CaptureException(err)
		return unavailable(id, chunk, err)
	}
	result.WorkerID = id
	return result
}

func unavailable(id int, chunk []models.DiscoveredItem, cause error) models.Partial {
	err := apperrors.NewWorkerUnavailableError(id, indices(chunk), cause)
	failures := make([]models.ItemFailure, len(chunk))
	for i, item := range chunk {
		failures[i] = models.NewItemFailure(item, models.StateDiscovered, err.Error(), id)
	}
	return models.Partial{WorkerID: id, Failures: failures, Err: err}
}

func indices(chunk []models.DiscoveredItem) []int {
	out := make([]int, len(chunk))
	for i, item := range chunk {
		out[i] = item.Index
	}
	return out
}
