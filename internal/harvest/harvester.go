package harvest

import (
	"context"
	"errors"
	"fmt"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/Belphemur/EpisodeHarvester/internal/cache"
	"github.com/Belphemur/EpisodeHarvester/internal/client"
	"github.com/Belphemur/EpisodeHarvester/internal/config"
	"github.com/Belphemur/EpisodeHarvester/internal/models"
	"github.com/Belphemur/EpisodeHarvester/internal/parser"
	"github.com/Belphemur/EpisodeHarvester/internal/pipeline"
	"github.com/Belphemur/EpisodeHarvester/internal/pool"
	"github.com/Belphemur/EpisodeHarvester/internal/report"
	"github.com/Belphemur/EpisodeHarvester/internal/services"
)

// discoveryWorker is the session id used for the catalog page.
const discoveryWorker = -1

// Summary describes a finished batch.
type Summary struct {
	RunID         string
	Discovered    int
	Completed     int
	Failed        int
	WorkersFailed int
	ReportPath    string
}

// Harvester runs one batch: discovery, partition, worker pool, aggregation and report.
type Harvester struct {
	cfg      *config.Config
	fs       afero.Fs
	pages    cache.Cache
	hub      *sentry.Hub
	resolver *parser.Resolver
	sessions *client.SessionFactory
	wrap     func(pool.WorkerFunc) pool.WorkerFunc
}

// Option customises a Harvester.
type Option func(*Harvester)

// WithFs sets the filesystem receiving downloads, the report and the ledger.
func WithFs(fs afero.Fs) Option {
	return func(h *Harvester) { h.fs = fs }
}

// WithPageCache shares an external page cache, such as redis, between sessions.
// Without it each session builds its own process-local cache.
func WithPageCache(pages cache.Cache) Option {
	return func(h *Harvester) { h.pages = pages }
}

// WithHub reports worker crashes to hub instead of the current hub.
func WithHub(hub *sentry.Hub) Option {
	return func(h *Harvester) { h.hub = hub }
}

// WithWorkerMiddleware wraps the function each worker runs over its chunk.
func WithWorkerMiddleware(wrap func(pool.WorkerFunc) pool.WorkerFunc) Option {
	return func(h *Harvester) { h.wrap = wrap }
}

// New creates a Harvester for cfg.
func New(cfg *config.Config, opts ...Option) *Harvester {
	h := &Harvester{
		cfg:      cfg,
		fs:       afero.NewOsFs(),
		resolver: parser.NewResolver(cfg.Selectors),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.sessions = client.NewSessionFactory(cfg, h.pages)
	return h
}

// Run executes the batch. It fails only when discovery, the pool or the report cannot
// run; individual item and worker failures end up in the summary and the ledger.
func (h *Harvester) Run(ctx context.Context) (*Summary, error) {
	runID := uuid.NewString()
	logger := config.GetLogger().With().Str("run_id", runID).Logger()

	for _, dir := range []string{h.cfg.ImagesDir, h.cfg.VideosDir} {
		if err := h.fs.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create output directory %s: %w", dir, err)
		}
	}

	items, err := h.discover(ctx)
	if err != nil {
		return nil, err
	}
	logger.Info().Int("items", len(items)).Int("workers", h.cfg.Workers).Msg("Catalog discovered")

	chunks, err := pool.Partition(items, h.cfg.Workers)
	if err != nil {
		return nil, err
	}

	run := pool.WorkerFunc(h.runChunk)
	if h.wrap != nil {
		run = h.wrap(run)
	}

	partials, err := pool.New(h.hub).RunAll(ctx, chunks, run)
	if err != nil {
		return nil, fmt.Errorf("failed to start worker pool: %w", err)
	}

	agg, err := report.NewAggregatorFromConfig(h.cfg, h.fs, runID)
	if err != nil {
		return nil, err
	}
	// Whatever finished before a cancellation is still reported.
	totals, err := agg.Write(context.WithoutCancel(ctx), partials)
	if err != nil {
		return nil, err
	}

	summary := summarize(runID, len(items), partials)
	summary.ReportPath = h.cfg.Report.Path
	logger.Info().
		Int("discovered", summary.Discovered).
		Int("completed", summary.Completed).
		Int("failed", summary.Failed).
		Int("workers_failed", summary.WorkersFailed).
		Int("rows", totals.Rows).
		Str("report", summary.ReportPath).
		Msg("Batch finished")

	if err := workerErrors(partials); err != nil {
		logger.Warn().Err(err).Msg("Some workers were unavailable")
	}
	return summary, nil
}

func (h *Harvester) discover(ctx context.Context) ([]models.DiscoveredItem, error) {
	session, err := h.sessions.NewSession(discoveryWorker)
	if err != nil {
		return nil, fmt.Errorf("failed to open discovery session: %w", err)
	}
	defer session.Close()

	doc, err := session.Navigate(ctx, h.cfg.CatalogURL)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog %s: %w", h.cfg.CatalogURL, err)
	}
	return h.resolver.ExtractListing(doc, h.cfg.MaxItems), nil
}

// runChunk gives the worker its own session, downloader and pipeline.
func (h *Harvester) runChunk(ctx context.Context, workerID int, chunk []models.DiscoveredItem) (models.Partial, error) {
	session, err := h.sessions.NewSession(workerID)
	if err != nil {
		return models.Partial{}, fmt.Errorf("failed to open session: %w", err)
	}
	defer session.Close()

	httpClient, err := client.NewHTTPClient(h.cfg, h.cfg.DownloadTimeout)
	if err != nil {
		return models.Partial{}, fmt.Errorf("failed to create download client: %w", err)
	}
	downloader := services.NewStreamingDownloader(httpClient, h.fs, h.cfg.UserAgent)

	p := pipeline.New(session, h.resolver, downloader, pipeline.OptionsFromConfig(h.cfg))
	return p.Run(ctx, workerID, chunk), nil
}

func summarize(runID string, discovered int, partials []models.Partial) *Summary {
	s := &Summary{RunID: runID, Discovered: discovered}
	for _, p := range partials {
		s.Completed += len(p.Rows)
		s.Failed += len(p.Failures)
		if p.Err != nil {
			s.WorkersFailed++
		}
	}
	return s
}

func workerErrors(partials []models.Partial) error {
	var errs []error
	for _, p := range partials {
		if p.Err != nil {
			errs = append(errs, p.Err)
		}
	}
	return errors.Join(errs...)
}
