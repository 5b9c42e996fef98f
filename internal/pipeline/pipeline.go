package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
	"github.com/rs/zerolog"

	"github.com/Belphemur/EpisodeHarvester/internal/apperrors"
	"github.com/Belphemur/EpisodeHarvester/internal/config"
	"github.com/Belphemur/EpisodeHarvester/internal/metrics"
	"github.com/Belphemur/EpisodeHarvester/internal/models"
	"github.com/Belphemur/EpisodeHarvester/internal/parser"
	"github.com/Belphemur/EpisodeHarvester/internal/services"
)

// ReasonCancelled is recorded for items never started because the batch was cancelled.
const ReasonCancelled = "cancelled"

// PageSession loads pages for one worker.
type PageSession interface {
	Navigate(ctx context.Context, url string) (parser.Document, error)
	WaitFor(ctx context.Context, url, selector string, timeout time.Duration) (parser.Document, error)
}

// Options configures a Pipeline.
type Options struct {
	ImagesDir       string
	VideosDir       string
	WaitTimeout     time.Duration
	DownloadRetries int
	RetryBackoff    time.Duration
	SkipVideo       bool
	Delay           Delayer
}

// OptionsFromConfig derives pipeline options from the application config.
func OptionsFromConfig(cfg *config.Config) Options {
	var delay Delayer = NoDelay{}
	if cfg.Delay.Enabled {
		delay = RandomDelay{Min: cfg.Delay.Min, Max: cfg.Delay.Max}
	}
	return Options{
		ImagesDir:       cfg.ImagesDir,
		VideosDir:       cfg.VideosDir,
		WaitTimeout:     cfg.Wait.Timeout,
		DownloadRetries: cfg.Downloads.Retries,
		SkipVideo:       cfg.Downloads.SkipVideo,
		Delay:           delay,
	}
}

// Pipeline drives each item of a chunk through resolve and download steps. One instance
// belongs to one worker; it is not safe for concurrent Run calls.
type Pipeline struct {
	session    PageSession
	resolver   *parser.Resolver
	downloader services.Downloader
	opts       Options
	retry      retrypolicy.RetryPolicy[models.DownloadOutcome]
}

// New creates a pipeline over the worker's session.
func New(session PageSession, resolver *parser.Resolver, downloader services.Downloader, opts Options) *Pipeline {
	if opts.Delay == nil {
		opts.Delay = NoDelay{}
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = time.Second
	}

	retry := retrypolicy.NewBuilder[models.DownloadOutcome]().
		HandleIf(func(outcome models.DownloadOutcome, err error) bool {
			if err == nil || outcome.Succeeded {
				return false
			}
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return false
			}
			return !errors.Is(err, &apperrors.ErrResourceNotFound{})
		}).
		WithMaxRetries(max(opts.DownloadRetries, 0)).
		WithBackoff(opts.RetryBackoff, 30*opts.RetryBackoff).
		ReturnLastFailure().
		Build()

	return &Pipeline{
		session:    session,
		resolver:   resolver,
		downloader: downloader,
		opts:       opts,
		retry:      retry,
	}
}

// Run processes chunk in order and returns the worker's partial result. A failing item is
// recorded and skipped; it never stops the rest of the chunk. Once ctx is done the remaining
// items are recorded as cancelled.
func (p *Pipeline) Run(ctx context.Context, workerID int, chunk []models.DiscoveredItem) models.Partial {
	logger := config.GetLogger().With().Int("worker", workerID).Logger()
	partial := models.Partial{
		WorkerID: workerID,
		Rows:     make([]models.ResultRow, 0, len(chunk)),
	}

	logger.Info().Int("items", len(chunk)).Msg("Worker started")

	for i, item := range chunk {
		if i > 0 {
			_ = p.opts.Delay.Wait(ctx)
		}
		if ctx.Err() != nil {
			for _, rest := range chunk[i:] {
				partial.Failures = append(partial.Failures, models.NewItemFailure(rest, models.StateDiscovered, ReasonCancelled, workerID))
				metrics.ItemsTotal.WithLabelValues(ReasonCancelled).Inc()
			}
			logger.Warn().Int("skipped", len(chunk)-i).Msg("Batch cancelled, skipping remaining items")
			break
		}

		itemLogger := logger.With().Int("index", item.Index).Str("title", item.Title).Logger()
		row, lastGood, err := p.process(ctx, item, itemLogger)
		if err != nil {
			failure := models.NewItemFailure(item, lastGood, err.Error(), workerID)
			partial.Failures = append(partial.Failures, failure)
			metrics.ItemsTotal.WithLabelValues("failed").Inc()
			metrics.ItemFailuresTotal.WithLabelValues(lastGood.String()).Inc()
			itemLogger.Warn().Err(err).Str("state", lastGood.String()).Msg("Item failed")
			continue
		}

		partial.Rows = append(partial.Rows, row)
		metrics.ItemsTotal.WithLabelValues("complete").Inc()
		itemLogger.Info().Str("latest", row.LatestEpisodeURL).Msg("Item complete")
	}

	logger.Info().
		Int("completed", len(partial.Rows)).
		Int("failed", len(partial.Failures)).
		Msg("Worker finished")
	return partial
}

// process walks one item through every state. On error it returns the last state reached.
func (p *Pipeline) process(ctx context.Context, item models.DiscoveredItem, logger zerolog.Logger) (models.ResultRow, models.ItemState, error) {
	sel := p.resolver.Selectors()
	state := models.StateDiscovered
	advance := func() {
		state = state.Next()
		logger.Debug().Str("state", state.String()).Msg("Item advanced")
	}

	if item.DetailURL == "" {
		return models.ResultRow{}, state, apperrors.NewElementNotFoundError(sel.Title+"[href]", "listing")
	}

	detail, err := p.session.WaitFor(ctx, item.DetailURL, sel.EpisodeLinks, p.opts.WaitTimeout)
	if err != nil {
		return models.ResultRow{}, state, err
	}
	advance() // detail resolved

	episode, err := p.resolver.ResolveDetailToEpisode(detail, item.Index)
	if err != nil {
		return models.ResultRow{}, state, err
	}
	advance() // episode resolved

	episodePage, err := p.session.WaitFor(ctx, episode.LatestEpisodeURL, sel.PlayerFrame, p.opts.WaitTimeout)
	if err != nil {
		return models.ResultRow{}, state, err
	}
	playerURL, err := p.resolver.ResolveEpisodeToPlayer(episodePage)
	if err != nil {
		return models.ResultRow{}, state, err
	}
	advance() // player resolved

	playerPage, err := p.session.WaitFor(ctx, playerURL, sel.MediaElement, p.opts.WaitTimeout)
	if err != nil {
		return models.ResultRow{}, state, err
	}
	mediaURL, err := p.resolver.ResolvePlayerToMedia(playerPage)
	if err != nil {
		return models.ResultRow{}, state, err
	}
	advance() // media resolved

	if item.ThumbnailURL == "" {
		logger.Debug().Msg("No thumbnail on the listing, skipping thumbnail download")
	} else if err := p.fetch(ctx, item.ThumbnailURL, ThumbnailPath(p.opts.ImagesDir, item), metrics.KindThumbnail, logger); err != nil {
		return models.ResultRow{}, state, err
	}
	advance() // thumbnail downloaded

	if p.opts.SkipVideo {
		logger.Debug().Str("media", mediaURL).Msg("Video download disabled")
	} else if err := p.fetch(ctx, mediaURL, VideoPath(p.opts.VideosDir, item), metrics.KindVideo, logger); err != nil {
		return models.ResultRow{}, state, err
	}
	advance() // video downloaded

	advance() // complete
	return models.NewResultRow(item, episode.LatestEpisodeURL), state, nil
}

// fetch downloads one artifact, retrying per the configured policy.
func (p *Pipeline) fetch(ctx context.Context, source, destination, kind string, logger zerolog.Logger) error {
	task := models.DownloadTask{
		SourceURL:       source,
		DestinationPath: destination,
		ExpectedSize:    -1,
		Kind:            kind,
	}
	progress := services.LogProgress(logger, destination, 5*time.Second)

	_, err := failsafe.With[models.DownloadOutcome](p.retry).WithContext(ctx).Get(func() (models.DownloadOutcome, error) {
		outcome := p.downloader.Download(ctx, task, progress)
		return outcome, outcome.Err
	})
	return err
}
