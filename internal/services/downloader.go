package services

import (
	"context"

	"github.com/Belphemur/EpisodeHarvester/internal/models"
)

// ProgressFunc receives the cumulative bytes written after every chunk. total is
// the declared size, or negative when the source did not declare one.
type ProgressFunc func(written, total int64)

// Downloader streams a remote resource to a local file.
type Downloader interface {
	// Download never retries and never returns a partially written destination:
	// the outcome either reports every byte on disk or a typed failure.
	Download(ctx context.Context, task models.DownloadTask, progress ProgressFunc) models.DownloadOutcome
}
