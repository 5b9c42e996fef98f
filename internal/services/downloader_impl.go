package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/afero"

	"github.com/Belphemur/EpisodeHarvester/internal/apperrors"
	"github.com/Belphemur/EpisodeHarvester/internal/config"
	"github.com/Belphemur/EpisodeHarvester/internal/metrics"
	"github.com/Belphemur/EpisodeHarvester/internal/models"
)

// ChunkSize is the fixed copy buffer; memory use per transfer does not grow with the file.
const ChunkSize = 32 * 1024

// partSuffix marks a destination that is still being written.
const partSuffix = ".part"

// StreamingDownloader copies HTTP bodies to an afero filesystem chunk by chunk.
type StreamingDownloader struct {
	httpClient *http.Client
	fs         afero.Fs
	userAgent  string
}

// NewStreamingDownloader creates a downloader writing to fs.
func NewStreamingDownloader(httpClient *http.Client, fs afero.Fs, userAgent string) *StreamingDownloader {
	return &StreamingDownloader{httpClient: httpClient, fs: fs, userAgent: userAgent}
}

// Download fetches task.SourceURL into task.DestinationPath. Bytes land in
// <destination>.part first; the part file is renamed into place only after a complete,
// synced transfer and removed on any failure.
func (d *StreamingDownloader) Download(ctx context.Context, task models.DownloadTask, progress ProgressFunc) models.DownloadOutcome {
	logger := config.GetLogger()
	if progress == nil {
		progress = func(int64, int64) {}
	}
	kind := task.Kind
	if kind == "" {
		kind = "file"
	}

	start := time.Now()
	outcome := d.download(ctx, task, kind, progress)
	metrics.DownloadDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())

	if outcome.Succeeded {
		metrics.DownloadsTotal.WithLabelValues(kind, "success").Inc()
		logger.Debug().
			Str("url", task.SourceURL).
			Str("path", task.DestinationPath).
			Int64("bytes", outcome.BytesWritten).
			Dur("elapsed", time.Since(start)).
			Msg("Download complete")
	} else {
		metrics.DownloadsTotal.WithLabelValues(kind, "error").Inc()
		logger.Warn().
			Err(outcome.Err).
			Str("url", task.SourceURL).
			Str("path", task.DestinationPath).
			Int64("bytes", outcome.BytesWritten).
			Msg("Download failed")
	}
	return outcome
}

func (d *StreamingDownloader) download(ctx context.Context, task models.DownloadTask, kind string, progress ProgressFunc) models.DownloadOutcome {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, task.SourceURL, nil)
	if err != nil {
		return failed(0, apperrors.NewTransferFailedError(task.SourceURL, "invalid request", err))
	}
	if d.userAgent != "" {
		req.Header.Set("User-Agent", d.userAgent)
	}
	// Byte counts must match the declared length, so no transfer coding.
	req.Header.Set("Accept-Encoding", "identity")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return failed(0, apperrors.NewTransferFailedError(task.SourceURL, "request failed", err))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return failed(0, apperrors.NewTransferFailedError(task.SourceURL, "not found", &apperrors.ErrResourceNotFound{URL: task.SourceURL}))
	case resp.StatusCode != http.StatusOK:
		return failed(0, apperrors.NewTransferFailedError(task.SourceURL, fmt.Sprintf("unexpected status code %d", resp.StatusCode), nil))
	}

	declared := resp.ContentLength
	total := declared
	if total < 0 && task.ExpectedSize > 0 {
		total = task.ExpectedSize
	}
	if total < 0 {
		config.GetLogger().Debug().AnErr("size", apperrors.ErrSizeUnknown).Str("url", task.SourceURL).Msg("Reporting absolute progress")
	}

	if err := d.fs.MkdirAll(filepath.Dir(task.DestinationPath), 0o755); err != nil {
		return failed(0, apperrors.NewTransferFailedError(task.SourceURL, "create directory", err))
	}

	partPath := task.DestinationPath + partSuffix
	part, err := d.fs.OpenFile(partPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return failed(0, apperrors.NewTransferFailedError(task.SourceURL, "open destination", err))
	}

	written, reason, err := copyChunks(part, resp.Body, total, kind, progress)
	if err == nil && declared >= 0 && written != declared {
		reason, err = "short transfer", fmt.Errorf("received %d of %d bytes", written, declared)
	}
	if err == nil {
		if err = part.Sync(); err != nil {
			reason = "sync destination"
		}
	}
	if closeErr := part.Close(); err == nil && closeErr != nil {
		reason, err = "close destination", closeErr
	}
	if err == nil {
		if err = d.fs.Rename(partPath, task.DestinationPath); err != nil {
			reason = "rename destination"
		}
	}

	if err != nil {
		if rmErr := d.fs.Remove(partPath); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			config.GetLogger().Warn().Err(rmErr).Str("path", partPath).Msg("Failed to remove partial file")
		}
		return failed(written, apperrors.NewTransferFailedError(task.SourceURL, reason, err))
	}

	return models.DownloadOutcome{BytesWritten: written, Succeeded: true}
}

// copyChunks moves src into dst ChunkSize bytes at a time, reporting after every chunk.
func copyChunks(dst io.Writer, src io.Reader, total int64, kind string, progress ProgressFunc) (int64, string, error) {
	buf := make([]byte, ChunkSize)
	bytesCounter := metrics.DownloadBytesTotal.WithLabelValues(kind)
	var written int64

	for {
		n, readErr := src.Read(buf)
		if n > 0 {
			w, writeErr := dst.Write(buf[:n])
			written += int64(w)
			bytesCounter.Add(float64(w))
			if writeErr != nil {
				return written, "write destination", writeErr
			}
			if w != n {
				return written, "write destination", io.ErrShortWrite
			}
			progress(written, total)
		}
		if readErr == io.EOF {
			return written, "", nil
		}
		if readErr != nil {
			return written, "read source", readErr
		}
	}
}

func failed(written int64, err *apperrors.ErrTransferFailed) models.DownloadOutcome {
	return models.DownloadOutcome{
		BytesWritten:  written,
		FailureReason: err.Reason,
		Err:           err,
	}
}
