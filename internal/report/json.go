package report

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Belphemur/EpisodeHarvester/internal/models"
)

func init() {
	Register("json", func(cfg SinkConfig) (Sink, error) {
		return &jsonSink{cfg: cfg}, nil
	})
}

type jsonSink struct {
	cfg SinkConfig
}

type jsonRow struct {
	Title            string `json:"title"`
	ThumbnailURL     string `json:"thumbnailLocation"`
	Status           string `json:"statusText"`
	LatestEpisodeURL string `json:"latestEpisodeLocation"`
}

func (s *jsonSink) Write(ctx context.Context, rows []models.ResultRow) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	out := make([]jsonRow, len(rows))
	for i, row := range rows {
		out[i] = jsonRow{
			Title:            row.Title,
			ThumbnailURL:     row.ThumbnailURL,
			Status:           row.Status,
			LatestEpisodeURL: row.LatestEpisodeURL,
		}
	}

	f, err := createFile(s.cfg.Fs, s.cfg.Path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close json report: %w", cerr)
		}
	}()

	enc := json.NewEncoder(f)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("failed to encode json report: %w", err)
	}
	return nil
}
