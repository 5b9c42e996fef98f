package report

import (
	"context"
	"encoding/csv"
	"fmt"

	"github.com/Belphemur/EpisodeHarvester/internal/models"
)

func init() {
	Register("csv", func(cfg SinkConfig) (Sink, error) {
		return &csvSink{cfg: cfg}, nil
	})
}

type csvSink struct {
	cfg SinkConfig
}

func (s *csvSink) Write(ctx context.Context, rows []models.ResultRow) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	f, err := createFile(s.cfg.Fs, s.cfg.Path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close csv report: %w", cerr)
		}
	}()

	// BOM so spreadsheet tools open the CJK titles as UTF-8.
	if _, err := f.Write([]byte("\uFEFF")); err != nil {
		return fmt.Errorf("failed to write csv report: %w", err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(Columns); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, row := range rows {
		if err := w.Write(values(row)); err != nil {
			return fmt.Errorf("failed to write csv row %d: %w", row.Index, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush csv report: %w", err)
	}
	return nil
}
