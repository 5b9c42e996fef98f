package report

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/Belphemur/EpisodeHarvester/internal/models"
)

// DefaultSheet is the worksheet name used when none is configured.
const DefaultSheet = "最新日漫"

// XLSXHeader is the header row of the worksheet, one label per entry of Columns.
var XLSXHeader = []string{"标题", "缩略图", "更新状态", "最新一集播放链接"}

func init() {
	Register("xlsx", func(cfg SinkConfig) (Sink, error) {
		if cfg.Sheet == "" {
			cfg.Sheet = DefaultSheet
		}
		return &xlsxSink{cfg: cfg}, nil
	})
}

type xlsxSink struct {
	cfg SinkConfig
}

func (s *xlsxSink) Write(ctx context.Context, rows []models.ResultRow) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	book := excelize.NewFile()
	defer func() {
		if cerr := book.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close workbook: %w", cerr)
		}
	}()

	sheet := s.cfg.Sheet
	if err := book.SetSheetName(book.GetSheetName(0), sheet); err != nil {
		return fmt.Errorf("failed to name worksheet %q: %w", sheet, err)
	}

	if err := setRow(book, sheet, 1, XLSXHeader); err != nil {
		return err
	}
	for i, row := range rows {
		if err := setRow(book, sheet, i+2, values(row)); err != nil {
			return err
		}
	}

	f, err := createFile(s.cfg.Fs, s.cfg.Path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close xlsx report: %w", cerr)
		}
	}()

	if err := book.Write(f); err != nil {
		return fmt.Errorf("failed to write xlsx report: %w", err)
	}
	return nil
}

func setRow(book *excelize.File, sheet string, row int, cells []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	line := make([]any, len(cells))
	for i, c := range cells {
		line[i] = c
	}
	if err := book.SetSheetRow(sheet, cell, &line); err != nil {
		return fmt.Errorf("failed to write worksheet row %d: %w", row, err)
	}
	return nil
}
