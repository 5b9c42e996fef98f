package report

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Belphemur/EpisodeHarvester/internal/models"
)

func init() {
	Register("sqlite", func(cfg SinkConfig) (Sink, error) {
		if _, ok := cfg.Fs.(*afero.OsFs); !ok {
			return nil, fmt.Errorf("report: sqlite sink writes %s on the host filesystem and cannot use %s", cfg.Path, cfg.Fs.Name())
		}
		return &sqliteSink{cfg: cfg}, nil
	})
}

// EpisodeRecord is one report row as stored in the sqlite sink.
type EpisodeRecord struct {
	ID               uint   `gorm:"primaryKey"`
	Position         int    `gorm:"column:position;index"`
	Title            string `gorm:"column:title"`
	ThumbnailURL     string `gorm:"column:thumbnailLocation"`
	Status           string `gorm:"column:statusText"`
	LatestEpisodeURL string `gorm:"column:latestEpisodeLocation"`
}

// TableName pins the table name regardless of gorm's naming strategy.
func (EpisodeRecord) TableName() string {
	return "latest_episodes"
}

// sqliteSink writes to a database file on the host filesystem; the sqlite driver cannot use afero.
type sqliteSink struct {
	cfg SinkConfig
}

func (s *sqliteSink) Write(ctx context.Context, rows []models.ResultRow) error {
	if err := s.cfg.Fs.MkdirAll(filepath.Dir(s.cfg.Path), 0o755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}

	db, err := gorm.Open(sqlite.Open(s.cfg.Path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to access database handle: %w", err)
	}
	defer sqlDB.Close()

	records := make([]EpisodeRecord, len(rows))
	for i, row := range rows {
		records[i] = EpisodeRecord{
			Position:         i,
			Title:            row.Title,
			ThumbnailURL:     row.ThumbnailURL,
			Status:           row.Status,
			LatestEpisodeURL: row.LatestEpisodeURL,
		}
	}

	// The table holds exactly one batch.
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Migrator().DropTable(&EpisodeRecord{}); err != nil {
			return fmt.Errorf("failed to drop previous report: %w", err)
		}
		if err := tx.AutoMigrate(&EpisodeRecord{}); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
		if len(records) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(records, 100).Error; err != nil {
			return fmt.Errorf("failed to insert report rows: %w", err)
		}
		return nil
	})
}
