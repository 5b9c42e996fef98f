package report

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"sync"

	"github.com/spf13/afero"

	"github.com/Belphemur/EpisodeHarvester/internal/models"
)

// Sink persists the ordered report rows. Write is called once per batch.
type Sink interface {
	Write(ctx context.Context, rows []models.ResultRow) error
}

// SinkConfig holds what a sink needs to write the report.
type SinkConfig struct {
	Fs    afero.Fs
	Path  string
	Sheet string // Worksheet name, xlsx only
}

// SinkFactory builds a Sink from config.
type SinkFactory func(cfg SinkConfig) (Sink, error)

var (
	mu    sync.RWMutex
	sinks = make(map[string]SinkFactory)
)

// Column keys shared by every sink.
const (
	ColumnTitle         = "title"
	ColumnThumbnail     = "thumbnailLocation"
	ColumnStatus        = "statusText"
	ColumnLatestEpisode = "latestEpisodeLocation"
)

// Columns is the report schema in output order.
var Columns = []string{ColumnTitle, ColumnThumbnail, ColumnStatus, ColumnLatestEpisode}

// Register makes a sink available under name. It panics on a nil factory or a duplicate name.
func Register(name string, f SinkFactory) {
	mu.Lock()
	defer mu.Unlock()

	if f == nil {
		panic("report: Register sink is nil")
	}
	if _, exists := sinks[name]; exists {
		panic(fmt.Sprintf("report: sink %q already registered", name))
	}
	sinks[name] = f
}

// NewSink builds the named sink.
func NewSink(name string, cfg SinkConfig) (Sink, error) {
	mu.RLock()
	f, ok := sinks[name]
	mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("report: unknown format %q (registered: %v)", name, RegisteredSinks())
	}
	if cfg.Fs == nil {
		cfg.Fs = afero.NewOsFs()
	}
	if cfg.Path == "" {
		return nil, fmt.Errorf("report: %s sink needs a path", name)
	}
	return f(cfg)
}

// RegisteredSinks returns the sink names in sorted order.
func RegisteredSinks() []string {
	mu.RLock()
	defer mu.RUnlock()

	names := make([]string, 0, len(sinks))
	for name := range sinks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func values(row models.ResultRow) []string {
	return []string{row.Title, row.ThumbnailURL, row.Status, row.LatestEpisodeURL}
}

// createFile opens path for writing on fs, creating its parent directory.
func createFile(fs afero.Fs, path string) (afero.File, error) {
	if err := fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create report directory: %w", err)
	}
	f, err := fs.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create report file: %w", err)
	}
	return f, nil
}
