package services

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Belphemur/EpisodeHarvester/internal/models"
)

// LogProgress returns a ProgressFunc that logs at most once per interval, plus
// once when a declared size is reached.
func LogProgress(logger zerolog.Logger, label string, interval time.Duration) ProgressFunc {
	var (
		mu   sync.Mutex
		last time.Time
	)
	return func(written, total int64) {
		done := total > 0 && written >= total

		mu.Lock()
		now := time.Now()
		if !done && now.Sub(last) < interval {
			mu.Unlock()
			return
		}
		last = now
		mu.Unlock()

		event := logger.Debug().Str("file", label).Int64("written", written)
		if fraction := models.Fraction(written, total); fraction >= 0 {
			event = event.Int64("total", total).Float64("percent", fraction*100)
		}
		event.Msg("Download progress")
	}
}
