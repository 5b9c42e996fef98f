package client

import (
	"fmt"

	"github.com/Belphemur/EpisodeHarvester/internal/cache"
	"github.com/Belphemur/EpisodeHarvester/internal/config"
)

// SessionFactory hands out an isolated Session per worker. A process-local page cache
// is built for each session; only an external cache is shared between them.
type SessionFactory struct {
	cfg    *config.Config
	shared cache.Cache
}

// NewSessionFactory creates a factory. shared is the external page cache returned by
// NewSharedPageCache and may be nil.
func NewSessionFactory(cfg *config.Config, shared cache.Cache) *SessionFactory {
	return &SessionFactory{cfg: cfg, shared: shared}
}

// NewSession builds a Session with its own HTTP client, cookie jar and, for process-local
// backends, its own page cache.
func (f *SessionFactory) NewSession(workerID int) (*Session, error) {
	httpClient, err := NewHTTPClient(f.cfg, f.cfg.ClientTimeout)
	if err != nil {
		return nil, err
	}

	pages, owned, err := f.sessionCache(workerID)
	if err != nil {
		return nil, err
	}

	s := NewSession(workerID, httpClient, pages, SessionOptions{
		UserAgent:      f.cfg.UserAgent,
		AcceptLanguage: f.cfg.AcceptLanguage,
		Retries:        f.cfg.PageRetries,
		PollInterval:   f.cfg.Wait.PollInterval,
	})
	s.ownsPages = owned
	return s, nil
}

func (f *SessionFactory) sessionCache(workerID int) (cache.Cache, bool, error) {
	if f.shared != nil {
		return f.shared, false, nil
	}
	if f.cfg.Cache.Type == "" {
		return nil, false, nil
	}

	locality, err := cache.LocalityOf(f.cfg.Cache.Type)
	if err != nil {
		return nil, false, err
	}
	if locality == cache.External {
		// External stores are opened once by the caller through NewSharedPageCache.
		return nil, false, nil
	}

	pages, err := cache.New(f.cfg.Cache.Type, providerConfig(f.cfg, sessionGroup(workerID)))
	if err != nil {
		return nil, false, err
	}
	return pages, true, nil
}

// NewSharedPageCache opens the configured page cache when its backend is external, such
// as redis. Process-local backends return nil: sessions build those for themselves.
func NewSharedPageCache(cfg *config.Config) (cache.Cache, error) {
	locality, err := cache.LocalityOf(cfg.Cache.Type)
	if err != nil {
		return nil, err
	}
	if locality != cache.External {
		return nil, nil
	}
	return cache.New(cfg.Cache.Type, providerConfig(cfg, "pages"))
}

func providerConfig(cfg *config.Config, group string) cache.ProviderConfig {
	return cache.ProviderConfig{
		Size:          cfg.Cache.Size,
		TTL:           cfg.Cache.TTL,
		Logger:        config.GetLogger(),
		RedisAddress:  cfg.Cache.Redis.Address,
		RedisPassword: cfg.Cache.Redis.Password,
		RedisDB:       cfg.Cache.Redis.DB,
		Group:         group,
	}
}

// sessionGroup labels the metrics of a session-owned cache.
func sessionGroup(workerID int) string {
	if workerID < 0 {
		return "pages-discovery"
	}
	return fmt.Sprintf("pages-worker-%d", workerID)
}
