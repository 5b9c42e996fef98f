package cache

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Locality tells where a provider keeps its pages.
type Locality int

const (
	// Local providers hold pages in process memory. Each worker session builds its own.
	Local Locality = iota
	// External providers keep pages in a separate store that sessions may share.
	External
)

func (l Locality) String() string {
	if l == External {
		return "external"
	}
	return "local"
}

// ProviderConfig holds what a provider needs to build a page cache.
type ProviderConfig struct {
	Size    int           // Maximum number of cached pages
	TTL     time.Duration // How long a page is served from the cache
	OnEvict EvictCallback

	// Logger receives backend errors. The zero value discards them.
	Logger zerolog.Logger

	RedisAddress  string
	RedisPassword string
	RedisDB       int

	// Group labels the page_cache_* metrics. Empty disables instrumentation.
	Group string
}

// Provider describes one cache backend.
type Provider struct {
	Build    func(cfg ProviderConfig) (Cache, error)
	Locality Locality
}

var (
	mu        sync.RWMutex
	providers = make(map[string]Provider)
)

// Register makes a backend available under name. It panics on a missing Build or a
// duplicate name.
func Register(name string, p Provider) {
	if p.Build == nil {
		panic("cache: Register provider without Build")
	}
	name = normalize(name)

	mu.Lock()
	defer mu.Unlock()
	if _, dup := providers[name]; dup {
		panic(fmt.Sprintf("cache: provider %q already registered", name))
	}
	providers[name] = p
}

// New builds a page cache with the named backend. Names are case-insensitive.
func New(name string, cfg ProviderConfig) (Cache, error) {
	p, err := lookup(name)
	if err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("cache: %s: %w", normalize(name), err)
	}
	if cfg.Group == "" {
		return p.Build(cfg)
	}

	evictions := EvictionsTotal.WithLabelValues(cfg.Group)
	onEvict := cfg.OnEvict
	cfg.OnEvict = func(url string, body []byte) {
		evictions.Inc()
		if onEvict != nil {
			onEvict(url, body)
		}
	}

	pages, err := p.Build(cfg)
	if err != nil {
		return nil, err
	}
	return newInstrumentedCache(pages, cfg.Group), nil
}

// LocalityOf reports whether the named backend is process-local or external.
func LocalityOf(name string) (Locality, error) {
	p, err := lookup(name)
	if err != nil {
		return Local, err
	}
	return p.Locality, nil
}

// RegisteredProviders returns the backend names in sorted order.
func RegisteredProviders() []string {
	mu.RLock()
	defer mu.RUnlock()
	return slices.Sorted(maps.Keys(providers))
}

func lookup(name string) (Provider, error) {
	mu.RLock()
	p, ok := providers[normalize(name)]
	mu.RUnlock()
	if !ok {
		return Provider{}, fmt.Errorf("cache: unknown provider %q (registered: %v)", name, RegisteredProviders())
	}
	return p, nil
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// validate rejects settings no backend can honour. Backend-specific requirements,
// such as a positive size, are checked by the backend.
func (c ProviderConfig) validate() error {
	var errs []error
	if c.Size < 0 {
		errs = append(errs, fmt.Errorf("size must not be negative, got %d", c.Size))
	}
	if c.TTL < 0 {
		errs = append(errs, fmt.Errorf("ttl must not be negative, got %s", c.TTL))
	}
	if strings.ContainsAny(c.Group, " \t\n") {
		errs = append(errs, fmt.Errorf("metrics group %q must not contain whitespace", c.Group))
	}
	return errors.Join(errs...)
}
