package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// DefaultUserAgent is the default User-Agent string sent with all HTTP requests.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/90.0.4430.85 Safari/537.36"

// DefaultCatalogURL is the listing page scanned when catalog_url is not configured.
const DefaultCatalogURL = "https://www.857yhdm.com/type/ribendongman.html"

// Selectors holds the CSS selectors used to resolve each hop of the pipeline.
type Selectors struct {
	ListingItem    string `mapstructure:"listing_item"`
	Title          string `mapstructure:"title"`
	TitleAttr      string `mapstructure:"title_attr"`
	Thumbnail      string `mapstructure:"thumbnail"`
	ThumbnailAttr  string `mapstructure:"thumbnail_attr"`
	Status         string `mapstructure:"status"`
	EpisodeLinks   string `mapstructure:"episode_links"`
	PlayerFrame    string `mapstructure:"player_frame"`
	MediaElement   string `mapstructure:"media_element"`
	MediaAttr      string `mapstructure:"media_attr"`
	PlayerSrcAttr  string `mapstructure:"player_src_attr"`
	EpisodeURLAttr string `mapstructure:"episode_url_attr"`
}

type Config struct {
	CatalogURL            string        `mapstructure:"catalog_url"`
	MaxItems              int           `mapstructure:"max_items"`
	Workers               int           `mapstructure:"workers"`
	OutputDir             string        `mapstructure:"output_dir"`
	ImagesDir             string        `mapstructure:"images_dir"`
	VideosDir             string        `mapstructure:"videos_dir"`
	UserAgent             string        `mapstructure:"user_agent"`
	AcceptLanguage        string        `mapstructure:"accept_language"`
	ProxyConnectionString string        `mapstructure:"proxy_connection_string"`
	ClientTimeout         time.Duration `mapstructure:"client_timeout"`
	DownloadTimeout       time.Duration `mapstructure:"download_timeout"` // 0 disables the overall transfer deadline
	PageRetries           int           `mapstructure:"page_retries"`
	LogLevel              string        `mapstructure:"log_level"`
	Wait                  struct {
		Timeout      time.Duration `mapstructure:"timeout"`
		PollInterval time.Duration `mapstructure:"poll_interval"`
	} `mapstructure:"wait"`
	Delay struct {
		Enabled bool          `mapstructure:"enabled"`
		Min     time.Duration `mapstructure:"min"`
		Max     time.Duration `mapstructure:"max"`
	} `mapstructure:"delay"`
	Downloads struct {
		Retries   int  `mapstructure:"retries"`
		SkipVideo bool `mapstructure:"skip_video"`
	} `mapstructure:"downloads"`
	Report struct {
		Format        string `mapstructure:"format"` // csv, json, xlsx or sqlite
		Path          string `mapstructure:"path"`
		Sheet         string `mapstructure:"sheet"`
		FailurePolicy string `mapstructure:"failure_policy"` // omit or blank
		SkippedPath   string `mapstructure:"skipped_path"`
	} `mapstructure:"report"`
	Cache struct {
		Type  string        `mapstructure:"type"` // memory, redis or none
		Size  int           `mapstructure:"size"`
		TTL   time.Duration `mapstructure:"ttl"`
		Redis struct {
			Address  string `mapstructure:"address"`
			Password string `mapstructure:"password"`
			DB       int    `mapstructure:"db"`
		} `mapstructure:"redis"`
	} `mapstructure:"cache"`
	Metrics struct {
		Enabled bool   `mapstructure:"enabled"`
		Address string `mapstructure:"address"`
		Port    int    `mapstructure:"port"`
	} `mapstructure:"metrics"`
	Sentry struct {
		DSN         string `mapstructure:"dsn"`
		Environment string `mapstructure:"environment"`
	} `mapstructure:"sentry"`
	Selectors Selectors `mapstructure:"selectors"`
}

var logger zerolog.Logger

func init() {
	// Initialize zerolog with console writer for human-readable output
	logger = zerolog.New(zerolog.ConsoleWriter{
		Out:     os.Stdout,
		NoColor: false,
	}).With().Timestamp().Logger()
}

// DefaultSelectors returns the selectors matching the catalog site layout.
func DefaultSelectors() Selectors {
	return Selectors{
		ListingItem:    ".myui-vodlist__box",
		Title:          "h4 a",
		TitleAttr:      "title",
		Thumbnail:      "a[data-original]",
		ThumbnailAttr:  "data-original",
		Status:         ".pic-text.text-right",
		EpisodeLinks:   ".myui-content__list.sort-list.clearfix a",
		EpisodeURLAttr: "href",
		PlayerFrame:    "table iframe",
		PlayerSrcAttr:  "src",
		MediaElement:   "#lelevideo",
		MediaAttr:      "src",
	}
}

func setDefaults(v *viper.Viper) {
	sel := DefaultSelectors()

	v.SetDefault("catalog_url", DefaultCatalogURL)
	v.SetDefault("max_items", 20)
	v.SetDefault("workers", runtime.NumCPU())
	v.SetDefault("user_agent", DefaultUserAgent)
	v.SetDefault("accept_language", "zh-CN,zh;q=0.9")
	v.SetDefault("client_timeout", "60s")
	v.SetDefault("download_timeout", "0s")
	v.SetDefault("page_retries", 2)
	v.SetDefault("log_level", "info")
	v.SetDefault("wait.timeout", "60s")
	v.SetDefault("wait.poll_interval", "2s")
	v.SetDefault("delay.enabled", true)
	v.SetDefault("delay.min", "1s")
	v.SetDefault("delay.max", "5s")
	v.SetDefault("downloads.retries", 0)
	v.SetDefault("downloads.skip_video", false)
	v.SetDefault("report.format", "xlsx")
	v.SetDefault("report.sheet", "最新日漫")
	v.SetDefault("report.failure_policy", "omit")
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.size", 256)
	v.SetDefault("cache.ttl", "30m")
	v.SetDefault("cache.redis.address", "localhost:6379")
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.address", "localhost")
	v.SetDefault("metrics.port", 9090)
	v.SetDefault("selectors.listing_item", sel.ListingItem)
	v.SetDefault("selectors.title", sel.Title)
	v.SetDefault("selectors.title_attr", sel.TitleAttr)
	v.SetDefault("selectors.thumbnail", sel.Thumbnail)
	v.SetDefault("selectors.thumbnail_attr", sel.ThumbnailAttr)
	v.SetDefault("selectors.status", sel.Status)
	v.SetDefault("selectors.episode_links", sel.EpisodeLinks)
	v.SetDefault("selectors.episode_url_attr", sel.EpisodeURLAttr)
	v.SetDefault("selectors.player_frame", sel.PlayerFrame)
	v.SetDefault("selectors.player_src_attr", sel.PlayerSrcAttr)
	v.SetDefault("selectors.media_element", sel.MediaElement)
	v.SetDefault("selectors.media_attr", sel.MediaAttr)
}

// LoadConfig reads configuration from configFile, or from config.yaml in the working
// directory or ./config when configFile is empty. Environment variables prefixed with
// APP_ override file values.
func LoadConfig(configFile string) (*Config, error) {
	v := viper.New()
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variable support
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Add specific environment variable for log level
	_ = v.BindEnv("log_level", "LOG_LEVEL")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	config.applyDerived(time.Now())
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// applyDerived fills in paths that depend on other settings.
func (c *Config) applyDerived(now time.Time) {
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}
	if c.OutputDir == "" {
		c.OutputDir = now.Format("2006-01-02")
	}
	if c.ImagesDir == "" {
		c.ImagesDir = filepath.Join(c.OutputDir, "images")
	}
	if c.VideosDir == "" {
		c.VideosDir = filepath.Join(c.OutputDir, "videos")
	}
	if c.Report.Path == "" {
		c.Report.Path = filepath.Join(c.OutputDir, "最新日漫."+reportExtension(c.Report.Format))
	}
	if c.Report.SkippedPath == "" {
		c.Report.SkippedPath = filepath.Join(c.OutputDir, "skipped.json")
	}
	if c.Workers < 1 {
		c.Workers = runtime.NumCPU()
	}
}

func reportExtension(format string) string {
	switch strings.ToLower(format) {
	case "sqlite":
		return "db"
	case "":
		return "xlsx"
	default:
		return strings.ToLower(format)
	}
}

// Validate checks the settings that would otherwise fail deep inside a batch.
func (c *Config) Validate() error {
	if c.CatalogURL == "" {
		return errors.New("catalog_url must not be empty")
	}
	if c.MaxItems < 1 {
		return fmt.Errorf("max_items must be at least 1, got %d", c.MaxItems)
	}
	if c.Delay.Min < 0 || c.Delay.Max < c.Delay.Min {
		return fmt.Errorf("invalid delay range [%s, %s]", c.Delay.Min, c.Delay.Max)
	}
	switch c.Report.FailurePolicy {
	case "omit", "blank":
	default:
		return fmt.Errorf("report.failure_policy must be omit or blank, got %q", c.Report.FailurePolicy)
	}
	return nil
}

// ConfigureLogger parses and applies the log level, falling back to info.
func ConfigureLogger(levelName string) {
	level := zerolog.InfoLevel // default
	if levelName != "" {
		if parsedLevel, err := zerolog.ParseLevel(levelName); err == nil {
			level = parsedLevel
		} else {
			logger.Warn().Str("invalid_level", levelName).Msg("Invalid log level, using default 'info'")
		}
	}

	// Set the global log level
	zerolog.SetGlobalLevel(level)
	logger = logger.Level(level)

	logger.Info().Str("level", level.String()).Msg("Logging configured")
}

func GetLogger() zerolog.Logger {
	return logger
}
