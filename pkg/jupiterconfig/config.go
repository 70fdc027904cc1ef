// Package jupiterconfig loads the YAML configuration shared by the command
// line tools.
package jupiterconfig

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/juju/clock"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/lukasmoellerch/jupiter-go/pkg/jupitercache"
	"github.com/lukasmoellerch/jupiter-go/pkg/jupiterfetch"
)

type Config struct {
	Fetch   FetchConfig   `yaml:"fetch"`
	Cache   CacheConfig   `yaml:"cache"`
	Search  SearchConfig  `yaml:"search"`
	Sync    SyncConfig    `yaml:"sync"`
	Logging LoggingConfig `yaml:"logging"`
	Meili   MeiliConfig   `yaml:"meili"`
}

type FetchConfig struct {
	BaseURL           string   `yaml:"base_url"`
	Timeout           Duration `yaml:"timeout"`
	UserAgent         string   `yaml:"user_agent"`
	RequestsPerSecond float64  `yaml:"requests_per_second"`
	Burst             int      `yaml:"burst"`
	MaxConcurrency    int      `yaml:"max_concurrency"`
	MaxBodyBytes      int64    `yaml:"max_body_bytes"`
}

type CacheConfig struct {
	Dir              string   `yaml:"dir"`
	TTL              Duration `yaml:"ttl"`
	CleanupInterval  Duration `yaml:"cleanup_interval"`
	CleanupThreshold int64    `yaml:"cleanup_threshold_bytes"`
	MaxSize          int64    `yaml:"max_size_bytes"`
}

type SearchConfig struct {
	Timeout    Duration `yaml:"timeout"`
	MaxResults int      `yaml:"max_results"`
}

type SyncConfig struct {
	// Units limits a full sync to the named units, all units when empty.
	Units           []string `yaml:"units"`
	IncludeLectures bool     `yaml:"include_lectures"`
	Every           Duration `yaml:"every"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type MeiliConfig struct {
	Host      string `yaml:"host"`
	APIKey    string `yaml:"api_key"`
	Index     string `yaml:"index"`
	BatchSize int    `yaml:"batch_size"`
}

func defaultCacheDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "jupiter")
	}
	return filepath.Join(os.TempDir(), "jupiter-cache")
}

func Default() Config {
	return Config{
		Fetch: FetchConfig{
			BaseURL:           jupiterfetch.DefaultBaseURL,
			Timeout:           DurationFrom(jupiterfetch.DefaultTimeout),
			UserAgent:         "jupiter-go",
			RequestsPerSecond: 10,
			Burst:             5,
			MaxConcurrency:    jupiterfetch.DefaultMaxConcurrency,
			MaxBodyBytes:      jupiterfetch.DefaultMaxBodyBytes,
		},
		Cache: CacheConfig{
			Dir:              defaultCacheDir(),
			TTL:              DurationFrom(jupitercache.DefaultTTL),
			CleanupInterval:  DurationFrom(jupitercache.DefaultCleanupInterval),
			CleanupThreshold: jupitercache.DefaultCleanupThreshold,
			MaxSize:          jupitercache.DefaultMaxSize,
		},
		Search: SearchConfig{
			Timeout:    DurationFrom(10 * time.Second),
			MaxResults: 50,
		},
		Sync: SyncConfig{
			Every: DurationFrom(24 * time.Hour),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Meili: MeiliConfig{
			Host:      "http://127.0.0.1:7700",
			Index:     "lectures",
			BatchSize: 500,
		},
	}
}

// Load reads the YAML file at path over the defaults. An empty path yields
// the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		fh, err := os.Open(path)
		if err != nil {
			return Config{}, fmt.Errorf("open config: %w", err)
		}
		defer fh.Close()

		if err := decode(fh, &cfg); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func decode(r io.Reader, cfg *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && err != io.EOF {
		return fmt.Errorf("decode config: %w", err)
	}
	return nil
}

func (c Config) Validate() error {
	var err error

	if strings.TrimSpace(c.Fetch.BaseURL) == "" {
		err = multierror.Append(err, fmt.Errorf("fetch.base_url must be set"))
	}
	if c.Fetch.Timeout.Duration <= 0 {
		err = multierror.Append(err, fmt.Errorf("fetch.timeout must be > 0"))
	}
	if c.Fetch.RequestsPerSecond < 0 {
		err = multierror.Append(err, fmt.Errorf("fetch.requests_per_second must be >= 0"))
	}
	if c.Fetch.MaxConcurrency <= 0 {
		err = multierror.Append(err, fmt.Errorf("fetch.max_concurrency must be > 0"))
	}
	if c.Fetch.MaxBodyBytes <= 0 {
		err = multierror.Append(err, fmt.Errorf("fetch.max_body_bytes must be > 0"))
	}

	if strings.TrimSpace(c.Cache.Dir) == "" {
		err = multierror.Append(err, fmt.Errorf("cache.dir must be set"))
	}
	if c.Cache.TTL.Duration <= 0 {
		err = multierror.Append(err, fmt.Errorf("cache.ttl must be > 0"))
	}
	if c.Cache.CleanupInterval.Duration <= 0 {
		err = multierror.Append(err, fmt.Errorf("cache.cleanup_interval must be > 0"))
	}
	if c.Cache.CleanupThreshold <= 0 || c.Cache.MaxSize <= 0 {
		err = multierror.Append(err, fmt.Errorf("cache size limits must be > 0"))
	} else if c.Cache.CleanupThreshold > c.Cache.MaxSize {
		err = multierror.Append(err, fmt.Errorf("cache.cleanup_threshold_bytes must not exceed cache.max_size_bytes"))
	}

	if c.Search.Timeout.Duration <= 0 {
		err = multierror.Append(err, fmt.Errorf("search.timeout must be > 0"))
	}
	if c.Search.MaxResults < 0 {
		err = multierror.Append(err, fmt.Errorf("search.max_results must be >= 0"))
	}
	if c.Sync.Every.Duration < 0 {
		err = multierror.Append(err, fmt.Errorf("sync.every must be >= 0"))
	}

	if _, lerr := logrus.ParseLevel(c.Logging.Level); lerr != nil {
		err = multierror.Append(err, fmt.Errorf("logging.level: %w", lerr))
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		err = multierror.Append(err, fmt.Errorf("logging.format must be text or json (got %q)", c.Logging.Format))
	}

	if c.Meili.BatchSize <= 0 {
		err = multierror.Append(err, fmt.Errorf("meili.batch_size must be > 0"))
	}

	return err
}

// Logger builds a logger writing to stderr.
func (l LoggingConfig) Logger(fields logrus.Fields) (*logrus.Entry, error) {
	level, err := logrus.ParseLevel(l.Level)
	if err != nil {
		return nil, err
	}

	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(level)
	if l.Format == "json" {
		logger.SetFormatter(new(logrus.JSONFormatter))
	}
	return logger.WithFields(fields), nil
}

func (f FetchConfig) ClientOptions(logger *logrus.Entry) jupiterfetch.ClientOptions {
	return jupiterfetch.ClientOptions{
		Timeout:           f.Timeout.Duration,
		UserAgent:         f.UserAgent,
		RequestsPerSecond: f.RequestsPerSecond,
		Burst:             f.Burst,
		MaxBodyBytes:      f.MaxBodyBytes,
		Logger:            logger,
	}
}

func (c CacheConfig) CacheConfig(clk clock.Clock, logger *logrus.Entry) jupitercache.Config {
	return jupitercache.Config{
		Dir:              c.Dir,
		Clock:            clk,
		TTL:              c.TTL.Duration,
		CleanupInterval:  c.CleanupInterval.Duration,
		CleanupThreshold: c.CleanupThreshold,
		MaxSize:          c.MaxSize,
		Logger:           logger,
	}
}
