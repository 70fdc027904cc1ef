package jupiterconfig

import (
	"fmt"
	"io"

	"github.com/juju/clock"
	"github.com/sirupsen/logrus"

	"github.com/lukasmoellerch/jupiter-go/pkg/jupitercache"
	"github.com/lukasmoellerch/jupiter-go/pkg/jupiterfetch"
	"github.com/lukasmoellerch/jupiter-go/pkg/jupiterrepo"
	"github.com/lukasmoellerch/jupiter-go/pkg/jupitersearch"
	"github.com/lukasmoellerch/jupiter-go/pkg/jupitertransform"
)

// Runtime holds the components the command line tools share, wired from a
// configuration.
type Runtime struct {
	Config     Config
	Clock      clock.Clock
	Logger     *logrus.Entry
	Cache      *jupitercache.Cache
	Crawler    *jupiterfetch.Crawler
	Repository *jupiterrepo.Repository
	Search     *jupitersearch.Service
}

func (c Config) Build(clk clock.Clock, logger *logrus.Entry) (*Runtime, error) {
	if clk == nil {
		clk = clock.WallClock
	}
	if logger == nil {
		logger = logrus.NewEntry(&logrus.Logger{Out: io.Discard})
	}

	cache, err := jupitercache.Open(c.Cache.CacheConfig(clk, logger.WithField("component", "cache")))
	if err != nil {
		return nil, fmt.Errorf("opening cache: %w", err)
	}

	client := jupiterfetch.NewClient(c.Fetch.ClientOptions(logger.WithField("component", "fetch")))
	crawler, err := jupiterfetch.NewCrawler(jupiterfetch.CrawlerConfig{
		Fetcher:        client,
		BaseURL:        c.Fetch.BaseURL,
		MaxConcurrency: c.Fetch.MaxConcurrency,
		Logger:         logger.WithField("component", "crawler"),
	})
	if err != nil {
		return nil, err
	}

	repo, err := jupiterrepo.New(jupiterrepo.Config{
		Crawler:     crawler,
		Store:       cache,
		Transformer: jupitertransform.NewTransformer(jupitertransform.Config{Logger: logger.WithField("component", "transform")}),
		Logger:      logger.WithField("component", "repository"),
	})
	if err != nil {
		return nil, err
	}

	search, err := jupitersearch.NewService(jupitersearch.Config{
		Source:  cache,
		Clock:   clk,
		Timeout: c.Search.Timeout.Duration,
		Logger:  logger.WithField("component", "search"),
	})
	if err != nil {
		return nil, err
	}

	return &Runtime{
		Config:     c,
		Clock:      clk,
		Logger:     logger,
		Cache:      cache,
		Crawler:    crawler,
		Repository: repo,
		Search:     search,
	}, nil
}

// Syncer returns a full-sync runner scoped to the configured units.
func (r *Runtime) Syncer() (*jupiterrepo.Syncer, error) {
	return jupiterrepo.NewSyncer(jupiterrepo.SyncerConfig{
		Repository:      r.Repository,
		Preferences:     jupiterrepo.NewUnitSet(r.Config.Sync.Units...),
		IncludeLectures: r.Config.Sync.IncludeLectures,
		Logger:          r.Logger.WithField("component", "sync"),
	})
}
