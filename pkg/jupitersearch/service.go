package jupitersearch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/juju/clock"
	"github.com/sirupsen/logrus"

	"github.com/lukasmoellerch/jupiter-go/pkg/jupiterscrape"
)

//go:generate mockgen -destination=mocks/mock_source.go -package=mock_jupitersearch . Source

const DefaultTimeout = 10 * time.Second

var ErrSearchTimeout = errors.New("jupitersearch: search timed out")

// Source provides the candidate lectures of a search.
type Source interface {
	Lectures(ctx context.Context) ([]jupiterscrape.Lecture, error)
}

type Config struct {
	// Source provides the candidates, usually the fresh entries of the
	// lecture cache.
	Source Source

	// A clock instance for the availability checks and the search timeout.
	// If not specified, the default wall-clock will be used instead.
	Clock clock.Clock

	// Timeout bounds a single search. Defaults to 10s.
	Timeout time.Duration

	// The logger to use. If not defined an output-discarding logger will
	// be used instead.
	Logger *logrus.Entry
}

func (config *Config) validate() error {
	var err error

	if config.Source == nil {
		err = multierror.Append(err, fmt.Errorf("lecture source not provided"))
	}

	if config.Clock == nil {
		config.Clock = clock.WallClock
	}

	if config.Timeout == 0 {
		config.Timeout = DefaultTimeout
	} else if config.Timeout < 0 {
		err = multierror.Append(err, fmt.Errorf("invalid value for timeout, must be > 0"))
	}

	if config.Logger == nil {
		config.Logger = logrus.NewEntry(&logrus.Logger{Out: io.Discard})
	}

	return err
}

type Service struct {
	config Config
}

func NewService(config Config) (*Service, error) {
	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("search service: config validation failed: %w", err)
	}
	return &Service{config: config}, nil
}

type scored struct {
	lecture jupiterscrape.Lecture
	score   int
}

// SearchLecturesAdvanced filters the candidate lectures, ranks them by
// RelevanceScore and returns at most maxResults of them. maxResults <= 0
// means no limit. When the search does not finish within the configured
// timeout an empty list is returned.
func (s *Service) SearchLecturesAdvanced(ctx context.Context, query string, filters Filters, maxResults int) []jupiterscrape.Lecture {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type outcome struct {
		lectures []jupiterscrape.Lecture
		err      error
	}
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("search panicked: %v", r)}
			}
		}()
		lectures, err := s.search(ctx, query, filters, maxResults)
		done <- outcome{lectures: lectures, err: err}
	}()

	logger := s.config.Logger.WithField("query", query)
	select {
	case res := <-done:
		if res.err != nil {
			logger.WithField("err", res.err).Error("search failed")
			return []jupiterscrape.Lecture{}
		}
		return res.lectures
	case <-s.config.Clock.After(s.config.Timeout):
		logger.WithFields(logrus.Fields{
			"err":     ErrSearchTimeout,
			"timeout": s.config.Timeout,
		}).Warn("search timed out")
		return []jupiterscrape.Lecture{}
	case <-ctx.Done():
		logger.WithField("err", ctx.Err()).Warn("search cancelled")
		return []jupiterscrape.Lecture{}
	}
}

func (s *Service) search(ctx context.Context, query string, filters Filters, maxResults int) ([]jupiterscrape.Lecture, error) {
	candidates, err := s.config.Source.Lectures(ctx)
	if err != nil {
		return nil, err
	}
	now := s.config.Clock.Now()
	filtered := ApplyFilters(candidates, filters, now)

	ranked := make([]scored, len(filtered))
	for i, lecture := range filtered {
		ranked[i] = scored{lecture: lecture, score: RelevanceScore(lecture, query, now)}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	if maxResults > 0 && len(ranked) > maxResults {
		ranked = ranked[:maxResults]
	}
	out := make([]jupiterscrape.Lecture, len(ranked))
	for i, r := range ranked {
		out[i] = r.lecture
	}
	return out, nil
}
