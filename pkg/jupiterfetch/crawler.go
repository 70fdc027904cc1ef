package jupiterfetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/lukasmoellerch/jupiter-go/pkg/jupiterscrape"
)

//go:generate mockgen -destination=mocks/mock_fetcher.go -package=mock_jupiterfetch . Fetcher

const DefaultMaxConcurrency = 8

var ErrInvalidCourseCode = errors.New("jupiterfetch: course code must have the form <curriculum>-<habilitation>")

// Fetcher retrieves a page and parses it into a document.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*goquery.Document, error)
}

type CrawlerConfig struct {
	Fetcher Fetcher
	BaseURL string

	// MaxConcurrency caps the number of pages fetched at the same time
	// across all fan-out operations of a crawler.
	MaxConcurrency int

	Logger *logrus.Entry
}

func (config *CrawlerConfig) validate() error {
	var err error

	if config.Fetcher == nil {
		err = multierror.Append(err, fmt.Errorf("fetcher not provided"))
	}

	if config.MaxConcurrency == 0 {
		config.MaxConcurrency = DefaultMaxConcurrency
	} else if config.MaxConcurrency < 0 {
		err = multierror.Append(err, fmt.Errorf("invalid value for max concurrency, must be > 0"))
	}

	if config.Logger == nil {
		config.Logger = logrus.NewEntry(&logrus.Logger{Out: io.Discard})
	}

	return err
}

// Crawler sequences page fetches and parsers into entity level operations.
// Fan-out operations run one goroutine per item; items that fail are logged
// and left out of the result. A fan-out fails as a whole when its context is
// done or when every item failed.
type Crawler struct {
	config CrawlerConfig
	urls   URLs
	sem    *semaphore.Weighted
}

func NewCrawler(config CrawlerConfig) (*Crawler, error) {
	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("crawler: config validation failed: %w", err)
	}
	return &Crawler{
		config: config,
		urls:   URLs{Base: config.BaseURL},
		sem:    semaphore.NewWeighted(int64(config.MaxConcurrency)),
	}, nil
}

func (c *Crawler) URLs() URLs { return c.urls }

func (c *Crawler) fetch(ctx context.Context, url string) (*goquery.Document, error) {
	if err := c.sem.Acquire(ctx, 1); err != nil {
		return nil, &NetworkError{URL: url, Cause: err}
	}
	defer c.sem.Release(1)
	return c.config.Fetcher.Fetch(ctx, url)
}

// recoverTo turns a panic in the calling operation into an error.
func recoverTo(err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("jupiterfetch: recovered from panic: %v", r)
	}
}

// guard runs fn, turning a panic into an error. Fan-out workers run their
// item through it, recoverTo only covers the calling goroutine.
func guard(fn func() error) (err error) {
	defer recoverTo(&err)
	return fn()
}

// fanOutResult decides the outcome of a fan-out over attempted items once
// all workers are done. A cancelled context and a fan-out in which every
// item failed are errors, partial failures are not.
func fanOutResult(ctx context.Context, what string, attempted int, failures []error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var merr *multierror.Error
	for _, err := range failures {
		if err != nil {
			merr = multierror.Append(merr, err)
		}
	}
	if attempted > 0 && merr != nil && merr.Len() == attempted {
		return fmt.Errorf("jupiterfetch: all %d %s failed: %w", attempted, what, merr.ErrorOrNil())
	}
	return nil
}

func (c *Crawler) FetchUnits(ctx context.Context) (units jupiterscrape.UnitTable, err error) {
	defer recoverTo(&err)

	doc, err := c.fetch(ctx, c.urls.UnitList())
	if err != nil {
		return jupiterscrape.UnitTable{}, err
	}
	units = jupiterscrape.ScrapeUnits(doc)
	c.config.Logger.WithField("unit_count", units.Len()).Debug("fetched unit list")
	return units, nil
}

// FetchCoursesForUnit fetches the course list of a unit and then every
// curriculum it links to.
func (c *Crawler) FetchCoursesForUnit(ctx context.Context, units jupiterscrape.UnitTable, unitCode int) (courses []jupiterscrape.Course, err error) {
	defer recoverTo(&err)

	doc, err := c.fetch(ctx, c.urls.CourseList(unitCode))
	if err != nil {
		return nil, err
	}
	listing := jupiterscrape.ScrapeCourseLinks(doc)
	unitName := listing.Unit
	if name, ok := units.Name(unitCode); ok {
		unitName = name
	}

	results := make([]*jupiterscrape.Course, len(listing.Links))
	failures := make([]error, len(listing.Links))
	eg, egctx := errgroup.WithContext(ctx)
	for i, link := range listing.Links {
		i := i
		link := link
		eg.Go(func() error {
			err := guard(func() error {
				course, err := c.fetchCurriculum(egctx, unitCode, unitName, link.Curriculum, link.Habilitation)
				if err == nil {
					results[i] = &course
				}
				return err
			})
			if err != nil {
				failures[i] = err
				c.config.Logger.WithFields(logrus.Fields{
					"unit":   unitCode,
					"course": link.Code(),
					"err":    err,
				}).Warn("skipping course")
			}
			return nil
		})
	}
	_ = eg.Wait()
	if err := fanOutResult(ctx, "curricula", len(listing.Links), failures); err != nil {
		return nil, err
	}

	courses = make([]jupiterscrape.Course, 0, len(results))
	for _, course := range results {
		if course != nil {
			courses = append(courses, *course)
		}
	}
	return courses, nil
}

func (c *Crawler) FetchCurriculum(ctx context.Context, units jupiterscrape.UnitTable, courseCode string, unitCode int) (course jupiterscrape.Course, err error) {
	defer recoverTo(&err)

	parts := strings.SplitN(courseCode, "-", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return jupiterscrape.Course{}, fmt.Errorf("%w: %q", ErrInvalidCourseCode, courseCode)
	}
	unitName, _ := units.Name(unitCode)
	return c.fetchCurriculum(ctx, unitCode, unitName, parts[0], parts[1])
}

func (c *Crawler) fetchCurriculum(ctx context.Context, unitCode int, unitName, curriculum, habilitation string) (jupiterscrape.Course, error) {
	url := c.urls.Curriculum(unitCode, curriculum, habilitation)
	doc, err := c.fetch(ctx, url)
	if err != nil {
		return jupiterscrape.Course{}, err
	}
	return jupiterscrape.ScrapeCourse(doc, jupiterscrape.CourseContext{PageURL: url, Unit: unitName}), nil
}

// FetchLecture fetches the info and classroom pages of a lecture. A missing
// classroom page yields a lecture without classrooms.
func (c *Crawler) FetchLecture(ctx context.Context, units jupiterscrape.UnitTable, code string) (lecture jupiterscrape.Lecture, err error) {
	defer recoverTo(&err)

	code = strings.ToUpper(strings.TrimSpace(code))
	var info, classrooms *goquery.Document

	eg, egctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return guard(func() error {
			doc, err := c.fetch(egctx, c.urls.LectureInfo(code))
			info = doc
			return err
		})
	})
	eg.Go(func() error {
		var doc *goquery.Document
		err := guard(func() (err error) {
			doc, err = c.fetch(egctx, c.urls.Classrooms(code))
			return err
		})
		if err != nil {
			c.config.Logger.WithFields(logrus.Fields{
				"lecture": code,
				"err":     err,
			}).Warn("classroom page unavailable")
			return nil
		}
		classrooms = doc
		return nil
	})
	if err := eg.Wait(); err != nil {
		return jupiterscrape.Lecture{}, err
	}

	return jupiterscrape.ScrapeLecture(info, classrooms, units, code), nil
}

// SearchLectures looks up the disciplines of every unit in units whose code
// or name contains query and fetches them. The result is deduplicated by
// code, the first occurrence in unit order wins.
func (c *Crawler) SearchLectures(ctx context.Context, query string, units jupiterscrape.UnitTable) (lectures []jupiterscrape.Lecture, err error) {
	defer recoverTo(&err)

	query = strings.TrimSpace(query)
	if query == "" {
		return []jupiterscrape.Lecture{}, nil
	}
	upper, lower := strings.ToUpper(query), strings.ToLower(query)

	scope := units.Units()
	perUnit := make([][]jupiterscrape.DisciplineLink, len(scope))
	failures := make([]error, len(scope))
	eg, egctx := errgroup.WithContext(ctx)
	for i, unit := range scope {
		i := i
		unit := unit
		eg.Go(func() error {
			err := guard(func() error {
				doc, err := c.fetch(egctx, c.urls.DisciplineList(unit.Code))
				if err != nil {
					return err
				}
				for _, link := range jupiterscrape.ScrapeDisciplineLinks(doc) {
					if strings.Contains(link.Code, upper) || strings.Contains(strings.ToLower(link.Name), lower) {
						perUnit[i] = append(perUnit[i], link)
					}
				}
				return nil
			})
			if err != nil {
				failures[i] = err
				perUnit[i] = nil
				c.config.Logger.WithFields(logrus.Fields{
					"unit": unit.Code,
					"err":  err,
				}).Warn("skipping discipline list")
			}
			return nil
		})
	}
	_ = eg.Wait()
	if err := fanOutResult(ctx, "discipline lists", len(scope), failures); err != nil {
		return nil, err
	}

	codes := make([]string, 0)
	seen := make(map[string]bool)
	for _, links := range perUnit {
		for _, link := range links {
			if !seen[link.Code] {
				seen[link.Code] = true
				codes = append(codes, link.Code)
			}
		}
	}

	results := make([]*jupiterscrape.Lecture, len(codes))
	failures = make([]error, len(codes))
	eg, egctx = errgroup.WithContext(ctx)
	for i, code := range codes {
		i := i
		code := code
		eg.Go(func() error {
			lecture, err := c.FetchLecture(egctx, units, code)
			if err != nil {
				failures[i] = err
				c.config.Logger.WithFields(logrus.Fields{
					"lecture": code,
					"err":     err,
				}).Warn("skipping lecture")
				return nil
			}
			results[i] = &lecture
			return nil
		})
	}
	_ = eg.Wait()
	if err := fanOutResult(ctx, "lectures", len(codes), failures); err != nil {
		return nil, err
	}

	lectures = make([]jupiterscrape.Lecture, 0, len(results))
	seen = make(map[string]bool)
	for _, lecture := range results {
		if lecture == nil || seen[lecture.Code] {
			continue
		}
		seen[lecture.Code] = true
		lectures = append(lectures, *lecture)
	}
	return lectures, nil
}
