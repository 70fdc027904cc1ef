// Package jupiterrepo puts the cache in front of the crawler: lookups are
// served from the store when fresh, otherwise crawled, normalized and
// written back.
package jupiterrepo

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	"github.com/lukasmoellerch/jupiter-go/pkg/jupiterscrape"
	"github.com/lukasmoellerch/jupiter-go/pkg/jupitertransform"
)

//go:generate mockgen -destination=mocks/mock_crawler.go -package=mock_jupiterrepo . Crawler

var ErrNotFound = errors.New("jupiterrepo: not found")

// Crawler fetches entities from the portal.
type Crawler interface {
	FetchUnits(ctx context.Context) (jupiterscrape.UnitTable, error)
	FetchCoursesForUnit(ctx context.Context, units jupiterscrape.UnitTable, unitCode int) ([]jupiterscrape.Course, error)
	FetchLecture(ctx context.Context, units jupiterscrape.UnitTable, code string) (jupiterscrape.Lecture, error)
	FetchCurriculum(ctx context.Context, units jupiterscrape.UnitTable, courseCode string, unitCode int) (jupiterscrape.Course, error)
	SearchLectures(ctx context.Context, query string, units jupiterscrape.UnitTable) ([]jupiterscrape.Lecture, error)
}

// Store persists entities. Lookups report false on a miss.
type Store interface {
	Units() (jupiterscrape.UnitTable, bool)
	PutUnits(units jupiterscrape.UnitTable)
	Courses(unitCode int) ([]jupiterscrape.Course, bool)
	PutCourses(unitCode int, courses []jupiterscrape.Course)
	Lecture(code string) (jupiterscrape.Lecture, bool)
	PutLecture(lecture jupiterscrape.Lecture)
	Curriculum(code string) (jupiterscrape.Course, bool)
	PutCurriculum(course jupiterscrape.Course)
	Search(query string, units []string) ([]jupiterscrape.Lecture, bool)
	PutSearch(query string, units []string, lectures []jupiterscrape.Lecture)
}

type Config struct {
	Crawler Crawler
	Store   Store

	// Transformer normalizes crawled entities before they are stored. If
	// not specified a transformer logging through Logger is used.
	Transformer *jupitertransform.Transformer

	// The logger to use. If not defined an output-discarding logger will
	// be used instead.
	Logger *logrus.Entry
}

func (config *Config) validate() error {
	var err error

	if config.Crawler == nil {
		err = multierror.Append(err, fmt.Errorf("crawler not provided"))
	}

	if config.Store == nil {
		err = multierror.Append(err, fmt.Errorf("store not provided"))
	}

	if config.Logger == nil {
		config.Logger = logrus.NewEntry(&logrus.Logger{Out: io.Discard})
	}

	if config.Transformer == nil {
		config.Transformer = jupitertransform.NewTransformer(jupitertransform.Config{Logger: config.Logger})
	}

	return err
}

type Repository struct {
	config Config
}

func New(config Config) (*Repository, error) {
	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("repository: config validation failed: %w", err)
	}
	return &Repository{config: config}, nil
}

func (r *Repository) Units(ctx context.Context) (jupiterscrape.UnitTable, error) {
	if units, ok := r.config.Store.Units(); ok && units.Len() > 0 {
		return units, nil
	}
	return r.RefreshUnits(ctx)
}

// RefreshUnits crawls the unit list regardless of the store.
func (r *Repository) RefreshUnits(ctx context.Context) (jupiterscrape.UnitTable, error) {
	units, err := r.config.Crawler.FetchUnits(ctx)
	if err != nil {
		return jupiterscrape.UnitTable{}, fmt.Errorf("fetching units: %w", err)
	}
	if units.Len() == 0 {
		return units, fmt.Errorf("fetching units: %w", ErrNotFound)
	}
	r.config.Store.PutUnits(units)
	return units, nil
}

func (r *Repository) CoursesForUnit(ctx context.Context, unitCode int) ([]jupiterscrape.Course, error) {
	if courses, ok := r.config.Store.Courses(unitCode); ok {
		return courses, nil
	}
	return r.RefreshCoursesForUnit(ctx, unitCode)
}

func (r *Repository) RefreshCoursesForUnit(ctx context.Context, unitCode int) ([]jupiterscrape.Course, error) {
	units, err := r.Units(ctx)
	if err != nil {
		return nil, err
	}
	courses, err := r.config.Crawler.FetchCoursesForUnit(ctx, units, unitCode)
	if err != nil {
		return nil, fmt.Errorf("fetching courses of unit %d: %w", unitCode, err)
	}
	courses = r.config.Transformer.Courses(courses)
	r.config.Store.PutCourses(unitCode, courses)
	for _, course := range courses {
		if course.Code != "" {
			r.config.Store.PutCurriculum(course)
		}
	}
	return courses, nil
}

func (r *Repository) Lecture(ctx context.Context, code string) (jupiterscrape.Lecture, error) {
	code = jupitertransform.NormalizeCode(code)
	if lecture, ok := r.config.Store.Lecture(code); ok {
		return lecture, nil
	}
	return r.RefreshLecture(ctx, code)
}

func (r *Repository) RefreshLecture(ctx context.Context, code string) (jupiterscrape.Lecture, error) {
	code = jupitertransform.NormalizeCode(code)
	units, err := r.Units(ctx)
	if err != nil {
		return jupiterscrape.Lecture{}, err
	}
	lecture, err := r.config.Crawler.FetchLecture(ctx, units, code)
	if err != nil {
		return jupiterscrape.Lecture{}, fmt.Errorf("fetching lecture %s: %w", code, err)
	}
	// A page without header yields nothing but the code.
	if lecture.Unit == "" && lecture.Name == lecture.Code {
		return jupiterscrape.Lecture{}, fmt.Errorf("lecture %s: %w", code, ErrNotFound)
	}
	lecture = r.config.Transformer.Lecture(lecture)
	r.config.Store.PutLecture(lecture)
	return lecture, nil
}

func (r *Repository) Curriculum(ctx context.Context, courseCode string, unitCode int) (jupiterscrape.Course, error) {
	if course, ok := r.config.Store.Curriculum(courseCode); ok {
		return course, nil
	}

	units, err := r.Units(ctx)
	if err != nil {
		return jupiterscrape.Course{}, err
	}
	course, err := r.config.Crawler.FetchCurriculum(ctx, units, courseCode, unitCode)
	if err != nil {
		return jupiterscrape.Course{}, fmt.Errorf("fetching curriculum %s: %w", courseCode, err)
	}
	if course.Code == "" {
		return jupiterscrape.Course{}, fmt.Errorf("curriculum %s: %w", courseCode, ErrNotFound)
	}
	course = r.config.Transformer.Course(course)
	r.config.Store.PutCurriculum(course)
	return course, nil
}

// SearchLectures crawls the lectures matching query in the named units, or
// in every unit when unitNames is empty. Results are cached per query and
// unit scope, and each lecture is cached on its own as well.
func (r *Repository) SearchLectures(ctx context.Context, query string, unitNames []string) ([]jupiterscrape.Lecture, error) {
	if lectures, ok := r.config.Store.Search(query, unitNames); ok {
		return lectures, nil
	}

	units, err := r.Units(ctx)
	if err != nil {
		return nil, err
	}
	selection := make(map[string]struct{}, len(unitNames))
	for _, name := range unitNames {
		selection[name] = struct{}{}
	}

	lectures, err := r.config.Crawler.SearchLectures(ctx, query, units.Select(selection))
	if err != nil {
		return nil, fmt.Errorf("searching lectures: %w", err)
	}
	lectures = r.config.Transformer.Lectures(lectures)
	for _, lecture := range lectures {
		r.config.Store.PutLecture(lecture)
	}
	r.config.Store.PutSearch(query, unitNames, lectures)
	return lectures, nil
}
