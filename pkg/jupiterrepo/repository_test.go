package jupiterrepo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/golang/mock/gomock"
	"github.com/juju/clock/testclock"
	check "gopkg.in/check.v1"

	"github.com/lukasmoellerch/jupiter-go/pkg/jupitercache"
	"github.com/lukasmoellerch/jupiter-go/pkg/jupiterfetch"
	mock_jupiterrepo "github.com/lukasmoellerch/jupiter-go/pkg/jupiterrepo/mocks"
	"github.com/lukasmoellerch/jupiter-go/pkg/jupiterscrape"
)

var _ = check.Suite(new(RepositoryTestSuite))

func Test(t *testing.T) {
	check.TestingT(t)
}

// repoFixture wires a repository to a mocked crawler and a real cache in a
// temporary directory.
type repoFixture struct {
	crawler *mock_jupiterrepo.MockCrawler
	cache   *jupitercache.Cache
	clk     *testclock.Clock
	repo    *Repository
	units   jupiterscrape.UnitTable
}

func (s *repoFixture) setUp(c *check.C) {
	ctrl := gomock.NewController(c)
	s.crawler = mock_jupiterrepo.NewMockCrawler(ctrl)
	s.clk = testclock.NewClock(time.Date(2024, time.April, 10, 8, 0, 0, 0, time.UTC))

	cache, err := jupitercache.Open(jupitercache.Config{Dir: c.MkDir(), Clock: s.clk})
	c.Assert(err, check.IsNil)
	s.cache = cache

	repo, err := New(Config{Crawler: s.crawler, Store: s.cache})
	c.Assert(err, check.IsNil)
	s.repo = repo

	s.units = jupiterscrape.NewUnitTable([]jupiterscrape.Unit{
		{Name: "Instituto de Matemática e Estatística", Code: 45},
		{Name: "Instituto de Ciências Matemáticas e de Computação", Code: 55},
	})
}

type RepositoryTestSuite struct {
	repoFixture
}

func (s *RepositoryTestSuite) SetUpTest(c *check.C) {
	s.setUp(c)
}

func (s *RepositoryTestSuite) TestConfigValidation(c *check.C) {
	_, err := New(Config{})
	c.Assert(err, check.ErrorMatches, "(?s).*crawler not provided.*store not provided.*")
}

func (s *RepositoryTestSuite) TestUnitsReadThrough(c *check.C) {
	s.crawler.EXPECT().FetchUnits(gomock.Any()).Return(s.units, nil).Times(1)

	for i := 0; i < 2; i++ {
		units, err := s.repo.Units(context.TODO())
		c.Assert(err, check.IsNil)
		c.Assert(units.Units(), check.DeepEquals, s.units.Units())
	}

	s.clk.Advance(25 * time.Hour)
	s.crawler.EXPECT().FetchUnits(gomock.Any()).Return(jupiterscrape.UnitTable{}, nil)
	_, err := s.repo.Units(context.TODO())
	c.Assert(errors.Is(err, ErrNotFound), check.Equals, true)
}

func (s *RepositoryTestSuite) TestLectureIsNormalizedAndCached(c *check.C) {
	s.cache.PutUnits(s.units)
	s.crawler.EXPECT().FetchLecture(gomock.Any(), gomock.Any(), "MAC0110").Return(jupiterscrape.Lecture{
		Code:           "mac0110 ",
		Name:           "Introdução à Computação",
		Unit:           "Instituto de Matemática e Estatística",
		Campus:         "sao paulo",
		LectureCredits: 44,
	}, nil).Times(1)

	lecture, err := s.repo.Lecture(context.TODO(), " mac0110")
	c.Assert(err, check.IsNil)
	c.Assert(lecture.Code, check.Equals, "MAC0110")
	c.Assert(lecture.Campus, check.Equals, jupiterscrape.CampusSaoPaulo)
	c.Assert(lecture.LectureCredits, check.Equals, 20)

	cached, err := s.repo.Lecture(context.TODO(), "MAC0110")
	c.Assert(err, check.IsNil)
	c.Assert(cached, check.DeepEquals, lecture)
}

func (s *RepositoryTestSuite) TestLectureNotFound(c *check.C) {
	s.cache.PutUnits(s.units)
	s.crawler.EXPECT().FetchLecture(gomock.Any(), gomock.Any(), "XYZ9999").Return(jupiterscrape.Lecture{Code: "XYZ9999", Name: "XYZ9999"}, nil)

	_, err := s.repo.Lecture(context.TODO(), "XYZ9999")
	c.Assert(errors.Is(err, ErrNotFound), check.Equals, true)
	_, ok := s.cache.Lecture("XYZ9999")
	c.Assert(ok, check.Equals, false)
}

func (s *RepositoryTestSuite) TestCoursesAlsoCacheCurricula(c *check.C) {
	s.cache.PutUnits(s.units)
	course := jupiterscrape.Course{Code: "45052-1", Name: "Bacharelado em Ciência da Computação", Periods: map[string][]jupiterscrape.LectureInfo{
		"1": {{Code: "MAC0110", Type: jupiterscrape.LectureMandatory}},
	}}
	s.crawler.EXPECT().FetchCoursesForUnit(gomock.Any(), gomock.Any(), 45).Return([]jupiterscrape.Course{course}, nil).Times(1)

	courses, err := s.repo.CoursesForUnit(context.TODO(), 45)
	c.Assert(err, check.IsNil)
	c.Assert(courses, check.DeepEquals, []jupiterscrape.Course{course})

	courses, err = s.repo.CoursesForUnit(context.TODO(), 45)
	c.Assert(err, check.IsNil)
	c.Assert(courses, check.HasLen, 1)

	curriculum, err := s.repo.Curriculum(context.TODO(), "45052-1", 45)
	c.Assert(err, check.IsNil)
	c.Assert(curriculum, check.DeepEquals, course)
}

func (s *RepositoryTestSuite) TestCurriculumNotFound(c *check.C) {
	s.cache.PutUnits(s.units)
	s.crawler.EXPECT().FetchCurriculum(gomock.Any(), gomock.Any(), "1-1", 45).Return(jupiterscrape.Course{}, nil)

	_, err := s.repo.Curriculum(context.TODO(), "1-1", 45)
	c.Assert(errors.Is(err, ErrNotFound), check.Equals, true)
}

func (s *RepositoryTestSuite) TestSearchScopesUnits(c *check.C) {
	s.cache.PutUnits(s.units)
	found := []jupiterscrape.Lecture{{Code: "MAC0110", Name: "Introdução à Computação"}}
	s.crawler.EXPECT().SearchLectures(gomock.Any(), "mac", gomock.Any()).DoAndReturn(
		func(_ context.Context, _ string, units jupiterscrape.UnitTable) ([]jupiterscrape.Lecture, error) {
			c.Check(units.Len(), check.Equals, 1)
			_, ok := units.Code("Instituto de Matemática e Estatística")
			c.Check(ok, check.Equals, true)
			return found, nil
		}).Times(1)

	scope := []string{"Instituto de Matemática e Estatística"}
	lectures, err := s.repo.SearchLectures(context.TODO(), "mac", scope)
	c.Assert(err, check.IsNil)
	c.Assert(lectures, check.DeepEquals, found)

	lectures, err = s.repo.SearchLectures(context.TODO(), "MAC", scope)
	c.Assert(err, check.IsNil)
	c.Assert(lectures, check.DeepEquals, found)

	_, ok := s.cache.Lecture("MAC0110")
	c.Assert(ok, check.Equals, true)
}

func (s *RepositoryTestSuite) TestCrawlerErrorsAreWrapped(c *check.C) {
	cause := errors.New("portal down")
	s.crawler.EXPECT().FetchUnits(gomock.Any()).Return(jupiterscrape.UnitTable{}, cause)

	_, err := s.repo.Lecture(context.TODO(), "MAC0110")
	c.Assert(errors.Is(err, cause), check.Equals, true)
}

type failingFetcher struct{}

func (failingFetcher) Fetch(ctx context.Context, url string) (*goquery.Document, error) {
	return nil, &jupiterfetch.NetworkError{URL: url, Cause: errors.New("connection refused")}
}

func (s *RepositoryTestSuite) TestOutageIsNotCached(c *check.C) {
	crawler, err := jupiterfetch.NewCrawler(jupiterfetch.CrawlerConfig{Fetcher: failingFetcher{}, BaseURL: "http://jupiter.test/"})
	c.Assert(err, check.IsNil)
	repo, err := New(Config{Crawler: crawler, Store: s.cache})
	c.Assert(err, check.IsNil)
	s.cache.PutUnits(s.units)

	_, err = repo.SearchLectures(context.TODO(), "mac", nil)
	c.Assert(err, check.NotNil)
	_, ok := s.cache.Search("mac", nil)
	c.Assert(ok, check.Equals, false)

	ctx, cancel := context.WithCancel(context.TODO())
	cancel()
	_, err = repo.SearchLectures(ctx, "mac", nil)
	c.Assert(errors.Is(err, context.Canceled), check.Equals, true)
	_, ok = s.cache.Search("mac", nil)
	c.Assert(ok, check.Equals, false)
}
