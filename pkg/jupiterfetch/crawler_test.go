package jupiterfetch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/golang/mock/gomock"
	check "gopkg.in/check.v1"

	mock_jupiterfetch "github.com/lukasmoellerch/jupiter-go/pkg/jupiterfetch/mocks"
	"github.com/lukasmoellerch/jupiter-go/pkg/jupiterscrape"
)

var _ = check.Suite(new(CrawlerTestSuite))

const testBaseURL = "http://jupiter.test/"

type CrawlerTestSuite struct {
	fetcher *mock_jupiterfetch.MockFetcher
	crawler *Crawler
	urls    URLs
	units   jupiterscrape.UnitTable
}

func (s *CrawlerTestSuite) SetUpTest(c *check.C) {
	ctrl := gomock.NewController(c)
	s.fetcher = mock_jupiterfetch.NewMockFetcher(ctrl)

	crawler, err := NewCrawler(CrawlerConfig{Fetcher: s.fetcher, BaseURL: testBaseURL})
	c.Assert(err, check.IsNil)
	s.crawler = crawler
	s.urls = URLs{Base: testBaseURL}
	s.units = jupiterscrape.NewUnitTable([]jupiterscrape.Unit{
		{Name: "Instituto de Matemática e Estatística", Code: 45},
		{Name: "Instituto de Ciências Matemáticas e de Computação", Code: 55},
	})
}

func loadDocument(c *check.C, name string) *goquery.Document {
	f, err := os.Open(filepath.Join("testdata", name))
	c.Assert(err, check.IsNil)
	defer f.Close()

	doc, err := goquery.NewDocumentFromReader(f)
	c.Assert(err, check.IsNil)
	return doc
}

func (s *CrawlerTestSuite) TestConfigValidation(c *check.C) {
	_, err := NewCrawler(CrawlerConfig{MaxConcurrency: -1})
	c.Assert(err, check.ErrorMatches, "(?s).*fetcher not provided.*max concurrency.*")
}

func (s *CrawlerTestSuite) TestFetchUnits(c *check.C) {
	s.fetcher.EXPECT().Fetch(gomock.Any(), s.urls.UnitList()).Return(loadDocument(c, "units.html"), nil)

	units, err := s.crawler.FetchUnits(context.TODO())
	c.Assert(err, check.IsNil)
	c.Assert(units.Len(), check.Equals, 3)
}

func (s *CrawlerTestSuite) TestFetchUnitsPropagatesError(c *check.C) {
	s.fetcher.EXPECT().Fetch(gomock.Any(), s.urls.UnitList()).Return(nil, &HTTPError{StatusCode: 503, URL: s.urls.UnitList()})

	_, err := s.crawler.FetchUnits(context.TODO())
	var httpErr *HTTPError
	c.Assert(errors.As(err, &httpErr), check.Equals, true)
}

func (s *CrawlerTestSuite) TestFetchCoursesForUnitSkipsFailedCurricula(c *check.C) {
	s.fetcher.EXPECT().Fetch(gomock.Any(), s.urls.CourseList(45)).Return(loadDocument(c, "course_list.html"), nil)
	s.fetcher.EXPECT().Fetch(gomock.Any(), s.urls.Curriculum(45, "45052", "1")).Return(loadDocument(c, "curriculum.html"), nil)
	s.fetcher.EXPECT().Fetch(gomock.Any(), s.urls.Curriculum(45, "45031", "4")).Return(nil, &HTTPError{StatusCode: 500})

	courses, err := s.crawler.FetchCoursesForUnit(context.TODO(), s.units, 45)
	c.Assert(err, check.IsNil)
	c.Assert(courses, check.HasLen, 1)
	c.Assert(courses[0].Code, check.Equals, "45052-1")
	c.Assert(courses[0].Unit, check.Equals, "Instituto de Matemática e Estatística")
	c.Assert(courses[0].Periods["2"], check.HasLen, 2)
}

func (s *CrawlerTestSuite) TestFetchCoursesForUnitFailsWhenEveryCurriculumFails(c *check.C) {
	s.fetcher.EXPECT().Fetch(gomock.Any(), s.urls.CourseList(45)).Return(loadDocument(c, "course_list.html"), nil)
	s.fetcher.EXPECT().Fetch(gomock.Any(), s.urls.Curriculum(45, "45052", "1")).Return(nil, &NetworkError{Cause: errors.New("connection refused")})
	s.fetcher.EXPECT().Fetch(gomock.Any(), s.urls.Curriculum(45, "45031", "4")).Return(nil, &NetworkError{Cause: errors.New("connection refused")})

	courses, err := s.crawler.FetchCoursesForUnit(context.TODO(), s.units, 45)
	c.Assert(err, check.ErrorMatches, "(?s)jupiterfetch: all 2 curricula failed: .*connection refused.*")
	c.Assert(courses, check.IsNil)
}

func (s *CrawlerTestSuite) TestFetchCoursesForUnitRecoversFromWorkerPanics(c *check.C) {
	s.fetcher.EXPECT().Fetch(gomock.Any(), s.urls.CourseList(45)).Return(loadDocument(c, "course_list.html"), nil)
	s.fetcher.EXPECT().Fetch(gomock.Any(), s.urls.Curriculum(45, "45052", "1")).Return(loadDocument(c, "curriculum.html"), nil)
	s.fetcher.EXPECT().Fetch(gomock.Any(), s.urls.Curriculum(45, "45031", "4")).DoAndReturn(func(context.Context, string) (*goquery.Document, error) {
		panic("broken page")
	})

	courses, err := s.crawler.FetchCoursesForUnit(context.TODO(), s.units, 45)
	c.Assert(err, check.IsNil)
	c.Assert(courses, check.HasLen, 1)
	c.Assert(courses[0].Code, check.Equals, "45052-1")
}

func (s *CrawlerTestSuite) TestFetchCoursesForUnitCancelled(c *check.C) {
	ctx, cancel := context.WithCancel(context.TODO())
	defer cancel()

	var once sync.Once
	fetcher := fetcherFunc(func(ctx context.Context, url string) (*goquery.Document, error) {
		if strings.Contains(url, "jupCursoLista") {
			return loadDocument(c, "course_list.html"), nil
		}
		served := false
		once.Do(func() {
			served = true
			cancel()
		})
		if served {
			return loadDocument(c, "curriculum.html"), nil
		}
		return nil, &NetworkError{URL: url, Cause: ctx.Err()}
	})
	crawler, err := NewCrawler(CrawlerConfig{Fetcher: fetcher, BaseURL: testBaseURL, MaxConcurrency: 1})
	c.Assert(err, check.IsNil)

	courses, err := crawler.FetchCoursesForUnit(ctx, s.units, 45)
	c.Assert(errors.Is(err, context.Canceled), check.Equals, true)
	c.Assert(courses, check.IsNil)
}

func (s *CrawlerTestSuite) TestFetchCurriculum(c *check.C) {
	s.fetcher.EXPECT().Fetch(gomock.Any(), s.urls.Curriculum(45, "45052", "1")).Return(loadDocument(c, "curriculum.html"), nil)

	course, err := s.crawler.FetchCurriculum(context.TODO(), s.units, "45052-1", 45)
	c.Assert(err, check.IsNil)
	c.Assert(course.Code, check.Equals, "45052-1")

	_, err = s.crawler.FetchCurriculum(context.TODO(), s.units, "45052", 45)
	c.Assert(errors.Is(err, ErrInvalidCourseCode), check.Equals, true)
}

func (s *CrawlerTestSuite) TestFetchLecture(c *check.C) {
	s.fetcher.EXPECT().Fetch(gomock.Any(), s.urls.LectureInfo("MAC0110")).Return(loadDocument(c, "lecture_info.html"), nil)
	s.fetcher.EXPECT().Fetch(gomock.Any(), s.urls.Classrooms("MAC0110")).Return(loadDocument(c, "classrooms.html"), nil)

	lecture, err := s.crawler.FetchLecture(context.TODO(), s.units, " mac0110 ")
	c.Assert(err, check.IsNil)
	c.Assert(lecture.Code, check.Equals, "MAC0110")
	c.Assert(lecture.Name, check.Equals, "Introdução à Computação")
	c.Assert(lecture.Classrooms, check.HasLen, 2)
}

func (s *CrawlerTestSuite) TestFetchLectureWithoutClassroomPage(c *check.C) {
	s.fetcher.EXPECT().Fetch(gomock.Any(), s.urls.LectureInfo("MAC0110")).Return(loadDocument(c, "lecture_info.html"), nil)
	s.fetcher.EXPECT().Fetch(gomock.Any(), s.urls.Classrooms("MAC0110")).Return(nil, &NetworkError{Cause: errors.New("reset")})

	lecture, err := s.crawler.FetchLecture(context.TODO(), s.units, "MAC0110")
	c.Assert(err, check.IsNil)
	c.Assert(lecture.Name, check.Equals, "Introdução à Computação")
	c.Assert(lecture.Classrooms, check.HasLen, 0)
}

func (s *CrawlerTestSuite) TestFetchLectureInfoFailure(c *check.C) {
	s.fetcher.EXPECT().Fetch(gomock.Any(), s.urls.LectureInfo("MAC0110")).Return(nil, &HTTPError{StatusCode: 404})
	s.fetcher.EXPECT().Fetch(gomock.Any(), s.urls.Classrooms("MAC0110")).Return(loadDocument(c, "classrooms.html"), nil).AnyTimes()

	_, err := s.crawler.FetchLecture(context.TODO(), s.units, "MAC0110")
	var httpErr *HTTPError
	c.Assert(errors.As(err, &httpErr), check.Equals, true)
	c.Assert(httpErr.StatusCode, check.Equals, 404)
}

func (s *CrawlerTestSuite) TestFetchRecoversFromPanics(c *check.C) {
	s.fetcher.EXPECT().Fetch(gomock.Any(), s.urls.UnitList()).DoAndReturn(func(context.Context, string) (*goquery.Document, error) {
		panic("broken parser")
	})

	_, err := s.crawler.FetchUnits(context.TODO())
	c.Assert(err, check.ErrorMatches, ".*broken parser.*")
}

func (s *CrawlerTestSuite) TestSearchLecturesDeduplicatesAcrossUnits(c *check.C) {
	s.fetcher.EXPECT().Fetch(gomock.Any(), s.urls.DisciplineList(45)).Return(loadDocument(c, "disciplines.html"), nil)
	s.fetcher.EXPECT().Fetch(gomock.Any(), s.urls.DisciplineList(55)).Return(loadDocument(c, "disciplines.html"), nil)

	s.fetcher.EXPECT().Fetch(gomock.Any(), s.urls.LectureInfo("MAC0110")).Return(loadDocument(c, "lecture_info.html"), nil)
	s.fetcher.EXPECT().Fetch(gomock.Any(), s.urls.Classrooms("MAC0110")).Return(nil, &HTTPError{StatusCode: 404})
	s.fetcher.EXPECT().Fetch(gomock.Any(), s.urls.LectureInfo("MAC0121")).Return(nil, &HTTPError{StatusCode: 500})
	s.fetcher.EXPECT().Fetch(gomock.Any(), s.urls.Classrooms("MAC0121")).Return(nil, &HTTPError{StatusCode: 500}).AnyTimes()

	lectures, err := s.crawler.SearchLectures(context.TODO(), "mac01", s.units)
	c.Assert(err, check.IsNil)
	c.Assert(lectures, check.HasLen, 1)
	c.Assert(lectures[0].Code, check.Equals, "MAC0110")
}

func (s *CrawlerTestSuite) TestSearchLecturesMatchesNames(c *check.C) {
	units := jupiterscrape.NewUnitTable([]jupiterscrape.Unit{{Name: "Instituto de Matemática e Estatística", Code: 45}})
	s.fetcher.EXPECT().Fetch(gomock.Any(), s.urls.DisciplineList(45)).Return(loadDocument(c, "disciplines.html"), nil)
	s.fetcher.EXPECT().Fetch(gomock.Any(), s.urls.LectureInfo("MAT2453")).Return(loadDocument(c, "lecture_info.html"), nil)
	s.fetcher.EXPECT().Fetch(gomock.Any(), s.urls.Classrooms("MAT2453")).Return(nil, &HTTPError{StatusCode: 404})

	lectures, err := s.crawler.SearchLectures(context.TODO(), "cálculo", units)
	c.Assert(err, check.IsNil)
	c.Assert(lectures, check.HasLen, 1)
	c.Assert(lectures[0].Code, check.Equals, "MAT2453")
}

func (s *CrawlerTestSuite) TestSearchLecturesFailsWhenEveryUnitFails(c *check.C) {
	s.fetcher.EXPECT().Fetch(gomock.Any(), s.urls.DisciplineList(45)).Return(nil, &NetworkError{Cause: errors.New("no route to host")})
	s.fetcher.EXPECT().Fetch(gomock.Any(), s.urls.DisciplineList(55)).DoAndReturn(func(context.Context, string) (*goquery.Document, error) {
		panic("broken page")
	})

	lectures, err := s.crawler.SearchLectures(context.TODO(), "mac01", s.units)
	c.Assert(err, check.ErrorMatches, "(?s)jupiterfetch: all 2 discipline lists failed: .*")
	c.Assert(lectures, check.IsNil)
}

func (s *CrawlerTestSuite) TestSearchLecturesFailsWhenEveryLectureFails(c *check.C) {
	units := jupiterscrape.NewUnitTable([]jupiterscrape.Unit{{Name: "Instituto de Matemática e Estatística", Code: 45}})
	s.fetcher.EXPECT().Fetch(gomock.Any(), s.urls.DisciplineList(45)).Return(loadDocument(c, "disciplines.html"), nil)
	for _, code := range []string{"MAC0110", "MAC0121"} {
		s.fetcher.EXPECT().Fetch(gomock.Any(), s.urls.LectureInfo(code)).Return(nil, &HTTPError{StatusCode: 503})
		s.fetcher.EXPECT().Fetch(gomock.Any(), s.urls.Classrooms(code)).Return(nil, &HTTPError{StatusCode: 503}).AnyTimes()
	}

	lectures, err := s.crawler.SearchLectures(context.TODO(), "mac01", units)
	c.Assert(err, check.ErrorMatches, "(?s)jupiterfetch: all 2 lectures failed: .*")
	c.Assert(lectures, check.IsNil)
}

func (s *CrawlerTestSuite) TestSearchLecturesWithoutMatchesSucceeds(c *check.C) {
	units := jupiterscrape.NewUnitTable([]jupiterscrape.Unit{{Name: "Instituto de Matemática e Estatística", Code: 45}})
	s.fetcher.EXPECT().Fetch(gomock.Any(), s.urls.DisciplineList(45)).Return(loadDocument(c, "disciplines.html"), nil)

	lectures, err := s.crawler.SearchLectures(context.TODO(), "zzz9999", units)
	c.Assert(err, check.IsNil)
	c.Assert(lectures, check.HasLen, 0)
}

func (s *CrawlerTestSuite) TestSearchLecturesCancelled(c *check.C) {
	ctx, cancel := context.WithCancel(context.TODO())
	cancel()
	fetcher := fetcherFunc(func(ctx context.Context, url string) (*goquery.Document, error) {
		return nil, &NetworkError{URL: url, Cause: ctx.Err()}
	})
	crawler, err := NewCrawler(CrawlerConfig{Fetcher: fetcher, BaseURL: testBaseURL})
	c.Assert(err, check.IsNil)

	_, err = crawler.SearchLectures(ctx, "mac01", s.units)
	c.Assert(errors.Is(err, context.Canceled), check.Equals, true)
}

func (s *CrawlerTestSuite) TestFetchLectureRecoversFromClassroomPanic(c *check.C) {
	s.fetcher.EXPECT().Fetch(gomock.Any(), s.urls.LectureInfo("MAC0110")).Return(loadDocument(c, "lecture_info.html"), nil)
	s.fetcher.EXPECT().Fetch(gomock.Any(), s.urls.Classrooms("MAC0110")).DoAndReturn(func(context.Context, string) (*goquery.Document, error) {
		panic("broken page")
	})

	lecture, err := s.crawler.FetchLecture(context.TODO(), s.units, "MAC0110")
	c.Assert(err, check.IsNil)
	c.Assert(lecture.Name, check.Equals, "Introdução à Computação")
	c.Assert(lecture.Classrooms, check.HasLen, 0)
}

func (s *CrawlerTestSuite) TestSearchLecturesBlankQuery(c *check.C) {
	lectures, err := s.crawler.SearchLectures(context.TODO(), "  ", s.units)
	c.Assert(err, check.IsNil)
	c.Assert(lectures, check.HasLen, 0)
}

type fetcherFunc func(ctx context.Context, url string) (*goquery.Document, error)

func (f fetcherFunc) Fetch(ctx context.Context, url string) (*goquery.Document, error) {
	return f(ctx, url)
}

func (s *CrawlerTestSuite) TestConcurrencyIsCapped(c *check.C) {
	var links strings.Builder
	for i := 0; i < 12; i++ {
		fmt.Fprintf(&links, `<a href="listarGradeCurricular?codcg=45&codcur=%d&codhab=1&tipo=N">Curso %d</a>`, 45000+i, i)
	}
	listing := "<html><body><span><b>IME</b></span>" + links.String() + "</body></html>"

	var (
		mu       sync.Mutex
		inFlight int
		maxSeen  int
	)
	fetcher := fetcherFunc(func(ctx context.Context, url string) (*goquery.Document, error) {
		mu.Lock()
		inFlight++
		if inFlight > maxSeen {
			maxSeen = inFlight
		}
		mu.Unlock()
		defer func() {
			mu.Lock()
			inFlight--
			mu.Unlock()
		}()

		if strings.Contains(url, "jupCursoLista") {
			return goquery.NewDocumentFromReader(strings.NewReader(listing))
		}
		time.Sleep(5 * time.Millisecond)
		return goquery.NewDocumentFromReader(strings.NewReader("<html><body></body></html>"))
	})

	crawler, err := NewCrawler(CrawlerConfig{Fetcher: fetcher, BaseURL: testBaseURL, MaxConcurrency: 2})
	c.Assert(err, check.IsNil)

	courses, err := crawler.FetchCoursesForUnit(context.TODO(), s.units, 45)
	c.Assert(err, check.IsNil)
	c.Assert(courses, check.HasLen, 12)
	c.Assert(maxSeen <= 2, check.Equals, true)
	c.Assert(courses[0].Code, check.Equals, "45000-1")
	c.Assert(courses[11].Code, check.Equals, "45011-1")
}
