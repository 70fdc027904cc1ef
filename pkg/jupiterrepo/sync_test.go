package jupiterrepo

import (
	"context"
	"errors"

	"github.com/golang/mock/gomock"
	check "gopkg.in/check.v1"

	"github.com/lukasmoellerch/jupiter-go/pkg/jupiterscrape"
)

var _ = check.Suite(new(SyncTestSuite))

type SyncTestSuite struct {
	repoFixture
}

func (s *SyncTestSuite) SetUpTest(c *check.C) {
	s.setUp(c)
}

func collect(events <-chan Event) []Event {
	var out []Event
	for ev := range events {
		out = append(out, ev)
	}
	return out
}

func (s *SyncTestSuite) TestSyncSelectedUnitsWithLectures(c *check.C) {
	course := jupiterscrape.Course{Code: "45052-1", Periods: map[string][]jupiterscrape.LectureInfo{
		"1": {{Code: "MAC0110"}, {Code: "MAT2453"}},
		"2": {{Code: "MAC0110"}},
	}}
	s.crawler.EXPECT().FetchUnits(gomock.Any()).Return(s.units, nil)
	s.crawler.EXPECT().FetchCoursesForUnit(gomock.Any(), gomock.Any(), 45).Return([]jupiterscrape.Course{course}, nil)
	s.crawler.EXPECT().FetchLecture(gomock.Any(), gomock.Any(), "MAC0110").Return(jupiterscrape.Lecture{
		Code: "MAC0110", Name: "Introdução à Computação", Unit: "Instituto de Matemática e Estatística",
	}, nil)
	s.crawler.EXPECT().FetchLecture(gomock.Any(), gomock.Any(), "MAT2453").Return(jupiterscrape.Lecture{}, errors.New("timeout"))

	syncer, err := NewSyncer(SyncerConfig{
		Repository:      s.repo,
		Preferences:     NewUnitSet("Instituto de Matemática e Estatística"),
		IncludeLectures: true,
	})
	c.Assert(err, check.IsNil)

	events := collect(syncer.Sync(context.TODO()))
	c.Assert(len(events) >= 3, check.Equals, true)

	last := events[len(events)-1]
	c.Assert(last.Kind, check.Equals, Done)
	c.Assert(last.Percentage, check.Equals, 1.0)
	c.Assert(last.Message, check.Equals, "synchronized 1 units, 1 courses, 1 lectures")

	previous := 0.0
	for _, ev := range events[:len(events)-1] {
		c.Assert(ev.Kind, check.Equals, Progress)
		c.Assert(ev.Percentage >= previous && ev.Percentage <= 1, check.Equals, true)
		previous = ev.Percentage
	}

	_, ok := s.cache.Lecture("MAC0110")
	c.Assert(ok, check.Equals, true)
	_, ok = s.cache.Courses(45)
	c.Assert(ok, check.Equals, true)
}

func (s *SyncTestSuite) TestSyncAllUnitsSkipsFailures(c *check.C) {
	s.crawler.EXPECT().FetchUnits(gomock.Any()).Return(s.units, nil)
	s.crawler.EXPECT().FetchCoursesForUnit(gomock.Any(), gomock.Any(), 45).Return(nil, errors.New("boom"))
	s.crawler.EXPECT().FetchCoursesForUnit(gomock.Any(), gomock.Any(), 55).Return([]jupiterscrape.Course{{Code: "55041-1"}}, nil)

	syncer, err := NewSyncer(SyncerConfig{Repository: s.repo})
	c.Assert(err, check.IsNil)

	events := collect(syncer.Sync(context.TODO()))
	last := events[len(events)-1]
	c.Assert(last.Kind, check.Equals, Done)
	c.Assert(last.Message, check.Equals, "synchronized 1 units, 1 courses, 0 lectures")
}

func (s *SyncTestSuite) TestSyncFailsWhenEveryUnitFails(c *check.C) {
	cause := errors.New("connection refused")
	s.crawler.EXPECT().FetchUnits(gomock.Any()).Return(s.units, nil)
	s.crawler.EXPECT().FetchCoursesForUnit(gomock.Any(), gomock.Any(), 45).Return(nil, cause)
	s.crawler.EXPECT().FetchCoursesForUnit(gomock.Any(), gomock.Any(), 55).Return(nil, cause)

	syncer, err := NewSyncer(SyncerConfig{Repository: s.repo, IncludeLectures: true})
	c.Assert(err, check.IsNil)

	events := collect(syncer.Sync(context.TODO()))
	last := events[len(events)-1]
	c.Assert(last.Kind, check.Equals, Failed)
	c.Assert(last.Message, check.Equals, "no unit could be synchronized")
	c.Assert(errors.Is(last.Err, cause), check.Equals, true)
	for _, ev := range events[:len(events)-1] {
		c.Assert(ev.Kind, check.Equals, Progress)
	}
}

func (s *SyncTestSuite) TestSyncFailsWhenUnitsUnavailable(c *check.C) {
	cause := errors.New("portal down")
	s.crawler.EXPECT().FetchUnits(gomock.Any()).Return(jupiterscrape.UnitTable{}, cause)

	syncer, err := NewSyncer(SyncerConfig{Repository: s.repo})
	c.Assert(err, check.IsNil)

	events := collect(syncer.Sync(context.TODO()))
	c.Assert(events, check.HasLen, 2)
	c.Assert(events[1].Kind, check.Equals, Failed)
	c.Assert(errors.Is(events[1].Err, cause), check.Equals, true)
}

func (s *SyncTestSuite) TestSyncUnknownSelection(c *check.C) {
	s.crawler.EXPECT().FetchUnits(gomock.Any()).Return(s.units, nil)

	syncer, err := NewSyncer(SyncerConfig{Repository: s.repo, Preferences: NewUnitSet("Faculdade de Direito")})
	c.Assert(err, check.IsNil)

	events := collect(syncer.Sync(context.TODO()))
	last := events[len(events)-1]
	c.Assert(last.Kind, check.Equals, Failed)
	c.Assert(errors.Is(last.Err, ErrNotFound), check.Equals, true)
}

func (s *SyncTestSuite) TestSyncCancelled(c *check.C) {
	ctx, cancel := context.WithCancel(context.TODO())
	cancel()
	s.crawler.EXPECT().FetchUnits(gomock.Any()).Return(s.units, nil).AnyTimes()
	s.crawler.EXPECT().FetchCoursesForUnit(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, context.Canceled).AnyTimes()

	syncer, err := NewSyncer(SyncerConfig{Repository: s.repo})
	c.Assert(err, check.IsNil)

	events := collect(syncer.Sync(ctx))
	last := events[len(events)-1]
	c.Assert(last.Kind, check.Equals, Failed)
}
