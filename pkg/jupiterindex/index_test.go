package jupiterindex_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	check "gopkg.in/check.v1"

	"github.com/lukasmoellerch/jupiter-go/pkg/jupiterindex"
	mock_jupiterindex "github.com/lukasmoellerch/jupiter-go/pkg/jupiterindex/mocks"
	"github.com/lukasmoellerch/jupiter-go/pkg/jupiterscrape"
)

var _ = check.Suite(new(ExporterTestSuite))

func Test(t *testing.T) {
	check.TestingT(t)
}

var testNow = time.Date(2024, time.April, 10, 12, 0, 0, 0, time.UTC)

func testLecture(code string) jupiterscrape.Lecture {
	return jupiterscrape.Lecture{
		Code:           code,
		Name:           "Introdução à Computação",
		Unit:           "Instituto de Matemática e Estatística",
		Department:     "Ciência da Computação",
		Campus:         jupiterscrape.CampusSaoPaulo,
		LectureCredits: 4,
		WorkCredits:    2,
		Classrooms: []jupiterscrape.Classroom{
			{
				Code:      "2024101",
				StartDate: "01/03/2024",
				EndDate:   "30/06/2024",
				Teachers:  []string{"Paulo Lima", "Ana Souza"},
				Type:      jupiterscrape.ClassroomTheoretical,
				Schedules: []jupiterscrape.Schedule{
					{Day: jupiterscrape.Wednesday, Start: "08:00", End: "10:00"},
					{Day: jupiterscrape.Monday, Start: "08:00", End: "10:00"},
				},
				Vacancies: map[string]jupiterscrape.VacancyInfo{"Obrigatória": {Total: 30, Enrolled: 30}},
			},
			{
				Code:      "2024102",
				StartDate: "01/03/2024",
				EndDate:   "30/06/2024",
				Teachers:  []string{"Ana Souza"},
				Schedules: []jupiterscrape.Schedule{{Day: jupiterscrape.Monday, Start: "14:00", End: "16:00"}},
				Vacancies: map[string]jupiterscrape.VacancyInfo{"Obrigatória": {Total: 30, Enrolled: 12}},
			},
		},
	}
}

type ExporterTestSuite struct{}

func (s *ExporterTestSuite) TestLectureDocument(c *check.C) {
	doc := jupiterindex.NewLectureDocument(testLecture("MAC0110"), testNow)

	c.Assert(doc.ID, check.Equals, "MAC0110")
	c.Assert(doc.Credits, check.Equals, 6)
	c.Assert(doc.Teachers, check.DeepEquals, []string{"Ana Souza", "Paulo Lima"})
	c.Assert(doc.Days, check.DeepEquals, []string{jupiterscrape.Wednesday, jupiterscrape.Monday})
	c.Assert(doc.ClassroomTypes, check.DeepEquals, []string{"teorica"})
	c.Assert(doc.Available, check.Equals, true)
}

func (s *ExporterTestSuite) TestLectureDocumentWithoutClassrooms(c *check.C) {
	doc := jupiterindex.NewLectureDocument(jupiterscrape.Lecture{Code: "FLF0115"}, testNow)

	c.Assert(doc.Teachers, check.DeepEquals, []string{})
	c.Assert(doc.Days, check.DeepEquals, []string{})
	c.Assert(doc.Available, check.Equals, false)
}

func (s *ExporterTestSuite) TestConfigValidation(c *check.C) {
	_, err := jupiterindex.NewExporter(jupiterindex.ExporterConfig{BatchSize: -1})
	c.Assert(err, check.ErrorMatches, "(?s)exporter: config validation failed: .*index not provided.*batch size.*")
}

func (s *ExporterTestSuite) TestExportInBatches(c *check.C) {
	ctrl := gomock.NewController(c)
	defer ctrl.Finish()
	index := mock_jupiterindex.NewMockIndex(ctrl)

	var sizes []int
	gomock.InOrder(
		index.EXPECT().Reset(jupiterindex.DefaultSettings()).Return(nil),
		index.EXPECT().AddDocuments(gomock.Any()).DoAndReturn(func(docs []jupiterindex.LectureDocument) (int64, error) {
			sizes = append(sizes, len(docs))
			return 1, nil
		}),
		index.EXPECT().AddDocuments(gomock.Any()).DoAndReturn(func(docs []jupiterindex.LectureDocument) (int64, error) {
			sizes = append(sizes, len(docs))
			return 2, nil
		}),
		index.EXPECT().AddDocuments(gomock.Any()).DoAndReturn(func(docs []jupiterindex.LectureDocument) (int64, error) {
			sizes = append(sizes, len(docs))
			c.Assert(docs[0].Code, check.Equals, "MAC0105")
			return 3, nil
		}),
		index.EXPECT().WaitForTask(int64(1)).Return(nil),
		index.EXPECT().WaitForTask(int64(2)).Return(nil),
		index.EXPECT().WaitForTask(int64(3)).Return(nil),
	)

	exporter, err := jupiterindex.NewExporter(jupiterindex.ExporterConfig{Index: index, BatchSize: 2})
	c.Assert(err, check.IsNil)

	lectures := []jupiterscrape.Lecture{
		testLecture("MAC0101"), testLecture("MAC0102"), testLecture("MAC0103"),
		testLecture("MAC0104"), testLecture("MAC0105"),
	}
	n, err := exporter.Export(context.TODO(), lectures, testNow)
	c.Assert(err, check.IsNil)
	c.Assert(n, check.Equals, 5)
	c.Assert(sizes, check.DeepEquals, []int{2, 2, 1})
}

func (s *ExporterTestSuite) TestExportEmpty(c *check.C) {
	ctrl := gomock.NewController(c)
	defer ctrl.Finish()
	index := mock_jupiterindex.NewMockIndex(ctrl)
	index.EXPECT().Reset(gomock.Any()).Return(nil)

	exporter, err := jupiterindex.NewExporter(jupiterindex.ExporterConfig{Index: index})
	c.Assert(err, check.IsNil)

	n, err := exporter.Export(context.TODO(), nil, testNow)
	c.Assert(err, check.IsNil)
	c.Assert(n, check.Equals, 0)
}

func (s *ExporterTestSuite) TestExportResetFailure(c *check.C) {
	ctrl := gomock.NewController(c)
	defer ctrl.Finish()
	index := mock_jupiterindex.NewMockIndex(ctrl)
	index.EXPECT().Reset(gomock.Any()).Return(errors.New("connection refused"))

	exporter, err := jupiterindex.NewExporter(jupiterindex.ExporterConfig{Index: index})
	c.Assert(err, check.IsNil)

	_, err = exporter.Export(context.TODO(), []jupiterscrape.Lecture{testLecture("MAC0110")}, testNow)
	c.Assert(err, check.ErrorMatches, "resetting index: connection refused")
}

func (s *ExporterTestSuite) TestExportTaskFailure(c *check.C) {
	ctrl := gomock.NewController(c)
	defer ctrl.Finish()
	index := mock_jupiterindex.NewMockIndex(ctrl)
	index.EXPECT().Reset(gomock.Any()).Return(nil)
	index.EXPECT().AddDocuments(gomock.Any()).Return(int64(7), nil)
	index.EXPECT().WaitForTask(int64(7)).Return(errors.New("task 7 failed"))

	exporter, err := jupiterindex.NewExporter(jupiterindex.ExporterConfig{Index: index})
	c.Assert(err, check.IsNil)

	_, err = exporter.Export(context.TODO(), []jupiterscrape.Lecture{testLecture("MAC0110")}, testNow)
	c.Assert(err, check.ErrorMatches, "task 7 failed")
}

func (s *ExporterTestSuite) TestExportCancelled(c *check.C) {
	ctrl := gomock.NewController(c)
	defer ctrl.Finish()
	index := mock_jupiterindex.NewMockIndex(ctrl)
	index.EXPECT().Reset(gomock.Any()).Return(nil)

	exporter, err := jupiterindex.NewExporter(jupiterindex.ExporterConfig{Index: index})
	c.Assert(err, check.IsNil)

	ctx, cancel := context.WithCancel(context.TODO())
	cancel()
	_, err = exporter.Export(ctx, []jupiterscrape.Lecture{testLecture("MAC0110")}, testNow)
	c.Assert(errors.Is(err, context.Canceled), check.Equals, true)
}
