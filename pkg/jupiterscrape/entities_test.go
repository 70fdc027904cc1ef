package jupiterscrape

import (
	"time"

	check "gopkg.in/check.v1"
)

var _ = check.Suite(new(EntityTestSuite))

type EntityTestSuite struct{}

func (s *EntityTestSuite) TestScheduleConflicts(c *check.C) {
	first := Schedule{Day: Monday, Start: "08:00", End: "10:00"}
	overlapping := Schedule{Day: Monday, Start: "09:00", End: "11:00"}
	adjacent := Schedule{Day: Monday, Start: "10:00", End: "12:00"}
	otherDay := Schedule{Day: Tuesday, Start: "09:00", End: "11:00"}

	c.Assert(first.ConflictsWith(overlapping), check.Equals, true)
	c.Assert(overlapping.ConflictsWith(first), check.Equals, true)
	c.Assert(first.ConflictsWith(adjacent), check.Equals, false)
	c.Assert(first.ConflictsWith(otherDay), check.Equals, false)
}

func (s *EntityTestSuite) TestScheduleDerivedValues(c *check.C) {
	schedule := Schedule{Day: Wednesday, Start: "8:30", End: "10:10"}

	day, ok := schedule.Weekday()
	c.Assert(ok, check.Equals, true)
	c.Assert(day, check.Equals, time.Wednesday)
	c.Assert(schedule.StartTime(), check.Equals, 8*time.Hour+30*time.Minute)
	c.Assert(schedule.DurationMinutes(), check.Equals, 100)

	broken := Schedule{Day: "xyz", Start: "manhã", End: "25:00"}
	_, ok = broken.Weekday()
	c.Assert(ok, check.Equals, false)
	c.Assert(broken.StartTime(), check.Equals, time.Duration(0))
	c.Assert(broken.EndTime(), check.Equals, time.Duration(0))
	c.Assert(broken.DurationMinutes(), check.Equals, 0)
}

func (s *EntityTestSuite) TestClassroomActivityWindow(c *check.C) {
	classroom := Classroom{StartDate: "04/03/2024", EndDate: "08/07/2024"}

	c.Assert(classroom.IsActive(time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC)), check.Equals, true)
	c.Assert(classroom.IsActive(time.Date(2024, time.July, 8, 23, 0, 0, 0, time.UTC)), check.Equals, true)
	c.Assert(classroom.IsActive(time.Date(2024, time.July, 9, 0, 0, 0, 0, time.UTC)), check.Equals, false)
	c.Assert(classroom.IsActive(time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)), check.Equals, false)

	undated := Classroom{StartDate: "a definir"}
	c.Assert(undated.IsActive(time.Now()), check.Equals, true)
}

func (s *EntityTestSuite) TestLinkClassroomsMergesTheoryIntoPractice(c *check.C) {
	theory := Classroom{
		Code:      "T1",
		Type:      ClassroomTheoretical,
		Teachers:  []string{"Ana", "Bruno"},
		Schedules: []Schedule{{Day: Monday, Start: "08:00", End: "10:00"}},
		Vacancies: map[string]VacancyInfo{"Obrigatória": {Total: 90}},
	}
	practice := Classroom{
		Code:            "P1",
		Type:            ClassroomPractical,
		TheoreticalCode: "T1",
		Teachers:        []string{"Bruno", "Carla"},
		Schedules:       []Schedule{{Day: Thursday, Start: "14:00", End: "16:00"}},
		Vacancies:       map[string]VacancyInfo{"Obrigatória": {Total: 30}},
	}
	orphan := Classroom{Code: "P2", Type: ClassroomPractical, TheoreticalCode: "T9"}
	unused := Classroom{Code: "T2", Type: ClassroomTheoretical}

	linked := LinkClassrooms([]Classroom{theory, practice, orphan, unused})

	c.Assert(linked, check.HasLen, 3)
	c.Assert(linked[0].Type, check.Equals, ClassroomCombined)
	c.Assert(linked[0].Schedules, check.DeepEquals, append(append([]Schedule{}, theory.Schedules...), practice.Schedules...))
	c.Assert(linked[0].Teachers, check.DeepEquals, []string{"Ana", "Bruno", "Carla"})
	c.Assert(linked[0].Vacancies, check.DeepEquals, practice.Vacancies)
	c.Assert(linked[1], check.DeepEquals, orphan)
	c.Assert(linked[2], check.DeepEquals, unused)
}
