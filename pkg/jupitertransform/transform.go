package jupitertransform

import (
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/lukasmoellerch/jupiter-go/pkg/jupiterscrape"
)

type Status int

const (
	// Clean means the value was already normalized.
	Clean Status = iota
	// Normalized means at least one field changed.
	Normalized
	// Unchanged means normalization failed and Value is the original input.
	Unchanged
)

func (s Status) String() string {
	switch s {
	case Clean:
		return "clean"
	case Normalized:
		return "normalized"
	case Unchanged:
		return "unchanged"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Result is the outcome of normalizing a single entity.
type Result[T any] struct {
	Value  T
	Status Status
	Err    error
}

func run[T any](original T, normalize func(T) (T, error)) (result Result[T]) {
	defer func() {
		if r := recover(); r != nil {
			result = Result[T]{Value: original, Status: Unchanged, Err: fmt.Errorf("normalizer panicked: %v", r)}
		}
	}()

	value, err := normalize(original)
	if err != nil {
		return Result[T]{Value: original, Status: Unchanged, Err: err}
	}
	if reflect.DeepEqual(value, original) {
		return Result[T]{Value: original, Status: Clean}
	}
	return Result[T]{Value: value, Status: Normalized}
}

func TransformSchedule(s jupiterscrape.Schedule) Result[jupiterscrape.Schedule] {
	return run(s, normalizeSchedule)
}

func TransformClassroom(c jupiterscrape.Classroom) Result[jupiterscrape.Classroom] {
	return run(c, normalizeClassroom)
}

func TransformLecture(l jupiterscrape.Lecture) Result[jupiterscrape.Lecture] {
	return run(l, normalizeLecture)
}

func TransformCourse(c jupiterscrape.Course) Result[jupiterscrape.Course] {
	return run(c, normalizeCourse)
}

func normalizeSchedule(s jupiterscrape.Schedule) (jupiterscrape.Schedule, error) {
	for field, value := range map[string]string{"day": s.Day, "start": s.Start, "end": s.End, "location": s.Location} {
		if err := checkText(field, value); err != nil {
			return s, err
		}
	}
	if err := checkTexts("teachers", s.Teachers); err != nil {
		return s, err
	}

	return jupiterscrape.Schedule{
		Day:      NormalizeWeekday(s.Day),
		Start:    NormalizeTime(s.Start),
		End:      NormalizeTime(s.End),
		Teachers: mapStrings(s.Teachers, strings.TrimSpace),
		Location: strings.TrimSpace(s.Location),
	}, nil
}

func normalizeVacancy(v jupiterscrape.VacancyInfo) jupiterscrape.VacancyInfo {
	out := jupiterscrape.VacancyInfo{
		Total:      ClampVacancy(v.Total),
		Subscribed: ClampVacancy(v.Subscribed),
		Pending:    ClampVacancy(v.Pending),
		Enrolled:   ClampVacancy(v.Enrolled),
	}
	if v.Groups != nil {
		out.Groups = make(map[string]jupiterscrape.VacancyInfo, len(v.Groups))
		for name, group := range v.Groups {
			out.Groups[name] = normalizeVacancy(group)
		}
	}
	return out
}

func normalizeClassroom(c jupiterscrape.Classroom) (jupiterscrape.Classroom, error) {
	for field, value := range map[string]string{
		"code":             c.Code,
		"start date":       c.StartDate,
		"end date":         c.EndDate,
		"observations":     c.Observations,
		"theoretical code": c.TheoreticalCode,
	} {
		if err := checkText(field, value); err != nil {
			return c, err
		}
	}
	if err := checkTexts("teachers", c.Teachers); err != nil {
		return c, err
	}

	out := jupiterscrape.Classroom{
		Code:            NormalizeCode(c.Code),
		StartDate:       strings.TrimSpace(c.StartDate),
		EndDate:         strings.TrimSpace(c.EndDate),
		Observations:    c.Observations,
		Teachers:        mapStrings(c.Teachers, strings.TrimSpace),
		Type:            c.Type,
		TheoreticalCode: NormalizeCode(c.TheoreticalCode),
	}
	if c.Schedules != nil {
		out.Schedules = make([]jupiterscrape.Schedule, len(c.Schedules))
		for i, s := range c.Schedules {
			schedule, err := normalizeSchedule(s)
			if err != nil {
				return c, fmt.Errorf("schedule %d: %w", i, err)
			}
			out.Schedules[i] = schedule
		}
	}
	if c.Vacancies != nil {
		out.Vacancies = make(map[string]jupiterscrape.VacancyInfo, len(c.Vacancies))
		for category, v := range c.Vacancies {
			if err := checkText("vacancy category", category); err != nil {
				return c, err
			}
			out.Vacancies[category] = normalizeVacancy(v)
		}
	}
	return out, nil
}

func normalizeLecture(l jupiterscrape.Lecture) (jupiterscrape.Lecture, error) {
	for field, value := range map[string]string{
		"code":       l.Code,
		"name":       l.Name,
		"unit":       l.Unit,
		"department": l.Department,
		"campus":     l.Campus,
		"objectives": l.Objectives,
		"summary":    l.Summary,
	} {
		if err := checkText(field, value); err != nil {
			return l, err
		}
	}

	out := jupiterscrape.Lecture{
		Code:           NormalizeCode(l.Code),
		Name:           strings.TrimSpace(l.Name),
		Unit:           NormalizeUnitName(l.Unit),
		Department:     strings.TrimSpace(l.Department),
		Campus:         NormalizeCampus(l.Campus),
		Objectives:     l.Objectives,
		Summary:        l.Summary,
		LectureCredits: ClampCredits(l.LectureCredits),
		WorkCredits:    ClampCredits(l.WorkCredits),
	}
	if l.Classrooms != nil {
		out.Classrooms = make([]jupiterscrape.Classroom, len(l.Classrooms))
		for i, c := range l.Classrooms {
			classroom, err := normalizeClassroom(c)
			if err != nil {
				return l, fmt.Errorf("classroom %s: %w", c.Code, err)
			}
			out.Classrooms[i] = classroom
		}
	}
	return out, nil
}

func normalizeLectureInfo(info jupiterscrape.LectureInfo) (jupiterscrape.LectureInfo, error) {
	if err := checkText("code", info.Code); err != nil {
		return info, err
	}
	for _, codes := range [][]string{info.ReqWeak, info.ReqStrong, info.IndConjunto} {
		if err := checkTexts("requirement", codes); err != nil {
			return info, err
		}
	}
	return jupiterscrape.LectureInfo{
		Code:        NormalizeCode(info.Code),
		Type:        info.Type,
		ReqWeak:     mapStrings(info.ReqWeak, NormalizeCode),
		ReqStrong:   mapStrings(info.ReqStrong, NormalizeCode),
		IndConjunto: mapStrings(info.IndConjunto, NormalizeCode),
	}, nil
}

func normalizeCourse(c jupiterscrape.Course) (jupiterscrape.Course, error) {
	for field, value := range map[string]string{"code": c.Code, "name": c.Name, "unit": c.Unit, "period ideal": c.PeriodIdeal} {
		if err := checkText(field, value); err != nil {
			return c, err
		}
	}

	out := jupiterscrape.Course{
		Code:        NormalizeCode(c.Code),
		Name:        strings.TrimSpace(c.Name),
		Unit:        NormalizeUnitName(c.Unit),
		PeriodIdeal: strings.TrimSpace(c.PeriodIdeal),
	}
	if c.Periods != nil {
		out.Periods = make(map[string][]jupiterscrape.LectureInfo, len(c.Periods))
		for period, lectures := range c.Periods {
			if lectures == nil {
				out.Periods[period] = nil
				continue
			}
			normalized := make([]jupiterscrape.LectureInfo, len(lectures))
			for i, info := range lectures {
				n, err := normalizeLectureInfo(info)
				if err != nil {
					return c, fmt.Errorf("period %s: %w", period, err)
				}
				normalized[i] = n
			}
			out.Periods[period] = normalized
		}
	}
	return out, nil
}

type Config struct {
	Logger *logrus.Entry
}

// Transformer applies the Transform functions and logs every entity that
// could not be normalized.
type Transformer struct {
	logger *logrus.Entry
}

func NewTransformer(config Config) *Transformer {
	if config.Logger == nil {
		config.Logger = logrus.NewEntry(&logrus.Logger{Out: io.Discard})
	}
	return &Transformer{logger: config.Logger}
}

func (t *Transformer) report(kind, key string, status Status, err error) {
	if status != Unchanged {
		return
	}
	t.logger.WithFields(logrus.Fields{
		"entity": kind,
		"key":    key,
		"err":    err,
	}).Warn("normalization failed, keeping original")
}

func (t *Transformer) Lecture(l jupiterscrape.Lecture) jupiterscrape.Lecture {
	result := TransformLecture(l)
	t.report("lecture", l.Code, result.Status, result.Err)
	return result.Value
}

func (t *Transformer) Lectures(lectures []jupiterscrape.Lecture) []jupiterscrape.Lecture {
	out := make([]jupiterscrape.Lecture, len(lectures))
	for i, l := range lectures {
		out[i] = t.Lecture(l)
	}
	return out
}

func (t *Transformer) Course(c jupiterscrape.Course) jupiterscrape.Course {
	result := TransformCourse(c)
	t.report("course", c.Code, result.Status, result.Err)
	return result.Value
}

func (t *Transformer) Courses(courses []jupiterscrape.Course) []jupiterscrape.Course {
	out := make([]jupiterscrape.Course, len(courses))
	for i, c := range courses {
		out[i] = t.Course(c)
	}
	return out
}
