package jupitersearch

import (
	"fmt"
	"strings"
	"time"

	"github.com/lukasmoellerch/jupiter-go/pkg/jupiterscrape"
)

// TimeRange is a half-open interval of offsets from midnight.
type TimeRange struct {
	From time.Duration
	To   time.Duration
}

// ParseTimeRange parses ranges of the form "08:00-12:00".
func ParseTimeRange(value string) (TimeRange, error) {
	parts := strings.SplitN(value, "-", 2)
	if len(parts) != 2 {
		return TimeRange{}, fmt.Errorf("invalid time range %q, expected HH:MM-HH:MM", value)
	}
	from, err := parseClock(parts[0])
	if err != nil {
		return TimeRange{}, err
	}
	to, err := parseClock(parts[1])
	if err != nil {
		return TimeRange{}, err
	}
	if to <= from {
		return TimeRange{}, fmt.Errorf("invalid time range %q, end must be after start", value)
	}
	return TimeRange{From: from, To: to}, nil
}

func parseClock(value string) (time.Duration, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("invalid time %q: %w", value, err)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

func (r TimeRange) overlaps(s jupiterscrape.Schedule) bool {
	return s.StartTime() < r.To && r.From < s.EndTime()
}

// Filters is a conjunction of optional predicates. Zero values disable a
// predicate.
type Filters struct {
	Campus        string
	Unit          string
	OnlyAvailable bool
	Day           string
	TimeRange     *TimeRange
	MinCredits    *int
	MaxCredits    *int
	ClassroomType jupiterscrape.ClassroomType
}

// ApplyFilters returns the lectures matching every set predicate, in input
// order.
func ApplyFilters(lectures []jupiterscrape.Lecture, filters Filters, now time.Time) []jupiterscrape.Lecture {
	out := make([]jupiterscrape.Lecture, 0, len(lectures))
	for _, lecture := range lectures {
		if filters.matches(lecture, now) {
			out = append(out, lecture)
		}
	}
	return out
}

func (f Filters) matches(lecture jupiterscrape.Lecture, now time.Time) bool {
	if f.Campus != "" && !strings.EqualFold(lecture.Campus, f.Campus) {
		return false
	}
	if f.Unit != "" && !strings.EqualFold(strings.TrimSpace(lecture.Unit), strings.TrimSpace(f.Unit)) {
		return false
	}
	if f.OnlyAvailable && !anyClassroom(lecture, func(c jupiterscrape.Classroom) bool { return c.IsAvailable(now) }) {
		return false
	}
	if f.Day != "" && !anySchedule(lecture, func(s jupiterscrape.Schedule) bool { return strings.EqualFold(s.Day, f.Day) }) {
		return false
	}
	if f.TimeRange != nil && !anySchedule(lecture, f.TimeRange.overlaps) {
		return false
	}
	if f.MinCredits != nil && lecture.TotalCredits() < *f.MinCredits {
		return false
	}
	if f.MaxCredits != nil && lecture.TotalCredits() > *f.MaxCredits {
		return false
	}
	if f.ClassroomType != "" && !anyClassroom(lecture, func(c jupiterscrape.Classroom) bool { return c.Type == f.ClassroomType }) {
		return false
	}
	return true
}

func anyClassroom(lecture jupiterscrape.Lecture, fn func(jupiterscrape.Classroom) bool) bool {
	for _, c := range lecture.Classrooms {
		if fn(c) {
			return true
		}
	}
	return false
}

func anySchedule(lecture jupiterscrape.Lecture, fn func(jupiterscrape.Schedule) bool) bool {
	return anyClassroom(lecture, func(c jupiterscrape.Classroom) bool {
		for _, s := range c.Schedules {
			if fn(s) {
				return true
			}
		}
		return false
	})
}
