package jupiterscrape

import (
	"regexp"
	"strconv"
	"time"
)

// Day tokens as printed on the classroom pages.
const (
	Sunday    = "dom"
	Monday    = "seg"
	Tuesday   = "ter"
	Wednesday = "qua"
	Thursday  = "qui"
	Friday    = "sex"
	Saturday  = "sab"
)

var dayWeekdays = map[string]time.Weekday{
	Sunday:    time.Sunday,
	Monday:    time.Monday,
	Tuesday:   time.Tuesday,
	Wednesday: time.Wednesday,
	Thursday:  time.Thursday,
	Friday:    time.Friday,
	Saturday:  time.Saturday,
}

var clockRegex = regexp.MustCompile(`^(\d{1,2}):(\d{2})$`)

type Schedule struct {
	Day      string   `json:"day,omitempty"`
	Start    string   `json:"start,omitempty"`
	End      string   `json:"end,omitempty"`
	Teachers []string `json:"teachers,omitempty"`
	Location string   `json:"location,omitempty"`
}

// Weekday reports the weekday of the day token. ok is false for tokens
// outside the seven known ones.
func (s Schedule) Weekday() (day time.Weekday, ok bool) {
	day, ok = dayWeekdays[s.Day]
	return day, ok
}

// StartTime is the offset of the start from midnight. Unparsable times are
// treated as midnight.
func (s Schedule) StartTime() time.Duration { return parseClock(s.Start) }

func (s Schedule) EndTime() time.Duration { return parseClock(s.End) }

func (s Schedule) DurationMinutes() int {
	d := s.EndTime() - s.StartTime()
	if d < 0 {
		return 0
	}
	return int(d / time.Minute)
}

// ConflictsWith reports whether both schedules share a day and their
// half-open time intervals intersect.
func (s Schedule) ConflictsWith(other Schedule) bool {
	if s.Day == "" || s.Day != other.Day {
		return false
	}
	return s.StartTime() < other.EndTime() && other.StartTime() < s.EndTime()
}

func parseClock(value string) time.Duration {
	matches := clockRegex.FindStringSubmatch(value)
	if matches == nil {
		return 0
	}
	hours, _ := strconv.Atoi(matches[1])
	minutes, _ := strconv.Atoi(matches[2])
	if hours > 23 || minutes > 59 {
		return 0
	}
	return time.Duration(hours)*time.Hour + time.Duration(minutes)*time.Minute
}
