package jupiterscrape

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

type ClassroomType string

const (
	ClassroomStandard    ClassroomType = ""
	ClassroomTheoretical ClassroomType = "teorica"
	ClassroomPractical   ClassroomType = "pratica"
	ClassroomCombined    ClassroomType = "combinada"
)

const classroomDateLayout = "02/01/2006"

var classroomCodeRegex = regexp.MustCompile(`[0-9A-Za-z]+`)

type VacancyInfo struct {
	Total      int                    `json:"total"`
	Subscribed int                    `json:"subscribed"`
	Pending    int                    `json:"pending"`
	Enrolled   int                    `json:"enrolled"`
	Groups     map[string]VacancyInfo `json:"groups,omitempty"`
}

type Classroom struct {
	Code            string                 `json:"code,omitempty"`
	StartDate       string                 `json:"start_date,omitempty"`
	EndDate         string                 `json:"end_date,omitempty"`
	Observations    string                 `json:"observations,omitempty"`
	Teachers        []string               `json:"teachers,omitempty"`
	Schedules       []Schedule             `json:"schedules,omitempty"`
	Vacancies       map[string]VacancyInfo `json:"vacancies,omitempty"`
	Type            ClassroomType          `json:"type,omitempty"`
	TheoreticalCode string                 `json:"theoretical_code,omitempty"`
}

// IsActive reports whether now falls inside the classroom's date range. The
// dates are kept as printed, if either one does not parse the classroom is
// assumed to be active.
func (c Classroom) IsActive(now time.Time) bool {
	start, err := time.ParseInLocation(classroomDateLayout, c.StartDate, now.Location())
	if err != nil {
		return true
	}
	end, err := time.ParseInLocation(classroomDateLayout, c.EndDate, now.Location())
	if err != nil {
		return true
	}
	return !now.Before(start) && now.Before(end.AddDate(0, 0, 1))
}

// Capacity is the sum of the category totals.
func (c Classroom) Capacity() int {
	total := 0
	for _, v := range c.Vacancies {
		total += v.Total
	}
	return total
}

func (c Classroom) Enrolled() int {
	total := 0
	for _, v := range c.Vacancies {
		total += v.Enrolled
	}
	return total
}

func (c Classroom) HasFreeSeats() bool { return c.Enrolled() < c.Capacity() }

func (c Classroom) IsAvailable(now time.Time) bool {
	return c.HasFreeSeats() && c.IsActive(now)
}

type classroomBuilder struct {
	classroom    Classroom
	lastCategory string
}

func (b *classroomBuilder) build() Classroom {
	c := b.classroom
	for _, s := range c.Schedules {
		c.Teachers = appendUnique(c.Teachers, s.Teachers...)
	}
	return c
}

// ScrapeClassrooms walks the leaf tables of a classroom page in order. A
// table holding "Código da Turma" starts a new classroom, "Horário" tables add
// schedules and "Vagas" tables add vacancies to the current one. The result is
// passed through LinkClassrooms.
func ScrapeClassrooms(doc *goquery.Document) []Classroom {
	classrooms := make([]Classroom, 0)
	var current *classroomBuilder

	leafTables(doc).Each(func(_ int, table *goquery.Selection) {
		text := cleanText(table.Text())
		switch {
		case strings.Contains(text, "Código da Turma"):
			if current != nil {
				classrooms = append(classrooms, current.build())
			}
			current = &classroomBuilder{classroom: scrapeClassroomHeader(table)}
		case current == nil:
			return
		case strings.Contains(text, "Horário"):
			current.classroom.Schedules = append(current.classroom.Schedules, scrapeSchedules(table)...)
		case strings.Contains(text, "Vagas"):
			scrapeVacancies(table, current)
		}
	})
	if current != nil {
		classrooms = append(classrooms, current.build())
	}

	return LinkClassrooms(classrooms)
}

func scrapeClassroomHeader(table *goquery.Selection) Classroom {
	var c Classroom
	var typeText string
	table.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := cellTexts(row)
		if len(cells) < 2 {
			return
		}
		label := strings.TrimSpace(strings.TrimSuffix(cells[0], ":"))
		value := cells[1]
		switch {
		case strings.HasPrefix(label, "Código da Turma Teórica"):
			c.TheoreticalCode = classroomCodeRegex.FindString(value)
		case strings.HasPrefix(label, "Código da Turma"):
			c.Code = classroomCodeRegex.FindString(value)
		case strings.HasPrefix(label, "Início"):
			c.StartDate = value
		case strings.HasPrefix(label, "Fim"):
			c.EndDate = value
		case strings.HasPrefix(label, "Tipo da Turma"):
			typeText = strings.ToLower(value)
		case strings.HasPrefix(label, "Observações"):
			c.Observations = value
		}
	})

	switch {
	case strings.Contains(typeText, "prática") || strings.Contains(typeText, "pratica"):
		c.Type = ClassroomPractical
	case strings.Contains(typeText, "teórica") || strings.Contains(typeText, "teorica"):
		c.Type = ClassroomTheoretical
	case c.TheoreticalCode != "":
		c.Type = ClassroomPractical
	}
	return c
}

// scrapeSchedules follows the portal's row spanning: a row with a day starts a
// new entry, a row with neither day nor start time but a teacher adds a
// co-teacher to the current entry. A row with a start time but no day is a
// second slot on the previous day.
func scrapeSchedules(table *goquery.Selection) []Schedule {
	schedules := make([]Schedule, 0)
	var current *Schedule
	flush := func() {
		if current != nil {
			schedules = append(schedules, *current)
			current = nil
		}
	}

	table.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := cellTexts(row)
		if len(cells) < 2 || cells[0] == "Horário" {
			return
		}
		day, start := cells[0], cells[1]
		var end, teacher, location string
		if len(cells) > 2 {
			end = cells[2]
		}
		if len(cells) > 3 {
			teacher = cells[3]
		}
		if len(cells) > 4 {
			location = cells[4]
		}

		switch {
		case day != "":
			flush()
			current = &Schedule{Day: day, Start: start, End: end, Location: location}
		case start != "":
			previousDay := ""
			if current != nil {
				previousDay = current.Day
			} else if len(schedules) > 0 {
				previousDay = schedules[len(schedules)-1].Day
			}
			flush()
			current = &Schedule{Day: previousDay, Start: start, End: end, Location: location}
		case teacher == "" || current == nil:
			return
		}
		if teacher != "" {
			current.Teachers = appendUnique(current.Teachers, teacher)
		}
	})
	flush()
	return schedules
}

// scrapeVacancies distinguishes category rows (5 cells) from sub-group rows
// (6 cells) by cell count. Rows whose counts do not parse, like the header,
// are skipped.
func scrapeVacancies(table *goquery.Selection, b *classroomBuilder) {
	table.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := cellTexts(row)
		switch len(cells) {
		case 5:
			info, ok := parseVacancyCounts(cells[1:])
			if !ok || cells[0] == "" {
				return
			}
			if b.classroom.Vacancies == nil {
				b.classroom.Vacancies = make(map[string]VacancyInfo)
			}
			b.classroom.Vacancies[cells[0]] = info
			b.lastCategory = cells[0]
		case 6:
			info, ok := parseVacancyCounts(cells[2:])
			if !ok || b.lastCategory == "" || cells[1] == "" {
				return
			}
			category := b.classroom.Vacancies[b.lastCategory]
			if category.Groups == nil {
				category.Groups = make(map[string]VacancyInfo)
			}
			category.Groups[cells[1]] = info
			b.classroom.Vacancies[b.lastCategory] = category
		}
	})
}

func parseVacancyCounts(cells []string) (VacancyInfo, bool) {
	counts := make([]int, 4)
	for i := range counts {
		n, err := strconv.Atoi(strings.TrimSpace(cells[i]))
		if err != nil {
			return VacancyInfo{}, false
		}
		counts[i] = n
	}
	return VacancyInfo{Total: counts[0], Subscribed: counts[1], Pending: counts[2], Enrolled: counts[3]}, true
}

// LinkClassrooms merges every practical classroom with the theoretical
// classroom it references. Theoretical classrooms consumed by a merge are
// dropped, everything else passes through in its original order.
func LinkClassrooms(classrooms []Classroom) []Classroom {
	theoretical := make(map[string]Classroom)
	for _, c := range classrooms {
		if c.Type == ClassroomTheoretical && c.Code != "" {
			if _, ok := theoretical[c.Code]; !ok {
				theoretical[c.Code] = c
			}
		}
	}

	consumed := make(map[string]bool)
	merged := make([]Classroom, 0, len(classrooms))
	for _, c := range classrooms {
		if c.Type == ClassroomPractical && c.TheoreticalCode != "" {
			if theory, ok := theoretical[c.TheoreticalCode]; ok {
				merged = append(merged, mergeClassrooms(theory, c))
				consumed[theory.Code] = true
				continue
			}
		}
		merged = append(merged, c)
	}

	linked := make([]Classroom, 0, len(merged))
	for _, c := range merged {
		if c.Type == ClassroomTheoretical && consumed[c.Code] {
			continue
		}
		linked = append(linked, c)
	}
	return linked
}

// mergeClassrooms builds the combined classroom. Vacancies come from the
// practical side only.
func mergeClassrooms(theory, practical Classroom) Classroom {
	combined := Classroom{
		Code:            practical.Code,
		StartDate:       practical.StartDate,
		EndDate:         practical.EndDate,
		Vacancies:       practical.Vacancies,
		Type:            ClassroomCombined,
		TheoreticalCode: theory.Code,
	}
	if combined.StartDate == "" {
		combined.StartDate = theory.StartDate
	}
	if combined.EndDate == "" {
		combined.EndDate = theory.EndDate
	}

	observations := make([]string, 0, 2)
	for _, o := range []string{theory.Observations, practical.Observations} {
		if o != "" {
			observations = append(observations, o)
		}
	}
	combined.Observations = strings.Join(observations, "\n")

	combined.Teachers = appendUnique(nil, theory.Teachers...)
	combined.Teachers = appendUnique(combined.Teachers, practical.Teachers...)

	combined.Schedules = make([]Schedule, 0, len(theory.Schedules)+len(practical.Schedules))
	combined.Schedules = append(combined.Schedules, theory.Schedules...)
	combined.Schedules = append(combined.Schedules, practical.Schedules...)
	return combined
}
