package jupiterscrape

import (
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

var (
	// listarGradeCurricular?codcg=45&codcur=45052&codhab=1&tipo=N
	courseLinkRegex   = regexp.MustCompile(`codcur=(\d+)&codhab=(\d+)`)
	courseNameRegex   = regexp.MustCompile(`Curso:\s*(.+)$`)
	periodIdealRegex  = regexp.MustCompile(`(?i)Duração ideal:?\s*(.+)$`)
	periodHeaderRegex = regexp.MustCompile(`^(\d+)\s*[º°]\s*Período Ideal`)
)

type LectureType string

const (
	LectureMandatory          LectureType = "obrigatoria"
	LectureRestrictedElective LectureType = "optativa_eletiva"
	LectureFreeElective       LectureType = "optativa_livre"
)

var lectureTypeHeaders = map[string]LectureType{
	"Disciplinas Obrigatórias":       LectureMandatory,
	"Disciplinas Optativas Eletivas": LectureRestrictedElective,
	"Disciplinas Optativas Livres":   LectureFreeElective,
}

const requiredDisciplinesHeader = "Disciplinas Obrigatórias"

// LectureInfo is a node of a curriculum's prerequisite graph.
type LectureInfo struct {
	Code        string      `json:"code"`
	Type        LectureType `json:"type,omitempty"`
	ReqWeak     []string    `json:"req_weak,omitempty"`
	ReqStrong   []string    `json:"req_strong,omitempty"`
	IndConjunto []string    `json:"ind_conjunto,omitempty"`
}

type Course struct {
	Code        string                   `json:"code"`
	Name        string                   `json:"name,omitempty"`
	Unit        string                   `json:"unit,omitempty"`
	PeriodIdeal string                   `json:"period_ideal,omitempty"`
	Periods     map[string][]LectureInfo `json:"periods,omitempty"`
}

type CourseLink struct {
	Curriculum   string `json:"curriculum"`
	Habilitation string `json:"habilitation"`
	Name         string `json:"name,omitempty"`
}

// Code is the course code, "<curriculum>-<habilitation>".
func (l CourseLink) Code() string { return l.Curriculum + "-" + l.Habilitation }

type CourseListing struct {
	Unit  string
	Links []CourseLink
}

// ScrapeCourseLinks reads a unit's course list page.
func ScrapeCourseLinks(doc *goquery.Document) CourseListing {
	listing := CourseListing{
		Unit:  cleanText(doc.Find("span > b").First().Text()),
		Links: make([]CourseLink, 0),
	}
	seen := make(map[string]bool)
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		matches := courseLinkRegex.FindStringSubmatch(a.AttrOr("href", ""))
		if len(matches) < 3 {
			return
		}
		link := CourseLink{Curriculum: matches[1], Habilitation: matches[2], Name: cleanText(a.Text())}
		if seen[link.Code()] {
			return
		}
		seen[link.Code()] = true
		listing.Links = append(listing.Links, link)
	})
	return listing
}

type CourseContext struct {
	// PageURL is the curriculum page address, its codcur and codhab
	// parameters make up the course code.
	PageURL string
	Unit    string
}

func ScrapeCourse(doc *goquery.Document, ctx CourseContext) Course {
	course := Course{
		Code:    courseCode(doc, ctx.PageURL),
		Unit:    ctx.Unit,
		Periods: make(map[string][]LectureInfo),
	}

	names := make([]string, 0)
	for _, line := range pageLines(doc) {
		if matches := courseNameRegex.FindStringSubmatch(line); len(matches) > 1 {
			names = appendUnique(names, strings.TrimSpace(matches[1]))
		}
		if course.PeriodIdeal == "" {
			if matches := periodIdealRegex.FindStringSubmatch(line); len(matches) > 1 {
				course.PeriodIdeal = strings.TrimSpace(matches[1])
			}
		}
	}
	course.Name = strings.Join(names, " - ")

	table := requiredDisciplinesTable(doc)
	if table == nil {
		return course
	}
	state := newCourseTableState()
	table.Find("tr").Each(func(_ int, row *goquery.Selection) {
		state = state.step(courseRow{text: cleanText(row.Text()), cells: cellTexts(row)})
	})
	course.Periods = state.periods
	return course
}

func courseCode(doc *goquery.Document, pageURL string) string {
	if u, err := url.Parse(pageURL); err == nil {
		query := u.Query()
		if cur, hab := query.Get("codcur"), query.Get("codhab"); cur != "" && hab != "" {
			return cur + "-" + hab
		}
	}
	code := ""
	doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		if matches := courseLinkRegex.FindStringSubmatch(a.AttrOr("href", "")); len(matches) > 2 {
			code = matches[1] + "-" + matches[2]
			return false
		}
		return true
	})
	return code
}

// requiredDisciplinesTable picks the innermost table holding the
// required disciplines header.
func requiredDisciplinesTable(doc *goquery.Document) *goquery.Selection {
	holds := func(_ int, s *goquery.Selection) bool {
		return strings.Contains(cleanText(s.Text()), requiredDisciplinesHeader)
	}
	tables := doc.Find("table").FilterFunction(func(i int, s *goquery.Selection) bool {
		return holds(i, s) && s.Find("table").FilterFunction(holds).Length() == 0
	})
	if tables.Length() == 0 {
		return nil
	}
	return tables.First()
}

type courseRow struct {
	text  string
	cells []string
}

// courseTableState is the state carried across the rows of the required
// disciplines table. step never mutates the receiver, row order is what
// drives the transitions.
type courseTableState struct {
	currentType   LectureType
	currentPeriod string
	periods       map[string][]LectureInfo

	lastPeriod string
	hasLast    bool
}

func newCourseTableState() courseTableState {
	return courseTableState{periods: make(map[string][]LectureInfo)}
}

func (s courseTableState) step(row courseRow) courseTableState {
	if t, ok := lectureTypeHeaders[row.text]; ok {
		s.currentType = t
		return s
	}
	if matches := periodHeaderRegex.FindStringSubmatch(row.text); matches != nil {
		s.currentPeriod = matches[1]
		if _, ok := s.periods[s.currentPeriod]; !ok {
			s.periods = s.clonePeriods()
			s.periods[s.currentPeriod] = []LectureInfo{}
		}
		return s
	}
	if len(row.cells) == 0 {
		return s
	}
	if utf8.RuneCountInString(row.cells[0]) == 7 {
		s.periods = s.clonePeriods()
		bucket := s.periods[s.currentPeriod]
		updated := make([]LectureInfo, len(bucket), len(bucket)+1)
		copy(updated, bucket)
		s.periods[s.currentPeriod] = append(updated, LectureInfo{Code: row.cells[0], Type: s.currentType})
		s.lastPeriod = s.currentPeriod
		s.hasLast = true
		return s
	}
	if len(row.cells) > 1 && s.hasLast {
		requirement := runePrefix(row.cells[0], 7)
		switch row.cells[1] {
		case "Requisito fraco":
			return s.withLast(func(l *LectureInfo) { l.ReqWeak = appendCopy(l.ReqWeak, requirement) })
		case "Requisito":
			return s.withLast(func(l *LectureInfo) { l.ReqStrong = appendCopy(l.ReqStrong, requirement) })
		case "Indicação de Conjunto":
			return s.withLast(func(l *LectureInfo) { l.IndConjunto = appendCopy(l.IndConjunto, requirement) })
		}
	}
	return s
}

// withLast applies update to a copy of the last added lecture.
func (s courseTableState) withLast(update func(*LectureInfo)) courseTableState {
	s.periods = s.clonePeriods()
	bucket := s.periods[s.lastPeriod]
	updated := make([]LectureInfo, len(bucket))
	copy(updated, bucket)
	update(&updated[len(updated)-1])
	s.periods[s.lastPeriod] = updated
	return s
}

func (s courseTableState) clonePeriods() map[string][]LectureInfo {
	periods := make(map[string][]LectureInfo, len(s.periods)+1)
	for k, v := range s.periods {
		periods[k] = v
	}
	return periods
}

func appendCopy(list []string, value string) []string {
	updated := make([]string, len(list), len(list)+1)
	copy(updated, list)
	return append(updated, value)
}
