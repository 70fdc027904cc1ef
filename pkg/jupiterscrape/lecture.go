package jupiterscrape

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	lectureNameRegex = regexp.MustCompile(`Disciplina:\s*[A-Za-z0-9]{7}\s*-\s*(.+)$`)
	creditsRegex     = regexp.MustCompile(`\d+`)
	// obterDisciplina?sgldis=MAC0110&codcur=45052&codhab=1
	disciplineRegex = regexp.MustCompile(`sgldis=([A-Za-z0-9]{7})`)
)

type Lecture struct {
	Code           string      `json:"code"`
	Name           string      `json:"name,omitempty"`
	Unit           string      `json:"unit,omitempty"`
	Department     string      `json:"department,omitempty"`
	Campus         string      `json:"campus,omitempty"`
	Objectives     string      `json:"objectives,omitempty"`
	Summary        string      `json:"summary,omitempty"`
	LectureCredits int         `json:"lecture_credits"`
	WorkCredits    int         `json:"work_credits"`
	Classrooms     []Classroom `json:"classrooms,omitempty"`
}

func (l Lecture) TotalCredits() int { return l.LectureCredits + l.WorkCredits }

type DisciplineLink struct {
	Code string `json:"code"`
	Name string `json:"name,omitempty"`
}

// ScrapeDisciplineLinks collects the disciplines listed on a unit's
// discipline list page, first occurrence of a code wins.
func ScrapeDisciplineLinks(doc *goquery.Document) []DisciplineLink {
	links := make([]DisciplineLink, 0)
	seen := make(map[string]bool)
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		matches := disciplineRegex.FindStringSubmatch(a.AttrOr("href", ""))
		if len(matches) < 2 {
			return
		}
		code := strings.ToUpper(matches[1])
		if seen[code] {
			return
		}
		seen[code] = true

		name := cleanText(a.Text())
		if name == code || name == "" {
			name = cleanText(a.Closest("td").Next().Text())
		}
		links = append(links, DisciplineLink{Code: code, Name: name})
	})
	return links
}

// ScrapeLecture parses the info page and the classroom page of a lecture.
// classrooms may be nil when the classroom page could not be fetched.
func ScrapeLecture(info, classrooms *goquery.Document, units UnitTable, code string) Lecture {
	lecture := ScrapeLectureInfo(info, units, code)
	if classrooms != nil {
		lecture.Classrooms = ScrapeClassrooms(classrooms)
	}
	return lecture
}

// ScrapeLectureInfo reads unit and department from the first two rows of the
// header table and the name from the "Disciplina:" row.
func ScrapeLectureInfo(doc *goquery.Document, units UnitTable, code string) Lecture {
	lecture := Lecture{Code: code}

	var header *goquery.Selection
	leafTables(doc).EachWithBreak(func(_ int, table *goquery.Selection) bool {
		if table.Find("tr").Length() < 3 {
			return true
		}
		if header == nil {
			header = table
		}
		if strings.Contains(table.Text(), "Disciplina:") {
			header = table
			return false
		}
		return true
	})
	if header != nil {
		rows := header.Find("tr")
		lecture.Unit = cleanText(rows.Eq(0).Text())
		lecture.Department = cleanText(rows.Eq(1).Text())
	}
	if unitCode, ok := units.Code(lecture.Unit); ok {
		lecture.Campus = CampusForCode(unitCode)
	}

	doc.Find("tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		if row.Find("tr").Length() > 0 {
			return true
		}
		text := cleanText(row.Text())
		if !strings.Contains(text, "Disciplina:") {
			return true
		}
		lecture.Name = lectureName(text, code)
		return false
	})
	if lecture.Name == "" {
		lecture.Name = code
	}

	lecture.Objectives = labelValue(doc, "Objetivos")
	lecture.Summary = labelValue(doc, "Programa Resumido")
	lecture.LectureCredits = parseCredits(labelValue(doc, "Créditos Aula"))
	lecture.WorkCredits = parseCredits(labelValue(doc, "Créditos Trabalho"))

	return lecture
}

// lectureName tries, in order: the label regex, splitting on the hyphen that
// follows the code, and whatever follows the label.
func lectureName(row, code string) string {
	if matches := lectureNameRegex.FindStringSubmatch(row); len(matches) > 1 {
		if name := strings.TrimSpace(matches[1]); name != "" {
			return name
		}
	}
	if i := strings.Index(row, code); code != "" && i >= 0 {
		parts := strings.SplitN(row[i+len(code):], "-", 2)
		if len(parts) == 2 {
			if name := strings.TrimSpace(parts[1]); name != "" {
				return name
			}
		}
	}
	if i := strings.Index(row, "Disciplina:"); i >= 0 {
		rest := strings.TrimSpace(row[i+len("Disciplina:"):])
		rest = strings.TrimSpace(strings.TrimPrefix(rest, "-"))
		if rest != "" {
			return rest
		}
	}
	return code
}

// labelValue finds the first leaf row whose first cell starts with label and
// returns the second cell, or the text of the following row when the value is
// printed below the label.
func labelValue(doc *goquery.Document, label string) string {
	value := ""
	doc.Find("tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		if row.Find("tr").Length() > 0 {
			return true
		}
		cells := cellTexts(row)
		if len(cells) == 0 || !strings.HasPrefix(cells[0], label) {
			return true
		}
		if len(cells) > 1 && strings.Join(cells[1:], "") != "" {
			value = strings.TrimSpace(strings.Join(cells[1:], " "))
		} else if rest := strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(cells[0], label), ":")); rest != "" {
			value = rest
		} else {
			value = cleanText(row.Next().Text())
		}
		return false
	})
	return value
}

func parseCredits(value string) int {
	n, err := strconv.Atoi(creditsRegex.FindString(value))
	if err != nil {
		return 0
	}
	return n
}
