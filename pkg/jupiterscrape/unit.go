package jupiterscrape

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// jupColegiadoMenu.jsp?codcg=45&tipo=D&nomclg=Instituto+de+Matem%E1tica+e+Estat%EDstica
var unitRegex = regexp.MustCompile(`codcg=(\d+)`)

type Unit struct {
	Name   string `json:"name"`
	Code   int    `json:"code"`
	Campus string `json:"campus,omitempty"`
}

// UnitTable is an immutable name to code lookup built from the unit list
// page. It is passed explicitly to everything that resolves units.
type UnitTable struct {
	units  []Unit
	byName map[string]int
	byCode map[int]int
}

// NewUnitTable builds a table from units. The first unit with a given name wins.
func NewUnitTable(units []Unit) UnitTable {
	t := UnitTable{
		units:  make([]Unit, 0, len(units)),
		byName: make(map[string]int, len(units)),
		byCode: make(map[int]int, len(units)),
	}
	for _, u := range units {
		if _, ok := t.byName[u.Name]; ok {
			continue
		}
		if u.Campus == "" {
			u.Campus = CampusForCode(u.Code)
		}
		t.byName[u.Name] = len(t.units)
		if _, ok := t.byCode[u.Code]; !ok {
			t.byCode[u.Code] = len(t.units)
		}
		t.units = append(t.units, u)
	}
	return t
}

func (t UnitTable) Len() int { return len(t.units) }

// Units returns a copy of the units in the order they were scraped.
func (t UnitTable) Units() []Unit {
	units := make([]Unit, len(t.units))
	copy(units, t.units)
	return units
}

// Lookup finds a unit by name, falling back to a case-insensitive match.
func (t UnitTable) Lookup(name string) (Unit, bool) {
	name = cleanText(name)
	if i, ok := t.byName[name]; ok {
		return t.units[i], true
	}
	for _, u := range t.units {
		if strings.EqualFold(u.Name, name) {
			return u, true
		}
	}
	return Unit{}, false
}

func (t UnitTable) Code(name string) (int, bool) {
	u, ok := t.Lookup(name)
	return u.Code, ok
}

func (t UnitTable) Name(code int) (string, bool) {
	i, ok := t.byCode[code]
	if !ok {
		return "", false
	}
	return t.units[i].Name, true
}

// Select returns the sub-table of units whose names are in names. An empty
// selection returns the full table.
func (t UnitTable) Select(names map[string]struct{}) UnitTable {
	if len(names) == 0 {
		return t
	}
	selected := make([]Unit, 0, len(names))
	for _, u := range t.units {
		for name := range names {
			if strings.EqualFold(cleanText(name), u.Name) {
				selected = append(selected, u)
				break
			}
		}
	}
	return NewUnitTable(selected)
}

// ScrapeUnits extracts every unit link from the unit list page. Links whose
// target carries no unit code are skipped.
func ScrapeUnits(doc *goquery.Document) UnitTable {
	units := make([]Unit, 0)
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		matches := unitRegex.FindStringSubmatch(a.AttrOr("href", ""))
		if len(matches) < 2 {
			return
		}
		code, err := strconv.Atoi(matches[1])
		if err != nil {
			return
		}
		name := cleanText(a.Text())
		if name == "" {
			return
		}
		units = append(units, Unit{Name: name, Code: code, Campus: CampusForCode(code)})
	})
	return NewUnitTable(units)
}
