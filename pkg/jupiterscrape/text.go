package jupiterscrape

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

var spaceRegex = regexp.MustCompile(`\s+`)

// cleanText collapses whitespace (including non-breaking spaces, which the
// portal uses for padding) and trims the result.
func cleanText(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	return strings.TrimSpace(spaceRegex.ReplaceAllString(s, " "))
}

func cellTexts(row *goquery.Selection) []string {
	cells := row.ChildrenFiltered("td, th")
	texts := make([]string, 0, cells.Length())
	cells.Each(func(_ int, cell *goquery.Selection) {
		texts = append(texts, cleanText(cell.Text()))
	})
	return texts
}

// leafTables returns the tables that contain no nested table. The portal
// nests layout tables several levels deep, only the innermost ones carry data.
func leafTables(doc *goquery.Document) *goquery.Selection {
	return doc.Find("table").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return s.Find("table").Length() == 0
	})
}

// pageLines returns the text of every leaf cell in document order.
func pageLines(doc *goquery.Document) []string {
	lines := make([]string, 0)
	doc.Find("td").Each(func(_ int, td *goquery.Selection) {
		if td.Find("table").Length() > 0 {
			return
		}
		if text := cleanText(td.Text()); text != "" {
			lines = append(lines, text)
		}
	})
	if len(lines) == 0 {
		for _, line := range strings.Split(doc.Text(), "\n") {
			if text := cleanText(line); text != "" {
				lines = append(lines, text)
			}
		}
	}
	return lines
}

func runePrefix(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

func appendUnique(list []string, values ...string) []string {
	for _, v := range values {
		if v == "" {
			continue
		}
		contained := false
		for _, existing := range list {
			if existing == v {
				contained = true
				break
			}
		}
		if !contained {
			list = append(list, v)
		}
	}
	return list
}
