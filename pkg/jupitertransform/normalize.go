package jupitertransform

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/lukasmoellerch/jupiter-go/pkg/jupiterscrape"
)

const (
	MaxCredits  = 20
	MaxVacancy  = 1000
	otherCampus = jupiterscrape.CampusOther
)

var ErrInvalidText = errors.New("invalid UTF-8 text")

var timeRegex = regexp.MustCompile(`^\d{1,2}:\d{2}$`)

// Keys are folded with foldKey.
var campusSynonyms = map[string]string{
	"sao paulo":            jupiterscrape.CampusSaoPaulo,
	"sp":                   jupiterscrape.CampusSaoPaulo,
	"capital":              jupiterscrape.CampusSaoPaulo,
	"butanta":              jupiterscrape.CampusSaoPaulo,
	"cidade universitaria": jupiterscrape.CampusSaoPaulo,
	"sao carlos":           jupiterscrape.CampusSaoCarlos,
	"sc":                   jupiterscrape.CampusSaoCarlos,
	"ribeirao preto":       jupiterscrape.CampusRibeiraoPreto,
	"ribeirao":             jupiterscrape.CampusRibeiraoPreto,
	"rp":                   jupiterscrape.CampusRibeiraoPreto,
	"piracicaba":           jupiterscrape.CampusPiracicaba,
	"esalq":                jupiterscrape.CampusPiracicaba,
	"bauru":                jupiterscrape.CampusBauru,
	"lorena":               jupiterscrape.CampusLorena,
	"eel":                  jupiterscrape.CampusLorena,
	"pirassununga":         jupiterscrape.CampusPirassununga,
	"fzea":                 jupiterscrape.CampusPirassununga,
	"santos":               jupiterscrape.CampusSantos,
	"outro":                otherCampus,
	"outros":               otherCampus,
}

var weekdaySynonyms = map[string]string{
	"dom": jupiterscrape.Sunday, "domingo": jupiterscrape.Sunday, "sun": jupiterscrape.Sunday, "sunday": jupiterscrape.Sunday,
	"seg": jupiterscrape.Monday, "segunda": jupiterscrape.Monday, "segunda-feira": jupiterscrape.Monday, "2a": jupiterscrape.Monday, "2ª": jupiterscrape.Monday, "mon": jupiterscrape.Monday, "monday": jupiterscrape.Monday,
	"ter": jupiterscrape.Tuesday, "terca": jupiterscrape.Tuesday, "terca-feira": jupiterscrape.Tuesday, "3a": jupiterscrape.Tuesday, "3ª": jupiterscrape.Tuesday, "tue": jupiterscrape.Tuesday, "tuesday": jupiterscrape.Tuesday,
	"qua": jupiterscrape.Wednesday, "quarta": jupiterscrape.Wednesday, "quarta-feira": jupiterscrape.Wednesday, "4a": jupiterscrape.Wednesday, "4ª": jupiterscrape.Wednesday, "wed": jupiterscrape.Wednesday, "wednesday": jupiterscrape.Wednesday,
	"qui": jupiterscrape.Thursday, "quinta": jupiterscrape.Thursday, "quinta-feira": jupiterscrape.Thursday, "5a": jupiterscrape.Thursday, "5ª": jupiterscrape.Thursday, "thu": jupiterscrape.Thursday, "thursday": jupiterscrape.Thursday,
	"sex": jupiterscrape.Friday, "sexta": jupiterscrape.Friday, "sexta-feira": jupiterscrape.Friday, "6a": jupiterscrape.Friday, "6ª": jupiterscrape.Friday, "fri": jupiterscrape.Friday, "friday": jupiterscrape.Friday,
	"sab": jupiterscrape.Saturday, "sabado": jupiterscrape.Saturday, "sat": jupiterscrape.Saturday, "saturday": jupiterscrape.Saturday,
}

var unitNameParticles = map[string]bool{
	"a": true, "ao": true, "da": true, "das": true, "de": true, "do": true, "dos": true, "e": true, "em": true, "na": true, "no": true,
}

// foldKey lowercases s and strips its diacritics.
func foldKey(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(strings.Join(strings.Fields(folded), " "))
}

func checkText(field, s string) error {
	if !utf8.ValidString(s) {
		return fmt.Errorf("%s: %w", field, ErrInvalidText)
	}
	return nil
}

// NormalizeCode trims and uppercases an entity code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// NormalizeCampus maps campus spellings to the canonical campus names. Blank
// input stays blank, anything unrecognized becomes "Outro".
func NormalizeCampus(campus string) string {
	key := foldKey(campus)
	if key == "" {
		return ""
	}
	if canonical, ok := campusSynonyms[key]; ok {
		return canonical
	}
	for _, canonical := range jupiterscrape.Campuses() {
		if foldKey(canonical) == key {
			return canonical
		}
	}
	return otherCampus
}

// NormalizeWeekday maps day spellings to the three letter day tokens.
// Unknown input is returned lowercased.
func NormalizeWeekday(day string) string {
	trimmed := strings.ToLower(strings.TrimSpace(day))
	if canonical, ok := weekdaySynonyms[foldKey(trimmed)]; ok {
		return canonical
	}
	return trimmed
}

func NormalizeTime(t string) string {
	t = strings.TrimSpace(t)
	if !timeRegex.MatchString(t) {
		return ""
	}
	return t
}

// NormalizeUnitName title cases multi word unit names written in all
// capitals. Single words are kept since they are usually acronyms.
func NormalizeUnitName(name string) string {
	name = strings.TrimSpace(name)
	if len(strings.Fields(name)) < 2 || name != strings.ToUpper(name) || name == strings.ToLower(name) {
		return name
	}
	words := strings.Fields(cases.Title(language.BrazilianPortuguese).String(name))
	for i, word := range words {
		if i > 0 && unitNameParticles[strings.ToLower(word)] {
			words[i] = strings.ToLower(word)
		}
	}
	return strings.Join(words, " ")
}

func ClampCredits(n int) int {
	return clamp(n, 0, MaxCredits)
}

func ClampVacancy(n int) int {
	return clamp(n, 0, MaxVacancy)
}

func clamp(n, min, max int) int {
	if n < min {
		return min
	}
	if n > max {
		return max
	}
	return n
}

// mapStrings applies fn to every element, keeping nil slices nil.
func mapStrings(values []string, fn func(string) string) []string {
	if values == nil {
		return nil
	}
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = fn(v)
	}
	return out
}

func checkTexts(field string, values []string) error {
	for _, v := range values {
		if err := checkText(field, v); err != nil {
			return err
		}
	}
	return nil
}
