package jupiterfetch

import (
	"net/url"
	"strconv"
	"strings"
)

const DefaultBaseURL = "https://uspdigital.usp.br/jupiterweb/"

// URLs builds the addresses of the portal pages relative to a base URL.
type URLs struct {
	Base string
}

func (u URLs) page(path string, query url.Values) string {
	base := u.Base
	if base == "" {
		base = DefaultBaseURL
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base + path + "?" + query.Encode()
}

func (u URLs) UnitList() string {
	query := url.Values{}
	query.Add("tipo", "D")
	return u.page("jupColegiadoLista", query)
}

func (u URLs) DisciplineList(unitCode int) string {
	query := url.Values{}
	query.Add("codcg", strconv.Itoa(unitCode))
	query.Add("letra", "A-Z")
	query.Add("tipo", "D")
	return u.page("jupDisciplinaLista", query)
}

func (u URLs) CourseList(unitCode int) string {
	query := url.Values{}
	query.Add("codcg", strconv.Itoa(unitCode))
	query.Add("tipo", "N")
	return u.page("jupCursoLista", query)
}

func (u URLs) Curriculum(unitCode int, curriculum, habilitation string) string {
	query := url.Values{}
	query.Add("codcg", strconv.Itoa(unitCode))
	query.Add("codcur", curriculum)
	query.Add("codhab", habilitation)
	query.Add("tipo", "N")
	return u.page("listarGradeCurricular", query)
}

func (u URLs) LectureInfo(code string) string {
	query := url.Values{}
	query.Add("sgldis", code)
	return u.page("obterDisciplina", query)
}

func (u URLs) Classrooms(code string) string {
	query := url.Values{}
	query.Add("sgldis", code)
	return u.page("obterTurma", query)
}
