package jupiterscrape

const (
	CampusSaoPaulo      = "São Paulo"
	CampusSaoCarlos     = "São Carlos"
	CampusRibeiraoPreto = "Ribeirão Preto"
	CampusPiracicaba    = "Piracicaba"
	CampusBauru         = "Bauru"
	CampusLorena        = "Lorena"
	CampusPirassununga  = "Pirassununga"
	CampusSantos        = "Santos"
	CampusOther         = "Outro"
)

type codeRange struct {
	from, to int
}

// Unit codes (codcg) per campus. Ranges are inclusive, the first campus whose
// ranges contain a code wins.
var campusRanges = []struct {
	campus string
	ranges []codeRange
}{
	{CampusBauru, []codeRange{{25, 25}, {61, 61}}},
	{CampusLorena, []codeRange{{88, 88}}},
	{CampusPiracicaba, []codeRange{{11, 11}, {64, 64}}},
	{CampusPirassununga, []codeRange{{74, 74}}},
	{CampusRibeiraoPreto, []codeRange{{22, 22}, {58, 60}, {81, 81}, {89, 89}, {98, 98}}},
	{CampusSantos, []codeRange{{66, 66}}},
	{CampusSaoCarlos, []codeRange{{18, 18}, {55, 55}, {75, 76}, {87, 87}, {97, 97}}},
	{CampusSaoPaulo, []codeRange{{1, 17}, {21, 21}, {23, 23}, {27, 27}, {30, 49}, {71, 71}, {86, 86}, {90, 96}}},
}

// CampusForCode maps a unit code to the campus the unit belongs to.
func CampusForCode(code int) string {
	for _, c := range campusRanges {
		for _, r := range c.ranges {
			if code >= r.from && code <= r.to {
				return c.campus
			}
		}
	}
	return CampusOther
}

// Campuses lists the known campus names.
func Campuses() []string {
	names := make([]string, 0, len(campusRanges))
	for _, c := range campusRanges {
		names = append(names, c.campus)
	}
	return names
}
