package jupitersearch

import (
	"strings"
	"time"

	"github.com/lukasmoellerch/jupiter-go/pkg/jupiterscrape"
)

const (
	scoreExactCode   = 100
	scoreCodePrefix  = 50
	scoreCodeContain = 25
	scoreName        = 20
	scoreDepartment  = 10
	scoreSummary     = 5
	scoreTeacher     = 15
	scoreAvailable   = 10
	scoreFreeSeats   = 5
)

// RelevanceScore adds up the bonuses a lecture earns for query. The bonuses
// stack, an exact code match also counts as prefix and substring match.
func RelevanceScore(lecture jupiterscrape.Lecture, query string, now time.Time) int {
	code := strings.ToUpper(lecture.Code)
	upper := strings.ToUpper(strings.TrimSpace(query))
	lower := strings.ToLower(strings.TrimSpace(query))

	score := 0
	if upper != "" {
		if code == upper {
			score += scoreExactCode
		}
		if strings.HasPrefix(code, upper) {
			score += scoreCodePrefix
		}
		if strings.Contains(code, upper) {
			score += scoreCodeContain
		}
		if containsFold(lecture.Name, lower) {
			score += scoreName
		}
		if containsFold(lecture.Department, lower) {
			score += scoreDepartment
		}
		if containsFold(lecture.Summary, lower) {
			score += scoreSummary
		}
		if anyClassroom(lecture, func(c jupiterscrape.Classroom) bool {
			for _, teacher := range c.Teachers {
				if containsFold(teacher, lower) {
					return true
				}
			}
			return false
		}) {
			score += scoreTeacher
		}
	}

	if len(lecture.Classrooms) > 0 && anyClassroom(lecture, func(c jupiterscrape.Classroom) bool { return c.IsActive(now) }) {
		score += scoreAvailable
	}
	if anyClassroom(lecture, jupiterscrape.Classroom.HasFreeSeats) {
		score += scoreFreeSeats
	}
	return score
}

func containsFold(s, lowerQuery string) bool {
	return strings.Contains(strings.ToLower(s), lowerQuery)
}
